package playback

// Progress computes the watched percentage (0-100) for a position within a
// duration. A zero or negative duration yields 0 rather than dividing by zero,
// and the result is clamped so late time reports past EOF cannot exceed 100.
func Progress(currentSec, durationSec float64) float64 {
	if durationSec <= 0 {
		return 0
	}

	ratio := currentSec / durationSec
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return ratio * 100
}
