package introdb

import (
	"sync"
	"time"

	"github.com/vidra-app/vidra/log"
)

// Skipper drives skip decisions against the playback clock for one episode.
//
// Auto-skip fires at most once per segment type per episode, and all skip
// actions (auto or manual) share a wall-clock rate limit so playback hovering
// near a boundary cannot oscillate.
//
// Check runs on the backend's event goroutine while SkipManual comes from the
// host, so the skipper synchronizes its own state.
type Skipper struct {
	seek      func(sec float64) error
	rateLimit time.Duration

	mu       sync.Mutex
	segments *EpisodeSegments
	skipped  map[SegmentType]bool
	lastSkip time.Time

	// now is swappable for tests.
	now func() time.Time
}

// NewSkipper creates a skipper bound to a seek function, typically the
// orchestrator's. rateLimit is the minimum wall-clock interval between two
// skip actions.
func NewSkipper(segments *EpisodeSegments, rateLimit time.Duration, seek func(sec float64) error) *Skipper {
	return &Skipper{
		segments:  segments,
		seek:      seek,
		rateLimit: rateLimit,
		skipped:   make(map[SegmentType]bool),
		now:       time.Now,
	}
}

// Reset rebinds the skipper to a new episode, clearing the once-per-type
// bookkeeping. The rate limit clock deliberately carries over.
func (sk *Skipper) Reset(segments *EpisodeSegments) {
	sk.mu.Lock()
	defer sk.mu.Unlock()

	sk.segments = segments
	sk.skipped = make(map[SegmentType]bool)
}

// Check inspects the current playback position and auto-skips when it sits
// inside a not-yet-skipped segment. Returns true if a skip was performed.
func (sk *Skipper) Check(pos float64) (bool, error) {
	sk.mu.Lock()
	defer sk.mu.Unlock()

	active, ok := Active(sk.segments, pos).Get()
	if !ok {
		return false, nil
	}

	if sk.skipped[active.Type] {
		return false, nil
	}

	if !sk.allowedLocked() {
		return false, nil
	}

	log.Infof("skipping %s: %.1f -> %.1f", active.Type, pos, active.SkipToSec)
	if err := sk.seek(active.SkipToSec); err != nil {
		return false, err
	}

	sk.skipped[active.Type] = true
	sk.lastSkip = sk.now()
	return true, nil
}

// SkipManual performs a user-initiated skip of the segment covering pos.
// It obeys the shared rate limit but ignores the once-per-type flag, and
// records the skip so auto-skip does not re-fire for the same type.
func (sk *Skipper) SkipManual(pos float64) (bool, error) {
	sk.mu.Lock()
	defer sk.mu.Unlock()

	active, ok := Active(sk.segments, pos).Get()
	if !ok {
		return false, nil
	}

	if !sk.allowedLocked() {
		return false, nil
	}

	if err := sk.seek(active.SkipToSec); err != nil {
		return false, err
	}

	sk.skipped[active.Type] = true
	sk.lastSkip = sk.now()
	return true, nil
}

// allowedLocked enforces the wall-clock rate limit between skip actions.
// Callers hold sk.mu.
func (sk *Skipper) allowedLocked() bool {
	return sk.lastSkip.IsZero() || sk.now().Sub(sk.lastSkip) >= sk.rateLimit
}
