// Package subtitle implements the application-rendered subtitle engine: loading
// a subtitle source, parsing it into timed cues, and resolving the active cue
// for a continuously advancing playback clock with a user-adjustable delay.
package subtitle

import "sort"

// Cue is one timed subtitle line. Cues within a source are ordered by StartMs
// ascending and do not overlap.
type Cue struct {
	StartMs int64  `json:"start_ms"`
	EndMs   int64  `json:"end_ms"`
	Text    string `json:"text"`
}

// Source describes an external subtitle source. A Source either carries a
// direct URL or a FileID requiring on-demand resolution through a Downloader.
type Source struct {
	FileID   int    `json:"file_id,omitempty"`
	Language string `json:"language"`
	Label    string `json:"label,omitempty"`
	URL      string `json:"url,omitempty"`
}

// String returns the human-facing identity of the source.
func (s Source) String() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Language
}

// FindActive resolves the cue text visible at currentTimeSec given a signed
// delay in milliseconds. A cue is active while
// startMs+delay <= t*1000 < endMs+delay. Returns the empty string when no cue
// is active. Cues must be sorted by StartMs; lookup is a binary search since
// this runs on a fixed short interval against the playback clock.
func FindActive(cues []Cue, currentTimeSec float64, delayMs int) string {
	if len(cues) == 0 {
		return ""
	}

	nowMs := int64(currentTimeSec * 1000)

	// First cue whose shifted start is strictly after now; the candidate is
	// its predecessor.
	idx := sort.Search(len(cues), func(i int) bool {
		return cues[i].StartMs+int64(delayMs) > nowMs
	})
	if idx == 0 {
		return ""
	}

	candidate := cues[idx-1]
	if nowMs < candidate.EndMs+int64(delayMs) {
		return candidate.Text
	}
	return ""
}
