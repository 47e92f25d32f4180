package source

import (
	"fmt"

	"github.com/vidra-app/vidra/subtitle"
)

// Stream is an ordered list of equivalent video candidates for one title,
// with a cursor on the active one. Switching the cursor is how the
// orchestration layer re-initializes playback against an alternate source.
type Stream struct {
	Media     Media
	Subtitles []subtitle.Source

	videos []*Video
	index  int
}

// NewStream builds a stream over the given candidates, starting at the first.
func NewStream(media Media, videos []*Video, subtitles []subtitle.Source) (*Stream, error) {
	if len(videos) == 0 {
		return nil, fmt.Errorf("stream for %s has no video candidates", media)
	}
	return &Stream{
		Media:     media,
		Subtitles: subtitles,
		videos:    videos,
	}, nil
}

// Current returns the active video candidate.
func (s *Stream) Current() *Video {
	return s.videos[s.index]
}

// Index returns the position of the active candidate.
func (s *Stream) Index() int {
	return s.index
}

// Candidates returns all video candidates in order.
func (s *Stream) Candidates() []*Video {
	return s.videos
}

// Select moves the cursor to the candidate at i.
func (s *Stream) Select(i int) error {
	if i < 0 || i >= len(s.videos) {
		return fmt.Errorf("candidate index %d out of range [0, %d)", i, len(s.videos))
	}
	s.index = i
	return nil
}
