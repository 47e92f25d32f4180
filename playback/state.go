// Package playback defines the shared mutable state describing an active playback session.
//
// State is a pure container: it performs no I/O and triggers no side effects.
// Callers are responsible for cross-field invariants (e.g. not marking a
// session playing before it is ready).
package playback

import "sync"

// Track describes one audio or text track reported by a playback backend.
type Track struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Language string `json:"language"`
}

// State holds the observable fields of one playback session.
// It is recreated per session and owned by exactly one orchestrator.
type State struct {
	mu sync.Mutex

	ready     bool
	playing   bool
	buffering bool

	currentTime float64
	duration    float64

	dragging     bool
	dragPosition float64

	err string

	audioTracks []Track
	textTracks  []Track
}

// NewState creates an empty session state.
func NewState() *State {
	return &State{}
}

// Ready reports whether the backend has loaded metadata and can seek/play.
func (s *State) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// SetReady updates the readiness flag.
func (s *State) SetReady(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = v
}

// Playing reports whether playback is advancing.
func (s *State) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Paused reports the inverse of Playing. Both views are kept for
// backend-API parity; they are mutually consistent by construction.
func (s *State) Paused() bool {
	return !s.Playing()
}

// SetPlaying updates the play/pause flag.
func (s *State) SetPlaying(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = v
}

// CurrentTime returns the last reported playback position in seconds.
func (s *State) CurrentTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentTime
}

// SetCurrentTime updates the playback position.
func (s *State) SetCurrentTime(sec float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentTime = sec
}

// Duration returns the total media duration in seconds (0 until known).
func (s *State) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

// SetDuration updates the media duration.
func (s *State) SetDuration(sec float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sec < 0 {
		sec = 0
	}
	s.duration = sec
}

// Buffering reports whether the backend is stalled filling its buffer.
func (s *State) Buffering() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffering
}

// SetBuffering updates the stall flag.
func (s *State) SetBuffering(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffering = v
}

// Dragging reports whether a scrubber drag is in progress.
func (s *State) Dragging() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dragging
}

// SetDragging updates the drag flag.
func (s *State) SetDragging(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dragging = v
}

// DragPosition returns the transient scrubber position in [0, 1].
func (s *State) DragPosition() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dragPosition
}

// SetDragPosition updates the transient scrubber position, clamped to [0, 1].
func (s *State) SetDragPosition(pos float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	s.dragPosition = pos
}

// DisplayTime returns the position to present to the user: the drag-derived
// time while a scrub is in progress, the backend-reported time otherwise.
func (s *State) DisplayTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dragging {
		return s.dragPosition * s.duration
	}
	return s.currentTime
}

// Error returns the last fatal backend error, or the empty string.
func (s *State) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// SetError records a fatal backend error. Terminal until a retry clears it.
func (s *State) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = msg
}

// AudioTracks returns the backend-reported audio tracks.
func (s *State) AudioTracks() []Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audioTracks
}

// TextTracks returns the backend-reported embedded text tracks.
func (s *State) TextTracks() []Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.textTracks
}

// SetTracks records the track inventory reported by the backend after load.
func (s *State) SetTracks(audio, text []Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audioTracks = audio
	s.textTracks = text
}
