package player

import (
	"fmt"
	"sync"

	"github.com/vidra-app/vidra/open"
)

// Web implements the Backend interface by handing the stream to whatever the
// operating system associates with it, typically a browser. Once the URL is
// handed off there is no telemetry channel back, so most operations are
// stubs and the session is considered ended as soon as the hand-off returns.
type Web struct {
	mu      sync.Mutex
	handler Handler
	done    chan struct{}
	once    sync.Once
}

// NewWeb creates a new hand-off player instance.
func NewWeb() *Web {
	return &Web{
		done: make(chan struct{}),
	}
}

// Name returns the backend identifier.
func (w *Web) Name() string { return BackendWeb }

// Subscribe registers the event handler.
func (w *Web) Subscribe(h Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handler = h
}

// Load opens the URL with the system handler. Headers and titles cannot be
// forwarded through the hand-off.
func (w *Web) Load(rawURL string, opts LoadOptions) error {
	safeURL, err := sanitizeMediaTarget(rawURL)
	if err != nil {
		return fmt.Errorf("invalid media target: %w", err)
	}

	if err := open.Start(safeURL); err != nil {
		return fmt.Errorf("hand off to system handler: %w", err)
	}

	// The hand-off is fire-and-forget: report a zero-duration load and end
	// the session so the caller can tear down immediately.
	w.emit(Event{Type: EventLoaded})
	w.emit(Event{Type: EventEnded})
	w.once.Do(func() { close(w.done) })

	return nil
}

func (w *Web) Play() error                   { return nil }
func (w *Web) Pause() error                  { return nil }
func (w *Web) Seek(seconds float64) error    { return nil }
func (w *Web) SetSpeed(speed float64) error  { return nil }
func (w *Web) SetMuted(muted bool) error     { return nil }
func (w *Web) SelectAudioTrack(string) error { return fmt.Errorf("not supported after hand-off") }
func (w *Web) SelectTextTrack(string) error  { return fmt.Errorf("not supported after hand-off") }

// Wait returns a channel that is closed once the hand-off completes.
func (w *Web) Wait() <-chan struct{} {
	return w.done
}

// Close is a no-op; the external handler owns the stream after hand-off.
func (w *Web) Close() error {
	w.once.Do(func() { close(w.done) })
	return nil
}

func (w *Web) emit(ev Event) {
	w.mu.Lock()
	h := w.handler
	w.mu.Unlock()
	if h != nil {
		h(ev)
	}
}
