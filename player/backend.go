// Package player defines a unified abstraction layer for media playback backends.
//
// Four interchangeable backends are provided: the native system player (mpv
// via its JSON-IPC interface), a VLC-based player, a custom decoder-backed
// player (ffplay), and a web hand-off. The orchestrator is written once
// against the Backend interface; each backend is a thin adapter.
package player

import (
	"fmt"

	"github.com/vidra-app/vidra/codec"
	"github.com/vidra-app/vidra/playback"
)

// Backend names.
const (
	BackendNative = "native"
	BackendVLC    = "vlc"
	BackendDec    = "dec"
	BackendWeb    = "web"

	// BackendAuto defers the choice to the codec pre-flight check.
	// It is the configured default, not a backend of its own.
	BackendAuto = "auto"
)

// EventType classifies a backend notification.
type EventType int

const (
	// EventLoaded fires once the backend has metadata: duration and tracks are valid.
	EventLoaded EventType = iota
	// EventTime carries a playback position update; Seconds is valid.
	EventTime
	// EventBuffering toggles the stall flag; Buffering is valid.
	EventBuffering
	// EventSeeked signals true seek completion, on backends that report one.
	EventSeeked
	// EventEnded signals end of media.
	EventEnded
	// EventError carries a fatal backend error; Message is valid.
	EventError
)

// Event is one backend notification delivered to the subscribed handler.
type Event struct {
	Type      EventType
	Seconds   float64
	Duration  float64
	Buffering bool
	Message   string

	AudioTracks []playback.Track
	TextTracks  []playback.Track
}

// Handler receives backend events. Backends invoke it from their own
// goroutines; subscribers are responsible for their own synchronization.
type Handler func(Event)

// LoadOptions carries the initial session parameters applied at load time.
type LoadOptions struct {
	Title   string
	Headers map[string]string
	Speed   float64
	Muted   bool
}

// Backend encapsulates the required capabilities of a media playback engine.
type Backend interface {
	// Name returns the backend identifier (native, vlc, dec, web).
	Name() string

	// Subscribe registers the event handler. Must be called before Load.
	Subscribe(Handler)

	// Load starts playback of the given URL with the specified options.
	Load(url string, opts LoadOptions) error

	// Play resumes playback.
	Play() error

	// Pause suspends playback.
	Pause() error

	// Seek transitions the playback position to an absolute timestamp in seconds.
	Seek(seconds float64) error

	// SetSpeed adjusts the playback rate multiplier.
	SetSpeed(speed float64) error

	// SetMuted toggles audio output.
	SetMuted(muted bool) error

	// SelectAudioTrack switches to the embedded audio track with the given ID.
	SelectAudioTrack(id string) error

	// SelectTextTrack switches to the embedded text track with the given ID;
	// an empty ID disables embedded text rendering.
	SelectTextTrack(id string) error

	// Wait returns a channel that is closed when the playback session terminates.
	Wait() <-chan struct{}

	// Close terminates the playback engine and releases all associated resources.
	Close() error
}

// ForName instantiates the backend registered under name.
func ForName(name string) (Backend, error) {
	switch name {
	case BackendNative:
		return NewNative(), nil
	case BackendVLC:
		return NewVLC(), nil
	case BackendDec:
		return NewDec(), nil
	case BackendWeb:
		return NewWeb(), nil
	default:
		return nil, fmt.Errorf("unknown playback backend %q", name)
	}
}

// Resolve maps a configured backend name to an instance. The empty string
// and BackendAuto run the codec pre-flight check against the URL; anything
// else must name a concrete backend.
func Resolve(name, url string) (Backend, error) {
	switch name {
	case "", BackendAuto:
		return Detect(url), nil
	default:
		return ForName(name)
	}
}

// Detect picks a backend for the URL: the codec pre-flight check decides
// between the native system player and the VLC fallback.
func Detect(url string) Backend {
	if codec.ShouldFallbackToVLC(url) {
		return NewVLC()
	}
	return NewNative()
}
