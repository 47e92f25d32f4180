package player

import (
	"crypto/rand"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vidra-app/vidra/log"
	"github.com/vidra-app/vidra/playback"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
)

// Native implements the Backend interface over the system's mpv player using
// its JSON-IPC protocol. It is the richest backend: position, stall state,
// seek completion, and track inventory all arrive as real events.
type Native struct {
	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{} // closed when mpv process exits
	listener   *eventListener
	mu         sync.Mutex // protects socket writes

	emu         sync.Mutex // protects event bookkeeping below
	handler     Handler
	loadedFired bool
	wasSeeking  bool
	buffering   bool
}

// NewNative creates a new native player instance (does not start playback).
func NewNative() *Native {
	return &Native{
		exited: make(chan struct{}),
	}
}

// Name returns the backend identifier.
func (n *Native) Name() string { return BackendNative }

// Subscribe registers the event handler.
func (n *Native) Subscribe(h Handler) {
	n.emu.Lock()
	defer n.emu.Unlock()
	n.handler = h
}

// Load starts playback of the given URL in a fresh mpv process and wires its
// property notifications into the subscribed handler.
func (n *Native) Load(rawURL string, opts LoadOptions) error {
	// Sanitize the URL to prevent flag injection from untrusted stream resolvers
	safeURL, err := sanitizeMediaTarget(rawURL)
	if err != nil {
		return fmt.Errorf("invalid media target: %w", err)
	}

	safeTitle := sanitizeTitle(opts.Title)

	// Construct header string if present
	var headerString string
	if len(opts.Headers) > 0 {
		var hBuilder strings.Builder
		for k, v := range opts.Headers {
			if hBuilder.Len() > 0 {
				hBuilder.WriteString(",")
			}
			// Replace commas in values if any (simple sanitization)
			val := strings.ReplaceAll(v, ",", "%2C")
			hBuilder.WriteString(fmt.Sprintf("%s: %s", k, val))
		}
		headerString = hBuilder.String()
	}

	// Generate a random socket path using os.TempDir() for cross-platform support
	// (macOS $TMPDIR is /var/folders/... not /tmp/)
	if n.socketPath == "" {
		randomBytes := make([]byte, 4)
		if _, err := rand.Read(randomBytes); err != nil {
			return fmt.Errorf("generate socket name: %w", err)
		}
		n.socketPath = filepath.Join(os.TempDir(), fmt.Sprintf("vidra-%x.sock", randomBytes))
	}

	// Pass only the socket, title, session options, and URL.
	// Do NOT pass --vo, --profile, --hwdec — respect the user's mpv.conf.
	args := []string{
		"--no-terminal",
		"--really-quiet",
		fmt.Sprintf("--input-ipc-server=%s", n.socketPath),
		fmt.Sprintf("--force-media-title=%s", safeTitle),
		fmt.Sprintf("--title=%s", safeTitle), // Some mpv builds only respect --title
		"--force-window=yes",
		"--idle=yes",
	}

	if opts.Speed > 0 && opts.Speed != 1.0 {
		args = append(args, fmt.Sprintf("--speed=%g", opts.Speed))
	}
	if opts.Muted {
		args = append(args, "--mute=yes")
	}
	if headerString != "" {
		args = append(args, fmt.Sprintf("--http-header-fields=%s", headerString))
	}

	args = append(args, safeURL)

	n.cmd = exec.Command("mpv", args...)

	// Detach from parent process group to prevent cascading shell panics.
	n.cmd.SysProcAttr = sysProcAttr()

	// Disable standard pipes to prevent resource leaks.
	n.cmd.Stdout = nil
	n.cmd.Stderr = nil
	n.cmd.Stdin = nil

	if err := n.cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}

	// Background goroutine to reap the process and prevent zombies
	n.exited = make(chan struct{})
	go func() {
		_ = n.cmd.Wait()
		close(n.exited)
	}()

	// Wait for the IPC socket to become available
	if err := n.waitForSocket(); err != nil {
		// If the socket never became ready, kill the orphaned process
		if n.cmd.Process != nil {
			select {
			case <-n.exited:
				// Already exited
			default:
				log.Warnf("killing mpv: socket never became ready")
				_ = n.cmd.Process.Kill()
			}
		}
		return fmt.Errorf("mpv socket not ready: %w", err)
	}

	n.emu.Lock()
	n.loadedFired = false
	n.wasSeeking = false
	n.emu.Unlock()

	n.listener = newEventListener(n.socketPath, n.onRawEvent)
	if err := n.listener.Start(); err != nil {
		return fmt.Errorf("start event listener: %w", err)
	}

	return nil
}

// Wait returns a channel that is closed when the mpv process exits.
func (n *Native) Wait() <-chan struct{} {
	return n.exited
}

// waitForSocket polls until the mpv IPC socket is accepting connections.
func (n *Native) waitForSocket() error {
	for i := 0; i < socketWaitRetries; i++ {
		time.Sleep(socketWaitDelay)

		// Check if process already exited
		select {
		case <-n.exited:
			return fmt.Errorf("mpv exited before socket was ready")
		default:
		}

		conn, err := net.Dial("unix", n.socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", n.socketPath, socketWaitRetries)
}

// onRawEvent maps mpv property notifications onto backend events.
func (n *Native) onRawEvent(property string, data interface{}) {
	switch property {
	case "time-pos":
		if sec, ok := data.(float64); ok {
			n.emit(Event{Type: EventTime, Seconds: sec})
		}

	case "duration":
		sec, ok := data.(float64)
		if !ok || sec <= 0 {
			return
		}

		// The first valid duration marks metadata availability: report the
		// loaded state exactly once per Load, with the track inventory.
		n.emu.Lock()
		already := n.loadedFired
		n.loadedFired = true
		n.emu.Unlock()
		if already {
			return
		}

		audio, text := n.trackInventory()
		n.emit(Event{Type: EventLoaded, Duration: sec, AudioTracks: audio, TextTracks: text})

	case "paused-for-cache":
		if stalled, ok := data.(bool); ok {
			n.emu.Lock()
			changed := n.buffering != stalled
			n.buffering = stalled
			n.emu.Unlock()
			if changed {
				n.emit(Event{Type: EventBuffering, Buffering: stalled})
			}
		}

	case "seeking":
		seeking, ok := data.(bool)
		if !ok {
			return
		}
		n.emu.Lock()
		finished := n.wasSeeking && !seeking
		n.wasSeeking = seeking
		n.emu.Unlock()
		if finished {
			n.emit(Event{Type: EventSeeked})
		}

	case "playback-restart":
		// mpv's true seek-completion signal.
		n.emit(Event{Type: EventSeeked})

	case "eof-reached":
		if reached, ok := data.(bool); ok && reached {
			n.emit(Event{Type: EventEnded})
		}

	case "end-file":
		if m, ok := data.(map[string]interface{}); ok {
			if reason, _ := m["reason"].(string); reason == "error" {
				msg, _ := m["file_error"].(string)
				if msg == "" {
					msg = "playback failed"
				}
				n.emit(Event{Type: EventError, Message: msg})
				return
			}
		}
		n.emit(Event{Type: EventEnded})

	case "pause":
		// Pause state changes are orchestrator-driven; nothing to relay.
	}
}

// emit delivers an event to the subscribed handler, if any.
func (n *Native) emit(ev Event) {
	n.emu.Lock()
	h := n.handler
	n.emu.Unlock()
	if h != nil {
		h(ev)
	}
}

// trackInventory queries mpv's track-list and splits it into audio and
// subtitle descriptors.
func (n *Native) trackInventory() (audio, text []playback.Track) {
	data, err := n.sendCommand([]interface{}{"get_property", "track-list"})
	if err != nil {
		log.Warnf("query track-list: %v", err)
		return nil, nil
	}

	list, ok := data.([]interface{})
	if !ok {
		return nil, nil
	}

	for _, raw := range list {
		m, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}

		id, _ := m["id"].(float64)
		title, _ := m["title"].(string)
		lang, _ := m["lang"].(string)
		kind, _ := m["type"].(string)

		track := playback.Track{
			ID:       strconv.Itoa(int(id)),
			Label:    title,
			Language: lang,
		}
		if track.Label == "" {
			track.Label = lang
		}

		switch kind {
		case "audio":
			audio = append(audio, track)
		case "sub":
			text = append(text, track)
		}
	}

	return audio, text
}

// Play resumes playback.
func (n *Native) Play() error {
	return n.setProperty("pause", false)
}

// Pause suspends playback.
func (n *Native) Pause() error {
	return n.setProperty("pause", true)
}

// Seek moves playback to the given absolute position in seconds.
func (n *Native) Seek(seconds float64) error {
	_, err := n.sendCommand([]interface{}{"seek", seconds, "absolute"})
	return err
}

// SetSpeed adjusts the playback rate multiplier.
func (n *Native) SetSpeed(speed float64) error {
	return n.setProperty("speed", speed)
}

// SetMuted toggles audio output.
func (n *Native) SetMuted(muted bool) error {
	return n.setProperty("mute", muted)
}

// SelectAudioTrack switches the embedded audio track.
func (n *Native) SelectAudioTrack(id string) error {
	return n.setProperty("aid", id)
}

// SelectTextTrack switches the embedded subtitle track; empty disables it.
func (n *Native) SelectTextTrack(id string) error {
	if id == "" {
		return n.setProperty("sid", "no")
	}
	return n.setProperty("sid", id)
}

// setProperty sets an mpv property via IPC.
func (n *Native) setProperty(property string, value interface{}) error {
	_, err := n.sendCommand([]interface{}{"set_property", property, value})
	return err
}

// IsRunning reports whether mpv is responding to IPC commands.
func (n *Native) IsRunning() bool {
	if n.socketPath == "" {
		return false
	}

	// Fast check: process already exited?
	select {
	case <-n.exited:
		return false
	default:
	}

	_, err := n.sendCommand([]interface{}{"get_property", "pid"})
	return err == nil
}

// Close shuts down the mpv process and cleans up resources.
func (n *Native) Close() error {
	if n.listener != nil {
		n.listener.Stop()
	}

	if n.socketPath == "" {
		return nil
	}

	// Try graceful quit via IPC
	_, _ = n.sendCommand([]interface{}{"quit"})

	// Wait for process to exit (with timeout)
	select {
	case <-n.exited:
		// Clean exit
	case <-time.After(3 * time.Second):
		// Force kill if graceful quit didn't work
		_ = killProcess(n.cmd)
	}

	// Clean up the socket file
	_ = os.Remove(n.socketPath)

	return nil
}

// sanitizeMediaTarget validates that a URL is safe to pass to a player binary.
// Prevents flag injection from untrusted stream resolvers.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", fmt.Errorf("empty URL")
	}

	// Reject control characters
	if strings.ContainsAny(l, "\x00\n\r") {
		return "", fmt.Errorf("invalid control characters in URL")
	}

	// Prevent flag injection: URLs must not start with -
	if strings.HasPrefix(l, "-") {
		return "", fmt.Errorf("url must not start with '-' (looks like a flag)")
	}

	// If it contains "://", validate as URL
	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return l, nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}

	// Treat as local file path
	return filepath.Clean(l), nil
}

// sanitizeTitle cleans up the window title before handing it to a player binary.
func sanitizeTitle(title string) string {
	t := strings.ReplaceAll(title, "\n", " ")
	t = strings.ReplaceAll(t, "\r", " ")
	t = strings.ReplaceAll(t, "\t", " ")
	// Remove null bytes
	t = strings.ReplaceAll(t, "\x00", "")
	return strings.TrimSpace(t)
}
