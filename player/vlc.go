package player

import (
	"bufio"
	"fmt"
	"math/rand"
	"net"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
	"github.com/vidra-app/vidra/key"
	"github.com/vidra-app/vidra/log"
)

const (
	vlcPollInterval = 500 * time.Millisecond
	vlcConnRetries  = 10
	vlcConnDelay    = 300 * time.Millisecond
)

// VLC implements the Backend interface over VLC's remote control (RC)
// interface on a local TCP socket. VLC's RC protocol has no push events, so
// position and duration are polled and seek completion is approximated with a
// settle timeout.
type VLC struct {
	addr   string
	cmd    *exec.Cmd
	exited chan struct{}

	mu       sync.Mutex
	conn     net.Conn
	reader   *bufio.Reader
	handler  Handler
	paused   bool
	loaded   bool
	duration float64
	stopPoll chan struct{}
}

// NewVLC creates a new VLC-backed player instance.
func NewVLC() *VLC {
	return &VLC{
		exited: make(chan struct{}),
	}
}

// Name returns the backend identifier.
func (v *VLC) Name() string { return BackendVLC }

// Subscribe registers the event handler.
func (v *VLC) Subscribe(h Handler) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.handler = h
}

// Load launches VLC with the RC interface bound to a random local port and
// starts the position poll loop.
func (v *VLC) Load(rawURL string, opts LoadOptions) error {
	safeURL, err := sanitizeMediaTarget(rawURL)
	if err != nil {
		return fmt.Errorf("invalid media target: %w", err)
	}

	port := 20000 + rand.Intn(20000)
	v.addr = fmt.Sprintf("127.0.0.1:%d", port)

	args := []string{
		"--intf", "rc",
		"--rc-host", v.addr,
		"--no-video-title-show",
		"--play-and-exit",
	}

	if title := sanitizeTitle(opts.Title); title != "" {
		args = append(args, "--meta-title", title)
	}
	if opts.Speed > 0 && opts.Speed != 1.0 {
		args = append(args, "--rate", fmt.Sprintf("%g", opts.Speed))
	}
	if len(opts.Headers) > 0 {
		// VLC only supports a subset of request headers via options.
		if ua, ok := opts.Headers["User-Agent"]; ok {
			args = append(args, "--http-user-agent", ua)
		}
		if referer, ok := opts.Headers["Referer"]; ok {
			args = append(args, "--http-referrer", referer)
		}
	}

	args = append(args, safeURL)

	v.cmd = exec.Command("vlc", args...)
	v.cmd.SysProcAttr = sysProcAttr()
	v.cmd.Stdout = nil
	v.cmd.Stderr = nil
	v.cmd.Stdin = nil

	if err := v.cmd.Start(); err != nil {
		return fmt.Errorf("start vlc: %w", err)
	}

	v.exited = make(chan struct{})
	go func() {
		_ = v.cmd.Wait()
		close(v.exited)
	}()

	if err := v.connect(); err != nil {
		select {
		case <-v.exited:
		default:
			log.Warnf("killing vlc: rc socket never became ready")
			_ = killProcess(v.cmd)
		}
		return fmt.Errorf("vlc rc socket not ready: %w", err)
	}

	if opts.Muted {
		_ = v.command("volume 0")
	}

	v.mu.Lock()
	v.loaded = false
	v.paused = false
	v.stopPoll = make(chan struct{})
	stop := v.stopPoll
	v.mu.Unlock()

	go v.pollLoop(stop)

	return nil
}

// connect dials the RC socket, retrying while VLC starts up.
func (v *VLC) connect() error {
	for i := 0; i < vlcConnRetries; i++ {
		time.Sleep(vlcConnDelay)

		select {
		case <-v.exited:
			return fmt.Errorf("vlc exited before rc socket was ready")
		default:
		}

		conn, err := net.Dial("tcp", v.addr)
		if err == nil {
			v.mu.Lock()
			v.conn = conn
			v.reader = bufio.NewReader(conn)
			v.mu.Unlock()
			return nil
		}
	}
	return fmt.Errorf("rc socket %s not ready after %d attempts", v.addr, vlcConnRetries)
}

// pollLoop drives position and duration updates at a fixed interval. RC has
// no notifications, so this is the only telemetry source.
func (v *VLC) pollLoop(stop chan struct{}) {
	ticker := time.NewTicker(vlcPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-v.exited:
			v.emit(Event{Type: EventEnded})
			return
		case <-ticker.C:
			v.pollOnce()
		}
	}
}

func (v *VLC) pollOnce() {
	v.mu.Lock()
	loaded := v.loaded
	paused := v.paused
	v.mu.Unlock()

	if !loaded {
		length, err := v.queryInt("get_length")
		if err != nil || length <= 0 {
			return
		}
		v.mu.Lock()
		v.loaded = true
		v.duration = float64(length)
		v.mu.Unlock()
		v.emit(Event{Type: EventLoaded, Duration: float64(length)})
		return
	}

	if paused {
		return
	}

	pos, err := v.queryInt("get_time")
	if err != nil {
		return
	}
	v.emit(Event{Type: EventTime, Seconds: float64(pos)})
}

// queryInt sends an RC command and parses the first integer line of the reply.
func (v *VLC) queryInt(cmd string) (int, error) {
	line, err := v.roundTrip(cmd)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(line))
}

// command sends an RC command without reading a reply value.
func (v *VLC) command(cmd string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.conn == nil {
		return fmt.Errorf("rc socket not connected")
	}
	_, err := fmt.Fprintf(v.conn, "%s\n", cmd)
	return err
}

// roundTrip sends an RC command and reads one reply line.
func (v *VLC) roundTrip(cmd string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.conn == nil {
		return "", fmt.Errorf("rc socket not connected")
	}

	if _, err := fmt.Fprintf(v.conn, "%s\n", cmd); err != nil {
		return "", err
	}

	_ = v.conn.SetReadDeadline(time.Now().Add(readDeadline))
	for {
		line, err := v.reader.ReadString('\n')
		if err != nil {
			return "", err
		}
		line = strings.TrimSpace(line)
		// Skip the RC banner and status chatter, keep the first value line.
		if line == "" || strings.HasPrefix(line, ">") || strings.HasPrefix(line, "VLC") || strings.HasPrefix(line, "status change") {
			continue
		}
		return line, nil
	}
}

// Play resumes playback.
func (v *VLC) Play() error {
	v.mu.Lock()
	wasPaused := v.paused
	v.paused = false
	v.mu.Unlock()

	if !wasPaused {
		return nil
	}
	// RC "pause" is a toggle; state is tracked locally to keep it deterministic.
	return v.command("pause")
}

// Pause suspends playback.
func (v *VLC) Pause() error {
	v.mu.Lock()
	wasPaused := v.paused
	v.paused = true
	v.mu.Unlock()

	if wasPaused {
		return nil
	}
	return v.command("pause")
}

// Seek moves playback to an absolute position. RC acknowledges the command
// without signalling completion, so a settle timer reports the seek as done.
func (v *VLC) Seek(seconds float64) error {
	if err := v.command(fmt.Sprintf("seek %d", int(seconds))); err != nil {
		return err
	}

	settle := time.Duration(viper.GetInt(key.PlaybackSeekSettleMs)) * time.Millisecond
	go func() {
		time.Sleep(settle)
		v.emit(Event{Type: EventSeeked})
	}()
	return nil
}

// SetSpeed adjusts the playback rate multiplier.
func (v *VLC) SetSpeed(speed float64) error {
	return v.command(fmt.Sprintf("rate %g", speed))
}

// SetMuted toggles audio output. RC has no mute primitive, so volume is used.
func (v *VLC) SetMuted(muted bool) error {
	if muted {
		return v.command("volume 0")
	}
	return v.command("volume 256")
}

// SelectAudioTrack switches the embedded audio track.
func (v *VLC) SelectAudioTrack(id string) error {
	return v.command(fmt.Sprintf("atrack %s", id))
}

// SelectTextTrack switches the embedded subtitle track; empty disables it.
func (v *VLC) SelectTextTrack(id string) error {
	if id == "" {
		return v.command("strack -1")
	}
	return v.command(fmt.Sprintf("strack %s", id))
}

// Wait returns a channel that is closed when the VLC process exits.
func (v *VLC) Wait() <-chan struct{} {
	return v.exited
}

// Close shuts down VLC and releases the RC connection.
func (v *VLC) Close() error {
	v.mu.Lock()
	if v.stopPoll != nil {
		close(v.stopPoll)
		v.stopPoll = nil
	}
	conn := v.conn
	v.conn = nil
	v.mu.Unlock()

	if conn != nil {
		_, _ = fmt.Fprintf(conn, "quit\n")
		_ = conn.Close()
	}

	select {
	case <-v.exited:
	case <-time.After(3 * time.Second):
		_ = killProcess(v.cmd)
	}

	return nil
}

func (v *VLC) emit(ev Event) {
	v.mu.Lock()
	h := v.handler
	v.mu.Unlock()
	if h != nil {
		h(ev)
	}
}
