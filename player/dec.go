package player

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/vidra-app/vidra/log"
)

const decTickInterval = 500 * time.Millisecond

// Dec implements the Backend interface over ffplay as a software-decode
// fallback for streams the platform decoder rejects. ffplay exposes no
// control channel at all, so position is estimated from the wall clock,
// seeking restarts the process with an -ss offset, and pause suspends the
// process where the OS allows it.
type Dec struct {
	url  string
	opts LoadOptions

	// done spans the whole session. Seeking replaces the ffplay process,
	// so per-process exit channels must never leak out through Wait.
	done     chan struct{}
	doneOnce sync.Once

	mu       sync.Mutex
	cmd      *exec.Cmd
	handler  Handler
	duration float64
	speed    float64
	paused   bool
	gen      uint64    // incremented per spawn; orphans the previous exit watcher
	baseSec  float64   // position when the clock was last reset
	baseAt   time.Time // wall-clock instant of the last reset
	stopTick chan struct{}
	closing  bool
}

// NewDec creates a new ffplay-backed player instance.
func NewDec() *Dec {
	return &Dec{
		done: make(chan struct{}),
	}
}

// Name returns the backend identifier.
func (d *Dec) Name() string { return BackendDec }

// Subscribe registers the event handler.
func (d *Dec) Subscribe(h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handler = h
}

// Load probes the stream duration, launches ffplay from the start, and
// begins the estimated-position tick loop.
func (d *Dec) Load(rawURL string, opts LoadOptions) error {
	safeURL, err := sanitizeMediaTarget(rawURL)
	if err != nil {
		return fmt.Errorf("invalid media target: %w", err)
	}

	d.mu.Lock()
	d.url = safeURL
	d.opts = opts
	d.speed = opts.Speed
	if d.speed <= 0 {
		d.speed = 1.0
	}
	d.paused = false
	d.mu.Unlock()

	duration, err := probeDuration(safeURL, opts.Headers)
	if err != nil {
		log.Warnf("probe duration: %v", err)
		duration = 0
	}
	d.mu.Lock()
	d.duration = duration
	d.mu.Unlock()

	if err := d.spawn(0); err != nil {
		return err
	}

	d.mu.Lock()
	d.stopTick = make(chan struct{})
	stop := d.stopTick
	d.mu.Unlock()

	go d.tickLoop(stop)

	d.emit(Event{Type: EventLoaded, Duration: duration})
	return nil
}

// spawn starts an ffplay process at the given offset and resets the
// position clock to it.
func (d *Dec) spawn(offsetSec float64) error {
	d.mu.Lock()
	url := d.url
	opts := d.opts
	speed := d.speed
	d.mu.Unlock()

	args := []string{
		"-autoexit",
		"-loglevel", "quiet",
	}
	if title := sanitizeTitle(opts.Title); title != "" {
		args = append(args, "-window_title", title)
	}
	if offsetSec > 0 {
		args = append(args, "-ss", fmt.Sprintf("%g", offsetSec))
	}
	if opts.Muted {
		args = append(args, "-an")
	}
	if speed != 1.0 {
		args = append(args, "-vf", fmt.Sprintf("setpts=PTS/%g", speed),
			"-af", fmt.Sprintf("atempo=%g", speed))
	}
	if hdr := ffmpegHeaders(opts.Headers); hdr != "" {
		args = append(args, "-headers", hdr)
	}
	args = append(args, url)

	cmd := exec.Command("ffplay", args...)
	cmd.SysProcAttr = sysProcAttr()
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffplay: %w", err)
	}

	d.mu.Lock()
	d.cmd = cmd
	d.gen++
	gen := d.gen
	d.baseSec = offsetSec
	d.baseAt = time.Now()
	d.mu.Unlock()

	go func() {
		_ = cmd.Wait()
		d.handleExit(gen)
	}()

	return nil
}

// handleExit reacts to the termination of the process started under gen.
// Exits of processes replaced by a later spawn are ignored; a genuine exit
// ends the session.
func (d *Dec) handleExit(gen uint64) {
	d.mu.Lock()
	stale := gen != d.gen
	closing := d.closing
	d.mu.Unlock()

	if stale {
		return
	}
	if !closing {
		d.emit(Event{Type: EventEnded})
	}
	d.finish()
}

func (d *Dec) finish() {
	d.doneOnce.Do(func() { close(d.done) })
}

// tickLoop reports the estimated position at a fixed interval.
func (d *Dec) tickLoop(stop chan struct{}) {
	ticker := time.NewTicker(decTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			d.mu.Lock()
			paused := d.paused
			pos := d.positionLocked()
			d.mu.Unlock()
			if !paused {
				d.emit(Event{Type: EventTime, Seconds: pos})
			}
		}
	}
}

// positionLocked estimates the current position from elapsed wall-clock time
// scaled by the playback rate. Callers hold d.mu.
func (d *Dec) positionLocked() float64 {
	if d.paused {
		return d.baseSec
	}
	pos := d.baseSec + time.Since(d.baseAt).Seconds()*d.speed
	if d.duration > 0 && pos > d.duration {
		pos = d.duration
	}
	return pos
}

// Play resumes playback by continuing the suspended process.
func (d *Dec) Play() error {
	d.mu.Lock()
	if !d.paused {
		d.mu.Unlock()
		return nil
	}
	d.paused = false
	d.baseAt = time.Now()
	cmd := d.cmd
	d.mu.Unlock()

	return resumeProcess(cmd)
}

// Pause suspends the process and freezes the position clock.
func (d *Dec) Pause() error {
	d.mu.Lock()
	if d.paused {
		d.mu.Unlock()
		return nil
	}
	d.baseSec = d.positionLocked()
	d.paused = true
	cmd := d.cmd
	d.mu.Unlock()

	return suspendProcess(cmd)
}

// Seek restarts ffplay at the requested offset; there is no in-process seek.
func (d *Dec) Seek(seconds float64) error {
	d.mu.Lock()
	d.gen++ // orphan the running process's exit watcher before the kill
	cmd := d.cmd
	paused := d.paused
	d.mu.Unlock()

	if cmd != nil {
		_ = killProcess(cmd)
	}

	if err := d.spawn(seconds); err != nil {
		return err
	}

	if paused {
		_ = d.Pause()
	}

	d.emit(Event{Type: EventSeeked})
	return nil
}

// SetSpeed changes the playback rate. ffplay filters are fixed at launch, so
// the new rate takes effect by restarting at the current position.
func (d *Dec) SetSpeed(speed float64) error {
	if speed <= 0 {
		return fmt.Errorf("invalid speed %g", speed)
	}

	d.mu.Lock()
	pos := d.positionLocked()
	d.speed = speed
	d.mu.Unlock()

	return d.Seek(pos)
}

// SetMuted toggles audio by restarting at the current position.
func (d *Dec) SetMuted(muted bool) error {
	d.mu.Lock()
	pos := d.positionLocked()
	d.opts.Muted = muted
	d.mu.Unlock()

	return d.Seek(pos)
}

// SelectAudioTrack is unsupported; ffplay picks tracks at launch.
func (d *Dec) SelectAudioTrack(id string) error {
	return fmt.Errorf("audio track selection not supported by %s backend", BackendDec)
}

// SelectTextTrack is unsupported; external subtitles are rendered separately.
func (d *Dec) SelectTextTrack(id string) error {
	return fmt.Errorf("text track selection not supported by %s backend", BackendDec)
}

// Wait returns a channel that is closed when the session ends: the current
// ffplay process exits on its own or Close is called. Seek-driven process
// restarts do not close it.
func (d *Dec) Wait() <-chan struct{} {
	return d.done
}

// Close stops the tick loop, kills the ffplay process, and ends the session.
func (d *Dec) Close() error {
	d.mu.Lock()
	d.closing = true
	if d.stopTick != nil {
		close(d.stopTick)
		d.stopTick = nil
	}
	cmd := d.cmd
	d.mu.Unlock()

	if cmd != nil {
		_ = killProcess(cmd)
	}
	d.finish()
	return nil
}

func (d *Dec) emit(ev Event) {
	d.mu.Lock()
	h := d.handler
	d.mu.Unlock()
	if h != nil {
		h(ev)
	}
}

// probeDuration asks ffprobe for the stream duration in seconds.
func probeDuration(url string, headers map[string]string) (float64, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
	}
	if hdr := ffmpegHeaders(headers); hdr != "" {
		args = append(args, "-headers", hdr)
	}
	args = append(args, url)

	out, err := exec.Command("ffprobe", args...).Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}

	var result struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &result); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if result.Format.Duration == "" {
		return 0, fmt.Errorf("no duration in ffprobe output")
	}

	sec, err := strconv.ParseFloat(result.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", result.Format.Duration, err)
	}
	return sec, nil
}

// ffmpegHeaders renders request headers in the CRLF format ffmpeg tools expect.
func ffmpegHeaders(headers map[string]string) string {
	if len(headers) == 0 {
		return ""
	}
	var s string
	for k, v := range headers {
		s += fmt.Sprintf("%s: %s\r\n", k, v)
	}
	return s
}
