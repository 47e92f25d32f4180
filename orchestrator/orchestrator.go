// Package orchestrator drives a playback session: it wires backend events
// into the player state store, performs restorative and user seeks, overlays
// external subtitles, auto-skips intro/recap/outro segments, and flushes
// watch progress. One state machine serves every backend; the differences
// between players live behind the player.Backend interface.
package orchestrator

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
	"github.com/vidra-app/vidra/history"
	"github.com/vidra-app/vidra/introdb"
	"github.com/vidra-app/vidra/key"
	"github.com/vidra-app/vidra/log"
	"github.com/vidra-app/vidra/network"
	"github.com/vidra-app/vidra/playback"
	"github.com/vidra-app/vidra/player"
	"github.com/vidra-app/vidra/source"
	"github.com/vidra-app/vidra/subtitle"
	"github.com/vidra-app/vidra/timer"
)

// Named timers owned by a session. ClearAll on teardown covers every one.
const (
	timerControlsHide  = "controls-hide"
	timerSeekComplete  = "seek-complete"
	timerSeekSpinner   = "seek-spinner"
	timerSubtitleTick  = "subtitle-tick"
	timerProgressFlush = "progress-flush"
)

// BackEvent carries the exit snapshot handed to the host.
type BackEvent struct {
	Progress float64
	Player   string
}

// SwitchRequest asks the host to remount under a different backend,
// carrying forward the current progress.
type SwitchRequest struct {
	From     string
	Progress float64
}

// Callbacks are the host-facing notification hooks. All optional.
type Callbacks struct {
	// OnBack fires when the user exits playback.
	OnBack func(BackEvent)

	// OnPlaybackError, when set, owns fatal-error reporting instead of the
	// session's local error state. Invoked at most once per load attempt.
	OnPlaybackError func(msg string)

	// OnStreamChange fires when an alternate stream candidate is selected.
	OnStreamChange func(index int)

	// OnBackendSwitch fires when an unsupported-codec class error suggests
	// remounting under a fallback backend.
	OnBackendSwitch func(SwitchRequest)
}

// Options configures a session beyond its stream and backend.
type Options struct {
	Settings playback.Settings

	// InitialProgress is the watch percentage to restore, 0 to start fresh.
	InitialProgress float64

	// Segments enables auto-skip when the stream carries an IMDB identity.
	Segments *introdb.Service

	// SubtitleClient resolves subtitle sources that carry a file ID
	// instead of a direct URL.
	SubtitleClient subtitle.Downloader

	// Sink receives progress flushes. Nil disables persistence.
	Sink history.Sink

	// HTTPClient is used for subtitle fetches; defaults to the shared client.
	HTTPClient *http.Client

	Callbacks Callbacks
}

// Session is one playback run of one stream. Not reusable after Close.
type Session struct {
	stream  *source.Stream
	backend player.Backend
	state   *playback.State
	timers  *timer.Registry

	settings playback.Settings
	cb       Callbacks
	sink     history.Sink
	subDl    subtitle.Downloader
	client   *http.Client
	segments *introdb.Service

	// newBackend builds a replacement backend for stream switches and
	// forced reloads. Swappable in tests.
	newBackend func(name string) (player.Backend, error)

	mu            sync.Mutex
	skipper       *introdb.Skipper
	cues          []subtitle.Cue
	subtitleText  string
	resumePercent float64
	restored      bool
	seeking       bool
	seekSeq       int
	seekTarget    float64
	resumePlay    bool
	errorReported bool
	closed        bool
	lastKnownTime float64
	controlsShown bool
	menuOpen      bool
	autoSkip      bool
}

// New builds a session over the stream's current candidate.
func New(stream *source.Stream, backend player.Backend, opts Options) *Session {
	client := opts.HTTPClient
	if client == nil {
		client = network.Client
	}

	return &Session{
		stream:        stream,
		backend:       backend,
		state:         playback.NewState(),
		timers:        timer.NewRegistry(),
		settings:      opts.Settings,
		cb:            opts.Callbacks,
		sink:          opts.Sink,
		subDl:         opts.SubtitleClient,
		client:        client,
		segments:      opts.Segments,
		newBackend:    player.ForName,
		resumePercent: opts.InitialProgress,
		autoSkip:      viper.GetBool(key.SkipEnabled),
	}
}

// State exposes the observable player state.
func (s *Session) State() *playback.State {
	return s.state
}

// Settings returns a snapshot of the session settings.
func (s *Session) Settings() playback.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// SubtitleText returns the currently displayed external subtitle line.
func (s *Session) SubtitleText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subtitleText
}

// Backend returns the active backend.
func (s *Session) Backend() player.Backend {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend
}

// Start loads the current stream candidate into the backend and, when the
// stream carries series identity, primes the segment-skip engine.
func (s *Session) Start() error {
	s.prepareSkipper()

	s.mu.Lock()
	backend := s.backend
	video := s.stream.Current()
	opts := player.LoadOptions{
		Title:   s.stream.Media.String(),
		Headers: video.Headers,
		Speed:   s.settings.Speed,
		Muted:   s.settings.Muted,
	}
	s.mu.Unlock()

	backend.Subscribe(s.handleEvent)

	if err := backend.Load(video.URL, opts); err != nil {
		s.fatal(fmt.Sprintf("load %s: %v", video.URL, err))
		return err
	}
	return nil
}

// prepareSkipper fetches episode segments. Fetch failure disables the skip
// feature for this episode and nothing else.
func (s *Session) prepareSkipper() {
	if s.segments == nil || !s.stream.Media.IsEpisode() || s.stream.Media.ImdbID == "" {
		return
	}

	m := s.stream.Media
	segs, err := s.segments.EpisodeSegments(m.ImdbID, m.Season, m.Episode)
	if err != nil {
		log.Warnf("segments for %s unavailable, skip disabled: %v", m.Key(), err)
		return
	}

	rate := time.Duration(viper.GetInt(key.SkipRateLimitSec)) * time.Second

	s.mu.Lock()
	s.skipper = introdb.NewSkipper(segs, rate, s.SeekTo)
	s.mu.Unlock()
}

// handleEvent is the single entry point for backend notifications.
func (s *Session) handleEvent(ev player.Event) {
	switch ev.Type {
	case player.EventLoaded:
		s.onLoaded(ev)
	case player.EventTime:
		s.onTime(ev.Seconds)
	case player.EventBuffering:
		s.onBuffering(ev.Buffering)
	case player.EventSeeked:
		s.onSeeked()
	case player.EventEnded:
		s.onEnded()
	case player.EventError:
		s.fatal(ev.Message)
	}
}

func (s *Session) onLoaded(ev player.Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	s.state.SetDuration(ev.Duration)
	s.state.SetTracks(ev.AudioTracks, ev.TextTracks)
	s.state.SetError("")
	s.state.SetReady(true)
	s.state.SetPlaying(true)

	restore := 0.0
	if !s.restored && s.resumePercent > 0 && ev.Duration > 0 {
		s.restored = true
		restore = s.resumePercent / 100 * ev.Duration
	}
	s.mu.Unlock()

	s.armProgressFlush()
	s.armSubtitleTick()
	s.ShowControls()

	if restore > 0 {
		if err := s.SeekTo(restore); err != nil {
			log.Warnf("restore seek to %.1fs: %v", restore, err)
		}
	}
}

func (s *Session) onTime(sec float64) {
	var (
		skipper *introdb.Skipper
		check   bool
	)

	s.mu.Lock()
	if s.closed || s.seeking || s.state.Dragging() {
		s.mu.Unlock()
		return
	}
	s.lastKnownTime = sec
	s.state.SetCurrentTime(sec)
	if s.autoSkip && s.skipper != nil {
		skipper = s.skipper
		check = true
	}
	s.mu.Unlock()

	if check {
		if skipped, err := skipper.Check(sec); err != nil {
			log.Warnf("auto-skip at %.1fs: %v", sec, err)
		} else if skipped {
			log.Infof("auto-skipped segment at %.1fs", sec)
		}
	}
}

func (s *Session) onBuffering(stalled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	// The seek path owns the spinner while a seek is in flight.
	if s.seeking {
		return
	}
	s.state.SetBuffering(stalled)
}

func (s *Session) onSeeked() {
	s.mu.Lock()
	seq := s.seekSeq
	s.mu.Unlock()
	s.finishSeek(seq)
}

func (s *Session) onEnded() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.state.SetPlaying(false)
	s.state.SetBuffering(false)
	s.mu.Unlock()

	s.flushProgress()
}

// SeekTo clamps the target into [0, duration] and performs an asynchronous
// seek: playback is force-paused, the spinner appears only after a short
// grace window, and the prior play intent is restored on completion. A newer
// seek cancels the stale one's completion handling.
func (s *Session) SeekTo(seconds float64) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("session closed")
	}

	duration := s.state.Duration()
	target := seconds
	if target < 0 {
		target = 0
	}
	if duration > 0 && target > duration {
		target = duration
	}

	if !s.seeking {
		s.resumePlay = s.state.Playing()
	}
	s.seeking = true
	s.seekSeq++
	seq := s.seekSeq
	s.seekTarget = target
	s.state.SetPlaying(false)
	backend := s.backend
	s.mu.Unlock()

	grace := time.Duration(viper.GetInt(key.PlaybackSpinnerGraceMs)) * time.Millisecond
	settle := time.Duration(viper.GetInt(key.PlaybackSeekSettleMs)) * time.Millisecond

	// Spinner only if the seek outlives the grace window.
	s.timers.Set(timerSeekSpinner, grace, func() {
		s.mu.Lock()
		if s.seeking && s.seekSeq == seq && !s.closed {
			s.state.SetBuffering(true)
		}
		s.mu.Unlock()
	})

	// Settle timeout proxies seek completion on backends without a true
	// completion signal; the sequence number drops stale fires.
	s.timers.Set(timerSeekComplete, settle, func() {
		s.finishSeek(seq)
	})

	if err := backend.Pause(); err != nil {
		log.Warnf("pause for seek: %v", err)
	}
	if err := backend.Seek(target); err != nil {
		s.finishSeek(seq)
		return fmt.Errorf("seek to %.1fs: %w", target, err)
	}
	return nil
}

// finishSeek completes the seek with the given sequence number. Stale or
// duplicate completions are dropped.
func (s *Session) finishSeek(seq int) {
	s.mu.Lock()
	if s.closed || !s.seeking || s.seekSeq != seq {
		s.mu.Unlock()
		return
	}
	s.seeking = false
	s.state.SetBuffering(false)
	s.state.SetCurrentTime(s.seekTarget)
	s.lastKnownTime = s.seekTarget
	resume := s.resumePlay
	backend := s.backend
	s.mu.Unlock()

	s.timers.Clear(timerSeekSpinner)
	s.timers.Clear(timerSeekComplete)

	if resume {
		if err := backend.Play(); err != nil {
			log.Warnf("resume after seek: %v", err)
		}
		s.mu.Lock()
		if !s.closed {
			s.state.SetPlaying(true)
		}
		s.mu.Unlock()
	}
}

// TogglePause inverts the play/pause state.
func (s *Session) TogglePause() error {
	s.mu.Lock()
	if s.closed || !s.state.Ready() {
		s.mu.Unlock()
		return fmt.Errorf("session not ready")
	}
	playing := s.state.Playing()
	s.state.SetPlaying(!playing)
	backend := s.backend
	s.mu.Unlock()

	s.Interact()

	if playing {
		return backend.Pause()
	}
	return backend.Play()
}

// SetSpeed applies a playback rate to the backend and settings.
func (s *Session) SetSpeed(speed float64) error {
	if speed <= 0 {
		return fmt.Errorf("invalid speed %g", speed)
	}
	s.mu.Lock()
	s.settings.Speed = speed
	backend := s.backend
	s.mu.Unlock()
	return backend.SetSpeed(speed)
}

// SetMuted applies the mute flag to the backend and settings.
func (s *Session) SetMuted(muted bool) error {
	s.mu.Lock()
	s.settings.Muted = muted
	backend := s.backend
	s.mu.Unlock()
	return backend.SetMuted(muted)
}

// SetSubtitleDelay adjusts the signed render offset for external subtitles.
func (s *Session) SetSubtitleDelay(ms int) {
	s.mu.Lock()
	s.settings.SubtitleDelayMs = ms
	s.mu.Unlock()
}

// SelectAudioTrack switches to the embedded audio track at index i.
func (s *Session) SelectAudioTrack(i int) error {
	s.mu.Lock()
	tracks := s.state.AudioTracks()
	if i < 0 || i >= len(tracks) {
		s.mu.Unlock()
		return fmt.Errorf("audio track %d out of range", i)
	}
	s.settings.SelectedAudioTrack = i
	id := tracks[i].ID
	backend := s.backend
	s.mu.Unlock()

	return backend.SelectAudioTrack(id)
}

// SelectTextTrack switches to the embedded text track at index i, clearing
// any external subtitle. TrackUnset disables embedded text rendering.
func (s *Session) SelectTextTrack(i int) error {
	s.mu.Lock()
	if i != playback.TrackUnset {
		tracks := s.state.TextTracks()
		if i < 0 || i >= len(tracks) {
			s.mu.Unlock()
			return fmt.Errorf("text track %d out of range", i)
		}
	}

	// Embedded and external subtitles are mutually exclusive.
	s.settings.SelectedSubtitle = playback.TrackUnset
	s.settings.SelectedTextTrack = i
	s.cues = nil
	s.subtitleText = ""

	id := ""
	if i != playback.TrackUnset {
		id = s.state.TextTracks()[i].ID
	}
	backend := s.backend
	s.mu.Unlock()

	return backend.SelectTextTrack(id)
}

// SelectSubtitle loads the external subtitle source at index i into the
// engine, disabling any embedded text track. TrackUnset turns subtitles off.
// Load or parse failure clears the cue list and is reported but not fatal.
func (s *Session) SelectSubtitle(i int) error {
	s.mu.Lock()
	// Previous cues never outlive a source change.
	s.cues = nil
	s.subtitleText = ""
	s.settings.SelectedTextTrack = playback.TrackUnset

	if i == playback.TrackUnset {
		s.settings.SelectedSubtitle = playback.TrackUnset
		backend := s.backend
		s.mu.Unlock()
		return backend.SelectTextTrack("")
	}

	if i < 0 || i >= len(s.stream.Subtitles) {
		s.mu.Unlock()
		return fmt.Errorf("subtitle source %d out of range", i)
	}
	s.settings.SelectedSubtitle = i
	src := s.stream.Subtitles[i]
	backend := s.backend
	dl := s.subDl
	client := s.client
	s.mu.Unlock()

	if err := backend.SelectTextTrack(""); err != nil {
		log.Warnf("disable embedded text track: %v", err)
	}

	cues, err := subtitle.Load(src, dl, client)
	if err != nil {
		log.Errorf("subtitle %s: %v", src, err)
		return fmt.Errorf("load subtitle %s: %w", src, err)
	}

	s.mu.Lock()
	// The selection may have moved on while the fetch was in flight.
	if s.settings.SelectedSubtitle == i && !s.closed {
		s.cues = cues
	}
	s.mu.Unlock()
	return nil
}

// armSubtitleTick re-evaluates the active cue against the advancing clock on
// a fixed interval. External cue rendering is clock-driven, not event-driven.
func (s *Session) armSubtitleTick() {
	tick := time.Duration(viper.GetInt(key.SubtitleTickMs)) * time.Millisecond

	var fn func()
	fn = func() {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		if len(s.cues) > 0 && !s.seeking {
			s.subtitleText = subtitle.FindActive(s.cues, s.state.CurrentTime(), s.settings.SubtitleDelayMs)
		}
		s.mu.Unlock()

		s.timers.Set(timerSubtitleTick, tick, fn)
	}

	s.timers.Set(timerSubtitleTick, tick, fn)
}

// armProgressFlush flushes progress on a fixed interval while ready.
func (s *Session) armProgressFlush() {
	interval := time.Duration(viper.GetInt(key.PlaybackProgressFlushSec)) * time.Second

	var fn func()
	fn = func() {
		s.mu.Lock()
		closed := s.closed
		ready := s.state.Ready()
		s.mu.Unlock()
		if closed {
			return
		}
		if ready {
			s.flushProgress()
		}
		s.timers.Set(timerProgressFlush, interval, fn)
	}

	s.timers.Set(timerProgressFlush, interval, fn)
}

// flushProgress hands the current watch percentage to the sink.
func (s *Session) flushProgress() {
	s.mu.Lock()
	sink := s.sink
	percent := playback.Progress(s.lastKnownTime, s.state.Duration())
	s.mu.Unlock()

	if sink == nil {
		return
	}
	if err := sink.UpdateProgress(percent); err != nil {
		log.Warnf("flush progress: %v", err)
	}
}

// Progress returns the current watch percentage.
func (s *Session) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return playback.Progress(s.lastKnownTime, s.state.Duration())
}

// ManualSkip skips the segment active at the current position, subject to
// the shared skip rate limit.
func (s *Session) ManualSkip() (bool, error) {
	s.mu.Lock()
	skipper := s.skipper
	pos := s.state.CurrentTime()
	s.mu.Unlock()

	if skipper == nil {
		return false, nil
	}
	return skipper.SkipManual(pos)
}

// StartDrag begins a progress-bar drag; backend time updates are ignored
// until EndDrag.
func (s *Session) StartDrag() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.state.SetDragging(true)
	s.state.SetDragPosition(s.dragPositionLocked())
}

func (s *Session) dragPositionLocked() float64 {
	d := s.state.Duration()
	if d <= 0 {
		return 0
	}
	return s.state.CurrentTime() / d
}

// Drag updates the drag position, a [0,1] fraction of the duration.
func (s *Session) Drag(pos float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.state.Dragging() {
		return
	}
	s.state.SetDragPosition(pos)
}

// EndDrag finishes the drag and seeks to the released position.
func (s *Session) EndDrag() error {
	s.mu.Lock()
	if s.closed || !s.state.Dragging() {
		s.mu.Unlock()
		return nil
	}
	s.state.SetDragging(false)
	target := s.state.DragPosition() * s.state.Duration()
	s.mu.Unlock()

	s.Interact()
	return s.SeekTo(target)
}

// ControlsShown reports whether on-screen controls are visible.
func (s *Session) ControlsShown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controlsShown
}

// ShowControls makes the controls visible and arms the auto-hide timer.
func (s *Session) ShowControls() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.controlsShown = true
	menuOpen := s.menuOpen
	s.mu.Unlock()

	if menuOpen {
		return
	}

	hide := time.Duration(viper.GetInt(key.PlaybackControlsHideMs)) * time.Millisecond
	s.timers.Set(timerControlsHide, hide, func() {
		s.mu.Lock()
		// Hide only while actively playing; paused sessions keep controls.
		if !s.closed && s.state.Playing() && !s.menuOpen {
			s.controlsShown = false
		}
		s.mu.Unlock()
	})
}

// Interact registers user activity: controls reappear and the hide timer
// restarts.
func (s *Session) Interact() {
	s.ShowControls()
}

// SetMenuOpen suspends controls auto-hide while a menu is open.
func (s *Session) SetMenuOpen(open bool) {
	s.mu.Lock()
	s.menuOpen = open
	s.mu.Unlock()

	if open {
		s.timers.Clear(timerControlsHide)
		return
	}
	s.ShowControls()
}

// SwitchStream tears the backend down and reinitializes it against another
// candidate, preserving the intent to resume at the current position.
func (s *Session) SwitchStream(index int) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("session closed")
	}
	if err := s.stream.Select(index); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	if s.cb.OnStreamChange != nil {
		s.cb.OnStreamChange(index)
	}

	return s.reload()
}

// Retry resets the error state and reloads the same candidate, restoring
// the last known position best-effort.
func (s *Session) Retry() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("session closed")
	}
	s.errorReported = false
	s.state.SetError("")
	s.mu.Unlock()

	return s.reload()
}

// reload replaces the backend with a fresh instance of the same kind and
// loads the current candidate, carrying the resume position forward.
func (s *Session) reload() error {
	s.mu.Lock()
	old := s.backend
	name := old.Name()
	s.resumePercent = playback.Progress(s.lastKnownTime, s.state.Duration())
	s.restored = false
	s.seeking = false
	s.seekSeq++
	s.cues = nil
	s.subtitleText = ""
	s.state.SetReady(false)
	s.state.SetPlaying(false)
	s.state.SetBuffering(false)
	s.mu.Unlock()

	s.timers.Clear(timerSeekSpinner)
	s.timers.Clear(timerSeekComplete)

	if err := old.Close(); err != nil {
		log.Warnf("close %s backend: %v", name, err)
	}

	fresh, err := s.newBackend(name)
	if err != nil {
		s.fatal(fmt.Sprintf("recreate %s backend: %v", name, err))
		return err
	}

	s.mu.Lock()
	s.backend = fresh
	s.errorReported = false
	video := s.stream.Current()
	opts := player.LoadOptions{
		Title:   s.stream.Media.String(),
		Headers: video.Headers,
		Speed:   s.settings.Speed,
		Muted:   s.settings.Muted,
	}
	s.mu.Unlock()

	fresh.Subscribe(s.handleEvent)

	if err := fresh.Load(video.URL, opts); err != nil {
		s.fatal(fmt.Sprintf("load %s: %v", video.URL, err))
		return err
	}
	return nil
}

// fatal routes a terminal backend error through exactly one reporting path:
// the codec fallback request, the host's error callback, or the local error
// state. A second error from the same failed load is dropped.
func (s *Session) fatal(msg string) {
	s.mu.Lock()
	if s.closed || s.errorReported {
		s.mu.Unlock()
		return
	}
	s.errorReported = true
	s.state.SetPlaying(false)
	s.state.SetBuffering(false)

	progress := playback.Progress(s.lastKnownTime, s.state.Duration())
	name := s.backend.Name()

	var report func()
	switch {
	case isCodecError(msg) && s.cb.OnBackendSwitch != nil:
		req := SwitchRequest{From: name, Progress: progress}
		report = func() { s.cb.OnBackendSwitch(req) }
	case s.cb.OnPlaybackError != nil:
		report = func() { s.cb.OnPlaybackError(msg) }
	default:
		s.state.SetError(msg)
	}
	s.mu.Unlock()

	log.Errorf("playback error on %s: %s", name, msg)
	if report != nil {
		report()
	}
}

// isCodecError classifies backend errors that a different backend is likely
// to recover from.
func isCodecError(msg string) bool {
	m := strings.ToLower(msg)
	for _, hint := range []string{"codec", "decoder", "unsupported", "no video", "format"} {
		if strings.Contains(m, hint) {
			return true
		}
	}
	return false
}

// Back emits the exit snapshot and tears the session down.
func (s *Session) Back() {
	s.mu.Lock()
	ev := BackEvent{
		Progress: playback.Progress(s.lastKnownTime, s.state.Duration()),
		Player:   s.backend.Name(),
	}
	cb := s.cb.OnBack
	s.mu.Unlock()

	if cb != nil {
		cb(ev)
	}
	_ = s.Close()
}

// Close tears the session down: every named timer is cancelled, one final
// progress flush runs from the continuously captured last known time, and
// the backend is released. Nothing observable happens afterwards.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	backend := s.backend
	sink := s.sink
	percent := playback.Progress(s.lastKnownTime, s.state.Duration())
	s.mu.Unlock()

	s.timers.Close()

	if sink != nil {
		if err := sink.UpdateProgress(percent); err != nil {
			log.Warnf("final progress flush: %v", err)
		}
	}

	return backend.Close()
}
