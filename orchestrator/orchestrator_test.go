package orchestrator

import (
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/samber/lo"
	"github.com/vidra-app/vidra/config"
	"github.com/vidra-app/vidra/filesystem"
	"github.com/vidra-app/vidra/playback"
	"github.com/vidra-app/vidra/player"
	"github.com/vidra-app/vidra/source"
)

func init() {
	filesystem.SetMemMapFs()
	lo.Must0(config.Setup())
}

// fakeBackend records control calls and lets tests script the event stream.
type fakeBackend struct {
	mu      sync.Mutex
	handler player.Handler
	seeks   []float64
	plays   int
	pauses  int
	loads   []string
	closed  bool
	done    chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{done: make(chan struct{})}
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Subscribe(h player.Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = h
}

func (f *fakeBackend) Load(url string, opts player.LoadOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads = append(f.loads, url)
	return nil
}

func (f *fakeBackend) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays++
	return nil
}

func (f *fakeBackend) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauses++
	return nil
}

func (f *fakeBackend) Seek(sec float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeks = append(f.seeks, sec)
	return nil
}

func (f *fakeBackend) SetSpeed(float64) error        { return nil }
func (f *fakeBackend) SetMuted(bool) error           { return nil }
func (f *fakeBackend) SelectAudioTrack(string) error { return nil }
func (f *fakeBackend) SelectTextTrack(string) error  { return nil }
func (f *fakeBackend) Wait() <-chan struct{}         { return f.done }

func (f *fakeBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.done)
	}
	return nil
}

func (f *fakeBackend) emit(ev player.Event) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	if h != nil {
		h(ev)
	}
}

func (f *fakeBackend) seekCalls() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]float64, len(f.seeks))
	copy(out, f.seeks)
	return out
}

// memSink records progress flushes in memory.
type memSink struct {
	mu      sync.Mutex
	updates []float64
}

func (m *memSink) UpdateProgress(p float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, p)
	return nil
}

func (m *memSink) all() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]float64, len(m.updates))
	copy(out, m.updates)
	return out
}

func testStream() *source.Stream {
	return lo.Must(source.NewStream(
		source.Media{Title: "Show S01E02"},
		[]*source.Video{
			{URL: "https://cdn.example.com/hi.m3u8", Quality: "1080p"},
			{URL: "https://cdn.example.com/lo.mp4", Quality: "480p"},
		},
		nil,
	))
}

func TestRestoreProgress(t *testing.T) {
	Convey("Given a session created with initial progress", t, func() {
		fake := newFakeBackend()
		s := New(testStream(), fake, Options{
			Settings:        playback.DefaultSettings(),
			InitialProgress: 50,
		})
		So(s.Start(), ShouldBeNil)

		Convey("When the backend reports duration on load", func() {
			fake.emit(player.Event{Type: player.EventLoaded, Duration: 200})

			Convey("Then exactly one restorative seek to the stored fraction of the duration is issued", func() {
				So(fake.seekCalls(), ShouldResemble, []float64{100})
			})

			Convey("Then subsequent time updates trigger no second automatic seek", func() {
				fake.emit(player.Event{Type: player.EventSeeked})
				fake.emit(player.Event{Type: player.EventTime, Seconds: 101})
				fake.emit(player.Event{Type: player.EventTime, Seconds: 102})
				So(fake.seekCalls(), ShouldResemble, []float64{100})
			})
		})

		Reset(func() { _ = s.Close() })
	})
}

func TestSeekClamping(t *testing.T) {
	Convey("Given a ready session with duration 100", t, func() {
		fake := newFakeBackend()
		s := New(testStream(), fake, Options{Settings: playback.DefaultSettings()})
		So(s.Start(), ShouldBeNil)
		fake.emit(player.Event{Type: player.EventLoaded, Duration: 100})

		Convey("Seeking below zero clamps to zero", func() {
			So(s.SeekTo(-5), ShouldBeNil)
			calls := fake.seekCalls()
			So(calls[len(calls)-1], ShouldEqual, 0)
		})

		Convey("Seeking past the end clamps to the duration", func() {
			So(s.SeekTo(150), ShouldBeNil)
			calls := fake.seekCalls()
			So(calls[len(calls)-1], ShouldEqual, 100)
		})

		Reset(func() { _ = s.Close() })
	})
}

func TestSeekLifecycle(t *testing.T) {
	Convey("Given a playing session", t, func() {
		fake := newFakeBackend()
		s := New(testStream(), fake, Options{Settings: playback.DefaultSettings()})
		So(s.Start(), ShouldBeNil)
		fake.emit(player.Event{Type: player.EventLoaded, Duration: 100})
		fake.emit(player.Event{Type: player.EventSeeked}) // stale, no seek in flight
		fake.emit(player.Event{Type: player.EventTime, Seconds: 10})

		Convey("A seek force-pauses and restores play intent on completion", func() {
			So(s.State().Playing(), ShouldBeTrue)
			So(s.SeekTo(40), ShouldBeNil)
			So(s.State().Playing(), ShouldBeFalse)

			fake.emit(player.Event{Type: player.EventSeeked})
			So(s.State().Playing(), ShouldBeTrue)
			So(s.State().CurrentTime(), ShouldEqual, 40)
		})

		Convey("Time updates during a seek are ignored", func() {
			So(s.SeekTo(40), ShouldBeNil)
			fake.emit(player.Event{Type: player.EventTime, Seconds: 11})
			So(s.State().CurrentTime(), ShouldNotEqual, 11)

			fake.emit(player.Event{Type: player.EventSeeked})
			fake.emit(player.Event{Type: player.EventTime, Seconds: 41})
			So(s.State().CurrentTime(), ShouldEqual, 41)
		})

		Convey("Time updates during a drag are ignored", func() {
			s.StartDrag()
			fake.emit(player.Event{Type: player.EventTime, Seconds: 55})
			So(s.State().CurrentTime(), ShouldEqual, 10)

			Convey("And releasing the drag seeks to the released fraction", func() {
				s.Drag(0.5)
				So(s.EndDrag(), ShouldBeNil)
				calls := fake.seekCalls()
				So(calls[len(calls)-1], ShouldEqual, 50)
			})
		})

		Reset(func() { _ = s.Close() })
	})
}

func TestErrorReporting(t *testing.T) {
	Convey("Given a session with a host error callback", t, func() {
		var (
			mu     sync.Mutex
			errors []string
		)
		fake := newFakeBackend()
		s := New(testStream(), fake, Options{
			Settings: playback.DefaultSettings(),
			Callbacks: Callbacks{
				OnPlaybackError: func(msg string) {
					mu.Lock()
					errors = append(errors, msg)
					mu.Unlock()
				},
			},
		})
		So(s.Start(), ShouldBeNil)
		fake.emit(player.Event{Type: player.EventLoaded, Duration: 100})

		Convey("A second error from the same failed session reports once", func() {
			fake.emit(player.Event{Type: player.EventError, Message: "network timeout"})
			fake.emit(player.Event{Type: player.EventError, Message: "network timeout"})

			mu.Lock()
			n := len(errors)
			mu.Unlock()
			So(n, ShouldEqual, 1)

			Convey("And the local error state stays clear", func() {
				So(s.State().Error(), ShouldBeEmpty)
			})
		})

		Reset(func() { _ = s.Close() })
	})

	Convey("Given a session without a host error callback", t, func() {
		fake := newFakeBackend()
		s := New(testStream(), fake, Options{Settings: playback.DefaultSettings()})
		So(s.Start(), ShouldBeNil)

		Convey("A fatal error lands in the local state", func() {
			fake.emit(player.Event{Type: player.EventError, Message: "network timeout"})
			So(s.State().Error(), ShouldEqual, "network timeout")
			So(s.State().Playing(), ShouldBeFalse)
		})

		Reset(func() { _ = s.Close() })
	})
}

func TestCodecFallbackRequest(t *testing.T) {
	Convey("Given a session with a backend-switch callback", t, func() {
		var (
			mu       sync.Mutex
			requests []SwitchRequest
		)
		fake := newFakeBackend()
		s := New(testStream(), fake, Options{
			Settings: playback.DefaultSettings(),
			Callbacks: Callbacks{
				OnPlaybackError: func(string) { t.Error("error callback must not fire for codec errors") },
				OnBackendSwitch: func(req SwitchRequest) {
					mu.Lock()
					requests = append(requests, req)
					mu.Unlock()
				},
			},
		})
		So(s.Start(), ShouldBeNil)
		fake.emit(player.Event{Type: player.EventLoaded, Duration: 200})
		fake.emit(player.Event{Type: player.EventTime, Seconds: 100})

		Convey("An unsupported-codec error requests a remount with progress", func() {
			fake.emit(player.Event{Type: player.EventError, Message: "unsupported codec: hevc"})

			mu.Lock()
			defer mu.Unlock()
			So(requests, ShouldHaveLength, 1)
			So(requests[0].From, ShouldEqual, "fake")
			So(requests[0].Progress, ShouldEqual, 50)
		})

		Reset(func() { _ = s.Close() })
	})
}

func TestTrackExclusivity(t *testing.T) {
	Convey("Given a ready session with embedded text tracks", t, func() {
		fake := newFakeBackend()
		stream := testStream()
		s := New(stream, fake, Options{Settings: playback.DefaultSettings()})
		So(s.Start(), ShouldBeNil)
		fake.emit(player.Event{
			Type:       player.EventLoaded,
			Duration:   100,
			TextTracks: []playback.Track{{ID: "1", Label: "English"}},
		})

		Convey("Selecting an embedded track clears the external selection", func() {
			So(s.SelectTextTrack(0), ShouldBeNil)
			settings := s.Settings()
			So(settings.SelectedTextTrack, ShouldEqual, 0)
			So(settings.SelectedSubtitle, ShouldEqual, playback.TrackUnset)
		})

		Convey("Turning subtitles off clears cues and text", func() {
			So(s.SelectSubtitle(playback.TrackUnset), ShouldBeNil)
			So(s.SubtitleText(), ShouldBeEmpty)
			So(s.Settings().SelectedSubtitle, ShouldEqual, playback.TrackUnset)
		})

		Reset(func() { _ = s.Close() })
	})
}

func TestStreamSwitch(t *testing.T) {
	Convey("Given a playing session", t, func() {
		fake := newFakeBackend()
		replacement := newFakeBackend()
		s := New(testStream(), fake, Options{Settings: playback.DefaultSettings()})
		s.newBackend = func(string) (player.Backend, error) { return replacement, nil }

		So(s.Start(), ShouldBeNil)
		fake.emit(player.Event{Type: player.EventLoaded, Duration: 200})
		fake.emit(player.Event{Type: player.EventTime, Seconds: 100})

		Convey("Switching the candidate reloads and preserves resume intent", func() {
			var changed []int
			s.cb.OnStreamChange = func(i int) { changed = append(changed, i) }

			So(s.SwitchStream(1), ShouldBeNil)
			So(changed, ShouldResemble, []int{1})
			So(fake.closed, ShouldBeTrue)
			So(replacement.loads, ShouldResemble, []string{"https://cdn.example.com/lo.mp4"})

			Convey("And the new backend restores the old position on load", func() {
				replacement.emit(player.Event{Type: player.EventLoaded, Duration: 200})
				So(replacement.seekCalls(), ShouldResemble, []float64{100})
			})
		})

		Reset(func() { _ = s.Close() })
	})
}

func TestRetry(t *testing.T) {
	Convey("Given an errored session", t, func() {
		fake := newFakeBackend()
		replacement := newFakeBackend()
		s := New(testStream(), fake, Options{Settings: playback.DefaultSettings()})
		s.newBackend = func(string) (player.Backend, error) { return replacement, nil }

		So(s.Start(), ShouldBeNil)
		fake.emit(player.Event{Type: player.EventLoaded, Duration: 100})
		fake.emit(player.Event{Type: player.EventTime, Seconds: 30})
		fake.emit(player.Event{Type: player.EventError, Message: "network timeout"})
		So(s.State().Error(), ShouldNotBeEmpty)

		Convey("Retry clears the error and reloads the same candidate", func() {
			So(s.Retry(), ShouldBeNil)
			So(s.State().Error(), ShouldBeEmpty)
			So(replacement.loads, ShouldResemble, []string{"https://cdn.example.com/hi.m3u8"})

			Convey("And it reseeks to the last known time best-effort", func() {
				replacement.emit(player.Event{Type: player.EventLoaded, Duration: 100})
				So(replacement.seekCalls(), ShouldResemble, []float64{30})
			})
		})

		Reset(func() { _ = s.Close() })
	})
}

func TestTeardown(t *testing.T) {
	Convey("Given a closed session", t, func() {
		fake := newFakeBackend()
		sink := &memSink{}
		var backs []BackEvent
		s := New(testStream(), fake, Options{
			Settings: playback.DefaultSettings(),
			Sink:     sink,
			Callbacks: Callbacks{
				OnBack: func(ev BackEvent) { backs = append(backs, ev) },
			},
		})
		So(s.Start(), ShouldBeNil)
		fake.emit(player.Event{Type: player.EventLoaded, Duration: 200})
		fake.emit(player.Event{Type: player.EventTime, Seconds: 50})

		s.Back()

		Convey("Back carries the last known progress and active player", func() {
			So(backs, ShouldHaveLength, 1)
			So(backs[0].Progress, ShouldEqual, 25)
			So(backs[0].Player, ShouldEqual, "fake")
		})

		Convey("Teardown flushed progress exactly once from the captured time", func() {
			So(sink.all(), ShouldResemble, []float64{25})
		})

		Convey("Nothing observable happens after teardown", func() {
			before := s.State().CurrentTime()
			fake.emit(player.Event{Type: player.EventTime, Seconds: 99})
			fake.emit(player.Event{Type: player.EventError, Message: "late error"})
			So(s.State().CurrentTime(), ShouldEqual, before)
			So(s.State().Error(), ShouldBeEmpty)
			So(s.SeekTo(10), ShouldNotBeNil)

			// Give any stray timer callback a chance to fire wrongly.
			time.Sleep(20 * time.Millisecond)
			So(sink.all(), ShouldResemble, []float64{25})
		})
	})
}
