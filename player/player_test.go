package player

import (
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/vidra-app/vidra/config"
	"github.com/vidra-app/vidra/filesystem"
	"github.com/vidra-app/vidra/key"
)

func init() {
	filesystem.SetMemMapFs()
	lo.Must0(config.Setup())
}

func TestSanitizeMediaTarget(t *testing.T) {
	Convey("sanitizeMediaTarget", t, func() {
		Convey("Should accept http and https URLs", func() {
			for _, url := range []string{
				"http://example.com/video.mp4",
				"https://cdn.example.com/master.m3u8?token=abc",
			} {
				got, err := sanitizeMediaTarget(url)
				So(err, ShouldBeNil)
				So(got, ShouldEqual, url)
			}
		})

		Convey("Should accept local file paths and clean them", func() {
			got, err := sanitizeMediaTarget("/tmp/downloads/../media/video.mkv")
			So(err, ShouldBeNil)
			So(got, ShouldEqual, "/tmp/media/video.mkv")
		})

		Convey("Should reject empty input", func() {
			_, err := sanitizeMediaTarget("   ")
			So(err, ShouldNotBeNil)
		})

		Convey("Should reject flag injection", func() {
			_, err := sanitizeMediaTarget("--script=evil.lua")
			So(err, ShouldNotBeNil)
		})

		Convey("Should reject control characters", func() {
			_, err := sanitizeMediaTarget("http://example.com/a\nb")
			So(err, ShouldNotBeNil)
		})

		Convey("Should reject non-http schemes", func() {
			_, err := sanitizeMediaTarget("rtmp://example.com/live")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestSanitizeTitle(t *testing.T) {
	Convey("sanitizeTitle", t, func() {
		Convey("Should strip control characters and trim", func() {
			So(sanitizeTitle("  Show S01E02\n\tPart 2\x00  "), ShouldEqual, "Show S01E02  Part 2")
		})

		Convey("Should pass plain titles through", func() {
			So(sanitizeTitle("Show S01E02"), ShouldEqual, "Show S01E02")
		})
	})
}

func TestForName(t *testing.T) {
	Convey("ForName", t, func() {
		Convey("Should construct every known backend", func() {
			for _, name := range []string{BackendNative, BackendVLC, BackendDec, BackendWeb} {
				b, err := ForName(name)
				So(err, ShouldBeNil)
				So(b.Name(), ShouldEqual, name)
			}
		})

		Convey("Should reject unknown names", func() {
			_, err := ForName("quicktime")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestResolve(t *testing.T) {
	Convey("Resolve", t, func() {
		Convey("Auto and empty run the codec pre-flight check", func() {
			// Desktop platforms never require fallback, so the pre-flight
			// resolves to the native player here.
			for _, name := range []string{BackendAuto, ""} {
				b, err := Resolve(name, "https://cdn.example.com/video.x265.mkv")
				So(err, ShouldBeNil)
				So(b.Name(), ShouldEqual, BackendNative)
			}
		})

		Convey("The shipped default config value resolves", func() {
			b, err := Resolve(viper.GetString(key.Player), "https://cdn.example.com/video.mp4")
			So(err, ShouldBeNil)
			So(b, ShouldNotBeNil)
		})

		Convey("Concrete names pass through", func() {
			b, err := Resolve(BackendDec, "https://cdn.example.com/video.mp4")
			So(err, ShouldBeNil)
			So(b.Name(), ShouldEqual, BackendDec)
		})

		Convey("Unknown names still error", func() {
			_, err := Resolve("quicktime", "https://cdn.example.com/video.mp4")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestDecSessionLifetime(t *testing.T) {
	Convey("Dec session lifetime", t, func() {
		d := NewDec()

		var events []Event
		var mu sync.Mutex
		d.Subscribe(func(ev Event) {
			mu.Lock()
			events = append(events, ev)
			mu.Unlock()
		})

		waitClosed := func() bool {
			select {
			case <-d.Wait():
				return true
			default:
				return false
			}
		}

		Convey("Wait returns one stable channel for the whole session", func() {
			So(d.Wait(), ShouldEqual, d.Wait())
		})

		Convey("A replaced process's exit leaves the session alive", func() {
			// A seek-driven respawn advances the generation past the
			// process it killed.
			d.gen = 2
			d.handleExit(1)

			So(waitClosed(), ShouldBeFalse)
			mu.Lock()
			So(events, ShouldBeEmpty)
			mu.Unlock()
		})

		Convey("The current process's exit ends the session", func() {
			d.gen = 2
			d.handleExit(2)

			So(waitClosed(), ShouldBeTrue)
			mu.Lock()
			So(len(events), ShouldEqual, 1)
			So(events[0].Type, ShouldEqual, EventEnded)
			mu.Unlock()
		})

		Convey("Close ends the session without a synthetic end event", func() {
			So(d.Close(), ShouldBeNil)
			So(waitClosed(), ShouldBeTrue)

			d.handleExit(0)
			mu.Lock()
			So(events, ShouldBeEmpty)
			mu.Unlock()
		})
	})
}

func TestFfmpegHeaders(t *testing.T) {
	Convey("ffmpegHeaders", t, func() {
		Convey("Should render CRLF separated header lines", func() {
			got := ffmpegHeaders(map[string]string{"Referer": "http://example.com"})
			So(got, ShouldEqual, "Referer: http://example.com\r\n")
		})

		Convey("Should return empty for no headers", func() {
			So(ffmpegHeaders(nil), ShouldBeEmpty)
		})
	})
}

func TestWebBackend(t *testing.T) {
	Convey("Web backend", t, func() {
		w := NewWeb()

		Convey("Control operations are inert before hand-off", func() {
			So(w.Play(), ShouldBeNil)
			So(w.Pause(), ShouldBeNil)
			So(w.Seek(42), ShouldBeNil)
			So(w.SetSpeed(1.5), ShouldBeNil)
			So(w.SetMuted(true), ShouldBeNil)
		})

		Convey("Track selection reports unsupported", func() {
			So(w.SelectAudioTrack("1"), ShouldNotBeNil)
			So(w.SelectTextTrack("1"), ShouldNotBeNil)
		})

		Convey("Close unblocks Wait", func() {
			So(w.Close(), ShouldBeNil)
			select {
			case <-w.Wait():
			default:
				t.Fatal("Wait channel still open after Close")
			}
		})
	})
}
