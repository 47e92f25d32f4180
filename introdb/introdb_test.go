package introdb

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func segmentServer(fetches *int32, payload string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(fetches, 1)
		fmt.Fprint(w, payload)
	}))
}

func TestEpisodeSegments(t *testing.T) {
	Convey("Service.EpisodeSegments", t, func() {
		Convey("Parses and caches per episode", func() {
			var fetches int32
			srv := segmentServer(&fetches, `{
				"intro": {"start_sec": 10, "end_sec": 90, "confidence": 0.9},
				"outro": {"start_sec": 1200, "end_sec": 1290, "confidence": 0.8}
			}`)
			defer srv.Close()

			svc := NewService(srv.URL, 0.5, srv.Client())

			first, err := svc.EpisodeSegments("tt0903747", 1, 1)
			So(err, ShouldBeNil)
			So(first.Intro, ShouldNotBeNil)
			So(first.Intro.StartSec, ShouldEqual, 10)
			So(first.Recap, ShouldBeNil)
			So(first.Outro, ShouldNotBeNil)

			second, err := svc.EpisodeSegments("tt0903747", 1, 1)
			So(err, ShouldBeNil)
			So(second, ShouldResemble, first)
			So(atomic.LoadInt32(&fetches), ShouldEqual, 1)
		})

		Convey("Different episodes fetch separately", func() {
			var fetches int32
			srv := segmentServer(&fetches, `{}`)
			defer srv.Close()

			svc := NewService(srv.URL, 0.5, srv.Client())
			_, _ = svc.EpisodeSegments("tt0903747", 1, 1)
			_, _ = svc.EpisodeSegments("tt0903747", 1, 2)
			So(atomic.LoadInt32(&fetches), ShouldEqual, 2)
		})

		Convey("Nulls out segments below the confidence minimum", func() {
			var fetches int32
			srv := segmentServer(&fetches, `{
				"intro": {"start_sec": 10, "end_sec": 90, "confidence": 0.3},
				"recap": {"start_sec": 0, "end_sec": 10, "confidence": 0.7}
			}`)
			defer srv.Close()

			svc := NewService(srv.URL, 0.5, srv.Client())
			segs, err := svc.EpisodeSegments("tt0903747", 2, 3)
			So(err, ShouldBeNil)
			So(segs.Intro, ShouldBeNil)
			So(segs.Recap, ShouldNotBeNil)
		})

		Convey("API failure surfaces as an error and is not cached", func() {
			var fetches int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&fetches, 1)
				w.WriteHeader(http.StatusBadGateway)
			}))
			defer srv.Close()

			svc := NewService(srv.URL, 0.5, srv.Client())
			_, err := svc.EpisodeSegments("tt0903747", 1, 1)
			So(err, ShouldNotBeNil)

			_, err = svc.EpisodeSegments("tt0903747", 1, 1)
			So(err, ShouldNotBeNil)
			So(atomic.LoadInt32(&fetches), ShouldEqual, 2)
		})

		Convey("ClearCache forces a re-fetch", func() {
			var fetches int32
			srv := segmentServer(&fetches, `{}`)
			defer srv.Close()

			svc := NewService(srv.URL, 0.5, srv.Client())
			_, _ = svc.EpisodeSegments("tt1", 1, 1)
			svc.ClearCache()
			_, _ = svc.EpisodeSegments("tt1", 1, 1)
			So(atomic.LoadInt32(&fetches), ShouldEqual, 2)
		})
	})
}

func TestActive(t *testing.T) {
	Convey("Active", t, func() {
		segs := &EpisodeSegments{
			Recap: &Segment{StartSec: 0, EndSec: 30, Confidence: 0.9},
			Intro: &Segment{StartSec: 25, EndSec: 90, Confidence: 0.9},
			Outro: &Segment{StartSec: 1200, EndSec: 1290, Confidence: 0.9},
		}

		Convey("Recap wins inside overlapping recap/intro windows", func() {
			active, ok := Active(segs, 27).Get()
			So(ok, ShouldBeTrue)
			So(active.Type, ShouldEqual, SegmentRecap)
			So(active.SkipToSec, ShouldEqual, 30)
		})

		Convey("Intro after the recap window closes", func() {
			active, ok := Active(segs, 45).Get()
			So(ok, ShouldBeTrue)
			So(active.Type, ShouldEqual, SegmentIntro)
		})

		Convey("Segment end is exclusive", func() {
			active, ok := Active(segs, 90).Get()
			So(ok, ShouldBeFalse)
			So(active.Segment, ShouldBeNil)
		})

		Convey("Outside all windows", func() {
			So(Active(segs, 500).IsAbsent(), ShouldBeTrue)
		})

		Convey("Nil segments", func() {
			So(Active(nil, 10).IsAbsent(), ShouldBeTrue)
		})
	})
}

func TestSkipper(t *testing.T) {
	Convey("Skipper", t, func() {
		segs := &EpisodeSegments{
			Recap: &Segment{StartSec: 0, EndSec: 10, Confidence: 0.9},
			Intro: &Segment{StartSec: 10, EndSec: 90, Confidence: 0.9},
		}

		var seeks []float64
		sk := NewSkipper(segs, 3*time.Second, func(sec float64) error {
			seeks = append(seeks, sec)
			return nil
		})

		clock := time.Unix(1000, 0)
		sk.now = func() time.Time { return clock }

		Convey("Auto-skips once per segment type", func() {
			skipped, err := sk.Check(5)
			So(err, ShouldBeNil)
			So(skipped, ShouldBeTrue)
			So(seeks, ShouldResemble, []float64{10})

			// Hovering back into the recap window must not re-skip.
			clock = clock.Add(10 * time.Second)
			skipped, err = sk.Check(5)
			So(err, ShouldBeNil)
			So(skipped, ShouldBeFalse)
			So(seeks, ShouldHaveLength, 1)
		})

		Convey("Two segments activating within a second trigger one skip per rate window", func() {
			skipped, _ := sk.Check(5)
			So(skipped, ShouldBeTrue)

			// The recap skip landed inside the intro window, one second later.
			clock = clock.Add(time.Second)
			skipped, _ = sk.Check(10)
			So(skipped, ShouldBeFalse)
			So(seeks, ShouldHaveLength, 1)

			// After the rate window the intro skip proceeds.
			clock = clock.Add(3 * time.Second)
			skipped, _ = sk.Check(10)
			So(skipped, ShouldBeTrue)
			So(seeks, ShouldResemble, []float64{10, 90})
		})

		Convey("Manual skip obeys the same rate limit", func() {
			skipped, _ := sk.SkipManual(5)
			So(skipped, ShouldBeTrue)

			clock = clock.Add(time.Second)
			skipped, _ = sk.SkipManual(15)
			So(skipped, ShouldBeFalse)

			clock = clock.Add(3 * time.Second)
			skipped, _ = sk.SkipManual(15)
			So(skipped, ShouldBeTrue)
		})

		Convey("Reset clears the once-per-type flags for a new episode", func() {
			_, _ = sk.Check(5)
			sk.Reset(segs)
			clock = clock.Add(5 * time.Second)

			skipped, _ := sk.Check(5)
			So(skipped, ShouldBeTrue)
		})

		Convey("No segments means no action", func() {
			sk.Reset(nil)
			skipped, err := sk.Check(5)
			So(err, ShouldBeNil)
			So(skipped, ShouldBeFalse)
		})
	})
}

func TestSkipperConcurrency(t *testing.T) {
	Convey("Skipper under concurrent use", t, func() {
		segs := &EpisodeSegments{
			Intro: &Segment{StartSec: 0, EndSec: 90, Confidence: 0.9},
		}

		var seeks int32
		sk := NewSkipper(segs, 0, func(sec float64) error {
			atomic.AddInt32(&seeks, 1)
			return nil
		})

		// Time events arrive on the backend goroutine while manual skips
		// come from the host goroutine.
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				_, _ = sk.Check(5)
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				_, _ = sk.SkipManual(5)
				if i%100 == 0 {
					sk.Reset(segs)
				}
			}
		}()
		wg.Wait()

		So(atomic.LoadInt32(&seeks), ShouldBeGreaterThan, 0)
	})
}
