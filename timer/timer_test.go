package timer

import (
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRegistry(t *testing.T) {
	Convey("Registry", t, func() {
		r := NewRegistry()

		Convey("Set schedules a callback", func() {
			done := make(chan struct{})
			r.Set("once", 5*time.Millisecond, func() { close(done) })

			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("callback never fired")
			}
			So(r.Active("once"), ShouldBeFalse)
		})

		Convey("Set under an existing name cancels the previous timer", func() {
			var fired int32
			r.Set("hide", 10*time.Millisecond, func() { atomic.AddInt32(&fired, 10) })
			r.Set("hide", 10*time.Millisecond, func() { atomic.AddInt32(&fired, 1) })

			time.Sleep(50 * time.Millisecond)
			So(atomic.LoadInt32(&fired), ShouldEqual, 1)
		})

		Convey("Clear prevents the callback from running", func() {
			var fired int32
			r.Set("gone", 10*time.Millisecond, func() { atomic.AddInt32(&fired, 1) })
			r.Clear("gone")

			time.Sleep(50 * time.Millisecond)
			So(atomic.LoadInt32(&fired), ShouldEqual, 0)
			So(r.Active("gone"), ShouldBeFalse)
		})

		Convey("ClearAll cancels every outstanding timer", func() {
			var fired int32
			for _, name := range []string{"a", "b", "c"} {
				r.Set(name, 10*time.Millisecond, func() { atomic.AddInt32(&fired, 1) })
			}
			r.ClearAll()

			time.Sleep(50 * time.Millisecond)
			So(atomic.LoadInt32(&fired), ShouldEqual, 0)
		})

		Convey("Close disables future scheduling", func() {
			var fired int32
			r.Close()
			r.Set("late", time.Millisecond, func() { atomic.AddInt32(&fired, 1) })

			time.Sleep(30 * time.Millisecond)
			So(atomic.LoadInt32(&fired), ShouldEqual, 0)
		})
	})
}
