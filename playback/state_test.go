package playback

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestState(t *testing.T) {
	Convey("State", t, func() {
		s := NewState()

		Convey("Zero value is idle", func() {
			So(s.Ready(), ShouldBeFalse)
			So(s.Playing(), ShouldBeFalse)
			So(s.Paused(), ShouldBeTrue)
			So(s.Buffering(), ShouldBeFalse)
			So(s.Error(), ShouldBeEmpty)
			So(s.CurrentTime(), ShouldEqual, 0)
			So(s.Duration(), ShouldEqual, 0)
		})

		Convey("Setters round-trip", func() {
			s.SetReady(true)
			s.SetPlaying(true)
			s.SetCurrentTime(12.5)
			s.SetDuration(90)
			s.SetBuffering(true)
			s.SetError("decode failed")

			So(s.Ready(), ShouldBeTrue)
			So(s.Playing(), ShouldBeTrue)
			So(s.Paused(), ShouldBeFalse)
			So(s.CurrentTime(), ShouldEqual, 12.5)
			So(s.Duration(), ShouldEqual, 90)
			So(s.Buffering(), ShouldBeTrue)
			So(s.Error(), ShouldEqual, "decode failed")
		})

		Convey("Playing and Paused stay mutually consistent", func() {
			s.SetPlaying(true)
			So(s.Playing(), ShouldEqual, !s.Paused())
			s.SetPlaying(false)
			So(s.Playing(), ShouldEqual, !s.Paused())
		})

		Convey("Negative duration is floored to zero", func() {
			s.SetDuration(-10)
			So(s.Duration(), ShouldEqual, 0)
		})

		Convey("DisplayTime", func() {
			s.SetDuration(200)
			s.SetCurrentTime(40)

			Convey("Follows currentTime while not dragging", func() {
				So(s.DisplayTime(), ShouldEqual, 40)
			})

			Convey("Derives from dragPosition while dragging", func() {
				s.SetDragging(true)
				s.SetDragPosition(0.25)
				So(s.DisplayTime(), ShouldEqual, 50)
			})

			Convey("DragPosition clamps into [0,1]", func() {
				s.SetDragPosition(1.5)
				So(s.DragPosition(), ShouldEqual, 1)
				s.SetDragPosition(-0.5)
				So(s.DragPosition(), ShouldEqual, 0)
			})
		})

		Convey("Track inventory round-trips", func() {
			audio := []Track{{ID: "1", Label: "English", Language: "en"}}
			text := []Track{{ID: "2", Label: "Signs", Language: "en"}}
			s.SetTracks(audio, text)

			So(s.AudioTracks(), ShouldResemble, audio)
			So(s.TextTracks(), ShouldResemble, text)
		})
	})
}

func TestProgress(t *testing.T) {
	Convey("Progress", t, func() {
		Convey("Computes the watched percentage", func() {
			So(Progress(45, 90), ShouldEqual, 50)
		})

		Convey("Zero duration does not divide by zero", func() {
			So(Progress(0, 0), ShouldEqual, 0)
			So(Progress(10, 0), ShouldEqual, 0)
		})

		Convey("Clamps into [0,100]", func() {
			So(Progress(120, 100), ShouldEqual, 100)
			So(Progress(-5, 100), ShouldEqual, 0)
		})
	})
}
