package source

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMedia(t *testing.T) {
	Convey("Media", t, func() {
		Convey("Key", func() {
			Convey("Episode carries the full triple", func() {
				m := Media{ImdbID: "tt0944947", Season: 1, Episode: 2}
				So(m.Key(), ShouldEqual, "tt0944947/1/2")
				So(m.IsEpisode(), ShouldBeTrue)
			})

			Convey("Movie collapses to the IMDB id", func() {
				m := Media{ImdbID: "tt1375666"}
				So(m.Key(), ShouldEqual, "tt1375666")
				So(m.IsEpisode(), ShouldBeFalse)
			})

			Convey("Falls back to title when IMDB id is missing", func() {
				m := Media{Title: "Home Video"}
				So(m.Key(), ShouldEqual, "Home Video")
			})
		})

		Convey("String prefers the title", func() {
			m := Media{Title: "Show S01E02", ImdbID: "tt0944947", Season: 1, Episode: 2}
			So(m.String(), ShouldEqual, "Show S01E02")
		})
	})
}

func TestStream(t *testing.T) {
	Convey("Stream", t, func() {
		videos := []*Video{
			{URL: "https://cdn.example.com/hi.m3u8", Quality: "1080p"},
			{URL: "https://cdn.example.com/lo.mp4", Quality: "480p"},
		}

		Convey("Requires at least one candidate", func() {
			_, err := NewStream(Media{Title: "X"}, nil, nil)
			So(err, ShouldNotBeNil)
		})

		Convey("Starts at the first candidate", func() {
			s, err := NewStream(Media{Title: "X"}, videos, nil)
			So(err, ShouldBeNil)
			So(s.Index(), ShouldEqual, 0)
			So(s.Current().Quality, ShouldEqual, "1080p")
		})

		Convey("Select moves the cursor", func() {
			s, _ := NewStream(Media{Title: "X"}, videos, nil)
			So(s.Select(1), ShouldBeNil)
			So(s.Current().Quality, ShouldEqual, "480p")
		})

		Convey("Select rejects out-of-range indexes", func() {
			s, _ := NewStream(Media{Title: "X"}, videos, nil)
			So(s.Select(2), ShouldNotBeNil)
			So(s.Select(-1), ShouldNotBeNil)
			So(s.Index(), ShouldEqual, 0)
		})
	})
}
