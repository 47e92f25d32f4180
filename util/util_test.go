package util

import (
	"regexp"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestQuantify(t *testing.T) {
	Convey("Quantify", t, func() {
		So(Quantify(1, "cue", "cues"), ShouldEqual, "1 cue")
		So(Quantify(2, "cue", "cues"), ShouldEqual, "2 cues")
	})
}

func TestCapitalize(t *testing.T) {
	Convey("Capitalize", t, func() {
		So(Capitalize("hello"), ShouldEqual, "Hello")
		So(Capitalize(""), ShouldEqual, "")
	})
}

func TestReGroups(t *testing.T) {
	Convey("ReGroups", t, func() {
		re := regexp.MustCompile(`(?P<first>\w+)\s(?P<last>\w+)`)
		groups := ReGroups(re, "John Doe")
		So(groups["first"], ShouldEqual, "John")
		So(groups["last"], ShouldEqual, "Doe")
	})
}

func TestMaxMin(t *testing.T) {
	Convey("Max/Min", t, func() {
		So(Max(1, 5, 2), ShouldEqual, 5)
		So(Min(1, 5, 2), ShouldEqual, 1)
	})
}

func TestClamp(t *testing.T) {
	Convey("Clamp", t, func() {
		So(Clamp(-5.0, 0.0, 100.0), ShouldEqual, 0.0)
		So(Clamp(150.0, 0.0, 100.0), ShouldEqual, 100.0)
		So(Clamp(42.0, 0.0, 100.0), ShouldEqual, 42.0)
	})
}

func TestFormatDuration(t *testing.T) {
	Convey("FormatDuration", t, func() {
		So(FormatDuration(0), ShouldEqual, "0:00")
		So(FormatDuration(65), ShouldEqual, "1:05")
		So(FormatDuration(3675), ShouldEqual, "1:01:15")
		So(FormatDuration(-3), ShouldEqual, "0:00")
	})
}
