package probe

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestInspect(t *testing.T) {
	Convey("Inspect", t, func() {
		Convey("Extracts hints and per-platform verdicts", func() {
			r := Inspect("https://cdn.example.com/show.x265.mkv")
			So(r.Container, ShouldEqual, "mkv")
			So(r.VideoCodec, ShouldEqual, "hevc")
			So(r.Platforms, ShouldHaveLength, 3)

			verdicts := map[string]bool{}
			for _, v := range r.Platforms {
				verdicts[v.Platform] = v.Fallback
			}
			So(verdicts["ios"], ShouldBeTrue)
			So(verdicts["web"], ShouldBeFalse)
		})

		Convey("A hintless URL suggests the native backend", func() {
			r := Inspect("https://cdn.example.com/stream")
			So(r.Container, ShouldBeEmpty)
			So(r.SuggestedBackend, ShouldEqual, "native")
		})
	})
}
