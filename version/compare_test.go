package version

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCompare(t *testing.T) {
	Convey("Compare", t, func() {
		Convey("Orders full semantic versions", func() {
			cases := []struct {
				a, b string
				want int
			}{
				{"1.0.0", "1.0.0", 0},
				{"1.2.3", "1.2.2", 1},
				{"1.2.3", "1.3.0", -1},
				{"2.0.0", "1.9.9", 1},
				{"v1.2.3", "1.2.3", 0},
			}
			for _, c := range cases {
				got, err := Compare(c.a, c.b)
				So(err, ShouldBeNil)
				So(got, ShouldEqual, c.want)
			}
		})

		Convey("Treats a missing patch component as zero", func() {
			got, err := Compare("1.2", "1.2.0")
			So(err, ShouldBeNil)
			So(got, ShouldEqual, 0)
		})

		Convey("Rejects unparseable versions", func() {
			_, err := Compare("not-a-version", "1.0.0")
			So(err, ShouldNotBeNil)
		})
	})
}
