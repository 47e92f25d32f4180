package codec

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestHints(t *testing.T) {
	Convey("Hint extraction", t, func() {
		Convey("Container", func() {
			So(ContainerHint("http://cdn/stream.mkv").MustGet(), ShouldEqual, "mkv")
			So(ContainerHint("http://cdn/master.m3u8").MustGet(), ShouldEqual, "m3u8")
			So(ContainerHint("http://cdn/opaque").IsAbsent(), ShouldBeTrue)
		})

		Convey("Video codec aliases collapse onto canonical names", func() {
			So(VideoCodecHint("file.x265.1080p.bin").MustGet(), ShouldEqual, "hevc")
			So(VideoCodecHint("file.HEVC.bin").MustGet(), ShouldEqual, "hevc")
			So(VideoCodecHint("file.avc1.bin").MustGet(), ShouldEqual, "h264")
			So(VideoCodecHint("file.vp09.bin").MustGet(), ShouldEqual, "vp9")
			So(VideoCodecHint("file.av01.bin").MustGet(), ShouldEqual, "av1")
			So(VideoCodecHint("file.bin").IsAbsent(), ShouldBeTrue)
		})

		Convey("Audio codec", func() {
			So(AudioCodecHint("file.eac3.bin").MustGet(), ShouldEqual, "eac3")
			So(AudioCodecHint("file.opus.bin").MustGet(), ShouldEqual, "opus")
			So(AudioCodecHint("file.bin").IsAbsent(), ShouldBeTrue)
		})
	})
}

func TestShouldFallback(t *testing.T) {
	Convey("ShouldFallback", t, func() {
		Convey("iOS always rejects HEVC even though the table lists it", func() {
			So(ShouldFallback("http://cdn/show.x265.mp4", PlatformIOS), ShouldBeTrue)
			So(ShouldFallback("http://cdn/show.hevc.mp4", PlatformIOS), ShouldBeTrue)
		})

		Convey("The same URL on web never falls back", func() {
			So(ShouldFallback("http://cdn/show.x265.mp4", PlatformWeb), ShouldBeFalse)
		})

		Convey("Android accepts HEVC in mkv", func() {
			So(ShouldFallback("http://cdn/show.x265.mkv", PlatformAndroid), ShouldBeFalse)
		})

		Convey("Unsupported container falls back", func() {
			So(ShouldFallback("http://cdn/show.avi", PlatformAndroid), ShouldBeTrue)
			So(ShouldFallback("http://cdn/show.mkv", PlatformIOS), ShouldBeTrue)
		})

		Convey("Unsupported audio codec falls back", func() {
			So(ShouldFallback("http://cdn/show.h264.opus.mp4", PlatformIOS), ShouldBeTrue)
			So(ShouldFallback("http://cdn/show.h264.aac.mp4", PlatformIOS), ShouldBeFalse)
		})

		Convey("No hints extracted assumes native-capable", func() {
			So(ShouldFallback("http://cdn/opaque-stream", PlatformIOS), ShouldBeFalse)
			So(ShouldFallback("http://cdn/opaque-stream", PlatformAndroid), ShouldBeFalse)
		})
	})
}
