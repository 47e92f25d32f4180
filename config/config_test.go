package config

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
	"github.com/vidra-app/vidra/filesystem"
	"github.com/vidra-app/vidra/key"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("Config Setup", t, func() {
		Convey("Should initialize without error", func() {
			err := Setup()
			So(err, ShouldBeNil)
		})

		Convey("Should have default values populated", func() {
			_ = Setup()
			for name := range Default {
				So(viper.Get(name), ShouldNotBeNil)
			}
		})

		Convey("Playback tuning defaults should match the documented constants", func() {
			_ = Setup()
			So(viper.GetInt(key.SkipRateLimitSec), ShouldEqual, 3)
			So(viper.GetFloat64(key.SkipMinConfidence), ShouldEqual, 0.5)
			So(viper.GetInt(key.PlaybackProgressFlushSec), ShouldEqual, 60)
		})

		Convey("EnvKeyReplacer should convert dots to underscores", func() {
			result := EnvKeyReplacer.Replace("playback.seek_settle_ms")
			So(result, ShouldEqual, "playback_seek_settle_ms")
		})
	})
}
