// Package codec implements the pre-flight capability check deciding whether a
// stream URL can be handed to the native system player or must fall back to
// the VLC-based backend.
//
// The check is a heuristic built on coarse substring hints, not a guarantee:
// the orchestrator's error handler remains the authoritative fallback trigger.
// Its only job is to avoid a guaranteed failed load.
package codec

import (
	"runtime"
	"strings"

	"github.com/samber/mo"
	"github.com/vidra-app/vidra/constant"
)

// Platform identifies the capability table to consult.
type Platform int

const (
	PlatformIOS Platform = iota
	PlatformAndroid
	PlatformWeb
)

func (p Platform) String() string {
	switch p {
	case PlatformIOS:
		return "ios"
	case PlatformAndroid:
		return "android"
	default:
		return "web"
	}
}

// CurrentPlatform maps the running OS onto a capability table.
// Desktop systems use the web table, which never requires fallback.
func CurrentPlatform() Platform {
	switch runtime.GOOS {
	case constant.IOS:
		return PlatformIOS
	case constant.Android:
		return PlatformAndroid
	default:
		return PlatformWeb
	}
}

// containerHints is the fixed list of recognizable container markers.
var containerHints = []string{"mkv", "avi", "mp4", "mov", "webm", "flv", "wmv", "m3u8", "m3u"}

// videoCodecHints maps URL substrings onto canonical video codec names.
var videoCodecHints = []struct {
	marker string
	codec  string
}{
	{"hevc", "hevc"},
	{"h265", "hevc"},
	{"x265", "hevc"},
	{"hvc1", "hevc"},
	{"h264", "h264"},
	{"x264", "h264"},
	{"avc1", "h264"},
	{"avc", "h264"},
	{"vp9", "vp9"},
	{"vp09", "vp9"},
	{"av1", "av1"},
	{"av01", "av1"},
}

// audioCodecHints maps URL substrings onto canonical audio codec names.
var audioCodecHints = []struct {
	marker string
	codec  string
}{
	{"eac3", "eac3"},
	{"ac3", "ac3"},
	{"aac", "aac"},
	{"opus", "opus"},
	{"vorbis", "vorbis"},
}

// support describes what one platform's system player can decode.
type support struct {
	containers []string
	video      []string
	audio      []string

	// rejectHEVC unconditionally refuses HEVC regardless of the listed
	// support, modeling a known playback reliability issue on iOS.
	rejectHEVC bool
}

var platformSupport = map[Platform]support{
	PlatformIOS: {
		containers: []string{"mp4", "mov", "m3u8", "m3u"},
		video:      []string{"h264", "hevc"},
		audio:      []string{"aac", "ac3", "eac3"},
		rejectHEVC: true,
	},
	PlatformAndroid: {
		containers: []string{"mp4", "mkv", "webm", "m3u8", "m3u"},
		video:      []string{"h264", "hevc", "vp9", "av1"},
		audio:      []string{"aac", "opus", "vorbis"},
	},
}

// ContainerHint extracts a coarse container hint from a stream URL.
func ContainerHint(url string) mo.Option[string] {
	lowered := strings.ToLower(url)
	for _, hint := range containerHints {
		if strings.Contains(lowered, hint) {
			return mo.Some(hint)
		}
	}
	return mo.None[string]()
}

// VideoCodecHint extracts a coarse video codec hint from a stream URL.
func VideoCodecHint(url string) mo.Option[string] {
	lowered := strings.ToLower(url)
	for _, h := range videoCodecHints {
		if strings.Contains(lowered, h.marker) {
			return mo.Some(h.codec)
		}
	}
	return mo.None[string]()
}

// AudioCodecHint extracts a coarse audio codec hint from a stream URL.
func AudioCodecHint(url string) mo.Option[string] {
	lowered := strings.ToLower(url)
	for _, h := range audioCodecHints {
		if strings.Contains(lowered, h.marker) {
			return mo.Some(h.codec)
		}
	}
	return mo.None[string]()
}

// ShouldFallback reports whether the given platform's system player must be
// bypassed in favor of the fallback-capable backend for this URL.
// No hints extracted means the stream is assumed native-capable.
func ShouldFallback(url string, platform Platform) bool {
	// Web delivery is assumed to normalize formats upstream.
	if platform == PlatformWeb {
		return false
	}

	table, ok := platformSupport[platform]
	if !ok {
		return false
	}

	if video, present := VideoCodecHint(url).Get(); present {
		if table.rejectHEVC && video == "hevc" {
			return true
		}
		if !contains(table.video, video) {
			return true
		}
	}

	if container, present := ContainerHint(url).Get(); present {
		if !contains(table.containers, container) {
			return true
		}
	}

	if audio, present := AudioCodecHint(url).Get(); present {
		if !contains(table.audio, audio) {
			return true
		}
	}

	return false
}

// ShouldFallbackToVLC runs the capability check against the current platform.
func ShouldFallbackToVLC(url string) bool {
	return ShouldFallback(url, CurrentPlatform())
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
