// Package probe produces machine-readable capability reports for stream URLs.
package probe

import (
	"github.com/vidra-app/vidra/codec"
	"github.com/vidra-app/vidra/player"
)

// Verdict is the fallback decision for one platform capability table.
type Verdict struct {
	Platform string `json:"platform"`
	Fallback bool   `json:"fallback" jsonschema:"description=Whether the native player must be bypassed on this platform"`
}

// Report describes what the capability selector extracted from a URL and
// which backend it would pick.
type Report struct {
	URL              string    `json:"url"`
	Container        string    `json:"container,omitempty" jsonschema:"description=Coarse container hint extracted from the URL"`
	VideoCodec       string    `json:"videoCodec,omitempty"`
	AudioCodec       string    `json:"audioCodec,omitempty"`
	Platforms        []Verdict `json:"platforms"`
	CurrentPlatform  string    `json:"currentPlatform"`
	SuggestedBackend string    `json:"suggestedBackend" jsonschema:"enum=native,enum=vlc"`
}

// Inspect runs the capability selector over a URL for every platform table.
func Inspect(url string) Report {
	report := Report{
		URL:             url,
		Container:       codec.ContainerHint(url).OrElse(""),
		VideoCodec:      codec.VideoCodecHint(url).OrElse(""),
		AudioCodec:      codec.AudioCodecHint(url).OrElse(""),
		CurrentPlatform: codec.CurrentPlatform().String(),
	}

	for _, p := range []codec.Platform{codec.PlatformIOS, codec.PlatformAndroid, codec.PlatformWeb} {
		report.Platforms = append(report.Platforms, Verdict{
			Platform: p.String(),
			Fallback: codec.ShouldFallback(url, p),
		})
	}

	report.SuggestedBackend = player.BackendNative
	if codec.ShouldFallbackToVLC(url) {
		report.SuggestedBackend = player.BackendVLC
	}

	return report
}
