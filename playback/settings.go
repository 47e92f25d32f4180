package playback

import (
	"github.com/spf13/viper"
	"github.com/vidra-app/vidra/key"
)

// SubtitlePosition enumerates where app-rendered subtitles are anchored.
type SubtitlePosition string

const (
	SubtitleBottom SubtitlePosition = "bottom"
	SubtitleTop    SubtitlePosition = "top"
)

// TrackUnset marks an audio/subtitle selection index as "not chosen".
const TrackUnset = -1

// Settings holds per-session user preferences. Lifetime is the session;
// initial values come from configuration, later changes are not persisted.
type Settings struct {
	Speed float64
	Muted bool

	// SelectedAudioTrack indexes into State.AudioTracks; TrackUnset when untouched.
	SelectedAudioTrack int

	// SelectedSubtitle indexes into the external subtitle-source list;
	// TrackUnset means subtitles are off.
	SelectedSubtitle int

	// SelectedTextTrack indexes into State.TextTracks (embedded tracks);
	// mutually exclusive with SelectedSubtitle.
	SelectedTextTrack int

	SubtitlePosition SubtitlePosition
	SubtitleDelayMs  int
}

// DefaultSettings builds session settings from global configuration.
func DefaultSettings() Settings {
	return Settings{
		Speed:              viper.GetFloat64(key.PlayerSpeed),
		Muted:              viper.GetBool(key.PlayerMuted),
		SelectedAudioTrack: TrackUnset,
		SelectedSubtitle:   TrackUnset,
		SelectedTextTrack:  TrackUnset,
		SubtitlePosition:   SubtitlePosition(viper.GetString(key.SubtitlePosition)),
		SubtitleDelayMs:    viper.GetInt(key.SubtitleDelayMs),
	}
}
