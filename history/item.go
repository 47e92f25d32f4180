package history

import (
	"fmt"

	"github.com/spf13/viper"
	"github.com/vidra-app/vidra/key"
	"github.com/vidra-app/vidra/source"
)

// SavedItem represents a single playback entry preserved in the user's history.
type SavedItem struct {
	Title             string  `json:"title"`
	ImdbID            string  `json:"imdb_id"`
	Season            int     `json:"season"`
	Episode           int     `json:"episode"`
	WatchedPercentage float64 `json:"watched_percentage"`
}

func (s *SavedItem) encode() string {
	return s.Media().Key()
}

// Media reconstructs the media identity from the stored record.
func (s *SavedItem) Media() source.Media {
	return source.Media{
		Title:   s.Title,
		ImdbID:  s.ImdbID,
		Season:  s.Season,
		Episode: s.Episode,
	}
}

// Watched reports whether the item crossed the configured completion
// threshold, at which point it counts as fully seen rather than in progress.
func (s *SavedItem) Watched() bool {
	return s.WatchedPercentage >= viper.GetFloat64(key.PlayerCompletionPercentage)
}

func (s *SavedItem) String() string {
	m := s.Media()
	if m.IsEpisode() {
		return fmt.Sprintf("%s S%02dE%02d : %.0f%%", s.Title, s.Season, s.Episode, s.WatchedPercentage)
	}
	return fmt.Sprintf("%s : %.0f%%", m, s.WatchedPercentage)
}

func newSavedItem(media source.Media) *SavedItem {
	return &SavedItem{
		Title:   media.Title,
		ImdbID:  media.ImdbID,
		Season:  media.Season,
		Episode: media.Episode,
	}
}
