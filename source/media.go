// Package source defines the domain models for resolved playback sessions.
package source

import "fmt"

// Media identifies the title a stream belongs to. The IMDB triple is what
// the segment-skip service keys on; Season and Episode are zero for movies.
type Media struct {
	// Display title (e.g. "Show S01E02").
	Title string `json:"title"`
	// IMDB identifier (e.g. "tt0944947"). Empty when unknown.
	ImdbID string `json:"imdbId"`
	// Season number, 0 for movies.
	Season int `json:"season"`
	// Episode number, 0 for movies.
	Episode int `json:"episode"`
}

// String returns the canonical display form of the media identity.
func (m Media) String() string {
	if m.Title != "" {
		return m.Title
	}
	return m.Key()
}

// Key returns a stable identity string used for progress persistence.
func (m Media) Key() string {
	if m.ImdbID == "" {
		return m.Title
	}
	if m.Season == 0 && m.Episode == 0 {
		return m.ImdbID
	}
	return fmt.Sprintf("%s/%d/%d", m.ImdbID, m.Season, m.Episode)
}

// IsEpisode reports whether the media carries series coordinates.
func (m Media) IsEpisode() bool {
	return m.Season > 0 || m.Episode > 0
}
