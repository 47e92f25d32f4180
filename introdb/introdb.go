// Package introdb provides a client for the IntroDB segment-detection API,
// enabling automated skipping of intro, recap, and outro sequences.
//
// Segment lookups are cached per episode for the lifetime of the Service, so
// repeat calls for the same episode never re-fetch. The cache lives on an
// injected service object rather than package state, which keeps tests
// isolated and invalidation explicit.
package introdb

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/samber/mo"
	"github.com/vidra-app/vidra/log"
)

// SegmentType names a skippable time range category.
type SegmentType string

const (
	SegmentIntro SegmentType = "intro"
	SegmentRecap SegmentType = "recap"
	SegmentOutro SegmentType = "outro"
)

// Segment is a continuous skippable time range within an episode.
type Segment struct {
	StartSec   float64 `json:"start_sec"`
	EndSec     float64 `json:"end_sec"`
	StartMs    int64   `json:"start_ms"`
	EndMs      int64   `json:"end_ms"`
	Confidence float64 `json:"confidence"`
}

// Contains reports whether t falls inside the half-open segment window.
func (s *Segment) Contains(t float64) bool {
	return t >= s.StartSec && t < s.EndSec
}

// EpisodeSegments holds the skippable ranges detected for one episode.
// A segment whose confidence fell below the configured minimum is nil.
type EpisodeSegments struct {
	Intro *Segment `json:"intro"`
	Recap *Segment `json:"recap"`
	Outro *Segment `json:"outro"`
}

// ActiveSegment reports which segment the playback clock currently sits in
// and where a skip would land.
type ActiveSegment struct {
	Type      SegmentType
	Segment   *Segment
	SkipToSec float64
}

// Active resolves the skippable segment covering currentTimeSec, if any.
// Recap is checked before intro: recap windows can touch intro windows at the
// exact boundary and take precedence there. Outro comes last.
func Active(segs *EpisodeSegments, currentTimeSec float64) mo.Option[ActiveSegment] {
	if segs == nil {
		return mo.None[ActiveSegment]()
	}

	ordered := []struct {
		kind    SegmentType
		segment *Segment
	}{
		{SegmentRecap, segs.Recap},
		{SegmentIntro, segs.Intro},
		{SegmentOutro, segs.Outro},
	}

	for _, entry := range ordered {
		if entry.segment != nil && entry.segment.Contains(currentTimeSec) {
			return mo.Some(ActiveSegment{
				Type:      entry.kind,
				Segment:   entry.segment,
				SkipToSec: entry.segment.EndSec,
			})
		}
	}

	return mo.None[ActiveSegment]()
}

// Service is the long-lived segment lookup client with its per-process cache.
type Service struct {
	baseURL       string
	client        *http.Client
	minConfidence float64

	mu    sync.Mutex
	cache map[string]*EpisodeSegments
}

// NewService creates a segment service against the given API base URL.
// Segments with confidence below minConfidence are discarded at load time.
func NewService(baseURL string, minConfidence float64, client *http.Client) *Service {
	return &Service{
		baseURL:       baseURL,
		client:        client,
		minConfidence: minConfidence,
		cache:         make(map[string]*EpisodeSegments),
	}
}

// ClearCache drops every cached episode entry.
func (s *Service) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*EpisodeSegments)
}

func cacheKey(imdbID string, season, episode int) string {
	return imdbID + "/" + strconv.Itoa(season) + "/" + strconv.Itoa(episode)
}

// EpisodeSegments retrieves the skippable ranges for a specific episode,
// cache-first. The confidence filter is applied once, before caching.
func (s *Service) EpisodeSegments(imdbID string, season, episode int) (*EpisodeSegments, error) {
	key := cacheKey(imdbID, season, episode)

	s.mu.Lock()
	if cached, ok := s.cache[key]; ok {
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	segs, err := s.fetch(imdbID, season, episode)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[key] = segs
	s.mu.Unlock()

	return segs, nil
}

func (s *Service) fetch(imdbID string, season, episode int) (*EpisodeSegments, error) {
	query := url.Values{}
	query.Set("imdb_id", imdbID)
	query.Set("season", strconv.Itoa(season))
	query.Set("episode", strconv.Itoa(episode))

	resp, err := s.client.Get(s.baseURL + "/segments?" + query.Encode())
	if err != nil {
		return nil, fmt.Errorf("segment request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("segment API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read segment response: %w", err)
	}

	var segs EpisodeSegments
	if err := json.Unmarshal(body, &segs); err != nil {
		return nil, fmt.Errorf("parse segment response: %w", err)
	}

	segs.Intro = s.filter(segs.Intro, SegmentIntro, imdbID)
	segs.Recap = s.filter(segs.Recap, SegmentRecap, imdbID)
	segs.Outro = s.filter(segs.Outro, SegmentOutro, imdbID)

	return &segs, nil
}

// filter nulls out a segment whose detection confidence is below the minimum.
func (s *Service) filter(seg *Segment, kind SegmentType, imdbID string) *Segment {
	if seg == nil {
		return nil
	}
	if seg.Confidence < s.minConfidence {
		log.Debugf("discarding %s segment for %s: confidence %.2f < %.2f", kind, imdbID, seg.Confidence, s.minConfidence)
		return nil
	}
	return seg
}
