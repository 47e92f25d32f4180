package history

import "github.com/vidra-app/vidra/source"

// Sink receives progress percentages from a playback session.
type Sink interface {
	UpdateProgress(percent float64) error
}

// DiskSink persists progress for one media item through the history registry.
type DiskSink struct {
	media source.Media
}

// NewDiskSink binds a sink to a media identity.
func NewDiskSink(media source.Media) *DiskSink {
	return &DiskSink{media: media}
}

// UpdateProgress stores the percentage, keeping the maximum observed value.
func (d *DiskSink) UpdateProgress(percent float64) error {
	return Save(d.media, percent)
}
