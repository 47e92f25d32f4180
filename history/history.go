// Package history provides the implementation for tracking and persisting watch progress.
package history

import (
	"github.com/metafates/gache"
	"github.com/vidra-app/vidra/filesystem"
	"github.com/vidra-app/vidra/source"
	"github.com/vidra-app/vidra/where"
)

// cacher provides an abstracted, disk-backed registry for playback progress records.
var cacher = gache.New[map[string]*SavedItem](
	&gache.Options{
		Path:       where.History(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// Get returns the complete collection of historical playback records from the persistent store.
func Get() (map[string]*SavedItem, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*SavedItem), nil
	}
	return cached, nil
}

// Save persists the playback progress of a media item to the history registry.
func Save(media source.Media, percentage float64) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	record := newSavedItem(media)

	// Idempotency: keep the maximum observed percentage to prevent regressions on re-watch.
	if existing, exists := saved[record.encode()]; exists {
		if percentage < existing.WatchedPercentage {
			percentage = existing.WatchedPercentage
		}
	}
	record.WatchedPercentage = percentage

	saved[record.encode()] = record

	return cacher.Set(saved)
}

// Progress returns the stored watch percentage for a media item, zero when absent.
func Progress(media source.Media) (float64, error) {
	saved, err := Get()
	if err != nil {
		return 0, err
	}

	record := newSavedItem(media)
	if existing, exists := saved[record.encode()]; exists {
		return existing.WatchedPercentage, nil
	}
	return 0, nil
}

// Watched reports whether the stored progress for a media item crossed the
// completion threshold. Unknown items are not watched.
func Watched(media source.Media) (bool, error) {
	saved, err := Get()
	if err != nil {
		return false, err
	}

	record := newSavedItem(media)
	if existing, exists := saved[record.encode()]; exists {
		return existing.Watched(), nil
	}
	return false, nil
}

// Remove permanently deletes a playback record from the history registry.
func Remove(item *SavedItem) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	delete(saved, item.encode())
	return cacher.Set(saved)
}
