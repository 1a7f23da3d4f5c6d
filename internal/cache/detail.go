
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"newsinlevels-crawler/internal/ioformats"
	"newsinlevels-crawler/internal/models"
	"newsinlevels-crawler/internal/storage"
)

// DetailCache maps an article URL to its extracted detail record. Entries are
// never evicted; every Store rewrites the whole document.
type DetailCache struct {
	mu      sync.RWMutex
	store   storage.Store
	entries map[string]models.DetailRecord
	now     func() time.Time
	log     *slog.Logger
}

// NewDetailCache loads the saved document once. A missing or undecodable
// document gives an empty cache.
func NewDetailCache(ctx context.Context, store storage.Store, opts ...Option) (*DetailCache, error) {
	o := buildOptions(opts)
	c := &DetailCache{
		store:   store,
		entries: map[string]models.DetailRecord{},
		now:     o.now,
		log:     o.logger,
	}
	var doc map[string]models.DetailRecord
	ok, err := loadDocument(ctx, store, "detail", &doc, o.logger)
	if err != nil {
		return nil, err
	}
	if ok && doc != nil {
		c.entries = doc
	}
	c.log.Debug("cache: detail cache loaded", "entries", len(c.entries))
	return c, nil
}

func (c *DetailCache) Lookup(key string) (models.DetailRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.entries[key]
	if !ok {
		return models.DetailRecord{}, false
	}
	return cloneDetail(rec), true
}

// cloneDetail copies the words map and timestamp so callers never share them
// with an entry.
func cloneDetail(rec models.DetailRecord) models.DetailRecord {
	if rec.CachedAt != nil {
		ts := *rec.CachedAt
		rec.CachedAt = &ts
	}
	words := make(map[string]string, len(rec.DifficultWords))
	for k, v := range rec.DifficultWords {
		words[k] = v
	}
	rec.DifficultWords = words
	return rec
}

// Store stamps rec with the current time, inserts it under key and persists
// the full cache. The stamped record is returned. When the write fails the
// entry is still kept in memory for this process.
func (c *DetailCache) Store(ctx context.Context, key string, rec models.DetailRecord) (models.DetailRecord, error) {
	rec = cloneDetail(rec)
	rec.CachedAt = models.NewTimestamp(c.now())

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = rec
	rec = cloneDetail(rec)

	data, err := ioformats.MarshalIndent(c.entries)
	if err != nil {
		return rec, err
	}
	if err := c.store.Save(ctx, data); err != nil {
		return rec, fmt.Errorf("save detail cache: %w", err)
	}
	return rec, nil
}

func (c *DetailCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
