
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

// ListCache holds the last reconciled article list and when it was written.
type ListCache struct {
	mu    sync.RWMutex
	store storage.Store
	snap  models.ListSnapshot
	ttl   time.Duration
	now   func() time.Time
	log   *slog.Logger
}

func NewListCache(ctx context.Context, store storage.Store, opts ...Option) (*ListCache, error) {
	o := buildOptions(opts)
	c := &ListCache{
		store: store,
		ttl:   o.ttl,
		now:   o.now,
		log:   o.logger,
	}
	var snap models.ListSnapshot
	ok, err := loadDocument(ctx, store, "list", &snap, o.logger)
	if err != nil {
		return nil, err
	}
	if ok {
		c.snap = snap
	}
	c.log.Debug("cache: list cache loaded", "articles", len(c.snap.Articles), "last_updated", c.snap.LastUpdated)
	return c, nil
}

// FreshSnapshot returns the stored list when it was written less than the TTL
// ago. A list exactly TTL old is stale.
func (c *ListCache) FreshSnapshot() ([]models.ListingRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.fresh() {
		return nil, false
	}
	out := make([]models.ListingRecord, len(c.snap.Articles))
	copy(out, c.snap.Articles)
	return out, true
}

// Snapshot returns the stored content regardless of freshness, together with
// whether that same content is fresh.
func (c *ListCache) Snapshot() (models.ListSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := c.snap
	if c.snap.Articles != nil {
		out.Articles = make([]models.ListingRecord, len(c.snap.Articles))
		copy(out.Articles, c.snap.Articles)
	}
	return out, c.fresh()
}

// fresh reports whether the list was written less than the TTL ago. Callers
// hold mu.
func (c *ListCache) fresh() bool {
	if c.snap.LastUpdated == nil {
		return false
	}
	return c.now().Sub(c.snap.LastUpdated.Time) < c.ttl
}

// Update replaces the stored list, stamps it with the current time and
// writes the whole document.
func (c *ListCache) Update(ctx context.Context, list []models.ListingRecord) error {
	articles := make([]models.ListingRecord, len(list))
	copy(articles, list)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = models.ListSnapshot{
		Articles:    articles,
		LastUpdated: models.NewTimestamp(c.now()),
	}

	data, err := ioformats.MarshalIndent(c.snap)
	if err != nil {
		return err
	}
	if err := c.store.Save(ctx, data); err != nil {
		return fmt.Errorf("save list cache: %w", err)
	}
	return nil
}
