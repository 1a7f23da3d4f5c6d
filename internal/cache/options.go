
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"newsinlevels-crawler/internal/storage"
)

// DefaultListTTL is how long a saved article list counts as fresh.
const DefaultListTTL = time.Hour

type options struct {
	now    func() time.Time
	ttl    time.Duration
	logger *slog.Logger
}

type Option func(*options)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithTTL sets the list freshness window. Ignored by DetailCache.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, ttl: DefaultListTTL, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// loadDocument reads and decodes the stored document into v. It reports
// false when the cache should start empty: nothing saved yet, or content that
// does not decode. Only storage failures are returned as errors.
func loadDocument(ctx context.Context, store storage.Store, name string, v any, log *slog.Logger) (bool, error) {
	data, err := store.Load(ctx)
	if errors.Is(err, storage.ErrNotExist) {
		log.Debug("cache: no saved document", "cache", name)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s cache: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Warn("cache: unreadable document, starting empty", "cache", name, "err", err)
		return false, nil
	}
	return true, nil
}
