
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"newsinlevels-crawler/internal/cache"
	"newsinlevels-crawler/internal/models"
	"newsinlevels-crawler/internal/parser"
	"newsinlevels-crawler/internal/reconcile"
)

// ErrNoContent is returned when a fetched page has no extractable root.
var ErrNoContent = errors.New("page has no extractable content")

// Fetcher is the network boundary; *crawler.HTTPClient satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (io.ReadCloser, string, string, time.Duration, error)
}

type Pipeline struct {
	fetcher Fetcher
	lists   *cache.ListCache
	details *cache.DetailCache

	listing parser.Extractor[[]models.ListingRecord]
	detail  parser.Extractor[models.DetailRecord]
	text    parser.Extractor[[]string]

	concurrency   int
	detailTimeout time.Duration
	log           *slog.Logger
}

type Option func(*Pipeline)

// WithConcurrency bounds the number of detail pages fetched at once.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithDetailTimeout limits each detail fetch; zero means no extra limit.
func WithDetailTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.detailTimeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

func WithListingExtractor(e parser.Extractor[[]models.ListingRecord]) Option {
	return func(p *Pipeline) { p.listing = e }
}

func WithDetailExtractor(e parser.Extractor[models.DetailRecord]) Option {
	return func(p *Pipeline) { p.detail = e }
}

func New(f Fetcher, lists *cache.ListCache, details *cache.DetailCache, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher:     f,
		lists:       lists,
		details:     details,
		listing:     parser.NewListingExtractor(),
		detail:      parser.NewDetailExtractor(),
		text:        parser.NewTextExtractor(),
		concurrency: 4,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) Lists() *cache.ListCache     { return p.lists }
func (p *Pipeline) Details() *cache.DetailCache { return p.details }

// Result is the outcome of one Run. Articles is never nil.
type Result struct {
	RunID         string                 `json:"run_id"`
	Articles      []models.ListingRecord `json:"articles"`
	ListFromCache bool                   `json:"list_from_cache"`
	Reconcile     reconcile.Stats        `json:"reconcile"`
	Skipped       int                    `json:"skipped"`
	DetailHits    int                    `json:"detail_hits"`
	DetailFetched int                    `json:"detail_fetched"`
	DetailFailed  int                    `json:"detail_failed"`
	Duration      time.Duration          `json:"duration"`
}

// Run fetches the listing at listingURL, reconciles it with a fresh list
// cache, saves the reconciled list and attaches details, from the detail
// cache when present and fetched otherwise. Fetch, parse and cache write
// failures are logged and never abort the run; the only error returned is
// the context's.
func (p *Pipeline) Run(ctx context.Context, listingURL string) (Result, error) {
	start := time.Now()
	res := Result{RunID: uuid.NewString(), Articles: []models.ListingRecord{}}
	log := p.log.With("run_id", res.RunID)

	cached, fresh := p.lists.FreshSnapshot()
	if !fresh {
		cached = nil
	}
	log.Info("pipeline: run started", "url", listingURL, "list_cache_fresh", fresh)

	live, err := p.ScrapeListing(ctx, listingURL)
	if err != nil {
		log.Error("pipeline: listing unavailable, caches left untouched", "url", listingURL, "err", err)
		res.Duration = time.Since(start)
		return res, ctx.Err()
	}

	kept, dropped := reconcile.Dedupe(live)
	for _, d := range dropped {
		log.Warn("pipeline: skipping listing record", "title", d.Title, "title_link", d.TitleLink)
	}
	res.Skipped = len(dropped)

	articles, st := reconcile.Reconcile(kept, cached)
	res.Reconcile = st
	res.ListFromCache = cached != nil
	if cached == nil {
		log.Info("pipeline: no fresh cached list, using all live articles", "articles", len(articles))
	} else {
		log.Info("pipeline: reconciled with cached list", "reused", st.Reused, "added", st.Added, "dropped", st.Dropped)
	}

	if err := p.lists.Update(ctx, articles); err != nil {
		log.Error("pipeline: list cache write failed", "err", err)
	}

	p.attachDetails(ctx, log, articles, &res)
	res.Articles = articles
	res.Duration = time.Since(start)
	log.Info("pipeline: run finished",
		"articles", len(articles),
		"detail_hits", res.DetailHits,
		"detail_fetched", res.DetailFetched,
		"detail_failed", res.DetailFailed,
		"took", res.Duration)
	return res, ctx.Err()
}

// attachDetails serves cache hits directly, fetches misses concurrently and
// then writes them to the detail cache one by one in listing order.
func (p *Pipeline) attachDetails(ctx context.Context, log *slog.Logger, articles []models.ListingRecord, res *Result) {
	var misses []int
	for i := range articles {
		if rec, ok := p.details.Lookup(articles[i].TitleLink); ok {
			log.Debug("pipeline: detail from cache", "title", articles[i].Title)
			articles[i].Details = &rec
			res.DetailHits++
			continue
		}
		misses = append(misses, i)
	}
	if len(misses) == 0 {
		return
	}

	urls := make([]string, len(misses))
	for j, i := range misses {
		urls[j] = articles[i].TitleLink
	}
	fetched := p.ScrapeDetails(ctx, urls)

	for j, i := range misses {
		out := fetched[j]
		if out.Err != nil {
			log.Warn("pipeline: detail unavailable", "title", articles[i].Title, "url", out.URL, "err", out.Err)
			res.DetailFailed++
			continue
		}
		stored, err := p.details.Store(ctx, out.URL, *out.Detail)
		if err != nil {
			log.Error("pipeline: detail cache write failed", "url", out.URL, "err", err)
		}
		log.Debug("pipeline: detail fetched", "title", articles[i].Title, "took", out.FetchTime)
		articles[i].Details = &stored
		res.DetailFetched++
	}
}

// DetailResult is one entry of a ScrapeDetails batch.
type DetailResult struct {
	URL       string               `json:"url"`
	Detail    *models.DetailRecord `json:"result,omitempty"`
	Error     string               `json:"error,omitempty"`
	Err       error                `json:"-"`
	FetchTime time.Duration        `json:"-"`
}

// ScrapeDetails fetches and extracts every URL with bounded concurrency. The
// result slice is index-aligned with urls. Nothing is cached.
func (p *Pipeline) ScrapeDetails(ctx context.Context, urls []string) []DetailResult {
	results := make([]DetailResult, len(urls))

	// bounded concurrency
	sem := make(chan struct{}, p.concurrency)
	done := make(chan int, len(urls))

	for i, u := range urls {
		i, u := i, u
		sem <- struct{}{} // acquire
		go func() {
			defer func() { <-sem; done <- i }()
			start := time.Now()
			rec, err := p.scrapeDetailWithTimeout(ctx, u)
			results[i] = DetailResult{URL: u, FetchTime: time.Since(start)}
			if err != nil {
				results[i].Err = err
				results[i].Error = err.Error()
				return
			}
			results[i].Detail = &rec
		}()
	}
	for range urls {
		<-done
	}
	return results
}

func (p *Pipeline) scrapeDetailWithTimeout(ctx context.Context, u string) (models.DetailRecord, error) {
	if p.detailTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.detailTimeout)
		defer cancel()
	}
	return p.ScrapeDetail(ctx, u)
}

// ScrapeListing fetches a listing page and extracts its records without
// touching either cache.
func (p *Pipeline) ScrapeListing(ctx context.Context, u string) ([]models.ListingRecord, error) {
	doc, err := p.fetchDocument(ctx, u)
	if err != nil {
		return nil, err
	}
	recs, ok := p.listing.Extract(doc)
	if !ok {
		return nil, fmt.Errorf("%s: %w", u, ErrNoContent)
	}
	return recs, nil
}

// ScrapeDetail fetches a single article page without touching either cache.
func (p *Pipeline) ScrapeDetail(ctx context.Context, u string) (models.DetailRecord, error) {
	doc, err := p.fetchDocument(ctx, u)
	if err != nil {
		return models.DetailRecord{}, err
	}
	rec, ok := p.detail.Extract(doc)
	if !ok {
		return models.DetailRecord{}, fmt.Errorf("%s: %w", u, ErrNoContent)
	}
	return rec, nil
}

// ScrapeText returns every visible text line of the page at u.
func (p *Pipeline) ScrapeText(ctx context.Context, u string) ([]string, error) {
	doc, err := p.fetchDocument(ctx, u)
	if err != nil {
		return nil, err
	}
	lines, ok := p.text.Extract(doc)
	if !ok {
		return nil, fmt.Errorf("%s: %w", u, ErrNoContent)
	}
	return lines, nil
}

func (p *Pipeline) fetchDocument(ctx context.Context, u string) (*goquery.Document, error) {
	body, finalURL, ct, took, err := p.fetcher.Fetch(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u, err)
	}
	defer body.Close()
	p.log.Debug("pipeline: fetched", "url", u, "final_url", finalURL, "took", took)

	doc, err := parser.Parse(body, ct)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", u, err)
	}
	return doc, nil
}
