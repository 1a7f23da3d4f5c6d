
package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"newsinlevels-crawler/internal/ioformats"
	"newsinlevels-crawler/internal/pipeline"
)

type urlReq struct {
	URL string `json:"url"`
}

type batchReq struct {
	URLs []string `json:"urls"`
}

type server struct {
	p         *pipeline.Pipeline
	sourceURL string
	log       *slog.Logger

	// one run at a time keeps a single writer per cache document
	runMu sync.Mutex
}

func newServer(p *pipeline.Pipeline, sourceURL string, l *slog.Logger) *server {
	return &server{p: p, sourceURL: sourceURL, log: l}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/run", s.handleRun)
	mux.HandleFunc("/articles", s.handleArticles)
	mux.HandleFunc("/articles/detail", s.handleCachedDetail)
	mux.HandleFunc("/scrape/listing", s.handleScrapeListing)
	mux.HandleFunc("/scrape/detail", s.handleScrapeDetail)
	mux.HandleFunc("/scrape/text", s.handleScrapeText)
	mux.HandleFunc("/scrape/batch", s.handleScrapeBatch)
	mux.HandleFunc("/scrape/upload", s.handleScrapeUpload)
	return mux
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// POST /run  { "url": "https://..." }  (body optional)
func (s *server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var req urlReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if req.URL == "" {
		req.URL = s.sourceURL
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()
	res, err := s.p.Run(r.Context(), req.URL)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /articles  -> cached list snapshot, fresh or not
func (s *server) handleArticles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	snap, fresh := s.p.Lists().Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"articles":     snap.Articles,
		"last_updated": snap.LastUpdated,
		"fresh":        fresh,
	})
}

// GET /articles/detail?url=...  -> detail cache entry
func (s *server) handleCachedDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	key := r.URL.Query().Get("url")
	if key == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "url query parameter required"})
		return
	}
	rec, ok := s.p.Details().Lookup(key)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not cached"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func decodeURL(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return "", false
	}
	var req urlReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return "", false
	}
	return req.URL, true
}

// POST /scrape/listing  { "url": "https://..." }
func (s *server) handleScrapeListing(w http.ResponseWriter, r *http.Request) {
	u, ok := decodeURL(w, r)
	if !ok {
		return
	}
	recs, err := s.p.ScrapeListing(r.Context(), u)
	if err != nil {
		writeScrapeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// POST /scrape/detail  { "url": "https://..." }
func (s *server) handleScrapeDetail(w http.ResponseWriter, r *http.Request) {
	u, ok := decodeURL(w, r)
	if !ok {
		return
	}
	rec, err := s.p.ScrapeDetail(r.Context(), u)
	if err != nil {
		writeScrapeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// POST /scrape/text  { "url": "https://..." }
func (s *server) handleScrapeText(w http.ResponseWriter, r *http.Request) {
	u, ok := decodeURL(w, r)
	if !ok {
		return
	}
	lines, err := s.p.ScrapeText(r.Context(), u)
	if err != nil {
		writeScrapeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

// POST /scrape/batch  { "urls": ["https://...", "..."] }
func (s *server) handleScrapeBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var req batchReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.URLs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	writeJSON(w, http.StatusOK, s.p.ScrapeDetails(r.Context(), req.URLs))
}

// POST /scrape/upload (multipart file=...) -> NDJSON, one line per url
func (s *server) handleScrapeUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart parse error"})
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file part 'file' required"})
		return
	}
	defer f.Close()

	// copy to a temp file with the upload's extension so the format reader can
	// pick csv or ndjson
	tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(hdr.Filename))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "temp file error"})
		return
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, f); err != nil {
		tmp.Close()
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "copy error"})
		return
	}
	tmp.Close()

	urls, err := ioformats.ReadURLs(tmp.Name())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	results := s.p.ScrapeDetails(r.Context(), urls)
	w.Header().Set("Content-Type", "application/x-ndjson")
	if err := ioformats.WriteNDJSON(w, results); err != nil {
		s.log.Warn("server: write upload response", "err", err)
	}
}

func writeScrapeError(w http.ResponseWriter, err error) {
	code := http.StatusBadGateway
	if errors.Is(err, pipeline.ErrNoContent) {
		code = http.StatusUnprocessableEntity
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
