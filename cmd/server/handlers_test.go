
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsinlevels-crawler/internal/cache"
	"newsinlevels-crawler/internal/crawler"
	"newsinlevels-crawler/internal/models"
	"newsinlevels-crawler/internal/pipeline"
	"newsinlevels-crawler/internal/storage"
	"newsinlevels-crawler/pkg/logger"
)

func newTestSite(t *testing.T) *httptest.Server {
	t.Helper()
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprintf(w, `<html><body><div class="news-block"><div class="title"><a href="%[1]s/a/">A</a></div></div><div class="news-block"><div class="title"><a href="%[1]s/b/">B</a></div></div></body></html>`, ts.URL)
		case "/missing/":
			http.NotFound(w, r)
		default:
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprintf(w, `<html><body><h1 class="article-title">%s</h1><div id="nContent"><p>d</p><p>text</p><p>w</p><p>v</p></div></body></html>`, r.URL.Path)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newTestServer(t *testing.T, sourceURL string) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	lists, err := cache.NewListCache(ctx, storage.NewMemoryStore(nil), cache.WithLogger(logger.Discard()))
	require.NoError(t, err)
	details, err := cache.NewDetailCache(ctx, storage.NewMemoryStore(nil), cache.WithLogger(logger.Discard()))
	require.NoError(t, err)
	p := pipeline.New(crawler.NewHTTPClient(5*time.Second, time.Second, 1<<20), lists, details,
		pipeline.WithLogger(logger.Discard()))

	srv := httptest.NewServer(newServer(p, sourceURL, logger.Discard()).routes())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, "http://unused")
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestRunThenReadCaches(t *testing.T) {
	site := newTestSite(t)
	srv := newTestServer(t, site.URL+"/")

	resp, err := http.Get(srv.URL + "/run")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/run", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res pipeline.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Len(t, res.Articles, 2)
	assert.Equal(t, 2, res.DetailFetched)

	resp2, err := http.Get(srv.URL + "/articles")
	require.NoError(t, err)
	defer resp2.Body.Close()
	var list struct {
		Articles    []models.ListingRecord `json:"articles"`
		LastUpdated *models.Timestamp      `json:"last_updated"`
		Fresh       bool                   `json:"fresh"`
	}
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&list))
	assert.Len(t, list.Articles, 2)
	assert.NotNil(t, list.LastUpdated)
	assert.True(t, list.Fresh)

	resp3, err := http.Get(srv.URL + "/articles/detail?url=" + site.URL + "/a/")
	require.NoError(t, err)
	defer resp3.Body.Close()
	require.Equal(t, http.StatusOK, resp3.StatusCode)
	var rec models.DetailRecord
	require.NoError(t, json.NewDecoder(resp3.Body).Decode(&rec))
	assert.Equal(t, "/a/", rec.Title)
	assert.NotNil(t, rec.CachedAt)

	resp4, err := http.Get(srv.URL + "/articles/detail?url=" + site.URL + "/zzz/")
	require.NoError(t, err)
	resp4.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp4.StatusCode)
}

func TestRunWithExplicitURL(t *testing.T) {
	site := newTestSite(t)
	srv := newTestServer(t, "http://127.0.0.1:1/")

	resp := postJSON(t, srv.URL+"/run", map[string]string{"url": site.URL + "/"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res pipeline.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Len(t, res.Articles, 2)
}

func TestScrapeEndpoints(t *testing.T) {
	site := newTestSite(t)
	srv := newTestServer(t, site.URL+"/")

	resp := postJSON(t, srv.URL+"/scrape/detail", map[string]string{"url": site.URL + "/a/"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rec models.DetailRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	assert.Equal(t, "text", rec.Body)
	assert.Nil(t, rec.CachedAt, "scrape endpoints bypass the cache")

	resp = postJSON(t, srv.URL+"/scrape/detail", map[string]string{"url": site.URL + "/missing/"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/scrape/detail", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/scrape/listing", map[string]string{"url": site.URL + "/"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var recs []models.ListingRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&recs))
	assert.Len(t, recs, 2)

	resp = postJSON(t, srv.URL+"/scrape/text", map[string]string{"url": site.URL + "/b/"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var lines []string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&lines))
	assert.Equal(t, []string{"/b/", "d", "text", "w", "v"}, lines)

	resp = postJSON(t, srv.URL+"/scrape/batch", map[string][]string{"urls": {site.URL + "/a/", site.URL + "/missing/"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var batch []struct {
		URL    string               `json:"url"`
		Result *models.DetailRecord `json:"result"`
		Error  string               `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&batch))
	require.Len(t, batch, 2)
	assert.NotNil(t, batch[0].Result)
	assert.Empty(t, batch[0].Error)
	assert.Nil(t, batch[1].Result)
	assert.NotEmpty(t, batch[1].Error)
}

func TestScrapeUpload(t *testing.T) {
	site := newTestSite(t)
	srv := newTestServer(t, site.URL+"/")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "urls.csv")
	require.NoError(t, err)
	fmt.Fprintf(fw, "url\n%s/a/\n%s/b/\n", site.URL, site.URL)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/scrape/upload", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/x-ndjson", resp.Header.Get("Content-Type"))

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], site.URL+"/a/")
	assert.Contains(t, lines[1], site.URL+"/b/")
}
