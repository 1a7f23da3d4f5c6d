
package crawler

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go"
)

// DefaultUserAgent is a desktop Chrome string; the site serves bots a
// different page.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// ErrNonHTML is returned when the response declares a non-HTML media type.
var ErrNonHTML = errors.New("non-html content")

// StatusError reports a response outside the 2xx/3xx range.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d for %s", e.Code, e.URL)
}

type HTTPClient struct {
	client        *http.Client
	sizeCap       int64
	userAgent     string
	retryAttempts uint
	retryDelay    time.Duration
}

type Option func(*HTTPClient)

func WithUserAgent(ua string) Option {
	return func(h *HTTPClient) {
		if ua != "" {
			h.userAgent = ua
		}
	}
}

// WithRetry retries transport errors, 429 and 5xx responses up to attempts
// extra times with exponential backoff starting at delay.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(h *HTTPClient) {
		h.retryAttempts = attempts
		h.retryDelay = delay
	}
}

func NewHTTPClient(timeout, dialTimeout time.Duration, sizeCap int64, opts ...Option) *HTTPClient {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	h := &HTTPClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		sizeCap:    sizeCap,
		userAgent:  DefaultUserAgent,
		retryDelay: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Fetch downloads rawURL and returns the (size capped) body, the final URL
// after redirects, the Content-Type and the total time spent including
// retries. The caller must close the body.
func (h *HTTPClient) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, string, string, time.Duration, error) {
	start := time.Now()
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, "", "", 0, fmt.Errorf("invalid url %q", rawURL)
	}

	var (
		body        io.ReadCloser
		finalURL    string
		contentType string
	)
	err = retry.Do(
		func() error {
			b, f, ct, err := h.fetchOnce(ctx, u)
			if err != nil {
				if !isRetryable(ctx, err) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			body, finalURL, contentType = b, f, ct
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(h.retryAttempts+1),
		retry.Delay(h.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, "", "", 0, err
	}
	return body, finalURL, contentType, time.Since(start), nil
}

func (h *HTTPClient) fetchOnce(ctx context.Context, u *url.URL) (io.ReadCloser, string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", "", err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, "", "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, "", "", &StatusError{Code: resp.StatusCode, URL: u.String()}
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if !strings.Contains(mediaType, "text/html") && !strings.Contains(mediaType, "application/xhtml+xml") && mediaType != "" {
		// servers that omit the header are let through
		resp.Body.Close()
		return nil, "", "", ErrNonHTML
	}

	var body io.Reader = resp.Body
	closer := io.Closer(resp.Body)
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, "", "", err
		}
		body = gz
		closer = multiCloser{gz, resp.Body}
	}

	// enforce a size cap
	r := io.LimitReader(body, h.sizeCap)
	return readCloser{Reader: r, Closer: closer}, resp.Request.URL.String(), contentType, nil
}

func isRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, ErrNonHTML) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return true
}

type readCloser struct {
	io.Reader
	io.Closer
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error
	for _, c := range m {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
