package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	// DefaultTimeout bounds a single fetch including body download.
	DefaultTimeout = 10 * time.Second

	maxRedirects = 5
	userAgent    = "linkfeed/0.1.0 (+https://github.com/linkfeed/linkfeed)"
)

// Result is the outcome of a successful fetch.
type Result struct {
	Body          []byte
	URL           string // final URL after redirects
	ContentType   string
	ContentLength int64 // -1 when the server sent no Content-Length
	StatusCode    int
}

// Client is an HTTP fetcher with a timeout, a redirect cap and a stable
// User-Agent. Safe for concurrent use.
type Client struct {
	http *http.Client
}

// NewClient builds a fetcher. A non-positive timeout falls back to
// DefaultTimeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
	}
}

// Fetch downloads a URL. Non-2xx responses are errors.
func (c *Client) Fetch(ctx context.Context, url string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", url, err)
	}

	length := int64(-1)
	if raw := resp.Header.Get("Content-Length"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			length = parsed
		}
	}

	return &Result{
		Body:          body,
		URL:           resp.Request.URL.String(),
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: length,
		StatusCode:    resp.StatusCode,
	}, nil
}
