// Package backend is the HTTP client for the remote REST API the gateway
// fronts. The gateway holds no data of its own: every page is assembled from
// these calls and the normalize package.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// ErrNotConfigured is returned when no backend host is set; callers treat it
// the same as an unreachable endpoint.
var ErrNotConfigured = fmt.Errorf("backend host not configured")

type Options struct {
	Host        string
	APILocale   string
	AuthPrefix  string
	BooksPrefix string
}

type Client struct {
	host        string
	apiLocale   string
	authPrefix  string
	booksPrefix string
	http        *http.Client
	log         *log.Logger
}

func New(opts Options, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		host:        opts.Host,
		apiLocale:   opts.APILocale,
		authPrefix:  opts.AuthPrefix,
		booksPrefix: opts.BooksPrefix,
		http:        &http.Client{Timeout: 30 * time.Second},
		log:         logger.WithPrefix("backend"),
	}
}

// WithHTTPClient swaps the underlying HTTP client; tests use it to shorten
// timeouts.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

// base is the locale-scoped API root every non-auth call hangs off.
func (c *Client) base() string {
	if c.host == "" {
		return ""
	}
	if c.apiLocale == "" {
		return c.host
	}
	return c.host + "/" + c.apiLocale
}

func (c *Client) authPath(path string) string {
	return c.base() + c.authPrefix + path
}

func (c *Client) booksPath(path string) string {
	return c.base() + c.booksPrefix + path
}

// do performs one request and returns the body and status. A bearer token is
// attached when non-empty. Transport errors come back as errors; HTTP error
// statuses do not, so callers can branch on them.
func (c *Client) do(ctx context.Context, method, url string, body any, token string) ([]byte, int, error) {
	if c.host == "" {
		return nil, 0, ErrNotConfigured
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request %s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return payload, resp.StatusCode, nil
}

func (c *Client) get(ctx context.Context, url, token string) ([]byte, int, error) {
	return c.do(ctx, http.MethodGet, url, nil, token)
}

func statusOK(status int) bool {
	return status >= 200 && status < 300
}
