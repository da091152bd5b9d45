package registry

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client configuration defaults.
const (
	DefaultMaxIdleConns        = 50
	DefaultMaxIdleConnsPerHost = 20
	DefaultIdleConnTimeout     = 90 * time.Second
	DefaultRequestTimeout      = 15 * time.Second
)

// Client is a Registry served over HTTP using the standard index layout.
type Client struct {
	*index

	baseURL string
	client  *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithTimeout sets the request timeout. Zero or negative values fall back
// to DefaultRequestTimeout. The configured HTTP client is copied, never
// modified.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout <= 0 {
			timeout = DefaultRequestTimeout
		}
		cp := *c.client
		cp.Timeout = timeout
		c.client = &cp
	}
}

// NewClient creates a client for the registry at rawURL. URL reports
// rawURL unchanged; requests go to rawURL without a trailing slash.
func NewClient(rawURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(rawURL, "/"),
		client: &http.Client{
			Timeout: DefaultRequestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        DefaultMaxIdleConns,
				MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
				IdleConnTimeout:     DefaultIdleConnTimeout,
			},
		},
	}
	c.index = &index{url: rawURL, read: c.get}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get fetches rel below the registry root.
func (c *Client) get(ctx context.Context, rel string) ([]byte, error) {
	url := c.baseURL + "/" + rel
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: url}
	}
	return io.ReadAll(resp.Body)
}

var _ Registry = (*Client)(nil)
