package registry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode"

	"golang.org/x/sync/singleflight"

	"github.com/albertocavalcante/go-bzlmod-lockcodec/label"
)

// Registry is a handle to a Bazel module registry.
// Handles are obtained from a Factory; they are never constructed ad hoc.
type Registry interface {
	// URL returns the URL the handle was created from, unchanged.
	URL() string

	// GetModuleFile fetches the raw MODULE.bazel content for a module version.
	GetModuleFile(ctx context.Context, key label.ModuleKey) ([]byte, error)

	// GetMetadata fetches a module's metadata.json.
	GetMetadata(ctx context.Context, moduleName string) (*Metadata, error)
}

// Factory resolves registry URLs into Registry handles.
type Factory interface {
	// RegistryWithURL returns the handle for url.
	// It fails with *URLError if url is not a valid registry URL.
	RegistryWithURL(url string) (Registry, error)
}

// URLError reports a registry URL that is syntactically invalid or uses an
// unsupported scheme.
type URLError struct {
	URL    string
	Reason string
	Err    error
}

func (e *URLError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid registry URL %q: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid registry URL %q: %s", e.URL, e.Reason)
}

func (e *URLError) Unwrap() error {
	return e.Err
}

// DefaultFactory is the standard Factory.
//
// http and https URLs resolve to index registries served over HTTP, file URLs
// resolve to local registries on disk. Handles are cached by URL, so the same
// URL always yields the same handle. Creating a handle performs no I/O.
//
// A DefaultFactory is safe for concurrent use.
type DefaultFactory struct {
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger

	handles sync.Map // map[string]Registry keyed by URL
	group   singleflight.Group
}

// FactoryOption configures a DefaultFactory.
type FactoryOption func(*DefaultFactory)

// WithFactoryHTTPClient sets the HTTP client shared by all remote registries.
func WithFactoryHTTPClient(client *http.Client) FactoryOption {
	return func(f *DefaultFactory) {
		f.httpClient = client
	}
}

// WithFactoryTimeout sets the request timeout for remote registries.
func WithFactoryTimeout(timeout time.Duration) FactoryOption {
	return func(f *DefaultFactory) {
		f.timeout = timeout
	}
}

// WithFactoryLogger sets a structured logger. If not set, logging is disabled.
func WithFactoryLogger(l *slog.Logger) FactoryOption {
	return func(f *DefaultFactory) {
		f.logger = l
	}
}

// NewFactory creates a DefaultFactory.
func NewFactory(opts ...FactoryOption) *DefaultFactory {
	f := &DefaultFactory{}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.New(discardHandler{})
	}
	return f
}

// RegistryWithURL returns the cached handle for rawURL, creating it on first use.
// Concurrent first requests for the same URL share one construction.
func (f *DefaultFactory) RegistryWithURL(rawURL string) (Registry, error) {
	if cached, ok := f.handles.Load(rawURL); ok {
		return cached.(Registry), nil
	}

	v, err, _ := f.group.Do(rawURL, func() (any, error) {
		if cached, ok := f.handles.Load(rawURL); ok {
			return cached, nil
		}
		reg, err := f.newRegistry(rawURL)
		if err != nil {
			return nil, err
		}
		f.handles.Store(rawURL, reg)
		f.logger.Debug("registry handle created", "url", rawURL)
		return reg, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Registry), nil
}

func (f *DefaultFactory) newRegistry(rawURL string) (Registry, error) {
	u, err := parseRegistryURL(rawURL)
	if err != nil {
		return nil, err
	}

	switch u.Scheme {
	case "http", "https":
		var opts []ClientOption
		if f.httpClient != nil {
			opts = append(opts, WithHTTPClient(f.httpClient))
		}
		if f.timeout > 0 {
			opts = append(opts, WithTimeout(f.timeout))
		}
		return NewClient(rawURL, opts...), nil
	case "file":
		path, err := parseFileURL(rawURL)
		if err != nil {
			return nil, &URLError{URL: rawURL, Reason: "malformed file URL", Err: err}
		}
		return newLocalRegistry(rawURL, path), nil
	default:
		return nil, &URLError{URL: rawURL, Reason: "unrecognized registry URL protocol"}
	}
}

// parseRegistryURL checks that rawURL is an absolute URI.
// net/url is lenient about spaces and control characters outside the host,
// so those are rejected up front.
func parseRegistryURL(rawURL string) (*url.URL, error) {
	if rawURL == "" {
		return nil, &URLError{URL: rawURL, Reason: "empty URL"}
	}
	if i := strings.IndexFunc(rawURL, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}); i >= 0 {
		return nil, &URLError{URL: rawURL, Reason: fmt.Sprintf("illegal character at index %d", i)}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &URLError{URL: rawURL, Reason: "malformed URL", Err: err}
	}
	if u.Scheme == "" {
		return nil, &URLError{URL: rawURL, Reason: "missing scheme"}
	}
	return u, nil
}

// discardHandler is a slog.Handler that discards all log records.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

var _ Factory = (*DefaultFactory)(nil)
