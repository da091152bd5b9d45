package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/albertocavalcante/go-bzlmod-lockcodec/label"
)

func TestNewClient_URL(t *testing.T) {
	tests := []struct {
		input    string
		wantBase string
	}{
		{"https://bcr.bazel.build", "https://bcr.bazel.build"},
		{"https://bcr.bazel.build/", "https://bcr.bazel.build"},
		{"http://localhost:8080/", "http://localhost:8080"},
	}

	for _, tt := range tests {
		c := NewClient(tt.input)
		if c.URL() != tt.input {
			t.Errorf("NewClient(%q).URL() = %q, want %q", tt.input, c.URL(), tt.input)
		}
		if c.baseURL != tt.wantBase {
			t.Errorf("NewClient(%q).baseURL = %q, want %q", tt.input, c.baseURL, tt.wantBase)
		}
	}
}

func TestNewClient_WithHTTPClient(t *testing.T) {
	customClient := &http.Client{Timeout: 5 * time.Second}
	c := NewClient("https://example.com", WithHTTPClient(customClient))

	if c.client != customClient {
		t.Error("Client should use custom HTTP client")
	}
}

func TestNewClient_WithTimeout(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		want    time.Duration
	}{
		{"custom", 3 * time.Second, 3 * time.Second},
		{"zero falls back", 0, DefaultRequestTimeout},
		{"negative falls back", -time.Second, DefaultRequestTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient("https://example.com", WithTimeout(tt.timeout))
			if c.client.Timeout != tt.want {
				t.Errorf("Timeout = %v, want %v", c.client.Timeout, tt.want)
			}
		})
	}
}

func TestNewClient_WithTimeoutDoesNotModifySharedClient(t *testing.T) {
	shared := &http.Client{Timeout: 5 * time.Second}
	c := NewClient("https://example.com", WithHTTPClient(shared), WithTimeout(time.Second))

	if shared.Timeout != 5*time.Second {
		t.Errorf("shared client timeout = %v, want 5s", shared.Timeout)
	}
	if c.client.Timeout != time.Second {
		t.Errorf("client timeout = %v, want 1s", c.client.Timeout)
	}
}

func TestGetMetadata_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/modules/test_module/metadata.json" {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{
				"versions": ["1.0.0", "1.1.0"],
				"yanked_versions": {"0.9.0": "deprecated"}
			}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewClient(server.URL)

	metadata, err := c.GetMetadata(context.Background(), "test_module")
	if err != nil {
		t.Fatalf("GetMetadata failed: %v", err)
	}
	if len(metadata.Versions) != 2 {
		t.Errorf("Expected 2 versions, got %d", len(metadata.Versions))
	}
	if reason, ok := metadata.Yanked(label.MustParseVersion("0.9.0")); !ok || reason != "deprecated" {
		t.Errorf("Yanked(0.9.0) = (%q, %v), want (deprecated, true)", reason, ok)
	}
}

func TestGetMetadata_Caching(t *testing.T) {
	callCount := int32(0)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&callCount, 1)
		fmt.Fprint(w, `{"versions": ["1.0.0"]}`)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	ctx := context.Background()

	for range 2 {
		if _, err := c.GetMetadata(ctx, "cached_module"); err != nil {
			t.Fatalf("GetMetadata failed: %v", err)
		}
	}

	if atomic.LoadInt32(&callCount) != 1 {
		t.Errorf("Expected 1 HTTP call (cached), got %d", callCount)
	}
}

func TestGetMetadata_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{not json`)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	if _, err := c.GetMetadata(context.Background(), "broken"); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

func TestGetModuleFile_Success(t *testing.T) {
	expectedContent := `module(name = "test", version = "1.0.0")`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/modules/test/1.0.0/MODULE.bazel" {
			fmt.Fprint(w, expectedContent)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewClient(server.URL + "/")
	key := label.NewModuleKey("test", label.MustParseVersion("1.0.0"))

	content, err := c.GetModuleFile(context.Background(), key)
	if err != nil {
		t.Fatalf("GetModuleFile failed: %v", err)
	}
	if string(content) != expectedContent {
		t.Errorf("Content = %q, want %q", string(content), expectedContent)
	}
}

func TestGetModuleFile_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	key := label.NewModuleKey("nonexistent", label.MustParseVersion("1.0.0"))

	_, err := c.GetModuleFile(context.Background(), key)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("GetModuleFile error = %v, want *StatusError", err)
	}
	if !statusErr.IsNotFound() {
		t.Errorf("StatusCode = %d, want 404", statusErr.StatusCode)
	}
}

func TestGetModuleFile_EmptyVersion(t *testing.T) {
	c := NewClient("https://example.com")
	_, err := c.GetModuleFile(context.Background(), label.NewModuleKey("foo", label.EmptyVersion))
	if !errors.Is(err, errNoVersion) {
		t.Errorf("GetModuleFile(foo@_) error = %v, want errNoVersion", err)
	}
}

func TestGetMetadata_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"versions": []}`)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.GetMetadata(ctx, "any"); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

func TestConcurrentAccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"versions": ["1.0.0"]}`)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := c.GetMetadata(ctx, fmt.Sprintf("module_%d", i%5)); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent GetMetadata failed: %v", err)
	}
}
