package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"sync"

	"github.com/albertocavalcante/go-bzlmod-lockcodec/label"
)

// errNoVersion is returned for module files of keys without a version;
// registries only serve concrete versions.
var errNoVersion = errors.New("module key has no version")

// index serves the registry file layout on top of a raw reader:
//
//	modules/{name}/metadata.json
//	modules/{name}/{version}/MODULE.bazel
//
// Paths handed to read are slash-separated and relative to the registry root.
type index struct {
	url  string
	read func(ctx context.Context, rel string) ([]byte, error)

	metadata sync.Map // map[string]*Metadata keyed by module name
}

// URL returns the URL the registry was created from, unchanged.
func (ix *index) URL() string {
	return ix.url
}

// GetModuleFile returns the MODULE.bazel the registry stores for key.
func (ix *index) GetModuleFile(ctx context.Context, key label.ModuleKey) ([]byte, error) {
	if key.Version.IsEmpty() {
		return nil, fmt.Errorf("module file for %s: %w", key, errNoVersion)
	}
	data, err := ix.read(ctx, path.Join("modules", key.Name, key.Version.String(), "MODULE.bazel"))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch module file for %s: %w", key, err)
	}
	return data, nil
}

// GetMetadata returns the module's metadata.json. Successful results are
// cached per module name for the life of the handle.
func (ix *index) GetMetadata(ctx context.Context, moduleName string) (*Metadata, error) {
	if cached, ok := ix.metadata.Load(moduleName); ok {
		return cached.(*Metadata), nil
	}

	data, err := ix.read(ctx, path.Join("modules", moduleName, "metadata.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metadata for %s: %w", moduleName, err)
	}
	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("failed to parse metadata for %s: %w", moduleName, err)
	}

	actual, _ := ix.metadata.LoadOrStore(moduleName, &md)
	return actual.(*Metadata), nil
}

// StatusError is returned when a registry does not answer with the file:
// a non-200 HTTP status, or 404 for a file missing from a local registry.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.URL)
}

// IsNotFound reports whether the registry does not have the requested file.
func (e *StatusError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}
