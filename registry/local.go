package registry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// localRegistry serves the index layout from a directory, for file:// URLs.
type localRegistry struct {
	*index

	rootPath string
}

func newLocalRegistry(rawURL, rootPath string) *localRegistry {
	r := &localRegistry{rootPath: filepath.Clean(rootPath)}
	r.index = &index{url: rawURL, read: r.readFile}
	return r
}

func (r *localRegistry) readFile(ctx context.Context, rel string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := filepath.Join(r.rootPath, filepath.FromSlash(rel))
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &StatusError{StatusCode: http.StatusNotFound, URL: pathToFileURL(p)}
	}
	return data, err
}

// parseFileURL extracts the directory from a file:// URL.
//
//	file:///tmp/registry      -> /tmp/registry
//	file:///C:/Users/registry -> C:/Users/registry
func parseFileURL(url string) (string, error) {
	p, ok := strings.CutPrefix(url, "file://")
	if !ok {
		return "", fmt.Errorf("not a file:// URL: %s", url)
	}
	if p == "" {
		return "", fmt.Errorf("file URL has no path: %s", url)
	}
	if len(p) >= 3 && p[0] == '/' && isDriveLetter(p[1]) && p[2] == ':' {
		p = p[1:]
	}
	return filepath.Clean(p), nil
}

func isDriveLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// pathToFileURL converts a native path to a file:// URL.
func pathToFileURL(p string) string {
	slashed := filepath.ToSlash(p)
	if len(slashed) >= 2 && isDriveLetter(slashed[0]) && slashed[1] == ':' {
		slashed = "/" + slashed
	}
	return "file://" + slashed
}

var _ Registry = (*localRegistry)(nil)
