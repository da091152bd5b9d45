package lockfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/albertocavalcante/go-bzlmod-lockcodec/codec"
	"github.com/albertocavalcante/go-bzlmod-lockcodec/registry"
)

// lockfilePermissions is the file permission mode for lockfiles.
// Using 0600 for security (owner read/write only).
const lockfilePermissions = 0o600

// DefaultFileName is the name of the lockfile next to MODULE.bazel.
const DefaultFileName = "MODULE.bazel.lock"

// ErrNilFactory is returned by Parse and ReadFile when no registry factory
// is given.
var ErrNilFactory = errors.New("lockfile: registry factory is nil")

// Option configures reading and building lockfiles.
type Option func(*options)

type options struct {
	logger *slog.Logger
	flags  *Flags
}

// WithLogger sets the logger for debug output. Nil is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithFlags sets the flags recorded by FromModuleFile.
func WithFlags(flags Flags) Option {
	return func(o *options) {
		o.flags = &flags
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.New(discardHandler{})}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ReadFile reads and parses a lockfile from the given path. Registry
// references are resolved through factory.
func ReadFile(path string, factory registry.Factory, opts ...Option) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lockfile: %w", err)
	}
	return Parse(data, factory, opts...)
}

// Parse parses lockfile JSON data. Registry references are resolved through
// factory.
//
// A registry URL that factory rejects as malformed panics with a
// *codec.FatalError; use codec.Recover to turn it into an error.
// A nil factory is rejected with ErrNilFactory.
func Parse(data []byte, factory registry.Factory, opts ...Option) (*Lockfile, error) {
	if factory == nil {
		return nil, ErrNilFactory
	}
	o := buildOptions(opts)

	lf, err := codec.Unmarshal[Lockfile](CodecRegistry(factory), data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse lockfile: %w", err)
	}

	o.logger.Debug("parsed lockfile",
		"version", lf.Version,
		"modules", lf.ModuleDepGraph.Len(),
		"bytes", len(data))
	return &lf, nil
}

// Marshal serializes the lockfile as two-space indented JSON with a trailing
// newline. Members appear in a fixed order and maps keep their order, so
// the output is deterministic.
func (l *Lockfile) Marshal() ([]byte, error) {
	compact, err := codec.Marshal(encodeRegistry(), *l)
	if err != nil {
		return nil, fmt.Errorf("failed to encode lockfile: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// WriteFile writes the lockfile to the given path with deterministic formatting.
func (l *Lockfile) WriteFile(path string) error {
	data, err := l.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, lockfilePermissions)
}

// WriteTo writes the lockfile to the given writer.
func (l *Lockfile) WriteTo(w io.Writer) (int64, error) {
	data, err := l.Marshal()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// Exists returns true if a lockfile exists at the given path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// DefaultPath returns the default lockfile path relative to a workspace root.
func DefaultPath(workspaceRoot string) string {
	if workspaceRoot == "" {
		return DefaultFileName
	}
	return filepath.Join(workspaceRoot, DefaultFileName)
}

// discardHandler is a slog.Handler that discards all log records.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
