package codec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/albertocavalcante/go-bzlmod-lockcodec/label"
	"github.com/albertocavalcante/go-bzlmod-lockcodec/registry"
)

// VersionCodec encodes a label.Version as its canonical string.
var VersionCodec Codec[label.Version] = versionCodec{}

type versionCodec struct{}

func (versionCodec) Write(w *Writer, v label.Version) error {
	return w.String(v.String())
}

func (versionCodec) Read(r *Reader) (label.Version, error) {
	s, err := r.NextString()
	if err != nil {
		return label.Version{}, err
	}
	v, err := label.ParseVersion(s)
	if err != nil {
		return label.Version{}, &ParseError{
			Input: s,
			Msg:   fmt.Sprintf("Unable to parse Version %s from the lockfile", s),
			Err:   err,
		}
	}
	return v, nil
}

// ModuleKeyCodec encodes a label.ModuleKey as "<root>", "name@_" or
// "name@version".
var ModuleKeyCodec Codec[label.ModuleKey] = moduleKeyCodec{}

type moduleKeyCodec struct{}

func (moduleKeyCodec) Write(w *Writer, k label.ModuleKey) error {
	return w.String(k.String())
}

func (moduleKeyCodec) Read(r *Reader) (label.ModuleKey, error) {
	s, err := r.NextString()
	if err != nil {
		return label.ModuleKey{}, err
	}
	return ParseModuleKey(s)
}

// ParseModuleKey parses the string form written by ModuleKeyCodec. A string
// without '@' is a *SyntaxError; an invalid version is a *ParseError.
func ParseModuleKey(s string) (label.ModuleKey, error) {
	if s == label.RootToken {
		return label.RootModuleKey, nil
	}
	// module names never contain '@', so the first one is the delimiter
	name, versionPart, ok := strings.Cut(s, "@")
	if !ok {
		return label.ModuleKey{}, &SyntaxError{
			Msg:    fmt.Sprintf("module key %q has no '@' delimiter", s),
			Offset: -1,
		}
	}
	if versionPart == label.EmptyVersionToken {
		return label.NewModuleKey(name, label.EmptyVersion), nil
	}
	v, err := label.ParseVersion(versionPart)
	if err != nil {
		return label.ModuleKey{}, &ParseError{
			Input: s,
			Msg:   fmt.Sprintf("Unable to parse ModuleKey %s version from the lockfile", s),
			Err:   err,
		}
	}
	return label.NewModuleKey(name, v), nil
}

// ErrNoFactory is the cause of a registry reference read without a factory.
var ErrNoFactory = errors.New("codec: no registry factory")

// RegistryCodec returns a codec that encodes a registry handle as its URL
// and resolves URLs back to handles through f.
//
// Reading a URL that f rejects as malformed panics with a *FatalError.
// With a nil f every read fails with a *ParseError wrapping ErrNoFactory.
func RegistryCodec(f registry.Factory) Codec[registry.Registry] {
	return registryCodec{factory: f}
}

type registryCodec struct {
	factory registry.Factory
}

func (registryCodec) Write(w *Writer, reg registry.Registry) error {
	if reg == nil {
		return w.Null()
	}
	return w.String(reg.URL())
}

func (c registryCodec) Read(r *Reader) (registry.Registry, error) {
	s, err := r.NextString()
	if err != nil {
		return nil, err
	}
	if c.factory == nil {
		return nil, &ParseError{Input: s, Msg: fmt.Sprintf("Unable to resolve registry %s from the lockfile", s), Err: ErrNoFactory}
	}
	reg, err := c.factory.RegistryWithURL(s)
	if err != nil {
		var urlErr *registry.URLError
		if errors.As(err, &urlErr) {
			panic(&FatalError{Msg: "Lockfile registry URL is not valid", Err: err})
		}
		return nil, &ParseError{Input: s, Msg: fmt.Sprintf("Unable to resolve registry %s from the lockfile", s), Err: err}
	}
	return reg, nil
}
