// Package label provides strongly-typed, validated identity components for
// Bazel modules.
//
// All types in this package are immutable. Use the constructor functions
// (NewModule, ParseVersion, NewModuleKey) to create valid instances.
//
// # Types
//
//   - [Module]: A validated module name (e.g., "rules_go")
//   - [Version]: A Bazel module version (e.g., "0.50.1", "1.0.0-rc1")
//   - [ModuleKey]: The (name, version) identity of a module in a dependency graph
//   - [ApparentRepo]: A repository name as it appears in labels
//
// # Validation Patterns
//
// Module names must match: [a-z]([a-z0-9._-]*[a-z0-9])?
// Repository names must match: [a-zA-Z][a-zA-Z0-9._-]*
package label

import (
	"fmt"
	"regexp"
)

// Module represents a validated Bazel module name.
// Module names must match: [a-z]([a-z0-9._-]*[a-z0-9])?
// In particular a module name never contains '@'.
type Module struct {
	name string
}

var moduleNameRegex = regexp.MustCompile(`^[a-z]([a-z0-9._-]*[a-z0-9])?$`)

// NewModule creates a validated Module from a string.
func NewModule(name string) (Module, error) {
	if name == "" {
		return Module{}, fmt.Errorf("module name cannot be empty")
	}
	if !moduleNameRegex.MatchString(name) {
		return Module{}, fmt.Errorf("invalid module name %q: must match pattern [a-z]([a-z0-9._-]*[a-z0-9])?", name)
	}
	return Module{name: name}, nil
}

// MustModule creates a Module or panics. Use only for constants/tests.
func MustModule(name string) Module {
	m, err := NewModule(name)
	if err != nil {
		panic(err)
	}
	return m
}

// String returns the module name string.
func (m Module) String() string {
	return m.name
}

// IsEmpty returns true if this is a zero-value Module.
func (m Module) IsEmpty() bool {
	return m.name == ""
}

// Tokens used in the textual form of a ModuleKey.
const (
	// RootToken is the textual form of RootModuleKey.
	RootToken = "<root>"

	// EmptyVersionToken stands in for EmptyVersion in "name@_".
	EmptyVersionToken = "_"
)

// ModuleKey uniquely identifies a module in the dependency graph.
// It is comparable and may be used as a map key.
type ModuleKey struct {
	Name    string
	Version Version
}

// RootModuleKey is the distinguished key of the root module.
var RootModuleKey = ModuleKey{}

// NewModuleKey creates a ModuleKey.
func NewModuleKey(name string, version Version) ModuleKey {
	return ModuleKey{Name: name, Version: version}
}

// IsRoot reports whether k is RootModuleKey.
func (k ModuleKey) IsRoot() bool {
	return k == RootModuleKey
}

// String returns "<root>" for the root module, "name@_" if the version is
// empty, and "name@version" otherwise.
func (k ModuleKey) String() string {
	if k.IsRoot() {
		return RootToken
	}
	if k.Version.IsEmpty() {
		return k.Name + "@" + EmptyVersionToken
	}
	return k.Name + "@" + k.Version.String()
}

// Compare orders keys by name, then by version.
func (k ModuleKey) Compare(other ModuleKey) int {
	if k.Name != other.Name {
		if k.Name < other.Name {
			return -1
		}
		return 1
	}
	return k.Version.Compare(other.Version)
}

// ApparentRepo represents a repository name as it appears in the current context.
// This is the name used in labels like @repo_name//pkg:target.
type ApparentRepo struct {
	name string
}

var apparentRepoRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9._-]*$`)

// NewApparentRepo creates a validated ApparentRepo.
func NewApparentRepo(name string) (ApparentRepo, error) {
	if name == "" {
		return ApparentRepo{}, nil // Empty is valid (means use module name)
	}
	if !apparentRepoRegex.MatchString(name) {
		return ApparentRepo{}, fmt.Errorf("invalid repo name %q", name)
	}
	return ApparentRepo{name: name}, nil
}

// String returns the repo name or empty string.
func (r ApparentRepo) String() string {
	return r.name
}

// IsEmpty returns true if no custom repo name is set.
func (r ApparentRepo) IsEmpty() bool {
	return r.name == ""
}
