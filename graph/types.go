package graph

import (
	"fmt"
	"strings"

	"github.com/albertocavalcante/go-bzlmod-lockcodec/label"
)

// Graph is a module dependency graph. It supports traversal in both
// directions.
type Graph struct {
	// Root is the root module of the graph.
	Root label.ModuleKey

	// Modules contains all nodes in the graph, keyed by module key.
	Modules map[label.ModuleKey]*Node

	// order is the lockfile order of Modules, used for deterministic output.
	order []label.ModuleKey
}

// Node is a module in the dependency graph.
type Node struct {
	// Key uniquely identifies this module.
	Key label.ModuleKey

	// RepoName is the name the module gives its own repository.
	RepoName string

	// Registry is the URL the module was fetched from, if any.
	Registry string

	// Dependencies are the direct dependencies of this module, in the order
	// the lockfile lists them.
	Dependencies []label.ModuleKey

	// RepoNames maps each dependency to the repository name this module
	// sees it under.
	RepoNames map[label.ModuleKey]string

	// Dependents are modules that directly depend on this one.
	Dependents []label.ModuleKey
}

// DanglingDep is a dependency edge whose target has no node in the graph.
type DanglingDep struct {
	From     label.ModuleKey
	RepoName string
	To       label.ModuleKey
}

func (d DanglingDep) String() string {
	return fmt.Sprintf("%s -> %s (as %q)", d.From, d.To, d.RepoName)
}

// DependencyChain is a path of dependencies from the root to a module.
type DependencyChain struct {
	Path []label.ModuleKey
}

// String returns the chain as "a -> b -> c".
func (c DependencyChain) String() string {
	parts := make([]string, len(c.Path))
	for i, k := range c.Path {
		parts[i] = k.String()
	}
	return strings.Join(parts, " -> ")
}

// Stats summarizes a graph.
type Stats struct {
	// TotalModules is the number of modules in the graph, root included.
	TotalModules int

	// DirectDependencies is the number of direct dependencies of the root.
	DirectDependencies int

	// TransitiveDependencies counts reachable modules that are not direct
	// dependencies of the root.
	TransitiveDependencies int

	// Unreachable counts modules no path from the root leads to.
	Unreachable int

	// MaxDepth is the length of the longest acyclic path from the root.
	MaxDepth int
}
