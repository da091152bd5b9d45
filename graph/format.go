package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/albertocavalcante/go-bzlmod-lockcodec/codec"
	"github.com/albertocavalcante/go-bzlmod-lockcodec/label"
)

const separatorWidth = 60

// ModGraph is the JSON shape of `bazel mod graph --output=json`.
type ModGraph struct {
	Key                  string          `json:"key"`
	Name                 string          `json:"name,omitempty"`
	Version              string          `json:"version,omitempty"`
	Dependencies         []ModDependency `json:"dependencies,omitempty"`
	IndirectDependencies []ModDependency `json:"indirectDependencies,omitempty"`
	Cycles               []ModDependency `json:"cycles,omitempty"`
	Root                 bool            `json:"root,omitempty"`
}

// ModDependency is a dependency entry in ModGraph.
type ModDependency struct {
	Key                  string          `json:"key"`
	Dependencies         []ModDependency `json:"dependencies,omitempty"`
	IndirectDependencies []ModDependency `json:"indirectDependencies,omitempty"`
	Cycles               []ModDependency `json:"cycles,omitempty"`
	Unexpanded           bool            `json:"unexpanded,omitempty"`
}

// ToJSON outputs the graph in the `bazel mod graph --output=json` format.
// Modules already printed elsewhere in the tree are marked unexpanded.
func (g *Graph) ToJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g.toModGraph()); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func (g *Graph) toModGraph() *ModGraph {
	root := g.Modules[g.Root]
	if root == nil {
		return &ModGraph{}
	}

	out := &ModGraph{
		Key:  g.Root.String(),
		Name: root.RepoName,
		Root: true,
	}
	if !g.Root.IsRoot() {
		out.Name = g.Root.Name
		out.Version = g.Root.Version.String()
	}
	expanded := map[label.ModuleKey]bool{g.Root: true}
	onPath := map[label.ModuleKey]bool{g.Root: true}
	out.Dependencies, out.Cycles = g.modDeps(root, expanded, onPath)
	return out
}

// modDeps renders node's edges. An edge back to a module on the current
// path goes into cycles; a module already expanded elsewhere is unexpanded.
func (g *Graph) modDeps(node *Node, expanded, onPath map[label.ModuleKey]bool) (deps, cycles []ModDependency) {
	for _, key := range node.Dependencies {
		dep := ModDependency{Key: key.String()}
		switch {
		case onPath[key]:
			cycles = append(cycles, dep)
			continue
		case expanded[key]:
			dep.Unexpanded = true
		default:
			expanded[key] = true
			if child := g.Modules[key]; child != nil {
				onPath[key] = true
				dep.Dependencies, dep.Cycles = g.modDeps(child, expanded, onPath)
				delete(onPath, key)
			}
		}
		deps = append(deps, dep)
	}
	return deps, cycles
}

// ParseModGraph decodes `bazel mod graph --output=json` output into a
// Graph. Edges come from dependencies, indirectDependencies and cycles;
// the dependencies of an unexpanded entry come from where it is expanded.
func ParseModGraph(data []byte) (*Graph, error) {
	var mg ModGraph
	if err := json.Unmarshal(data, &mg); err != nil {
		return nil, fmt.Errorf("failed to parse module graph: %w", err)
	}
	root, err := codec.ParseModuleKey(mg.Key)
	if err != nil {
		return nil, fmt.Errorf("module graph root: %w", err)
	}

	f := &flattener{edges: make(map[label.ModuleKey][]label.ModuleKey)}
	if err := f.visit(root, mg.Dependencies, mg.IndirectDependencies, mg.Cycles); err != nil {
		return nil, err
	}
	modules := make([]SimpleModule, len(f.order))
	for i, key := range f.order {
		modules[i] = SimpleModule{Key: key, Dependencies: f.edges[key]}
	}
	return Build(root, modules), nil
}

type flattener struct {
	order []label.ModuleKey
	edges map[label.ModuleKey][]label.ModuleKey
}

func (f *flattener) ensure(key label.ModuleKey) {
	if _, ok := f.edges[key]; !ok {
		f.order = append(f.order, key)
		f.edges[key] = []label.ModuleKey{}
	}
}

func (f *flattener) visit(key label.ModuleKey, deps, indirect, cycles []ModDependency) error {
	f.ensure(key)
	for _, group := range [][]ModDependency{deps, indirect, cycles} {
		for _, d := range group {
			dk, err := codec.ParseModuleKey(d.Key)
			if err != nil {
				return fmt.Errorf("module graph entry under %s: %w", key, err)
			}
			if !slices.Contains(f.edges[key], dk) {
				f.edges[key] = append(f.edges[key], dk)
			}
			if d.Unexpanded {
				f.ensure(dk)
				continue
			}
			if err := f.visit(dk, d.Dependencies, d.IndirectDependencies, d.Cycles); err != nil {
				return err
			}
		}
	}
	return nil
}

// ToDOT outputs the graph in Graphviz DOT format.
func (g *Graph) ToDOT() string {
	var buf bytes.Buffer

	buf.WriteString("digraph dependencies {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box];\n\n")

	for _, key := range g.order {
		attrs := fmt.Sprintf(`label=%q`, dotLabel(key))
		if key == g.Root {
			attrs += ", style=bold"
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", key.String(), attrs)
	}
	for _, d := range g.Dangling() {
		fmt.Fprintf(&buf, "  %q [label=%q, style=dashed, color=red];\n", d.To.String(), dotLabel(d.To))
	}

	buf.WriteString("\n")

	for _, key := range g.order {
		for _, dep := range g.Modules[key].Dependencies {
			fmt.Fprintf(&buf, "  %q -> %q;\n", key.String(), dep.String())
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func dotLabel(key label.ModuleKey) string {
	if key.IsRoot() {
		return key.String()
	}
	v := key.Version.String()
	if v == "" {
		v = label.EmptyVersionToken
	}
	return key.Name + "\n" + v
}

// ToText outputs a summary and a dependency tree rooted at the root module.
func (g *Graph) ToText() string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Dependency Graph (root: %s)\n", g.Root)
	buf.WriteString(strings.Repeat("=", separatorWidth) + "\n\n")

	stats := g.Stats()
	fmt.Fprintf(&buf, "Total modules: %d\n", stats.TotalModules)
	fmt.Fprintf(&buf, "Direct dependencies: %d\n", stats.DirectDependencies)
	fmt.Fprintf(&buf, "Transitive dependencies: %d\n", stats.TransitiveDependencies)
	fmt.Fprintf(&buf, "Max depth: %d\n", stats.MaxDepth)
	if stats.Unreachable > 0 {
		fmt.Fprintf(&buf, "Unreachable modules: %d\n", stats.Unreachable)
	}
	buf.WriteString("\n")

	buf.WriteString("Dependency Tree:\n")
	g.printTree(&buf, g.Root, "", true, make(map[label.ModuleKey]bool))
	return buf.String()
}

func (g *Graph) printTree(buf *bytes.Buffer, key label.ModuleKey, prefix string, isLast bool, onPath map[label.ModuleKey]bool) {
	connector := "├── "
	if isLast {
		connector = "└── "
	}
	if prefix == "" && key == g.Root {
		buf.WriteString(key.String())
	} else {
		buf.WriteString(prefix + connector + key.String())
	}

	node := g.Modules[key]
	switch {
	case node == nil:
		buf.WriteString(" (missing)\n")
		return
	case onPath[key]:
		buf.WriteString(" (circular)\n")
		return
	}
	buf.WriteString("\n")

	onPath[key] = true
	defer delete(onPath, key)

	for i, dep := range node.Dependencies {
		childPrefix := prefix
		if key != g.Root {
			if isLast {
				childPrefix += "    "
			} else {
				childPrefix += "│   "
			}
		}
		g.printTree(buf, dep, childPrefix, i == len(node.Dependencies)-1, onPath)
	}
}

// ToWhyText explains why the named module is in the graph by listing every
// chain from the root to it.
func (g *Graph) ToWhyText(moduleName string) (string, error) {
	chains, err := g.WhyIncluded(moduleName)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	versions := g.Versions(moduleName)
	names := make([]string, len(versions))
	for i, k := range versions {
		names[i] = k.String()
	}
	fmt.Fprintf(&buf, "Why %s is included:\n", strings.Join(names, ", "))
	buf.WriteString(strings.Repeat("=", separatorWidth) + "\n\n")

	if len(chains) == 0 {
		buf.WriteString("No path from the root; the module is unreachable.\n")
		return buf.String(), nil
	}
	for i, chain := range chains {
		fmt.Fprintf(&buf, "  %d. %s\n", i+1, chain)
	}
	if dependents := g.directDependentsOf(versions); len(dependents) > 0 {
		fmt.Fprintf(&buf, "\nRequired directly by: %s\n", strings.Join(dependents, ", "))
	}
	return buf.String(), nil
}

func (g *Graph) directDependentsOf(keys []label.ModuleKey) []string {
	var out []string
	seen := make(map[label.ModuleKey]bool)
	for _, key := range keys {
		for _, d := range g.DirectDependents(key) {
			if !seen[d] {
				seen[d] = true
				out = append(out, d.String())
			}
		}
	}
	return out
}
