package graph

import (
	"github.com/albertocavalcante/go-bzlmod-lockcodec/label"
	"github.com/albertocavalcante/go-bzlmod-lockcodec/lockfile"
)

// FromLockfile builds a graph from the lockfile's moduleDepGraph. Edges
// come from each module's deps; edges to keys without a node are kept and
// reported by Dangling.
func FromLockfile(lf *lockfile.Lockfile) *Graph {
	g := newGraph(label.RootModuleKey, lf.ModuleCount())
	for key, m := range lf.ModuleDepGraph.All() {
		node := &Node{
			Key:       key,
			RepoName:  m.RepoName,
			Registry:  m.RegistryURL(),
			RepoNames: make(map[label.ModuleKey]string, m.Deps.Len()),
		}
		for repo, dep := range m.Deps.All() {
			if _, seen := node.RepoNames[dep]; !seen {
				node.Dependencies = append(node.Dependencies, dep)
			}
			node.RepoNames[dep] = repo
		}
		g.add(node)
	}
	if _, ok := g.Modules[label.RootModuleKey]; !ok && len(g.order) > 0 {
		g.Root = g.order[0]
	}
	g.link()
	return g
}

// SimpleModule is a module with its direct dependencies, for building a
// graph without a lockfile.
type SimpleModule struct {
	Key          label.ModuleKey
	Dependencies []label.ModuleKey
}

// Build creates a graph from a flat list of modules.
func Build(root label.ModuleKey, modules []SimpleModule) *Graph {
	g := newGraph(root, len(modules))
	for _, m := range modules {
		node := &Node{
			Key:          m.Key,
			RepoName:     m.Key.Name,
			Dependencies: m.Dependencies,
			RepoNames:    make(map[label.ModuleKey]string, len(m.Dependencies)),
		}
		for _, dep := range m.Dependencies {
			node.RepoNames[dep] = dep.Name
		}
		g.add(node)
	}
	g.link()
	return g
}

func newGraph(root label.ModuleKey, size int) *Graph {
	return &Graph{
		Root:    root,
		Modules: make(map[label.ModuleKey]*Node, size),
		order:   make([]label.ModuleKey, 0, size),
	}
}

func (g *Graph) add(n *Node) {
	if _, dup := g.Modules[n.Key]; !dup {
		g.order = append(g.order, n.Key)
	}
	g.Modules[n.Key] = n
}

// link fills in the reverse edges.
func (g *Graph) link() {
	for _, key := range g.order {
		for _, dep := range g.Modules[key].Dependencies {
			if target := g.Modules[dep]; target != nil {
				target.Dependents = append(target.Dependents, key)
			}
		}
	}
}
