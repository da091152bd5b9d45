package graph

import (
	"fmt"
	"slices"

	"github.com/albertocavalcante/go-bzlmod-lockcodec/label"
)

// Get returns the node for a module key, or nil if not found.
func (g *Graph) Get(key label.ModuleKey) *Node {
	return g.Modules[key]
}

// Keys returns the module keys in lockfile order.
func (g *Graph) Keys() []label.ModuleKey {
	return slices.Clone(g.order)
}

// Versions returns the keys of every module named name, lowest version
// first.
func (g *Graph) Versions(name string) []label.ModuleKey {
	var keys []label.ModuleKey
	for _, key := range g.order {
		if key.Name == name {
			keys = append(keys, key)
		}
	}
	slices.SortFunc(keys, label.ModuleKey.Compare)
	return keys
}

// GetByName returns the node for the highest version of the named module,
// or nil if the graph has none.
func (g *Graph) GetByName(name string) *Node {
	keys := g.Versions(name)
	if len(keys) == 0 {
		return nil
	}
	return g.Modules[keys[len(keys)-1]]
}

// Contains returns true if the graph contains the given module.
func (g *Graph) Contains(key label.ModuleKey) bool {
	_, ok := g.Modules[key]
	return ok
}

// ContainsName returns true if the graph contains a module with the given name.
func (g *Graph) ContainsName(name string) bool {
	return g.GetByName(name) != nil
}

// DirectDeps returns the direct dependencies of a module.
func (g *Graph) DirectDeps(key label.ModuleKey) []label.ModuleKey {
	if node := g.Modules[key]; node != nil {
		return node.Dependencies
	}
	return nil
}

// DirectDependents returns modules that directly depend on the given module.
func (g *Graph) DirectDependents(key label.ModuleKey) []label.ModuleKey {
	if node := g.Modules[key]; node != nil {
		return node.Dependents
	}
	return nil
}

// TransitiveDeps returns all transitive dependencies of a module in
// breadth-first order.
func (g *Graph) TransitiveDeps(key label.ModuleKey) []label.ModuleKey {
	return g.walk(key, func(n *Node) []label.ModuleKey { return n.Dependencies })
}

// TransitiveDependents returns all modules that transitively depend on the
// given module, closest first.
func (g *Graph) TransitiveDependents(key label.ModuleKey) []label.ModuleKey {
	return g.walk(key, func(n *Node) []label.ModuleKey { return n.Dependents })
}

func (g *Graph) walk(start label.ModuleKey, next func(*Node) []label.ModuleKey) []label.ModuleKey {
	result := make([]label.ModuleKey, 0)
	visited := map[label.ModuleKey]bool{start: true}

	queue := []label.ModuleKey{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		node := g.Modules[current]
		if node == nil {
			continue
		}
		for _, k := range next(node) {
			if !visited[k] {
				visited[k] = true
				result = append(result, k)
				queue = append(queue, k)
			}
		}
	}
	return result
}

// Path finds the shortest dependency path from one module to another.
// Returns nil if no path exists.
func (g *Graph) Path(from, to label.ModuleKey) []label.ModuleKey {
	if from == to {
		return []label.ModuleKey{from}
	}

	type queueItem struct {
		key  label.ModuleKey
		path []label.ModuleKey
	}

	visited := map[label.ModuleKey]bool{from: true}
	queue := []queueItem{{key: from, path: []label.ModuleKey{from}}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		node := g.Modules[current.key]
		if node == nil {
			continue
		}
		for _, dep := range node.Dependencies {
			if visited[dep] {
				continue
			}
			visited[dep] = true
			path := append(slices.Clip(current.path), dep)
			if dep == to {
				return path
			}
			queue = append(queue, queueItem{key: dep, path: path})
		}
	}
	return nil
}

// AllPaths finds all acyclic dependency paths from one module to another.
// This can be expensive for large graphs with many paths.
func (g *Graph) AllPaths(from, to label.ModuleKey) [][]label.ModuleKey {
	var result [][]label.ModuleKey
	g.findAllPaths(from, to, []label.ModuleKey{from}, make(map[label.ModuleKey]bool), &result)
	return result
}

func (g *Graph) findAllPaths(current, target label.ModuleKey, path []label.ModuleKey, visited map[label.ModuleKey]bool, result *[][]label.ModuleKey) {
	if current == target {
		*result = append(*result, slices.Clone(path))
		return
	}

	visited[current] = true
	defer func() { visited[current] = false }()

	node := g.Modules[current]
	if node == nil {
		return
	}
	for _, dep := range node.Dependencies {
		if !visited[dep] {
			g.findAllPaths(dep, target, append(path, dep), visited, result)
		}
	}
}

// WhyIncluded returns every dependency chain from the root to any version
// of the named module.
func (g *Graph) WhyIncluded(moduleName string) ([]DependencyChain, error) {
	keys := g.Versions(moduleName)
	if len(keys) == 0 {
		return nil, fmt.Errorf("module %q not found in graph", moduleName)
	}

	var chains []DependencyChain
	for _, key := range keys {
		for _, path := range g.AllPaths(g.Root, key) {
			chains = append(chains, DependencyChain{Path: path})
		}
	}
	return chains, nil
}

// Dangling returns the edges whose target module is missing from the graph.
func (g *Graph) Dangling() []DanglingDep {
	var out []DanglingDep
	for _, key := range g.order {
		node := g.Modules[key]
		for _, dep := range node.Dependencies {
			if _, ok := g.Modules[dep]; !ok {
				out = append(out, DanglingDep{From: key, RepoName: node.RepoNames[dep], To: dep})
			}
		}
	}
	return out
}

// Unreachable returns modules that cannot be reached from the root, in
// lockfile order.
func (g *Graph) Unreachable() []label.ModuleKey {
	if _, ok := g.Modules[g.Root]; !ok {
		return nil
	}
	reachable := map[label.ModuleKey]bool{g.Root: true}
	for _, k := range g.TransitiveDeps(g.Root) {
		reachable[k] = true
	}
	var out []label.ModuleKey
	for _, key := range g.order {
		if !reachable[key] {
			out = append(out, key)
		}
	}
	return out
}

// Stats returns statistics about the graph.
func (g *Graph) Stats() Stats {
	stats := Stats{TotalModules: len(g.Modules)}

	root := g.Modules[g.Root]
	if root == nil {
		return stats
	}
	for _, dep := range root.Dependencies {
		if g.Contains(dep) {
			stats.DirectDependencies++
		}
	}

	reachable := 0
	for _, k := range g.TransitiveDeps(g.Root) {
		if g.Contains(k) {
			reachable++
		}
	}
	stats.TransitiveDependencies = reachable - stats.DirectDependencies
	stats.Unreachable = stats.TotalModules - reachable - 1
	stats.MaxDepth = g.calculateMaxDepth()
	return stats
}

func (g *Graph) calculateMaxDepth() int {
	depths := make(map[label.ModuleKey]int)
	onPath := make(map[label.ModuleKey]bool)
	var maxDepth int

	var dfs func(key label.ModuleKey, depth int)
	dfs = func(key label.ModuleKey, depth int) {
		// a node already on the current path closes a cycle
		if onPath[key] {
			return
		}
		node := g.Modules[key]
		if node == nil {
			return
		}
		if existing, ok := depths[key]; ok && existing >= depth {
			return
		}
		depths[key] = depth
		maxDepth = max(maxDepth, depth)

		onPath[key] = true
		for _, dep := range node.Dependencies {
			dfs(dep, depth+1)
		}
		delete(onPath, key)
	}

	dfs(g.Root, 0)
	return maxDepth
}

// Leaves returns all modules without dependencies, in lockfile order.
func (g *Graph) Leaves() []label.ModuleKey {
	var leaves []label.ModuleKey
	for _, key := range g.order {
		if len(g.Modules[key].Dependencies) == 0 {
			leaves = append(leaves, key)
		}
	}
	return leaves
}

// HasCycles returns true if the graph contains cycles.
func (g *Graph) HasCycles() bool {
	return len(g.FindCycles()) > 0
}

// FindCycles returns the cycles in the graph. Each cycle starts at the
// first of its modules reached in lockfile order.
func (g *Graph) FindCycles() [][]label.ModuleKey {
	var cycles [][]label.ModuleKey
	visited := make(map[label.ModuleKey]bool)
	onStack := make(map[label.ModuleKey]bool)
	path := make([]label.ModuleKey, 0)

	var visit func(key label.ModuleKey)
	visit = func(key label.ModuleKey) {
		visited[key] = true
		onStack[key] = true
		path = append(path, key)

		if node := g.Modules[key]; node != nil {
			for _, dep := range node.Dependencies {
				switch {
				case !visited[dep]:
					visit(dep)
				case onStack[dep]:
					start := slices.Index(path, dep)
					cycles = append(cycles, slices.Clone(path[start:]))
				}
			}
		}

		path = path[:len(path)-1]
		onStack[key] = false
	}

	for _, key := range g.order {
		if !visited[key] {
			visit(key)
		}
	}
	return cycles
}
