// Package graph provides a queryable view of the module dependency graph
// recorded in a lockfile.
//
// The view supports the questions `bazel mod graph` and `bazel mod explain`
// answer, computed from MODULE.bazel.lock alone:
//
//   - Visualize the complete dependency graph
//   - Explain why a module is included
//   - Find dependency paths between modules
//   - Query direct and transitive dependencies
//   - Detect deps that point at modules missing from the lockfile
//
// # Building a Graph
//
//	lf, _ := lockfile.ReadFile("MODULE.bazel.lock", registry.NewFactory())
//	g := graph.FromLockfile(lf)
//
// # Querying the Graph
//
//	deps := g.DirectDeps(key)
//	chains, _ := g.WhyIncluded("rules_go")
//	path := g.Path(g.Root, key)
//
// # Output Formats
//
//	jsonBytes, _ := g.ToJSON() // shaped like `bazel mod graph --output=json`
//	dot := g.ToDOT()
//	text := g.ToText()
package graph
