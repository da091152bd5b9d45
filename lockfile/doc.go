// Package lockfile reads and writes Bazel's MODULE.bazel.lock file in the
// module dependency graph format (lockFileVersion 3).
//
// # Lockfile Structure
//
// A lockfile contains:
//   - lockFileVersion: schema version
//   - moduleFileHash: SHA256 of the root MODULE.bazel
//   - flags: the resolution-affecting command-line flags
//   - localOverrideHashes: hashes of non-registry override sources
//   - moduleDepGraph: every resolved module keyed by "<root>" or "name@version"
//
// Values are encoded with the codecs from package codec. The field layout
// of each document type is declared in [Codecs].
//
// # Usage
//
// Read an existing lockfile:
//
//	lf, err := lockfile.ReadFile("MODULE.bazel.lock", registry.NewFactory())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d modules\n", lf.ModuleCount())
//
// Build one from a root module file and resolved modules:
//
//	lf, err := lockfile.FromModuleFile(content, resolved, registry.NewFactory())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := lf.WriteFile("MODULE.bazel.lock"); err != nil {
//	    log.Fatal(err)
//	}
//
// A registry URL in the lockfile that the factory rejects means the file is
// corrupt. Parse panics with a *codec.FatalError in that case; wrap the call
// with codec.Recover to get an error instead.
package lockfile
