package lockfile

import (
	"encoding/json"

	"github.com/albertocavalcante/go-bzlmod-lockcodec/codec"
	"github.com/albertocavalcante/go-bzlmod-lockcodec/label"
	"github.com/albertocavalcante/go-bzlmod-lockcodec/registry"
)

// CurrentVersion is the lockfile format version this package writes.
const CurrentVersion = 3

// Lockfile is the content of a MODULE.bazel.lock file.
type Lockfile struct {
	// Version is the lockFileVersion field.
	Version int

	// ModuleFileHash is the SHA256 of the root MODULE.bazel.
	ModuleFileHash string

	// Flags are the command-line settings resolution ran with.
	Flags Flags

	// LocalOverrideHashes maps module names to hashes of their local_path
	// or other non-registry override sources.
	LocalOverrideHashes codec.Map[string, string]

	// ModuleDepGraph is the resolved dependency graph keyed by module key.
	ModuleDepGraph codec.Map[label.ModuleKey, Module]
}

// Flags records the resolution-affecting flags.
type Flags struct {
	CmdRegistries               codec.List[string]
	CmdModuleOverrides          codec.Map[string, string]
	AllowedYankedVersions       codec.List[string]
	EnvVarAllowedYankedVersions string
	IgnoreDevDependency         bool
	DirectDependenciesMode      string
	CompatibilityMode           string
}

// DefaultFlags returns the flags Bazel uses when none are given.
func DefaultFlags() Flags {
	return Flags{
		CmdRegistries:          codec.ListOf("https://bcr.bazel.build/"),
		DirectDependenciesMode: "WARNING",
		CompatibilityMode:      "ERROR",
	}
}

// Module is one node of the dependency graph.
type Module struct {
	Name                         string
	Version                      label.Version
	Key                          label.ModuleKey
	RepoName                     string
	ExecutionPlatformsToRegister codec.List[string]
	ToolchainsToRegister         codec.List[string]
	ExtensionUsages              codec.List[ExtensionUsage]

	// Deps maps the repository names a module sees to the keys of the
	// modules they resolve to.
	Deps codec.Map[string, label.ModuleKey]

	// Registry is where the module was fetched from. It is nil for the root
	// module and for modules with non-registry overrides.
	Registry registry.Registry
}

// ExtensionUsage is a module's use of a module extension.
type ExtensionUsage struct {
	ExtensionBzlFile string
	ExtensionName    string
	Location         Location
	Imports          codec.BiMap[string, string]
	Tags             codec.List[Tag]
}

// Tag is a tag call on a module extension.
type Tag struct {
	TagName         string
	AttributeValues codec.Dict[string, json.RawMessage]
	DevDependency   bool
	Location        Location
}

// Location is a position in a MODULE.bazel file.
type Location struct {
	File   string
	Line   int
	Column int
}

// New returns an empty lockfile at CurrentVersion with default flags.
func New() *Lockfile {
	return &Lockfile{
		Version: CurrentVersion,
		Flags:   DefaultFlags(),
	}
}

// Module returns the graph node for key.
func (l *Lockfile) Module(key label.ModuleKey) (Module, bool) {
	return l.ModuleDepGraph.Get(key)
}

// RootModule returns the root module, if the graph has one.
func (l *Lockfile) RootModule() (Module, bool) {
	return l.ModuleDepGraph.Get(label.RootModuleKey)
}

// ModuleCount returns the number of modules in the graph, root included.
func (l *Lockfile) ModuleCount() int {
	return l.ModuleDepGraph.Len()
}

// RegistryURL returns the URL of m's registry, or "" if it has none.
func (m Module) RegistryURL() string {
	if m.Registry == nil {
		return ""
	}
	return m.Registry.URL()
}
