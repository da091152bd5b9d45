package lockfile

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/albertocavalcante/go-bzlmod-lockcodec/codec"
	"github.com/albertocavalcante/go-bzlmod-lockcodec/label"
	"github.com/albertocavalcante/go-bzlmod-lockcodec/registry"
)

// Codecs returns the object codecs for the lockfile document types.
// The JSON member names are part of the lockfile format.
func Codecs() []codec.Factory {
	return []codec.Factory{
		codec.Object(
			codec.Prop("lockFileVersion", func(l *Lockfile) *int { return &l.Version }),
			codec.Prop("moduleFileHash", func(l *Lockfile) *string { return &l.ModuleFileHash }),
			codec.Prop("flags", func(l *Lockfile) *Flags { return &l.Flags }),
			codec.Prop("localOverrideHashes", func(l *Lockfile) *codec.Map[string, string] { return &l.LocalOverrideHashes }),
			codec.Prop("moduleDepGraph", func(l *Lockfile) *codec.Map[label.ModuleKey, Module] { return &l.ModuleDepGraph }),
		),
		codec.Object(
			codec.Prop("cmdRegistries", func(f *Flags) *codec.List[string] { return &f.CmdRegistries }),
			codec.Prop("cmdModuleOverrides", func(f *Flags) *codec.Map[string, string] { return &f.CmdModuleOverrides }),
			codec.Prop("allowedYankedVersions", func(f *Flags) *codec.List[string] { return &f.AllowedYankedVersions }),
			codec.Prop("envVarAllowedYankedVersions", func(f *Flags) *string { return &f.EnvVarAllowedYankedVersions }),
			codec.Prop("ignoreDevDependency", func(f *Flags) *bool { return &f.IgnoreDevDependency }),
			codec.Prop("directDependenciesMode", func(f *Flags) *string { return &f.DirectDependenciesMode }),
			codec.Prop("compatibilityMode", func(f *Flags) *string { return &f.CompatibilityMode }),
		),
		codec.Object(
			codec.Prop("name", func(m *Module) *string { return &m.Name }),
			codec.Prop("version", func(m *Module) *label.Version { return &m.Version }),
			codec.Prop("key", func(m *Module) *label.ModuleKey { return &m.Key }),
			codec.Prop("repoName", func(m *Module) *string { return &m.RepoName }),
			codec.Prop("executionPlatformsToRegister", func(m *Module) *codec.List[string] { return &m.ExecutionPlatformsToRegister }),
			codec.Prop("toolchainsToRegister", func(m *Module) *codec.List[string] { return &m.ToolchainsToRegister }),
			codec.Prop("extensionUsages", func(m *Module) *codec.List[ExtensionUsage] { return &m.ExtensionUsages }),
			codec.Prop("deps", func(m *Module) *codec.Map[string, label.ModuleKey] { return &m.Deps }),
			codec.Prop("registry", func(m *Module) *registry.Registry { return &m.Registry }),
		),
		codec.Object(
			codec.Prop("extensionBzlFile", func(u *ExtensionUsage) *string { return &u.ExtensionBzlFile }),
			codec.Prop("extensionName", func(u *ExtensionUsage) *string { return &u.ExtensionName }),
			codec.Prop("location", func(u *ExtensionUsage) *Location { return &u.Location }),
			codec.Prop("imports", func(u *ExtensionUsage) *codec.BiMap[string, string] { return &u.Imports }),
			codec.Prop("tags", func(u *ExtensionUsage) *codec.List[Tag] { return &u.Tags }),
		),
		codec.Object(
			codec.Prop("tagName", func(t *Tag) *string { return &t.TagName }),
			codec.Prop("attributeValues", func(t *Tag) *codec.Dict[string, json.RawMessage] { return &t.AttributeValues }),
			codec.Prop("devDependency", func(t *Tag) *bool { return &t.DevDependency }),
			codec.Prop("location", func(t *Tag) *Location { return &t.Location }),
		),
		codec.Object(
			codec.Prop("file", func(l *Location) *string { return &l.File }),
			codec.Prop("line", func(l *Location) *int { return &l.Line }),
			codec.Prop("column", func(l *Location) *int { return &l.Column }),
		),
	}
}

// CodecRegistry returns the codec registry for lockfiles whose registry
// references resolve through f.
func CodecRegistry(f registry.Factory) *codec.Registry {
	return codec.LockfileRegistry(f, Codecs()...)
}

// errNoFactory is returned if the encode-only registry is asked to decode a
// registry reference.
var errNoFactory = errors.New("lockfile: no registry factory configured")

type encodeOnlyFactory struct{}

func (encodeOnlyFactory) RegistryWithURL(string) (registry.Registry, error) {
	return nil, errNoFactory
}

// encodeRegistry serves Marshal, which never resolves registry URLs.
var encodeRegistry = sync.OnceValue(func() *codec.Registry {
	return CodecRegistry(encodeOnlyFactory{})
})
