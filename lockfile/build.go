package lockfile

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/albertocavalcante/go-bzlmod-lockcodec/codec"
	"github.com/albertocavalcante/go-bzlmod-lockcodec/label"
	"github.com/albertocavalcante/go-bzlmod-lockcodec/modulefile"
	"github.com/albertocavalcante/go-bzlmod-lockcodec/registry"
)

// ModuleResolution represents a resolved module for lockfile generation.
type ModuleResolution struct {
	// Name is the module name.
	Name string

	// Version is the resolved version.
	Version string

	// RepoName is the module's own repo_name, if it sets one.
	RepoName string

	// RegistryURL is the registry that provided this module. Empty for
	// modules with non-registry overrides.
	RegistryURL string

	// Deps maps the repository names the module sees to resolved keys.
	Deps map[string]label.ModuleKey

	// ModuleFileContent is the raw MODULE.bazel content. If set, the
	// module's registrations and extension usages are taken from it.
	ModuleFileContent []byte
}

// FromModuleFile creates a lockfile from the root MODULE.bazel content and
// the modules resolution selected. The root module's deps point at the
// resolved versions where resolution picked one. Registry handles are
// obtained from factory.
func FromModuleFile(content []byte, resolved []ModuleResolution, factory registry.Factory, opts ...Option) (*Lockfile, error) {
	o := buildOptions(opts)

	lf := New()
	if o.flags != nil {
		lf.Flags = *o.flags
	}
	lf.ModuleFileHash = HashContent(content)

	rootFile, err := modulefile.Parse("MODULE.bazel", content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse root module: %w", err)
	}

	selected := make(map[string]label.ModuleKey, len(resolved))
	graph := make(map[label.ModuleKey]Module, len(resolved)+1)
	for _, r := range resolved {
		m, err := resolvedModule(r, factory, lf.Flags.IgnoreDevDependency)
		if err != nil {
			return nil, err
		}
		if _, dup := graph[m.Key]; dup {
			return nil, fmt.Errorf("module %s resolved twice", m.Key)
		}
		graph[m.Key] = m
		selected[m.Name] = m.Key
	}

	root := moduleFromFile(rootFile, label.RootModuleKey, true, lf.Flags.IgnoreDevDependency)
	root.Deps = rootDeps(rootFile, selected, lf.Flags.IgnoreDevDependency)
	graph[label.RootModuleKey] = root

	lf.ModuleDepGraph = codec.MapFromFunc(graph, label.ModuleKey.Compare)
	o.logger.Debug("built lockfile",
		"root", root.Name,
		"modules", lf.ModuleDepGraph.Len(),
		"moduleFileHash", lf.ModuleFileHash)
	return lf, nil
}

// Build is FromModuleFile for resolutions that may lack module file content.
// Each module with a RegistryURL and no ModuleFileContent first has its
// MODULE.bazel fetched from that registry, so its registrations and
// extension usages are recorded. resolved itself is not modified.
func Build(ctx context.Context, content []byte, resolved []ModuleResolution, factory registry.Factory, opts ...Option) (*Lockfile, error) {
	o := buildOptions(opts)

	filled := slices.Clone(resolved)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i := range filled {
		r := &filled[i]
		if len(r.ModuleFileContent) > 0 || r.RegistryURL == "" {
			continue
		}
		g.Go(func() error {
			v, err := label.ParseVersion(r.Version)
			if err != nil {
				return fmt.Errorf("module %s: %w", r.Name, err)
			}
			reg, err := factory.RegistryWithURL(r.RegistryURL)
			if err != nil {
				return fmt.Errorf("module %s: %w", r.Name, err)
			}
			data, err := reg.GetModuleFile(ctx, label.NewModuleKey(r.Name, v))
			if err != nil {
				return err
			}
			o.logger.Debug("fetched module file", "module", r.Name, "version", r.Version, "bytes", len(data))
			r.ModuleFileContent = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return FromModuleFile(content, filled, factory, opts...)
}

func resolvedModule(r ModuleResolution, factory registry.Factory, ignoreDev bool) (Module, error) {
	v, err := label.ParseVersion(r.Version)
	if err != nil {
		return Module{}, fmt.Errorf("module %s: %w", r.Name, err)
	}
	key := label.NewModuleKey(r.Name, v)

	m := Module{Name: r.Name, Version: v, Key: key, RepoName: r.RepoName}
	if len(r.ModuleFileContent) > 0 {
		f, err := modulefile.Parse(key.String()+"/MODULE.bazel", r.ModuleFileContent)
		if err != nil {
			return Module{}, fmt.Errorf("module %s: %w", key, err)
		}
		// dev_dependency declarations of non-root modules never apply
		m = moduleFromFile(f, key, false, ignoreDev)
		m.Name, m.Version = r.Name, v
		if r.RepoName != "" {
			m.RepoName = r.RepoName
		}
	}
	if m.RepoName == "" {
		m.RepoName = r.Name
	}
	m.Deps = codec.MapFromFunc(r.Deps, strings.Compare)

	if r.RegistryURL != "" {
		reg, err := factory.RegistryWithURL(r.RegistryURL)
		if err != nil {
			return Module{}, fmt.Errorf("module %s: %w", key, err)
		}
		m.Registry = reg
	}
	return m, nil
}

// moduleFromFile fills a graph node from a parsed MODULE.bazel.
func moduleFromFile(f *modulefile.File, key label.ModuleKey, isRoot, ignoreDev bool) Module {
	includeDev := isRoot && !ignoreDev
	m := Module{
		Name:     f.Name,
		Version:  f.Version,
		Key:      key,
		RepoName: f.RepoName,
	}
	if m.RepoName == "" {
		m.RepoName = f.Name
	}
	m.ExecutionPlatformsToRegister = codec.ListOf(patterns(f.ExecutionPlatforms, includeDev)...)
	m.ToolchainsToRegister = codec.ListOf(patterns(f.Toolchains, includeDev)...)

	var usages []ExtensionUsage
	for _, ext := range f.Extensions {
		if u, ok := extensionUsage(ext, includeDev); ok {
			usages = append(usages, u)
		}
	}
	m.ExtensionUsages = codec.ListOf(usages...)
	return m
}

func patterns(regs []modulefile.Registration, includeDev bool) []string {
	var out []string
	for _, r := range regs {
		if r.DevDependency && !includeDev {
			continue
		}
		out = append(out, r.Pattern)
	}
	return out
}

func extensionUsage(ext *modulefile.ExtensionUsage, includeDev bool) (ExtensionUsage, bool) {
	if ext.DevDependency && !includeDev {
		return ExtensionUsage{}, false
	}

	imports := make([]codec.Entry[string, string], 0, len(ext.Imports))
	seen := make(map[string]bool, len(ext.Imports))
	for _, imp := range ext.Imports {
		// use_repo may list the same repo twice; keep the first
		if seen[imp.Local] {
			continue
		}
		seen[imp.Local] = true
		imports = append(imports, codec.Entry[string, string]{Key: imp.Local, Value: imp.Exported})
	}
	bimap, err := codec.NewBiMap(imports...)
	if err != nil {
		// two local names for one exported repo; keep key order, drop the rest
		bimap = firstUnique(imports)
	}

	var tags []Tag
	for _, t := range ext.Tags {
		if t.DevDependency && !includeDev {
			continue
		}
		tag := Tag{
			TagName:       t.Name,
			DevDependency: t.DevDependency,
			Location:      location(t.Pos),
		}
		for _, a := range t.Attrs {
			tag.AttributeValues.Put(a.Name, a.Value)
		}
		tags = append(tags, tag)
	}

	return ExtensionUsage{
		ExtensionBzlFile: ext.BzlFile,
		ExtensionName:    ext.Name,
		Location:         location(ext.Pos),
		Imports:          bimap,
		Tags:             codec.ListOf(tags...),
	}, true
}

func firstUnique(entries []codec.Entry[string, string]) codec.BiMap[string, string] {
	var kept []codec.Entry[string, string]
	values := make(map[string]bool, len(entries))
	for _, e := range entries {
		if values[e.Value] {
			continue
		}
		values[e.Value] = true
		kept = append(kept, e)
	}
	b, _ := codec.NewBiMap(kept...)
	return b
}

func rootDeps(f *modulefile.File, selected map[string]label.ModuleKey, ignoreDev bool) codec.Map[string, label.ModuleKey] {
	entries := make([]codec.Entry[string, label.ModuleKey], 0, len(f.Deps))
	seen := make(map[string]bool, len(f.Deps))
	for _, d := range f.Deps {
		if d.DevDependency && ignoreDev {
			continue
		}
		local := d.LocalName()
		if seen[local] {
			continue
		}
		seen[local] = true
		key, ok := selected[d.Name]
		if !ok {
			key = label.NewModuleKey(d.Name, d.Version)
		}
		entries = append(entries, codec.Entry[string, label.ModuleKey]{Key: local, Value: key})
	}
	m, _ := codec.NewMap(entries...) // local names are unique
	return m
}

func location(p modulefile.Position) Location {
	return Location{File: p.File, Line: p.Line, Column: p.Column}
}
