package lockfile

import (
	"strings"
	"testing"

	"github.com/albertocavalcante/go-bzlmod-lockcodec/codec"
	"github.com/albertocavalcante/go-bzlmod-lockcodec/label"
	"github.com/albertocavalcante/go-bzlmod-lockcodec/registry"
)

func key(name, version string) label.ModuleKey {
	return label.NewModuleKey(name, label.MustParseVersion(version))
}

func graph(t *testing.T, modules ...Module) codec.Map[label.ModuleKey, Module] {
	t.Helper()
	entries := make([]codec.Entry[label.ModuleKey, Module], len(modules))
	for i, m := range modules {
		entries[i] = codec.Entry[label.ModuleKey, Module]{Key: m.Key, Value: m}
	}
	g, err := codec.NewMap(entries...)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func module(name, version string, deps ...label.ModuleKey) Module {
	entries := make([]codec.Entry[string, label.ModuleKey], len(deps))
	for i, d := range deps {
		entries[i] = codec.Entry[string, label.ModuleKey]{Key: d.Name, Value: d}
	}
	m, _ := codec.NewMap(entries...)
	k := key(name, version)
	return Module{Name: name, Version: k.Version, Key: k, Deps: m}
}

func TestCompare(t *testing.T) {
	f := registry.NewFactory()
	bcr, _ := f.RegistryWithURL("https://bcr.bazel.build")
	mirror, _ := f.RegistryWithURL("https://mirror.example.com")

	onBCR := func(m Module) Module { m.Registry = bcr; return m }
	onMirror := func(m Module) Module { m.Registry = mirror; return m }

	old := New()
	old.ModuleFileHash = "aaa"
	old.ModuleDepGraph = graph(t,
		module("", "", key("rules_go", "0.41.0")),
		onBCR(module("rules_go", "0.41.0")),
		onBCR(module("platforms", "0.0.7")),
		onBCR(module("removed_mod", "1.0")),
		onBCR(module("skylib", "1.0")),
	)

	newLf := New()
	newLf.ModuleFileHash = "bbb"
	newLf.ModuleDepGraph = graph(t,
		module("", "", key("rules_go", "0.50.1")),
		onBCR(module("rules_go", "0.50.1")),
		onMirror(module("platforms", "0.0.7")),
		onBCR(module("added_mod", "2.0")),
		onBCR(module("skylib", "1.0", key("platforms", "0.0.7"))),
	)

	d := Compare(old, newLf)

	if !d.ModuleFileHashChanged {
		t.Error("ModuleFileHashChanged = false")
	}
	if d.VersionChanged || d.FlagsChanged {
		t.Errorf("VersionChanged = %v, FlagsChanged = %v", d.VersionChanged, d.FlagsChanged)
	}
	if len(d.Added) != 1 || d.Added[0] != key("added_mod", "2.0") {
		t.Errorf("Added = %v", d.Added)
	}
	if len(d.Removed) != 1 || d.Removed[0] != key("removed_mod", "1.0") {
		t.Errorf("Removed = %v", d.Removed)
	}

	byName := make(map[string]ModuleChange)
	for _, c := range d.Changed {
		byName[c.Name] = c
	}
	if len(byName) != 4 {
		t.Fatalf("Changed = %v, want root, platforms, rules_go, skylib", d.Changed)
	}
	if c := byName["rules_go"]; !c.VersionChanged() || c.Old != key("rules_go", "0.41.0") || c.New != key("rules_go", "0.50.1") {
		t.Errorf("rules_go change = %+v", c)
	}
	if c := byName["platforms"]; c.VersionChanged() || !c.RegistryChanged() {
		t.Errorf("platforms change = %+v", c)
	}
	if c := byName["skylib"]; !c.DepsChanged || c.VersionChanged() {
		t.Errorf("skylib change = %+v", c)
	}
	if c := byName[""]; !c.DepsChanged || !c.New.IsRoot() {
		t.Errorf("root change = %+v", c)
	}

	summary := d.Summary()
	for _, want := range []string{
		"moduleFileHash changed",
		"added: added_mod@2.0",
		"removed: removed_mod@1.0",
		"changed: rules_go@0.41.0 -> rules_go@0.50.1",
		`registry "https://bcr.bazel.build" -> "https://mirror.example.com"`,
		"skylib@1.0, deps changed",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("Summary() missing %q:\n%s", want, summary)
		}
	}
}

func TestCompare_Identical(t *testing.T) {
	lf := New()
	lf.ModuleDepGraph = graph(t, module("a", "1.0"), module("b", "2.0", key("a", "1.0")))

	d := Compare(lf, lf)
	if !d.IsEmpty() {
		t.Errorf("Compare(lf, lf) = %+v", d)
	}
	if got := d.Summary(); got != "no changes\n" {
		t.Errorf("Summary() = %q", got)
	}
}

func TestCompare_FlagsAndVersion(t *testing.T) {
	old := New()
	newLf := New()
	newLf.Version = 6
	newLf.Flags.IgnoreDevDependency = true

	d := Compare(old, newLf)
	if !d.VersionChanged || d.OldVersion != 3 || d.NewVersion != 6 {
		t.Errorf("version diff = %v %d -> %d", d.VersionChanged, d.OldVersion, d.NewVersion)
	}
	if !d.FlagsChanged {
		t.Error("FlagsChanged = false")
	}
	if !strings.Contains(d.Summary(), "version: 3 -> 6") {
		t.Errorf("Summary() = %q", d.Summary())
	}
}

func TestCompare_MultipleVersions(t *testing.T) {
	old := New()
	old.ModuleDepGraph = graph(t, module("a", "1.0"), module("a", "2.0"))
	newLf := New()
	newLf.ModuleDepGraph = graph(t, module("a", "1.1"))

	d := Compare(old, newLf)
	if len(d.Changed) != 1 || d.Changed[0].Old != key("a", "1.0") || d.Changed[0].New != key("a", "1.1") {
		t.Errorf("Changed = %v", d.Changed)
	}
	if len(d.Removed) != 1 || d.Removed[0] != key("a", "2.0") {
		t.Errorf("Removed = %v", d.Removed)
	}
}
