package lockfile

import (
	"fmt"
	"slices"
	"strings"

	"github.com/albertocavalcante/go-bzlmod-lockcodec/label"
)

// Diff describes the differences between two lockfiles' dependency graphs.
type Diff struct {
	VersionChanged bool
	OldVersion     int
	NewVersion     int

	ModuleFileHashChanged bool
	FlagsChanged          bool

	// Added contains keys only present in the new lockfile.
	Added []label.ModuleKey

	// Removed contains keys only present in the old lockfile.
	Removed []label.ModuleKey

	// Changed contains modules present in both, possibly at another version.
	Changed []ModuleChange
}

// ModuleChange describes a module whose resolution changed.
type ModuleChange struct {
	Name string
	Old  label.ModuleKey
	New  label.ModuleKey

	OldRegistry string
	NewRegistry string

	// DepsChanged is set if the module's deps differ.
	DepsChanged bool
}

// VersionChanged reports whether the module was resolved to another version.
func (c ModuleChange) VersionChanged() bool {
	return c.Old != c.New
}

// RegistryChanged reports whether the module moved to another registry.
func (c ModuleChange) RegistryChanged() bool {
	return c.OldRegistry != c.NewRegistry
}

func (c ModuleChange) String() string {
	var parts []string
	if c.VersionChanged() {
		parts = append(parts, fmt.Sprintf("%s -> %s", c.Old, c.New))
	} else {
		parts = append(parts, c.New.String())
	}
	if c.RegistryChanged() {
		parts = append(parts, fmt.Sprintf("registry %q -> %q", c.OldRegistry, c.NewRegistry))
	}
	if c.DepsChanged {
		parts = append(parts, "deps changed")
	}
	return strings.Join(parts, ", ")
}

// IsEmpty returns true if there are no differences.
func (d *Diff) IsEmpty() bool {
	return !d.VersionChanged && !d.ModuleFileHashChanged && !d.FlagsChanged &&
		len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Summary returns a human-readable summary of the differences.
func (d *Diff) Summary() string {
	if d.IsEmpty() {
		return "no changes\n"
	}

	var b strings.Builder
	if d.VersionChanged {
		fmt.Fprintf(&b, "version: %d -> %d\n", d.OldVersion, d.NewVersion)
	}
	if d.ModuleFileHashChanged {
		b.WriteString("moduleFileHash changed\n")
	}
	if d.FlagsChanged {
		b.WriteString("flags changed\n")
	}
	for _, k := range d.Added {
		fmt.Fprintf(&b, "added: %s\n", k)
	}
	for _, k := range d.Removed {
		fmt.Fprintf(&b, "removed: %s\n", k)
	}
	for _, c := range d.Changed {
		fmt.Fprintf(&b, "changed: %s\n", c)
	}
	return b.String()
}

// Compare compares two lockfiles and returns the differences.
//
// Modules are matched by key first. Keys left over on both sides are matched
// by module name, in version order, and reported as changed; the rest are
// added or removed.
func Compare(old, new *Lockfile) *Diff {
	diff := &Diff{
		OldVersion:            old.Version,
		NewVersion:            new.Version,
		VersionChanged:        old.Version != new.Version,
		ModuleFileHashChanged: old.ModuleFileHash != new.ModuleFileHash,
		FlagsChanged:          !flagsEqual(old.Flags, new.Flags),
	}

	unmatchedOld := make(map[string][]label.ModuleKey)
	for key, om := range old.ModuleDepGraph.All() {
		nm, ok := new.ModuleDepGraph.Get(key)
		if !ok {
			unmatchedOld[om.Name] = append(unmatchedOld[om.Name], key)
			continue
		}
		if c := moduleChange(om, nm); c != nil {
			diff.Changed = append(diff.Changed, *c)
		}
	}

	unmatchedNew := make(map[string][]label.ModuleKey)
	for key, nm := range new.ModuleDepGraph.All() {
		if _, ok := old.ModuleDepGraph.Get(key); !ok {
			unmatchedNew[nm.Name] = append(unmatchedNew[nm.Name], key)
		}
	}

	for name, oldKeys := range unmatchedOld {
		newKeys := unmatchedNew[name]
		slices.SortFunc(oldKeys, label.ModuleKey.Compare)
		slices.SortFunc(newKeys, label.ModuleKey.Compare)
		n := min(len(oldKeys), len(newKeys))
		for i := range n {
			om, _ := old.ModuleDepGraph.Get(oldKeys[i])
			nm, _ := new.ModuleDepGraph.Get(newKeys[i])
			diff.Changed = append(diff.Changed, *moduleChange(om, nm))
		}
		diff.Removed = append(diff.Removed, oldKeys[n:]...)
		unmatchedNew[name] = newKeys[n:]
	}
	for _, newKeys := range unmatchedNew {
		diff.Added = append(diff.Added, newKeys...)
	}

	// Sort for deterministic output
	slices.SortFunc(diff.Added, label.ModuleKey.Compare)
	slices.SortFunc(diff.Removed, label.ModuleKey.Compare)
	slices.SortFunc(diff.Changed, func(a, b ModuleChange) int {
		return a.New.Compare(b.New)
	})

	return diff
}

// moduleChange returns the change from om to nm, or nil if they resolve
// identically.
func moduleChange(om, nm Module) *ModuleChange {
	c := &ModuleChange{
		Name:        nm.Name,
		Old:         om.Key,
		New:         nm.Key,
		OldRegistry: om.RegistryURL(),
		NewRegistry: nm.RegistryURL(),
		DepsChanged: !depsEqual(om, nm),
	}
	if !c.VersionChanged() && !c.RegistryChanged() && !c.DepsChanged {
		return nil
	}
	return c
}

func depsEqual(a, b Module) bool {
	if a.Deps.Len() != b.Deps.Len() {
		return false
	}
	for repo, key := range a.Deps.All() {
		if other, ok := b.Deps.Get(repo); !ok || other != key {
			return false
		}
	}
	return true
}

func flagsEqual(a, b Flags) bool {
	if a.EnvVarAllowedYankedVersions != b.EnvVarAllowedYankedVersions ||
		a.IgnoreDevDependency != b.IgnoreDevDependency ||
		a.DirectDependenciesMode != b.DirectDependenciesMode ||
		a.CompatibilityMode != b.CompatibilityMode {
		return false
	}
	if !slices.Equal(a.CmdRegistries.Slice(), b.CmdRegistries.Slice()) ||
		!slices.Equal(a.AllowedYankedVersions.Slice(), b.AllowedYankedVersions.Slice()) {
		return false
	}
	if a.CmdModuleOverrides.Len() != b.CmdModuleOverrides.Len() {
		return false
	}
	for k, v := range a.CmdModuleOverrides.All() {
		if other, ok := b.CmdModuleOverrides.Get(k); !ok || other != v {
			return false
		}
	}
	return true
}
