package lockfile

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/albertocavalcante/go-bzlmod-lockcodec/codec"
	"github.com/albertocavalcante/go-bzlmod-lockcodec/label"
)

// maxConcurrentFetches bounds the registry requests one call keeps in flight.
const maxConcurrentFetches = 8

// allowAllYanked is the allowlist entry that permits every yanked version.
const allowAllYanked = "all"

// YankedModule is a module whose selected version was yanked by its registry.
type YankedModule struct {
	Key      label.ModuleKey
	Registry string
	Reason   string

	// Latest is the registry's highest non-yanked version, or EmptyVersion
	// if it has none.
	Latest label.Version
}

func (y YankedModule) String() string {
	s := fmt.Sprintf("%s (yanked in %s: %s)", y.Key, y.Registry, y.Reason)
	if !y.Latest.IsEmpty() {
		s += fmt.Sprintf(", latest is %s", y.Latest)
	}
	return s
}

// yankedAllowlist is the parsed form of the allowed yanked versions flags.
type yankedAllowlist struct {
	all  bool
	keys map[label.ModuleKey]bool
}

// allowedYanked combines AllowedYankedVersions with the comma-separated
// EnvVarAllowedYankedVersions. Entries are "all" or "name@version".
func (f Flags) allowedYanked() (yankedAllowlist, error) {
	allow := yankedAllowlist{keys: make(map[label.ModuleKey]bool)}
	entries := f.AllowedYankedVersions.Slice()
	if f.EnvVarAllowedYankedVersions != "" {
		entries = append(entries, strings.Split(f.EnvVarAllowedYankedVersions, ",")...)
	}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		switch e {
		case "":
			continue
		case allowAllYanked:
			allow.all = true
			continue
		}
		key, err := codec.ParseModuleKey(e)
		if err != nil || key.IsRoot() || key.Version.IsEmpty() {
			return yankedAllowlist{}, fmt.Errorf("allowed yanked version %q must be of the form <module name>@<version>", e)
		}
		allow.keys[key] = true
	}
	return allow, nil
}

// CheckYanked asks the registry of every registry-backed module whether the
// selected version was yanked, and returns the yanked modules the flags do
// not allow, sorted by key. Modules without a registry are skipped.
func (l *Lockfile) CheckYanked(ctx context.Context, opts ...Option) ([]YankedModule, error) {
	o := buildOptions(opts)

	allow, err := l.Flags.allowedYanked()
	if err != nil {
		return nil, err
	}
	if allow.all {
		return nil, nil
	}

	var (
		mu     sync.Mutex
		yanked []YankedModule
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for key, m := range l.ModuleDepGraph.All() {
		if m.Registry == nil || allow.keys[key] {
			continue
		}
		g.Go(func() error {
			md, err := m.Registry.GetMetadata(ctx, key.Name)
			if err != nil {
				return fmt.Errorf("module %s: %w", key, err)
			}
			reason, ok := md.Yanked(key.Version)
			if !ok {
				return nil
			}
			y := YankedModule{Key: key, Registry: m.Registry.URL(), Reason: reason}
			y.Latest, _ = md.Latest()

			mu.Lock()
			yanked = append(yanked, y)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(yanked, func(a, b YankedModule) int { return a.Key.Compare(b.Key) })
	o.logger.Debug("checked yanked versions",
		"modules", l.ModuleCount(),
		"yanked", len(yanked))
	return yanked, nil
}
