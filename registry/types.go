package registry

import (
	"github.com/albertocavalcante/go-bzlmod-lockcodec/label"
)

// Metadata is the part of a module's metadata.json that lockfile checks
// consult. Other members of the file are ignored.
type Metadata struct {
	// Versions lists the versions the registry serves, oldest first.
	Versions []string `json:"versions"`

	// YankedVersions maps a yanked version to the reason it was yanked.
	YankedVersions map[string]string `json:"yanked_versions,omitempty"`
}

// Yanked reports whether v is yanked and why. Entries are matched by their
// canonical version, so "1.0+build" in the metadata yanks 1.0. Entries that
// do not parse as versions never match.
func (m *Metadata) Yanked(v label.Version) (reason string, ok bool) {
	if reason, ok := m.YankedVersions[v.String()]; ok {
		return reason, true
	}
	for raw, reason := range m.YankedVersions {
		if parsed, err := label.ParseVersion(raw); err == nil && parsed == v {
			return reason, true
		}
	}
	return "", false
}

// Latest returns the highest listed version that is not yanked.
// Unparseable entries are skipped. ok is false if nothing qualifies.
func (m *Metadata) Latest() (latest label.Version, ok bool) {
	for _, raw := range m.Versions {
		v, err := label.ParseVersion(raw)
		if err != nil || v.IsEmpty() {
			continue
		}
		if _, yanked := m.Yanked(v); yanked {
			continue
		}
		if !ok || v.Compare(latest) > 0 {
			latest, ok = v, true
		}
	}
	return latest, ok
}
