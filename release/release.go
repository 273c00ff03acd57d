// Package release models the release record the environment editor sits
// inside: an ordered environment plus the fields the editor does not
// touch (artifacts, labels, process definitions) and must pass through a
// rebuild unchanged.
package release

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/Masterminds/semver/v3"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"harborview.software/envedit/kv"
)

var (
	// ErrVersionNotNewer is returned by Next when the requested version
	// does not sort after the base release's version.
	ErrVersionNotNewer = errors.New("version is not newer than base release")
)

// Artifact is a deployable produced for a release. Opaque to the editor.
type Artifact struct {
	Name   string `json:"name"`
	Image  string `json:"image,omitempty"`
	Digest string `json:"digest,omitempty"`
}

// Release is one server-confirmed release record. Env is the baseline the
// editor derives sessions from; everything else is passthrough.
type Release struct {
	Version string `json:"version"`
	Env     kv.Map `json:"env"`
	// Processes maps a process name to its command, Procfile style. The
	// declaration order is significant for display, hence the ordered
	// map.
	Processes *orderedmap.OrderedMap[string, string] `json:"processes,omitempty"`
	Artifacts []Artifact                             `json:"artifacts,omitempty"`
	Labels    map[string]string                      `json:"labels,omitempty"`
}

// SemVer returns the parsed release version.
func (r *Release) SemVer() (*semver.Version, error) {
	v, err := semver.NewVersion(r.Version)
	if err != nil {
		return nil, fmt.Errorf("invalid release version %q: %w", r.Version, err)
	}
	return v, nil
}

// Next builds the successor of base: the changeset is replayed onto
// base's environment, the version is bumped to version, and every
// passthrough field is copied over untouched. version must parse as
// semver and sort strictly after base's version.
func Next(base *Release, version string, cs kv.Changeset) (*Release, error) {
	baseVersion, err := base.SemVer()
	if err != nil {
		return nil, err
	}
	nextVersion, err := semver.NewVersion(version)
	if err != nil {
		return nil, fmt.Errorf("invalid next version %q: %w", version, err)
	}
	if !nextVersion.GreaterThan(baseVersion) {
		return nil, fmt.Errorf("%q does not sort after %q: %w", version, base.Version, ErrVersionNotNewer)
	}

	next := &Release{
		Version:   version,
		Env:       cs.Apply(base.Env),
		Artifacts: slices.Clone(base.Artifacts),
		Labels:    maps.Clone(base.Labels),
	}
	if base.Processes != nil {
		next.Processes = orderedmap.New[string, string](base.Processes.Len())
		for p := base.Processes.Oldest(); p != nil; p = p.Next() {
			next.Processes.Set(p.Key, p.Value)
		}
	}
	return next, nil
}
