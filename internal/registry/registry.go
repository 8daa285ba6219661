package registry

import (
	"errors"
	"fmt"
	"sort"

	"github.com/zjrosen/templar/internal/log"
	"github.com/zjrosen/templar/internal/semver"
)

// Registry errors
var (
	ErrNotFound        = errors.New("template version not found")
	ErrNoStableVersion = errors.New("no stable version registered")
	ErrNilVersion      = errors.New("template version cannot be nil")
	ErrEmptyTemplateID = errors.New("template id cannot be empty")
)

// Registry holds all registered template versions, keyed by template id.
type Registry struct {
	entries map[string]*Entry

	// generation increments on every mutation so read-side caches keyed on
	// it invalidate naturally.
	generation uint64
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
	}
}

// Register appends a template version to its template's list, creating the
// entry if absent, then re-sorts the list descending and recomputes the
// latest and latest-stable markers. No identity dedup is performed.
func (r *Registry) Register(tv *TemplateVersion) error {
	if tv == nil {
		return ErrNilVersion
	}
	if tv.TemplateID == "" {
		return ErrEmptyTemplateID
	}

	entry, ok := r.entries[tv.TemplateID]
	if !ok {
		entry = &Entry{TemplateID: tv.TemplateID}
		r.entries[tv.TemplateID] = entry
	}

	entry.Versions = append(entry.Versions, tv)
	sort.SliceStable(entry.Versions, func(i, j int) bool {
		return entry.Versions[i].Version.Compare(entry.Versions[j].Version) > 0
	})

	entry.Latest = entry.Versions[0].Version
	entry.LatestStable = nil
	for _, v := range entry.Versions {
		if v.Version.IsStable() {
			stable := v.Version
			entry.LatestStable = &stable
			break
		}
	}

	r.generation++
	log.Debug(log.CatRegistry, "registered template version",
		"template", tv.TemplateID, "version", tv.Version.String(), "latest", entry.Latest.String())
	return nil
}

// Get returns the first registered entry whose version compares equal.
// Returns ErrNotFound for unknown template ids and unmatched versions.
func (r *Registry) Get(templateID string, version semver.Version) (*TemplateVersion, error) {
	entry, ok := r.entries[templateID]
	if !ok {
		return nil, fmt.Errorf("%w: %s@%s", ErrNotFound, templateID, version)
	}
	for _, tv := range entry.Versions {
		if tv.Version.Equal(version) {
			return tv, nil
		}
	}
	return nil, fmt.Errorf("%w: %s@%s", ErrNotFound, templateID, version)
}

// GetLatest returns the newest registered version of a template. With
// includePrerelease false, it returns the latest stable version instead and
// reports ErrNoStableVersion for templates that only carry prereleases.
func (r *Registry) GetLatest(templateID string, includePrerelease bool) (*TemplateVersion, error) {
	entry, ok := r.entries[templateID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, templateID)
	}

	target := entry.Latest
	if !includePrerelease {
		if entry.LatestStable == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoStableVersion, templateID)
		}
		target = *entry.LatestStable
	}
	return r.Get(templateID, target)
}

// Versions returns the template's registered versions in descending order,
// or nil for unknown template ids. The returned slice is registry-owned.
func (r *Registry) Versions(templateID string) []*TemplateVersion {
	entry, ok := r.entries[templateID]
	if !ok {
		return nil
	}
	return entry.Versions
}

// Entry returns the full per-template registry state, or ErrNotFound.
func (r *Registry) Entry(templateID string) (*Entry, error) {
	entry, ok := r.entries[templateID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, templateID)
	}
	return entry, nil
}

// TemplateIDs returns all registered template ids, sorted alphabetically.
func (r *Registry) TemplateIDs() []string {
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Generation returns a counter that increments on every mutation.
func (r *Registry) Generation() uint64 {
	return r.generation
}

// Clear empties all registry state. Used for process reset and test
// isolation, not a normal operational path.
func (r *Registry) Clear() {
	r.entries = make(map[string]*Entry)
	r.generation++
}
