package migration

import (
	"sort"

	"github.com/zjrosen/templar/internal/log"
	"github.com/zjrosen/templar/internal/semver"
)

// Registry holds each template's migration scripts. Scripts are kept sorted
// ascending by source version, and the chain is materialized as a map from
// source-version string to its unique next edge: at most one outgoing edge
// per source version is usable, and the first registered edge wins.
type Registry struct {
	scripts map[string][]*Script
	next    map[string]map[string]*Script
}

// NewRegistry creates a new empty migration registry.
func NewRegistry() *Registry {
	return &Registry{
		scripts: make(map[string][]*Script),
		next:    make(map[string]map[string]*Script),
	}
}

// Register adds a migration script to a template's chain. Registration is
// additive and does not validate; run ValidateScript before registering
// untrusted scripts.
func (r *Registry) Register(templateID string, s *Script) error {
	if s == nil {
		return ErrNilScript
	}

	list := append(r.scripts[templateID], s)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].FromVersion.Compare(list[j].FromVersion) < 0
	})
	r.scripts[templateID] = list

	edges, ok := r.next[templateID]
	if !ok {
		edges = make(map[string]*Script)
		r.next[templateID] = edges
	}
	from := s.FromVersion.String()
	if _, taken := edges[from]; !taken {
		edges[from] = s
	} else {
		log.Warn(log.CatMigrate, "duplicate migration source version ignored for pathfinding",
			"template", templateID, "from", from, "script", s.ID)
	}

	log.Debug(log.CatMigrate, "registered migration",
		"template", templateID, "script", s.ID,
		"from", s.FromVersion.String(), "to", s.ToVersion.String())
	return nil
}

// ScriptsFor returns a template's scripts sorted ascending by source version,
// or nil for unknown template ids. The returned slice is registry-owned.
func (r *Registry) ScriptsFor(templateID string) []*Script {
	return r.scripts[templateID]
}

// Next returns the unique outgoing edge from a version, or nil when the chain
// has no edge there.
func (r *Registry) Next(templateID string, from semver.Version) *Script {
	edges, ok := r.next[templateID]
	if !ok {
		return nil
	}
	return edges[from.String()]
}

// Has reports whether any migrations are registered for a template.
func (r *Registry) Has(templateID string) bool {
	return len(r.scripts[templateID]) > 0
}

// TemplateIDs returns all template ids with registered migrations, sorted.
func (r *Registry) TemplateIDs() []string {
	ids := make([]string, 0, len(r.scripts))
	for id := range r.scripts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clear empties all migration registry state.
func (r *Registry) Clear() {
	r.scripts = make(map[string][]*Script)
	r.next = make(map[string]map[string]*Script)
}
