package registry

import (
	"github.com/zjrosen/templar/internal/semver"
)

// Provider defines read-only access to the version registry. The constraint
// resolver depends on this interface rather than the concrete Registry,
// allowing mock substitution in tests.
type Provider interface {
	// Get returns the first entry comparing equal to version, or ErrNotFound.
	Get(templateID string, version semver.Version) (*TemplateVersion, error)

	// GetLatest returns the newest (optionally newest stable) version.
	GetLatest(templateID string, includePrerelease bool) (*TemplateVersion, error)

	// Versions returns the template's versions in descending order.
	Versions(templateID string) []*TemplateVersion

	// TemplateIDs returns all registered template ids, sorted.
	TemplateIDs() []string

	// Generation returns a counter incremented on every mutation.
	Generation() uint64
}

// Compile-time check that Registry implements Provider.
var _ Provider = (*Registry)(nil)
