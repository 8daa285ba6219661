package registry

import (
	"github.com/zjrosen/templar/internal/semver"
)

// Deprecation flags a registered version as superseded. Resolution still
// picks deprecated versions but surfaces the message as a warning.
type Deprecation struct {
	Message    string
	ReplacedBy string
}

// TemplateVersion is one registered version of one template. It is owned by
// the registry once registered and never mutated after insertion. Registering
// the same template id and version twice creates two list entries; lookups
// are comparison-based, not identity-based.
type TemplateVersion struct {
	TemplateID     string
	Version        semver.Version
	CompatibleWith *semver.Range
	Deprecated     *Deprecation

	// MigrationFrom maps target-version strings to migration identifiers,
	// carried as registration metadata for tooling.
	MigrationFrom map[string]string

	// ReleaseDate is an ISO-8601 date string.
	ReleaseDate string
}

// Entry is the per-template-id registry state.
type Entry struct {
	TemplateID string

	// Versions is sorted descending by version immediately after every
	// insertion; Latest always mirrors Versions[0].
	Versions []*TemplateVersion

	Latest semver.Version

	// LatestStable is the highest version with no prerelease component, or
	// nil while only prereleases have been registered.
	LatestStable *semver.Version
}
