package migration

import (
	"fmt"
	"time"

	"github.com/zjrosen/templar/internal/log"
	"github.com/zjrosen/templar/internal/semver"
)

// Path is an ordered step sequence connecting a starting version to a target
// version. Constructed fresh per FindPath call, never stored.
type Path struct {
	TemplateID string
	From       semver.Version
	To         semver.Version
	Steps      []*Script

	// Reversible is the AND of all steps' reversible flags.
	Reversible bool

	// TotalDuration sums the steps' duration estimates.
	TotalDuration time.Duration
}

// Pathfinder discovers migration paths over a registry's chains.
type Pathfinder struct {
	migrations *Registry
}

// NewPathfinder creates a pathfinder over the given migration registry.
func NewPathfinder(migrations *Registry) *Pathfinder {
	return &Pathfinder{migrations: migrations}
}

// FindPath walks the template's chain from one version to another. The walk
// is deterministic: each version has at most one usable outgoing edge, so
// this is a forward traversal, not a general graph search.
//
// Failure conditions are sentinel errors: ErrNoMigrations for an unknown
// template id, ErrNoPath when a link is missing, ErrCycle when a version
// repeats within the walk, and ErrOvershoot when an edge jumps past the
// target. Requesting from == to yields an empty path.
func (p *Pathfinder) FindPath(templateID string, from, to semver.Version) (*Path, error) {
	if !p.migrations.Has(templateID) {
		return nil, fmt.Errorf("%w: %s", ErrNoMigrations, templateID)
	}

	var steps []*Script
	visited := make(map[string]bool)
	current := from

	for !current.Equal(to) {
		key := current.String()
		if visited[key] {
			return nil, fmt.Errorf("%w: %s revisits %s", ErrCycle, templateID, key)
		}
		visited[key] = true

		step := p.migrations.Next(templateID, current)
		if step == nil {
			return nil, fmt.Errorf("%w: %s has no migration from %s towards %s",
				ErrNoPath, templateID, key, to)
		}

		steps = append(steps, step)
		current = step.ToVersion
		if current.Compare(to) > 0 {
			return nil, fmt.Errorf("%w: %s jumps from %s to %s past %s",
				ErrOvershoot, templateID, step.FromVersion, current, to)
		}
	}

	path := &Path{
		TemplateID: templateID,
		From:       from,
		To:         to,
		Steps:      steps,
		Reversible: true,
	}
	for _, step := range steps {
		path.Reversible = path.Reversible && step.Reversible
		path.TotalDuration += step.EstimatedDuration
	}

	log.Debug(log.CatMigrate, "discovered migration path",
		"template", templateID, "from", from.String(), "to", to.String(), "steps", len(steps))
	return path, nil
}
