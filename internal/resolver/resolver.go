// Package resolver picks one registered version per template such that every
// requested range for that template holds simultaneously, reporting conflicts
// as values rather than errors.
package resolver

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/zjrosen/templar/internal/cachemanager"
	"github.com/zjrosen/templar/internal/log"
	"github.com/zjrosen/templar/internal/registry"
	"github.com/zjrosen/templar/internal/semver"
)

// Requirements maps template ids to the ranges that must all hold for the
// chosen version of that template.
type Requirements map[string][]semver.Range

// Conflict records a template for which no registered version satisfied every
// requested range, or which is not registered at all.
type Conflict struct {
	TemplateID string
	Ranges     []semver.Range
}

func (c Conflict) String() string {
	parts := make([]string, len(c.Ranges))
	for i, r := range c.Ranges {
		parts[i] = r.String()
	}
	return fmt.Sprintf("%s: no version satisfies [%s]", c.TemplateID, strings.Join(parts, ", "))
}

// Result is the outcome of one resolution pass. Success is true iff no
// template produced a conflict; on success Resolved holds exactly one version
// per requested template.
type Result struct {
	Success   bool
	Resolved  map[string]*registry.TemplateVersion
	Conflicts []Conflict
	Warnings  []string
}

// Options configures a Resolver.
type Options struct {
	// IncludePrerelease admits prerelease versions as resolution candidates.
	IncludePrerelease bool

	// Cache memoizes resolution results keyed on the registry generation and
	// the requirement set; nil disables caching.
	Cache    cachemanager.CacheManager[string, Result]
	CacheTTL time.Duration
}

// Resolver scans each template's registered versions in descending order and
// picks the first one satisfying every requested range. Ties are broken by
// recency, never by explicit priority.
type Resolver struct {
	versions registry.Provider
	opts     Options
}

// NewResolver creates a resolver over the given version registry.
func NewResolver(versions registry.Provider, opts Options) *Resolver {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = cachemanager.DefaultExpiration
	}
	return &Resolver{versions: versions, opts: opts}
}

// Resolve evaluates the requirements against the current registry contents.
// Unsatisfiable templates land in Result.Conflicts; the only error return is
// a malformed range expression, which propagates semver.ErrInvalidVersion.
func (r *Resolver) Resolve(ctx context.Context, reqs Requirements) (Result, error) {
	for templateID, ranges := range reqs {
		for _, rng := range ranges {
			if err := rng.Validate(); err != nil {
				return Result{}, fmt.Errorf("requirement %s (%s): %w", templateID, rng, err)
			}
		}
	}

	key := r.cacheKey(reqs)
	if r.opts.Cache != nil {
		if cached, ok := r.opts.Cache.Get(ctx, key); ok {
			return cached, nil
		}
	}

	result := Result{Resolved: make(map[string]*registry.TemplateVersion)}

	ids := make([]string, 0, len(reqs))
	for id := range reqs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, templateID := range ids {
		ranges := reqs[templateID]
		picked := r.pick(templateID, ranges)
		if picked == nil {
			result.Conflicts = append(result.Conflicts, Conflict{TemplateID: templateID, Ranges: ranges})
			log.Warn(log.CatResolver, "resolution conflict", "template", templateID, "ranges", len(ranges))
			continue
		}

		result.Resolved[templateID] = picked
		if dep := picked.Deprecated; dep != nil {
			warning := fmt.Sprintf("%s@%s is deprecated: %s", templateID, picked.Version, dep.Message)
			if dep.ReplacedBy != "" {
				warning += fmt.Sprintf(" (replaced by %s)", dep.ReplacedBy)
			}
			result.Warnings = append(result.Warnings, warning)
		}
	}

	result.Success = len(result.Conflicts) == 0
	if r.opts.Cache != nil {
		r.opts.Cache.Set(ctx, key, result, r.opts.CacheTTL)
	}
	log.Debug(log.CatResolver, "resolution finished",
		"templates", len(ids), "conflicts", len(result.Conflicts), "success", result.Success)
	return result, nil
}

// pick returns the highest registered version of templateID that satisfies
// every range, or nil. Prereleases are skipped unless configured in.
func (r *Resolver) pick(templateID string, ranges []semver.Range) *registry.TemplateVersion {
	for _, candidate := range r.versions.Versions(templateID) {
		if !candidate.Version.IsStable() && !r.opts.IncludePrerelease {
			continue
		}
		if satisfiesAll(candidate.Version, ranges) {
			return candidate
		}
	}
	return nil
}

func satisfiesAll(v semver.Version, ranges []semver.Range) bool {
	for _, rng := range ranges {
		// Expressions were validated up front, so Satisfies cannot fail here.
		ok, err := rng.Satisfies(v)
		if err != nil || !ok {
			return false
		}
	}
	return true
}

// cacheKey fingerprints the requirement set plus the registry generation, so
// any registry mutation naturally invalidates prior entries.
func (r *Resolver) cacheKey(reqs Requirements) string {
	ids := make([]string, 0, len(reqs))
	for id := range reqs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString("gen=")
	b.WriteString(strconv.FormatUint(r.versions.Generation(), 10))
	b.WriteString(";pre=")
	b.WriteString(strconv.FormatBool(r.opts.IncludePrerelease))
	for _, id := range ids {
		b.WriteByte(';')
		b.WriteString(id)
		b.WriteByte('=')
		for i, rng := range reqs[id] {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(rng.String())
		}
	}
	return b.String()
}
