// Package manifest loads templar.yaml: declared template versions,
// resolution requirement sets, and declarative migration steps compiled into
// executor scripts.
package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/templar/internal/log"
	"github.com/zjrosen/templar/internal/migration"
	"github.com/zjrosen/templar/internal/registry"
	"github.com/zjrosen/templar/internal/resolver"
	"github.com/zjrosen/templar/internal/semver"
)

// ErrEmptyManifest is returned when the manifest declares nothing to register.
var ErrEmptyManifest = errors.New("manifest declares no templates and no migrations")

// Manifest is the root structure for templar.yaml.
type Manifest struct {
	Templates    []TemplateDef       `yaml:"templates"`
	Requirements map[string][]string `yaml:"requirements"`
	Migrations   []MigrationDef      `yaml:"migrations"`
}

// TemplateDef declares one template and its published versions.
type TemplateDef struct {
	ID       string       `yaml:"id"`
	Versions []VersionDef `yaml:"versions"`
}

// VersionDef declares a single published version of a template.
type VersionDef struct {
	Version        string            `yaml:"version"`
	ReleaseDate    string            `yaml:"release_date"`
	CompatibleWith string            `yaml:"compatible_with"` // range expression, optional
	MigrationFrom  map[string]string `yaml:"migration_from"`
	Deprecated     *DeprecationDef   `yaml:"deprecated"`
}

// DeprecationDef marks a version as superseded.
type DeprecationDef struct {
	Message    string `yaml:"message"`
	ReplacedBy string `yaml:"replaced_by"`
}

// MigrationDef declares one migration step as a sequence of document ops.
type MigrationDef struct {
	ID          string `yaml:"id"`
	Template    string `yaml:"template"`
	From        string `yaml:"from"`
	To          string `yaml:"to"`
	Description string `yaml:"description"`
	Duration    string `yaml:"estimated_duration"` // Go duration string, optional
	Ops         []Op   `yaml:"ops"`
}

// Load reads and parses a manifest from the filesystem. Parsing is lenient
// about content (Validate reports semantic problems); only unreadable or
// syntactically broken YAML fails here.
func Load(fsys fs.FS, path string) (*Manifest, error) {
	content, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(content, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(m.Templates) == 0 && len(m.Migrations) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyManifest, path)
	}

	log.Debug(log.CatManifest, "manifest loaded",
		"path", path, "templates", len(m.Templates), "migrations", len(m.Migrations))
	return &m, nil
}

// Apply registers every declared version and migration into the given
// registries. The manifest should be validated first; Apply stops at the
// first registration failure.
func (m *Manifest) Apply(versions *registry.Registry, migrations *migration.Registry) error {
	for _, tpl := range m.Templates {
		for _, def := range tpl.Versions {
			tv, err := buildTemplateVersion(tpl.ID, def)
			if err != nil {
				return fmt.Errorf("template %s: %w", tpl.ID, err)
			}
			if err := versions.Register(tv); err != nil {
				return fmt.Errorf("template %s: %w", tpl.ID, err)
			}
		}
	}

	for _, def := range m.Migrations {
		script, err := buildScript(def)
		if err != nil {
			return fmt.Errorf("migration %s: %w", def.ID, err)
		}
		if err := migrations.Register(def.Template, script); err != nil {
			return fmt.Errorf("migration %s: %w", def.ID, err)
		}
	}
	return nil
}

// ResolverRequirements converts the manifest's requirements block into
// resolver input, parsing each entry as a range expression.
func (m *Manifest) ResolverRequirements() (resolver.Requirements, error) {
	reqs := make(resolver.Requirements, len(m.Requirements))
	for templateID, exprs := range m.Requirements {
		ranges := make([]semver.Range, 0, len(exprs))
		for _, expr := range exprs {
			rng := semver.Expr(expr)
			if err := rng.Validate(); err != nil {
				return nil, fmt.Errorf("requirement %s (%s): %w", templateID, expr, err)
			}
			ranges = append(ranges, rng)
		}
		reqs[templateID] = ranges
	}
	return reqs, nil
}

// Validate returns every semantic problem in the manifest: unparsable version
// strings and ranges, invalid scripts, and migration chains that cannot be
// walked end to end.
func (m *Manifest) Validate() []error {
	var problems []error

	for _, tpl := range m.Templates {
		if tpl.ID == "" {
			problems = append(problems, errors.New("template with empty id"))
			continue
		}
		if len(tpl.Versions) == 0 {
			problems = append(problems, fmt.Errorf("template %s declares no versions", tpl.ID))
		}
		for _, def := range tpl.Versions {
			if _, err := buildTemplateVersion(tpl.ID, def); err != nil {
				problems = append(problems, fmt.Errorf("template %s: %w", tpl.ID, err))
			}
		}
	}

	if _, err := m.ResolverRequirements(); err != nil {
		problems = append(problems, err)
	}

	migrations := migration.NewRegistry()
	for _, def := range m.Migrations {
		script, err := buildScript(def)
		if err != nil {
			problems = append(problems, fmt.Errorf("migration %s: %w", def.ID, err))
			continue
		}
		for _, verr := range migration.ValidateScript(script) {
			problems = append(problems, fmt.Errorf("migration %s: %w", def.ID, verr))
		}
		if def.Template == "" {
			problems = append(problems, fmt.Errorf("migration %s: empty template id", def.ID))
			continue
		}
		if err := migrations.Register(def.Template, script); err != nil {
			problems = append(problems, fmt.Errorf("migration %s: %w", def.ID, err))
		}
	}

	problems = append(problems, m.validateChains(migrations)...)
	return problems
}

// validateChains checks that each template's declared steps form one walkable
// chain from its lowest source version to its highest target version.
func (m *Manifest) validateChains(migrations *migration.Registry) []error {
	var problems []error
	pathfinder := migration.NewPathfinder(migrations)

	for _, templateID := range migrations.TemplateIDs() {
		scripts := migrations.ScriptsFor(templateID)
		if len(scripts) == 0 {
			continue
		}

		from := scripts[0].FromVersion
		to := scripts[0].ToVersion
		for _, s := range scripts[1:] {
			if s.ToVersion.GreaterThan(to) {
				to = s.ToVersion
			}
		}

		if _, err := pathfinder.FindPath(templateID, from, to); err != nil {
			problems = append(problems, fmt.Errorf("template %s: chain from %s to %s not walkable: %w",
				templateID, from, to, err))
		}
	}
	return problems
}

// buildTemplateVersion converts a VersionDef into a registry entry.
func buildTemplateVersion(templateID string, def VersionDef) (*registry.TemplateVersion, error) {
	v, err := semver.Parse(def.Version)
	if err != nil {
		return nil, err
	}

	tv := &registry.TemplateVersion{
		TemplateID:    templateID,
		Version:       v,
		MigrationFrom: def.MigrationFrom,
		ReleaseDate:   def.ReleaseDate,
	}
	if def.CompatibleWith != "" {
		rng := semver.Expr(def.CompatibleWith)
		if err := rng.Validate(); err != nil {
			return nil, fmt.Errorf("compatible_with %q: %w", def.CompatibleWith, err)
		}
		tv.CompatibleWith = &rng
	}
	if def.Deprecated != nil {
		tv.Deprecated = &registry.Deprecation{
			Message:    def.Deprecated.Message,
			ReplacedBy: def.Deprecated.ReplacedBy,
		}
	}
	return tv, nil
}

// buildScript compiles a MigrationDef into an executor script. Declarative
// scripts are never reversible; snapshot rollback is the restore path.
func buildScript(def MigrationDef) (*migration.Script, error) {
	from, err := semver.Parse(def.From)
	if err != nil {
		return nil, fmt.Errorf("from %q: %w", def.From, err)
	}
	to, err := semver.Parse(def.To)
	if err != nil {
		return nil, fmt.Errorf("to %q: %w", def.To, err)
	}

	var duration time.Duration
	if def.Duration != "" {
		duration, err = time.ParseDuration(def.Duration)
		if err != nil {
			return nil, fmt.Errorf("estimated_duration %q: %w", def.Duration, err)
		}
	}

	for i, op := range def.Ops {
		if err := op.validate(); err != nil {
			return nil, fmt.Errorf("op %d: %w", i, err)
		}
	}

	id := def.ID
	if id == "" {
		id = fmt.Sprintf("%s-%s-to-%s", def.Template, def.From, def.To)
	}

	return &migration.Script{
		ID:                id,
		FromVersion:       from,
		ToVersion:         to,
		Description:       def.Description,
		Migrate:           compileOps(def.Ops),
		EstimatedDuration: duration,
		Reversible:        false,
	}, nil
}
