package manifest

import (
	"context"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/templar/internal/document"
	"github.com/zjrosen/templar/internal/migration"
	"github.com/zjrosen/templar/internal/registry"
	"github.com/zjrosen/templar/internal/semver"
)

const validManifest = `
templates:
  - id: web
    versions:
      - version: 1.0.0
        release_date: "2026-01-01"
      - version: 1.1.0
        release_date: "2026-02-01"
        compatible_with: ">=1.0.0"
      - version: 2.0.0
        release_date: "2026-03-01"
        deprecated:
          message: use the api template
          replaced_by: api

requirements:
  web:
    - "^1.0.0"
    - ">=1.1.0"

migrations:
  - id: web-1.0.0-to-1.1.0
    template: web
    from: 1.0.0
    to: 1.1.0
    description: split server block
    estimated_duration: 5s
    ops:
      - op: set
        path: server.port
        value: 8080
      - op: rename
        from: host
        to: server.host
  - template: web
    from: 1.1.0
    to: 2.0.0
    ops:
      - op: delete
        path: legacy
`

func manifestFS(content string) fstest.MapFS {
	return fstest.MapFS{
		"templar.yaml": &fstest.MapFile{Data: []byte(content)},
	}
}

func TestLoad(t *testing.T) {
	m, err := Load(manifestFS(validManifest), "templar.yaml")
	require.NoError(t, err)
	require.Len(t, m.Templates, 1)
	require.Len(t, m.Templates[0].Versions, 3)
	require.Len(t, m.Migrations, 2)
	require.Len(t, m.Requirements["web"], 2)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(fstest.MapFS{}, "templar.yaml")
	require.Error(t, err)
}

func TestLoad_BrokenYAML(t *testing.T) {
	_, err := Load(manifestFS("templates: ["), "templar.yaml")
	require.ErrorContains(t, err, "parse")
}

func TestLoad_EmptyManifest(t *testing.T) {
	_, err := Load(manifestFS("requirements: {}"), "templar.yaml")
	require.ErrorIs(t, err, ErrEmptyManifest)
}

func TestApply_RegistersEverything(t *testing.T) {
	m, err := Load(manifestFS(validManifest), "templar.yaml")
	require.NoError(t, err)

	versions := registry.NewRegistry()
	migrations := migration.NewRegistry()
	require.NoError(t, m.Apply(versions, migrations))

	latest, err := versions.GetLatest("web", false)
	require.NoError(t, err)
	require.Equal(t, "2.0.0", latest.Version.String())
	require.NotNil(t, latest.Deprecated)
	require.Equal(t, "api", latest.Deprecated.ReplacedBy)

	v110, err := versions.Get("web", semver.MustParse("1.1.0"))
	require.NoError(t, err)
	require.NotNil(t, v110.CompatibleWith)

	scripts := migrations.ScriptsFor("web")
	require.Len(t, scripts, 2)
	require.Equal(t, "web-1.0.0-to-1.1.0", scripts[0].ID)
	require.Equal(t, "web-1.1.0-to-2.0.0", scripts[1].ID, "id defaulted from template and versions")
	require.Equal(t, 5*time.Second, scripts[0].EstimatedDuration)
	require.False(t, scripts[0].Reversible)
}

func TestCompiledScript_AppliesOps(t *testing.T) {
	m, err := Load(manifestFS(validManifest), "templar.yaml")
	require.NoError(t, err)

	versions := registry.NewRegistry()
	migrations := migration.NewRegistry()
	require.NoError(t, m.Apply(versions, migrations))

	script := migrations.ScriptsFor("web")[0]
	in := document.Document{"host": "example.com", "legacy": true}
	result, err := script.Migrate(context.Background(), in)
	require.NoError(t, err)
	require.True(t, result.Success)

	server := result.Doc["server"].(map[string]any)
	require.Equal(t, 8080, server["port"])
	require.Equal(t, "example.com", server["host"])
	require.NotContains(t, result.Doc, "host")

	// The incoming document is never mutated.
	require.Equal(t, "example.com", in["host"])
	require.NotContains(t, in, "server")
}

func TestCompiledScript_RenameMissingSourceFails(t *testing.T) {
	m, err := Load(manifestFS(validManifest), "templar.yaml")
	require.NoError(t, err)

	migrations := migration.NewRegistry()
	require.NoError(t, m.Apply(registry.NewRegistry(), migrations))

	script := migrations.ScriptsFor("web")[0]
	result, err := script.Migrate(context.Background(), document.Document{})
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Contains(t, result.Errors[0], `rename source "host" not present`)
}

func TestValidate_CleanManifest(t *testing.T) {
	m, err := Load(manifestFS(validManifest), "templar.yaml")
	require.NoError(t, err)
	require.Empty(t, m.Validate())
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	const broken = `
templates:
  - id: web
    versions:
      - version: not-a-version
  - id: api
    versions: []

requirements:
  web:
    - "^oops"

migrations:
  - id: same-version
    template: web
    from: 1.0.0
    to: 1.0.0
    ops:
      - op: set
        path: x
        value: 1
  - id: bad-op
    template: web
    from: 1.0.0
    to: 1.1.0
    ops:
      - op: explode
        path: x
`
	m, err := Load(manifestFS(broken), "templar.yaml")
	require.NoError(t, err)

	problems := m.Validate()
	require.NotEmpty(t, problems)

	var messages []string
	for _, p := range problems {
		messages = append(messages, p.Error())
	}
	joined := ""
	for _, msg := range messages {
		joined += msg + "\n"
	}
	require.Contains(t, joined, "template web")
	require.Contains(t, joined, "api declares no versions")
	require.Contains(t, joined, "requirement web")
	require.Contains(t, joined, "same-version")
	require.Contains(t, joined, "unknown op")
}

func TestValidate_BrokenChain(t *testing.T) {
	const gap = `
templates:
  - id: web
    versions:
      - version: 1.0.0

migrations:
  - template: web
    from: 1.0.0
    to: 1.1.0
    ops: [{op: set, path: a, value: 1}]
  - template: web
    from: 1.2.0
    to: 2.0.0
    ops: [{op: set, path: b, value: 2}]
`
	m, err := Load(manifestFS(gap), "templar.yaml")
	require.NoError(t, err)

	problems := m.Validate()
	require.Len(t, problems, 1)
	require.ErrorIs(t, problems[0], migration.ErrNoPath)
	require.ErrorContains(t, problems[0], "chain from 1.0.0 to 2.0.0 not walkable")
}

func TestResolverRequirements(t *testing.T) {
	m, err := Load(manifestFS(validManifest), "templar.yaml")
	require.NoError(t, err)

	reqs, err := m.ResolverRequirements()
	require.NoError(t, err)
	require.Len(t, reqs["web"], 2)

	ok, err := reqs["web"][0].Satisfies(semver.MustParse("1.1.0"))
	require.NoError(t, err)
	require.True(t, ok)
}
