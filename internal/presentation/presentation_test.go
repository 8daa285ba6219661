package presentation

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/templar/internal/document"
	"github.com/zjrosen/templar/internal/history"
	"github.com/zjrosen/templar/internal/migration"
	"github.com/zjrosen/templar/internal/registry"
	"github.com/zjrosen/templar/internal/resolver"
	"github.com/zjrosen/templar/internal/semver"
)

func TestNewTemplateDTO(t *testing.T) {
	reg := registry.NewRegistry()
	require.NoError(t, reg.Register(&registry.TemplateVersion{
		TemplateID: "web", Version: semver.MustParse("1.0.0"), ReleaseDate: "2026-01-01",
	}))
	require.NoError(t, reg.Register(&registry.TemplateVersion{
		TemplateID: "web", Version: semver.MustParse("2.0.0-rc.1"),
		Deprecated: &registry.Deprecation{Message: "rc line abandoned"},
	}))

	entry, err := reg.Entry("web")
	require.NoError(t, err)

	dto := NewTemplateDTO(entry)
	require.Equal(t, "web", dto.TemplateID)
	require.Equal(t, "2.0.0-rc.1", dto.Latest)
	require.Equal(t, "1.0.0", dto.LatestStable)
	require.Len(t, dto.Versions, 2)
	require.True(t, dto.Versions[0].Latest)
	require.False(t, dto.Versions[0].LatestStable)
	require.NotNil(t, dto.Versions[0].Deprecated)
	require.True(t, dto.Versions[1].LatestStable)
}

func TestNewResolutionDTO(t *testing.T) {
	result := resolver.Result{
		Success: false,
		Resolved: map[string]*registry.TemplateVersion{
			"web": {TemplateID: "web", Version: semver.MustParse("1.5.0")},
		},
		Conflicts: []resolver.Conflict{
			{TemplateID: "api", Ranges: []semver.Range{semver.Expr("^2.0.0")}},
		},
		Warnings: []string{"web@1.5.0 is deprecated: old"},
	}

	dto := NewResolutionDTO(result)
	require.False(t, dto.Success)
	require.Equal(t, "1.5.0", dto.Resolved["web"])
	require.Equal(t, []string{"^2.0.0"}, dto.Conflicts[0].Ranges)
	require.Len(t, dto.Warnings, 1)
}

func TestNewMigrationDTO(t *testing.T) {
	dto := NewMigrationDTO(migration.Result{
		Success:       true,
		StepsApplied:  3,
		ExecutionTime: 1500 * time.Millisecond,
		BackupPath:    "/tmp/web_backup.json",
	})
	require.True(t, dto.Success)
	require.Equal(t, 3, dto.StepsApplied)
	require.Equal(t, int64(1500), dto.ExecutionTimeMS)
	require.Equal(t, "/tmp/web_backup.json", dto.BackupPath)
}

func TestNewRunDTO(t *testing.T) {
	run := history.ReconstituteRun(7, "run-1", "web", "1.0.0", "2.0.0",
		true, 2, nil, []string{"defaulted"}, "/tmp/b.json",
		250*time.Millisecond, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	dto := NewRunDTO(run)
	require.Equal(t, "run-1", dto.GUID)
	require.Equal(t, int64(250), dto.DurationMS)
	require.Equal(t, "2026-03-01T12:00:00Z", dto.CreatedAt)
}

func TestWriteJSON_TwoSpaceIndent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, map[string]any{"a": 1}))
	require.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}

func TestDocumentDiff(t *testing.T) {
	before := document.Document{"name": "web", "port": 80}
	after := document.Document{"name": "web", "port": 8080, "tls": true}

	diff, err := DocumentDiff(before, after)
	require.NoError(t, err)
	require.Contains(t, diff, `- `)
	require.Contains(t, diff, `+ `)
	require.Contains(t, diff, `8080`)
	require.Contains(t, diff, `tls`)

	for _, line := range strings.Split(strings.TrimSuffix(diff, "\n"), "\n") {
		require.GreaterOrEqual(t, len(line), 2)
		require.Contains(t, []string{"- ", "+ ", "  "}, line[:2])
	}
}

func TestDocumentDiff_IdenticalDocuments(t *testing.T) {
	doc := document.Document{"name": "web"}
	diff, err := DocumentDiff(doc, doc.Clone())
	require.NoError(t, err)
	require.Empty(t, diff)
}
