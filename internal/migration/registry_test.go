package migration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/templar/internal/semver"
)

func chainStep(id, from, to string) *Script {
	return &Script{
		ID:          id,
		FromVersion: semver.MustParse(from),
		ToVersion:   semver.MustParse(to),
		Migrate:     noopMigrate,
	}
}

func TestRegistry_RegisterSortsAscendingBySource(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("web", chainStep("c", "1.2.0", "2.0.0")))
	require.NoError(t, reg.Register("web", chainStep("a", "1.0.0", "1.1.0")))
	require.NoError(t, reg.Register("web", chainStep("b", "1.1.0", "1.2.0")))

	scripts := reg.ScriptsFor("web")
	require.Len(t, scripts, 3)
	require.Equal(t, []string{"a", "b", "c"}, []string{scripts[0].ID, scripts[1].ID, scripts[2].ID})
}

func TestRegistry_RegisterNil(t *testing.T) {
	reg := NewRegistry()
	require.ErrorIs(t, reg.Register("web", nil), ErrNilScript)
}

// The first registered edge from a version wins for pathfinding.
func TestRegistry_FirstEdgeWins(t *testing.T) {
	reg := NewRegistry()
	first := chainStep("first", "1.0.0", "1.1.0")
	second := chainStep("second", "1.0.0", "1.2.0")
	require.NoError(t, reg.Register("web", first))
	require.NoError(t, reg.Register("web", second))

	next := reg.Next("web", semver.MustParse("1.0.0"))
	require.Same(t, first, next)

	// Both still appear in the listing.
	require.Len(t, reg.ScriptsFor("web"), 2)
}

func TestRegistry_NextUnknown(t *testing.T) {
	reg := NewRegistry()
	require.Nil(t, reg.Next("web", semver.MustParse("1.0.0")))

	require.NoError(t, reg.Register("web", chainStep("a", "1.0.0", "1.1.0")))
	require.Nil(t, reg.Next("web", semver.MustParse("9.9.9")))
	require.Nil(t, reg.Next("other", semver.MustParse("1.0.0")))
}

func TestRegistry_TemplateIDsSorted(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("zeta", chainStep("z", "1.0.0", "1.1.0")))
	require.NoError(t, reg.Register("alpha", chainStep("a", "1.0.0", "1.1.0")))
	require.Equal(t, []string{"alpha", "zeta"}, reg.TemplateIDs())
}

func TestRegistry_Clear(t *testing.T) {
	reg := NewRegistry()
	step := chainStep("a", "1.0.0", "1.1.0")
	step.EstimatedDuration = time.Second
	require.NoError(t, reg.Register("web", step))
	require.True(t, reg.Has("web"))

	reg.Clear()
	require.False(t, reg.Has("web"))
	require.Nil(t, reg.ScriptsFor("web"))
	require.Nil(t, reg.Next("web", semver.MustParse("1.0.0")))
}
