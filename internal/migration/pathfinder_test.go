package migration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/templar/internal/semver"
)

// buildChain registers 1.0.0 -> 1.1.0 -> 1.2.0 -> 2.0.0 for "web".
func buildChain(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	for _, edge := range []struct {
		id, from, to string
		duration     time.Duration
		reversible   bool
	}{
		{"web-1.0.0-to-1.1.0", "1.0.0", "1.1.0", 2 * time.Second, true},
		{"web-1.1.0-to-1.2.0", "1.1.0", "1.2.0", 3 * time.Second, true},
		{"web-1.2.0-to-2.0.0", "1.2.0", "2.0.0", 5 * time.Second, false},
	} {
		script := chainStep(edge.id, edge.from, edge.to)
		script.EstimatedDuration = edge.duration
		script.Reversible = edge.reversible
		if edge.reversible {
			script.Rollback = noopRollback
		}
		require.NoError(t, reg.Register("web", script))
	}
	return reg
}

func TestFindPath_FullChain(t *testing.T) {
	finder := NewPathfinder(buildChain(t))

	path, err := finder.FindPath("web", semver.MustParse("1.0.0"), semver.MustParse("2.0.0"))
	require.NoError(t, err)
	require.Len(t, path.Steps, 3)
	require.Equal(t, "web-1.0.0-to-1.1.0", path.Steps[0].ID)
	require.Equal(t, "web-1.2.0-to-2.0.0", path.Steps[2].ID)
	require.Equal(t, 10*time.Second, path.TotalDuration)
	require.False(t, path.Reversible, "one non-reversible step makes the path non-reversible")
}

func TestFindPath_PartialChain(t *testing.T) {
	finder := NewPathfinder(buildChain(t))

	path, err := finder.FindPath("web", semver.MustParse("1.0.0"), semver.MustParse("1.2.0"))
	require.NoError(t, err)
	require.Len(t, path.Steps, 2)
	require.True(t, path.Reversible)
	require.Equal(t, 5*time.Second, path.TotalDuration)
}

func TestFindPath_SameVersionIsEmptyPath(t *testing.T) {
	finder := NewPathfinder(buildChain(t))

	path, err := finder.FindPath("web", semver.MustParse("1.1.0"), semver.MustParse("1.1.0"))
	require.NoError(t, err)
	require.Empty(t, path.Steps)
	require.True(t, path.Reversible)
	require.Zero(t, path.TotalDuration)
}

func TestFindPath_MissingLink(t *testing.T) {
	finder := NewPathfinder(buildChain(t))

	path, err := finder.FindPath("web", semver.MustParse("2.0.0"), semver.MustParse("3.0.0"))
	require.Nil(t, path)
	require.ErrorIs(t, err, ErrNoPath)
}

func TestFindPath_UnknownTemplate(t *testing.T) {
	finder := NewPathfinder(buildChain(t))

	path, err := finder.FindPath("ghost", semver.MustParse("1.0.0"), semver.MustParse("2.0.0"))
	require.Nil(t, path)
	require.ErrorIs(t, err, ErrNoMigrations)
}

func TestFindPath_Overshoot(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("web", chainStep("jump", "1.0.0", "2.0.0")))
	finder := NewPathfinder(reg)

	path, err := finder.FindPath("web", semver.MustParse("1.0.0"), semver.MustParse("1.5.0"))
	require.Nil(t, path)
	require.ErrorIs(t, err, ErrOvershoot)
}

// Unvalidated scripts can form loops; the visited guard catches them.
func TestFindPath_Cycle(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("web", chainStep("fwd", "1.0.0", "1.1.0")))
	require.NoError(t, reg.Register("web", chainStep("back", "1.1.0", "1.0.0")))
	finder := NewPathfinder(reg)

	path, err := finder.FindPath("web", semver.MustParse("1.0.0"), semver.MustParse("2.0.0"))
	require.Nil(t, path)
	require.ErrorIs(t, err, ErrCycle)
}
