package registry

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/templar/internal/semver"
)

func tv(templateID, version string) *TemplateVersion {
	return &TemplateVersion{
		TemplateID:  templateID,
		Version:     semver.MustParse(version),
		ReleaseDate: "2026-01-01",
	}
}

func TestRegister_Validation(t *testing.T) {
	reg := NewRegistry()
	require.ErrorIs(t, reg.Register(nil), ErrNilVersion)
	require.ErrorIs(t, reg.Register(tv("", "1.0.0")), ErrEmptyTemplateID)
}

func TestRegister_SortsDescending(t *testing.T) {
	reg := NewRegistry()
	for _, v := range []string{"1.0.0", "2.0.0", "1.5.0", "2.0.0-beta.1"} {
		require.NoError(t, reg.Register(tv("web", v)))
	}

	versions := reg.Versions("web")
	require.Len(t, versions, 4)
	require.Equal(t, "2.0.0", versions[0].Version.String())
	require.Equal(t, "2.0.0-beta.1", versions[1].Version.String())
	require.Equal(t, "1.5.0", versions[2].Version.String())
	require.Equal(t, "1.0.0", versions[3].Version.String())
}

func TestRegister_DuplicateVersionsCoexist(t *testing.T) {
	reg := NewRegistry()
	first := tv("web", "1.0.0")
	second := tv("web", "1.0.0")
	second.ReleaseDate = "2026-02-01"
	require.NoError(t, reg.Register(first))
	require.NoError(t, reg.Register(second))

	// Both registrations are kept; Get returns the first one registered.
	require.Len(t, reg.Versions("web"), 2)
	got, err := reg.Get("web", semver.MustParse("1.0.0"))
	require.NoError(t, err)
	require.Same(t, first, got)
}

func TestGet_NotFound(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(tv("web", "1.0.0")))

	_, err := reg.Get("web", semver.MustParse("9.9.9"))
	require.ErrorIs(t, err, ErrNotFound)

	_, err = reg.Get("ghost", semver.MustParse("1.0.0"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetLatest(t *testing.T) {
	reg := NewRegistry()
	for _, v := range []string{"1.0.0", "2.0.0", "3.0.0-alpha.1"} {
		require.NoError(t, reg.Register(tv("web", v)))
	}

	stable, err := reg.GetLatest("web", false)
	require.NoError(t, err)
	require.Equal(t, "2.0.0", stable.Version.String())

	latest, err := reg.GetLatest("web", true)
	require.NoError(t, err)
	require.Equal(t, "3.0.0-alpha.1", latest.Version.String())

	_, err = reg.GetLatest("ghost", true)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetLatest_PrereleaseOnly(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(tv("web", "1.0.0-rc.1")))
	require.NoError(t, reg.Register(tv("web", "1.0.0-rc.2")))

	_, err := reg.GetLatest("web", false)
	require.ErrorIs(t, err, ErrNoStableVersion)

	entry, err := reg.Entry("web")
	require.NoError(t, err)
	require.Nil(t, entry.LatestStable)
	require.Equal(t, "1.0.0-rc.2", entry.Latest.String())
}

func TestLatestStable_SetOnFirstStable(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(tv("web", "2.0.0-beta.1")))
	require.NoError(t, reg.Register(tv("web", "1.0.0")))

	entry, err := reg.Entry("web")
	require.NoError(t, err)
	require.NotNil(t, entry.LatestStable)
	require.Equal(t, "1.0.0", entry.LatestStable.String())
	require.Equal(t, "2.0.0-beta.1", entry.Latest.String())
}

func TestTemplateIDs_Sorted(t *testing.T) {
	reg := NewRegistry()
	for _, id := range []string{"worker", "api", "web"} {
		require.NoError(t, reg.Register(tv(id, "1.0.0")))
	}
	require.Equal(t, []string{"api", "web", "worker"}, reg.TemplateIDs())
}

func TestGeneration_IncrementsOnMutation(t *testing.T) {
	reg := NewRegistry()
	require.Zero(t, reg.Generation())

	require.NoError(t, reg.Register(tv("web", "1.0.0")))
	require.Equal(t, uint64(1), reg.Generation())

	reg.Clear()
	require.Equal(t, uint64(2), reg.Generation())
	require.Empty(t, reg.TemplateIDs())
	require.Nil(t, reg.Versions("web"))
}

// Registration order never changes the resulting version ordering or the
// latest markers.
func TestRegister_OrderIndependent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		patches := rapid.SliceOfN(rapid.IntRange(0, 20), 1, 12).Draw(t, "patches")
		pre := rapid.SliceOfN(rapid.Bool(), len(patches), len(patches)).Draw(t, "pre")

		versions := make([]string, len(patches))
		for i, p := range patches {
			versions[i] = fmt.Sprintf("1.%d.0", p)
			if pre[i] {
				versions[i] += "-rc.1"
			}
		}

		sorted := NewRegistry()
		shuffled := NewRegistry()
		for _, v := range versions {
			require.NoError(t, sorted.Register(tv("web", v)))
		}
		perm := rapid.Permutation(versions).Draw(t, "perm")
		for _, v := range perm {
			require.NoError(t, shuffled.Register(tv("web", v)))
		}

		a := sorted.Versions("web")
		b := shuffled.Versions("web")
		require.Len(t, b, len(a))
		for i := range a {
			require.Equal(t, a[i].Version.String(), b[i].Version.String())
		}
		require.True(t, sort.SliceIsSorted(a, func(i, j int) bool {
			return a[i].Version.Compare(a[j].Version) > 0
		}))

		ea, err := sorted.Entry("web")
		require.NoError(t, err)
		eb, err := shuffled.Entry("web")
		require.NoError(t, err)
		require.Equal(t, ea.Latest.String(), eb.Latest.String())
		require.Equal(t, ea.LatestStable == nil, eb.LatestStable == nil)
		if ea.LatestStable != nil {
			require.Equal(t, ea.LatestStable.String(), eb.LatestStable.String())
		}
	})
}
