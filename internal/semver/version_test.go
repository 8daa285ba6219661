package semver

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParse_Canonical(t *testing.T) {
	v, err := Parse("1.2.3")
	require.NoError(t, err)
	require.Equal(t, 1, v.Major())
	require.Equal(t, 2, v.Minor())
	require.Equal(t, 3, v.Patch())
	require.Empty(t, v.Prerelease())
	require.Empty(t, v.Build())
	require.True(t, v.IsStable())
}

func TestParse_PrereleaseAndBuild(t *testing.T) {
	v, err := Parse("2.0.1-beta.3+linux-amd64")
	require.NoError(t, err)
	require.Equal(t, "beta.3", v.Prerelease())
	require.Equal(t, "linux-amd64", v.Build())
	require.False(t, v.IsStable())
}

func TestParse_Invalid(t *testing.T) {
	for _, text := range []string{
		"", "1", "1.2", "1.2.3.4", "v1.2.3", "1.2.x",
		"-1.2.3", "1.2.3-", "1.2.3+", "1.2.3-beta..1", "1.2.3 ",
	} {
		_, err := Parse(text)
		require.ErrorIs(t, err, ErrInvalidVersion, "input %q should not parse", text)
	}
}

// TestString_RoundTrip verifies String is the exact inverse of Parse for
// generated valid version strings.
func TestString_RoundTrip(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		text := rapid.StringMatching(`(0|[1-9]\d{0,2})\.(0|[1-9]\d{0,2})\.(0|[1-9]\d{0,2})(-[0-9a-zA-Z]{1,5}(\.[0-9a-zA-Z]{1,5}){0,2})?(\+[0-9a-zA-Z-]{1,8})?`).Draw(r, "version")
		v, err := Parse(text)
		if err != nil {
			r.Fatalf("generated version %q failed to parse: %v", text, err)
		}
		if v.String() != text {
			r.Fatalf("round-trip mismatch: %q -> %q", text, v.String())
		}
	})
}

// TestCompare_TotalOrder verifies antisymmetry, reflexivity, and transitivity
// over generated version triples.
func TestCompare_TotalOrder(t *testing.T) {
	gen := rapid.Custom(func(r *rapid.T) Version {
		pre := rapid.SampledFrom([]string{"", "alpha", "alpha.1", "beta.2", "beta.10", "rc.1", "1", "10"}).Draw(r, "pre")
		return New(
			rapid.IntRange(0, 3).Draw(r, "major"),
			rapid.IntRange(0, 3).Draw(r, "minor"),
			rapid.IntRange(0, 3).Draw(r, "patch"),
			pre, "")
	})

	rapid.Check(t, func(r *rapid.T) {
		a := gen.Draw(r, "a")
		b := gen.Draw(r, "b")
		c := gen.Draw(r, "c")

		if a.Compare(a) != 0 {
			r.Fatalf("compare(v, v) != 0 for %s", a)
		}
		if a.Compare(b) != -b.Compare(a) {
			r.Fatalf("antisymmetry violated for %s, %s", a, b)
		}
		if a.Compare(b) <= 0 && b.Compare(c) <= 0 && a.Compare(c) > 0 {
			r.Fatalf("transitivity violated for %s <= %s <= %s", a, b, c)
		}
	})
}

func TestCompare_NumericPrecedence(t *testing.T) {
	require.Equal(t, 1, MustParse("2.0.0").Compare(MustParse("1.9.9")))
	require.Equal(t, 1, MustParse("1.1.0").Compare(MustParse("1.0.9")))
	require.Equal(t, -1, MustParse("1.0.1").Compare(MustParse("1.0.2")))
}

func TestCompare_StableAbovePrerelease(t *testing.T) {
	require.Equal(t, 1, MustParse("1.0.0").Compare(MustParse("1.0.0-alpha")))
	require.Equal(t, -1, MustParse("1.0.0-rc.1").Compare(MustParse("1.0.0")))
}

// Numeric prerelease identifiers compare numerically, not lexicographically.
func TestCompare_NumericPrereleaseIdentifiers(t *testing.T) {
	require.Equal(t, -1, MustParse("1.0.0-beta.2").Compare(MustParse("1.0.0-beta.10")))
	require.Equal(t, 1, MustParse("1.0.0-beta.11").Compare(MustParse("1.0.0-beta.9")))
}

func TestCompare_AlphanumericPrereleaseIdentifiers(t *testing.T) {
	require.Equal(t, -1, MustParse("1.0.0-alpha").Compare(MustParse("1.0.0-beta")))
	require.Equal(t, 0, MustParse("1.0.0-alpha.1").Compare(MustParse("1.0.0-alpha.1")))
}

// A prerelease that runs out of identifiers before the other ranks lower.
func TestCompare_ShorterPrereleaseIsLess(t *testing.T) {
	require.Equal(t, -1, MustParse("1.0.0-alpha").Compare(MustParse("1.0.0-alpha.1")))
}

func TestCompare_BuildMetadataIgnored(t *testing.T) {
	require.True(t, MustParse("1.0.0+build.1").Equal(MustParse("1.0.0+build.2")))
	require.True(t, MustParse("1.0.0-rc.1+a").Equal(MustParse("1.0.0-rc.1+b")))
}

func TestMustParse_PanicsOnInvalid(t *testing.T) {
	require.Panics(t, func() { MustParse("not-a-version") })
}
