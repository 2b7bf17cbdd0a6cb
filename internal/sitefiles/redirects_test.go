package sitefiles

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const redirectsFixture = `module.exports = [
  { from: '/docs/latest/ingestion/', to: '/docs/latest/ingestion/index' },
  { from: '/docs/latest/development/', to: '/docs/latest/development/overview' },
  sidebar: "/latest/operations/foo"
];
`

func writeRedirects(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "redirects.js")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readString(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestRewriteRedirects(t *testing.T) {
	out := RewriteRedirects([]byte(`a "/latest/x" b /latest/y latest/z`), "latest", "9.0.0")
	require.Equal(t, `a "/9.0.0/x" b /9.0.0/y latest/z`, string(out))
}

func TestRedirectGuardRoundTrip(t *testing.T) {
	path := writeRedirects(t, redirectsFixture)
	g := NewRedirectGuard(path, "latest")

	require.NoError(t, g.Acquire("9.0.0"))
	require.True(t, g.Dirty())
	during := readString(t, path)
	require.Contains(t, during, `sidebar: "/9.0.0/operations/foo"`)
	require.NotContains(t, during, "/latest/")

	require.NoError(t, g.Release())
	require.False(t, g.Dirty())
	require.Equal(t, redirectsFixture, readString(t, path))

	// Second release is a no-op.
	require.NoError(t, g.Release())
	require.Equal(t, redirectsFixture, readString(t, path))
}

func TestRedirectGuardRestoresWhenVersionAlreadyPresent(t *testing.T) {
	// Reverse substitution would also rewrite the pre-existing /9.0.0/ entry;
	// the snapshot keeps it intact.
	original := "a: '/latest/x'\nb: '/9.0.0/pinned'\n"
	path := writeRedirects(t, original)
	g := NewRedirectGuard(path, "latest")

	require.NoError(t, g.Acquire("9.0.0"))
	require.NoError(t, g.Release())
	require.Equal(t, original, readString(t, path))
}

func TestRedirectGuardLatestIsUntouched(t *testing.T) {
	path := writeRedirects(t, redirectsFixture)
	g := NewRedirectGuard(path, "latest")

	require.NoError(t, g.Acquire("latest"))
	require.False(t, g.Dirty())
	require.Equal(t, redirectsFixture, readString(t, path))
	require.NoError(t, g.Release())
}

func TestRedirectGuardRejectsDoubleAcquire(t *testing.T) {
	path := writeRedirects(t, redirectsFixture)
	g := NewRedirectGuard(path, "latest")

	require.NoError(t, g.Acquire("1.0.0"))
	require.Error(t, g.Acquire("2.0.0"))
	require.NoError(t, g.Release())
	require.Equal(t, redirectsFixture, readString(t, path))
}

func TestRedirectGuardMissingFile(t *testing.T) {
	g := NewRedirectGuard(filepath.Join(t.TempDir(), "redirects.js"), "latest")
	require.Error(t, g.Acquire("1.0.0"))
	require.False(t, g.Dirty())
	require.NoError(t, g.Release())
}
