package integration

import (
	"context"
	"flag"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docversions/internal/manifest"
	"git.home.luguber.info/inful/docversions/internal/orchestrator"
	"git.home.luguber.info/inful/docversions/internal/testutil"
)

var updateGolden = flag.Bool("update-golden", false, "Update golden files")

type goldenCase struct {
	versions []string
	extra    map[string]map[string]string
}

func runGoldenTest(t *testing.T, tc goldenCase, goldenDir string) {
	t.Helper()

	site := setupSite(t)
	runner := testutil.NewFakeRunner(site)
	runner.Extra = tc.extra

	orch, err := orchestrator.New(site.Config(), runner)
	require.NoError(t, err)
	_, err = orch.Run(context.Background(), tc.versions, orchestrator.Options{Toolchain: "npm", SkipInstall: true})
	require.NoError(t, err)

	site.Assert().AssertFileEquals("redirects.js", testutil.DefaultRedirects)

	out := site.Path("build")
	verifyGolden(t, digestTree(t, out, manifest.FileName), goldenDir+"/tree.golden.json", *updateGolden)

	m, err := manifest.Read(out)
	require.NoError(t, err)
	require.Equal(t, "master", m.Source.Branch)
	normalizeManifest(m)
	verifyGolden(t, m, goldenDir+"/manifest.golden.json", *updateGolden)
}

// TestGolden_ThreeVersions verifies:
// - versions are merged in lexicographic order with latest on top
// - files only an older version produced survive the merge
// - per-version merge counts in the manifest.
func TestGolden_ThreeVersions(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping golden test in short mode")
	}

	runGoldenTest(t, goldenCase{
		versions: []string{"latest", "26.0.0", "9.0.0"},
		extra: map[string]map[string]string{
			"9.0.0":  {"legacy/only.html": "legacy\n", "assets/site.css": "v9\n"},
			"latest": {"assets/site.css": "latest\n"},
		},
	}, "../testdata/golden/three-versions")
}

// TestGolden_LatestOnly verifies a single latest build passes through unchanged.
func TestGolden_LatestOnly(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping golden test in short mode")
	}

	runGoldenTest(t, goldenCase{versions: []string{"latest"}}, "../testdata/golden/latest-only")
}
