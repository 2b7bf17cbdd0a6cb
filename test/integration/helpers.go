package integration

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docversions/internal/config"
	"git.home.luguber.info/inful/docversions/internal/manifest"
	"git.home.luguber.info/inful/docversions/internal/testutil"
)

// TreeDigest maps slash separated paths below a directory to content hashes.
type TreeDigest map[string]string

// setupSite creates a site project committed to a fresh git repository so the
// manifest can record its source revision.
func setupSite(t *testing.T) *testutil.Site {
	t.Helper()

	site := testutil.NewSite(t)
	_, w := testutil.InitGitRepo(t, site.Root)
	testutil.CommitFile(t, w, config.DefaultRedirectsFile, testutil.DefaultRedirects)
	testutil.CommitFile(t, w, config.DefaultSiteConfigFile, testutil.DefaultSiteConfig)
	return site
}

// digestTree hashes every regular file below root except the names in skip.
func digestTree(t *testing.T, root string, skip ...string) TreeDigest {
	t.Helper()

	digest := TreeDigest{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if slices.Contains(skip, rel) {
			return nil
		}
		// #nosec G304 -- test utility with paths from test setup, not user input
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		sum := sha256.Sum256(data)
		digest[rel] = hex.EncodeToString(sum[:])
		return nil
	})
	require.NoError(t, err, "failed to digest %s", root)
	return digest
}

// normalizeManifest clears the fields that differ between runs.
func normalizeManifest(m *manifest.BuildManifest) {
	m.ID = ""
	m.Timestamp = time.Time{}
	m.Duration = 0
	if m.Source.Commit != "" {
		m.Source.Commit = "<commit>"
	}
	for i := range m.Versions {
		m.Versions[i].Duration = 0
	}
}

// verifyGolden compares actual, encoded as JSON, with the golden file.
func verifyGolden(t *testing.T, actual any, goldenPath string, updateGolden bool) {
	t.Helper()

	data, err := json.MarshalIndent(actual, "", "  ")
	require.NoError(t, err)
	data = append(data, '\n')

	if updateGolden {
		require.NoError(t, os.MkdirAll(filepath.Dir(goldenPath), 0o750))
		require.NoError(t, os.WriteFile(goldenPath, data, 0o600))
		t.Logf("Updated golden file %s", goldenPath)
		return
	}

	// #nosec G304 -- golden path is a test constant
	expected, err := os.ReadFile(goldenPath)
	require.NoError(t, err, "golden file missing, run with -update-golden")
	require.JSONEq(t, string(expected), string(data), "output differs from %s", goldenPath)
}
