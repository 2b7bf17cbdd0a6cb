package manifest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docversions/internal/git"
)

func sampleManifest() *BuildManifest {
	return &BuildManifest{
		ID:        "0b6f3c1e-3c1a-4b39-9a2e-8d5b9e0f0a11",
		Timestamp: time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC),
		Toolchain: "npm",
		Latest:    "latest",
		Source:    git.Source{Commit: "abc123", Branch: "master"},
		Versions: []VersionResult{
			{Version: "26.0.0", Files: 120, Duration: 61000},
			{Version: "latest", Files: 180, Overwritten: 40, Duration: 65000},
		},
		Status:   StatusSuccess,
		Duration: 130000,
	}
}

func TestWriteRead(t *testing.T) {
	dir := t.TempDir()
	m := sampleManifest()

	require.NoError(t, m.Write(dir))
	require.NoFileExists(t, filepath.Join(dir, FileName+".tmp"))

	got, err := Read(dir)
	require.NoError(t, err)
	require.Equal(t, m, got)
	require.Equal(t, []string{"26.0.0", "latest"}, got.VersionNames())
}

func TestJSONFieldNames(t *testing.T) {
	data, err := sampleManifest().ToJSON()
	require.NoError(t, err)
	for _, key := range []string{`"duration_ms"`, `"toolchain"`, `"commit"`, `"overwritten"`} {
		require.Contains(t, string(data), key)
	}
}

func TestReadErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Read(dir)
	require.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("{"), 0o644))
	_, err = Read(dir)
	require.Error(t, err)
}
