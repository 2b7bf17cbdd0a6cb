package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/docversions/internal/git"
)

// FileName is the manifest's name inside the promoted output directory.
const FileName = "docversions-manifest.json"

// Status values recorded in a manifest.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// BuildManifest records what a run built and from which sources.
type BuildManifest struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Toolchain string          `json:"toolchain"`
	Latest    string          `json:"latest"`
	Source    git.Source      `json:"source"`
	Versions  []VersionResult `json:"versions"`
	Status    string          `json:"status"`
	Duration  int64           `json:"duration_ms"`
}

// VersionResult describes one version's contribution to the merged tree.
type VersionResult struct {
	Version     string `json:"version"`
	Files       int    `json:"files"`
	Overwritten int    `json:"overwritten"`
	Duration    int64  `json:"duration_ms"`
}

// ToJSON serializes the manifest to JSON.
func (m *BuildManifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*BuildManifest, error) {
	var m BuildManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}

// VersionNames returns the versions in build order.
func (m *BuildManifest) VersionNames() []string {
	names := make([]string, len(m.Versions))
	for i, v := range m.Versions {
		names[i] = v.Version
	}
	return names
}

// Write stores the manifest as FileName inside dir.
func (m *BuildManifest) Write(dir string) error {
	data, err := m.ToJSON()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, FileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Read loads the manifest from dir.
func Read(dir string) (*BuildManifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return FromJSON(data)
}
