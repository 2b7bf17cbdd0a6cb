package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docversions/internal/logfields"
)

// Manager handles the run workspace directory.
type Manager struct {
	baseDir string
	runDir  string
	keep    bool // If true, Cleanup leaves the run directory in place
	slots   int
}

// NewManager creates a workspace manager whose run directories are removed on Cleanup.
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir}
}

// NewKeptManager creates a workspace manager that leaves per-version outputs on disk.
func NewKeptManager(baseDir string) *Manager {
	m := NewManager(baseDir)
	m.keep = true
	return m
}

// Create creates the run directory.
func (m *Manager) Create() error {
	if m.runDir != "" {
		return nil
	}

	name := fmt.Sprintf("%s-%s", time.Now().Format("20060102-150405"), uuid.NewString())
	runDir := filepath.Join(m.baseDir, name)
	if err := os.MkdirAll(runDir, 0o750); err != nil {
		return fmt.Errorf("failed to create run workspace: %w", err)
	}

	m.runDir = runDir
	slog.Debug("Created run workspace", logfields.Path(runDir))
	return nil
}

// GetPath returns the path to the run directory.
func (m *Manager) GetPath() string {
	return m.runDir
}

// Slot returns a fresh, not yet existing path for one version's output.
// Slots are numbered so build order stays visible on disk.
func (m *Manager) Slot(version string) (string, error) {
	if m.runDir == "" {
		return "", fmt.Errorf("workspace not created")
	}
	m.slots++
	return filepath.Join(m.runDir, fmt.Sprintf("%02d-%s", m.slots, sanitize(version))), nil
}

// Release removes one slot after its contents were merged. Kept workspaces
// leave it in place.
func (m *Manager) Release(slot string) error {
	if m.keep || slot == "" {
		return nil
	}
	if err := os.RemoveAll(slot); err != nil {
		return fmt.Errorf("failed to remove workspace slot: %w", err)
	}
	return nil
}

// Cleanup removes the run directory, and the base directory once it is empty.
func (m *Manager) Cleanup() error {
	if m.runDir == "" {
		return nil
	}

	if m.keep {
		slog.Info("Keeping run workspace", logfields.Path(m.runDir))
		return nil
	}

	if err := os.RemoveAll(m.runDir); err != nil {
		return fmt.Errorf("failed to cleanup run workspace: %w", err)
	}
	slog.Debug("Cleaned up run workspace", logfields.Path(m.runDir))
	m.runDir = ""

	// Best effort; fails harmlessly while other runs or files remain.
	_ = os.Remove(m.baseDir)
	return nil
}

// sanitize maps a version token onto a single safe path element.
func sanitize(version string) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, version)
	if s == "" || s == "." || s == ".." {
		return "_"
	}
	return s
}
