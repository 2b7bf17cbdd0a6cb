package sitefiles

import (
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/docversions/internal/logfields"
)

// VersionSegment renders the path segment a version occupies in site URLs.
func VersionSegment(version string) string {
	return "/" + version + "/"
}

// RewriteRedirects replaces every occurrence of the from segment with the to segment.
func RewriteRedirects(content []byte, from, to string) []byte {
	return bytes.ReplaceAll(content, []byte(VersionSegment(from)), []byte(VersionSegment(to)))
}

// RedirectGuard rewrites the redirect mapping file for one version build and
// restores the original bytes afterwards.
//
// Usage:
//
//	g := NewRedirectGuard(path, "latest")
//	if err := g.Acquire(v); err != nil { ... }
//	defer g.Release()
type RedirectGuard struct {
	path   string
	latest string

	snapshot []byte
	mode     fs.FileMode
	dirty    bool
}

// NewRedirectGuard creates a guard for the redirect file at path. latest is the
// token whose URL segment gets replaced.
func NewRedirectGuard(path, latest string) *RedirectGuard {
	return &RedirectGuard{path: path, latest: latest}
}

// Acquire snapshots the file and writes the version-specific copy. Building the
// latest version leaves the file untouched.
func (g *RedirectGuard) Acquire(version string) error {
	if g.dirty {
		return fmt.Errorf("redirect file %s already rewritten; release it first", g.path)
	}
	if version == g.latest {
		return nil
	}

	info, err := os.Stat(g.path)
	if err != nil {
		return fmt.Errorf("stat redirect file: %w", err)
	}
	original, err := os.ReadFile(g.path)
	if err != nil {
		return fmt.Errorf("read redirect file: %w", err)
	}

	rewritten := RewriteRedirects(original, g.latest, version)
	if bytes.Equal(rewritten, original) {
		slog.Debug("Redirect file has no latest segments", logfields.File(g.path), logfields.Version(version))
		return nil
	}

	g.snapshot = original
	g.mode = info.Mode().Perm()
	// Mark dirty before writing: a partial write still needs restoring.
	g.dirty = true
	if err := os.WriteFile(g.path, rewritten, g.mode); err != nil {
		return fmt.Errorf("write redirect file: %w", err)
	}
	slog.Debug("Rewrote redirect file", logfields.File(g.path), logfields.Version(version))
	return nil
}

// Release writes the snapshot back. It is safe to call more than once and
// after a failed Acquire.
func (g *RedirectGuard) Release() error {
	if !g.dirty {
		return nil
	}
	if err := os.WriteFile(g.path, g.snapshot, g.mode); err != nil {
		return fmt.Errorf("restore redirect file: %w", err)
	}
	g.dirty = false
	g.snapshot = nil
	slog.Debug("Restored redirect file", logfields.File(g.path))
	return nil
}

// Dirty reports whether the file currently holds a rewritten copy.
func (g *RedirectGuard) Dirty() bool {
	return g.dirty
}
