package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// InitGitRepo initializes a repository in dir.
// Returns the repository and its worktree.
func InitGitRepo(t *testing.T, dir string) (*gogit.Repository, *gogit.Worktree) {
	t.Helper()

	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to initialize git repo: %v", err)
	}
	w, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}
	return repo, w
}

// CommitFile writes rel below the worktree root and commits it.
func CommitFile(t *testing.T, w *gogit.Worktree, rel, content string) plumbing.Hash {
	t.Helper()

	path := filepath.Join(w.Filesystem.Root(), filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), testDirPermissions); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), testFilePermissions); err != nil {
		t.Fatalf("failed to write %s: %v", rel, err)
	}
	if _, err := w.Add(rel); err != nil {
		t.Fatalf("failed to stage %s: %v", rel, err)
	}
	hash, err := w.Commit("update "+rel, &gogit.CommitOptions{
		Author: &object.Signature{Name: "Docs", Email: "docs@example.org", When: time.Unix(1700000000, 0)},
	})
	if err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
	return hash
}
