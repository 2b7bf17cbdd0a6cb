package staging

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"syscall"

	"git.home.luguber.info/inful/docversions/internal/logfields"
)

// Isolate moves the generator output at output into slot, which must not exist.
// When a rename is impossible (different file systems) the tree is copied and
// the original removed.
func Isolate(output, slot string) error {
	err := os.Rename(output, slot)
	if err == nil {
		return nil
	}

	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) || !errors.Is(linkErr.Err, syscall.EXDEV) {
		return fmt.Errorf("isolate output: %w", err)
	}

	slog.Debug("Cross-device move, copying output", logfields.Output(output), logfields.RunDir(slot))
	if _, err := Merge(output, slot); err != nil {
		return fmt.Errorf("isolate output: %w", err)
	}
	if err := os.RemoveAll(output); err != nil {
		return fmt.Errorf("isolate output: remove original: %w", err)
	}
	return nil
}

// Promote replaces output with the staging tree.
func Promote(stagingDir, output string) error {
	stat, err := os.Stat(stagingDir)
	if err != nil {
		return fmt.Errorf("staging directory missing: %w", err)
	}
	if !stat.IsDir() {
		return fmt.Errorf("staging path %s is not a directory", stagingDir)
	}

	if err := os.RemoveAll(output); err != nil {
		return fmt.Errorf("remove output directory: %w", err)
	}
	if err := os.Rename(stagingDir, output); err != nil {
		return fmt.Errorf("promote staging: %w", err)
	}
	slog.Info("Promoted staging directory", logfields.Staging(stagingDir), logfields.Output(output))
	return nil
}

// Discard removes a staging tree left behind by an aborted run.
func Discard(stagingDir string) error {
	if _, err := os.Lstat(stagingDir); os.IsNotExist(err) {
		return nil
	}
	slog.Warn("Removing stale staging directory", logfields.Staging(stagingDir))
	if err := os.RemoveAll(stagingDir); err != nil {
		return fmt.Errorf("remove stale staging directory: %w", err)
	}
	return nil
}
