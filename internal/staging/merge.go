package staging

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// MergeReport summarises one Merge call.
type MergeReport struct {
	Files       int // regular files written
	Overwritten int // files that replaced an existing entry
	Dirs        int // directories created
	Symlinks    int // symlinks recreated
}

// Add accumulates another report.
func (r *MergeReport) Add(other MergeReport) {
	r.Files += other.Files
	r.Overwritten += other.Overwritten
	r.Dirs += other.Dirs
	r.Symlinks += other.Symlinks
}

// Merge copies the tree at src into dst. dst is created when missing. Entries
// from src replace same-named entries in dst; nothing else in dst is removed.
func Merge(src, dst string) (MergeReport, error) {
	var report MergeReport

	srcInfo, err := os.Stat(src)
	if err != nil {
		return report, fmt.Errorf("merge source: %w", err)
	}
	if !srcInfo.IsDir() {
		return report, fmt.Errorf("merge source %s is not a directory", src)
	}

	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}

		switch {
		case d.IsDir():
			created, err := ensureDir(target, info.Mode().Perm())
			if created {
				report.Dirs++
			}
			return err
		case d.Type()&fs.ModeSymlink != 0:
			replaced, err := replaceSymlink(path, target)
			if err != nil {
				return err
			}
			report.Symlinks++
			if replaced {
				report.Overwritten++
			}
			return nil
		case d.Type().IsRegular():
			replaced, err := copyFile(path, target, info.Mode().Perm())
			if err != nil {
				return err
			}
			report.Files++
			if replaced {
				report.Overwritten++
			}
			return nil
		default:
			// Sockets, devices and pipes have no place in a static site.
			return nil
		}
	})
	if err != nil {
		return report, fmt.Errorf("merge %s into %s: %w", src, dst, err)
	}
	return report, nil
}

// ensureDir makes sure target is a directory, replacing a non-directory entry.
func ensureDir(target string, mode fs.FileMode) (bool, error) {
	info, err := os.Lstat(target)
	switch {
	case err == nil && info.IsDir():
		return false, nil
	case err == nil:
		if err := os.Remove(target); err != nil {
			return false, err
		}
	case !os.IsNotExist(err):
		return false, err
	}
	if err := os.MkdirAll(target, mode|0o700); err != nil {
		return false, err
	}
	return true, nil
}

// clearTarget removes whatever sits at target and reports whether something did.
func clearTarget(target string) (bool, error) {
	info, err := os.Lstat(target)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return true, os.RemoveAll(target)
	}
	return true, os.Remove(target)
}

func replaceSymlink(src, target string) (bool, error) {
	link, err := os.Readlink(src)
	if err != nil {
		return false, err
	}
	replaced, err := clearTarget(target)
	if err != nil {
		return false, err
	}
	return replaced, os.Symlink(link, target)
}

// copyFile copies a single file from src to dst, preserving permissions.
func copyFile(src, dst string, mode fs.FileMode) (bool, error) {
	replaced, err := clearTarget(dst)
	if err != nil {
		return false, err
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return replaced, err
	}
	defer func() {
		_ = srcFile.Close()
	}()

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return replaced, err
	}
	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return replaced, err
	}
	if err := dstFile.Close(); err != nil {
		return replaced, err
	}
	// OpenFile applies the umask; match the source exactly.
	return replaced, os.Chmod(dst, mode)
}
