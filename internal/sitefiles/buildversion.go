package sitefiles

import (
	"errors"
	"fmt"
	"os"
	"regexp"
)

// ErrBuildVersionNotFound is returned when the configuration file has no buildVersion declaration.
var ErrBuildVersionNotFound = errors.New("buildVersion declaration not found")

// buildVersionLine matches a whole declaration line up to, not including, its terminator.
var buildVersionLine = regexp.MustCompile(`(?m)^var buildVersion[^\r\n]*`)

// BuildVersionDeclaration renders the replacement line for version.
func BuildVersionDeclaration(version string) string {
	return fmt.Sprintf("var buildVersion = %q;", version)
}

// ReplaceBuildVersion replaces every buildVersion declaration line in content
// and reports how many lines were replaced. Other bytes are untouched.
func ReplaceBuildVersion(content []byte, version string) ([]byte, int) {
	decl := []byte(BuildVersionDeclaration(version))
	n := 0
	out := buildVersionLine.ReplaceAllFunc(content, func([]byte) []byte {
		n++
		return decl
	})
	return out, n
}

// SetBuildVersion rewrites the declaration in the file at path.
func SetBuildVersion(path, version string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat site config: %w", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read site config: %w", err)
	}

	updated, n := ReplaceBuildVersion(content, version)
	if n == 0 {
		return fmt.Errorf("%s: %w", path, ErrBuildVersionNotFound)
	}
	if err := os.WriteFile(path, updated, info.Mode().Perm()); err != nil {
		return fmt.Errorf("write site config: %w", err)
	}
	return nil
}
