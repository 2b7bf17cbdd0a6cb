package version

import (
	"strings"
	"testing"
)

func TestVersion(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}

	// Default value should be "unknown" until set by build
	if Version != "unknown" {
		t.Logf("Version is: %s (expected 'unknown' or version set via ldflags)", Version)
	}
}

func TestString(t *testing.T) {
	got := String()
	if !strings.HasPrefix(got, "docversions "+Version) {
		t.Errorf("unexpected version line %q", got)
	}
	if !strings.Contains(got, GitCommit) || !strings.Contains(got, BuildTime) {
		t.Errorf("version line should carry build metadata, got %q", got)
	}
}
