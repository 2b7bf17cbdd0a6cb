package orchestrator

import (
	"slices"
	"strings"
)

// SortVersions normalises versions and returns them in build order. Tokens
// are trimmed of surrounding whitespace, blank tokens are dropped and
// duplicates collapse to one build. Ordering is plain byte order, which places
// "latest" after every numeric version.
func SortVersions(versions []string) []string {
	out := make([]string, 0, len(versions))
	for _, v := range versions {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// SplitVersions expands comma separated tokens ("26.0.0,latest") into
// individual versions.
func SplitVersions(args []string) []string {
	var out []string
	for _, arg := range args {
		for _, v := range strings.Split(arg, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}
