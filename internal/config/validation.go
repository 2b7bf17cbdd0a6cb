package config

import (
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/docversions/internal/foundation/errors"
)

// Validate checks invariants the orchestrator relies on.
func (c *Config) Validate() error {
	if _, ok := c.Toolchain.Toolchains[c.Toolchain.Default]; !ok {
		return ferrors.ConfigError("default toolchain is not defined").
			WithContext("toolchain", c.Toolchain.Default).
			Build()
	}
	for name, tc := range c.Toolchain.Toolchains {
		if len(tc.Install) == 0 || len(tc.Build) == 0 {
			return ferrors.ConfigError("toolchain needs both install and build commands").
				WithContext("toolchain", name).
				Build()
		}
	}

	// The output directory is removed and replaced at the end of a run, so the
	// staging and run directories must live outside it.
	out := filepath.Clean(c.Output.Directory)
	for field, dir := range map[string]string{"output.staging": c.Output.Staging, "output.runs": c.Output.Runs} {
		clean := filepath.Clean(dir)
		if clean == out || isWithin(out, clean) {
			return ferrors.ConfigError("directory must not be the output directory or inside it").
				WithContext("field", field).
				WithContext("path", dir).
				Build()
		}
	}
	staging, runs := filepath.Clean(c.Output.Staging), filepath.Clean(c.Output.Runs)
	if staging == runs {
		return ferrors.ConfigError("staging and runs directories must differ").
			WithContext("path", c.Output.Staging).
			Build()
	}
	// Staging is renamed onto the output directory on promotion.
	if isWithin(staging, runs) {
		return ferrors.ConfigError("runs directory must not be inside the staging directory").
			WithContext("staging", c.Output.Staging).
			WithContext("runs", c.Output.Runs).
			Build()
	}
	return nil
}

// isWithin reports whether path is a descendant of dir (both cleaned, same base).
func isWithin(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
