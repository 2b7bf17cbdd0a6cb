package toolchain

import (
	"slices"
	"sort"

	"git.home.luguber.info/inful/docversions/internal/config"
	ferrors "git.home.luguber.info/inful/docversions/internal/foundation/errors"
)

// Yarn is the name of the alternate frontend selected by --yarn.
const Yarn = "yarn"

// Toolchain is one install/build command frontend of the site generator.
type Toolchain struct {
	Name    string
	Install []string
	Build   []string
}

// Select picks the toolchain for a run. An explicit name wins over useYarn,
// which wins over the configured default.
func Select(cfg *config.Config, useYarn bool, name string) (Toolchain, error) {
	switch {
	case name != "":
	case useYarn:
		name = Yarn
	default:
		name = cfg.Toolchain.Default
	}

	cmds, ok := cfg.Toolchain.Toolchains[name]
	if !ok {
		return Toolchain{}, ferrors.ValidationError("unknown toolchain").
			WithContext("toolchain", name).
			WithContext("available", Names(cfg)).
			Build()
	}
	return Toolchain{
		Name:    name,
		Install: slices.Clone(cmds.Install),
		Build:   slices.Clone(cmds.Build),
	}, nil
}

// Names lists the configured toolchains in sorted order.
func Names(cfg *config.Config) []string {
	names := make([]string, 0, len(cfg.Toolchain.Toolchains))
	for name := range cfg.Toolchain.Toolchains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
