package commands

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/docversions/internal/config"
	ferrors "git.home.luguber.info/inful/docversions/internal/foundation/errors"
	"git.home.luguber.info/inful/docversions/internal/logfields"
	"git.home.luguber.info/inful/docversions/internal/metrics"
	"git.home.luguber.info/inful/docversions/internal/orchestrator"
	"git.home.luguber.info/inful/docversions/internal/toolchain"
	"git.home.luguber.info/inful/docversions/internal/workspace"
)

// BuildFlags are the flags shared by build and watch.
type BuildFlags struct {
	Versions      []string `short:"v" name:"versions" help:"Version identifiers to build (repeatable or comma separated)"`
	Args          []string `arg:"" optional:"" name:"version" help:"Additional version identifiers"`
	SkipInstall   bool     `name:"skip-install" help:"Skip the toolchain install step"`
	Yarn          bool     `help:"Use yarn instead of the default toolchain"`
	Toolchain     string   `help:"Configured toolchain to use (overrides --yarn)"`
	Root          string   `help:"Site project root (overrides project_root)" type:"path"`
	MetricsFile   string   `name:"metrics-file" help:"Write Prometheus metrics to this file after each run" type:"path"`
	NoManifest    bool     `name:"no-manifest" help:"Do not write the build manifest into the output directory"`
	KeepWorkspace bool     `name:"keep-workspace" help:"Keep per-version outputs under the runs directory"`
}

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	BuildFlags `embed:""`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	s, err := newSession(cfg, &b.BuildFlags)
	if err != nil {
		return err
	}

	result, err := s.run(g.ctx(), !b.SkipInstall)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.stdout(), "Built %d version(s) into %s (%d files merged, %d overwritten)\n",
		len(result.Versions), result.OutputDir, result.Merged.Files, result.Merged.Overwritten)
	return nil
}

// VersionList merges --versions and positional tokens.
func (f *BuildFlags) VersionList() []string {
	return orchestrator.SplitVersions(append(append([]string(nil), f.Versions...), f.Args...))
}

// apply copies flag overrides onto cfg.
func (f *BuildFlags) apply(cfg *config.Config) {
	if f.Root != "" {
		cfg.ProjectRoot = f.Root
	}
	if f.MetricsFile != "" {
		cfg.Metrics.Textfile = f.MetricsFile
	}
	if f.NoManifest {
		disabled := false
		cfg.Output.Manifest = &disabled
	}
}

// session is an orchestrator wired for repeated runs with one set of flags.
type session struct {
	cfg      *config.Config
	versions []string
	runner   *toolchain.CommandRunner
	orch     *orchestrator.Orchestrator
	recorder *metrics.PrometheusRecorder
}

func newSession(cfg *config.Config, flags *BuildFlags) (*session, error) {
	flags.apply(cfg)

	versions := flags.VersionList()
	if len(versions) == 0 {
		return nil, ferrors.ValidationError("at least one version is required (--versions)").Build()
	}

	tc, err := toolchain.Select(cfg, flags.Yarn, flags.Toolchain)
	if err != nil {
		return nil, err
	}

	root, err := orchestrator.ResolveRoot(cfg)
	if err != nil {
		return nil, err
	}
	runner := toolchain.NewCommandRunner(tc, root)
	orch, err := orchestrator.New(cfg, runner)
	if err != nil {
		return nil, err
	}
	if flags.KeepWorkspace {
		orch.WithWorkspaceFactory(workspace.NewKeptManager)
	}

	s := &session{cfg: cfg, versions: versions, runner: runner, orch: orch}
	if cfg.Metrics.Textfile != "" {
		s.recorder = metrics.NewPrometheusRecorder(nil)
		orch.WithRecorder(s.recorder)
	}
	return s, nil
}

// run performs one orchestrator run and flushes metrics afterwards.
func (s *session) run(ctx context.Context, install bool) (*orchestrator.Result, error) {
	result, err := s.orch.Run(ctx, s.versions, orchestrator.Options{
		SkipInstall: !install,
		Toolchain:   s.runner.Toolchain().Name,
	})
	if s.recorder != nil {
		path := s.orch.Path(s.cfg.Metrics.Textfile)
		if werr := s.recorder.WriteTextfile(path); werr != nil {
			slog.Warn("Failed to write metrics textfile", logfields.Path(path), logfields.Error(werr))
		} else {
			slog.Debug("Wrote metrics textfile", logfields.Path(path))
		}
	}
	return result, err
}
