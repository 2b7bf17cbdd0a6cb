package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docversions/internal/config"
	ferrors "git.home.luguber.info/inful/docversions/internal/foundation/errors"
	"git.home.luguber.info/inful/docversions/internal/git"
	"git.home.luguber.info/inful/docversions/internal/logfields"
	"git.home.luguber.info/inful/docversions/internal/manifest"
	"git.home.luguber.info/inful/docversions/internal/metrics"
	"git.home.luguber.info/inful/docversions/internal/sitefiles"
	"git.home.luguber.info/inful/docversions/internal/staging"
	"git.home.luguber.info/inful/docversions/internal/toolchain"
	"git.home.luguber.info/inful/docversions/internal/workspace"
)

// Options provides per-run behavior modifiers.
type Options struct {
	// SkipInstall skips the toolchain install step.
	SkipInstall bool

	// Toolchain names the frontend in logs and the manifest.
	Toolchain string
}

// Status indicates the overall outcome of a run.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// Result contains the outcome of a run.
type Result struct {
	Status Status

	// Versions lists the completed versions in build order.
	Versions []manifest.VersionResult

	// OutputDir is the absolute path of the promoted output tree.
	OutputDir string

	// Merged totals the merge reports of the completed versions.
	Merged staging.MergeReport

	// Manifest is nil when manifests are disabled or the run failed.
	Manifest *manifest.BuildManifest

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// VersionNames returns the completed versions in build order.
func (r *Result) VersionNames() []string {
	names := make([]string, len(r.Versions))
	for i, v := range r.Versions {
		names[i] = v.Version
	}
	return names
}

// Orchestrator builds one site project for several versions.
type Orchestrator struct {
	cfg    *config.Config
	root   string
	runner toolchain.Runner

	recorder         metrics.Recorder
	workspaceFactory func(baseDir string) *workspace.Manager
	sourceReader     func(dir string) (git.Source, error)
	newID            func() string
}

// ResolveRoot returns the absolute project root of cfg and checks it is a directory.
func ResolveRoot(cfg *config.Config) (string, error) {
	root, err := filepath.Abs(cfg.ProjectRoot)
	if err != nil {
		return "", ferrors.ConfigError("invalid project root").
			WithCause(err).
			WithContext("project_root", cfg.ProjectRoot).
			Build()
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", ferrors.ConfigError("project root does not exist").
			WithCause(err).
			WithContext("project_root", root).
			Build()
	}
	if !info.IsDir() {
		return "", ferrors.ConfigError("project root is not a directory").
			WithContext("project_root", root).
			Build()
	}
	return root, nil
}

// New creates an orchestrator for the project described by cfg. runner must
// execute its commands inside the same project root.
func New(cfg *config.Config, runner toolchain.Runner) (*Orchestrator, error) {
	if cfg == nil {
		return nil, ferrors.ConfigError("config required").Build()
	}
	if runner == nil {
		return nil, ferrors.InternalError("toolchain runner required").Build()
	}
	root, err := ResolveRoot(cfg)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		cfg:              cfg,
		root:             root,
		runner:           runner,
		recorder:         metrics.NoopRecorder{},
		workspaceFactory: workspace.NewManager,
		sourceReader:     git.ReadSource,
		newID:            uuid.NewString,
	}, nil
}

// WithRecorder sets the metrics recorder.
func (o *Orchestrator) WithRecorder(r metrics.Recorder) *Orchestrator {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	o.recorder = r
	return o
}

// WithWorkspaceFactory allows injecting a custom workspace factory (kept workspaces, tests).
func (o *Orchestrator) WithWorkspaceFactory(factory func(baseDir string) *workspace.Manager) *Orchestrator {
	o.workspaceFactory = factory
	return o
}

// WithSourceReader replaces how the site's git revision is read for the manifest.
func (o *Orchestrator) WithSourceReader(reader func(dir string) (git.Source, error)) *Orchestrator {
	o.sourceReader = reader
	return o
}

// Root returns the absolute project root.
func (o *Orchestrator) Root() string {
	return o.root
}

// Path resolves a configured path against the project root.
func (o *Orchestrator) Path(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(o.root, p)
}

// Run builds every version and promotes the merged tree to the output
// directory. Any failure aborts the run; the redirect file is restored before
// Run returns.
func (o *Orchestrator) Run(ctx context.Context, versions []string, opts Options) (*Result, error) {
	result := &Result{
		Status:    StatusFailed,
		OutputDir: o.Path(o.cfg.Output.Directory),
		StartTime: time.Now(),
	}

	ordered := SortVersions(versions)
	if len(ordered) == 0 {
		return o.finish(result, ferrors.ValidationError("at least one version is required").Build())
	}

	slog.Info("Starting multi-version build",
		logfields.Versions(ordered),
		logfields.Toolchain(opts.Toolchain),
		logfields.Path(o.root))

	if opts.SkipInstall {
		slog.Info("Skipping dependency installation")
	} else if err := o.step(ctx, toolchain.StepInstall, o.runner.Install); err != nil {
		return o.finish(result, err)
	}

	output := result.OutputDir
	stagingDir := o.Path(o.cfg.Output.Staging)
	if err := os.RemoveAll(output); err != nil {
		return o.finish(result, ferrors.FileSystemError("failed to remove output directory").
			WithCause(err).
			WithContext("output", output).
			Build())
	}
	if err := staging.Discard(stagingDir); err != nil {
		return o.finish(result, ferrors.FileSystemError("failed to remove stale staging directory").
			WithCause(err).
			WithContext("staging", stagingDir).
			Build())
	}

	ws := o.workspaceFactory(o.Path(o.cfg.Output.Runs))
	if err := ws.Create(); err != nil {
		return o.finish(result, ferrors.FileSystemError("failed to create run workspace").WithCause(err).Build())
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			slog.Warn("Failed to cleanup run workspace", logfields.Error(err))
		}
	}()

	for _, version := range ordered {
		if err := ctx.Err(); err != nil {
			return o.finish(result, ferrors.CanceledError("build interrupted").
				WithCause(err).
				WithContext("version", version).
				Build())
		}
		vr, err := o.buildVersion(ctx, ws, version, output, stagingDir, &result.Merged)
		if err != nil {
			return o.finish(result, err)
		}
		result.Versions = append(result.Versions, vr)
	}

	if err := staging.Promote(stagingDir, output); err != nil {
		return o.finish(result, ferrors.FileSystemError("failed to promote staging directory").
			WithCause(err).
			WithContext("staging", stagingDir).
			WithContext("output", output).
			Build())
	}

	if o.cfg.Output.ManifestEnabled() {
		m := o.newManifest(result, opts)
		if err := m.Write(output); err != nil {
			return o.finish(result, ferrors.FileSystemError("failed to write build manifest").
				WithCause(err).
				WithContext("output", output).
				Build())
		}
		result.Manifest = m
	}

	return o.finish(result, nil)
}

// buildVersion performs one version's steps. The redirect file is restored on
// every return path.
func (o *Orchestrator) buildVersion(ctx context.Context, ws *workspace.Manager, version, output, stagingDir string, total *staging.MergeReport) (vr manifest.VersionResult, err error) {
	start := time.Now()
	slog.Info("Building the docs for version", logfields.Version(version))

	redirects := o.Path(o.cfg.Files.Redirects)
	guard := sitefiles.NewRedirectGuard(redirects, o.cfg.Latest)
	defer func() {
		if rerr := guard.Release(); rerr != nil {
			slog.Error("Failed to restore redirect file", logfields.File(redirects), logfields.Error(rerr))
			if err == nil {
				err = ferrors.FileSystemError("failed to restore redirect file").
					WithCause(rerr).
					WithContext("file", redirects).
					Build()
			}
		}
	}()

	if aerr := guard.Acquire(version); aerr != nil {
		return vr, ferrors.FileSystemError("failed to rewrite redirect file").
			WithCause(aerr).
			WithContext("file", redirects).
			WithContext("version", version).
			Build()
	}

	siteConfig := o.Path(o.cfg.Files.SiteConfig)
	if serr := sitefiles.SetBuildVersion(siteConfig, version); serr != nil {
		b := ferrors.FileSystemError("failed to set build version")
		if errors.Is(serr, sitefiles.ErrBuildVersionNotFound) {
			b = ferrors.ConfigError("site config has no buildVersion declaration")
		}
		return vr, b.WithCause(serr).
			WithContext("file", siteConfig).
			WithContext("version", version).
			Build()
	}

	if berr := o.step(ctx, toolchain.StepBuild, o.runner.Build); berr != nil {
		if ce, ok := ferrors.AsClassified(berr); ok {
			return vr, ce.WithContext("version", version)
		}
		return vr, berr
	}

	if info, statErr := os.Stat(output); statErr != nil || !info.IsDir() {
		msg := fmt.Sprintf("the docs were not built for version %q: output directory %q missing (check the site generator logs)", version, output)
		return vr, ferrors.BuildError(msg).
			Fatal().
			WithContext("version", version).
			Build()
	}

	slot, err := ws.Slot(version)
	if err != nil {
		return vr, ferrors.InternalError("failed to allocate workspace slot").WithCause(err).Build()
	}
	if err := staging.Isolate(output, slot); err != nil {
		return vr, ferrors.FileSystemError("failed to isolate build output").
			WithCause(err).
			WithContext("version", version).
			WithContext("run_dir", slot).
			Build()
	}
	report, err := staging.Merge(slot, stagingDir)
	if err != nil {
		return vr, ferrors.FileSystemError("failed to merge build output into staging").
			WithCause(err).
			WithContext("version", version).
			WithContext("staging", stagingDir).
			Build()
	}
	total.Add(report)
	if err := ws.Release(slot); err != nil {
		slog.Warn("Failed to remove workspace slot", logfields.RunDir(slot), logfields.Error(err))
	}

	dur := time.Since(start)
	o.recorder.ObserveVersionDuration(version, dur)
	o.recorder.AddMergedFiles(version, report.Files)
	slog.Info("Merged version output",
		logfields.Version(version),
		logfields.Files(report.Files),
		slog.Int("overwritten", report.Overwritten),
		logfields.DurationMS(float64(dur.Milliseconds())))

	return manifest.VersionResult{
		Version:     version,
		Files:       report.Files,
		Overwritten: report.Overwritten,
		Duration:    dur.Milliseconds(),
	}, nil
}

// step runs one toolchain step and records its result.
func (o *Orchestrator) step(ctx context.Context, name string, fn func(context.Context) error) error {
	slog.Info("Running toolchain step", logfields.Step(name))
	err := fn(ctx)
	o.recorder.IncStepResult(name, resultLabel(err))
	return err
}

func (o *Orchestrator) newManifest(result *Result, opts Options) *manifest.BuildManifest {
	source, err := o.sourceReader(o.root)
	if err != nil {
		slog.Warn("Failed to read site source revision", logfields.Path(o.root), logfields.Error(err))
	}
	return &manifest.BuildManifest{
		ID:        o.newID(),
		Timestamp: result.StartTime.UTC(),
		Toolchain: opts.Toolchain,
		Latest:    o.cfg.Latest,
		Source:    source,
		Versions:  result.Versions,
		Status:    manifest.StatusSuccess,
		Duration:  time.Since(result.StartTime).Milliseconds(),
	}
}

// finish stamps timing and the run outcome onto result.
func (o *Orchestrator) finish(result *Result, err error) (*Result, error) {
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	o.recorder.ObserveRunDuration(result.Duration)

	switch {
	case err == nil:
		result.Status = StatusSuccess
		o.recorder.IncRunOutcome(metrics.OutcomeSuccess)
		slog.Info("Multi-version build complete",
			logfields.Versions(result.VersionNames()),
			logfields.Output(result.OutputDir),
			logfields.Files(result.Merged.Files),
			logfields.DurationMS(float64(result.Duration.Milliseconds())))
	case ferrors.HasCategory(err, ferrors.CategoryCanceled):
		result.Status = StatusCanceled
		o.recorder.IncRunOutcome(metrics.OutcomeCanceled)
	default:
		result.Status = StatusFailed
		o.recorder.IncRunOutcome(metrics.OutcomeFailed)
	}
	return result, err
}

func resultLabel(err error) metrics.ResultLabel {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case ferrors.HasCategory(err, ferrors.CategoryCanceled), errors.Is(err, context.Canceled):
		return metrics.ResultCanceled
	default:
		return metrics.ResultFailed
	}
}
