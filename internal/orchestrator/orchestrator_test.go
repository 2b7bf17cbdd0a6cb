package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docversions/internal/config"
	ferrors "git.home.luguber.info/inful/docversions/internal/foundation/errors"
	"git.home.luguber.info/inful/docversions/internal/git"
	"git.home.luguber.info/inful/docversions/internal/manifest"
	"git.home.luguber.info/inful/docversions/internal/metrics"
	"git.home.luguber.info/inful/docversions/internal/testutil"
	"git.home.luguber.info/inful/docversions/internal/workspace"
)

// recordingRecorder captures metric calls for assertions.
type recordingRecorder struct {
	mu       sync.Mutex
	steps    map[string][]metrics.ResultLabel
	outcomes []metrics.RunOutcome
	merged   map[string]int
	versions []string
}

func newRecordingRecorder() *recordingRecorder {
	return &recordingRecorder{steps: map[string][]metrics.ResultLabel{}, merged: map[string]int{}}
}

func (r *recordingRecorder) ObserveVersionDuration(version string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.versions = append(r.versions, version)
}
func (r *recordingRecorder) ObserveRunDuration(time.Duration) {}
func (r *recordingRecorder) IncStepResult(step string, result metrics.ResultLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps[step] = append(r.steps[step], result)
}
func (r *recordingRecorder) IncRunOutcome(outcome metrics.RunOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}
func (r *recordingRecorder) AddMergedFiles(version string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.merged[version] += n
}

func newOrchestrator(t *testing.T, site *testutil.Site, cfg *config.Config, runner *testutil.FakeRunner) *Orchestrator {
	t.Helper()
	o, err := New(cfg, runner)
	require.NoError(t, err)
	return o.WithSourceReader(func(string) (git.Source, error) {
		return git.Source{Commit: "abc123", Branch: "main"}, nil
	})
}

func TestRun_BuildsVersionsInOrderAndMerges(t *testing.T) {
	site := testutil.NewSite(t)
	runner := testutil.NewFakeRunner(site)
	rec := newRecordingRecorder()
	o := newOrchestrator(t, site, site.Config(), runner).WithRecorder(rec)

	result, err := o.Run(context.Background(), []string{"latest", "9.0.0"}, Options{Toolchain: "npm"})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, result.Status)
	require.Equal(t, []string{"9.0.0", "latest"}, result.VersionNames())
	require.Equal(t, []string{"9.0.0", "latest"}, runner.BuiltVersions())
	require.Equal(t, 1, runner.Installs())

	during := runner.RedirectsDuring("9.0.0")
	require.Contains(t, during, `"/9.0.0/operations/foo"`)
	require.NotContains(t, during, "/latest/")
	require.Contains(t, runner.RedirectsDuring("latest"), `"/latest/operations/foo"`)

	site.Assert().
		AssertFileEquals(config.DefaultRedirectsFile, testutil.DefaultRedirects).
		AssertFileEquals("build/index.html", "<h1>latest</h1>\n").
		AssertFileExists("build/docs/9.0.0/index.html").
		AssertFileExists("build/docs/latest/index.html").
		AssertFileExists(filepath.Join("build", manifest.FileName)).
		AssertNotExists(config.DefaultStagingDir).
		AssertNotExists(config.DefaultRunsDir)
	require.Equal(t, "latest", site.BuildVersion())

	require.Equal(t, []string{"9.0.0", "latest"}, rec.versions)
	require.Equal(t, []metrics.ResultLabel{metrics.ResultSuccess}, rec.steps["install"])
	require.Len(t, rec.steps["build"], 2)
	require.Equal(t, []metrics.RunOutcome{metrics.OutcomeSuccess}, rec.outcomes)
	require.Equal(t, 2, rec.merged["9.0.0"])
	require.Equal(t, 4, result.Merged.Files)
	require.Equal(t, 1, result.Merged.Overwritten)
}

func TestRun_WritesManifest(t *testing.T) {
	site := testutil.NewSite(t)
	runner := testutil.NewFakeRunner(site)
	o := newOrchestrator(t, site, site.Config(), runner)

	result, err := o.Run(context.Background(), []string{"26.0.0", "latest"}, Options{Toolchain: "yarn", SkipInstall: true})
	require.NoError(t, err)
	require.NotNil(t, result.Manifest)

	m, err := manifest.Read(site.Path("build"))
	require.NoError(t, err)
	require.Equal(t, []string{"26.0.0", "latest"}, m.VersionNames())
	require.Equal(t, "yarn", m.Toolchain)
	require.Equal(t, "latest", m.Latest)
	require.Equal(t, "abc123", m.Source.Commit)
	require.Equal(t, manifest.StatusSuccess, m.Status)
	require.NotEmpty(t, m.ID)
	require.Equal(t, 1, m.Versions[1].Overwritten)
}

func TestRun_ManifestDisabled(t *testing.T) {
	site := testutil.NewSite(t)
	cfg := site.Config()
	disabled := false
	cfg.Output.Manifest = &disabled
	o := newOrchestrator(t, site, cfg, testutil.NewFakeRunner(site))

	result, err := o.Run(context.Background(), []string{"latest"}, Options{SkipInstall: true})
	require.NoError(t, err)
	require.Nil(t, result.Manifest)
	site.Assert().AssertNotExists(filepath.Join("build", manifest.FileName))
}

func TestRun_SkipInstall(t *testing.T) {
	site := testutil.NewSite(t)
	runner := testutil.NewFakeRunner(site)
	o := newOrchestrator(t, site, site.Config(), runner)

	_, err := o.Run(context.Background(), []string{"latest"}, Options{SkipInstall: true})
	require.NoError(t, err)
	require.Zero(t, runner.Installs())
}

func TestRun_InstallFailureIsFatal(t *testing.T) {
	site := testutil.NewSite(t)
	runner := testutil.NewFakeRunner(site)
	runner.InstallFunc = func(context.Context) error {
		return ferrors.ToolchainError("install failed").Build()
	}
	o := newOrchestrator(t, site, site.Config(), runner)

	result, err := o.Run(context.Background(), []string{"latest"}, Options{})
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryToolchain))
	require.Equal(t, StatusFailed, result.Status)
	require.Empty(t, runner.BuiltVersions())
}

func TestRun_MergeKeepsEarlierOnlyFiles(t *testing.T) {
	site := testutil.NewSite(t)
	runner := testutil.NewFakeRunner(site)
	runner.Extra = map[string]map[string]string{
		"1.0.0":  {"legacy/only.html": "legacy\n", "shared.css": "old\n"},
		"latest": {"shared.css": "new\n"},
	}
	o := newOrchestrator(t, site, site.Config(), runner)

	_, err := o.Run(context.Background(), []string{"latest", "1.0.0"}, Options{SkipInstall: true})
	require.NoError(t, err)
	site.Assert().
		AssertFileEquals("build/legacy/only.html", "legacy\n").
		AssertFileEquals("build/shared.css", "new\n").
		AssertFileExists("build/docs/1.0.0/index.html")
}

func TestRun_RemovesStaleOutputAndStaging(t *testing.T) {
	site := testutil.NewSite(t)
	site.WriteFile("build/stale.html", "stale")
	site.WriteFile("build__temp/junk.html", "junk")
	o := newOrchestrator(t, site, site.Config(), testutil.NewFakeRunner(site))

	_, err := o.Run(context.Background(), []string{"latest"}, Options{SkipInstall: true})
	require.NoError(t, err)
	site.Assert().
		AssertNotExists("build/stale.html").
		AssertNotExists("build/junk.html").
		AssertNotExists("build__temp")
}

func TestRun_MissingOutputAborts(t *testing.T) {
	site := testutil.NewSite(t)
	runner := testutil.NewFakeRunner(site)
	runner.SkipOutput = map[string]bool{"9.0.0": true}
	rec := newRecordingRecorder()
	o := newOrchestrator(t, site, site.Config(), runner).WithRecorder(rec)

	result, err := o.Run(context.Background(), []string{"latest", "9.0.0"}, Options{SkipInstall: true})
	require.Error(t, err)
	require.Contains(t, err.Error(), `the docs were not built for version "9.0.0"`)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryBuild))
	require.Equal(t, ferrors.ExitBuild, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))

	require.Equal(t, StatusFailed, result.Status)
	require.Equal(t, []string{"9.0.0"}, runner.BuiltVersions())
	require.Equal(t, []metrics.RunOutcome{metrics.OutcomeFailed}, rec.outcomes)
	site.Assert().
		AssertFileEquals(config.DefaultRedirectsFile, testutil.DefaultRedirects).
		AssertNotExists("build")
}

func TestRun_FailedBuildRestoresRedirects(t *testing.T) {
	site := testutil.NewSite(t)
	runner := testutil.NewFakeRunner(site)
	runner.BuildFunc = func(_ context.Context, version string) error {
		if version == "9.0.0" {
			return ferrors.ToolchainError("build failed").Build()
		}
		return nil
	}
	o := newOrchestrator(t, site, site.Config(), runner)

	_, err := o.Run(context.Background(), []string{"9.0.0", "latest"}, Options{SkipInstall: true})
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryToolchain))

	ce, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	v, _ := ce.Context().GetString("version")
	require.Equal(t, "9.0.0", v)

	require.True(t, testutil.ContainsSegment(runner.RedirectsDuring("9.0.0"), "9.0.0"))
	site.Assert().AssertFileEquals(config.DefaultRedirectsFile, testutil.DefaultRedirects)
	require.Equal(t, []string{"9.0.0"}, runner.BuiltVersions())
}

func TestRun_MissingBuildVersionDeclaration(t *testing.T) {
	site := testutil.NewSite(t)
	site.WriteFile(config.DefaultSiteConfigFile, "module.exports = {};\n")
	runner := testutil.NewFakeRunner(site)
	o := newOrchestrator(t, site, site.Config(), runner)

	_, err := o.Run(context.Background(), []string{"9.0.0"}, Options{SkipInstall: true})
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	require.Empty(t, runner.Observations())
	site.Assert().AssertFileEquals(config.DefaultRedirectsFile, testutil.DefaultRedirects)
}

func TestRun_Canceled(t *testing.T) {
	site := testutil.NewSite(t)
	runner := testutil.NewFakeRunner(site)
	o := newOrchestrator(t, site, site.Config(), runner)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := o.Run(ctx, []string{"latest"}, Options{SkipInstall: true})
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled))
	require.Equal(t, StatusCanceled, result.Status)
	require.Empty(t, runner.BuiltVersions())
}

func TestRun_NoVersions(t *testing.T) {
	site := testutil.NewSite(t)
	o := newOrchestrator(t, site, site.Config(), testutil.NewFakeRunner(site))

	_, err := o.Run(context.Background(), []string{" ", ""}, Options{SkipInstall: true})
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestRun_KeptWorkspace(t *testing.T) {
	site := testutil.NewSite(t)
	o := newOrchestrator(t, site, site.Config(), testutil.NewFakeRunner(site)).
		WithWorkspaceFactory(workspace.NewKeptManager)

	_, err := o.Run(context.Background(), []string{"latest", "2.0.0"}, Options{SkipInstall: true})
	require.NoError(t, err)

	runs, err := os.ReadDir(site.Path(config.DefaultRunsDir))
	require.NoError(t, err)
	require.Len(t, runs, 1)
	slots := site.Assert().ListFiles(filepath.Join(config.DefaultRunsDir, runs[0].Name()))
	require.Contains(t, slots, "01-2.0.0/index.html")
	require.Contains(t, slots, "02-latest/index.html")
}

func TestNew_Validation(t *testing.T) {
	site := testutil.NewSite(t)

	_, err := New(nil, testutil.NewFakeRunner(site))
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))

	_, err = New(site.Config(), nil)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryInternal))

	cfg := site.Config()
	cfg.ProjectRoot = filepath.Join(site.Root, "missing")
	_, err = New(cfg, testutil.NewFakeRunner(site))
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestPath(t *testing.T) {
	site := testutil.NewSite(t)
	o := newOrchestrator(t, site, site.Config(), testutil.NewFakeRunner(site))

	require.Equal(t, filepath.Join(site.Root, "build"), o.Path("build"))
	abs := filepath.Join(t.TempDir(), "out")
	require.Equal(t, abs, o.Path(abs))
}
