package testutil

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"git.home.luguber.info/inful/docversions/internal/config"
)

// Observation is what the fake generator saw during one build.
type Observation struct {
	Version   string // buildVersion declared in the site config
	Redirects string // redirect file content
}

// FakeRunner implements toolchain.Runner without external processes. Builds
// imitate a site generator: the output directory is recreated with an
// index.html naming the declared version and one page under docs/<version>/.
type FakeRunner struct {
	site *Site

	mu           sync.Mutex
	installs     int
	observations []Observation

	// InstallFunc replaces the install step when set.
	InstallFunc func(ctx context.Context) error
	// BuildFunc runs after the observation is recorded; returning an error
	// fails the build before any output is written.
	BuildFunc   func(ctx context.Context, version string) error
	// SkipOutput lists versions whose build succeeds without writing output.
	SkipOutput  map[string]bool
	// Extra adds files (relative path to content) to the output of a version.
	Extra       map[string]map[string]string
}

// NewFakeRunner creates a fake generator for site.
func NewFakeRunner(site *Site) *FakeRunner {
	return &FakeRunner{site: site}
}

// Install records the call.
func (f *FakeRunner) Install(ctx context.Context) error {
	f.mu.Lock()
	f.installs++
	f.mu.Unlock()
	if f.InstallFunc != nil {
		return f.InstallFunc(ctx)
	}
	return nil
}

// Build records the observation and writes the generator output.
func (f *FakeRunner) Build(ctx context.Context) error {
	obs := Observation{
		Version:   f.site.BuildVersion(),
		Redirects: f.site.ReadFile(config.DefaultRedirectsFile),
	}
	f.mu.Lock()
	f.observations = append(f.observations, obs)
	f.mu.Unlock()

	if f.BuildFunc != nil {
		if err := f.BuildFunc(ctx, obs.Version); err != nil {
			return err
		}
	}
	if f.SkipOutput[obs.Version] {
		return nil
	}

	out := f.site.Path(config.DefaultOutputDirectory)
	if err := os.RemoveAll(out); err != nil {
		return err
	}
	files := map[string]string{
		"index.html": "<h1>" + obs.Version + "</h1>\n",
		filepath.Join("docs", obs.Version, "index.html"): "docs for " + obs.Version + "\n",
	}
	for rel, content := range f.Extra[obs.Version] {
		files[filepath.FromSlash(rel)] = content
	}
	for rel, content := range files {
		path := filepath.Join(out, rel)
		if err := os.MkdirAll(filepath.Dir(path), testDirPermissions); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), testFilePermissions); err != nil {
			return err
		}
	}
	return nil
}

// Installs returns how often Install ran.
func (f *FakeRunner) Installs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.installs
}

// Observations returns one entry per Build call in call order.
func (f *FakeRunner) Observations() []Observation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Observation(nil), f.observations...)
}

// BuiltVersions returns the declared version of every Build call.
func (f *FakeRunner) BuiltVersions() []string {
	var out []string
	for _, o := range f.Observations() {
		out = append(out, o.Version)
	}
	return out
}

// RedirectsDuring returns the redirect file content seen while building version.
func (f *FakeRunner) RedirectsDuring(version string) string {
	for _, o := range f.Observations() {
		if o.Version == version {
			return o.Redirects
		}
	}
	return ""
}

// ContainsSegment reports whether content references the /<version>/ URL segment.
func ContainsSegment(content, version string) bool {
	return strings.Contains(content, "/"+version+"/")
}
