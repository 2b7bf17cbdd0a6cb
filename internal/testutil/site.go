package testutil

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"git.home.luguber.info/inful/docversions/internal/config"
)

// DefaultRedirects is the redirect file content written by NewSite.
const DefaultRedirects = `module.exports = [
  { from: "/docs", to: "/latest/intro" },
  { sidebar: "/latest/operations/foo" },
];
`

// DefaultSiteConfig is the site config content written by NewSite.
const DefaultSiteConfig = `// @ts-check
var buildVersion = "latest";

module.exports = {
  title: "Docs",
  baseUrl: "/" + buildVersion + "/",
};
`

var declaredVersion = regexp.MustCompile(`(?m)^var buildVersion = "([^"]*)";`)

// Site is a minimal site project on disk.
type Site struct {
	t    *testing.T
	Root string
}

// NewSite creates a site project with a redirect file and a site config in a
// fresh temporary directory.
func NewSite(t *testing.T) *Site {
	t.Helper()
	s := &Site{t: t, Root: t.TempDir()}
	s.WriteFile(config.DefaultRedirectsFile, DefaultRedirects)
	s.WriteFile(config.DefaultSiteConfigFile, DefaultSiteConfig)
	return s
}

// Config returns a default configuration rooted at the site.
func (s *Site) Config() *config.Config {
	cfg := config.Default()
	cfg.ProjectRoot = s.Root
	return cfg
}

// Path joins rel onto the site root.
func (s *Site) Path(rel string) string {
	return filepath.Join(s.Root, filepath.FromSlash(rel))
}

// WriteFile writes content to rel, creating parent directories.
func (s *Site) WriteFile(rel, content string) {
	s.t.Helper()
	path := s.Path(rel)
	if err := os.MkdirAll(filepath.Dir(path), testDirPermissions); err != nil {
		s.t.Fatalf("Failed to create directory for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), testFilePermissions); err != nil {
		s.t.Fatalf("Failed to write %s: %v", rel, err)
	}
}

// ReadFile returns the content of rel.
func (s *Site) ReadFile(rel string) string {
	s.t.Helper()
	data, err := os.ReadFile(s.Path(rel))
	if err != nil {
		s.t.Fatalf("Failed to read %s: %v", rel, err)
	}
	return string(data)
}

// BuildVersion returns the version currently declared in the site config.
func (s *Site) BuildVersion() string {
	s.t.Helper()
	m := declaredVersion.FindStringSubmatch(s.ReadFile(config.DefaultSiteConfigFile))
	if m == nil {
		return ""
	}
	return m[1]
}

// Assert returns file assertions rooted at the site.
func (s *Site) Assert() *FileAssertions {
	return NewFileAssertions(s.t, s.Root)
}
