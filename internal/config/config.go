package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/docversions/internal/foundation/errors"
	"git.home.luguber.info/inful/docversions/internal/logfields"
)

// DefaultConfigFile is the configuration file looked up when --config is not given.
const DefaultConfigFile = "docversions.yaml"

// Config represents the application configuration
type Config struct {
	// ProjectRoot is the site project directory every other path is resolved against.
	// Relative values are resolved against the current working directory.
	ProjectRoot string          `yaml:"project_root"`
	Latest      string          `yaml:"latest"` // token built last and kept unversioned
	Files       FilesConfig     `yaml:"files"`
	Output      OutputConfig    `yaml:"output"`
	Toolchain   ToolchainConfig `yaml:"toolchain"`
	Watch       WatchConfig     `yaml:"watch"`
	Metrics     MetricsConfig   `yaml:"metrics"`
	Logging     LoggingConfig   `yaml:"logging"`
}

// FilesConfig names the two site files patched for every version.
type FilesConfig struct {
	Redirects  string `yaml:"redirects"`   // redirect mapping file, restored after each version
	SiteConfig string `yaml:"site_config"` // file holding the buildVersion declaration
}

// OutputConfig represents output configuration
type OutputConfig struct {
	Directory string `yaml:"directory"` // directory the site generator writes into
	Staging   string `yaml:"staging"`   // accumulates merged outputs until promotion
	Runs      string `yaml:"runs"`      // parent of the per-version isolation directories
	Manifest  *bool  `yaml:"manifest,omitempty"`
}

// ManifestEnabled reports whether a build manifest is written into the final output.
func (o OutputConfig) ManifestEnabled() bool {
	return o.Manifest == nil || *o.Manifest
}

// ToolchainConfig holds the install/build command frontends.
type ToolchainConfig struct {
	Default    string                       `yaml:"default"`
	Toolchains map[string]ToolchainCommands `yaml:"toolchains,omitempty"`
}

// ToolchainCommands is the argv of the install and build steps of one frontend.
type ToolchainCommands struct {
	Install []string `yaml:"install"`
	Build   []string `yaml:"build"`
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	Paths    []string      `yaml:"paths,omitempty"`
	Debounce time.Duration `yaml:"debounce,omitempty"`
}

// MetricsConfig configures build metrics export.
type MetricsConfig struct {
	// Textfile is written in Prometheus text format after each run when set.
	Textfile string `yaml:"textfile,omitempty"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Load loads configuration from the specified file. A missing file is not an
// error: the defaults describe a Docusaurus project laid out like the Druid website.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		slog.Debug("No .env file loaded", logfields.Error(err))
	}

	cfg := &Config{}
	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		slog.Debug("Configuration file not found, using defaults", logfields.Path(configPath))
	case err != nil:
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			Fatal().
			WithContext("path", configPath).
			Build()
	default:
		// Expand environment variables in the YAML content
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to unmarshal config").
				Fatal().
				WithContext("path", configPath).
				Build()
		}
	}

	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Init creates a new configuration file with the default settings spelled out.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	example := Default()
	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# docversions configuration. Paths are relative to project_root.\n")
	if err := os.WriteFile(configPath, append(header, data...), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
