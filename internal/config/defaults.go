package config

import "time"

// Defaults mirror a Docusaurus site whose build scripts live one level below the project root.
const (
	DefaultProjectRoot     = ".."
	DefaultLatest          = "latest"
	DefaultRedirectsFile   = "redirects.js"
	DefaultSiteConfigFile  = "docusaurus.config.js"
	DefaultOutputDirectory = "build"
	DefaultStagingDir      = "build__temp"
	DefaultRunsDir         = "build__runs"
	DefaultToolchain       = "npm"
	DefaultWatchDebounce   = 2 * time.Second
)

// builtinToolchains are the two interchangeable frontends every config knows about.
func builtinToolchains() map[string]ToolchainCommands {
	return map[string]ToolchainCommands{
		"npm":  {Install: []string{"npm", "install"}, Build: []string{"npm", "run", "build"}},
		"yarn": {Install: []string{"yarn", "install"}, Build: []string{"yarn", "build"}},
	}
}

// Default returns a fully populated configuration.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.ProjectRoot == "" {
		cfg.ProjectRoot = DefaultProjectRoot
	}
	if cfg.Latest == "" {
		cfg.Latest = DefaultLatest
	}
	if cfg.Files.Redirects == "" {
		cfg.Files.Redirects = DefaultRedirectsFile
	}
	if cfg.Files.SiteConfig == "" {
		cfg.Files.SiteConfig = DefaultSiteConfigFile
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = DefaultOutputDirectory
	}
	if cfg.Output.Staging == "" {
		cfg.Output.Staging = DefaultStagingDir
	}
	if cfg.Output.Runs == "" {
		cfg.Output.Runs = DefaultRunsDir
	}
	if cfg.Toolchain.Default == "" {
		cfg.Toolchain.Default = DefaultToolchain
	}
	if cfg.Toolchain.Toolchains == nil {
		cfg.Toolchain.Toolchains = make(map[string]ToolchainCommands)
	}
	// Built-ins fill only the steps a user override left empty.
	for name, builtin := range builtinToolchains() {
		tc := cfg.Toolchain.Toolchains[name]
		if len(tc.Install) == 0 {
			tc.Install = builtin.Install
		}
		if len(tc.Build) == 0 {
			tc.Build = builtin.Build
		}
		cfg.Toolchain.Toolchains[name] = tc
	}
	if len(cfg.Watch.Paths) == 0 {
		cfg.Watch.Paths = []string{"docs", "src", "static", "sidebars.js"}
	}
	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = DefaultWatchDebounce
	}
	cfg.Logging.Level = string(NormalizeLogLevel(cfg.Logging.Level))
	cfg.Logging.Format = string(NormalizeLogFormat(cfg.Logging.Format))
}
