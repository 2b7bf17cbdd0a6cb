package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docversions/internal/config"
)

// LogLevelEnv sets the log level when --verbose is not given.
const LogLevelEnv = "DOCVERSIONS_LOG_LEVEL"

// Global carries process state shared by every command.
type Global struct {
	Logger  *slog.Logger
	Context context.Context
	Stdout  io.Writer
}

func (g *Global) ctx() context.Context {
	if g == nil || g.Context == nil {
		return context.Background()
	}
	return g.Context
}

func (g *Global) stdout() io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path" default:"docversions.yaml"`
	Verbose   bool             `help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log output format (text|json); defaults to logging.format"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" default:"withargs" help:"Build the site for every version and merge the outputs (default command)"`
	Init  InitCmd  `cmd:"" help:"Write a configuration file with the default settings"`
	Watch WatchCmd `cmd:"" help:"Build, then rebuild whenever site sources change"`
}

// NewParser creates the kong parser for cli.
func NewParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	opts := append([]kong.Option{
		kong.Name("docversions"),
		kong.Description("Build a documentation site for several versions and merge the outputs into one tree."),
		kong.UsageOnError(),
	}, options...)
	return kong.New(cli, opts...)
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	c.configureLogging(nil)
	return nil
}

// LoadConfig loads the configuration file and reapplies logging with its
// settings. Flags and the environment still take precedence.
func (c *CLI) LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	c.configureLogging(cfg)
	return cfg, nil
}

// configureLogging installs the default logger. Precedence for the level is
// --verbose, then DOCVERSIONS_LOG_LEVEL, then the config file.
func (c *CLI) configureLogging(cfg *config.Config) *slog.Logger {
	level := config.LogLevelInfo
	format := config.LogFormatText
	if cfg != nil {
		level = config.NormalizeLogLevel(cfg.Logging.Level)
		format = config.NormalizeLogFormat(cfg.Logging.Format)
	}
	if env := os.Getenv(LogLevelEnv); env != "" {
		level = config.NormalizeLogLevel(env)
	}
	if c.Verbose {
		level = config.LogLevelDebug
	}
	if c.LogFormat != "" {
		format = config.NormalizeLogFormat(c.LogFormat)
	}

	logger := NewLogger(os.Stderr, level, format)
	slog.SetDefault(logger)
	return logger
}

// NewLogger creates a slog logger writing to w.
func NewLogger(w io.Writer, level config.LogLevel, format config.LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level.SlogLevel()}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
