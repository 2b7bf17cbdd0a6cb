package toolchain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/docversions/internal/foundation/errors"
	"git.home.luguber.info/inful/docversions/internal/logfields"
)

var (
	// ErrCommandNotFound indicates the frontend executable was not found on PATH.
	ErrCommandNotFound = errors.New("toolchain command not found")
	// ErrCommandFailed indicates the command exited with a non-zero status.
	ErrCommandFailed = errors.New("toolchain command failed")
)

// Step names used in logs and metrics.
const (
	StepInstall = "install"
	StepBuild   = "build"
)

// Runner abstracts how the install and build steps are performed so the
// orchestrator can be exercised without a JavaScript toolchain.
type Runner interface {
	Install(ctx context.Context) error
	Build(ctx context.Context) error
}

// CommandRunner runs a Toolchain's commands as child processes inside the
// project root, streaming their output unmodified.
type CommandRunner struct {
	toolchain Toolchain
	dir       string
	stdout    io.Writer
	stderr    io.Writer
	waitDelay time.Duration
}

// NewCommandRunner creates a runner executing commands in dir.
func NewCommandRunner(tc Toolchain, dir string) *CommandRunner {
	return &CommandRunner{
		toolchain: tc,
		dir:       dir,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		waitDelay: 10 * time.Second,
	}
}

// WithOutput redirects the child process output; nil keeps the current writer.
func (r *CommandRunner) WithOutput(stdout, stderr io.Writer) *CommandRunner {
	if stdout != nil {
		r.stdout = stdout
	}
	if stderr != nil {
		r.stderr = stderr
	}
	return r
}

// Toolchain returns the frontend this runner executes.
func (r *CommandRunner) Toolchain() Toolchain {
	return r.toolchain
}

// Install runs the dependency installation command.
func (r *CommandRunner) Install(ctx context.Context) error {
	return r.run(ctx, StepInstall, r.toolchain.Install)
}

// Build runs the site build command.
func (r *CommandRunner) Build(ctx context.Context) error {
	return r.run(ctx, StepBuild, r.toolchain.Build)
}

func (r *CommandRunner) run(ctx context.Context, step string, argv []string) error {
	if len(argv) == 0 {
		return ferrors.ConfigError("toolchain command is empty").
			WithContext("toolchain", r.toolchain.Name).
			WithContext("step", step).
			Build()
	}
	display := strings.Join(argv, " ")

	path, err := exec.LookPath(argv[0])
	if err != nil {
		return ferrors.NewError(ferrors.CategoryNotFound, "toolchain executable not found").
			Fatal().
			WithCause(fmt.Errorf("%w: %w", ErrCommandNotFound, err)).
			WithContext("command", display).
			Build()
	}

	cmd := exec.CommandContext(ctx, path, argv[1:]...)
	cmd.Dir = r.dir
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr
	// Give the generator a chance to clean up on Ctrl-C before it is killed.
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = r.waitDelay

	slog.Debug("Running toolchain command",
		logfields.Toolchain(r.toolchain.Name),
		logfields.Step(step),
		logfields.Command(display),
		logfields.Path(r.dir))

	start := time.Now()
	err = cmd.Run()
	dur := time.Since(start)
	if err == nil {
		slog.Debug("Toolchain command finished",
			logfields.Step(step),
			logfields.DurationMS(float64(dur.Milliseconds())))
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ferrors.CanceledError("toolchain command interrupted").
			WithCause(fmt.Errorf("%w: %w", ctxErr, err)).
			WithContext("command", display).
			Build()
	}
	// The ExitError stays in the chain so the CLI can exit with the same status.
	return ferrors.ToolchainError(step+" command failed").
		WithCause(fmt.Errorf("%w: %w", ErrCommandFailed, err)).
		WithContext("command", display).
		Build()
}
