package toolchain

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/docversions/internal/foundation/errors"
)

func shellToolchain(install, build string) Toolchain {
	return Toolchain{
		Name:    "sh",
		Install: []string{"sh", "-c", install},
		Build:   []string{"sh", "-c", build},
	}
}

func TestCommandRunnerRunsInProjectRoot(t *testing.T) {
	dir := t.TempDir()
	var stdout bytes.Buffer
	r := NewCommandRunner(shellToolchain("echo installed > installed.txt", "mkdir -p build && echo built; echo ok > build/index.html"), dir).
		WithOutput(&stdout, nil)

	require.NoError(t, r.Install(context.Background()))
	require.NoError(t, r.Build(context.Background()))

	require.FileExists(t, filepath.Join(dir, "installed.txt"))
	require.FileExists(t, filepath.Join(dir, "build", "index.html"))
	require.Equal(t, "built\n", stdout.String())
	require.Equal(t, "sh", r.Toolchain().Name)
}

func TestCommandRunnerFailurePropagatesExitCode(t *testing.T) {
	var stderr bytes.Buffer
	r := NewCommandRunner(shellToolchain("true", "echo broken >&2; exit 3"), t.TempDir()).
		WithOutput(nil, &stderr)

	err := r.Build(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrCommandFailed))
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryToolchain))
	require.Equal(t, "broken\n", stderr.String())

	adapter := ferrors.NewCLIErrorAdapter(false, slog.Default())
	require.Equal(t, 3, adapter.ExitCodeFor(err))
}

func TestCommandRunnerMissingExecutable(t *testing.T) {
	tc := Toolchain{Name: "ghost", Install: []string{"docversions-no-such-binary"}, Build: []string{"docversions-no-such-binary"}}
	err := NewCommandRunner(tc, t.TempDir()).Install(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrCommandNotFound))
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
}

func TestCommandRunnerEmptyCommand(t *testing.T) {
	err := NewCommandRunner(Toolchain{Name: "empty"}, t.TempDir()).Build(context.Background())
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestCommandRunnerCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewCommandRunner(shellToolchain("true", "sleep 5"), t.TempDir()).Build(ctx)
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled))
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryCanceled))
}

func TestCommandRunnerDefaultsToProcessStreams(t *testing.T) {
	r := NewCommandRunner(shellToolchain("true", "true"), t.TempDir())
	require.Equal(t, os.Stdout, r.stdout)
	require.Equal(t, os.Stderr, r.stderr)
}
