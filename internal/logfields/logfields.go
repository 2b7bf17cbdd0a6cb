package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyVersion    = "version"
	KeyVersions   = "versions"
	KeyToolchain  = "toolchain"
	KeyStep       = "step"
	KeyCommand    = "command"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyOutput     = "output"
	KeyStaging    = "staging"
	KeyRunDir     = "run_dir"
	KeyDurationMS = "duration_ms"
	KeyFiles      = "files"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Version(v string) slog.Attr      { return slog.String(KeyVersion, v) }
func Versions(vs []string) slog.Attr  { return slog.Any(KeyVersions, vs) }
func Toolchain(name string) slog.Attr { return slog.String(KeyToolchain, name) }
func Step(name string) slog.Attr      { return slog.String(KeyStep, name) }
func Command(argv string) slog.Attr   { return slog.String(KeyCommand, argv) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Output(dir string) slog.Attr     { return slog.String(KeyOutput, dir) }
func Staging(dir string) slog.Attr    { return slog.String(KeyStaging, dir) }
func RunDir(dir string) slog.Attr     { return slog.String(KeyRunDir, dir) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Files(n int) slog.Attr           { return slog.Int(KeyFiles, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
