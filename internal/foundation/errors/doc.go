// Package errors provides the classified error primitives used across docversions.
//
// A ClassifiedError carries a category (config, validation, toolchain, build,
// filesystem, ...), a severity and free-form context. Errors are constructed
// through the fluent ErrorBuilder:
//
//	err := errors.BuildError("output directory missing").
//		WithContext("version", v).
//		WithCause(os.ErrNotExist).
//		Build()
//
// The CLIErrorAdapter turns any error into a user-facing message and a process
// exit code. Exit codes of failed external commands are propagated unchanged.
package errors
