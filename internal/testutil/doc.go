// Package testutil contains fixtures and fakes shared by package tests: a
// throwaway site project, a fake toolchain runner that imitates a site
// generator, and fluent file assertions.
package testutil

const (
	testDirPermissions  = 0o750
	testFilePermissions = 0o644
)
