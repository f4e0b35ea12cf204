// Package testing contains fixtures shared by faustbuild tests: a project
// layout builder, a stub faust compiler and file assertions.
package testing

const (
	// testDirPermissions is the permission mode for creating test directories.
	testDirPermissions = 0o750

	// testFilePermissions is the permission mode for creating test files.
	testFilePermissions = 0o600
)
