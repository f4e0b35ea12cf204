package errors

import "strings"

// Context keys shared by the constructors and the CLI adapter.
const (
	ContextCommand = "command"
	ContextPath    = "path"
	ContextField   = "field"
)

// Config errors

func ConfigLoadFailed(path string, cause error) *BuildError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "failed to load configuration").
		WithContext(ContextPath, path)
}

func ValidationFailed(field, reason string) *BuildError {
	return New(CategoryValidation, SeverityFatal, "validation failed: "+field+": "+reason).
		WithContext(ContextField, field)
}

// Compiler errors

// ExternalCommandFailed reports a compiler invocation that exited non-zero.
func ExternalCommandFailed(command []string, cause error) *BuildError {
	return Wrap(cause, CategoryCompiler, SeverityFatal, "command failed").
		WithContext(ContextCommand, strings.Join(command, " "))
}

// ToolNotFound reports a compiler binary that could not be located or launched.
func ToolNotFound(command []string, cause error) *BuildError {
	return Wrap(cause, CategoryToolNotFound, SeverityFatal, "command failed").
		WithContext(ContextCommand, strings.Join(command, " "))
}

// Environment errors

func FileSystemError(operation, path string, cause error) *BuildError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, operation+" failed").
		WithContext(ContextPath, path)
}

func Canceled(cause error) *BuildError {
	return Wrap(cause, CategoryCanceled, SeverityError, "build canceled")
}

func InternalError(message string, cause error) *BuildError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
