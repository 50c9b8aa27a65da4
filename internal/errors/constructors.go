package errors

import "fmt"

// Config errors

func ConfigInvalid(field, reason string) *PipelineError {
	return New(CategoryConfig, "invalid configuration").
		WithContext("field", field).
		WithContext("reason", reason)
}

func ConfigLoadFailed(path string, cause error) *PipelineError {
	return Wrap(cause, CategoryConfig, "failed to load configuration").
		WithContext("path", path)
}

func BadPattern(pattern string, cause error) *PipelineError {
	return Wrap(cause, CategoryConfig, "malformed glob pattern").
		WithContext("pattern", pattern)
}

func UnmatchedMarker(file string, line int, marker string) *PipelineError {
	return New(CategoryConfig, "unmatched build marker").
		WithContext("file", file).
		WithContext("line", line).
		WithContext("marker", marker)
}

func PlanInvalid(file string, line int, reason string) *PipelineError {
	return New(CategoryConfig, reason).
		WithContext("file", file).
		WithContext("line", line)
}

func ManifestInvalid(path string, cause error) *PipelineError {
	return Wrap(cause, CategoryConfig, "invalid manifest").
		WithContext("path", path)
}

func VersionInvalid(version string) *PipelineError {
	return New(CategoryConfig, fmt.Sprintf("manifest version %q is not a dotted numeric string", version))
}

// Validation errors

func LintFailed(issues int, report string) *PipelineError {
	return New(CategoryValidation, fmt.Sprintf("lint found %d problem(s)", issues)).
		WithContext("report", report)
}

// Transform errors

func MissingInput(bundle, source string) *PipelineError {
	return New(CategoryTransform, "planned input file is missing").
		WithContext("bundle", bundle).
		WithContext("source", source)
}

func MinifyFailed(target string, cause error) *PipelineError {
	return Wrap(cause, CategoryTransform, "minification failed").
		WithContext("target", target)
}

func TransformFailed(operation string, cause error) *PipelineError {
	return Wrap(cause, CategoryTransform, "transform failed").
		WithContext("operation", operation)
}

// Packaging errors

func PackagingFailed(operation string, cause error) *PipelineError {
	return Wrap(cause, CategoryPackaging, "packaging failed").
		WithContext("operation", operation)
}

func ArtifactNameInvalid(version string) *PipelineError {
	return New(CategoryPackaging, fmt.Sprintf("cannot name artifact from version %q", version))
}

// Filesystem errors

func ResetFailed(path string, cause error) *PipelineError {
	return Wrap(cause, CategoryFileSystem, "workspace reset failed").
		WithContext("path", path)
}
