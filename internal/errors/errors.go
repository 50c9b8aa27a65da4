// Package errors provides PipelineError, a structured error classified by the
// kind of stage that raised it. Every stage returns one so the CLI and the
// watch loop can report failures uniformly.
package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// Category classifies a pipeline failure.
type Category string

const (
	// CategoryConfig covers malformed globs, bad config files, unmatched
	// build markers and manifest version problems. Always raised before any write.
	CategoryConfig Category = "config"
	// CategoryValidation covers lint violations.
	CategoryValidation Category = "validation"
	// CategoryTransform covers bundling, copying and rewriting failures.
	CategoryTransform Category = "transform"
	// CategoryPackaging covers archive naming and writing failures.
	CategoryPackaging Category = "packaging"
	// CategoryFileSystem covers workspace reset failures.
	CategoryFileSystem Category = "filesystem"
	// CategoryInternal is used for errors that did not come from a stage.
	CategoryInternal Category = "internal"
)

// ContextFields carries structured context for a PipelineError.
type ContextFields map[string]any

// PipelineError is a categorized error with optional cause and context.
type PipelineError struct {
	Category Category      `json:"category"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Category))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" [")
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Context[k])
		}
		b.WriteByte(']')
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the wrapped cause.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// WithContext adds a context field and returns the error for chaining.
func (e *PipelineError) WithContext(key string, value any) *PipelineError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a PipelineError without a cause.
func New(category Category, message string) *PipelineError {
	return &PipelineError{Category: category, Message: message}
}

// Wrap creates a PipelineError around cause.
func Wrap(cause error, category Category, message string) *PipelineError {
	return &PipelineError{Category: category, Message: message, Cause: cause}
}

// As finds the first PipelineError in err's chain.
func As(err error) (*PipelineError, bool) {
	var pe *PipelineError
	if stderrors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsCategory reports whether any PipelineError in err's chain has the category.
func IsCategory(err error, category Category) bool {
	for err != nil {
		var pe *PipelineError
		if !stderrors.As(err, &pe) {
			return false
		}
		if pe.Category == category {
			return true
		}
		err = pe.Cause
	}
	return false
}

// GetCategory returns the category of the outermost PipelineError, or
// CategoryInternal when err carries none.
func GetCategory(err error) Category {
	if pe, ok := As(err); ok {
		return pe.Category
	}
	return CategoryInternal
}
