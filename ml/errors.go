package ml

import "fmt"

// ModelLoadError means the artifact could not be read, decoded or validated.
type ModelLoadError struct {
	Path string
	Err  error
}

func (e *ModelLoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("ml: load model: %v", e.Err)
	}
	return fmt.Sprintf("ml: load model %s: %v", e.Path, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

// SchemaMismatchError means a frame does not line up with the columns, types or
// categories the model was trained on.
type SchemaMismatchError struct {
	Column string
	Reason string
}

func (e *SchemaMismatchError) Error() string {
	if e.Column == "" {
		return "ml: schema mismatch: " + e.Reason
	}
	return fmt.Sprintf("ml: schema mismatch on column %q: %s", e.Column, e.Reason)
}

func mismatch(column, format string, args ...any) error {
	return &SchemaMismatchError{Column: column, Reason: fmt.Sprintf(format, args...)}
}
