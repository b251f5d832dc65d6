package speccache

import (
	"errors"
	"fmt"
)

var (
	// ErrGenerationFailed matches every *GenerationError via errors.Is.
	ErrGenerationFailed = errors.New("speccache: document generation failed")
	// ErrNilDocument is captured when a generator reports success without a document.
	ErrNilDocument = errors.New("speccache: generator returned a nil document")
	// ErrMisconfigured is wrapped by constructor errors for missing collaborators.
	ErrMisconfigured = errors.New("speccache: misconfigured")
)

// GenerationError is the failure captured from one generation attempt. The
// same value is returned to every caller until the exception TTL expires.
type GenerationError struct {
	Document string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate document %q: %v", e.Document, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrGenerationFailed.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}
