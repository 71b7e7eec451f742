package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexUnavailable signals that no frame index has been built yet.
	ErrIndexUnavailable = errors.New("index unavailable")
	// ErrVideoNotFound signals a missing video.
	ErrVideoNotFound = errors.New("video not found")
	// ErrInvalidArgument signals a malformed request parameter.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrAlreadyExists signals a duplicate video or frame.
	ErrAlreadyExists = errors.New("already exists")

	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// DimMismatchError carries both sides of a dimension check.
type DimMismatchError struct {
	Expected int
	Got      int
}

func (e *DimMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %d, got %d", ErrVectorDimMismatch.Error(), e.Expected, e.Got)
}

func (e *DimMismatchError) Unwrap() error { return ErrVectorDimMismatch }

// Is makes a dimension mismatch also match ErrInvalidArgument.
func (e *DimMismatchError) Is(target error) bool { return target == ErrInvalidArgument }

// NewDimMismatch creates a dimension mismatch error.
func NewDimMismatch(expected, got int) error {
	return &DimMismatchError{Expected: expected, Got: got}
}

// InvalidArgument wraps ErrInvalidArgument with a formatted reason.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
