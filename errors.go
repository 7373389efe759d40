package txio

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrNotExist            = errors.New("file does not exist")
	ErrExist               = errors.New("file already exists")
	ErrNotDir              = errors.New("not a directory")
	ErrIsDir               = errors.New("is a directory")
	ErrInvalidBufferSize   = errors.New("buffer size must be positive")
	ErrChecksumMismatch    = errors.New("checksum mismatch")
	ErrUnsupportedChecksum = errors.New("unsupported checksum algorithm")
	ErrDestinationInSource = errors.New("destination is inside the source directory")
)

// PathError records an error and the operation and file path that caused it
type PathError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface
func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *PathError) Unwrap() error {
	return e.Err
}

// IsNotExist reports whether err indicates a missing file or directory
func IsNotExist(err error) bool {
	return errors.Is(err, ErrNotExist)
}

// IsExist reports whether err indicates that the target already exists
func IsExist(err error) bool {
	return errors.Is(err, ErrExist)
}
