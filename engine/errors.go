package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrCorruptFile means the byte stream is not a valid parquet file.
	// Fatal for the file, nothing was loaded.
	ErrCorruptFile = errors.New("corrupt parquet file")

	// ErrUnsupportedVersion means the footer parsed but declares a format
	// version this reader cannot interpret.
	ErrUnsupportedVersion = errors.New("unsupported parquet format version")

	ErrInvalidPageSize = errors.New("page size must be positive")
)

// ErrInvalidColumn indicates a requested column that does not exist in the
// file's schema. Recoverable, the caller should re-validate its selection.
type ErrInvalidColumn struct {
	Column string
}

func (e *ErrInvalidColumn) Error() string {
	return fmt.Sprintf("column %q does not exist in schema", e.Column)
}

// ErrDecode indicates a row group level read failure. Fatal for the affected
// page only, other pages and row groups remain viewable.
//
// The underlying decode error can be accessed via errors.Unwrap.
type ErrDecode struct {
	RowGroup int
	cause    error
}

func (e *ErrDecode) Error() string {
	return fmt.Sprintf("failed to decode row group %d: %v", e.RowGroup, e.cause)
}

func (e *ErrDecode) Unwrap() error { return e.cause }
