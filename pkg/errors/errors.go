package errors

import (
	"errors"
	"fmt"
)

var (
	ErrFileNotFound      = errors.New("file not found")
	ErrInvalidFileFormat = errors.New("invalid file format")
	ErrMissingIdentity   = errors.New("missing identity")
	ErrDuplicate         = errors.New("duplicate code or aadhaar exists")
	ErrNotFound          = errors.New("record not found")
	ErrInvalidID         = errors.New("invalid record id")
	ErrJobNotFound       = errors.New("import job not found")
)

type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s",
		e.Field, e.Value, e.Message)
}

// ImportError is returned when an import run is aborted by a storage
// failure. Rows skipped by policy never produce one.
type ImportError struct {
	Row      int
	Inserted int
	Err      error
}

func (e ImportError) Error() string {
	return fmt.Sprintf("import aborted at row %d after %d inserts: %s", e.Row, e.Inserted, e.Err.Error())
}

func (e ImportError) Unwrap() error {
	return e.Err
}

func NewImportError(row, inserted int, err error) error {
	return ImportError{
		Row:      row,
		Inserted: inserted,
		Err:      err,
	}
}
