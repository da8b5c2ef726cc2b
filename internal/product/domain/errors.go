package domain

import (
	"errors"
	"fmt"
)

var (
	ErrFetch        = errors.New("fetch failed")
	ErrMutation     = errors.New("mutation failed")
	ErrImport       = errors.New("import failed")
	ErrExport       = errors.New("export failed")
	ErrNotFound     = errors.New("product not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrDuplicate    = errors.New("duplicate product")
)

// OperationError is returned by every DataService implementation.
// errors.Is matches both Kind (ErrFetch, ErrMutation, ...) and the cause.
type OperationError struct {
	Op   string
	Kind error
	ID   uint
	Err  error
}

func (e *OperationError) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("%s product %d: %v: %v", e.Op, e.ID, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *OperationError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// FetchError wraps a failed list or history call.
func FetchError(op string, id uint, err error) error {
	return wrap(op, ErrFetch, id, err)
}

// MutationError wraps a failed update, delete or create call.
func MutationError(op string, id uint, err error) error {
	return wrap(op, ErrMutation, id, err)
}

// ImportError wraps a rejected bulk file.
func ImportError(err error) error {
	return wrap("import", ErrImport, 0, err)
}

// ExportError wraps a failed export.
func ExportError(err error) error {
	return wrap("export", ErrExport, 0, err)
}

func wrap(op string, kind error, id uint, err error) error {
	if err == nil {
		return nil
	}
	var opErr *OperationError
	if errors.As(err, &opErr) && opErr.Kind == kind {
		return err
	}
	return &OperationError{Op: op, Kind: kind, ID: id, Err: err}
}
