package repositories

import "fmt"

// StoreErrorCode enumerates record store failure categories.
type StoreErrorCode string

const (
	// StoreErrorNotFound indicates the requested record does not exist.
	StoreErrorNotFound StoreErrorCode = "store_not_found"
	// StoreErrorCorrupt indicates the persisted record could not be decoded.
	StoreErrorCorrupt StoreErrorCode = "store_corrupt"
	// StoreErrorUnavailable indicates the record store could not be reached.
	StoreErrorUnavailable StoreErrorCode = "store_unavailable"
)

// StoreError wraps record store failures with a machine readable code.
type StoreError struct {
	Op   string
	Code StoreErrorCode
	Err  error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Code)
}

// Unwrap exposes the underlying error, if any.
func (e *StoreError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsNotFound reports whether the record was absent.
func (e *StoreError) IsNotFound() bool { return e != nil && e.Code == StoreErrorNotFound }

// IsCorrupt reports whether the record existed but could not be decoded.
func (e *StoreError) IsCorrupt() bool { return e != nil && e.Code == StoreErrorCorrupt }

// IsUnavailable reports whether the record store itself failed.
func (e *StoreError) IsUnavailable() bool { return e != nil && e.Code == StoreErrorUnavailable }

// NewStoreError constructs a typed store error.
func NewStoreError(op string, code StoreErrorCode, err error) *StoreError {
	return &StoreError{Op: op, Code: code, Err: err}
}
