package store

import "errors"

// ErrNotFound is wrapped by a StorageError when an operation targets a row
// that does not exist.
var ErrNotFound = errors.New("not found")

// StorageError is returned by every store operation that fails, whether the
// database is unavailable, a constraint is violated, or the row is missing.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

// wrap returns err as a StorageError for op, leaving existing StorageErrors
// untouched.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsNotFound reports whether err is a missing-row StorageError.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
