package activity

import (
	"errors"
	"fmt"
)

var (
	// ErrNoKeyProvided is returned when neither an explicit key nor an action
	// is available to name the activity.
	ErrNoKeyProvided = errors.New("activity: no key provided")
	// ErrAttributeNotFound is returned when an attribute reference names
	// something the subject does not expose.
	ErrAttributeNotFound = errors.New("activity: attribute not found")
	// ErrInvalidReference is returned when an owner or recipient resolves to
	// a value that cannot be stored as a reference.
	ErrInvalidReference = errors.New("activity: invalid reference")
	// ErrInvalidRecord is returned by Record.Validate.
	ErrInvalidRecord = errors.New("activity: invalid record")
	// ErrInvalidOption is returned when call-site options cannot be interpreted.
	ErrInvalidOption = errors.New("activity: invalid option")
)

// StorageError wraps a failure of the storage adapter.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("activity storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsStorageError reports whether err carries a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
