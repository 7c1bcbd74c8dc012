package credentials

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrIncorrectPassword = errors.New("incorrect password")
)

// StorageError reports a failed database operation. Conflict is set when the
// cause was a uniqueness violation that the upsert could not absorb.
type StorageError struct {
	Conflict bool
	Err      error
}

func (e *StorageError) Error() string {
	if e.Conflict {
		return fmt.Sprintf("storage conflict: %v", e.Err)
	}
	return fmt.Sprintf("storage: %v", e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// HashingError reports a failure to derive or check a password hash.
type HashingError struct {
	Err error
}

func (e *HashingError) Error() string { return fmt.Sprintf("hashing: %v", e.Err) }

func (e *HashingError) Unwrap() error { return e.Err }
