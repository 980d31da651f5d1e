package transport

import (
	"errors"
	"fmt"
)

// RecoverableError marks a session-level fault: the supervisor tears the
// session down, keeps the core data, and re-accepts. Everything that does
// not unwrap to it is fatal.
type RecoverableError struct {
	Err error
}

func (e *RecoverableError) Error() string {
	return fmt.Sprintf("recoverable transport error: %v", e.Err)
}

func (e *RecoverableError) Unwrap() error {
	return e.Err
}

// Recoverable wraps err as a session-level fault. A nil err stays nil.
func Recoverable(err error) error {
	if err == nil {
		return nil
	}
	return &RecoverableError{Err: err}
}

// IsRecoverable reports whether err is a session-level fault.
func IsRecoverable(err error) bool {
	var re *RecoverableError
	return errors.As(err, &re)
}
