package database

import (
	"errors"
	"fmt"
)

// ErrStoreUnavailable is matched by every StoreError
var ErrStoreUnavailable = errors.New("task store unavailable")

// StoreError reports a connectivity or query failure against the task store
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("task store unavailable: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrStoreUnavailable) match
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}
