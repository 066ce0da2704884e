package store

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned by every session operation attempted while the
// session is not open.
var ErrNotConnected = errors.New("store: session is not connected")

// Error wraps a connectivity, read or write failure at the database.
type Error struct {
	Op    string
	Table string
	Err   error
}

func (e *Error) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Table, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
