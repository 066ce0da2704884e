package inference

import "fmt"

// Error is returned by every provider failure: transport, model server status,
// undecodable output or a missing expected label.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s prediction error: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
