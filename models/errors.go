package models

import "fmt"

// ValidationError reports a raw model output that cannot be turned into a
// persisted record.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid prediction output: %s: %s", e.Field, e.Reason)
}
