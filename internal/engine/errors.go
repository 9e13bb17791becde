package engine

import (
	"fmt"
)

var _ error = ModeError{}

// ModeError indicates an unknown evaluation mode.
type ModeError struct {
	Value any
}

func (e ModeError) Error() string {
	return fmt.Sprintf("invalid engine mode: %v", e.Value)
}
