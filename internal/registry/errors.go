package registry

import (
	"fmt"
)

var (
	_ error = LifetimeError{}
	_ error = InvalidRegistrationError{}
	_ error = DefaultValueError{}
)

// LifetimeError indicates an invalid service lifetime value.
type LifetimeError struct {
	Value any
}

func (e LifetimeError) Error() string {
	return fmt.Sprintf("invalid service lifetime: %v", e.Value)
}

// InvalidRegistrationError indicates a descriptor that can never be resolved.
// It is reported when the provider is built, never lazily.
type InvalidRegistrationError struct {
	Descriptor *Descriptor
	Reason     string
}

func (e InvalidRegistrationError) Error() string {
	if e.Descriptor == nil {
		return fmt.Sprintf("invalid registration: %s", e.Reason)
	}
	return fmt.Sprintf("invalid registration of %s: %s", e.Descriptor.ServiceName(), e.Reason)
}

// DefaultValueError indicates a default argument that does not fit its parameter.
type DefaultValueError struct {
	Constructor string
	Index       int
	Reason      string
}

func (e DefaultValueError) Error() string {
	return fmt.Sprintf("default for parameter %d of %s: %s", e.Index, e.Constructor, e.Reason)
}
