package lifetime

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrScopeDisposed is returned when a closed scope is used.
	ErrScopeDisposed = errors.New("scope has been disposed")
)

var _ error = DisposalError{}

// Disposable is implemented by services that release resources.
type Disposable interface {
	Close() error
}

// DisposableWithContext is implemented by services whose cleanup takes a context.
type DisposableWithContext interface {
	Close(ctx context.Context) error
}

// IsDisposable reports whether instance has a Close method the scope will call.
func IsDisposable(instance any) bool {
	switch instance.(type) {
	case Disposable, DisposableWithContext:
		return true
	default:
		return false
	}
}

// dispose closes instance if it is disposable.
func dispose(ctx context.Context, instance any) error {
	var err error
	switch d := instance.(type) {
	case DisposableWithContext:
		err = d.Close(ctx)
	case Disposable:
		err = d.Close()
	default:
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to dispose %T: %w", instance, err)
	}
	return nil
}

// DisposalError aggregates disposal errors
type DisposalError struct {
	Context string // "provider", "scope"
	Errors  []error
}

func (e DisposalError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("%s disposal failed: %v", e.Context, e.Errors[0])
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s disposal failed with %d errors:", e.Context, len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("\n  %d. %v", i+1, err))
	}
	return sb.String()
}

// Unwrap exposes every underlying error to errors.Is and errors.As.
func (e DisposalError) Unwrap() []error {
	return e.Errors
}
