package inject

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/junioryono/inject/internal/callsite"
	"github.com/junioryono/inject/internal/lifetime"
	"github.com/junioryono/inject/internal/reflection"
	"github.com/junioryono/inject/internal/registry"
)

// ========================================
// Core Error Values (Sentinel Errors)
// ========================================
// These are base errors that are wrapped in typed errors when they carry
// more context. Compare with errors.Is.

var (
	// Service resolution errors.
	ErrServiceNotFound = errors.New("service not found")
	ErrServiceTypeNil  = errors.New("service type cannot be nil")

	// Lifecycle errors.
	ErrProviderNil       = errors.New("service provider cannot be nil")
	ErrProviderDisposed  = errors.New("service provider has been disposed")
	ErrScopeDisposed     = lifetime.ErrScopeDisposed
	ErrScopeNotInContext = errors.New("no scope found in context")

	// Registration errors.
	ErrConstructorNil = errors.New("constructor cannot be nil")
	ErrDescriptorNil  = errors.New("descriptor cannot be nil")
)

var (
	_ error = ResolutionError{}
	_ error = TypeMismatchError{}
	_ error = ModuleError{}
	_ error = RegistrationError{}
	_ error = BuildError{}
)

// ========================================
// Typed Errors Raised by the Engine
// ========================================

type (
	// LifetimeError indicates an invalid service lifetime value.
	LifetimeError = registry.LifetimeError

	// InvalidRegistrationError indicates a descriptor that can never be built.
	InvalidRegistrationError = registry.InvalidRegistrationError

	// DefaultValueError indicates a default argument that does not fit its parameter.
	DefaultValueError = registry.DefaultValueError

	// CircularDependencyError reports a dependency cycle with its full path.
	CircularDependencyError = callsite.CircularDependencyError

	// NoConstructorMatchError indicates an implementation with no usable constructor.
	NoConstructorMatchError = callsite.NoConstructorMatchError

	// AmbiguousConstructorError indicates two constructors that are equally satisfiable.
	AmbiguousConstructorError = callsite.AmbiguousConstructorError

	// UnableToActivateError indicates that no constructor could be satisfied.
	UnableToActivateError = callsite.UnableToActivateError

	// UnresolvableDependencyError indicates a constructor parameter with no registration.
	UnresolvableDependencyError = callsite.UnresolvableDependencyError

	// LifetimeConflictError indicates a singleton that depends on a scoped service.
	LifetimeConflictError = callsite.LifetimeConflictError

	// ScopeValidationError indicates a scoped dependency requested from the root scope.
	ScopeValidationError = callsite.ScopeValidationError

	// ConstructorPanicError indicates a constructor panicked during invocation.
	ConstructorPanicError = reflection.ConstructorPanicError

	// DisposalError aggregates the errors returned while closing a scope.
	DisposalError = lifetime.DisposalError
)

// ========================================
// Typed Errors for the Public API
// ========================================

// ResolutionError reports a required service that could not be produced.
type ResolutionError struct {
	ServiceType reflect.Type
	Cause       error
	Available   []reflect.Type // registered types, used for suggestions
}

func (e ResolutionError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("service not found: %s", formatType(e.ServiceType)))

	if e.Cause != nil && !errors.Is(e.Cause, ErrServiceNotFound) {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if similar := findSimilarTypes(e.ServiceType, e.Available); len(similar) > 0 {
		b.WriteString("\n\nDid you mean one of these?\n")
		for _, t := range similar {
			b.WriteString(fmt.Sprintf("  • %s\n", formatType(t)))
		}
	}

	b.WriteString("\nMake sure the service is registered with the correct lifetime and type.")

	return b.String()
}

func (e ResolutionError) Unwrap() error {
	return e.Cause
}

// findSimilarTypes finds registered types whose names resemble target.
func findSimilarTypes(target reflect.Type, available []reflect.Type) []reflect.Type {
	if target == nil || len(available) == 0 {
		return nil
	}

	targetName := strings.ToLower(target.String())
	targetShortName := strings.ToLower(shortName(target))

	var similar []reflect.Type
	for _, t := range available {
		if t == nil || t == target {
			continue
		}

		typeName := strings.ToLower(t.String())
		typeShortName := strings.ToLower(shortName(t))

		if targetShortName == typeShortName ||
			strings.Contains(typeName, targetShortName) ||
			strings.Contains(targetName, typeShortName) {
			similar = append(similar, t)
		}

		if len(similar) >= 5 {
			break
		}
	}

	return similar
}

func shortName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

// TypeMismatchError indicates a resolved value is not of the requested type.
type TypeMismatchError struct {
	Expected reflect.Type
	Actual   reflect.Type
	Context  string // "resolution", "invocation", etc.
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch in %s: expected %s, got %s",
		e.Context, formatType(e.Expected), formatType(e.Actual))
}

// RegistrationError wraps a failure to add a service to a collection.
type RegistrationError struct {
	ServiceType reflect.Type
	Operation   string // "constructor", "instance", "factory", "type", "open-generic"
	Cause       error
}

func (e RegistrationError) Error() string {
	if e.ServiceType == nil {
		return fmt.Sprintf("failed to register %s: %v", e.Operation, e.Cause)
	}
	return fmt.Sprintf("failed to register %s %s: %v", e.Operation, formatType(e.ServiceType), e.Cause)
}

func (e RegistrationError) Unwrap() error {
	return e.Cause
}

// ModuleError wraps errors from module registration.
type ModuleError struct {
	Module string
	Cause  error
}

func (e ModuleError) Error() string {
	return fmt.Sprintf("module %q: %v", e.Module, e.Cause)
}

func (e ModuleError) Unwrap() error {
	return e.Cause
}

// BuildError wraps errors that occur while building a provider.
type BuildError struct {
	Phase   string // "registration", "validation"
	Details string
	Cause   error
}

func (e BuildError) Error() string {
	return fmt.Sprintf("build failed during %s phase: %s: %v", e.Phase, e.Details, e.Cause)
}

func (e BuildError) Unwrap() error {
	return e.Cause
}

// ========================================
// Error Classification Helpers
// ========================================

// IsNotFound reports whether err means a required service was not registered.
func IsNotFound(err error) bool {
	var re ResolutionError
	var ue UnresolvableDependencyError
	return errors.Is(err, ErrServiceNotFound) || errors.As(err, &re) || errors.As(err, &ue)
}

// IsCircularDependency reports whether err is caused by a dependency cycle.
func IsCircularDependency(err error) bool {
	var ce CircularDependencyError
	return errors.As(err, &ce)
}

// IsDisposed reports whether err was returned by a closed provider or scope.
func IsDisposed(err error) bool {
	return errors.Is(err, ErrProviderDisposed) || errors.Is(err, ErrScopeDisposed)
}

// IsConstructorError reports whether err means no constructor could be used.
func IsConstructorError(err error) bool {
	var (
		nm NoConstructorMatchError
		ac AmbiguousConstructorError
		ua UnableToActivateError
		cp ConstructorPanicError
	)
	return errors.As(err, &nm) || errors.As(err, &ac) || errors.As(err, &ua) || errors.As(err, &cp)
}

// IsScopeError reports whether err is a lifetime conflict or scope validation failure.
func IsScopeError(err error) bool {
	var (
		lc LifetimeConflictError
		sv ScopeValidationError
	)
	return errors.As(err, &lc) || errors.As(err, &sv)
}

func formatType(t reflect.Type) string {
	return reflection.FormatType(t)
}
