package callsite

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/junioryono/inject/internal/reflection"
	"github.com/junioryono/inject/internal/registry"
)

var (
	_ error = CircularDependencyError{}
	_ error = NoConstructorMatchError{}
	_ error = AmbiguousConstructorError{}
	_ error = UnableToActivateError{}
	_ error = UnresolvableDependencyError{}
	_ error = LifetimeConflictError{}
	_ error = ScopeValidationError{}
)

// CircularDependencyError reports a service that depends on itself through
// the resolution path.
type CircularDependencyError struct {
	Service reflect.Type
	Path    []Link
}

func (e CircularDependencyError) Error() string {
	var b strings.Builder
	b.WriteString("circular dependency detected:\n\n")

	for _, link := range e.Path {
		b.WriteString(fmt.Sprintf("    %s\n", formatLink(link)))
		b.WriteString("      ↓\n")
	}
	b.WriteString(fmt.Sprintf("    %s (cycle)\n", reflection.FormatType(e.Service)))

	b.WriteString("\nTo resolve this:\n")
	b.WriteString("  • Use an interface to break the dependency\n")
	b.WriteString("  • Use a factory function for lazy initialization\n")
	b.WriteString("  • Restructure to remove the circular relationship\n")

	return b.String()
}

func formatLink(link Link) string {
	if link.ImplementationType == nil || link.ImplementationType == link.ServiceType {
		return reflection.FormatType(link.ServiceType)
	}
	return fmt.Sprintf("%s (%s)", reflection.FormatType(link.ServiceType), reflection.FormatType(link.ImplementationType))
}

// NoConstructorMatchError indicates an implementation without any usable constructor.
type NoConstructorMatchError struct {
	ServiceType        reflect.Type
	ImplementationType reflect.Type
	Implementation     string // set when only a type definition is known
}

func (e NoConstructorMatchError) Error() string {
	impl := e.Implementation
	if impl == "" {
		impl = reflection.FormatType(e.ImplementationType)
	}
	return fmt.Sprintf("no constructor for %s can build %s", impl, reflection.FormatType(e.ServiceType))
}

// AmbiguousConstructorError indicates two fully resolvable constructors
// where neither parameter set contains the other.
type AmbiguousConstructorError struct {
	ImplementationType reflect.Type
	First              *registry.Constructor
	Second             *registry.Constructor
}

func (e AmbiguousConstructorError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("ambiguous constructors for %s:\n", reflection.FormatType(e.ImplementationType)))
	b.WriteString(fmt.Sprintf("  • %s\n", e.First))
	b.WriteString(fmt.Sprintf("  • %s\n", e.Second))
	b.WriteString("\nBoth can be satisfied and neither parameter list includes the other.\n")
	b.WriteString("Register a single constructor or make one a superset of the other.")
	return b.String()
}

// UnableToActivateError indicates that no constructor had all of its
// dependencies available.
type UnableToActivateError struct {
	ImplementationType reflect.Type
	Constructors       []*registry.Constructor
}

func (e UnableToActivateError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("unable to activate %s: no constructor has all of its dependencies registered", reflection.FormatType(e.ImplementationType)))
	for _, c := range e.Constructors {
		b.WriteString(fmt.Sprintf("\n  • %s", c))
	}
	return b.String()
}

// UnresolvableDependencyError indicates a required parameter with no
// registration and no default value.
type UnresolvableDependencyError struct {
	DependencyType     reflect.Type
	ImplementationType reflect.Type
}

func (e UnresolvableDependencyError) Error() string {
	return fmt.Sprintf("unable to resolve %s while activating %s",
		reflection.FormatType(e.DependencyType), reflection.FormatType(e.ImplementationType))
}

// LifetimeConflictError indicates a service has an invalid dependency due to lifetime constraints.
// For example, a Singleton service cannot depend on a Scoped service.
type LifetimeConflictError struct {
	ServiceType        reflect.Type
	ServiceLifetime    registry.Lifetime
	DependencyType     reflect.Type
	DependencyLifetime registry.Lifetime
}

func (e LifetimeConflictError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("lifetime conflict: %s (%s) cannot depend on %s (%s)\n\n",
		reflection.FormatType(e.ServiceType), e.ServiceLifetime,
		reflection.FormatType(e.DependencyType), e.DependencyLifetime))

	b.WriteString("Singleton services are created once and live for the application lifetime.\n")
	b.WriteString("Scoped services are created per-scope and may have different values in different scopes.\n\n")
	b.WriteString("A singleton depending on a scoped service would capture a single scope's value.\n\n")

	b.WriteString("To resolve this:\n")
	b.WriteString(fmt.Sprintf("  • Change %s to Scoped lifetime\n", reflection.FormatType(e.ServiceType)))
	b.WriteString(fmt.Sprintf("  • Change %s to Singleton lifetime\n", reflection.FormatType(e.DependencyType)))
	b.WriteString(fmt.Sprintf("  • Use a factory function to resolve %s lazily\n", reflection.FormatType(e.DependencyType)))

	return b.String()
}

// ScopeValidationError indicates a scoped service requested from the root scope.
type ScopeValidationError struct {
	ServiceType reflect.Type
	ScopedType  reflect.Type
}

func (e ScopeValidationError) Error() string {
	if e.ServiceType == e.ScopedType {
		return fmt.Sprintf("cannot resolve scoped service %s from the root provider", reflection.FormatType(e.ServiceType))
	}
	return fmt.Sprintf("cannot resolve %s from the root provider because it requires scoped service %s",
		reflection.FormatType(e.ServiceType), reflection.FormatType(e.ScopedType))
}
