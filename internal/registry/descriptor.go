package registry

import (
	"fmt"
	"reflect"

	"github.com/junioryono/inject/internal/reflection"
)

// Provider is the narrow view of a service provider handed to factories.
type Provider interface {
	GetService(serviceType reflect.Type) (any, error)
}

// Factory produces a service instance from the requesting provider.
type Factory func(provider Provider) (any, error)

// Descriptor is a registration record: a service type, an implementation
// strategy and a lifetime. Exactly one implementation strategy is set.
type Descriptor struct {
	// ServiceType is the closed type this descriptor serves.
	ServiceType reflect.Type

	// ServiceDefinition is set instead of ServiceType for open generic registrations.
	ServiceDefinition *TypeDefinition

	// Lifetime determines instance caching behavior.
	Lifetime Lifetime

	// ImplementationInstance is a pre-built instance.
	ImplementationInstance any

	// ImplementationFactory produces the instance on demand.
	ImplementationFactory Factory

	// ImplementationType is the concrete type built from Constructors.
	ImplementationType reflect.Type

	// ImplementationDefinition is the open generic implementation family.
	ImplementationDefinition *TypeDefinition

	// Constructors are the public constructors of the implementation type.
	// For open generics these are the instantiations that can close it.
	Constructors []*Constructor

	// Shares is the descriptor whose cached instance this one reuses. It
	// links the registrations of one constructor under several service types.
	Shares *Descriptor
}

// CacheOwner returns the descriptor that identifies this registration's
// cached instance.
func (d *Descriptor) CacheOwner() *Descriptor {
	if d.Shares != nil {
		return d.Shares
	}
	return d
}

// IsOpenGeneric reports whether the descriptor registers an open generic service.
func (d *Descriptor) IsOpenGeneric() bool {
	return d.ServiceDefinition != nil
}

// strategies counts how many implementation strategies are set.
func (d *Descriptor) strategies() int {
	n := 0
	if d.ImplementationInstance != nil {
		n++
	}
	if d.ImplementationFactory != nil {
		n++
	}
	if d.ImplementationType != nil {
		n++
	}
	if d.ImplementationDefinition != nil {
		n++
	}
	return n
}

// Validate checks the registration rules that can be proven without
// building any call site.
func (d *Descriptor) Validate() error {
	if d.ServiceType == nil && d.ServiceDefinition == nil {
		return InvalidRegistrationError{Descriptor: d, Reason: "service type cannot be nil"}
	}

	if !d.Lifetime.IsValid() {
		return InvalidRegistrationError{Descriptor: d, Reason: LifetimeError{Value: int(d.Lifetime)}.Error()}
	}

	if d.Shares != nil && (d.Shares.Lifetime != d.Lifetime || d.Shares.ImplementationType != d.ImplementationType) {
		return InvalidRegistrationError{Descriptor: d, Reason: "shared registrations must have the same lifetime and implementation type"}
	}

	switch d.strategies() {
	case 0:
		return InvalidRegistrationError{Descriptor: d, Reason: "no implementation instance, factory or type is set"}
	case 1:
	default:
		return InvalidRegistrationError{Descriptor: d, Reason: "more than one implementation strategy is set"}
	}

	if d.IsOpenGeneric() {
		return d.validateOpenGeneric()
	}

	if d.ImplementationDefinition != nil {
		return InvalidRegistrationError{
			Descriptor: d,
			Reason:     fmt.Sprintf("open generic implementation %s requires an open generic service", d.ImplementationDefinition),
		}
	}

	if d.ImplementationInstance != nil {
		instanceType := reflect.TypeOf(d.ImplementationInstance)
		if !instanceType.AssignableTo(d.ServiceType) {
			return InvalidRegistrationError{
				Descriptor: d,
				Reason:     fmt.Sprintf("instance of type %s is not assignable to %s", reflection.FormatType(instanceType), reflection.FormatType(d.ServiceType)),
			}
		}
	}

	if d.ImplementationType != nil {
		return d.validateImplementationType()
	}

	return nil
}

func (d *Descriptor) validateOpenGeneric() error {
	if d.ImplementationDefinition == nil {
		return InvalidRegistrationError{
			Descriptor: d,
			Reason:     fmt.Sprintf("open generic service %s requires an open generic implementation", d.ServiceDefinition),
		}
	}

	if d.ImplementationDefinition.IsInterface() {
		return InvalidRegistrationError{
			Descriptor: d,
			Reason:     fmt.Sprintf("cannot activate interface %s", d.ImplementationDefinition),
		}
	}

	for _, ctor := range d.Constructors {
		if !d.ImplementationDefinition.Matches(ctor.ImplementationType()) {
			return InvalidRegistrationError{
				Descriptor: d,
				Reason:     fmt.Sprintf("constructor %s does not return an instantiation of %s", ctor, d.ImplementationDefinition),
			}
		}
	}

	return nil
}

func (d *Descriptor) validateImplementationType() error {
	impl := d.ImplementationType

	if len(d.Constructors) == 0 && !reflection.IsActivatable(impl) {
		kind := ""
		if impl.Kind() == reflect.Interface {
			kind = "interface "
		}
		return InvalidRegistrationError{
			Descriptor: d,
			Reason:     fmt.Sprintf("cannot activate %s%s without a constructor", kind, reflection.FormatType(impl)),
		}
	}

	if !impl.AssignableTo(d.ServiceType) {
		return InvalidRegistrationError{
			Descriptor: d,
			Reason:     fmt.Sprintf("%s is not assignable to %s", reflection.FormatType(impl), reflection.FormatType(d.ServiceType)),
		}
	}

	for _, ctor := range d.Constructors {
		if ctor.ImplementationType() != impl {
			return InvalidRegistrationError{
				Descriptor: d,
				Reason:     fmt.Sprintf("constructor %s does not return %s", ctor, reflection.FormatType(impl)),
			}
		}
	}

	return nil
}

// ServiceName returns the service type or definition for messages.
func (d *Descriptor) ServiceName() string {
	if d.ServiceDefinition != nil {
		return d.ServiceDefinition.String()
	}
	return reflection.FormatType(d.ServiceType)
}

// String returns a short description of the descriptor.
func (d *Descriptor) String() string {
	var impl string
	switch {
	case d.ImplementationInstance != nil:
		impl = fmt.Sprintf("instance %s", reflection.FormatType(reflect.TypeOf(d.ImplementationInstance)))
	case d.ImplementationFactory != nil:
		impl = "factory"
	case d.ImplementationType != nil:
		impl = reflection.FormatType(d.ImplementationType)
	case d.ImplementationDefinition != nil:
		impl = d.ImplementationDefinition.String()
	default:
		impl = "<none>"
	}

	return fmt.Sprintf("%s -> %s (%s)", d.ServiceName(), impl, d.Lifetime)
}
