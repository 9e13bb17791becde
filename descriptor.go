package inject

import (
	"fmt"
	"reflect"

	"github.com/junioryono/inject/internal/reflection"
	"github.com/junioryono/inject/internal/registry"
)

// Descriptor describes one registration: a service type, how to build its
// implementation and the lifetime of the built instances. Exactly one of
// ImplementationInstance, ImplementationFactory, ImplementationType or
// ImplementationDefinition is set.
//
// Most code registers services through a Collection. Descriptors can be
// built directly when the service type differs from what a constructor
// returns, or for open generic registrations.
type Descriptor = registry.Descriptor

// TypeDefinition names a generic type family without its type arguments.
// Obtain one from any instantiation with DefinitionOf.
type TypeDefinition = registry.TypeDefinition

// Factory produces a service from the provider of the scope requesting it.
type Factory func(sp ServiceProvider) (any, error)

// shared by the descriptor helpers and every Collection
var analyzer = reflection.New()

// TypeOf returns the reflect.Type of T, including interface types.
//
// Example:
//
//	svc, err := provider.GetService(inject.TypeOf[Logger]())
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// DefinitionOf returns the type family of the generic instantiation T.
// Any instantiation can be used: DefinitionOf[Repository[int]] and
// DefinitionOf[Repository[string]] return the same definition.
//
// Example:
//
//	service, _ := inject.DefinitionOf[Repository[any]]()
//	impl, _ := inject.DefinitionOf[*sqlRepository[any]]()
//	collection.AddOpenGeneric(service, impl, inject.Scoped,
//	    newSQLRepository[User],
//	    newSQLRepository[Order],
//	)
func DefinitionOf[T any]() (*TypeDefinition, error) {
	return registry.DefinitionOf(TypeOf[T]())
}

// ConstructorSpec is a constructor function together with default values
// for some of its parameters. Create one with Ctor.
type ConstructorSpec struct {
	Func     any
	Defaults map[int]any
}

// Ctor attaches default arguments to a constructor function. A parameter
// with a default is filled with it when its type is not registered.
//
// Example:
//
//	collection.AddType(inject.TypeOf[*Client](), inject.TypeOf[*Client](), inject.Singleton,
//	    inject.Ctor(NewClient, inject.DefaultArg(1, 30*time.Second)),
//	)
func Ctor(fn any, defaults ...DefaultArgOption) ConstructorSpec {
	spec := ConstructorSpec{Func: fn}
	for _, d := range defaults {
		if spec.Defaults == nil {
			spec.Defaults = make(map[int]any, len(defaults))
		}
		spec.Defaults[d.Index] = d.Value
	}
	return spec
}

// NewInstanceDescriptor describes a pre-built singleton instance.
func NewInstanceDescriptor(serviceType reflect.Type, instance any) *Descriptor {
	return &Descriptor{
		ServiceType:            serviceType,
		Lifetime:               Singleton,
		ImplementationInstance: instance,
	}
}

// NewFactoryDescriptor describes a service produced by factory.
func NewFactoryDescriptor(serviceType reflect.Type, lifetime Lifetime, factory Factory) *Descriptor {
	d := &Descriptor{
		ServiceType: serviceType,
		Lifetime:    lifetime,
	}
	if factory != nil {
		d.ImplementationFactory = adaptFactory(factory)
	}
	return d
}

// NewTypeDescriptor describes a service built from implementationType.
// Each element of ctors is a constructor function or a ConstructorSpec.
// When ctors is empty a struct or pointer to struct implementation is
// created from its zero value.
func NewTypeDescriptor(serviceType, implementationType reflect.Type, lifetime Lifetime, ctors ...any) (*Descriptor, error) {
	constructors, err := newConstructors(ctors)
	if err != nil {
		return nil, err
	}

	return &Descriptor{
		ServiceType:        serviceType,
		Lifetime:           lifetime,
		ImplementationType: implementationType,
		Constructors:       constructors,
	}, nil
}

// NewOpenGenericDescriptor describes an open generic service. Each element
// of ctors is an instantiated constructor able to close the implementation
// family for one set of type arguments.
func NewOpenGenericDescriptor(service, implementation *TypeDefinition, lifetime Lifetime, ctors ...any) (*Descriptor, error) {
	constructors, err := newConstructors(ctors)
	if err != nil {
		return nil, err
	}

	return &Descriptor{
		ServiceDefinition:        service,
		Lifetime:                 lifetime,
		ImplementationDefinition: implementation,
		Constructors:             constructors,
	}, nil
}

func newConstructors(ctors []any) ([]*registry.Constructor, error) {
	out := make([]*registry.Constructor, 0, len(ctors))
	for _, ctor := range ctors {
		c, err := newConstructor(ctor)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func newConstructor(ctor any) (*registry.Constructor, error) {
	switch c := ctor.(type) {
	case nil:
		return nil, ErrConstructorNil
	case ConstructorSpec:
		if c.Func == nil {
			return nil, ErrConstructorNil
		}
		return registry.NewConstructor(analyzer, c.Func, c.Defaults)
	case *ConstructorSpec:
		if c == nil || c.Func == nil {
			return nil, ErrConstructorNil
		}
		return registry.NewConstructor(analyzer, c.Func, c.Defaults)
	default:
		if reflect.TypeOf(ctor).Kind() != reflect.Func {
			return nil, fmt.Errorf("constructor must be a function or inject.Ctor, got %s", formatType(reflect.TypeOf(ctor)))
		}
		return registry.NewConstructor(analyzer, ctor, nil)
	}
}

// adaptFactory hands factories the facade of the requesting scope.
func adaptFactory(factory Factory) registry.Factory {
	return func(p registry.Provider) (any, error) {
		sp, ok := p.(ServiceProvider)
		if !ok {
			return nil, ErrProviderNil
		}
		return factory(sp)
	}
}
