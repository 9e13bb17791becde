package inject

import (
	"reflect"
	"sync"

	"github.com/junioryono/inject/internal/registry"
)

// Collection represents an ordered list of service descriptors that define
// the services available from a Provider.
//
// Collection follows a builder pattern where services are registered
// with their lifetimes and dependencies, then built into a Provider.
// Registration is closed at Build: services added afterwards are not
// visible to providers that were already built.
//
// Several registrations may share a service type. The last one wins when
// the service is resolved alone, and all of them are returned, in
// registration order, when the slice of the service type is resolved.
//
// Example:
//
//	collection := inject.NewCollection()
//	collection.AddSingleton(NewLogger)
//	collection.AddScoped(NewDatabase)
//
//	provider, err := collection.Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
type Collection interface {
	// Build creates a Provider from the registered services.
	Build(opts ...Option) (Provider, error)

	// BuildWithOptions creates a Provider with custom options
	// for validation and behavior configuration.
	BuildWithOptions(options *ProviderOptions) (Provider, error)

	// AddModules applies one or more module configurations to the collection.
	// Modules provide a way to group related service registrations.
	AddModules(modules ...ModuleOption) error

	// Add appends a descriptor as is.
	Add(descriptor *Descriptor) error

	// AddSingleton registers a constructor with singleton lifetime.
	// Only one instance is created and shared across all resolutions.
	AddSingleton(constructor any, opts ...AddOption) error

	// AddScoped registers a constructor with scoped lifetime.
	// One instance is created per scope and shared within that scope.
	AddScoped(constructor any, opts ...AddOption) error

	// AddTransient registers a constructor with transient lifetime.
	// A new instance is created every time the service is resolved.
	AddTransient(constructor any, opts ...AddOption) error

	// AddInstance registers a pre-built singleton under its dynamic type,
	// or under the interfaces named with As.
	AddInstance(instance any, opts ...AddOption) error

	// AddFactory registers a service produced by a factory function.
	AddFactory(serviceType reflect.Type, lifetime Lifetime, factory Factory) error

	// AddType registers implementationType as serviceType. Each element of
	// ctors is a constructor function or a ConstructorSpec; when several are
	// given the one with the most resolvable parameters is used.
	AddType(serviceType, implementationType reflect.Type, lifetime Lifetime, ctors ...any) error

	// AddOpenGeneric registers a generic service family. ctors are the
	// instantiated constructors that close the implementation family.
	AddOpenGeneric(service, implementation *TypeDefinition, lifetime Lifetime, ctors ...any) error

	// Contains checks if a service type is registered.
	Contains(serviceType reflect.Type) bool

	// ToSlice returns a copy of all registered service descriptors
	// in registration order.
	ToSlice() []*Descriptor

	// Count returns the number of registered services.
	Count() int
}

type collection struct {
	mu          sync.RWMutex
	descriptors []*Descriptor
}

// NewCollection creates a new empty Collection instance.
//
// Example:
//
//	collection := inject.NewCollection()
//	collection.AddSingleton(NewLogger)
//	provider, err := collection.Build()
func NewCollection() Collection {
	return &collection{}
}

// Build creates a Provider from the registered services.
func (c *collection) Build(opts ...Option) (Provider, error) {
	return c.BuildWithOptions(NewProviderOptions(opts...))
}

// BuildWithOptions creates a Provider with custom options for validation and behavior configuration.
func (c *collection) BuildWithOptions(options *ProviderOptions) (Provider, error) {
	return newProvider(c.ToSlice(), options)
}

// AddModules applies one or more module configurations to the collection.
func (c *collection) AddModules(modules ...ModuleOption) error {
	for _, module := range modules {
		if module == nil {
			continue
		}

		if err := module(c); err != nil {
			return err
		}
	}

	return nil
}

// Add appends a descriptor to the collection.
func (c *collection) Add(descriptor *Descriptor) error {
	if descriptor == nil {
		return RegistrationError{Operation: "descriptor", Cause: ErrDescriptorNil}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.descriptors = append(c.descriptors, descriptor)
	return nil
}

// AddSingleton adds a singleton service to the collection.
func (c *collection) AddSingleton(constructor any, opts ...AddOption) error {
	return c.addConstructor(constructor, Singleton, opts...)
}

// AddScoped adds a scoped service to the collection.
func (c *collection) AddScoped(constructor any, opts ...AddOption) error {
	return c.addConstructor(constructor, Scoped, opts...)
}

// AddTransient adds a transient service to the collection.
func (c *collection) AddTransient(constructor any, opts ...AddOption) error {
	return c.addConstructor(constructor, Transient, opts...)
}

// AddInstance adds a pre-built singleton to the collection.
func (c *collection) AddInstance(instance any, opts ...AddOption) error {
	if instance == nil {
		return RegistrationError{Operation: "instance", Cause: ErrConstructorNil}
	}

	options, err := parseAddOptions(opts)
	if err != nil {
		return RegistrationError{Operation: "instance", ServiceType: reflect.TypeOf(instance), Cause: err}
	}

	instanceType := reflect.TypeOf(instance)
	descriptors := make([]*Descriptor, 0, len(options.As)+1)
	for _, serviceType := range options.serviceTypes(instanceType) {
		if !instanceType.AssignableTo(serviceType) {
			return RegistrationError{
				Operation:   "instance",
				ServiceType: serviceType,
				Cause:       TypeMismatchError{Expected: serviceType, Actual: instanceType, Context: "interface implementation"},
			}
		}
		descriptors = append(descriptors, NewInstanceDescriptor(serviceType, instance))
	}

	c.append(descriptors...)
	return nil
}

// AddFactory adds a factory service to the collection.
func (c *collection) AddFactory(serviceType reflect.Type, lifetime Lifetime, factory Factory) error {
	if serviceType == nil {
		return RegistrationError{Operation: "factory", Cause: ErrServiceTypeNil}
	}
	if factory == nil {
		return RegistrationError{Operation: "factory", ServiceType: serviceType, Cause: ErrConstructorNil}
	}

	c.append(NewFactoryDescriptor(serviceType, lifetime, factory))
	return nil
}

// AddType adds a service built from an implementation type to the collection.
func (c *collection) AddType(serviceType, implementationType reflect.Type, lifetime Lifetime, ctors ...any) error {
	if serviceType == nil || implementationType == nil {
		return RegistrationError{Operation: "type", ServiceType: serviceType, Cause: ErrServiceTypeNil}
	}

	d, err := NewTypeDescriptor(serviceType, implementationType, lifetime, ctors...)
	if err != nil {
		return RegistrationError{Operation: "type", ServiceType: serviceType, Cause: err}
	}

	c.append(d)
	return nil
}

// AddOpenGeneric adds an open generic service to the collection.
func (c *collection) AddOpenGeneric(service, implementation *TypeDefinition, lifetime Lifetime, ctors ...any) error {
	if service == nil || implementation == nil {
		return RegistrationError{Operation: "open-generic", Cause: ErrServiceTypeNil}
	}

	d, err := NewOpenGenericDescriptor(service, implementation, lifetime, ctors...)
	if err != nil {
		return RegistrationError{Operation: "open-generic", Cause: err}
	}

	c.append(d)
	return nil
}

// Contains checks if a service type is registered in the collection,
// directly or through an open generic registration.
func (c *collection) Contains(serviceType reflect.Type) bool {
	if serviceType == nil {
		return false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, d := range c.descriptors {
		if d.ServiceType == serviceType || d.ServiceDefinition.Matches(serviceType) {
			return true
		}
	}
	return false
}

// ToSlice returns a copy of all registered service descriptors.
func (c *collection) ToSlice() []*Descriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Descriptor, len(c.descriptors))
	copy(out, c.descriptors)
	return out
}

// Count returns the number of registered services in the collection.
func (c *collection) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.descriptors)
}

// addConstructor registers the result type of constructor, or the
// interfaces named with As.
func (c *collection) addConstructor(constructor any, lifetime Lifetime, opts ...AddOption) error {
	if constructor == nil {
		return RegistrationError{Operation: "constructor", Cause: ErrConstructorNil}
	}

	options, err := parseAddOptions(opts)
	if err != nil {
		return RegistrationError{Operation: "constructor", Cause: err}
	}

	ctor, err := registry.NewConstructor(analyzer, constructor, options.Defaults)
	if err != nil {
		return RegistrationError{Operation: "constructor", Cause: err}
	}

	implementationType := ctor.ImplementationType()
	descriptors := make([]*Descriptor, 0, len(options.As)+1)
	for _, serviceType := range options.serviceTypes(implementationType) {
		if !implementationType.AssignableTo(serviceType) {
			return RegistrationError{
				Operation:   "constructor",
				ServiceType: serviceType,
				Cause:       TypeMismatchError{Expected: serviceType, Actual: implementationType, Context: "interface implementation"},
			}
		}

		d := &Descriptor{
			ServiceType:        serviceType,
			Lifetime:           lifetime,
			ImplementationType: implementationType,
			Constructors:       []*registry.Constructor{ctor},
		}
		if len(descriptors) > 0 {
			d.Shares = descriptors[0]
		}
		descriptors = append(descriptors, d)
	}

	c.append(descriptors...)
	return nil
}

func (c *collection) append(descriptors ...*Descriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.descriptors = append(c.descriptors, descriptors...)
}

func parseAddOptions(opts []AddOption) (*addOptions, error) {
	options := &addOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt.applyAddOption(options)
		}
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}
	return options, nil
}
