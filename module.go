package inject

import (
	"bytes"
	"fmt"
	"reflect"
)

// ModuleOption represents a registration action within a module.
type ModuleOption func(Collection) error

// NewModule creates a new module with the given name and builders.
// Modules are a way to group related service registrations together.
//
// Example:
//
//	var DatabaseModule = inject.NewModule("database",
//	    inject.AddSingleton(NewDatabaseConnection),
//	    inject.AddScoped(NewUserRepository),
//	    inject.AddScoped(NewOrderRepository),
//	)
//
//	var AppModule = inject.NewModule("app",
//	    DatabaseModule,
//	    inject.AddScoped(NewOrderService),
//	)
func NewModule(name string, builders ...ModuleOption) ModuleOption {
	return func(c Collection) error {
		for _, builder := range builders {
			if builder == nil {
				continue
			}

			if err := builder(c); err != nil {
				return ModuleError{Module: name, Cause: err}
			}
		}

		return nil
	}
}

// AddSingleton creates a ModuleOption for adding a singleton service.
func AddSingleton(constructor any, opts ...AddOption) ModuleOption {
	return func(c Collection) error {
		return c.AddSingleton(constructor, opts...)
	}
}

// AddScoped creates a ModuleOption for adding a scoped service.
func AddScoped(constructor any, opts ...AddOption) ModuleOption {
	return func(c Collection) error {
		return c.AddScoped(constructor, opts...)
	}
}

// AddTransient creates a ModuleOption for adding a transient service.
func AddTransient(constructor any, opts ...AddOption) ModuleOption {
	return func(c Collection) error {
		return c.AddTransient(constructor, opts...)
	}
}

// AddInstance creates a ModuleOption for adding a pre-built singleton.
func AddInstance(instance any, opts ...AddOption) ModuleOption {
	return func(c Collection) error {
		return c.AddInstance(instance, opts...)
	}
}

// AddFactory creates a ModuleOption for adding a factory service.
func AddFactory(serviceType reflect.Type, lifetime Lifetime, factory Factory) ModuleOption {
	return func(c Collection) error {
		return c.AddFactory(serviceType, lifetime, factory)
	}
}

// AddType creates a ModuleOption for adding a service built from an implementation type.
func AddType(serviceType, implementationType reflect.Type, lifetime Lifetime, ctors ...any) ModuleOption {
	return func(c Collection) error {
		return c.AddType(serviceType, implementationType, lifetime, ctors...)
	}
}

// AddOpenGeneric creates a ModuleOption for adding an open generic service.
func AddOpenGeneric(service, implementation *TypeDefinition, lifetime Lifetime, ctors ...any) ModuleOption {
	return func(c Collection) error {
		return c.AddOpenGeneric(service, implementation, lifetime, ctors...)
	}
}

// An AddOption modifies the default behavior of AddSingleton, AddScoped,
// AddTransient and AddInstance.
type AddOption interface {
	applyAddOption(*addOptions)
}

type addOptions struct {
	As       []any
	Defaults map[int]any
}

func (o *addOptions) Validate() error {
	for _, i := range o.As {
		t := reflect.TypeOf(i)

		if t == nil {
			return fmt.Errorf("invalid inject.As(nil): argument must be a pointer to an interface")
		}

		if t.Kind() != reflect.Pointer {
			return fmt.Errorf("invalid inject.As(%v): argument must be a pointer to an interface", t)
		}

		pointingTo := t.Elem()
		if pointingTo.Kind() != reflect.Interface {
			return fmt.Errorf("invalid inject.As(*%v): argument must be a pointer to an interface", pointingTo)
		}
	}
	return nil
}

// serviceTypes returns the interfaces named by As, or fallback.
func (o *addOptions) serviceTypes(fallback reflect.Type) []reflect.Type {
	if len(o.As) == 0 {
		return []reflect.Type{fallback}
	}

	types := make([]reflect.Type, 0, len(o.As))
	for _, i := range o.As {
		types = append(types, reflect.TypeOf(i).Elem())
	}
	return types
}

// As is an AddOption that specifies that the value produced by the
// constructor implements one or more interfaces and is provided to the
// container as those interfaces, but not as the value itself.
//
// For example, the following will make io.Reader and io.Writer available
// in the container, but not buffer.
//
//	c.AddSingleton(newBuffer, inject.As(new(io.Reader), new(io.Writer)))
//
// Each interface is a separate registration, but they share one cached
// instance: a singleton or scoped service registered under several
// interfaces is constructed once per owning scope.
func As(i ...any) AddOption {
	return addAsOption(i)
}

type addAsOption []any

func (o addAsOption) String() string {
	buf := bytes.NewBufferString("As(")
	for i, iface := range o {
		if i > 0 {
			buf.WriteString(", ")
		}
		if t := reflect.TypeOf(iface); t != nil && t.Kind() == reflect.Pointer {
			buf.WriteString(t.Elem().String())
		} else {
			buf.WriteString(fmt.Sprint(t))
		}
	}
	buf.WriteString(")")
	return buf.String()
}

func (o addAsOption) applyAddOption(opts *addOptions) {
	opts.As = append(opts.As, o...)
}

// DefaultArgOption supplies the value of one constructor parameter when its
// type is not registered. It is both an AddOption and an argument to Ctor.
type DefaultArgOption struct {
	Index int
	Value any
}

// DefaultArg declares value as the default for the constructor parameter at
// index. A nil value stands for the parameter's zero value.
//
// Example:
//
//	func NewServer(logger Logger, cfg *Config) *Server
//
//	c.AddSingleton(NewServer, inject.DefaultArg(1, &Config{Port: 8080}))
func DefaultArg(index int, value any) DefaultArgOption {
	return DefaultArgOption{Index: index, Value: value}
}

func (o DefaultArgOption) String() string {
	return fmt.Sprintf("DefaultArg(%d, %v)", o.Index, o.Value)
}

func (o DefaultArgOption) applyAddOption(opts *addOptions) {
	if opts.Defaults == nil {
		opts.Defaults = make(map[int]any)
	}
	opts.Defaults[o.Index] = o.Value
}
