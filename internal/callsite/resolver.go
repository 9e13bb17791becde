package callsite

import (
	"fmt"
	"reflect"

	"github.com/junioryono/inject/internal/reflection"
	"github.com/junioryono/inject/internal/registry"
)

// Scope is the instance store a call site is evaluated against.
type Scope interface {
	// Root returns the scope that owns singletons.
	Root() Scope

	// Provider is the value handed to factories resolving in this scope.
	Provider() registry.Provider

	// GetOrCreate returns the instance cached under key, calling create at
	// most once per key and tracking the result for disposal. create receives
	// the scope the instance is built against.
	GetOrCreate(key CacheKey, create func(Scope) (any, error)) (any, error)

	// CaptureDisposable tracks a transient instance for disposal with the scope.
	CaptureDisposable(instance any) error
}

// Accessor produces a service instance for a scope.
type Accessor func(scope Scope) (any, error)

// Resolver evaluates call site trees by walking them on every request.
type Resolver struct{}

// NewResolver creates a runtime resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Accessor returns an accessor that interprets cs on each call.
func (r *Resolver) Accessor(cs CallSite) Accessor {
	return func(scope Scope) (any, error) {
		return r.Resolve(cs, scope)
	}
}

// Resolve produces the instance described by cs within scope.
func (r *Resolver) Resolve(cs CallSite, scope Scope) (any, error) {
	switch c := cs.(type) {
	case *ConstantCallSite:
		return c.Value, nil

	case *FactoryCallSite:
		return callFactory(c, scope)

	case *CreateInstanceCallSite:
		return c.Constructor.Invoke(nil)

	case *ConstructorCallSite:
		args := make([]any, len(c.Arguments))
		for i, arg := range c.Arguments {
			v, err := r.Resolve(arg, scope)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		return c.Constructor.Invoke(args)

	case *EnumerableCallSite:
		items := make([]any, len(c.Items))
		for i, item := range c.Items {
			v, err := r.Resolve(item, scope)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return makeSlice(c.ServiceType(), c.ItemType, items)

	case *TransientCallSite:
		v, err := r.Resolve(c.Inner, scope)
		if err != nil {
			return nil, err
		}
		if err := scope.CaptureDisposable(v); err != nil {
			return nil, err
		}
		return v, nil

	case *ScopedCallSite:
		return scope.GetOrCreate(c.Key, func(s Scope) (any, error) {
			return r.Resolve(c.Inner, s)
		})

	case *SingletonCallSite:
		return scope.Root().GetOrCreate(c.Key, func(root Scope) (any, error) {
			return r.Resolve(c.Inner, root)
		})

	default:
		return nil, fmt.Errorf("unsupported call site %T", cs)
	}
}

// makeSlice builds a non-nil slice of sliceType from items.
func makeSlice(sliceType, itemType reflect.Type, items []any) (any, error) {
	slice := reflect.MakeSlice(sliceType, len(items), len(items))
	for i, item := range items {
		v, err := reflection.ArgumentValue(item, itemType)
		if err != nil {
			return nil, err
		}
		slice.Index(i).Set(v)
	}
	return slice.Interface(), nil
}
