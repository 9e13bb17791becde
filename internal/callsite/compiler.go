package callsite

import (
	"fmt"
)

// Compiler turns a call site tree into a tree of closures. The compiled
// form dispatches on variant once, at compile time, and shares scope caches
// with the Resolver so both produce the same instances.
type Compiler struct{}

// NewCompiler creates a compiler.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile builds the accessor for cs.
func (c *Compiler) Compile(cs CallSite) (Accessor, error) {
	switch site := cs.(type) {
	case *ConstantCallSite:
		value := site.Value
		return func(Scope) (any, error) { return value, nil }, nil

	case *FactoryCallSite:
		return func(scope Scope) (any, error) { return callFactory(site, scope) }, nil

	case *CreateInstanceCallSite:
		ctor := site.Constructor
		return func(Scope) (any, error) { return ctor.Invoke(nil) }, nil

	case *ConstructorCallSite:
		args, err := c.compileAll(site.Arguments)
		if err != nil {
			return nil, err
		}
		ctor := site.Constructor
		return func(scope Scope) (any, error) {
			values := make([]any, len(args))
			for i, arg := range args {
				v, err := arg(scope)
				if err != nil {
					return nil, err
				}
				values[i] = v
			}
			return ctor.Invoke(values)
		}, nil

	case *EnumerableCallSite:
		items, err := c.compileAll(site.Items)
		if err != nil {
			return nil, err
		}
		sliceType, itemType := site.ServiceType(), site.ItemType
		return func(scope Scope) (any, error) {
			values := make([]any, len(items))
			for i, item := range items {
				v, err := item(scope)
				if err != nil {
					return nil, err
				}
				values[i] = v
			}
			return makeSlice(sliceType, itemType, values)
		}, nil

	case *TransientCallSite:
		inner, err := c.Compile(site.Inner)
		if err != nil {
			return nil, err
		}
		return func(scope Scope) (any, error) {
			v, err := inner(scope)
			if err != nil {
				return nil, err
			}
			if err := scope.CaptureDisposable(v); err != nil {
				return nil, err
			}
			return v, nil
		}, nil

	case *ScopedCallSite:
		inner, err := c.Compile(site.Inner)
		if err != nil {
			return nil, err
		}
		key := site.Key
		return func(scope Scope) (any, error) {
			return scope.GetOrCreate(key, inner)
		}, nil

	case *SingletonCallSite:
		inner, err := c.Compile(site.Inner)
		if err != nil {
			return nil, err
		}
		key := site.Key
		return func(scope Scope) (any, error) {
			return scope.Root().GetOrCreate(key, inner)
		}, nil

	default:
		return nil, fmt.Errorf("cannot compile call site %T", cs)
	}
}

func (c *Compiler) compileAll(sites []CallSite) ([]Accessor, error) {
	out := make([]Accessor, len(sites))
	for i, cs := range sites {
		a, err := c.Compile(cs)
		if err != nil {
			return nil, err
		}
		out[i] = a
	}
	return out, nil
}
