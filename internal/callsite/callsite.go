package callsite

import (
	"reflect"

	"github.com/junioryono/inject/internal/registry"
)

// Kind discriminates call site variants.
type Kind int

const (
	KindConstant Kind = iota
	KindFactory
	KindConstructor
	KindCreateInstance
	KindEnumerable
	KindTransient
	KindScoped
	KindSingleton
)

func (k Kind) String() string {
	switch k {
	case KindConstant:
		return "Constant"
	case KindFactory:
		return "Factory"
	case KindConstructor:
		return "Constructor"
	case KindCreateInstance:
		return "CreateInstance"
	case KindEnumerable:
		return "Enumerable"
	case KindTransient:
		return "Transient"
	case KindScoped:
		return "Scoped"
	case KindSingleton:
		return "Singleton"
	default:
		return "Unknown"
	}
}

// CallSite describes how to produce an instance of a service type.
// Call sites are immutable once built.
type CallSite interface {
	Kind() Kind
	ServiceType() reflect.Type
	ImplementationType() reflect.Type
}

// CacheKey identifies a cached instance within a scope. ServiceType is only
// set for call sites closed from an open generic registration, where one
// descriptor serves many service types.
type CacheKey struct {
	Descriptor  *registry.Descriptor
	ServiceType reflect.Type
}

// Type returns the service type the key caches.
func (k CacheKey) Type() reflect.Type {
	if k.ServiceType != nil || k.Descriptor == nil {
		return k.ServiceType
	}
	return k.Descriptor.ServiceType
}

type site struct {
	serviceType        reflect.Type
	implementationType reflect.Type
}

func (s site) ServiceType() reflect.Type        { return s.serviceType }
func (s site) ImplementationType() reflect.Type { return s.implementationType }

// ConstantCallSite returns a pre-built value.
type ConstantCallSite struct {
	site
	Value any
}

// NewConstantCallSite creates a constant call site.
func NewConstantCallSite(serviceType reflect.Type, value any) *ConstantCallSite {
	var impl reflect.Type
	if value != nil {
		impl = reflect.TypeOf(value)
	}
	return &ConstantCallSite{site: site{serviceType, impl}, Value: value}
}

func (*ConstantCallSite) Kind() Kind { return KindConstant }

// FactoryCallSite invokes a user supplied factory.
type FactoryCallSite struct {
	site
	Factory registry.Factory
}

// NewFactoryCallSite creates a factory call site.
func NewFactoryCallSite(serviceType reflect.Type, factory registry.Factory) *FactoryCallSite {
	return &FactoryCallSite{site: site{serviceType, nil}, Factory: factory}
}

func (*FactoryCallSite) Kind() Kind { return KindFactory }

// ConstructorCallSite invokes a constructor with resolved arguments.
type ConstructorCallSite struct {
	site
	Constructor *registry.Constructor
	Arguments   []CallSite
}

func (*ConstructorCallSite) Kind() Kind { return KindConstructor }

// CreateInstanceCallSite invokes a constructor that takes no arguments.
type CreateInstanceCallSite struct {
	site
	Constructor *registry.Constructor
}

func (*CreateInstanceCallSite) Kind() Kind { return KindCreateInstance }

// EnumerableCallSite builds a slice of every registered item, in registration order.
type EnumerableCallSite struct {
	site
	ItemType reflect.Type
	Items    []CallSite
}

func (*EnumerableCallSite) Kind() Kind { return KindEnumerable }

// TransientCallSite evaluates Inner on every request.
type TransientCallSite struct {
	Inner CallSite
}

func (*TransientCallSite) Kind() Kind                         { return KindTransient }
func (c *TransientCallSite) ServiceType() reflect.Type        { return c.Inner.ServiceType() }
func (c *TransientCallSite) ImplementationType() reflect.Type { return c.Inner.ImplementationType() }

// ScopedCallSite caches the result of Inner in the requesting scope.
type ScopedCallSite struct {
	Inner CallSite
	Key   CacheKey
}

func (*ScopedCallSite) Kind() Kind                         { return KindScoped }
func (c *ScopedCallSite) ServiceType() reflect.Type        { return c.Inner.ServiceType() }
func (c *ScopedCallSite) ImplementationType() reflect.Type { return c.Inner.ImplementationType() }

// SingletonCallSite caches the result of Inner in the root scope.
type SingletonCallSite struct {
	Inner CallSite
	Key   CacheKey
}

func (*SingletonCallSite) Kind() Kind                         { return KindSingleton }
func (c *SingletonCallSite) ServiceType() reflect.Type        { return c.Inner.ServiceType() }
func (c *SingletonCallSite) ImplementationType() reflect.Type { return c.Inner.ImplementationType() }

// Unwrap strips a lifetime decorator, returning the construction call site.
func Unwrap(cs CallSite) CallSite {
	switch c := cs.(type) {
	case *TransientCallSite:
		return c.Inner
	case *ScopedCallSite:
		return c.Inner
	case *SingletonCallSite:
		return c.Inner
	default:
		return cs
	}
}

// Dependencies returns the direct child call sites of cs.
func Dependencies(cs CallSite) []CallSite {
	switch c := Unwrap(cs).(type) {
	case *ConstructorCallSite:
		return c.Arguments
	case *EnumerableCallSite:
		return c.Items
	default:
		return nil
	}
}

// applyLifetime wraps a construction call site in its lifetime decorator.
// Constants are never wrapped.
func applyLifetime(cs CallSite, lifetime registry.Lifetime, key CacheKey) CallSite {
	if _, ok := cs.(*ConstantCallSite); ok {
		return cs
	}

	switch lifetime {
	case registry.Singleton:
		return &SingletonCallSite{Inner: cs, Key: key}
	case registry.Scoped:
		return &ScopedCallSite{Inner: cs, Key: key}
	default:
		return &TransientCallSite{Inner: cs}
	}
}
