package callsite_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/junioryono/inject/internal/callsite"
	"github.com/junioryono/inject/internal/lifetime"
	"github.com/junioryono/inject/internal/reflection"
	"github.com/junioryono/inject/internal/registry"
)

var analyzer = reflection.New()

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func ctor(t *testing.T, fn any, defaults map[int]any) *registry.Constructor {
	t.Helper()
	c, err := registry.NewConstructor(analyzer, fn, defaults)
	require.NoError(t, err)
	return c
}

// describe registers fn's result type with the given lifetime.
func describe(t *testing.T, lifetime registry.Lifetime, fn any) *registry.Descriptor {
	t.Helper()
	c := ctor(t, fn, nil)
	return &registry.Descriptor{
		ServiceType:        c.ImplementationType(),
		Lifetime:           lifetime,
		ImplementationType: c.ImplementationType(),
		Constructors:       []*registry.Constructor{c},
	}
}

// describeAs registers fn's result type as serviceType.
func describeAs(t *testing.T, serviceType reflect.Type, lifetime registry.Lifetime, fn any) *registry.Descriptor {
	t.Helper()
	d := describe(t, lifetime, fn)
	d.ServiceType = serviceType
	return d
}

func newFactory(t *testing.T, descriptors ...*registry.Descriptor) *callsite.Factory {
	t.Helper()
	f, err := callsite.NewFactory(descriptors)
	require.NoError(t, err)
	return f
}

func create(t *testing.T, f *callsite.Factory, serviceType reflect.Type) callsite.CallSite {
	t.Helper()
	cs, err := f.CreateCallSite(serviceType, callsite.NewChain())
	require.NoError(t, err)
	require.NotNil(t, cs, "no call site for %s", serviceType)
	return cs
}

func newScopes(t *testing.T) (root, child *lifetime.Scope) {
	t.Helper()
	root = lifetime.NewRoot(context.Background())
	child, err := root.NewChild(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = root.Close() })
	return root, child
}

// Test types

var errFailing = errors.New("failing constructor")

type Config struct{ Name string }

type Logger interface{ Log(string) }

type consoleLogger struct{ prefix string }

func (consoleLogger) Log(string) {}

type fileLogger struct{}

func (fileLogger) Log(string) {}

type Repo struct {
	Config *Config
	Logger Logger
}

type Service struct {
	Repo *Repo
}

type disposable struct{ closed int }

func (d *disposable) Close() error {
	d.closed++
	return nil
}

type Widget struct {
	Config *Config
	Logger Logger
}

type CycleA struct{ B *CycleB }

type CycleB struct{ A *CycleA }

type Store[T any] interface {
	Get() T
}

type memoryStore[T any] struct{ value T }

func (m *memoryStore[T]) Get() T { return m.value }

func newConfig() *Config                    { return &Config{Name: "default"} }
func newRepo(c *Config, l Logger) *Repo     { return &Repo{Config: c, Logger: l} }
func newService(r *Repo) *Service           { return &Service{Repo: r} }
func newConsoleLogger() Logger              { return &consoleLogger{prefix: "console"} }
func newFileLogger() Logger                 { return &fileLogger{} }
func newDisposable() *disposable            { return &disposable{} }
func newFailingConfig() (*Config, error)    { return nil, errFailing }
func newWidget() *Widget                    { return &Widget{} }
func newWidgetWithConfig(c *Config) *Widget { return &Widget{Config: c} }
func newWidgetWithLogger(l Logger) *Widget  { return &Widget{Logger: l} }
func newCycleA(b *CycleB) *CycleA           { return &CycleA{B: b} }
func newCycleB(a *CycleA) *CycleB           { return &CycleB{A: a} }
func newIntStore() *memoryStore[int]        { return &memoryStore[int]{value: 42} }
func newStringStore() *memoryStore[string]  { return &memoryStore[string]{value: "hello"} }

func newWidgetWithBoth(c *Config, l Logger) *Widget {
	return &Widget{Config: c, Logger: l}
}

// storeDescriptor registers Store[T] as an open generic closed by the
// int and string instantiations of memoryStore.
func storeDescriptor(t *testing.T, lifetime registry.Lifetime) *registry.Descriptor {
	t.Helper()
	serviceDef, err := registry.DefinitionOf(typeOf[Store[int]]())
	require.NoError(t, err)
	implDef, err := registry.DefinitionOf(typeOf[*memoryStore[int]]())
	require.NoError(t, err)

	return &registry.Descriptor{
		ServiceDefinition:        serviceDef,
		ImplementationDefinition: implDef,
		Lifetime:                 lifetime,
		Constructors: []*registry.Constructor{
			ctor(t, newIntStore, nil),
			ctor(t, newStringStore, nil),
		},
	}
}
