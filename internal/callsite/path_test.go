package callsite_test

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junioryono/inject/internal/callsite"
	"github.com/junioryono/inject/internal/lifetime"
	"github.com/junioryono/inject/internal/registry"
)

// reentrantProvider resolves one accessor against its store, continuing
// whatever resolution path it was bound to.
type reentrantProvider struct {
	store *lifetime.Scope
	get   *callsite.Accessor
	path  *callsite.Path
}

func (p *reentrantProvider) WithPath(path *callsite.Path) registry.Provider {
	return &reentrantProvider{store: p.store, get: p.get, path: path}
}

func (p *reentrantProvider) GetService(reflect.Type) (any, error) {
	return (*p.get)(callsite.WithPath(p.store, p.path))
}

// selfResolving wires a factory for *Config that resolves *Config again
// through the provider it receives.
func selfResolving(t *testing.T, s strategy, lt registry.Lifetime) (get callsite.Accessor, child *lifetime.Scope, calls *int) {
	t.Helper()

	calls = new(int)
	d := &registry.Descriptor{
		ServiceType: typeOf[*Config](),
		Lifetime:    lt,
		ImplementationFactory: func(p registry.Provider) (any, error) {
			*calls++
			if *calls > 1 {
				return &Config{Name: "nested"}, nil
			}
			if _, err := p.GetService(typeOf[*Config]()); err != nil {
				return nil, err
			}
			return &Config{Name: "outer"}, nil
		},
	}

	get = s.compile(t, create(t, newFactory(t, d), typeOf[*Config]()))

	root, child := newScopes(t)
	root.Bind(&reentrantProvider{store: root, get: &get})
	child.Bind(&reentrantProvider{store: child, get: &get})
	return get, child, calls
}

func resolveWithin(t *testing.T, get callsite.Accessor, scope callsite.Scope) (any, error) {
	t.Helper()

	type result struct {
		v   any
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := get(callsite.WithPath(scope, nil))
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-time.After(2 * time.Second):
		t.Fatal("resolution did not return")
		return nil, nil
	}
}

func TestPath_FactoryReentry(t *testing.T) {
	lifetimes := []registry.Lifetime{registry.Scoped, registry.Singleton}

	forEachStrategy(t, func(t *testing.T, s strategy) {
		for _, lt := range lifetimes {
			t.Run(lt.String(), func(t *testing.T) {
				get, child, calls := selfResolving(t, s, lt)

				_, err := resolveWithin(t, get, child)
				require.Error(t, err)

				var ce callsite.CircularDependencyError
				require.True(t, errors.As(err, &ce), "got %v", err)
				assert.Equal(t, typeOf[*Config](), ce.Service)
				assert.NotEmpty(t, ce.Path)
				assert.Equal(t, 1, *calls)
			})
		}
	})
}

func TestPath_TransientFactoryReentry(t *testing.T) {
	forEachStrategy(t, func(t *testing.T, s strategy) {
		get, child, calls := selfResolving(t, s, registry.Transient)

		_, err := resolveWithin(t, get, child)

		var ce callsite.CircularDependencyError
		require.True(t, errors.As(err, &ce), "got %v", err)
		assert.Equal(t, 1, *calls)
	})
}

func TestPath_RetainedProviderAfterResolution(t *testing.T) {
	forEachStrategy(t, func(t *testing.T, s strategy) {
		d := &registry.Descriptor{
			ServiceType: typeOf[*Config](),
			Lifetime:    registry.Scoped,
		}
		var retained registry.Provider
		d.ImplementationFactory = func(p registry.Provider) (any, error) {
			retained = p
			return &Config{Name: "scoped"}, nil
		}

		get := s.compile(t, create(t, newFactory(t, d), typeOf[*Config]()))

		_, child := newScopes(t)
		child.Bind(&reentrantProvider{store: child, get: &get})

		first, err := resolveWithin(t, get, child)
		require.NoError(t, err)
		require.NotNil(t, retained)

		again, err := retained.GetService(typeOf[*Config]())
		require.NoError(t, err)
		assert.Same(t, first, again)
	})
}

func TestWithPath(t *testing.T) {
	var path *callsite.Path
	assert.Empty(t, path.Links())

	root, _ := newScopes(t)
	bound := callsite.WithPath(root, nil)
	assert.Same(t, bound, callsite.WithPath(bound, nil))
	assert.NotSame(t, root, bound)
}
