package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/junioryono/inject"
)

// CollectionBuilder provides a fluent interface for building test collections
type CollectionBuilder struct {
	t          *testing.T
	collection inject.Collection
}

// NewCollectionBuilder creates a new CollectionBuilder
func NewCollectionBuilder(t *testing.T) *CollectionBuilder {
	return &CollectionBuilder{
		t:          t,
		collection: inject.NewCollection(),
	}
}

// WithSingleton adds a singleton service to the collection
func (b *CollectionBuilder) WithSingleton(constructor any, opts ...inject.AddOption) *CollectionBuilder {
	require.NoError(b.t, b.collection.AddSingleton(constructor, opts...))
	return b
}

// WithScoped adds a scoped service to the collection
func (b *CollectionBuilder) WithScoped(constructor any, opts ...inject.AddOption) *CollectionBuilder {
	require.NoError(b.t, b.collection.AddScoped(constructor, opts...))
	return b
}

// WithTransient adds a transient service to the collection
func (b *CollectionBuilder) WithTransient(constructor any, opts ...inject.AddOption) *CollectionBuilder {
	require.NoError(b.t, b.collection.AddTransient(constructor, opts...))
	return b
}

// WithInstance adds a pre-built instance to the collection
func (b *CollectionBuilder) WithInstance(instance any, opts ...inject.AddOption) *CollectionBuilder {
	require.NoError(b.t, b.collection.AddInstance(instance, opts...))
	return b
}

// WithModule adds a module to the collection
func (b *CollectionBuilder) WithModule(module inject.ModuleOption) *CollectionBuilder {
	require.NoError(b.t, b.collection.AddModules(module))
	return b
}

// Collection returns the collection being built
func (b *CollectionBuilder) Collection() inject.Collection {
	return b.collection
}

// Build builds a provider that is closed when the test ends
func (b *CollectionBuilder) Build(opts ...inject.Option) inject.Provider {
	b.t.Helper()
	provider, err := b.collection.Build(opts...)
	require.NoError(b.t, err)
	b.t.Cleanup(func() { _ = provider.Close() })
	return provider
}

// CreateScope creates a scope that is closed when the test ends
func CreateScope(t *testing.T, sp inject.ServiceProvider) inject.Scope {
	t.Helper()
	scope, err := sp.CreateScope(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = scope.Close() })
	return scope
}
