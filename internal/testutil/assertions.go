package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junioryono/inject"
)

// AssertServiceResolvable checks if a service can be resolved
func AssertServiceResolvable[T any](t *testing.T, sp inject.ServiceProvider) T {
	t.Helper()
	service, err := inject.Resolve[T](sp)
	require.NoError(t, err, "failed to resolve service of type %T", *new(T))
	return service
}

// AssertServiceNotFound checks if a service resolution fails with not found error
func AssertServiceNotFound[T any](t *testing.T, sp inject.ServiceProvider) {
	t.Helper()
	_, err := inject.Resolve[T](sp)
	require.Error(t, err)
	assert.True(t, inject.IsNotFound(err), "expected service not found error, got: %v", err)
}

// AssertSameInstance checks that two resolutions return the same pointer
func AssertSameInstance[T any](t *testing.T, a, b inject.ServiceProvider) T {
	t.Helper()
	first := AssertServiceResolvable[T](t, a)
	second := AssertServiceResolvable[T](t, b)
	assert.Same(t, any(first), any(second), "expected the same instance of %T", first)
	return first
}

// AssertDifferentInstances checks that two resolutions return different pointers
func AssertDifferentInstances[T any](t *testing.T, a, b inject.ServiceProvider) {
	t.Helper()
	first := AssertServiceResolvable[T](t, a)
	second := AssertServiceResolvable[T](t, b)
	assert.NotSame(t, any(first), any(second), "expected different instances of %T", first)
}

// AssertClosedOnce checks that every disposable was closed exactly once
func AssertClosedOnce(t *testing.T, disposables ...*TestDisposable) {
	t.Helper()
	for _, d := range disposables {
		assert.Equal(t, 1, d.Closes(), "%s closed %d times", d.Name, d.Closes())
	}
}
