package inject

import (
	"github.com/junioryono/inject/internal/registry"
)

// Lifetime specifies when instances of a service are created and how long
// they are cached.
type Lifetime = registry.Lifetime

const (
	// Singleton specifies that a single instance of the service is created.
	// The instance is created on first request and cached in the root scope
	// until the provider is closed. Singleton services must not depend on
	// Scoped services.
	Singleton = registry.Singleton

	// Scoped specifies that one instance is created per scope.
	// In web applications, this typically means one instance per HTTP request.
	// Scoped services are disposed when their scope is closed.
	Scoped = registry.Scoped

	// Transient specifies that a new instance is created every time the
	// service is requested. Disposable transients are closed with the scope
	// that created them.
	Transient = registry.Transient
)
