package inject

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/junioryono/inject/internal/callsite"
	"github.com/junioryono/inject/internal/lifetime"
	"github.com/junioryono/inject/internal/registry"
)

// Scope defines a disposable service scope.
// Scopes are used to control the lifetime of scoped services.
//
// In web applications, a scope is typically created for each HTTP request,
// ensuring that services like database connections are properly managed
// and disposed at the end of the request.
//
// Example:
//
//	scope, err := provider.CreateScope(ctx)
//	if err != nil {
//	    return err
//	}
//	defer scope.Close()
//
//	service, err := inject.Resolve[*RequestHandler](scope)
type Scope interface {
	ServiceProvider

	// Close disposes the scoped and transient services created in this
	// scope in reverse creation order. Calling Close more than once has
	// no effect.
	Close() error
}

// scope is the facade over a lifetime store. The root provider embeds one.
type scope struct {
	provider *provider
	store    *lifetime.Scope
	cancel   context.CancelFunc
}

// GetService resolves serviceType in this scope.
func (s *scope) GetService(serviceType reflect.Type) (any, error) {
	return s.getService(serviceType, s.store)
}

// getService resolves serviceType against target, the scope's store or the
// store bound to a resolution already in progress.
func (s *scope) getService(serviceType reflect.Type, target callsite.Scope) (any, error) {
	if serviceType == nil {
		return nil, ErrServiceTypeNil
	}

	if s.store.IsDisposed() {
		return nil, s.disposedError()
	}

	v, err := s.provider.engine.GetService(serviceType, target, s.store.IsRoot())
	if err != nil && s.store.IsRoot() && errors.Is(err, ErrScopeDisposed) {
		return nil, ErrProviderDisposed
	}
	return v, err
}

// IsService reports whether serviceType can be resolved.
func (s *scope) IsService(serviceType reflect.Type) bool {
	return s.provider.engine.Factory().IsService(serviceType)
}

// CreateScope creates a child scope. Singletons are always shared through
// the root provider, whichever scope a child is created from.
func (s *scope) CreateScope(ctx context.Context) (Scope, error) {
	if s.provider.IsDisposed() {
		return nil, ErrProviderDisposed
	}
	if s.store.IsDisposed() {
		return nil, ErrScopeDisposed
	}

	if ctx == nil {
		ctx = s.Context()
	}

	child := &scope{provider: s.provider}
	ctx, child.cancel = context.WithCancel(contextWithScope(ctx, child))

	store, err := s.store.NewChild(ctx)
	if err != nil {
		child.cancel()
		return nil, ErrProviderDisposed
	}
	store.Bind(child)
	child.store = store

	go child.closeOnDone(ctx)

	return child, nil
}

// closeOnDone closes the scope when its context is cancelled and releases
// the context once the scope is closed by other means.
func (s *scope) closeOnDone(ctx context.Context) {
	select {
	case <-ctx.Done():
		if err := s.Close(); err != nil {
			s.provider.logger.Warn("scope closed with errors after context cancellation",
				zap.String("scope", s.ID()),
				zap.Error(err),
			)
		}
	case <-s.store.Done():
		s.cancel()
	}
}

// WithPath returns the provider handed to factories resolving in this scope.
func (s *scope) WithPath(path *callsite.Path) registry.Provider {
	return &resolvingProvider{ServiceProvider: s, scope: s, path: path}
}

// resolvingProvider is the ServiceProvider a factory receives. Requests made
// through it continue the resolution that invoked the factory, so a factory
// requesting a service still under construction on that resolution gets a
// CircularDependencyError.
type resolvingProvider struct {
	ServiceProvider
	scope *scope
	path  *callsite.Path
}

func (r *resolvingProvider) GetService(serviceType reflect.Type) (any, error) {
	return r.scope.getService(serviceType, callsite.WithPath(r.scope.store, r.path))
}

// unwrapProvider returns the scope or provider behind a factory's provider.
func unwrapProvider(p registry.Provider) registry.Provider {
	if r, ok := p.(*resolvingProvider); ok {
		return r.ServiceProvider
	}
	return p
}

// ID returns the unique ID of this scope.
func (s *scope) ID() string {
	return s.store.ID()
}

// Context returns the context associated with this scope.
func (s *scope) Context() context.Context {
	return s.store.Context()
}

// IsDisposed reports whether the scope has been closed.
func (s *scope) IsDisposed() bool {
	return s.store.IsDisposed()
}

// Close disposes the services owned by the scope.
func (s *scope) Close() error {
	err := s.store.Close()
	s.cancel()
	return err
}

func (s *scope) String() string {
	return fmt.Sprintf("Scope(%s)", s.ID())
}

func (s *scope) disposedError() error {
	if s.store.IsRoot() {
		return ErrProviderDisposed
	}
	return ErrScopeDisposed
}

// scopeContextKey is the key for storing the current scope in context.
type scopeContextKey struct{}

// contextWithScope returns a context with the current scope.
func contextWithScope(ctx context.Context, s *scope) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, s)
}

// FromContext returns the provider or scope whose context is ctx or an
// ancestor of it.
//
// Example:
//
//	func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
//	    sp, err := inject.FromContext(r.Context())
//	    if err != nil {
//	        http.Error(w, err.Error(), http.StatusInternalServerError)
//	        return
//	    }
//	    svc, err := inject.Resolve[*RequestService](sp)
//	}
func FromContext(ctx context.Context) (ServiceProvider, error) {
	if ctx == nil {
		return nil, ErrScopeNotInContext
	}

	s, ok := ctx.Value(scopeContextKey{}).(*scope)
	if !ok || s == nil {
		return nil, ErrScopeNotInContext
	}

	if s.IsDisposed() {
		return nil, s.disposedError()
	}

	if s.store.IsRoot() {
		return s.provider, nil
	}
	return s, nil
}
