package callsite

import (
	"reflect"
	"slices"
	"sync/atomic"

	"github.com/junioryono/inject/internal/registry"
)

// Path is the chain of constructions in flight on one resolution. A node
// stays active until its construction returns, so a provider retained past
// the resolution that created it never reports a stale cycle.
type Path struct {
	parent *Path
	id     any
	link   Link
	done   atomic.Bool
}

// PathBinder is implemented by providers that continue a resolution path
// when a factory resolves services through them.
type PathBinder interface {
	WithPath(path *Path) registry.Provider
}

// storeKey identifies a cached instance across scopes.
type storeKey struct {
	scope Scope
	key   CacheKey
}

func (p *Path) active(id any) bool {
	for n := p; n != nil; n = n.parent {
		if n.id == id && !n.done.Load() {
			return true
		}
	}
	return false
}

// Links returns the active steps of the path, outermost first.
func (p *Path) Links() []Link {
	var links []Link
	for n := p; n != nil; n = n.parent {
		if !n.done.Load() {
			links = append(links, n.link)
		}
	}
	slices.Reverse(links)
	return links
}

// pathScope evaluates call sites against a store while tracking the
// constructions in flight on the current path.
type pathScope struct {
	Scope
	path *Path
}

// WithPath binds scope to path. A scope that is already bound keeps its
// path when path is nil.
func WithPath(scope Scope, path *Path) Scope {
	if ps, ok := scope.(*pathScope); ok {
		if path == nil {
			return ps
		}
		scope = ps.Scope
	}
	return &pathScope{Scope: scope, path: path}
}

func (s *pathScope) Root() Scope {
	return &pathScope{Scope: s.Scope.Root(), path: s.path}
}

// Provider binds the store's provider to the current path when it supports it.
func (s *pathScope) Provider() registry.Provider {
	provider := s.Scope.Provider()
	if binder, ok := provider.(PathBinder); ok {
		return binder.WithPath(s.path)
	}
	return provider
}

// GetOrCreate fails with CircularDependencyError when key is already being
// constructed in this store on the current path.
func (s *pathScope) GetOrCreate(key CacheKey, create func(Scope) (any, error)) (any, error) {
	id := storeKey{scope: s.Scope, key: key}
	if s.path.active(id) {
		return nil, s.cycle(key.Type())
	}

	link := Link{ServiceType: key.Type()}
	if key.Descriptor != nil {
		link.ImplementationType = key.Descriptor.ImplementationType
	}

	return s.Scope.GetOrCreate(key, func(Scope) (any, error) {
		next := s.enter(id, link)
		defer next.path.done.Store(true)
		return create(next)
	})
}

func (s *pathScope) enter(id any, link Link) *pathScope {
	return &pathScope{Scope: s.Scope, path: &Path{parent: s.path, id: id, link: link}}
}

func (s *pathScope) cycle(serviceType reflect.Type) error {
	return CircularDependencyError{Service: serviceType, Path: s.path.Links()}
}

// callFactory runs the factory of cs with the provider of scope. A factory
// that re-enters itself on the same path fails instead of recursing.
func callFactory(cs *FactoryCallSite, scope Scope) (any, error) {
	ps, ok := scope.(*pathScope)
	if !ok {
		return cs.Factory(scope.Provider())
	}

	if ps.path.active(cs) {
		return nil, ps.cycle(cs.ServiceType())
	}

	next := ps.enter(cs, Link{ServiceType: cs.ServiceType()})
	defer next.path.done.Store(true)
	return cs.Factory(next.Provider())
}
