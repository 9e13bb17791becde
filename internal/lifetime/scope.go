package lifetime

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/junioryono/inject/internal/callsite"
	"github.com/junioryono/inject/internal/registry"
)

// Scope owns the instances created for it and disposes them when closed.
// The root scope additionally owns singletons and tracks its live children.
type Scope struct {
	id       string
	ctx      context.Context
	root     *Scope
	provider registry.Provider
	created  time.Time

	mu          sync.Mutex
	instances   map[callsite.CacheKey]*entry
	disposables []any
	children    map[*Scope]struct{}

	closing  atomic.Bool
	disposed atomic.Bool
	done     chan struct{}
}

// entry is a cached instance, or the construction of one still in flight.
type entry struct {
	done  chan struct{}
	value any
	err   error
}

// Stats is a point in time view of a scope.
type Stats struct {
	ID          string
	Root        bool
	Instances   int
	Disposables int
	Children    int
	Created     time.Time
}

// NewRoot creates the root scope of a provider tree.
func NewRoot(ctx context.Context) *Scope {
	s := newScope(ctx)
	s.root = s
	s.children = make(map[*Scope]struct{})
	return s
}

func newScope(ctx context.Context) *Scope {
	if ctx == nil {
		ctx = context.Background()
	}

	return &Scope{
		id:        uuid.NewString(),
		ctx:       ctx,
		created:   time.Now(),
		instances: make(map[callsite.CacheKey]*entry),
		done:      make(chan struct{}),
	}
}

// NewChild creates a scope whose singletons resolve against s's root.
func (s *Scope) NewChild(ctx context.Context) (*Scope, error) {
	root := s.root

	child := newScope(ctx)
	child.root = root

	root.mu.Lock()
	defer root.mu.Unlock()

	if root.closing.Load() {
		return nil, ErrScopeDisposed
	}

	root.children[child] = struct{}{}
	return child, nil
}

// Bind sets the provider handed to factories resolving in this scope.
// It must be called before the scope is shared.
func (s *Scope) Bind(provider registry.Provider) {
	s.provider = provider
}

// ID returns the unique scope identifier.
func (s *Scope) ID() string {
	return s.id
}

// Context returns the context the scope was created with.
func (s *Scope) Context() context.Context {
	return s.ctx
}

// IsRoot reports whether s is the root scope.
func (s *Scope) IsRoot() bool {
	return s.root == s
}

// IsDisposed reports whether Close has been called.
func (s *Scope) IsDisposed() bool {
	return s.disposed.Load()
}

// Done is closed once the scope has been disposed.
func (s *Scope) Done() <-chan struct{} {
	return s.done
}

// Root returns the root scope.
func (s *Scope) Root() callsite.Scope {
	return s.root
}

// Provider returns the bound provider.
func (s *Scope) Provider() registry.Provider {
	return s.provider
}

// GetOrCreate returns the instance cached under key. The first caller runs
// create; concurrent callers for the same key wait for and share its
// result. A failed construction is not cached. create is called with s.
func (s *Scope) GetOrCreate(key callsite.CacheKey, create func(callsite.Scope) (any, error)) (any, error) {
	s.mu.Lock()
	if s.disposed.Load() {
		s.mu.Unlock()
		return nil, ErrScopeDisposed
	}

	if e, ok := s.instances[key]; ok {
		s.mu.Unlock()
		<-e.done
		return e.value, e.err
	}

	e := &entry{done: make(chan struct{})}
	s.instances[key] = e
	s.mu.Unlock()

	completed := false
	defer func() {
		if !completed {
			s.finish(key, e, nil, errors.New("instance construction panicked"))
		}
	}()

	value, err := create(s)
	completed = true
	return s.finish(key, e, value, err)
}

// finish publishes the result of a construction to waiting callers.
func (s *Scope) finish(key callsite.CacheKey, e *entry, value any, err error) (any, error) {
	s.mu.Lock()
	switch {
	case err != nil:
		delete(s.instances, key)
	case s.disposed.Load():
		// Closed while constructing: the instance never becomes visible.
		delete(s.instances, key)
		s.mu.Unlock()
		_ = dispose(context.WithoutCancel(s.ctx), value)
		s.mu.Lock()
		value, err = nil, ErrScopeDisposed
	default:
		if IsDisposable(value) {
			s.disposables = append(s.disposables, value)
		}
	}
	s.mu.Unlock()

	e.value, e.err = value, err
	close(e.done)
	return value, err
}

// CaptureDisposable tracks instance for disposal when the scope closes.
func (s *Scope) CaptureDisposable(instance any) error {
	if !IsDisposable(instance) {
		return nil
	}

	s.mu.Lock()
	if s.disposed.Load() {
		s.mu.Unlock()
		_ = dispose(context.WithoutCancel(s.ctx), instance)
		return ErrScopeDisposed
	}
	s.disposables = append(s.disposables, instance)
	s.mu.Unlock()
	return nil
}

// Close disposes every tracked instance in reverse creation order. Closing
// the root closes its live children first. Subsequent calls do nothing.
func (s *Scope) Close() error {
	if s.IsRoot() {
		return s.closeRoot()
	}

	err := s.close("scope")

	root := s.root
	root.mu.Lock()
	delete(root.children, s)
	root.mu.Unlock()

	return err
}

func (s *Scope) closeRoot() error {
	if !s.closing.CompareAndSwap(false, true) {
		return nil
	}

	s.mu.Lock()
	children := make([]*Scope, 0, len(s.children))
	for child := range s.children {
		children = append(children, child)
	}
	s.mu.Unlock()

	var errs []error
	for _, child := range children {
		if err := child.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := s.close("provider"); err != nil {
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return DisposalError{Context: "provider", Errors: errs}
}

func (s *Scope) close(owner string) error {
	s.mu.Lock()
	if !s.disposed.CompareAndSwap(false, true) {
		s.mu.Unlock()
		return nil
	}

	disposables := s.disposables
	s.disposables = nil
	s.instances = make(map[callsite.CacheKey]*entry)
	s.mu.Unlock()

	close(s.done)

	ctx := context.WithoutCancel(s.ctx)

	var errs []error
	for i := len(disposables) - 1; i >= 0; i-- {
		if err := dispose(ctx, disposables[i]); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return DisposalError{Context: owner, Errors: errs}
	}
	return nil
}

// Stats returns the current scope statistics.
func (s *Scope) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		ID:          s.id,
		Root:        s.IsRoot(),
		Instances:   len(s.instances),
		Disposables: len(s.disposables),
		Children:    len(s.children),
		Created:     s.created,
	}
}

var _ callsite.Scope = (*Scope)(nil)
