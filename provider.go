package inject

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/junioryono/inject/internal/callsite"
	"github.com/junioryono/inject/internal/engine"
	"github.com/junioryono/inject/internal/lifetime"
	"github.com/junioryono/inject/internal/registry"
)

// ServiceProvider resolves services. Both the root Provider and every Scope
// implement it, and a ServiceProvider is itself resolvable: constructors and
// factories that take one receive the provider of the scope resolving them.
type ServiceProvider interface {
	// GetService returns the service of serviceType. It returns (nil, nil)
	// when nothing is registered that can produce serviceType, and an error
	// when the service is registered but cannot be built.
	GetService(serviceType reflect.Type) (any, error)

	// IsService reports whether serviceType can be resolved.
	IsService(serviceType reflect.Type) bool

	// CreateScope creates a scope. The scope closes itself when ctx is done.
	CreateScope(ctx context.Context) (Scope, error)

	// ID returns the unique ID of this provider or scope.
	ID() string

	// Context returns the context of this provider or scope. context.Context
	// resolves to this value.
	Context() context.Context

	// IsDisposed reports whether the provider or scope has been closed.
	IsDisposed() bool
}

// Provider is the root service provider built from a Collection. It owns
// every singleton and every scope created from it.
//
// Example:
//
//	provider, err := collection.Build()
//	if err != nil {
//	    return err
//	}
//	defer provider.Close()
//
//	svc, err := inject.Resolve[*UserService](provider)
type Provider interface {
	ServiceProvider

	// Close closes every open scope, then disposes singletons in reverse
	// creation order. Calling Close more than once has no effect.
	Close() error
}

type provider struct {
	*scope

	engine     *engine.Engine
	logger     *zap.Logger
	registered []reflect.Type
}

var (
	serviceProviderType = TypeOf[ServiceProvider]()
	contextType         = TypeOf[context.Context]()
)

// newProvider builds the engine over a closed list of descriptors.
func newProvider(descriptors []*Descriptor, options *ProviderOptions) (*provider, error) {
	if options == nil {
		options = &ProviderOptions{}
	}

	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	factory, err := callsite.NewFactory(descriptors)
	if err != nil {
		return nil, BuildError{Phase: "registration", Details: "invalid descriptor", Cause: err}
	}

	factory.Add(serviceProviderType, callsite.NewFactoryCallSite(serviceProviderType, func(p registry.Provider) (any, error) {
		return unwrapProvider(p), nil
	}))
	factory.Add(contextType, callsite.NewFactoryCallSite(contextType, func(p registry.Provider) (any, error) {
		if sp, ok := p.(ServiceProvider); ok {
			return sp.Context(), nil
		}
		return context.Background(), nil
	}))

	engineOptions := options.engineOptions()
	engineOptions.Logger = logger

	p := &provider{
		engine: engine.New(factory, engineOptions),
		logger: logger,
	}

	for _, d := range descriptors {
		if d.ServiceType != nil {
			p.registered = append(p.registered, d.ServiceType)
		}
	}

	ctx := options.Context
	if ctx == nil {
		ctx = context.Background()
	}

	root := &scope{provider: p}
	ctx, root.cancel = context.WithCancel(contextWithScope(ctx, root))
	root.store = lifetime.NewRoot(ctx)
	p.scope = root
	root.store.Bind(p)

	if options.ValidateOnBuild {
		if err := p.validate(descriptors); err != nil {
			_ = p.Close()
			return nil, err
		}
	}

	logger.Debug("provider built",
		zap.String("id", p.ID()),
		zap.Int("descriptors", len(descriptors)),
		zap.Stringer("mode", p.engine.Mode()),
		zap.Bool("validate_scopes", options.ValidateScopes),
	)

	return p, nil
}

// validate creates the call site of every closed registration.
func (p *provider) validate(descriptors []*Descriptor) error {
	for _, d := range descriptors {
		if d.IsOpenGeneric() {
			continue
		}

		if _, err := p.engine.CallSite(d.ServiceType); err != nil {
			return BuildError{Phase: "validation", Details: d.String(), Cause: err}
		}
	}
	return nil
}

// WithPath returns the provider handed to factories resolving singletons.
func (p *provider) WithPath(path *callsite.Path) registry.Provider {
	return &resolvingProvider{ServiceProvider: p, scope: p.scope, path: path}
}

// Close disposes the provider and all its resources.
func (p *provider) Close() error {
	if p.store.IsDisposed() {
		return nil
	}

	// Let in-flight compilations finish before the caches go away.
	p.engine.Wait()

	err := p.store.Close()
	p.cancel()

	if err != nil {
		var de DisposalError
		if !errors.As(err, &de) {
			err = DisposalError{Context: "provider", Errors: []error{err}}
		}
		p.logger.Debug("provider closed with errors", zap.String("id", p.ID()), zap.Error(err))
		return err
	}

	p.logger.Debug("provider closed", zap.String("id", p.ID()))
	return nil
}

func (p *provider) String() string {
	return fmt.Sprintf("Provider(%s)", p.ID())
}
