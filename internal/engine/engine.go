package engine

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/junioryono/inject/internal/callsite"
	"github.com/junioryono/inject/internal/reflection"
)

// DefaultPromotionThreshold is the call count at which a service is compiled.
const DefaultPromotionThreshold = 2

// Compiler produces a faster accessor for a call site.
type Compiler interface {
	Compile(cs callsite.CallSite) (callsite.Accessor, error)
}

// Callback observes the engine. Implementations must not block.
type Callback interface {
	// OnCreate is called once when the call site for a service is realized.
	OnCreate(serviceType reflect.Type, cs callsite.CallSite)

	// OnResolve is called after every resolution.
	OnResolve(serviceType reflect.Type, elapsed time.Duration, err error)

	// OnPromote is called when background compilation of a service finishes.
	OnPromote(serviceType reflect.Type, err error)
}

// Options configures an Engine.
type Options struct {
	Mode               Mode
	PromotionThreshold int64
	ValidateScopes     bool
	Logger             *zap.Logger
	Callback           Callback
	Compiler           Compiler
}

// Engine ties a call site factory to the strategies that evaluate call
// sites. Every realized service has an accessor whose active strategy can
// be swapped atomically from the interpreted form to the compiled one.
type Engine struct {
	factory   *callsite.Factory
	resolver  *callsite.Resolver
	compiler  Compiler
	validator *callsite.Validator

	mode      Mode
	threshold int64
	logger    *zap.Logger
	callback  Callback

	accessors  sync.Map // reflect.Type -> *serviceAccessor
	promotions sync.WaitGroup
}

type serviceAccessor struct {
	serviceType reflect.Type
	site        callsite.CallSite
	active      atomic.Pointer[callsite.Accessor]
	calls       atomic.Int64
	compiled    atomic.Bool
}

// New creates an engine over factory.
func New(factory *callsite.Factory, opts Options) *Engine {
	e := &Engine{
		factory:   factory,
		resolver:  callsite.NewResolver(),
		compiler:  opts.Compiler,
		mode:      opts.Mode,
		threshold: opts.PromotionThreshold,
		logger:    opts.Logger,
		callback:  opts.Callback,
	}

	if e.compiler == nil {
		e.compiler = callsite.NewCompiler()
	}
	if e.threshold < 1 {
		e.threshold = DefaultPromotionThreshold
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.callback == nil {
		e.callback = nopCallback{}
	}
	if opts.ValidateScopes {
		e.validator = callsite.NewValidator()
	}

	return e
}

// Factory returns the call site factory.
func (e *Engine) Factory() *callsite.Factory {
	return e.factory
}

// Mode returns the evaluation mode.
func (e *Engine) Mode() Mode {
	return e.mode
}

// GetService resolves serviceType in scope. It returns (nil, nil) when the
// service is not registered. fromRoot marks requests made against the root
// scope, which may not reach scoped services when scope validation is on.
func (e *Engine) GetService(serviceType reflect.Type, scope callsite.Scope, fromRoot bool) (any, error) {
	start := time.Now()

	value, err := e.getService(serviceType, scope, fromRoot)
	e.callback.OnResolve(serviceType, time.Since(start), err)
	return value, err
}

func (e *Engine) getService(serviceType reflect.Type, scope callsite.Scope, fromRoot bool) (any, error) {
	acc, err := e.realize(serviceType)
	if err != nil {
		return nil, err
	}

	if acc.site == nil {
		return nil, nil
	}

	if e.validator != nil {
		if err := e.validator.ValidateResolution(serviceType, fromRoot); err != nil {
			return nil, err
		}
	}

	strategy := *acc.active.Load()

	if e.mode == ModeDynamic && !acc.compiled.Load() && acc.calls.Add(1) == e.threshold {
		e.promote(acc)
	}

	return strategy(callsite.WithPath(scope, nil))
}

// CallSite returns the realized call site of serviceType, realizing it if needed.
func (e *Engine) CallSite(serviceType reflect.Type) (callsite.CallSite, error) {
	acc, err := e.realize(serviceType)
	if err != nil {
		return nil, err
	}
	return acc.site, nil
}

// Realized returns the call sites of every service realized so far, keyed by type.
func (e *Engine) Realized() map[reflect.Type]callsite.CallSite {
	out := make(map[reflect.Type]callsite.CallSite)
	e.accessors.Range(func(key, value any) bool {
		if acc := value.(*serviceAccessor); acc.site != nil {
			out[key.(reflect.Type)] = acc.site
		}
		return true
	})
	return out
}

// IsCompiled reports whether serviceType currently uses a compiled strategy.
func (e *Engine) IsCompiled(serviceType reflect.Type) bool {
	v, ok := e.accessors.Load(serviceType)
	return ok && v.(*serviceAccessor).compiled.Load()
}

// Wait blocks until in-flight promotions finish.
func (e *Engine) Wait() {
	e.promotions.Wait()
}

// realize returns the accessor for serviceType, building its call site on
// first use. Failed builds are not cached and fail again on the next request.
func (e *Engine) realize(serviceType reflect.Type) (*serviceAccessor, error) {
	if v, ok := e.accessors.Load(serviceType); ok {
		return v.(*serviceAccessor), nil
	}

	cs, err := e.factory.CreateCallSite(serviceType, callsite.NewChain())
	if err != nil {
		return nil, err
	}

	if cs != nil && e.validator != nil {
		if err := e.validator.ValidateCallSite(cs); err != nil {
			return nil, err
		}
	}

	acc := &serviceAccessor{serviceType: serviceType, site: cs}
	if cs != nil {
		strategy := e.initialStrategy(acc)
		acc.active.Store(&strategy)
	}

	actual, loaded := e.accessors.LoadOrStore(serviceType, acc)
	if !loaded && cs != nil {
		e.logger.Debug("call site created",
			zap.String("service", reflection.FormatType(serviceType)),
			zap.Stringer("kind", cs.Kind()),
			zap.Stringer("mode", e.mode),
		)
		e.callback.OnCreate(serviceType, cs)
	}

	return actual.(*serviceAccessor), nil
}

func (e *Engine) initialStrategy(acc *serviceAccessor) callsite.Accessor {
	if e.mode == ModeCompiled {
		compiled, err := e.compile(acc.site)
		if err == nil {
			acc.compiled.Store(true)
			return compiled
		}

		e.logger.Debug("compilation failed, using runtime resolution",
			zap.String("service", reflection.FormatType(acc.serviceType)),
			zap.Error(err),
		)
	}

	return e.resolver.Accessor(acc.site)
}

// promote compiles acc in the background and swaps the compiled strategy in.
// Failures leave the interpreted strategy active and are never surfaced.
func (e *Engine) promote(acc *serviceAccessor) {
	e.promotions.Add(1)

	go func() {
		defer e.promotions.Done()

		compiled, err := e.compile(acc.site)
		if err != nil {
			e.logger.Debug("promotion failed",
				zap.String("service", reflection.FormatType(acc.serviceType)),
				zap.Error(err),
			)
			e.callback.OnPromote(acc.serviceType, err)
			return
		}

		acc.active.Store(&compiled)
		acc.compiled.Store(true)

		e.logger.Debug("service promoted",
			zap.String("service", reflection.FormatType(acc.serviceType)),
			zap.Int64("calls", acc.calls.Load()),
		)
		e.callback.OnPromote(acc.serviceType, nil)
	}()
}

// compile runs the compiler, turning a panic into an error.
func (e *Engine) compile(cs callsite.CallSite) (accessor callsite.Accessor, err error) {
	defer func() {
		if r := recover(); r != nil {
			accessor, err = nil, fmt.Errorf("compiler panicked: %v", r)
		}
	}()

	accessor, err = e.compiler.Compile(cs)
	if err == nil && accessor == nil {
		err = fmt.Errorf("compiler returned no accessor for %s", reflection.FormatType(cs.ServiceType()))
	}
	return accessor, err
}

type nopCallback struct{}

func (nopCallback) OnCreate(reflect.Type, callsite.CallSite)     {}
func (nopCallback) OnResolve(reflect.Type, time.Duration, error) {}
func (nopCallback) OnPromote(reflect.Type, error)                {}
