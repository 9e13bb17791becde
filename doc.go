// Package inject is a dependency injection engine for Go built around call
// sites: immutable recipes that describe how each service is produced and
// are built once per type, then evaluated on every resolution.
//
// # Overview
//
// inject follows the service collection and provider model familiar from
// .NET:
//   - Three service lifetimes: Singleton, Scoped, and Transient
//   - Constructor injection with automatic selection among several constructors
//   - Default arguments for parameters whose type is not registered
//   - Slices of every registration of a type ([]T)
//   - Open generic registrations closed per type argument
//   - Scopes with deterministic, reverse-order disposal
//   - Interpreted resolution that is compiled in the background once hot
//
// # Basic Usage
//
// Create a service collection, register your services, build a provider, and resolve:
//
//	services := inject.NewCollection()
//	services.AddSingleton(NewLogger)
//	services.AddScoped(NewUserService)
//
//	provider, err := services.Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	userService, err := inject.Resolve[*UserService](provider)
//
// # Service Lifetimes
//
//   - Singleton: One instance created on first request and shared by the whole provider
//   - Scoped: One instance per scope (useful for per-request isolation in web apps)
//   - Transient: New instance created every time the service is requested
//
// Singletons are always created in the root scope, whichever scope requests
// them. With WithScopeValidation a singleton that depends on a scoped
// service is rejected with a LifetimeConflictError.
//
// # Constructor Selection
//
// AddType accepts several constructors for one implementation. The
// constructor with the most parameters that can all be resolved is used.
// If another resolvable constructor takes a parameter type the chosen one
// does not, the registration is ambiguous:
//
//	services.AddType(inject.TypeOf[*Client](), inject.TypeOf[*Client](), inject.Singleton,
//	    NewClient,
//	    NewClientWithRetry,
//	    inject.Ctor(NewClientWithTimeout, inject.DefaultArg(1, 30*time.Second)),
//	)
//
// A struct type registered without constructors is created from its zero value.
//
// # Parameter Objects (In)
//
// For constructors with many dependencies, use parameter objects with embedded inject.In:
//
//	type ServiceParams struct {
//	    inject.In
//
//	    Database *sql.DB
//	    Logger   Logger `optional:"true"`
//	}
//
// # Multiple Registrations
//
// The last registration of a type wins when it is resolved alone. Resolving
// the slice type returns every registration in order:
//
//	services.AddSingleton(NewEmailNotifier, inject.As(new(Notifier)))
//	services.AddSingleton(NewSMSNotifier, inject.As(new(Notifier)))
//
//	notifiers, err := inject.ResolveAll[Notifier](provider) // email, sms
//
// # Open Generics
//
// Go cannot instantiate generic types at run time, so an open generic
// registration lists the instantiations it may be closed with:
//
//	service, _ := inject.DefinitionOf[Repository[any]]()
//	impl, _ := inject.DefinitionOf[*memoryRepository[any]]()
//
//	services.AddOpenGeneric(service, impl, inject.Scoped,
//	    newMemoryRepository[User],
//	    newMemoryRepository[Order],
//	)
//
//	users, err := inject.Resolve[Repository[User]](scope)
//
// # Scopes
//
//	scope, err := provider.CreateScope(ctx)
//	if err != nil {
//	    return err
//	}
//	defer scope.Close()
//
// A scope closes itself when its context is cancelled. Closing a scope
// disposes the scoped and transient services it created, newest first.
// Closing the provider closes every open scope, then the singletons.
//
// # Evaluation Modes
//
// ModeDynamic, the default, interprets call sites and compiles a service
// once it has been resolved PromotionThreshold times. ModeRuntime never
// compiles and ModeCompiled compiles on first use. The mode never changes
// which instances are returned.
//
// # Configuration
//
// Provider options can be set with functional options or loaded from YAML:
//
//	opts, err := inject.LoadOptions(f, inject.WithLogger(logger))
//	provider, err := services.BuildWithOptions(opts)
//
// # Diagnostics
//
// A Callback observes call site creation, resolution and promotion. The
// diagnostics package has zap, Prometheus and OpenTelemetry callbacks, and
// WriteDOT renders the graph of realized services.
package inject
