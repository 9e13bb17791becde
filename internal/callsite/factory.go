package callsite

import (
	"reflect"
	"sort"
	"sync"

	"github.com/junioryono/inject/internal/reflection"
	"github.com/junioryono/inject/internal/registry"
)

// Factory turns a closed list of descriptors into call sites on demand.
// Each requested type is built at most once; building is serialized by a
// single factory-wide lock while cache hits are lock free.
type Factory struct {
	descriptors []*registry.Descriptor
	exact       map[reflect.Type]*registry.Descriptor
	open        map[registry.TypeDefinition]*registry.Descriptor

	// cache maps a requested type to its call site; nil results are kept.
	cache sync.Map // reflect.Type -> cachedSite

	mu    sync.Mutex
	sites map[CacheKey]CallSite
}

type cachedSite struct {
	site CallSite
}

// NewFactory validates the descriptors and indexes them by service type.
// The last descriptor registered for a type wins single resolution.
func NewFactory(descriptors []*registry.Descriptor) (*Factory, error) {
	f := &Factory{
		descriptors: make([]*registry.Descriptor, 0, len(descriptors)),
		exact:       make(map[reflect.Type]*registry.Descriptor),
		open:        make(map[registry.TypeDefinition]*registry.Descriptor),
		sites:       make(map[CacheKey]CallSite),
	}

	for _, d := range descriptors {
		if d == nil {
			return nil, registry.InvalidRegistrationError{Reason: "descriptor cannot be nil"}
		}

		if err := d.Validate(); err != nil {
			return nil, err
		}

		f.descriptors = append(f.descriptors, d)
		if d.IsOpenGeneric() {
			f.open[*d.ServiceDefinition] = d
		} else {
			f.exact[d.ServiceType] = d
		}
	}

	return f, nil
}

// Descriptors returns the registrations in registration order.
func (f *Factory) Descriptors() []*registry.Descriptor {
	out := make([]*registry.Descriptor, len(f.descriptors))
	copy(out, f.descriptors)
	return out
}

// Add registers a prebuilt call site for serviceType, replacing any registration.
func (f *Factory) Add(serviceType reflect.Type, cs CallSite) {
	f.cache.Store(serviceType, cachedSite{site: cs})
}

// IsService reports whether serviceType can be resolved without building it.
func (f *Factory) IsService(serviceType reflect.Type) bool {
	if serviceType == nil {
		return false
	}

	if cached, ok := f.cache.Load(serviceType); ok {
		return cached.(cachedSite).site != nil
	}

	if _, ok := f.exact[serviceType]; ok {
		return true
	}

	if def, err := registry.DefinitionOf(serviceType); err == nil {
		if _, ok := f.open[*def]; ok {
			return true
		}
	}

	return serviceType.Kind() == reflect.Slice
}

// CreateCallSite returns the call site for serviceType, or nil when nothing
// is registered that can produce it.
func (f *Factory) CreateCallSite(serviceType reflect.Type, chain *Chain) (CallSite, error) {
	if cached, ok := f.cache.Load(serviceType); ok {
		return cached.(cachedSite).site, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	return f.createCallSite(serviceType, chain)
}

// createCallSite must be called with mu held.
func (f *Factory) createCallSite(serviceType reflect.Type, chain *Chain) (CallSite, error) {
	if cached, ok := f.cache.Load(serviceType); ok {
		return cached.(cachedSite).site, nil
	}

	if err := chain.CheckCircularDependency(serviceType); err != nil {
		return nil, err
	}

	cs, err := f.tryCreateExact(serviceType, chain)
	if err == nil && cs == nil {
		cs, err = f.tryCreateOpenGeneric(serviceType, chain)
	}
	if err == nil && cs == nil {
		cs, err = f.tryCreateEnumerable(serviceType, chain)
	}
	if err != nil {
		return nil, err
	}

	f.cache.Store(serviceType, cachedSite{site: cs})
	return cs, nil
}

func (f *Factory) tryCreateExact(serviceType reflect.Type, chain *Chain) (CallSite, error) {
	d, ok := f.exact[serviceType]
	if !ok {
		return nil, nil
	}
	return f.createExact(d, serviceType, chain)
}

func (f *Factory) tryCreateOpenGeneric(serviceType reflect.Type, chain *Chain) (CallSite, error) {
	def, err := registry.DefinitionOf(serviceType)
	if err != nil {
		return nil, nil
	}

	d, ok := f.open[*def]
	if !ok {
		return nil, nil
	}

	return f.createOpenGeneric(d, serviceType, chain, true)
}

func (f *Factory) tryCreateEnumerable(serviceType reflect.Type, chain *Chain) (CallSite, error) {
	if serviceType.Kind() != reflect.Slice {
		return nil, nil
	}

	if chain.Add(serviceType, nil) {
		defer chain.Remove(serviceType)
	}

	itemType := serviceType.Elem()
	items := make([]CallSite, 0)

	for _, d := range f.descriptors {
		var (
			cs  CallSite
			err error
		)

		switch {
		case !d.IsOpenGeneric() && d.ServiceType == itemType:
			cs, err = f.createExact(d, itemType, chain)
		case d.IsOpenGeneric() && d.ServiceDefinition.Matches(itemType):
			cs, err = f.createOpenGeneric(d, itemType, chain, false)
		}

		if err != nil {
			return nil, err
		}
		if cs != nil {
			items = append(items, cs)
		}
	}

	return &EnumerableCallSite{
		site:     site{serviceType: serviceType, implementationType: serviceType},
		ItemType: itemType,
		Items:    items,
	}, nil
}

// createExact builds the call site of one closed descriptor. The result is
// shared by single and enumerable resolution.
func (f *Factory) createExact(d *registry.Descriptor, serviceType reflect.Type, chain *Chain) (CallSite, error) {
	siteKey := CacheKey{Descriptor: d}
	if cs, ok := f.sites[siteKey]; ok {
		return cs, nil
	}

	var (
		cs  CallSite
		err error
	)

	switch {
	case d.ImplementationInstance != nil:
		cs = NewConstantCallSite(serviceType, d.ImplementationInstance)
	case d.ImplementationFactory != nil:
		cs = NewFactoryCallSite(serviceType, d.ImplementationFactory)
	default:
		cs, err = f.createConstructorCallSite(serviceType, d.ImplementationType, d.Constructors, chain)
	}
	if err != nil {
		return nil, err
	}

	cs = applyLifetime(cs, d.Lifetime, CacheKey{Descriptor: d.CacheOwner()})
	f.sites[siteKey] = cs
	return cs, nil
}

// createOpenGeneric closes an open generic descriptor for serviceType using
// the registered constructor whose result carries the same type arguments.
// When no such constructor exists it fails if required, or yields nil.
func (f *Factory) createOpenGeneric(d *registry.Descriptor, serviceType reflect.Type, chain *Chain, required bool) (CallSite, error) {
	key := CacheKey{Descriptor: d, ServiceType: serviceType}
	if cs, ok := f.sites[key]; ok {
		return cs, nil
	}

	args := registry.TypeArguments(serviceType)

	var (
		closed reflect.Type
		ctors  []*registry.Constructor
	)
	for _, c := range d.Constructors {
		impl := c.ImplementationType()
		if registry.TypeArguments(impl) != args || !impl.AssignableTo(serviceType) {
			continue
		}
		if closed != nil && impl != closed {
			continue
		}
		closed = impl
		ctors = append(ctors, c)
	}

	if closed == nil {
		if !required {
			return nil, nil
		}
		return nil, NoConstructorMatchError{
			ServiceType:    serviceType,
			Implementation: d.ImplementationDefinition.String(),
		}
	}

	cs, err := f.createConstructorCallSite(serviceType, closed, ctors, chain)
	if err != nil {
		return nil, err
	}

	cs = applyLifetime(cs, d.Lifetime, key)
	f.sites[key] = cs
	return cs, nil
}

// createConstructorCallSite selects a constructor for implementationType.
// A single constructor is used directly; with several, the one with the
// most resolvable parameters wins, and any other resolvable constructor
// must take a subset of its parameter types.
func (f *Factory) createConstructorCallSite(serviceType, implementationType reflect.Type, ctors []*registry.Constructor, chain *Chain) (CallSite, error) {
	if chain.Add(serviceType, implementationType) {
		defer chain.Remove(serviceType)
	}

	if len(ctors) == 0 && reflection.IsActivatable(implementationType) {
		ctors = []*registry.Constructor{registry.ImplicitConstructor(implementationType)}
	}

	base := site{serviceType: serviceType, implementationType: implementationType}

	switch len(ctors) {
	case 0:
		return nil, NoConstructorMatchError{ServiceType: serviceType, ImplementationType: implementationType}
	case 1:
		c := ctors[0]
		if c.NumParams() == 0 {
			return &CreateInstanceCallSite{site: base, Constructor: c}, nil
		}

		args, err := f.createArgumentCallSites(implementationType, c, chain, true)
		if err != nil {
			return nil, err
		}
		return &ConstructorCallSite{site: base, Constructor: c, Arguments: args}, nil
	}

	sorted := make([]*registry.Constructor, len(ctors))
	copy(sorted, ctors)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].NumParams() > sorted[j].NumParams()
	})

	var (
		best     *registry.Constructor
		bestArgs []CallSite
		bestSet  map[reflect.Type]struct{}
	)

	for _, c := range sorted {
		args, err := f.createArgumentCallSites(implementationType, c, chain, false)
		if err != nil {
			return nil, err
		}
		if args == nil {
			continue
		}

		if best == nil {
			best, bestArgs = c, args
			continue
		}

		if bestSet == nil {
			bestSet = make(map[reflect.Type]struct{}, best.NumParams())
			for _, t := range best.ParameterTypes() {
				bestSet[t] = struct{}{}
			}
		}

		for _, t := range c.ParameterTypes() {
			if _, ok := bestSet[t]; !ok {
				return nil, AmbiguousConstructorError{
					ImplementationType: implementationType,
					First:              best,
					Second:             c,
				}
			}
		}
	}

	if best == nil {
		return nil, UnableToActivateError{ImplementationType: implementationType, Constructors: sorted}
	}

	if best.NumParams() == 0 {
		return &CreateInstanceCallSite{site: base, Constructor: best}, nil
	}
	return &ConstructorCallSite{site: base, Constructor: best, Arguments: bestArgs}, nil
}

// createArgumentCallSites resolves every parameter of c. A parameter with
// no registration falls back to its default value; without one it either
// fails or, when required is false, makes the whole result nil.
func (f *Factory) createArgumentCallSites(implementationType reflect.Type, c *registry.Constructor, chain *Chain, required bool) ([]CallSite, error) {
	args := make([]CallSite, c.NumParams())

	for i := range args {
		paramType := c.ParameterType(i)

		cs, err := f.createCallSite(paramType, chain)
		if err != nil {
			return nil, err
		}

		if cs == nil {
			if value, ok := c.Default(i); ok {
				if value == nil {
					value = reflect.Zero(paramType).Interface()
				}
				cs = NewConstantCallSite(paramType, value)
			}
		}

		if cs == nil {
			if required {
				return nil, UnresolvableDependencyError{DependencyType: paramType, ImplementationType: implementationType}
			}
			return nil, nil
		}

		args[i] = cs
	}

	return args, nil
}
