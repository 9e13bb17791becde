package callsite

import (
	"reflect"
	"sync"

	"github.com/junioryono/inject/internal/registry"
)

// Validator enforces scope rules on call site trees: a singleton must not
// capture a scoped service, and a scoped service must not be resolved from
// the root scope.
type Validator struct {
	// scoped maps a validated service type to the first scoped service its
	// tree reaches, or nil.
	scoped sync.Map // reflect.Type -> scopedDependency
}

type scopedDependency struct {
	serviceType reflect.Type
}

// NewValidator creates a validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateCallSite walks cs once and records whether it reaches a scoped service.
func (v *Validator) ValidateCallSite(cs CallSite) error {
	if cs == nil {
		return nil
	}

	scoped, err := v.visit(cs, nil)
	if err != nil {
		return err
	}

	v.scoped.Store(cs.ServiceType(), scopedDependency{serviceType: scoped})
	return nil
}

// ValidateResolution fails when serviceType needs a scoped service and is
// requested from the root scope.
func (v *Validator) ValidateResolution(serviceType reflect.Type, fromRoot bool) error {
	if !fromRoot {
		return nil
	}

	dep, ok := v.scoped.Load(serviceType)
	if !ok {
		return nil
	}

	if scoped := dep.(scopedDependency).serviceType; scoped != nil {
		return ScopeValidationError{ServiceType: serviceType, ScopedType: scoped}
	}
	return nil
}

// visit returns the first scoped service type reachable from cs. singleton
// is the nearest enclosing singleton call site, if any.
func (v *Validator) visit(cs CallSite, singleton *SingletonCallSite) (reflect.Type, error) {
	switch c := cs.(type) {
	case *SingletonCallSite:
		return v.visit(c.Inner, c)

	case *ScopedCallSite:
		if singleton != nil {
			return nil, LifetimeConflictError{
				ServiceType:        singleton.ServiceType(),
				ServiceLifetime:    registry.Singleton,
				DependencyType:     c.ServiceType(),
				DependencyLifetime: registry.Scoped,
			}
		}
		if _, err := v.visit(c.Inner, nil); err != nil {
			return nil, err
		}
		return c.ServiceType(), nil

	case *TransientCallSite:
		return v.visit(c.Inner, singleton)

	case *ConstructorCallSite:
		return v.visitAll(c.Arguments, singleton)

	case *EnumerableCallSite:
		return v.visitAll(c.Items, singleton)

	default:
		return nil, nil
	}
}

func (v *Validator) visitAll(sites []CallSite, singleton *SingletonCallSite) (reflect.Type, error) {
	var first reflect.Type
	for _, cs := range sites {
		scoped, err := v.visit(cs, singleton)
		if err != nil {
			return nil, err
		}
		if first == nil {
			first = scoped
		}
	}
	return first, nil
}
