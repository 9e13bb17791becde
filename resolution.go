package inject

import (
	"fmt"
	"reflect"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Resolve resolves a service of type T from the provider.
// A service that is not registered is reported as a ResolutionError
// wrapping ErrServiceNotFound.
//
// Example:
//
//	logger, err := inject.Resolve[*Logger](provider)
//	if err != nil {
//	    // Handle error
//	}
func Resolve[T any](sp ServiceProvider) (T, error) {
	var zero T

	if sp == nil {
		return zero, ErrProviderNil
	}

	serviceType := TypeOf[T]()
	service, err := sp.GetService(serviceType)
	if err != nil {
		return zero, err
	}

	if service == nil {
		if !sp.IsService(serviceType) {
			return zero, ResolutionError{
				ServiceType: serviceType,
				Cause:       ErrServiceNotFound,
				Available:   registeredTypes(sp),
			}
		}
		return zero, nil
	}

	result, ok := service.(T)
	if !ok {
		return zero, TypeMismatchError{
			Expected: serviceType,
			Actual:   reflect.TypeOf(service),
			Context:  "type assertion",
		}
	}

	return result, nil
}

// MustResolve resolves a service of type T from the provider.
// It panics if the service cannot be resolved. This is useful for
// application initialization where missing services are fatal.
//
// Example:
//
//	logger := inject.MustResolve[*Logger](provider)
func MustResolve[T any](sp ServiceProvider) T {
	service, err := Resolve[T](sp)
	if err != nil {
		panic(fmt.Sprintf("failed to resolve service: %v", err))
	}

	return service
}

// ResolveAll resolves every registration of T in registration order.
// The result is empty, not nil, when nothing is registered.
//
// Example:
//
//	handlers, err := inject.ResolveAll[EventHandler](provider)
func ResolveAll[T any](sp ServiceProvider) ([]T, error) {
	return Resolve[[]T](sp)
}

// Invoke calls fn with its parameters resolved from sp. fn may return
// nothing or a single error, which Invoke returns.
//
// Example:
//
//	err := inject.Invoke(scope, func(db *sql.DB, logger *zap.Logger) error {
//	    logger.Info("migrating")
//	    return migrate(db)
//	})
func Invoke(sp ServiceProvider, fn any) error {
	if sp == nil {
		return ErrProviderNil
	}
	if fn == nil {
		return ErrConstructorNil
	}

	fnValue := reflect.ValueOf(fn)
	fnType := fnValue.Type()
	if fnType.Kind() != reflect.Func {
		return fmt.Errorf("invoke target must be a function, got %s", formatType(fnType))
	}

	switch {
	case fnType.NumOut() == 0:
	case fnType.NumOut() == 1 && fnType.Out(0) == errorType:
	default:
		return fmt.Errorf("invoke target %s must return nothing or an error", formatType(fnType))
	}

	args := make([]reflect.Value, fnType.NumIn())
	for i := range args {
		paramType := fnType.In(i)

		service, err := sp.GetService(paramType)
		if err != nil {
			return err
		}

		if service == nil {
			if !sp.IsService(paramType) {
				return ResolutionError{
					ServiceType: paramType,
					Cause:       ErrServiceNotFound,
					Available:   registeredTypes(sp),
				}
			}
			args[i] = reflect.Zero(paramType)
			continue
		}

		args[i] = reflect.ValueOf(service)
	}

	results := fnValue.Call(args)
	if len(results) == 1 && !results[0].IsNil() {
		return results[0].Interface().(error)
	}
	return nil
}

// registeredTypes lists the closed service types known to sp.
func registeredTypes(sp ServiceProvider) []reflect.Type {
	var s *scope
	switch v := sp.(type) {
	case *provider:
		s = v.scope
	case *scope:
		s = v
	case *resolvingProvider:
		s = v.scope
	default:
		return nil
	}
	return s.provider.registered
}
