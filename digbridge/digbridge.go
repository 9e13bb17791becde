// Package digbridge makes services of an inject provider available to a
// go.uber.org/dig container, so code built on dig can consume them.
//
// Example:
//
//	c := dig.New()
//	if err := digbridge.Provide(c, provider, inject.TypeOf[*sql.DB](), inject.TypeOf[Logger]()); err != nil {
//	    return err
//	}
//	err := c.Invoke(func(db *sql.DB, logger Logger) { ... })
package digbridge

import (
	"fmt"
	"reflect"

	"go.uber.org/dig"

	"github.com/junioryono/inject"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Provide registers one dig constructor per type. Each constructor resolves
// its type from sp when dig first needs it; dig then caches the value, so
// scoped and transient services are resolved once per container.
func Provide(c *dig.Container, sp inject.ServiceProvider, types ...reflect.Type) error {
	if c == nil {
		return fmt.Errorf("dig container cannot be nil")
	}
	if sp == nil {
		return inject.ErrProviderNil
	}

	for _, t := range types {
		if t == nil {
			return inject.ErrServiceTypeNil
		}

		if err := c.Provide(constructor(sp, t).Interface()); err != nil {
			return fmt.Errorf("failed to provide %s to dig: %w", t, err)
		}
	}

	return nil
}

// ProvideType registers T with c. See Provide.
func ProvideType[T any](c *dig.Container, sp inject.ServiceProvider) error {
	return Provide(c, sp, inject.TypeOf[T]())
}

// constructor builds a func() (t, error) resolving t from sp.
func constructor(sp inject.ServiceProvider, t reflect.Type) reflect.Value {
	fnType := reflect.FuncOf(nil, []reflect.Type{t, errorType}, false)

	return reflect.MakeFunc(fnType, func([]reflect.Value) []reflect.Value {
		service, err := sp.GetService(t)
		if err == nil && service == nil && !sp.IsService(t) {
			err = inject.ResolutionError{ServiceType: t, Cause: inject.ErrServiceNotFound}
		}

		if err != nil {
			return []reflect.Value{reflect.Zero(t), reflect.ValueOf(&err).Elem()}
		}

		value := reflect.Zero(t)
		if service != nil {
			value = reflect.ValueOf(service)
			if value.Type() != t {
				converted := reflect.New(t).Elem()
				converted.Set(value)
				value = converted
			}
		}
		return []reflect.Value{value, reflect.Zero(errorType)}
	})
}
