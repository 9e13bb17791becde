package registry

import (
	"fmt"
	"reflect"

	"github.com/junioryono/inject/internal/reflection"
)

// Constructor is one way of building an implementation type: either an
// analyzed constructor function or the implicit zero-parameter constructor
// of a struct type.
type Constructor struct {
	info     *reflection.ConstructorInfo
	defaults map[int]any
	implicit reflect.Type
}

// NewConstructor analyzes fn and attaches default values keyed by parameter index.
// A nil default stands for the parameter's zero value.
func NewConstructor(analyzer *reflection.Analyzer, fn any, defaults map[int]any) (*Constructor, error) {
	info, err := analyzer.Analyze(fn)
	if err != nil {
		return nil, err
	}

	c := &Constructor{info: info}

	for i, value := range defaults {
		if i < 0 || i >= len(info.Parameters) {
			return nil, DefaultValueError{
				Constructor: reflection.FormatType(info.Type),
				Index:       i,
				Reason:      fmt.Sprintf("constructor has %d parameters", len(info.Parameters)),
			}
		}

		if _, err := reflection.ArgumentValue(value, info.Parameters[i].Type); err != nil {
			return nil, DefaultValueError{
				Constructor: reflection.FormatType(info.Type),
				Index:       i,
				Reason:      err.Error(),
			}
		}

		if c.defaults == nil {
			c.defaults = make(map[int]any, len(defaults))
		}
		c.defaults[i] = value
	}

	return c, nil
}

// ImplicitConstructor returns the zero-parameter constructor of an activatable type.
func ImplicitConstructor(t reflect.Type) *Constructor {
	return &Constructor{implicit: t}
}

// ImplementationType returns the type the constructor builds.
func (c *Constructor) ImplementationType() reflect.Type {
	if c.info == nil {
		return c.implicit
	}
	return c.info.Result
}

// IsImplicit reports whether this is the implicit zero-parameter constructor.
func (c *Constructor) IsImplicit() bool {
	return c.info == nil
}

// NumParams returns the number of dependencies the constructor takes.
func (c *Constructor) NumParams() int {
	if c.info == nil {
		return 0
	}
	return len(c.info.Parameters)
}

// ParameterType returns the type of parameter i.
func (c *Constructor) ParameterType(i int) reflect.Type {
	return c.info.Parameters[i].Type
}

// ParameterTypes returns the dependency types in parameter order.
func (c *Constructor) ParameterTypes() []reflect.Type {
	if c.info == nil {
		return nil
	}
	return c.info.ParameterTypes()
}

// Default returns the default value for parameter i. Optional fields of a
// parameter object default to their zero value.
func (c *Constructor) Default(i int) (any, bool) {
	if c.info == nil {
		return nil, false
	}
	if v, ok := c.defaults[i]; ok {
		return v, true
	}
	if c.info.Parameters[i].Optional {
		return nil, true
	}
	return nil, false
}

// Invoke calls the constructor with one resolved value per parameter.
func (c *Constructor) Invoke(args []any) (any, error) {
	if c.info == nil {
		return reflection.Zero(c.implicit), nil
	}

	values := make([]reflect.Value, len(args))
	for i, arg := range args {
		v, err := reflection.ArgumentValue(arg, c.info.Parameters[i].Type)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}

	return c.info.Call(values)
}

func (c *Constructor) String() string {
	if c.info == nil {
		return fmt.Sprintf("new(%s)", reflection.FormatType(c.implicit))
	}
	return reflection.FormatType(c.info.Type)
}
