package reflection

import (
	"fmt"
	"reflect"
	"runtime/debug"
	"strings"
)

// ConstructorPanicError indicates a constructor panicked during invocation.
// It captures the panic value and stack trace for debugging.
type ConstructorPanicError struct {
	Constructor reflect.Type
	Panic       any
	Stack       []byte
}

func (e ConstructorPanicError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("constructor %s panicked: %v\n", FormatType(e.Constructor), e.Panic))

	b.WriteString("\nConstructors should be pure dependency wiring - avoid operations that can panic.\n")

	b.WriteString("\nTo resolve this:\n")
	b.WriteString("  • Check for nil pointer dereferences in your constructor\n")
	b.WriteString("  • Move panic-prone initialization to a separate Init() method\n")
	b.WriteString("  • Add nil checks for dependencies before using them\n")

	if len(e.Stack) > 0 {
		b.WriteString("\nStack trace:\n")
		b.Write(e.Stack)
	}

	return b.String()
}

// Unwrap exposes a panic value that is itself an error.
func (e ConstructorPanicError) Unwrap() error {
	if err, ok := e.Panic.(error); ok {
		return err
	}
	return nil
}

// Call invokes the constructor with one argument per analyzed parameter.
// For parameter objects the arguments populate the In struct fields.
// An error returned by the constructor is passed through unwrapped.
func (info *ConstructorInfo) Call(args []reflect.Value) (result any, err error) {
	if len(args) != len(info.Parameters) {
		return nil, fmt.Errorf("constructor %s expects %d arguments, got %d",
			FormatType(info.Type), len(info.Parameters), len(args))
	}

	in := args
	if info.IsParamObject {
		in = []reflect.Value{info.buildParamObject(args)}
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = ConstructorPanicError{
				Constructor: info.Type,
				Panic:       r,
				Stack:       debug.Stack(),
			}
		}
	}()

	results := info.Value.Call(in)

	if info.HasErrorReturn {
		if errVal := results[1]; !errVal.IsNil() {
			return nil, errVal.Interface().(error)
		}
	}

	return results[0].Interface(), nil
}

// buildParamObject creates the In struct and populates its fields.
func (info *ConstructorInfo) buildParamObject(args []reflect.Value) reflect.Value {
	structType := info.ParamType
	if structType.Kind() == reflect.Pointer {
		structType = structType.Elem()
	}

	structPtr := reflect.New(structType)
	structValue := structPtr.Elem()

	for i, param := range info.Parameters {
		structValue.Field(param.Index).Set(args[i])
	}

	if info.ParamType.Kind() == reflect.Pointer {
		return structPtr
	}
	return structValue
}

// ArgumentValue converts a resolved instance into a value whose type is
// exactly t. A nil instance becomes the zero value of t.
func ArgumentValue(instance any, t reflect.Type) (reflect.Value, error) {
	if instance == nil {
		return reflect.Zero(t), nil
	}

	v := reflect.ValueOf(instance)
	if v.Type() == t {
		return v, nil
	}

	if v.Type().AssignableTo(t) {
		out := reflect.New(t).Elem()
		out.Set(v)
		return out, nil
	}

	if v.Type().ConvertibleTo(t) && v.Kind() == t.Kind() {
		return v.Convert(t), nil
	}

	return reflect.Value{}, fmt.Errorf("value of type %s is not assignable to %s",
		FormatType(v.Type()), FormatType(t))
}

// Zero creates the zero value a parameterless implementation type starts from:
// a new pointer for *struct types and the zero value otherwise.
func Zero(t reflect.Type) any {
	if t.Kind() == reflect.Pointer {
		return reflect.New(t.Elem()).Interface()
	}
	return reflect.Zero(t).Interface()
}

// IsActivatable reports whether t can be created without a constructor.
func IsActivatable(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}
