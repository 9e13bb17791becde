package reflection

import (
	"reflect"
	"strings"
)

// FormatType formats a reflect.Type for error messages.
func FormatType(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind() {
	case reflect.Pointer:
		return "*" + FormatType(t.Elem())
	case reflect.Slice:
		return "[]" + FormatType(t.Elem())
	case reflect.Map:
		return "map[" + FormatType(t.Key()) + "]" + FormatType(t.Elem())
	case reflect.Func:
		return formatFunc(t)
	case reflect.Interface:
		if t.Name() != "" {
			return shortName(t)
		}
		if t.NumMethod() == 0 {
			return "any"
		}
		return t.String()
	default:
		if t.Name() != "" {
			return shortName(t)
		}
		return t.String()
	}
}

// shortName keeps the package name but drops the import path,
// including inside generic type arguments.
func shortName(t reflect.Type) string {
	name := t.String()
	if !strings.Contains(name, "/") {
		return name
	}

	var b strings.Builder
	start := 0
	for i := 0; i < len(name); i++ {
		switch name[i] {
		case '[', ']', ',', ' ', '*':
			b.WriteString(lastSegment(name[start:i]))
			b.WriteByte(name[i])
			start = i + 1
		}
	}
	b.WriteString(lastSegment(name[start:]))
	return b.String()
}

func lastSegment(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// formatFunc formats a function type.
func formatFunc(t reflect.Type) string {
	var b strings.Builder
	b.WriteString("func(")
	for i := 0; i < t.NumIn(); i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(FormatType(t.In(i)))
	}
	b.WriteString(")")

	switch t.NumOut() {
	case 0:
	case 1:
		b.WriteString(" " + FormatType(t.Out(0)))
	default:
		b.WriteString(" (")
		for i := 0; i < t.NumOut(); i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(FormatType(t.Out(i)))
		}
		b.WriteString(")")
	}

	return b.String()
}
