package registry

import (
	"fmt"
	"reflect"
	"strings"
)

// TypeDefinition identifies a generic type family independent of its type
// arguments, the way an open generic type is named before it is closed.
// Repo[User], Repo[Order] and *Repo[User] all share the definition of Repo
// (the last one with Pointer set).
type TypeDefinition struct {
	PkgPath string
	Name    string
	Kind    reflect.Kind
	Pointer bool
}

// DefinitionOf returns the definition of a generic instantiation.
func DefinitionOf(t reflect.Type) (*TypeDefinition, error) {
	if t == nil {
		return nil, fmt.Errorf("type cannot be nil")
	}

	pointer := false
	named := t
	if t.Kind() == reflect.Pointer && t.Name() == "" {
		pointer = true
		named = t.Elem()
	}

	base, args := splitTypeArguments(named.Name())
	if args == "" {
		return nil, fmt.Errorf("%s is not an instantiation of a generic type", t)
	}

	return &TypeDefinition{
		PkgPath: named.PkgPath(),
		Name:    base,
		Kind:    named.Kind(),
		Pointer: pointer,
	}, nil
}

// Matches reports whether t is an instantiation of this definition.
func (d *TypeDefinition) Matches(t reflect.Type) bool {
	if d == nil || t == nil {
		return false
	}

	if d.Pointer {
		if t.Kind() != reflect.Pointer || t.Name() != "" {
			return false
		}
		t = t.Elem()
	}

	base, args := splitTypeArguments(t.Name())
	return args != "" && base == d.Name && t.PkgPath() == d.PkgPath
}

// IsInterface reports whether the definition names an interface family.
func (d *TypeDefinition) IsInterface() bool {
	return !d.Pointer && d.Kind == reflect.Interface
}

// String returns the definition in Name[...] form.
func (d *TypeDefinition) String() string {
	if d == nil {
		return "<nil>"
	}

	name := d.Name + "[...]"
	if pkg := d.PkgPath; pkg != "" {
		if i := strings.LastIndexByte(pkg, '/'); i >= 0 {
			pkg = pkg[i+1:]
		}
		name = pkg + "." + name
	}

	if d.Pointer {
		return "*" + name
	}
	return name
}

// TypeArguments returns the bracketed type argument list of a generic
// instantiation, or "" when t is not generic.
func TypeArguments(t reflect.Type) string {
	if t == nil {
		return ""
	}

	if t.Kind() == reflect.Pointer && t.Name() == "" {
		t = t.Elem()
	}

	_, args := splitTypeArguments(t.Name())
	return args
}

func splitTypeArguments(name string) (base, args string) {
	i := strings.IndexByte(name, '[')
	if i <= 0 || !strings.HasSuffix(name, "]") {
		return name, ""
	}
	return name[:i], name[i:]
}
