package reflection

import (
	"fmt"
	"reflect"
	"sync"
)

// In marks a parameter object. A constructor taking a single struct that
// embeds In receives its dependencies through the struct's exported fields.
type In struct{}

var (
	inType  = reflect.TypeOf((*In)(nil)).Elem()
	errType = reflect.TypeOf((*error)(nil)).Elem()
)

// Analyzer performs reflection-based analysis of constructors.
// It caches the signature analysis per function type. Closures created from
// one function literal share a code pointer, so the function value itself is
// never part of the cache.
type Analyzer struct {
	mu    sync.RWMutex
	cache map[reflect.Type]*ConstructorInfo
}

// ConstructorInfo contains analyzed information about a constructor function.
type ConstructorInfo struct {
	Type           reflect.Type
	Value          reflect.Value
	Parameters     []ParameterInfo
	Result         reflect.Type // First return value, the constructed type
	IsParamObject  bool         // Single parameter embedding In
	ParamType      reflect.Type // The In struct type (pointer or value) when IsParamObject
	HasErrorReturn bool         // Returns error as last value
}

// ParameterInfo describes a constructor parameter or a field of an In struct.
type ParameterInfo struct {
	Type     reflect.Type
	Name     string // Field name for In structs
	Index    int    // Parameter index or field index
	Optional bool   // From optional:"true" tag
}

// TagInfo contains parsed struct tag information.
type TagInfo struct {
	Optional bool
	Ignore   bool
}

// New creates a new Analyzer.
func New() *Analyzer {
	return &Analyzer{
		cache: make(map[reflect.Type]*ConstructorInfo),
	}
}

// Analyze analyzes a constructor function and extracts its parameters and result.
// The returned info is bound to constructor and is never shared between calls.
func (a *Analyzer) Analyze(constructor any) (*ConstructorInfo, error) {
	if constructor == nil {
		return nil, fmt.Errorf("constructor cannot be nil")
	}

	val := reflect.ValueOf(constructor)
	typ := val.Type()

	if typ.Kind() != reflect.Func {
		return nil, fmt.Errorf("constructor must be a function, got %s", FormatType(typ))
	}

	if val.IsNil() {
		return nil, fmt.Errorf("constructor cannot be nil")
	}

	a.mu.RLock()
	signature, ok := a.cache[typ]
	a.mu.RUnlock()

	if !ok {
		signature = &ConstructorInfo{Type: typ}

		if err := a.analyzeReturns(signature); err != nil {
			return nil, err
		}

		if err := a.analyzeParameters(signature); err != nil {
			return nil, fmt.Errorf("failed to analyze parameters: %w", err)
		}

		a.mu.Lock()
		a.cache[typ] = signature
		a.mu.Unlock()
	}

	info := *signature
	info.Value = val
	return &info, nil
}

// analyzeReturns accepts func(...) T and func(...) (T, error).
func (a *Analyzer) analyzeReturns(info *ConstructorInfo) error {
	fnType := info.Type

	switch fnType.NumOut() {
	case 1:
	case 2:
		if fnType.Out(1) != errType {
			return fmt.Errorf("second return value of %s must be error", FormatType(fnType))
		}
		info.HasErrorReturn = true
	default:
		return fmt.Errorf("constructor %s must return a value and an optional error", FormatType(fnType))
	}

	result := fnType.Out(0)
	if result == errType {
		return fmt.Errorf("constructor %s only returns error", FormatType(fnType))
	}

	info.Result = result
	return nil
}

// analyzeParameters analyzes function parameters or In struct fields.
func (a *Analyzer) analyzeParameters(info *ConstructorInfo) error {
	fnType := info.Type

	if fnType.IsVariadic() {
		return fmt.Errorf("variadic constructor %s is not supported", FormatType(fnType))
	}

	if fnType.NumIn() == 1 && hasEmbeddedIn(fnType.In(0)) {
		info.IsParamObject = true
		info.ParamType = fnType.In(0)
		return a.analyzeParamObject(info, fnType.In(0))
	}

	info.Parameters = make([]ParameterInfo, fnType.NumIn())
	for i := 0; i < fnType.NumIn(); i++ {
		info.Parameters[i] = ParameterInfo{
			Type:  fnType.In(i),
			Index: i,
		}
	}

	return nil
}

// analyzeParamObject analyzes an In struct's fields.
func (a *Analyzer) analyzeParamObject(info *ConstructorInfo, structType reflect.Type) error {
	if structType.Kind() == reflect.Pointer {
		structType = structType.Elem()
	}

	params := make([]ParameterInfo, 0, structType.NumField())

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)

		if field.Anonymous && field.Type == inType {
			continue
		}

		tagInfo := a.parseFieldTags(field.Tag)
		if tagInfo.Ignore {
			continue
		}

		if !field.IsExported() {
			return fmt.Errorf("unexported field %s in parameter object %s; tag it inject:\"-\" to skip it",
				field.Name, FormatType(structType))
		}

		params = append(params, ParameterInfo{
			Type:     field.Type,
			Name:     field.Name,
			Index:    i,
			Optional: tagInfo.Optional,
		})
	}

	info.Parameters = params
	return nil
}

// parseFieldTags parses struct field tags for DI-specific annotations.
func (a *Analyzer) parseFieldTags(tag reflect.StructTag) TagInfo {
	info := TagInfo{}

	if val, ok := tag.Lookup("optional"); ok {
		info.Optional = val == "true"
	}

	if val, ok := tag.Lookup("inject"); ok && val == "-" {
		info.Ignore = true
	}

	return info
}

// CacheSize returns the number of cached analyses.
func (a *Analyzer) CacheSize() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.cache)
}

// ParameterTypes returns the parameter types in declaration order.
func (info *ConstructorInfo) ParameterTypes() []reflect.Type {
	types := make([]reflect.Type, len(info.Parameters))
	for i, param := range info.Parameters {
		types[i] = param.Type
	}
	return types
}

// hasEmbeddedIn checks if a struct (or pointer to struct) embeds In.
func hasEmbeddedIn(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return false
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous && field.Type == inType {
			return true
		}
	}

	return false
}
