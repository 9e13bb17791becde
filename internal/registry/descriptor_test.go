package registry_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junioryono/inject/internal/reflection"
	"github.com/junioryono/inject/internal/registry"
)

type Greeter interface {
	Greet() string
}

type englishGreeter struct{}

func (englishGreeter) Greet() string { return "hello" }

func newEnglishGreeter() *englishGreeter { return &englishGreeter{} }

func mustConstructor(t *testing.T, fn any) *registry.Constructor {
	t.Helper()
	c, err := registry.NewConstructor(reflection.New(), fn, nil)
	require.NoError(t, err)
	return c
}

func mustDefinition(t *testing.T, typ reflect.Type) *registry.TypeDefinition {
	t.Helper()
	def, err := registry.DefinitionOf(typ)
	require.NoError(t, err)
	return def
}

func TestDescriptor_Validate(t *testing.T) {
	greeterType := typeOf[Greeter]()
	implType := typeOf[*englishGreeter]()

	repoDef := mustDefinition(t, typeOf[Repository[User]]())
	memDef := mustDefinition(t, typeOf[*memoryRepository[User]]())

	tests := []struct {
		name       string
		descriptor func(t *testing.T) *registry.Descriptor
		contains   string
	}{
		{
			name: "instance",
			descriptor: func(*testing.T) *registry.Descriptor {
				return &registry.Descriptor{ServiceType: greeterType, ImplementationInstance: englishGreeter{}}
			},
		},
		{
			name: "factory",
			descriptor: func(*testing.T) *registry.Descriptor {
				return &registry.Descriptor{
					ServiceType:           greeterType,
					Lifetime:              registry.Transient,
					ImplementationFactory: func(registry.Provider) (any, error) { return englishGreeter{}, nil },
				}
			},
		},
		{
			name: "implementation type with constructor",
			descriptor: func(t *testing.T) *registry.Descriptor {
				return &registry.Descriptor{
					ServiceType:        greeterType,
					Lifetime:           registry.Scoped,
					ImplementationType: implType,
					Constructors:       []*registry.Constructor{mustConstructor(t, newEnglishGreeter)},
				}
			},
		},
		{
			name: "shared registration with another lifetime",
			descriptor: func(t *testing.T) *registry.Descriptor {
				owner := &registry.Descriptor{
					ServiceType:        implType,
					Lifetime:           registry.Singleton,
					ImplementationType: implType,
					Constructors:       []*registry.Constructor{mustConstructor(t, newEnglishGreeter)},
				}
				return &registry.Descriptor{
					ServiceType:        greeterType,
					Lifetime:           registry.Scoped,
					ImplementationType: implType,
					Constructors:       owner.Constructors,
					Shares:             owner,
				}
			},
			contains: "same lifetime",
		},
		{
			name: "implementation type without constructor",
			descriptor: func(*testing.T) *registry.Descriptor {
				return &registry.Descriptor{ServiceType: greeterType, ImplementationType: implType}
			},
		},
		{
			name: "open generic",
			descriptor: func(t *testing.T) *registry.Descriptor {
				return &registry.Descriptor{
					ServiceDefinition:        repoDef,
					ImplementationDefinition: memDef,
					Constructors: []*registry.Constructor{
						mustConstructor(t, newMemoryRepository[User]),
						mustConstructor(t, newMemoryRepository[Order]),
					},
				}
			},
		},
		{
			name: "no service type",
			descriptor: func(*testing.T) *registry.Descriptor {
				return &registry.Descriptor{ImplementationInstance: 1}
			},
			contains: "service type cannot be nil",
		},
		{
			name: "invalid lifetime",
			descriptor: func(*testing.T) *registry.Descriptor {
				return &registry.Descriptor{ServiceType: greeterType, Lifetime: 5, ImplementationType: implType}
			},
			contains: "invalid service lifetime",
		},
		{
			name: "no strategy",
			descriptor: func(*testing.T) *registry.Descriptor {
				return &registry.Descriptor{ServiceType: greeterType}
			},
			contains: "no implementation",
		},
		{
			name: "two strategies",
			descriptor: func(*testing.T) *registry.Descriptor {
				return &registry.Descriptor{ServiceType: greeterType, ImplementationInstance: englishGreeter{}, ImplementationType: implType}
			},
			contains: "more than one",
		},
		{
			name: "instance not assignable",
			descriptor: func(*testing.T) *registry.Descriptor {
				return &registry.Descriptor{ServiceType: greeterType, ImplementationInstance: 42}
			},
			contains: "not assignable",
		},
		{
			name: "interface implementation without constructor",
			descriptor: func(*testing.T) *registry.Descriptor {
				return &registry.Descriptor{ServiceType: greeterType, ImplementationType: greeterType}
			},
			contains: "cannot activate interface",
		},
		{
			name: "implementation not assignable",
			descriptor: func(*testing.T) *registry.Descriptor {
				return &registry.Descriptor{ServiceType: greeterType, ImplementationType: typeOf[*Client]()}
			},
			contains: "not assignable",
		},
		{
			name: "constructor returns another type",
			descriptor: func(t *testing.T) *registry.Descriptor {
				return &registry.Descriptor{
					ServiceType:        greeterType,
					ImplementationType: implType,
					Constructors:       []*registry.Constructor{mustConstructor(t, func() Greeter { return englishGreeter{} })},
				}
			},
			contains: "does not return",
		},
		{
			name: "open service with closed implementation",
			descriptor: func(*testing.T) *registry.Descriptor {
				return &registry.Descriptor{ServiceDefinition: repoDef, ImplementationType: implType}
			},
			contains: "requires an open generic implementation",
		},
		{
			name: "closed service with open implementation",
			descriptor: func(*testing.T) *registry.Descriptor {
				return &registry.Descriptor{ServiceType: greeterType, ImplementationDefinition: memDef}
			},
			contains: "requires an open generic service",
		},
		{
			name: "open interface implementation",
			descriptor: func(*testing.T) *registry.Descriptor {
				return &registry.Descriptor{ServiceDefinition: repoDef, ImplementationDefinition: repoDef}
			},
			contains: "cannot activate interface",
		},
		{
			name: "open constructor from another family",
			descriptor: func(t *testing.T) *registry.Descriptor {
				return &registry.Descriptor{
					ServiceDefinition:        repoDef,
					ImplementationDefinition: memDef,
					Constructors:             []*registry.Constructor{mustConstructor(t, newEnglishGreeter)},
				}
			},
			contains: "does not return an instantiation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.descriptor(t).Validate()
			if tt.contains == "" {
				assert.NoError(t, err)
				return
			}

			var regErr registry.InvalidRegistrationError
			require.ErrorAs(t, err, &regErr)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestDescriptor_String(t *testing.T) {
	d := &registry.Descriptor{
		ServiceType:        typeOf[Greeter](),
		Lifetime:           registry.Scoped,
		ImplementationType: typeOf[*englishGreeter](),
	}
	assert.Equal(t, "registry_test.Greeter -> *registry_test.englishGreeter (Scoped)", d.String())

	open := &registry.Descriptor{
		ServiceDefinition:        mustDefinition(t, typeOf[Repository[User]]()),
		ImplementationDefinition: mustDefinition(t, typeOf[*memoryRepository[User]]()),
		Lifetime:                 registry.Singleton,
	}
	assert.True(t, open.IsOpenGeneric())
	assert.Equal(t, "registry_test.Repository[...] -> *registry_test.memoryRepository[...] (Singleton)", open.String())
}
