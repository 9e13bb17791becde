package graph_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junioryono/inject/internal/callsite"
	"github.com/junioryono/inject/internal/graph"
	"github.com/junioryono/inject/internal/reflection"
	"github.com/junioryono/inject/internal/registry"
)

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

type Database struct{}

type Cache struct{}

type Session struct {
	DB    *Database
	Cache *Cache
}

type Handler struct {
	Session *Session
	DB      *Database
}

func newDatabase() *Database                       { return &Database{} }
func newCache() *Cache                             { return &Cache{} }
func newSession(db *Database, c *Cache) *Session   { return &Session{DB: db, Cache: c} }
func newHandler(s *Session, db *Database) *Handler { return &Handler{Session: s, DB: db} }

func buildGraph(t *testing.T) *graph.DependencyGraph {
	t.Helper()
	analyzer := reflection.New()

	describe := func(lifetime registry.Lifetime, fn any) *registry.Descriptor {
		c, err := registry.NewConstructor(analyzer, fn, nil)
		require.NoError(t, err)
		return &registry.Descriptor{
			ServiceType:        c.ImplementationType(),
			ImplementationType: c.ImplementationType(),
			Lifetime:           lifetime,
			Constructors:       []*registry.Constructor{c},
		}
	}

	f, err := callsite.NewFactory([]*registry.Descriptor{
		describe(registry.Singleton, newDatabase),
		{ServiceType: typeOf[*Cache](), Lifetime: registry.Singleton, ImplementationInstance: newCache()},
		describe(registry.Scoped, newSession),
		describe(registry.Transient, newHandler),
	})
	require.NoError(t, err)

	handler, err := f.CreateCallSite(typeOf[*Handler](), callsite.NewChain())
	require.NoError(t, err)

	return graph.Build(map[reflect.Type]callsite.CallSite{typeOf[*Handler](): handler})
}

func TestBuild(t *testing.T) {
	g := buildGraph(t)
	require.Equal(t, 4, g.Size())

	handler := g.GetNode(typeOf[*Handler]())
	require.NotNil(t, handler)
	assert.Equal(t, "Transient", handler.Lifetime)
	assert.Equal(t, callsite.KindConstructor, handler.Kind)
	assert.Equal(t, []reflect.Type{typeOf[*Session](), typeOf[*Database]()}, handler.Dependencies)
	assert.Equal(t, 2, handler.InDegree)
	assert.Equal(t, 0, handler.OutDegree)
	assert.Equal(t, 2, handler.Depth)

	db := g.GetNode(typeOf[*Database]())
	assert.Equal(t, "Singleton", db.Lifetime)
	assert.Equal(t, callsite.KindCreateInstance, db.Kind)
	assert.Equal(t, 2, db.OutDegree)
	assert.ElementsMatch(t, []reflect.Type{typeOf[*Session](), typeOf[*Handler]()}, db.Dependents)

	cache := g.GetNode(typeOf[*Cache]())
	assert.Empty(t, cache.Lifetime)
	assert.Equal(t, callsite.KindConstant, cache.Kind)

	assert.Nil(t, g.GetNode(typeOf[string]()))
	assert.Contains(t, handler.String(), "in:2")
}

func TestTopologicalSort(t *testing.T) {
	g := buildGraph(t)

	sorted, err := g.TopologicalSort()
	require.NoError(t, err)
	require.Len(t, sorted, 4)

	position := make(map[reflect.Type]int)
	for i, node := range sorted {
		position[node.Type] = i
	}

	for _, node := range sorted {
		for _, dep := range node.Dependencies {
			assert.Less(t, position[dep], position[node.Type], "%s before %s", dep, node.Type)
		}
	}
}

func TestRootsAndLeaves(t *testing.T) {
	g := buildGraph(t)

	var roots []reflect.Type
	for _, n := range g.GetRoots() {
		roots = append(roots, n.Type)
	}
	assert.ElementsMatch(t, []reflect.Type{typeOf[*Database](), typeOf[*Cache]()}, roots)

	leaves := g.GetLeaves()
	require.Len(t, leaves, 1)
	assert.Equal(t, typeOf[*Handler](), leaves[0].Type)
}

func TestGetTransitiveDependencies(t *testing.T) {
	g := buildGraph(t)

	assert.ElementsMatch(t,
		[]reflect.Type{typeOf[*Session](), typeOf[*Database](), typeOf[*Cache]()},
		g.GetTransitiveDependencies(typeOf[*Handler]()))
	assert.Empty(t, g.GetTransitiveDependencies(typeOf[*Database]()))
}

func TestVisualizer_WriteDOT(t *testing.T) {
	var b strings.Builder
	require.NoError(t, graph.NewVisualizer(buildGraph(t)).WriteDOT(&b))

	out := b.String()
	assert.True(t, strings.HasPrefix(out, "digraph dependencies {"))
	assert.Contains(t, out, `label="*graph_test.Handler\nTransient\nConstructor"`)
	assert.Contains(t, out, `fillcolor="lightblue"`)
	assert.Contains(t, out, `fillcolor="lightgray"`)
	assert.Equal(t, 4, strings.Count(out, "->"))
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

func TestVisualizer_WriteText(t *testing.T) {
	var b strings.Builder
	require.NoError(t, graph.NewVisualizer(buildGraph(t)).WriteText(&b))

	out := b.String()
	assert.Contains(t, out, "Level 0:")
	assert.Contains(t, out, "Level 2:")
	assert.Contains(t, out, "Dependencies: [*graph_test.Session, *graph_test.Database]")
	assert.Contains(t, out, "Total nodes: 4")
	assert.Contains(t, out, "Total edges: 4")
	assert.Contains(t, out, "Most dependencies: *graph_test.Handler (2)")
}

func TestBuild_Empty(t *testing.T) {
	g := graph.Build(nil)
	assert.Equal(t, 0, g.Size())

	var b strings.Builder
	require.NoError(t, graph.NewVisualizer(g).WriteText(&b))
	assert.Contains(t, b.String(), "Total nodes: 0")
}
