package graph

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/junioryono/inject/internal/callsite"
	"github.com/junioryono/inject/internal/reflection"
)

// DependencyGraph is the dependency structure of a set of realized call
// sites. Nodes are service types; an edge points from a dependency to the
// service that consumes it.
type DependencyGraph struct {
	nodes map[reflect.Type]*Node
	edges map[reflect.Type][]reflect.Type // dependency -> dependents
}

// Node represents a service in the dependency graph
type Node struct {
	Type               reflect.Type
	ImplementationType reflect.Type
	Kind               callsite.Kind // construction strategy, lifetime stripped
	Lifetime           string        // "Singleton", "Scoped", "Transient" or "" when not cached

	InDegree  int // number of dependencies
	OutDegree int // number of dependents
	Depth     int // longest dependency chain below this node

	Dependencies []reflect.Type
	Dependents   []reflect.Type
}

// Build creates the graph of sites and everything they reach.
func Build(sites map[reflect.Type]callsite.CallSite) *DependencyGraph {
	g := &DependencyGraph{
		nodes: make(map[reflect.Type]*Node),
		edges: make(map[reflect.Type][]reflect.Type),
	}

	for _, t := range sortedTypes(sites) {
		g.add(t, sites[t])
	}

	g.calculateDepths()
	return g
}

func (g *DependencyGraph) add(serviceType reflect.Type, cs callsite.CallSite) *Node {
	if node, ok := g.nodes[serviceType]; ok {
		return node
	}

	node := &Node{
		Type:               serviceType,
		ImplementationType: cs.ImplementationType(),
		Kind:               callsite.Unwrap(cs).Kind(),
		Lifetime:           lifetimeOf(cs),
	}
	g.nodes[serviceType] = node

	for _, dep := range callsite.Dependencies(cs) {
		depType := dep.ServiceType()
		g.add(depType, dep)

		if containsType(node.Dependencies, depType) {
			continue
		}

		node.Dependencies = append(node.Dependencies, depType)
		node.InDegree++

		depNode := g.nodes[depType]
		depNode.Dependents = append(depNode.Dependents, serviceType)
		depNode.OutDegree++

		g.edges[depType] = append(g.edges[depType], serviceType)
	}

	return node
}

func lifetimeOf(cs callsite.CallSite) string {
	switch cs.Kind() {
	case callsite.KindSingleton, callsite.KindScoped, callsite.KindTransient:
		return cs.Kind().String()
	default:
		return ""
	}
}

// TopologicalSort returns nodes in dependency order (dependencies first)
func (g *DependencyGraph) TopologicalSort() ([]*Node, error) {
	result := make([]*Node, 0, len(g.nodes))

	inDegrees := make(map[reflect.Type]int, len(g.nodes))
	for t, node := range g.nodes {
		inDegrees[t] = node.InDegree
	}

	queue := make([]reflect.Type, 0)
	for _, t := range g.sortedNodeTypes() {
		if inDegrees[t] == 0 {
			queue = append(queue, t)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		result = append(result, g.nodes[current])

		for _, dependent := range g.edges[current] {
			inDegrees[dependent]--
			if inDegrees[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(result) != len(g.nodes) {
		return nil, fmt.Errorf("graph contains %d nodes but only %d could be sorted", len(g.nodes), len(result))
	}

	return result, nil
}

// GetNode returns the node for serviceType, or nil.
func (g *DependencyGraph) GetNode(serviceType reflect.Type) *Node {
	return g.nodes[serviceType]
}

// Size returns the number of nodes.
func (g *DependencyGraph) Size() int {
	return len(g.nodes)
}

// GetRoots returns all nodes with no dependencies (in-degree = 0)
func (g *DependencyGraph) GetRoots() []*Node {
	roots := make([]*Node, 0)
	for _, t := range g.sortedNodeTypes() {
		if node := g.nodes[t]; node.InDegree == 0 {
			roots = append(roots, node)
		}
	}
	return roots
}

// GetLeaves returns all nodes with no dependents (out-degree = 0)
func (g *DependencyGraph) GetLeaves() []*Node {
	leaves := make([]*Node, 0)
	for _, t := range g.sortedNodeTypes() {
		if node := g.nodes[t]; node.OutDegree == 0 {
			leaves = append(leaves, node)
		}
	}
	return leaves
}

// GetTransitiveDependencies returns every type serviceType depends on.
func (g *DependencyGraph) GetTransitiveDependencies(serviceType reflect.Type) []reflect.Type {
	visited := make(map[reflect.Type]bool)
	var result []reflect.Type

	var visit func(t reflect.Type)
	visit = func(t reflect.Type) {
		node := g.nodes[t]
		if node == nil {
			return
		}
		for _, dep := range node.Dependencies {
			if !visited[dep] {
				visited[dep] = true
				result = append(result, dep)
				visit(dep)
			}
		}
	}

	visit(serviceType)
	return result
}

// calculateDepths assigns depth levels to nodes based on their dependencies
func (g *DependencyGraph) calculateDepths() {
	sorted, err := g.TopologicalSort()
	if err != nil {
		return
	}

	for _, node := range sorted {
		node.Depth = 0
		for _, dep := range node.Dependencies {
			if d := g.nodes[dep].Depth + 1; d > node.Depth {
				node.Depth = d
			}
		}
	}
}

func (g *DependencyGraph) sortedNodeTypes() []reflect.Type {
	types := make([]reflect.Type, 0, len(g.nodes))
	for t := range g.nodes {
		types = append(types, t)
	}
	sortTypes(types)
	return types
}

// String returns a string representation of the node
func (n *Node) String() string {
	return fmt.Sprintf("Node{%s, in:%d, out:%d, depth:%d}",
		reflection.FormatType(n.Type), n.InDegree, n.OutDegree, n.Depth)
}

func sortedTypes(sites map[reflect.Type]callsite.CallSite) []reflect.Type {
	types := make([]reflect.Type, 0, len(sites))
	for t := range sites {
		types = append(types, t)
	}
	sortTypes(types)
	return types
}

func sortTypes(types []reflect.Type) {
	sort.Slice(types, func(i, j int) bool {
		return types[i].String() < types[j].String()
	})
}

func containsType(types []reflect.Type, t reflect.Type) bool {
	for _, existing := range types {
		if existing == t {
			return true
		}
	}
	return false
}
