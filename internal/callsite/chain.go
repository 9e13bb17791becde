package callsite

import (
	"reflect"
	"sort"
)

// Chain tracks the service types currently being built so that a cycle is
// reported instead of recursing forever. A chain belongs to one top-level
// CreateCallSite call.
type Chain struct {
	links map[reflect.Type]chainLink
	next  int
}

type chainLink struct {
	order              int
	implementationType reflect.Type
}

// Link is one step of a resolution path.
type Link struct {
	ServiceType        reflect.Type
	ImplementationType reflect.Type
}

// NewChain creates an empty chain.
func NewChain() *Chain {
	return &Chain{links: make(map[reflect.Type]chainLink)}
}

// CheckCircularDependency fails when serviceType is already being built.
func (c *Chain) CheckCircularDependency(serviceType reflect.Type) error {
	if _, ok := c.links[serviceType]; ok {
		return CircularDependencyError{Service: serviceType, Path: c.Path()}
	}
	return nil
}

// Add records serviceType as in progress. It reports false when the type
// was already present, in which case the caller must not remove it.
func (c *Chain) Add(serviceType, implementationType reflect.Type) bool {
	if _, ok := c.links[serviceType]; ok {
		return false
	}
	c.links[serviceType] = chainLink{order: c.next, implementationType: implementationType}
	c.next++
	return true
}

// Remove drops serviceType from the chain.
func (c *Chain) Remove(serviceType reflect.Type) {
	delete(c.links, serviceType)
}

// Len returns the current depth of the chain.
func (c *Chain) Len() int {
	return len(c.links)
}

// Path returns the in-progress types in the order they were entered.
func (c *Chain) Path() []Link {
	path := make([]Link, 0, len(c.links))
	orders := make([]int, 0, len(c.links))
	for t, link := range c.links {
		path = append(path, Link{ServiceType: t, ImplementationType: link.implementationType})
		orders = append(orders, link.order)
	}

	sort.Sort(byOrder{path, orders})
	return path
}

type byOrder struct {
	path   []Link
	orders []int
}

func (b byOrder) Len() int           { return len(b.path) }
func (b byOrder) Less(i, j int) bool { return b.orders[i] < b.orders[j] }
func (b byOrder) Swap(i, j int) {
	b.path[i], b.path[j] = b.path[j], b.path[i]
	b.orders[i], b.orders[j] = b.orders[j], b.orders[i]
}
