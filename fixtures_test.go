package inject_test

import (
	"context"
	"fmt"
)

type CycleA struct{ B *CycleB }

type CycleB struct{ A *CycleA }

func newCycleA(b *CycleB) *CycleA { return &CycleA{B: b} }
func newCycleB(a *CycleA) *CycleB { return &CycleB{A: a} }

type Pair struct {
	N int
	S string
}

func newPairN(n int) *Pair            { return &Pair{N: n} }
func newPairNS(n int, s string) *Pair { return &Pair{N: n, S: s} }

type Foo interface{ Foo() }

type Bar interface{ Bar() }

type foo struct{}

func (foo) Foo() {}

type bar struct{}

func (bar) Bar() {}

type Client struct {
	Foo Foo
	Bar Bar
}

func newClientFoo(f Foo) *Client { return &Client{Foo: f} }
func newClientBar(b Bar) *Client { return &Client{Bar: b} }

type Handler interface {
	Name() string
}

type namedHandler string

func (h namedHandler) Name() string { return string(h) }

func handlerNamed(name string) func() Handler {
	return func() Handler { return namedHandler(name) }
}

type RequestContext struct {
	Ctx context.Context
}

func newRequestContext(ctx context.Context) *RequestContext {
	return &RequestContext{Ctx: ctx}
}

type Repository[T any] interface {
	Find(id int) (T, error)
}

type memoryRepository[T any] struct {
	items map[int]T
}

func (r *memoryRepository[T]) Find(id int) (T, error) {
	item, ok := r.items[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("item %d not found", id)
	}
	return item, nil
}

type User struct{ Name string }

type Order struct{ Total int }

func newUserRepository() *memoryRepository[User] {
	return &memoryRepository[User]{items: map[int]User{1: {Name: "ada"}}}
}

func newOrderRepository() *memoryRepository[Order] {
	return &memoryRepository[Order]{items: map[int]Order{1: {Total: 42}}}
}
