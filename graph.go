package inject

import (
	"io"

	"github.com/junioryono/inject/internal/graph"
)

// WriteDOT writes the dependency graph of every service resolved so far
// from sp's provider in Graphviz DOT format.
//
// Example:
//
//	f, _ := os.Create("services.dot")
//	defer f.Close()
//	inject.WriteDOT(f, provider)
func WriteDOT(w io.Writer, sp ServiceProvider) error {
	g, err := dependencyGraph(sp)
	if err != nil {
		return err
	}
	return graph.NewVisualizer(g).WriteDOT(w)
}

// WriteText writes a human readable view of the dependency graph of every
// service resolved so far, ordered from leaves to roots.
func WriteText(w io.Writer, sp ServiceProvider) error {
	g, err := dependencyGraph(sp)
	if err != nil {
		return err
	}
	return graph.NewVisualizer(g).WriteText(w)
}

func dependencyGraph(sp ServiceProvider) (*graph.DependencyGraph, error) {
	var p *provider
	switch v := sp.(type) {
	case *provider:
		p = v
	case *scope:
		p = v.provider
	case *resolvingProvider:
		p = v.scope.provider
	default:
		return nil, ErrProviderNil
	}

	realized := p.engine.Realized()
	delete(realized, serviceProviderType)
	delete(realized, contextType)

	return graph.Build(realized), nil
}
