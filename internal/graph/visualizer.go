package graph

import (
	"fmt"
	"io"
	"strings"

	"github.com/junioryono/inject/internal/reflection"
)

// Visualizer provides methods to visualize the dependency graph
type Visualizer struct {
	graph *DependencyGraph
}

// NewVisualizer creates a new graph visualizer
func NewVisualizer(graph *DependencyGraph) *Visualizer {
	return &Visualizer{graph: graph}
}

// WriteDOT writes the graph in Graphviz DOT format
func (v *Visualizer) WriteDOT(w io.Writer) error {
	var b strings.Builder

	b.WriteString("digraph dependencies {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box];\n")

	types := v.graph.sortedNodeTypes()
	nodeIDs := make(map[string]string, len(types))

	for i, t := range types {
		node := v.graph.nodes[t]
		nodeID := fmt.Sprintf("n%d", i)
		nodeIDs[t.String()] = nodeID

		fmt.Fprintf(&b, "  %s [label=\"%s\", fillcolor=\"%s\", style=filled];\n",
			nodeID, v.formatNodeLabel(node), v.getNodeColor(node))
	}

	for _, t := range types {
		for _, dep := range v.graph.nodes[t].Dependencies {
			fmt.Fprintf(&b, "  %s -> %s;\n", nodeIDs[t.String()], nodeIDs[dep.String()])
		}
	}

	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteText writes a text representation of the graph
func (v *Visualizer) WriteText(w io.Writer) error {
	var b strings.Builder

	b.WriteString("Dependency Graph:\n")
	b.WriteString("=================\n\n")

	sorted, err := v.graph.TopologicalSort()
	if err != nil {
		return err
	}

	depthGroups := make(map[int][]*Node)
	maxDepth := 0
	for _, node := range sorted {
		depthGroups[node.Depth] = append(depthGroups[node.Depth], node)
		if node.Depth > maxDepth {
			maxDepth = node.Depth
		}
	}

	for depth := 0; depth <= maxDepth && len(sorted) > 0; depth++ {
		nodes, exists := depthGroups[depth]
		if !exists {
			continue
		}

		fmt.Fprintf(&b, "Level %d:\n", depth)
		b.WriteString("--------\n")
		for _, node := range nodes {
			v.writeNodeDetails(&b, node, "  ")
		}
		b.WriteString("\n")
	}

	v.writeStatistics(&b)

	_, err = io.WriteString(w, b.String())
	return err
}

// formatNodeLabel creates a label for a node
func (v *Visualizer) formatNodeLabel(node *Node) string {
	label := reflection.FormatType(node.Type)
	if node.Lifetime != "" {
		label += "\\n" + node.Lifetime
	}
	return fmt.Sprintf("%s\\n%s", label, node.Kind)
}

// getNodeColor determines the color for a node based on its lifetime
func (v *Visualizer) getNodeColor(node *Node) string {
	switch node.Lifetime {
	case "Singleton":
		return "lightblue"
	case "Scoped":
		return "lightgreen"
	case "Transient":
		return "lightyellow"
	default:
		return "lightgray"
	}
}

// writeNodeDetails writes detailed information about a node
func (v *Visualizer) writeNodeDetails(b *strings.Builder, node *Node, indent string) {
	fmt.Fprintf(b, "%s%s\n", indent, reflection.FormatType(node.Type))

	if node.Lifetime != "" {
		fmt.Fprintf(b, "%s  Lifetime: %s\n", indent, node.Lifetime)
	}
	fmt.Fprintf(b, "%s  Strategy: %s\n", indent, node.Kind)

	if node.ImplementationType != nil && node.ImplementationType != node.Type {
		fmt.Fprintf(b, "%s  Implementation: %s\n", indent, reflection.FormatType(node.ImplementationType))
	}

	if len(node.Dependencies) > 0 {
		deps := make([]string, len(node.Dependencies))
		for i, dep := range node.Dependencies {
			deps[i] = reflection.FormatType(dep)
		}
		fmt.Fprintf(b, "%s  Dependencies: [%s]\n", indent, strings.Join(deps, ", "))
	}
}

// writeStatistics writes graph statistics
func (v *Visualizer) writeStatistics(b *strings.Builder) {
	b.WriteString("Statistics:\n")
	b.WriteString("-----------\n")
	fmt.Fprintf(b, "  Total nodes: %d\n", len(v.graph.nodes))
	fmt.Fprintf(b, "  Total edges: %d\n", v.countEdges())
	fmt.Fprintf(b, "  Root nodes (no dependencies): %d\n", len(v.graph.GetRoots()))
	fmt.Fprintf(b, "  Leaf nodes (no dependents): %d\n", len(v.graph.GetLeaves()))

	var maxDepsNode *Node
	for _, t := range v.graph.sortedNodeTypes() {
		node := v.graph.nodes[t]
		if node.InDegree > 0 && (maxDepsNode == nil || node.InDegree > maxDepsNode.InDegree) {
			maxDepsNode = node
		}
	}

	if maxDepsNode != nil {
		fmt.Fprintf(b, "  Most dependencies: %s (%d)\n",
			reflection.FormatType(maxDepsNode.Type), maxDepsNode.InDegree)
	}
}

// countEdges counts the total number of edges in the graph
func (v *Visualizer) countEdges() int {
	count := 0
	for _, edges := range v.graph.edges {
		count += len(edges)
	}
	return count
}
