// Package visualize renders resource topologies as DOT and Mermaid graphs.
package visualize

import (
	"io"
	"strings"

	"github.com/emicklei/dot"

	"infra-planner/pkg/api"
)

// Format specifies the output format for the graph.
type Format string

const (
	// FormatDOT outputs Graphviz DOT format.
	FormatDOT Format = "dot"
	// FormatMermaid outputs Mermaid format for markdown rendering.
	FormatMermaid Format = "mermaid"
)

// Generator renders topology graphs.
type Generator struct {
	// Format specifies the output format (dot or mermaid). Defaults to dot.
	Format Format

	// ClusterByRole groups nodes by their deployment role, which makes
	// multi-cloud topologies show the primary and DR regions as separate
	// clusters.
	ClusterByRole bool
}

// Generate renders the topology graph and writes it to w.
func (g *Generator) Generate(topo *api.ResourceTopology, w io.Writer) error {
	graph := g.buildGraph(topo)

	format := g.Format
	if format == "" {
		format = FormatDOT
	}

	var output string
	if format == FormatMermaid {
		output = dot.MermaidGraph(graph, dot.MermaidTopToBottom)
	} else {
		output = graph.String()
	}

	_, err := w.Write([]byte(output))
	return err
}

// GenerateString is a convenience method that returns the graph as a string.
func (g *Generator) GenerateString(topo *api.ResourceTopology) (string, error) {
	var sb strings.Builder
	if err := g.Generate(topo, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (g *Generator) buildGraph(topo *api.ResourceTopology) *dot.Graph {
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "TB")

	graph.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})
	graph.EdgeInitializer(func(e dot.Edge) {
		e.Attr("fontname", "Arial")
		e.Attr("fontsize", "10")
	})

	if g.ClusterByRole {
		g.addClusteredNodes(graph, topo)
	} else {
		g.addNodes(graph, topo)
	}

	// Edges point from a node to what it depends on.
	for _, id := range topo.NodeIDs() {
		for _, dep := range topo.Dependencies(id) {
			if _, ok := topo.Nodes[dep]; !ok {
				continue
			}
			from := graph.Node(id)
			to := graph.Node(dep)
			e := graph.Edge(from, to)
			if topo.Nodes[id].Provider != topo.Nodes[dep].Provider {
				e.Attr("style", "dashed")
			}
		}
	}

	return graph
}

func (g *Generator) addNodes(graph *dot.Graph, topo *api.ResourceTopology) {
	for _, id := range topo.NodeIDs() {
		n := graph.Node(id)
		n.Label(nodeLabel(topo.Nodes[id]))
	}
}

func (g *Generator) addClusteredNodes(graph *dot.Graph, topo *api.ResourceTopology) {
	roleNodes := make(map[api.NodeRole][]string)
	for _, id := range topo.NodeIDs() {
		role := topo.Nodes[id].Role
		roleNodes[role] = append(roleNodes[role], id)
	}

	for _, role := range []api.NodeRole{api.RolePrimary, api.RoleDisasterRecovery, api.RoleShared} {
		ids := roleNodes[role]
		if len(ids) == 0 {
			continue
		}
		if len(roleNodes) > 1 && role != "" {
			cluster := graph.Subgraph(string(role), dot.ClusterOption{})
			cluster.Attr("style", "rounded")
			for _, id := range ids {
				n := cluster.Node(id)
				n.Label(nodeLabel(topo.Nodes[id]))
			}
		} else {
			for _, id := range ids {
				n := graph.Node(id)
				n.Label(nodeLabel(topo.Nodes[id]))
			}
		}
	}

	// Nodes with no role assigned.
	for _, id := range roleNodes[""] {
		n := graph.Node(id)
		n.Label(nodeLabel(topo.Nodes[id]))
	}
}

func nodeLabel(node api.ResourceNode) string {
	return node.ID + "\\n[" + string(node.Provider) + " " + node.SizingTier.String() + "]"
}
