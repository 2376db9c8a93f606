package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/weave/pkg/graph"
)

// Overlay contains run data to highlight on the diagram.
type Overlay struct {
	Visited []string
	Current string
}

const (
	startID = "__start__"
	endID   = graph.End
)

// GenerateMermaid produces a Mermaid flowchart for g.
// Shapes:
// - Start and end: ((Circle))
// - Subgraph node: [[Subroutine]], its graph drawn in a subgraph block
// - Node leaving through an unmapped router: {Rhombus}
// - Default: [Rectangle]
// Nodes without an outgoing edge get a dotted link to end.
func GenerateMermaid(g *graph.Graph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	fmt.Fprintf(&sb, "    %s((\"start\"))\n", startID)
	fmt.Fprintf(&sb, "    %s((\"end\"))\n", sanitizeMermaidID(endID))
	fmt.Fprintf(&sb, "    %s --> %s\n", startID, sanitizeMermaidID(g.EntryPoint()))

	writeGraph(&sb, g, "", "    ")

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, name := range overlay.Visited {
			id := sanitizeMermaidID(name)
			if id != "" && !seen[id] {
				seen[id] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", id)
			}
		}
		if overlay.Current != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.Current))
		}
	}
	return sb.String()
}

// writeGraph draws the nodes and edges of g. Nested graphs prefix their ids
// with the embedding node so names may repeat across levels.
func writeGraph(sb *strings.Builder, g *graph.Graph, prefix, indent string) {
	id := func(name string) string {
		if name == graph.End && prefix == "" {
			return sanitizeMermaidID(endID)
		}
		return sanitizeMermaidID(prefix + name)
	}

	subgraphs := g.Subgraphs()
	for _, name := range g.Nodes() {
		opener, closer := "[", "]"
		switch {
		case subgraphs[name] != nil:
			opener, closer = "[[", "]]"
		case g.IsConditional(name) && len(g.Successors(name)) == 0:
			opener, closer = "{", "}"
		}
		fmt.Fprintf(sb, "%s%s%s\"%s\"%s\n", indent, id(name), opener, name, closer)
	}

	// Nested ends are local to their block.
	if prefix != "" {
		fmt.Fprintf(sb, "%s%s((\"end\"))\n", indent, id(graph.End))
	}

	for _, name := range g.Nodes() {
		edge, ok := g.Edge(name)
		switch {
		case !ok:
			fmt.Fprintf(sb, "%s%s -.-> %s\n", indent, id(name), id(graph.End))
		case !edge.Conditional():
			fmt.Fprintf(sb, "%s%s --> %s\n", indent, id(name), id(edge.To))
		default:
			for _, label := range edge.Labels() {
				safeLabel := strings.ReplaceAll(label, "\"", "'")
				fmt.Fprintf(sb, "%s%s -- \"%s\" --> %s\n", indent, id(name), safeLabel, id(edge.Mapping[label]))
			}
		}
	}

	names := make([]string, 0, len(subgraphs))
	for name := range subgraphs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sub := subgraphs[name]
		subPrefix := prefix + name + "/"
		fmt.Fprintf(sb, "%ssubgraph %s_block[\"%s: %s\"]\n", indent, id(name), name, sub.Name())
		writeGraph(sb, sub, subPrefix, indent+"    ")
		fmt.Fprintf(sb, "%send\n", indent)
		fmt.Fprintf(sb, "%s%s -.-> %s\n", indent, id(name), sanitizeMermaidID(subPrefix+sub.EntryPoint()))
	}
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")
	return r.Replace(id)
}
