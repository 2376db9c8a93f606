package graph

import "sort"

// Edge is the single outgoing link of a node.
// A static edge has To set. A conditional edge has Router set and an optional Mapping.
type Edge struct {
	From    string
	To      string
	Router  RouterFunc
	Mapping map[string]string
}

// Conditional reports whether the edge is resolved by a router at run time.
func (e Edge) Conditional() bool {
	return e.Router != nil
}

// Targets returns the possible successors known statically, sorted.
// A conditional edge without a mapping has no known targets.
func (e Edge) Targets() []string {
	if !e.Conditional() {
		return []string{e.To}
	}
	seen := make(map[string]bool, len(e.Mapping))
	var out []string
	for _, target := range e.Mapping {
		if !seen[target] {
			seen[target] = true
			out = append(out, target)
		}
	}
	sort.Strings(out)
	return out
}

// Labels returns the mapping labels in sorted order.
func (e Edge) Labels() []string {
	out := make([]string, 0, len(e.Mapping))
	for label := range e.Mapping {
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

func (e Edge) clone() Edge {
	if e.Mapping != nil {
		m := make(map[string]string, len(e.Mapping))
		for k, v := range e.Mapping {
			m[k] = v
		}
		e.Mapping = m
	}
	return e
}
