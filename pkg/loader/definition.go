package loader

// Definition is the declarative form of a graph, as read from YAML or JSON.
type Definition struct {
	Name        string `json:"name" mapstructure:"name"`
	Description string `json:"description,omitempty" mapstructure:"description"`
	Entry       string `json:"entry" mapstructure:"entry"`

	Nodes  []NodeDef  `json:"nodes" mapstructure:"nodes"`
	Edges  []EdgeDef  `json:"edges,omitempty" mapstructure:"edges"`
	Routes []RouteDef `json:"routes,omitempty" mapstructure:"routes"`

	// Subgraphs are named definitions that nodes of this graph (or of nested
	// subgraphs) can embed with `subgraph: <name>`.
	Subgraphs map[string]*Definition `json:"subgraphs,omitempty" mapstructure:"subgraphs"`
}

// NodeDef declares one node. Exactly one of Use or Subgraph must be set.
type NodeDef struct {
	Name        string `json:"name" mapstructure:"name"`
	Use         string `json:"use,omitempty" mapstructure:"use"`
	Subgraph    string `json:"subgraph,omitempty" mapstructure:"subgraph"`
	Description string `json:"description,omitempty" mapstructure:"description"`

	// To is shorthand for a static edge from this node.
	To string `json:"to,omitempty" mapstructure:"to"`

	// Requires maps state fields to type names, e.g. {document: string}.
	Requires map[string]string `json:"requires,omitempty" mapstructure:"requires"`
}

// EdgeDef declares a static edge. To may be "__end__".
type EdgeDef struct {
	From string `json:"from" mapstructure:"from"`
	To   string `json:"to" mapstructure:"to"`
}

// RouteDef declares a conditional edge resolved by a registered router.
type RouteDef struct {
	From    string            `json:"from" mapstructure:"from"`
	Router  string            `json:"router" mapstructure:"router"`
	Mapping map[string]string `json:"mapping,omitempty" mapstructure:"mapping"`
}
