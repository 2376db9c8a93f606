// Package graph builds and compiles pipeline graphs.
//
// A Builder accumulates nodes, edges and an entry point. Compile validates the
// builder and freezes it into an immutable Graph that can be shared by any
// number of concurrent runs.
//
//	b := graph.NewBuilder("review")
//	_ = b.AddNode("ingest", ingest)
//	_ = b.AddNode("compliance", compliance)
//	_ = b.AddEdge("ingest", "compliance")
//	_ = b.AddConditionalEdge("compliance", byConfidence, map[string]string{
//	    "accept": graph.End,
//	    "review": graph.End,
//	})
//	_ = b.SetEntryPoint("ingest")
//	g, err := b.Compile()
//
// A node with no outgoing edge ends the run. Use End as an explicit edge
// target to make a terminal visible in the definition.
package graph
