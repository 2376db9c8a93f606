/*
Package dsl provides a fluent builder for weave graphs.

It is a thin layer over the graph package: nodes can be declared in any order
and edges may point to nodes added later. Errors surface once, from Build.

Example usage:

	b := dsl.New("review")

	b.Add("ingest").Do(ingest).Go("compliance")

	b.Add("compliance").
		Do(checkCompliance).
		Requires(schema.Schema{"text": schema.String()}).
		Route(byConfidence).
		Branch("accept", graph.End).
		Branch("review", "human")

	b.Add("human").Do(askHuman).Terminal()

	g, err := b.Build()
*/
package dsl
