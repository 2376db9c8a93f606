/*
Package weave is a declarative pipeline-orchestration engine.

Callers describe a directed graph of named nodes over a shared state, connect
them with static or conditional edges, compile the graph once and execute it
many times against different initial states.

# Concept

A node is a function from state to state. Edges decide which node runs next:
a static edge always goes to the same node, a conditional edge asks a router
function that reads the state. A node without an outgoing edge ends the run.
A compiled graph can itself be registered as a node of another graph.

The engine runs one node at a time, in the order the edges dictate. It never
retries a failed node: the node's error is returned unchanged and the run
stops. With a checkpoint store configured, a snapshot is saved after every
completed step, so a failed or interrupted run can be resumed.

# Usage

	b := graph.NewBuilder("review")
	_ = b.AddNode("compliance", checkCompliance)
	_ = b.AddConditionalEdge("compliance", func(s domain.State) string {
		if c, ok := s.Float("confidence"); ok && c > 0.8 {
			return "accept"
		}
		return "review"
	}, map[string]string{"accept": graph.End, "review": graph.End})
	_ = b.SetEntryPoint("compliance")

	g, err := b.Compile()
	if err != nil {
		log.Fatal(err)
	}

	eng := weave.New(weave.WithCheckpointStore(memory.NewStore()))
	res, err := eng.Execute(ctx, g, domain.State{"document": "..."})
	fmt.Println(res.Label)

# Streaming

Run returns an iterator over completed steps:

	for step, err := range eng.Run(ctx, g, initial) {
		if err != nil {
			return err
		}
		fmt.Println(step.Node, step.Delta)
	}

Graphs can also be declared in YAML and compiled against a registry of named
node functions; see the loader and registry packages.
*/
package weave
