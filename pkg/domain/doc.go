/*
Package domain contains the core models of the weave engine.

It is kept free of I/O and persistence so every other package can depend on it.

# Key Entities

  - State: the opaque record threaded through a run.
  - Checkpoint: the snapshot of a run persisted after each completed step.
  - LifecycleHooks: callbacks for runs, nodes, routes and checkpoints.
  - Errors: the typed build-time, routing, run-time and store failures.
*/
package domain
