/*
Package ports defines the driven ports of the weave engine.

These interfaces decouple the execution engine from storage and coordination
backends, so a durable store can replace the in-memory one without engine changes.

# Key Interfaces

  - CheckpointStore: saves and loads run checkpoints keyed by run id.
  - Lister: optional enumeration of stored run ids, used by tooling.
  - DistributedLocker: distributed locking for runs shared across replicas.

RunCheckpointStoreContract is the shared test suite every store adapter runs.
*/
package ports
