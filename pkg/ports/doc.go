/*
Package ports defines the driven ports (interfaces) of the reconciler.

These interfaces decouple the engine from concrete environments, allowing
the same diff and commit logic to drive a DOM, an in-memory tree, or any
retained-mode structure.

# Key Interfaces

  - Host: the six host primitives the commit phase depends on.
  - AttributeUpdater: optional in-place attribute patching.
  - SnapshotStore: persistence of committed renders per session.
*/
package ports
