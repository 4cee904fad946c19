/*
Package domain contains the core vocabulary shared by the reconciler and its adapters.

It is kept pure and free of I/O: host environments and persistence live
behind the interfaces in package ports.

# Key Entities

  - Flags: the mutation set (Placement, Update, ChildDeletion) accumulated on work nodes.
  - Kind: the structural role of a work node (root, host element, host text, component).
  - AttrPatch: the attribute delta applied to an existing host element.
  - LifecycleHooks: callbacks fired around render passes and host mutations.
  - Snapshot: the persisted result of a session's last commit.
*/
package domain
