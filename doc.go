/*
Package arbor is a minimal UI-tree reconciliation engine.

Given a new description of what a user interface should look like (a tree
of element descriptors), arbor computes the smallest set of mutations that
turns the currently rendered host tree into the new one, and applies them
through a small host interface.

# Concept

Every render runs in three phases over a double-buffered work tree:

  - Begin walks top-down, compares each node's new children with the
    previous ones (by key, else by position) and reuses, creates or
    schedules deletion of work nodes.
  - Complete walks bottom-up, creates host nodes for new elements, diffs
    attributes and text of reused ones, and bubbles effect flags up.
  - Commit applies the flagged insertions, moves, updates and removals to
    the host, skipping clean subtrees, then swaps the two generations.

The host (a DOM, a terminal, a document model...) is anything implementing
ports.Host. The memory adapter in pkg/adapters/memory is a complete
in-memory host with an HTML serializer.

# Usage

	host := memory.NewHost()
	container := host.NewContainer()
	root := arbor.CreateRoot(host, container)

	_, err := root.Render(ctx, element.H("ul", nil,
		element.H("li", map[string]any{"key": "a"}, "first"),
		element.H("li", map[string]any{"key": "b"}, "second"),
	))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(host.HTML(container))

Rendering is synchronous and a Root must not be used from several
goroutines at once. The session package wraps roots for multi-tenant
servers.
*/
package arbor
