package reconciler

import (
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/element"
)

// deriveInProgress returns the in-progress counterpart of current, reusing
// the node from the generation before last when there is one.
// current itself is only touched to record a freshly allocated counterpart.
func (p *pass) deriveInProgress(current NodeID, pendingProps element.Props) NodeID {
	cur := p.arena.get(current)

	wipID := cur.alternate
	if wipID == none {
		wipID = p.alloc(cur.kind, pendingProps, cur.key)
		wip := p.arena.get(wipID)
		wip.alternate = current
		cur.alternate = wipID
	} else {
		wip := p.arena.get(wipID)
		wip.pendingProps = pendingProps
		// drop effects left over from the pass before last
		wip.flags = domain.NoFlags
		wip.subtreeFlags = domain.NoFlags
		wip.deletions = nil
		wip.attrPatch = domain.AttrPatch{}
	}

	wip := p.arena.get(wipID)
	wip.typ = cur.typ
	wip.host = cur.host
	wip.updateQueue = cur.updateQueue
	wip.child = cur.child
	wip.memoizedProps = cur.memoizedProps
	wip.memoizedState = cur.memoizedState
	return wipID
}

// useFiber derives the counterpart of a previous child for reuse at a new position.
func (p *pass) useFiber(current NodeID, pendingProps element.Props) NodeID {
	clone := p.deriveInProgress(current, pendingProps)
	n := p.arena.get(clone)
	n.index = 0
	n.sibling = none
	return clone
}
