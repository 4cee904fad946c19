package reconciler

import (
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/element"
	"github.com/aretw0/arbor/pkg/ports"
)

// NodeID is a handle into the arena. The zero value is "no node".
type NodeID uint32

const none NodeID = 0

// updateQueue is the single pending-update slot of a root.
// Both root generations share the same queue.
type updateQueue struct {
	pending *pendingUpdate
}

type pendingUpdate struct {
	element any
}

// UpdateFunc computes the next root element from the previous one.
// Passing one to Update lets callers derive state from what was rendered.
type UpdateFunc func(prev any) any

// workNode is the mutable unit of work. One exists per tree position and
// generation; alternate links the two generations of the same position.
type workNode struct {
	kind domain.Kind
	key  element.Key
	typ  element.Type

	pendingProps  element.Props
	memoizedProps element.Props
	memoizedState any
	updateQueue   *updateQueue

	// left-child/right-sibling links
	parent  NodeID
	child   NodeID
	sibling NodeID
	index   int

	host      ports.HostNode
	alternate NodeID

	flags        domain.Flags
	subtreeFlags domain.Flags
	deletions    []NodeID
	attrPatch    domain.AttrPatch

	inUse bool
}

// arena owns every work node of a container. Slots are recycled through a
// free list; pointers returned by get stay valid until the slot is released.
type arena struct {
	nodes []*workNode
	free  []NodeID
	live  int
}

func newArena() *arena {
	// slot 0 is the "none" sentinel
	return &arena{nodes: make([]*workNode, 1, 64)}
}

func (a *arena) alloc(kind domain.Kind, props element.Props, key element.Key) NodeID {
	var id NodeID
	if n := len(a.free); n > 0 {
		id = a.free[n-1]
		a.free = a.free[:n-1]
		*a.nodes[id] = workNode{}
	} else {
		id = NodeID(len(a.nodes))
		a.nodes = append(a.nodes, &workNode{})
	}
	n := a.nodes[id]
	n.kind = kind
	n.key = key
	n.pendingProps = props
	n.inUse = true
	a.live++
	return id
}

func (a *arena) release(id NodeID) {
	if id == none || int(id) >= len(a.nodes) || !a.nodes[id].inUse {
		return
	}
	*a.nodes[id] = workNode{}
	a.free = append(a.free, id)
	a.live--
}

func (a *arena) get(id NodeID) *workNode {
	return a.nodes[id]
}
