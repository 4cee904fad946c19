package reconciler

import (
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/element"
)

// phase is the per-kind behavior of the work loop.
type phase interface {
	// begin diffs the node's children and returns the first child to descend into.
	begin(p *pass, id NodeID) (NodeID, error)
	// complete finalizes a node whose children are all done.
	complete(p *pass, id NodeID) error
}

var phases = [...]phase{
	domain.KindRoot:        rootPhase{},
	domain.KindHostElement: hostElementPhase{},
	domain.KindHostText:    hostTextPhase{},
	domain.KindComputation: computationPhase{},
}

// Fails to compile unless every kind up to KindComputation has a phase entry.
var _ = [1]struct{}{}[len(phases)-int(domain.KindComputation)-1]

func phaseFor(k domain.Kind) phase {
	if int(k) < len(phases) {
		return phases[k]
	}
	return nil
}

func (p *pass) beginWork(id NodeID) (NodeID, error) {
	ph := phaseFor(p.arena.get(id).kind)
	if ph == nil {
		p.diagnostic("begin: unrecognized work node kind", id)
		return none, nil
	}
	return ph.begin(p, id)
}

type rootPhase struct{}

func (rootPhase) begin(p *pass, id NodeID) (NodeID, error) {
	n := p.arena.get(id)
	n.memoizedState = p.processUpdateQueue(id, n.memoizedState)
	return p.reconcileChildren(id, n.memoizedState), nil
}

type hostElementPhase struct{}

func (hostElementPhase) begin(p *pass, id NodeID) (NodeID, error) {
	return p.reconcileChildren(id, p.arena.get(id).pendingProps.Children()), nil
}

type hostTextPhase struct{}

// Text nodes have no children.
func (hostTextPhase) begin(*pass, NodeID) (NodeID, error) {
	return none, nil
}

type computationPhase struct{}

func (computationPhase) begin(p *pass, id NodeID) (NodeID, error) {
	n := p.arena.get(id)
	comp, ok := n.typ.(*element.Component)
	if !ok || comp == nil || comp.Render == nil {
		p.diagnostic("begin: component without render function", id)
		return p.reconcileChildren(id, nil), nil
	}
	children := comp.Render(n.pendingProps)
	return p.reconcileChildren(id, children), nil
}

// processUpdateQueue consumes the pending root update and returns the new state.
func (p *pass) processUpdateQueue(id NodeID, base any) any {
	queue := p.arena.get(id).updateQueue
	if queue == nil {
		p.diagnostic("begin: root without update queue", id)
		return base
	}
	pending := queue.pending
	queue.pending = nil
	if pending == nil {
		return base
	}
	if fn, ok := pending.element.(UpdateFunc); ok {
		return fn(base)
	}
	return pending.element
}

// reconcileChildren diffs children against the previous children of the
// node's counterpart and stores the new first child on the node.
func (p *pass) reconcileChildren(id NodeID, children any) NodeID {
	n := p.arena.get(id)
	if n.alternate != none {
		r := childReconciler{pass: p, track: true}
		n.child = r.reconcileChildFibers(id, p.arena.get(n.alternate).child, children)
	} else {
		r := childReconciler{pass: p, track: false}
		n.child = r.reconcileChildFibers(id, none, children)
	}
	return n.child
}
