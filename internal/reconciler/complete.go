package reconciler

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/element"
)

func (p *pass) completeWork(id NodeID) error {
	ph := phaseFor(p.arena.get(id).kind)
	if ph == nil {
		p.diagnostic("complete: unrecognized work node kind", id)
		p.bubbleProperties(id)
		return nil
	}
	return ph.complete(p, id)
}

func (rootPhase) complete(p *pass, id NodeID) error {
	p.bubbleProperties(id)
	return nil
}

func (computationPhase) complete(p *pass, id NodeID) error {
	p.bubbleProperties(id)
	return nil
}

func (hostElementPhase) complete(p *pass, id NodeID) error {
	n := p.arena.get(id)
	tag, ok := n.typ.(element.Tag)
	if !ok {
		p.diagnostic("complete: host element without tag", id)
		p.bubbleProperties(id)
		return nil
	}

	if n.alternate != none && n.host != nil {
		patch := domain.DiffAttributes(p.arena.get(n.alternate).memoizedProps, n.pendingProps)
		if !patch.IsEmpty() {
			n.attrPatch = patch
			n.flags |= domain.Update
		}
	} else {
		node, err := p.host.CreateElement(string(tag), n.pendingProps.Attributes())
		if err != nil {
			return fmt.Errorf("create element <%s>: %w", tag, err)
		}
		n.host = node
		if err := p.appendAllChildren(id); err != nil {
			return err
		}
	}

	p.bubbleProperties(id)
	return nil
}

func (hostTextPhase) complete(p *pass, id NodeID) error {
	n := p.arena.get(id)
	content := n.pendingProps.Content()

	if n.alternate != none && n.host != nil {
		if p.arena.get(n.alternate).memoizedProps.Content() != content {
			n.flags |= domain.Update
		}
	} else {
		node, err := p.host.CreateText(content)
		if err != nil {
			return fmt.Errorf("create text: %w", err)
		}
		n.host = node
	}

	p.bubbleProperties(id)
	return nil
}

// appendAllChildren attaches the top-level host nodes below id to its fresh
// host node, looking through computation nodes.
func (p *pass) appendAllChildren(id NodeID) error {
	parent := p.arena.get(id).host
	node := p.arena.get(id).child
	for node != none {
		n := p.arena.get(node)
		if n.kind.IsHost() {
			if n.host != nil {
				if err := p.host.AppendChild(parent, n.host); err != nil {
					return fmt.Errorf("append child to <%s>: %w", element.TypeName(p.arena.get(id).typ), err)
				}
			}
		} else if n.child != none {
			node = n.child
			continue
		}

		// climb until a sibling is found or we are back at id
		for p.arena.get(node).sibling == none {
			node = p.arena.get(node).parent
			if node == id || node == none {
				return nil
			}
		}
		node = p.arena.get(node).sibling
	}
	return nil
}

// bubbleProperties merges the flags of the children of id into its
// subtreeFlags and re-links each child to id.
func (p *pass) bubbleProperties(id NodeID) {
	n := p.arena.get(id)
	var subtree domain.Flags
	for child := n.child; child != none; {
		c := p.arena.get(child)
		subtree |= c.flags | c.subtreeFlags
		c.parent = id
		child = c.sibling
	}
	n.subtreeFlags |= subtree
}
