package reconciler

import (
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/element"
)

// Inspect returns the committed tree in pre-order, root first.
func (c *Container) Inspect() []domain.WorkNodeInfo {
	var out []domain.WorkNodeInfo
	c.inspect(c.current, 0, &out)
	return out
}

func (c *Container) inspect(id NodeID, depth int, out *[]domain.WorkNodeInfo) {
	n := c.arena.get(id)
	info := domain.WorkNodeInfo{
		ID:     uint32(id),
		Parent: uint32(n.parent),
		Depth:  depth,
		Kind:   n.kind,
		Type:   element.TypeName(n.typ),
		Key:    n.key.String(),
		Keyed:  n.key.IsSet(),
		Index:  n.index,
		Flags:  n.flags | n.subtreeFlags,
	}
	if n.kind == domain.KindHostText {
		info.Text = n.memoizedProps.Content()
	}
	*out = append(*out, info)

	for child := n.child; child != none; child = c.arena.get(child).sibling {
		c.inspect(child, depth+1, out)
	}
}
