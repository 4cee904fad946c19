package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/element"
	"github.com/aretw0/arbor/pkg/ports"
)

var errNoAttributeUpdater = errors.New("host does not implement ports.AttributeUpdater")

// commit applies the effects of one finished in-progress tree to the host.
type commit struct {
	*Container
	ctx    context.Context
	logger *slog.Logger
	event  *domain.CommitEvent

	// nodes of deleted subtrees, released after the swap
	deleted []NodeID
	errs    []error
}

// commitRoot applies the flagged mutations of finished and makes it the
// current tree. Host failures do not stop the commit; they are reported as
// ErrCommitIncomplete once the swap is done.
func (c *Container) commitRoot(ctx context.Context, logger *slog.Logger, finished NodeID) error {
	start := time.Now()
	root := c.arena.get(finished)
	cm := &commit{
		Container: c,
		ctx:       ctx,
		logger:    logger,
		event:     &domain.CommitEvent{Root: c.name, Revision: c.revision},
	}

	if !(root.flags | root.subtreeFlags).Has(domain.MutationMask) {
		logger.Debug("commit skipped, nothing changed")
		cm.event.Skipped = true
	} else {
		cm.commitMutationEffects(finished)
	}

	c.current = finished
	cm.releaseDeleted()

	cm.event.Duration = time.Since(start)
	cm.event.Failures = len(cm.errs)
	logger.Debug("commit done",
		"placements", cm.event.Placements,
		"updates", cm.event.Updates,
		"deletions", cm.event.Deletions,
		"duration", cm.event.Duration)
	if c.hooks.OnCommit != nil {
		c.hooks.OnCommit(ctx, cm.event)
	}

	if len(cm.errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrCommitIncomplete, errors.Join(cm.errs...))
	}
	return nil
}

// commitMutationEffects walks the tree post-order, descending only into
// subtrees that carry mutation flags.
func (cm *commit) commitMutationEffects(id NodeID) {
	n := cm.arena.get(id)

	if n.flags.Has(domain.ChildDeletion) {
		for _, deleted := range n.deletions {
			cm.commitDeletion(id, deleted)
		}
	}

	if n.subtreeFlags.Has(domain.MutationMask) {
		for child := n.child; child != none; child = cm.arena.get(child).sibling {
			cm.commitMutationEffects(child)
		}
	}

	if n.flags.Has(domain.Placement) {
		cm.commitPlacement(id)
	}
	if n.flags.Has(domain.Update) {
		cm.commitUpdate(id)
	}

	n.flags = domain.NoFlags
	n.subtreeFlags = domain.NoFlags
	n.deletions = nil
	n.attrPatch = domain.AttrPatch{}
}

func isHostParent(n *workNode) bool {
	return n.kind == domain.KindHostElement || n.kind == domain.KindRoot
}

// nearestHostParent returns id or its closest ancestor able to hold host children.
func (cm *commit) nearestHostParent(id NodeID) (NodeID, bool) {
	for id != none {
		if isHostParent(cm.arena.get(id)) {
			return id, true
		}
		id = cm.arena.get(id).parent
	}
	return none, false
}

// hostSibling returns the host node before which id must be inserted, or nil
// to append. Siblings that are themselves being placed are not stable anchors.
func (cm *commit) hostSibling(id NodeID) ports.HostNode {
	node := id
siblings:
	for {
		for cm.arena.get(node).sibling == none {
			parent := cm.arena.get(node).parent
			if parent == none || isHostParent(cm.arena.get(parent)) {
				return nil
			}
			node = parent
		}
		node = cm.arena.get(node).sibling

		for !cm.arena.get(node).kind.IsHost() {
			n := cm.arena.get(node)
			if n.flags.Has(domain.Placement) || n.child == none {
				continue siblings
			}
			node = n.child
		}

		if n := cm.arena.get(node); !n.flags.Has(domain.Placement) {
			return n.host
		}
	}
}

func (cm *commit) commitPlacement(id NodeID) {
	parentID, ok := cm.nearestHostParent(cm.arena.get(id).parent)
	if !ok {
		cm.fail("commit: no host parent for placed node", id, errors.New("host parent not found"))
		return
	}
	before := cm.hostSibling(id)
	cm.insertOrAppend(id, before, cm.arena.get(parentID).host)
}

// insertOrAppend places the host node of id, or the top-level host nodes
// below it when id owns none.
func (cm *commit) insertOrAppend(id NodeID, before, parent ports.HostNode) {
	n := cm.arena.get(id)
	if !n.kind.IsHost() {
		for child := n.child; child != none; child = cm.arena.get(child).sibling {
			cm.insertOrAppend(child, before, parent)
		}
		return
	}

	if before != nil {
		if err := cm.host.InsertBefore(parent, n.host, before); err != nil {
			cm.fail("commit: insert failed", id, err)
			return
		}
		cm.event.Placements++
		cm.emit(domain.OpInsert, id)
		return
	}
	if err := cm.host.AppendChild(parent, n.host); err != nil {
		cm.fail("commit: append failed", id, err)
		return
	}
	cm.event.Placements++
	cm.emit(domain.OpAppend, id)
}

func (cm *commit) commitUpdate(id NodeID) {
	n := cm.arena.get(id)
	switch n.kind {
	case domain.KindHostText:
		if err := cm.host.SetTextContent(n.host, n.pendingProps.Content()); err != nil {
			cm.fail("commit: set text failed", id, err)
			return
		}
		cm.event.Updates++
		cm.emit(domain.OpSetText, id)
	case domain.KindHostElement:
		updater, ok := cm.host.(ports.AttributeUpdater)
		if !ok {
			cm.fail("commit: host cannot update attributes", id, errNoAttributeUpdater)
			return
		}
		if err := updater.UpdateAttributes(n.host, n.attrPatch); err != nil {
			cm.fail("commit: attribute update failed", id, err)
			return
		}
		cm.event.Updates++
		cm.emit(domain.OpSetAttributes, id)
	default:
		cm.logger.Warn("commit: update flag on a node without host representation",
			"node", id, "kind", n.kind.String())
	}
}

// commitDeletion unmounts the subtree rooted at deleted and removes its
// top-level host nodes from the nearest host parent of parentID.
func (cm *commit) commitDeletion(parentID, deleted NodeID) {
	var hosts []NodeID
	cm.unmount(deleted, false, &hosts)

	hostParentID, ok := cm.nearestHostParent(parentID)
	if !ok {
		cm.fail("commit: no host parent for deleted node", deleted, errors.New("host parent not found"))
		return
	}
	parentHost := cm.arena.get(hostParentID).host
	for _, h := range hosts {
		if err := cm.host.RemoveChild(parentHost, cm.arena.get(h).host); err != nil {
			cm.fail("commit: remove failed", h, err)
			continue
		}
		cm.event.Deletions++
		cm.emit(domain.OpRemove, h)
	}

	d := cm.arena.get(deleted)
	d.parent = none
	d.sibling = none
}

// unmount visits the subtree pre-order, fires OnUnmount and collects the
// host nodes that are not nested inside another collected host node.
func (cm *commit) unmount(id NodeID, underHost bool, hosts *[]NodeID) {
	n := cm.arena.get(id)
	cm.deleted = append(cm.deleted, id)
	if cm.hooks.OnUnmount != nil {
		cm.hooks.OnUnmount(cm.ctx, &domain.UnmountEvent{
			Root:   cm.name,
			NodeID: uint32(id),
			Kind:   n.kind,
			Type:   element.TypeName(n.typ),
		})
	}
	if n.kind.IsHost() && !underHost {
		if n.host != nil {
			*hosts = append(*hosts, id)
		}
		underHost = true
	}
	for child := n.child; child != none; child = cm.arena.get(child).sibling {
		cm.unmount(child, underHost, hosts)
	}
}

// releaseDeleted returns deleted nodes and their counterparts to the arena.
func (cm *commit) releaseDeleted() {
	for _, id := range cm.deleted {
		if alt := cm.arena.get(id).alternate; alt != none && cm.arena.get(alt).alternate == id {
			cm.arena.release(alt)
		}
		cm.arena.release(id)
	}
	cm.deleted = nil
}

func (cm *commit) emit(op domain.MutationOp, id NodeID) {
	if cm.hooks.OnMutation == nil {
		return
	}
	n := cm.arena.get(id)
	cm.hooks.OnMutation(cm.ctx, &domain.MutationEvent{
		Root:   cm.name,
		Op:     op,
		NodeID: uint32(id),
		Kind:   n.kind,
		Type:   element.TypeName(n.typ),
	})
}

func (cm *commit) fail(msg string, id NodeID, err error) {
	n := cm.arena.get(id)
	cm.logger.Warn(msg, "node", id, "kind", n.kind.String(), "type", element.TypeName(n.typ), "err", err)
	cm.errs = append(cm.errs, fmt.Errorf("node %d: %w", id, err))
}
