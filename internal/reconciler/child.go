package reconciler

import (
	"fmt"
	"reflect"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/element"
)

// childReconciler diffs a list of new child descriptors against the previous
// sibling chain. With track unset (first mount of a subtree) it neither
// flags placements nor records deletions: the subtree is attached as a whole.
type childReconciler struct {
	*pass
	track bool
}

// slotKey identifies a previous child: by key when it has one, else by index.
type slotKey struct {
	key   string
	index int
	keyed bool
}

func keyFor(k element.Key, index int) slotKey {
	if k.IsSet() {
		return slotKey{key: k.String(), keyed: true}
	}
	return slotKey{index: index}
}

func (r childReconciler) reconcileChildFibers(returnID, currentFirst NodeID, newChild any) NodeID {
	switch v := newChild.(type) {
	case nil, bool:
		r.deleteRemainingChildren(returnID, currentFirst)
		return none
	case element.Element:
		return r.placeSingleChild(r.reconcileSingleElement(returnID, currentFirst, v))
	case *element.Element:
		if v == nil {
			r.deleteRemainingChildren(returnID, currentFirst)
			return none
		}
		return r.placeSingleChild(r.reconcileSingleElement(returnID, currentFirst, *v))
	case []any:
		return r.reconcileChildrenArray(returnID, currentFirst, v)
	case []element.Element:
		list := make([]any, len(v))
		for i := range v {
			list[i] = v[i]
		}
		return r.reconcileChildrenArray(returnID, currentFirst, list)
	case []string:
		list := make([]any, len(v))
		for i := range v {
			list[i] = v[i]
		}
		return r.reconcileChildrenArray(returnID, currentFirst, list)
	}

	if text, ok := textOf(newChild); ok {
		return r.placeSingleChild(r.reconcileSingleTextNode(returnID, currentFirst, text))
	}

	r.diagnostic("reconcile: unrecognized child descriptor", returnID, "descriptor", fmt.Sprintf("%T", newChild))
	r.deleteRemainingChildren(returnID, currentFirst)
	return none
}

// textOf stringifies strings and numbers.
func textOf(v any) (string, bool) {
	if s, ok := v.(string); ok {
		return s, true
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprint(v), true
	}
	return "", false
}

func (r childReconciler) deleteChild(returnID, child NodeID) {
	if !r.track {
		return
	}
	ret := r.arena.get(returnID)
	ret.deletions = append(ret.deletions, child)
	ret.flags |= domain.ChildDeletion
}

func (r childReconciler) deleteRemainingChildren(returnID, currentFirst NodeID) {
	if !r.track {
		return
	}
	for child := currentFirst; child != none; child = r.arena.get(child).sibling {
		r.deleteChild(returnID, child)
	}
}

func (r childReconciler) placeSingleChild(id NodeID) NodeID {
	if r.track && id != none {
		if n := r.arena.get(id); n.alternate == none {
			n.flags |= domain.Placement
		}
	}
	return id
}

func sameType(n *workNode, el element.Element) bool {
	return n.kind != domain.KindHostText && n.typ == el.Type
}

func (r childReconciler) reconcileSingleElement(returnID, currentFirst NodeID, el element.Element) NodeID {
	current := currentFirst
	for current != none {
		cur := r.arena.get(current)
		if cur.key == el.Key {
			if sameType(cur, el) {
				existing := r.useFiber(current, el.Props)
				r.arena.get(existing).parent = returnID
				// only one child survives
				r.deleteRemainingChildren(returnID, cur.sibling)
				return existing
			}
			// same key, different type: nothing after it can be reused either
			r.deleteRemainingChildren(returnID, current)
			break
		}
		r.deleteChild(returnID, current)
		current = cur.sibling
	}

	created := r.createFromElement(el)
	r.arena.get(created).parent = returnID
	return created
}

func (r childReconciler) reconcileSingleTextNode(returnID, currentFirst NodeID, content string) NodeID {
	current := currentFirst
	for current != none {
		cur := r.arena.get(current)
		if cur.kind == domain.KindHostText {
			existing := r.useFiber(current, textProps(content))
			r.arena.get(existing).parent = returnID
			r.deleteRemainingChildren(returnID, cur.sibling)
			return existing
		}
		r.deleteChild(returnID, current)
		current = cur.sibling
	}

	created := r.alloc(domain.KindHostText, textProps(content), element.NoKey)
	r.arena.get(created).parent = returnID
	return created
}

func (r childReconciler) reconcileChildrenArray(returnID, currentFirst NodeID, list []any) NodeID {
	// index of the last reused child that stayed in place, in the previous list
	lastPlacedIndex := 0
	var first, last NodeID

	existing := make(map[slotKey]NodeID)
	for current := currentFirst; current != none; current = r.arena.get(current).sibling {
		cur := r.arena.get(current)
		k := keyFor(cur.key, cur.index)
		if prev, dup := existing[k]; dup {
			r.diagnostic("reconcile: duplicate key among previous children", returnID, "key", k.key)
			r.deleteChild(returnID, prev)
		}
		existing[k] = current
	}

	seen := make(map[string]struct{})
	for i, child := range list {
		if el, ok := asElement(child); ok && el.Key.IsSet() {
			if _, dup := seen[el.Key.String()]; dup {
				r.diagnostic("reconcile: duplicate key among new children", returnID, "key", el.Key.String())
			}
			seen[el.Key.String()] = struct{}{}
		}

		id := r.updateFromMap(returnID, existing, i, child)
		if id == none {
			continue
		}
		n := r.arena.get(id)
		n.index = i
		n.parent = returnID

		if last == none {
			first = id
		} else {
			r.arena.get(last).sibling = id
		}
		last = id

		if !r.track {
			continue
		}
		if alt := n.alternate; alt != none {
			oldIndex := r.arena.get(alt).index
			if oldIndex < lastPlacedIndex {
				// moved backward past a sibling that stayed
				n.flags |= domain.Placement
				continue
			}
			lastPlacedIndex = oldIndex
		} else {
			n.flags |= domain.Placement
		}
	}

	// whatever was not matched leaves, in previous-sibling order
	for current := currentFirst; current != none; current = r.arena.get(current).sibling {
		cur := r.arena.get(current)
		if existing[keyFor(cur.key, cur.index)] == current {
			r.deleteChild(returnID, current)
		}
	}
	return first
}

func asElement(v any) (element.Element, bool) {
	switch el := v.(type) {
	case element.Element:
		return el, true
	case *element.Element:
		if el != nil {
			return *el, true
		}
	}
	return element.Element{}, false
}

func (r childReconciler) updateFromMap(returnID NodeID, existing map[slotKey]NodeID, index int, child any) NodeID {
	switch child.(type) {
	case nil, bool:
		return none
	}

	if el, ok := asElement(child); ok {
		k := keyFor(el.Key, index)
		if before, found := existing[k]; found {
			delete(existing, k)
			if sameType(r.arena.get(before), el) {
				return r.useFiber(before, el.Props)
			}
			r.deleteChild(returnID, before)
		}
		return r.createFromElement(el)
	}

	if text, ok := textOf(child); ok {
		k := slotKey{index: index}
		if before, found := existing[k]; found {
			delete(existing, k)
			if r.arena.get(before).kind == domain.KindHostText {
				return r.useFiber(before, textProps(text))
			}
			r.deleteChild(returnID, before)
		}
		return r.alloc(domain.KindHostText, textProps(text), element.NoKey)
	}

	r.diagnostic("reconcile: unrecognized list entry skipped", returnID, "index", index, "descriptor", fmt.Sprintf("%T", child))
	return none
}

func (r childReconciler) createFromElement(el element.Element) NodeID {
	kind := domain.KindComputation
	switch el.Type.(type) {
	case element.Tag:
		kind = domain.KindHostElement
	case *element.Component:
	default:
		r.logger.Warn("reconcile: unrecognized element type, rendering nothing", "descriptor", el.String())
	}
	id := r.alloc(kind, el.Props, el.Key)
	r.arena.get(id).typ = el.Type
	return id
}

func textProps(content string) element.Props {
	return element.Props{element.ContentProp: content}
}
