package domain

import (
	"reflect"
	"sort"
)

// childrenAttr is never part of an attribute patch; children are reconciled, not diffed.
const childrenAttr = "children"

// AttrPatch represents the attribute changes between two committed prop sets.
type AttrPatch struct {
	// Set contains added or modified attributes.
	Set map[string]any `json:"set,omitempty"`
	// Removed lists attributes present before and absent now, sorted.
	Removed []string `json:"removed,omitempty"`
}

// IsEmpty checks if the patch contains any actionable changes.
func (p AttrPatch) IsEmpty() bool {
	return len(p.Set) == 0 && len(p.Removed) == 0
}

// DiffAttributes calculates the attribute delta from oldAttrs to newAttrs.
// If oldAttrs is nil, every attribute of newAttrs is part of the patch.
// Function values compare by code pointer, so a re-created closure is not a change.
func DiffAttributes(oldAttrs, newAttrs map[string]any) AttrPatch {
	var patch AttrPatch

	// Check for Added or Modified
	for k, newVal := range newAttrs {
		if k == childrenAttr {
			continue
		}
		oldVal, exists := oldAttrs[k]
		if exists && sameValue(oldVal, newVal) {
			continue
		}
		if patch.Set == nil {
			patch.Set = make(map[string]any)
		}
		patch.Set[k] = newVal
	}

	// Check for Deletions
	for k := range oldAttrs {
		if k == childrenAttr {
			continue
		}
		if _, exists := newAttrs[k]; !exists {
			patch.Removed = append(patch.Removed, k)
		}
	}
	sort.Strings(patch.Removed)

	return patch
}

func sameValue(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() == reflect.Func && vb.Kind() == reflect.Func {
		if va.IsNil() || vb.IsNil() {
			return va.IsNil() == vb.IsNil()
		}
		return va.Pointer() == vb.Pointer()
	}
	return reflect.DeepEqual(a, b)
}
