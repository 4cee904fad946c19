package domain

import (
	"context"
	"time"
)

// MutationOp names a host mutation applied during commit.
type MutationOp string

const (
	OpAppend        MutationOp = "append"
	OpInsert        MutationOp = "insert"
	OpRemove        MutationOp = "remove"
	OpSetText       MutationOp = "set_text"
	OpSetAttributes MutationOp = "set_attributes"
)

// PassEvent describes one render pass of a root.
type PassEvent struct {
	Root     string        `json:"root"`
	Revision uint64        `json:"revision"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// CommitEvent summarizes the mutations a commit applied.
type CommitEvent struct {
	Root       string        `json:"root"`
	Revision   uint64        `json:"revision"`
	Placements int           `json:"placements"`
	Updates    int           `json:"updates"`
	Deletions  int           `json:"deletions"`
	Failures   int           `json:"failures,omitempty"`
	Skipped    bool          `json:"skipped,omitempty"` // no flags anywhere, only the generation swap ran
	Duration   time.Duration `json:"duration"`
}

// Mutations is the total number of applied mutations.
func (e *CommitEvent) Mutations() int {
	return e.Placements + e.Updates + e.Deletions
}

// MutationEvent is emitted for every host primitive the commit phase calls.
type MutationEvent struct {
	Root   string     `json:"root"`
	Op     MutationOp `json:"op"`
	NodeID uint32     `json:"node_id"`
	Kind   Kind       `json:"kind"`
	Type   string     `json:"type,omitempty"`
}

// UnmountEvent is emitted for every work node in a deleted subtree.
type UnmountEvent struct {
	Root   string `json:"root"`
	NodeID uint32 `json:"node_id"`
	Kind   Kind   `json:"kind"`
	Type   string `json:"type,omitempty"`
}

// LifecycleHooks defines callbacks for reconciler observability.
// Hooks run synchronously inside the pass. A render requested from a hook
// is deferred until the running pass has finished.
type LifecycleHooks struct {
	OnPassStart func(context.Context, *PassEvent)
	OnPassAbort func(context.Context, *PassEvent)
	OnCommit    func(context.Context, *CommitEvent)
	OnMutation  func(context.Context, *MutationEvent)
	OnUnmount   func(context.Context, *UnmountEvent)
}

// MergeHooks returns hooks that call every non-nil callback of hs in order.
func MergeHooks(hs ...LifecycleHooks) LifecycleHooks {
	var merged LifecycleHooks
	for _, h := range hs {
		merged.OnPassStart = chain(merged.OnPassStart, h.OnPassStart)
		merged.OnPassAbort = chain(merged.OnPassAbort, h.OnPassAbort)
		merged.OnCommit = chain(merged.OnCommit, h.OnCommit)
		merged.OnMutation = chain(merged.OnMutation, h.OnMutation)
		merged.OnUnmount = chain(merged.OnUnmount, h.OnUnmount)
	}
	return merged
}

func chain[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *E) {
		a(ctx, e)
		b(ctx, e)
	}
}
