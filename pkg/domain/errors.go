package domain

import "errors"

// ErrPassAborted is returned when a render pass fails before commit.
// The previously committed tree stays in place.
var ErrPassAborted = errors.New("render pass aborted")

// ErrCommitIncomplete is returned when some host mutations could not be applied.
// The generation swap still happened; the host tree may be inconsistent.
var ErrCommitIncomplete = errors.New("commit incomplete")

// ErrSnapshotNotFound is returned when a session snapshot cannot be found in the store.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ErrUnknownComponent is returned when a document names a component nobody registered.
var ErrUnknownComponent = errors.New("unknown component")

// ErrInvalidDocument is returned when a descriptor document cannot be decoded.
var ErrInvalidDocument = errors.New("invalid document")
