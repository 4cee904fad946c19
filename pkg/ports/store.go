package ports

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// SnapshotStore defines the interface for persisting committed renders.
// It lets a session survive process restarts: the stored document is
// replayed into a fresh root to rebuild the host tree.
type SnapshotStore interface {
	// Save persists the snapshot for its session ID.
	Save(ctx context.Context, snapshot *domain.Snapshot) error

	// Load retrieves the snapshot for a given session ID.
	// Returns domain.ErrSnapshotNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Snapshot, error)

	// Delete removes the snapshot for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of stored sessions.
	List(ctx context.Context) ([]string, error)
}
