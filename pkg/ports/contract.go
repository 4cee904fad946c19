package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore implementation
// adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := &domain.Snapshot{
			SessionID: sessionID,
			Revision:  3,
			Document:  []byte(`{"type":"div"}`),
			HTML:      "<div></div>",
			UpdatedAt: time.Now().UTC().Truncate(time.Second),
		}

		err := store.Save(ctx, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, snap.Revision, loaded.Revision)
		assert.Equal(t, snap.HTML, loaded.HTML)
		assert.JSONEq(t, string(snap.Document), string(loaded.Document))
		assert.True(t, snap.UpdatedAt.Equal(loaded.UpdatedAt), "UpdatedAt should round-trip")
	})

	t.Run("Load Returns Copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.HTML = "mutated"

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.NotEqual(t, "mutated", again.HTML)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, &domain.Snapshot{SessionID: sessionID, Revision: 1})
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound, "Load after Delete should return ErrSnapshotNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, &domain.Snapshot{SessionID: id1, Revision: 1})
		_ = store.Save(ctx, &domain.Snapshot{SessionID: id2, Revision: 1})

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunHostContract verifies the DOM-like semantics the commit phase relies on:
// append moves, insertBefore honors its anchor, removal detaches, text is writable.
// newContainer must return a fresh, empty container node on every call.
func RunHostContract(t *testing.T, host Host, inspect HostInspector, newContainer func() HostNode) {
	t.Run("Append Keeps Order", func(t *testing.T) {
		root := newContainer()
		a, err := host.CreateElement("a", nil)
		require.NoError(t, err)
		b, err := host.CreateText("b")
		require.NoError(t, err)

		require.NoError(t, host.AppendChild(root, a))
		require.NoError(t, host.AppendChild(root, b))

		children := inspect.Children(root)
		require.Len(t, children, 2)
		assert.Equal(t, a, children[0])
		assert.Equal(t, b, children[1])
	})

	t.Run("Append Moves Existing Child", func(t *testing.T) {
		root := newContainer()
		a, _ := host.CreateElement("a", nil)
		b, _ := host.CreateElement("b", nil)
		require.NoError(t, host.AppendChild(root, a))
		require.NoError(t, host.AppendChild(root, b))

		require.NoError(t, host.AppendChild(root, a))

		children := inspect.Children(root)
		require.Len(t, children, 2)
		assert.Equal(t, b, children[0])
		assert.Equal(t, a, children[1])
	})

	t.Run("InsertBefore", func(t *testing.T) {
		root := newContainer()
		a, _ := host.CreateElement("a", nil)
		c, _ := host.CreateElement("c", nil)
		b, _ := host.CreateElement("b", nil)
		require.NoError(t, host.AppendChild(root, a))
		require.NoError(t, host.AppendChild(root, c))

		require.NoError(t, host.InsertBefore(root, b, c))

		children := inspect.Children(root)
		require.Len(t, children, 3)
		assert.Equal(t, []HostNode{a, b, c}, children)
	})

	t.Run("InsertBefore Foreign Anchor Fails", func(t *testing.T) {
		root := newContainer()
		other := newContainer()
		anchor, _ := host.CreateElement("x", nil)
		child, _ := host.CreateElement("y", nil)
		require.NoError(t, host.AppendChild(other, anchor))

		assert.Error(t, host.InsertBefore(root, child, anchor))
	})

	t.Run("RemoveChild", func(t *testing.T) {
		root := newContainer()
		a, _ := host.CreateElement("a", nil)
		require.NoError(t, host.AppendChild(root, a))

		require.NoError(t, host.RemoveChild(root, a))
		assert.Empty(t, inspect.Children(root))
		assert.Error(t, host.RemoveChild(root, a), "removing a detached node should fail")
	})

	t.Run("SetTextContent", func(t *testing.T) {
		txt, err := host.CreateText("x")
		require.NoError(t, err)
		require.NoError(t, host.SetTextContent(txt, "y"))
		assert.Equal(t, "y", inspect.TextContent(txt))
	})
}
