package bolt_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/arbor/pkg/adapters/bolt"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, path string) *bolt.Store {
	t.Helper()
	store, err := bolt.Open(path)
	require.NoError(t, err)
	return store
}

func TestBoltStore_Contract(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "arbor.db"))
	defer store.Close()
	ports.RunSnapshotStoreContract(t, store)
}

func TestBoltStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arbor.db")
	ctx := context.Background()

	store := openStore(t, path)
	require.NoError(t, store.Save(ctx, &domain.Snapshot{SessionID: "s1", Revision: 4, HTML: "<p>x</p>"}))
	require.NoError(t, store.Close())

	store = openStore(t, path)
	defer store.Close()
	snap, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, uint64(4), snap.Revision)
	assert.Equal(t, "<p>x</p>", snap.HTML)
}

func TestBoltStore_ListSorted(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "arbor.db"))
	defer store.Close()
	ctx := context.Background()

	for _, id := range []string{"b", "a", "c"} {
		require.NoError(t, store.Save(ctx, &domain.Snapshot{SessionID: id}))
	}
	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}
