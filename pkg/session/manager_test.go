package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/aretw0/arbor/pkg/element"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/aretw0/arbor/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	*memory.Store
}

func (s *SlowStore) Save(ctx context.Context, snap *domain.Snapshot) error {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	return s.Store.Save(ctx, snap)
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	return s.Store.Load(ctx, sessionID)
}

const listAB = `
type: ul
children:
  - {type: li, key: a, children: [A]}
  - {type: li, key: b, children: [B]}
`

const listBA = `
type: ul
children:
  - {type: li, key: b, children: [B]}
  - {type: li, key: a, children: [A]}
`

func TestManager_RenderStoresSnapshot(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	ctx := context.Background()

	res, err := mgr.Render(ctx, "s1", []byte(listAB), dsl.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Snapshot.Revision)
	assert.Equal(t, "<ul><li>A</li><li>B</li></ul>", res.Snapshot.HTML)
	require.NotNil(t, res.Commit)
	assert.Equal(t, 1, res.Commit.Placements, "a mount places only the top host node")

	stored, err := mgr.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, res.Snapshot.HTML, stored.HTML)
	assert.Equal(t, listAB, string(stored.Document))
}

func TestManager_RenderAppliesDelta(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	ctx := context.Background()

	_, err := mgr.Render(ctx, "s1", []byte(listAB), dsl.FormatYAML)
	require.NoError(t, err)

	res, err := mgr.Render(ctx, "s1", []byte(listBA), dsl.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.Snapshot.Revision)
	assert.Equal(t, "<ul><li>B</li><li>A</li></ul>", res.Snapshot.HTML)
	require.Len(t, res.Mutations, 1)
	assert.Equal(t, domain.OpAppend, res.Mutations[0].Op)
	assert.Equal(t, "li", res.Mutations[0].Type)
}

func TestManager_IdenticalRenderSkipsCommit(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	ctx := context.Background()

	_, err := mgr.Render(ctx, "s1", []byte(listAB), dsl.FormatYAML)
	require.NoError(t, err)
	res, err := mgr.Render(ctx, "s1", []byte(listAB), dsl.FormatYAML)
	require.NoError(t, err)

	assert.Empty(t, res.Mutations)
	require.NotNil(t, res.Commit)
	assert.True(t, res.Commit.Skipped)
	assert.Equal(t, uint64(2), res.Snapshot.Revision)
}

func TestManager_RestoresEvictedSession(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	first := session.NewManager(store)
	_, err := first.Render(ctx, "s1", []byte(listAB), dsl.FormatYAML)
	require.NoError(t, err)

	// a second process sharing the store only knows the snapshot
	second := session.NewManager(store)
	res, err := second.Render(ctx, "s1", []byte(listBA), dsl.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.Snapshot.Revision)
	assert.Len(t, res.Mutations, 1, "restore must not leak into the reported delta")

	require.NoError(t, first.Evict(ctx, "s1"))
	assert.Equal(t, 0, first.Live())
	nodes, err := first.Inspect(ctx, "s1")
	require.NoError(t, err)
	require.NotEmpty(t, nodes)
	assert.Equal(t, "li", nodes[len(nodes)-2].Type)
	assert.Equal(t, "a", nodes[len(nodes)-2].Key, "restored from the latest snapshot")
}

func TestManager_ReplicasShareStore(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	a := session.NewManager(store)
	b := session.NewManager(store)

	_, err := a.Render(ctx, "s1", []byte(listAB), dsl.FormatYAML)
	require.NoError(t, err)
	res, err := b.Render(ctx, "s1", []byte(listBA), dsl.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.Snapshot.Revision)

	// a still holds revision 1 in memory
	nodes, err := a.Inspect(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "a", nodes[len(nodes)-2].Key, "inspect follows the stored revision")

	res, err = a.Render(ctx, "s1", []byte(listBA), dsl.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), res.Snapshot.Revision)
	assert.Empty(t, res.Mutations, "the document matches the stored one")
	require.NotNil(t, res.Commit)
	assert.True(t, res.Commit.Skipped)
	assert.Equal(t, "<ul><li>B</li><li>A</li></ul>", res.Snapshot.HTML)
}

func TestManager_ReplicaDeleteResetsSession(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	a := session.NewManager(store)
	b := session.NewManager(store)

	_, err := a.Render(ctx, "s1", []byte(listAB), dsl.FormatYAML)
	require.NoError(t, err)
	require.NoError(t, b.Delete(ctx, "s1"))

	res, err := a.Render(ctx, "s1", []byte(listAB), dsl.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Snapshot.Revision)
	require.NotNil(t, res.Commit)
	assert.Equal(t, 1, res.Commit.Placements, "the session is mounted again")
}

type readOnlyStore struct {
	*memory.Store
}

func (readOnlyStore) Save(context.Context, *domain.Snapshot) error {
	return errors.New("read-only")
}

func TestManager_FailedSaveDropsLiveState(t *testing.T) {
	mgr := session.NewManager(readOnlyStore{memory.NewStore()})

	_, err := mgr.Render(context.Background(), "s1", []byte(listAB), dsl.FormatYAML)
	assert.ErrorContains(t, err, "failed to save snapshot")
	assert.Zero(t, mgr.Live())
}

func TestManager_JSONDocument(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	ctx := context.Background()

	doc := `{"type":"p","props":{"class":"note"},"text":"hi & bye"}`
	res, err := mgr.Render(ctx, "j", []byte(doc), dsl.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, `<p class="note">hi &amp; bye</p>`, res.Snapshot.HTML)

	// restore replays JSON through the YAML decoder
	other := session.NewManager(mgr.Store())
	nodes, err := other.Inspect(ctx, "j")
	require.NoError(t, err)
	assert.Equal(t, "p", nodes[1].Type)
}

func TestManager_Components(t *testing.T) {
	reg := registry.NewDefault()
	reg.RegisterFunc("Greeting", func(props element.Props) any {
		return element.H("p", nil, fmt.Sprintf("hi %v", props["name"]))
	})
	mgr := session.NewManager(memory.NewStore(), session.WithRegistry(reg))

	res, err := mgr.Render(context.Background(), "c", []byte("{type: Greeting, props: {name: ada}}"), dsl.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "<p>hi ada</p>", res.Snapshot.HTML)
}

func TestManager_InvalidDocumentStoresNothing(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	ctx := context.Background()

	_, err := mgr.Render(ctx, "bad", []byte("type: ["), dsl.FormatYAML)
	assert.ErrorIs(t, err, domain.ErrInvalidDocument)

	_, err = mgr.Render(ctx, "bad", []byte("type: Missing"), dsl.FormatYAML)
	assert.ErrorIs(t, err, domain.ErrUnknownComponent)

	ids, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Equal(t, 0, mgr.Live())
}

func TestManager_Delete(t *testing.T) {
	var unmounted int
	mgr := session.NewManager(memory.NewStore(), session.WithLifecycleHooks(domain.LifecycleHooks{
		OnUnmount: func(context.Context, *domain.UnmountEvent) { unmounted++ },
	}))
	ctx := context.Background()

	_, err := mgr.Render(ctx, "s1", []byte(listAB), dsl.FormatYAML)
	require.NoError(t, err)
	require.NoError(t, mgr.Delete(ctx, "s1"))

	assert.Equal(t, 5, unmounted, "ul, two li and two texts")
	_, err = mgr.Get(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	_, err = mgr.Inspect(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	assert.Equal(t, 0, mgr.Live())
}

func TestManager_List(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	ctx := context.Background()
	for _, id := range []string{"b", "a", "c"} {
		_, err := mgr.Render(ctx, id, []byte("text: x"), dsl.FormatYAML)
		require.NoError(t, err)
	}

	ids, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestManager_Locking(t *testing.T) {
	store := &SlowStore{Store: memory.NewStore()}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	var wg sync.WaitGroup
	concurrentWrites := 10

	// Every render reads the revision and writes revision+1. Without
	// serialization two renders would store the same revision.
	for i := 0; i < concurrentWrites; i++ {
		wg.Add(1)
		go func(val int) {
			defer wg.Done()
			doc := fmt.Sprintf("{type: p, text: %q}", fmt.Sprint(val))
			_, err := manager.Render(ctx, id, []byte(doc), dsl.FormatYAML)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	snap, err := manager.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(concurrentWrites), snap.Revision)
}
