package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/persistence/middleware"
	"github.com/aretw0/arbor/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunSnapshotStoreContract(t, mw(memory.NewStore()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := memory.NewStore()
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	secureStore := mw(underlyingStore)
	ctx := context.Background()

	original := &domain.Snapshot{
		SessionID: "test-session",
		Revision:  4,
		Document:  []byte("{type: p, text: my-secret-sauce}"),
		HTML:      "<p>my-secret-sauce</p>",
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, secureStore.Save(ctx, original))

	// the underlying store only sees the envelope
	stored, err := underlyingStore.Load(ctx, "test-session")
	require.NoError(t, err)
	assert.Empty(t, stored.HTML)
	assert.NotContains(t, string(stored.Document), "my-secret-sauce")
	assert.True(t, strings.HasPrefix(string(stored.Document), "arbor-enc/v1:"))
	assert.Equal(t, uint64(4), stored.Revision)

	loaded, err := secureStore.Load(ctx, "test-session")
	require.NoError(t, err)
	assert.Equal(t, original.Document, loaded.Document)
	assert.Equal(t, original.HTML, loaded.HTML)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	secureStoreOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlyingStore)
	require.NoError(t, secureStoreOld.Save(ctx, &domain.Snapshot{SessionID: "rot", HTML: "old"}))

	secureStoreNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlyingStore)

	loaded, err := secureStoreNew.Load(ctx, "rot")
	require.NoError(t, err, "fallback key must decrypt")
	assert.Equal(t, "old", loaded.HTML)

	loaded.HTML = "new"
	require.NoError(t, secureStoreNew.Save(ctx, loaded))

	_, err = secureStoreOld.Load(ctx, "rot")
	assert.Error(t, err, "old key alone cannot read data sealed with the new key")
}

func TestEncryptionMiddleware_RejectsPlainSnapshot(t *testing.T) {
	underlyingStore := memory.NewStore()
	require.NoError(t, underlyingStore.Save(context.Background(), &domain.Snapshot{SessionID: "plain", HTML: "<p></p>"}))

	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)
	_, err := secure.Load(context.Background(), "plain")
	assert.ErrorIs(t, err, middleware.ErrNotEncrypted)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	})
}

func TestChain_Order(t *testing.T) {
	var order []string
	tag := func(name string) middleware.Middleware {
		return func(next ports.SnapshotStore) ports.SnapshotStore {
			return recordingStore{SnapshotStore: next, name: name, order: &order}
		}
	}

	store := middleware.Chain(memory.NewStore(), tag("outer"), tag("inner"))
	require.NoError(t, store.Save(context.Background(), &domain.Snapshot{SessionID: "x"}))
	assert.Equal(t, []string{"outer", "inner"}, order)
}

type recordingStore struct {
	ports.SnapshotStore
	name  string
	order *[]string
}

func (r recordingStore) Save(ctx context.Context, s *domain.Snapshot) error {
	*r.order = append(*r.order, r.name)
	return r.SnapshotStore.Save(ctx, s)
}
