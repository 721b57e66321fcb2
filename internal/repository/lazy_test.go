package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Santhosh-Rony/growdigo-qdrant/internal/config"
	"github.com/Santhosh-Rony/growdigo-qdrant/internal/domain"
	"github.com/Santhosh-Rony/growdigo-qdrant/internal/repository/memory"
)

func TestOpenLazy_RetriesUntilBackendIsUp(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewStore("c")
	attempts := 0

	reg := NewRegistry()
	reg.Register("flaky", func(ctx context.Context, cfg *config.Config) (domain.ConversationStore, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("connection refused")
		}
		return backend, nil
	})

	store := reg.OpenLazy(&config.Config{Store: config.StoreConfig{Backend: "flaky", Collection: "c"}})
	assert.Equal(t, 0, attempts, "nothing is opened up front")

	_, err := store.Collections(ctx)
	assert.EqualError(t, err, "failed to open flaky store: connection refused")

	err = store.EnsureCollection(ctx, domain.CollectionSpec{Name: "c", Dimension: 4})
	assert.Error(t, err)

	require.NoError(t, store.EnsureCollection(ctx, domain.CollectionSpec{Name: "c", Dimension: 4}))
	count, err := store.Collections(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 3, attempts, "an open store is reused")

	conv := &domain.Conversation{ID: 1, Messages: []domain.Message{}, UserID: "alice"}
	require.NoError(t, store.Upsert(ctx, 1, []float32{0, 0, 0, 0}, conv))
	got, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, conv, got)
	list, err := store.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	require.NoError(t, store.Delete(ctx, 1))

	require.NoError(t, store.Close())
	_, err = backend.Collections(ctx)
	assert.Error(t, err, "closing the lazy store closes the backend")
}

func TestOpenLazy_CloseWithoutOpen(t *testing.T) {
	reg := NewRegistry()
	reg.Register("never", func(ctx context.Context, cfg *config.Config) (domain.ConversationStore, error) {
		t.Fatal("factory must not be called")
		return nil, nil
	})

	store := reg.OpenLazy(&config.Config{Store: config.StoreConfig{Backend: "never"}})
	assert.NoError(t, store.Close())
}
