package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Santhosh-Rony/growdigo-qdrant/internal/domain"
)

func TestDocumentRoundTrip(t *testing.T) {
	title := "Greeting"
	conv := &domain.Conversation{
		ID:        9,
		Title:     &title,
		Messages:  []domain.Message{{ID: 1, Role: "user", Content: "hi", Timestamp: "t"}},
		UserID:    "bob",
		CreatedAt: "2024-01-01T00:00:00.000000",
		UpdatedAt: "2024-01-02T00:00:00.000000",
	}

	doc := toDocument(9, []float32{0.5, 1}, conv)
	assert.Equal(t, int64(9), doc.ID)
	assert.Equal(t, []float64{0.5, 1}, doc.Vector)
	assert.Equal(t, *conv, doc.toConversation())
}

func TestNewStore_RequiresSettings(t *testing.T) {
	_, err := NewStore(context.Background(), "", "db", "c")
	assert.Error(t, err)
	_, err = NewStore(context.Background(), "mongodb://localhost:27017", "", "c")
	assert.Error(t, err)
}

func TestStore_Integration(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set - run as integration test")
	}

	ctx := context.Background()
	name := fmt.Sprintf("conversations_test_%d", time.Now().UnixNano())
	store, err := NewStore(ctx, uri, "growdigo_test", name)
	require.NoError(t, err)
	defer store.Close()
	defer store.coll().Drop(ctx)

	spec := domain.CollectionSpec{Name: name, Dimension: 4}
	require.NoError(t, store.EnsureCollection(ctx, spec))
	require.NoError(t, store.EnsureCollection(ctx, spec))

	conv := &domain.Conversation{ID: 2, Messages: []domain.Message{}, UserID: "carol"}
	require.NoError(t, store.Upsert(ctx, 2, []float32{0, 0, 0, 0}, conv))
	require.NoError(t, store.Upsert(ctx, 1, []float32{0, 0, 0, 0}, &domain.Conversation{ID: 1, Messages: []domain.Message{}, UserID: "dave"}))

	got, err := store.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, conv, got)

	list, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(1), list[0].ID)

	require.NoError(t, store.Delete(ctx, 2))
	got, err = store.Get(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, got)
}
