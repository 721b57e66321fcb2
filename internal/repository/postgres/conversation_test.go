package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Santhosh-Rony/growdigo-qdrant/internal/domain"
)

func TestOperatorClass(t *testing.T) {
	assert.Equal(t, "vector_cosine_ops", operatorClass(domain.DistanceCosine))
	assert.Equal(t, "vector_cosine_ops", operatorClass(""))
	assert.Equal(t, "vector_ip_ops", operatorClass(domain.DistanceDot))
	assert.Equal(t, "vector_l2_ops", operatorClass(domain.DistanceEuclid))
}

func TestConversationRepository_Integration(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set - run as integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	db := &DB{Pool: pool}

	table := fmt.Sprintf("conversations_test_%d", time.Now().UnixNano())
	repo := NewConversationRepository(db, table)
	defer repo.Close()
	defer pool.Exec(ctx, "DROP TABLE IF EXISTS "+pgx.Identifier{table}.Sanitize())

	spec := domain.CollectionSpec{Name: table, Dimension: 3, Distance: domain.DistanceCosine}
	require.NoError(t, repo.EnsureCollection(ctx, spec))
	require.NoError(t, repo.EnsureCollection(ctx, spec))

	conv := &domain.Conversation{
		ID:        5,
		Messages:  []domain.Message{{ID: 1, Role: "user", Content: "hello", Timestamp: "2024-01-01T00:00:00"}},
		UserID:    "alice",
		CreatedAt: "2024-01-01T00:00:00.000000",
		UpdatedAt: "2024-01-01T00:00:00.000000",
	}
	require.NoError(t, repo.Upsert(ctx, 5, []float32{0.1, 0.2, 0.3}, conv))

	got, err := repo.Get(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, conv, got)

	list, err := repo.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	count, err := repo.Collections(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 1)

	require.NoError(t, repo.Delete(ctx, 5))
	got, err = repo.Get(ctx, 5)
	require.NoError(t, err)
	assert.Nil(t, got)
}
