package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Santhosh-Rony/growdigo-qdrant/internal/config"
	"github.com/Santhosh-Rony/growdigo-qdrant/internal/domain"
	"github.com/Santhosh-Rony/growdigo-qdrant/internal/repository/memory"
	"github.com/Santhosh-Rony/growdigo-qdrant/internal/repository/qdrant"
	"github.com/Santhosh-Rony/growdigo-qdrant/internal/repository/sqlstore"
)

func TestDefaultRegistry_Supported(t *testing.T) {
	assert.Equal(t,
		[]string{"memory", "mongodb", "mysql", "postgres", "qdrant", "sqlite"},
		DefaultRegistry().Supported())
}

func TestRegistry_Open(t *testing.T) {
	ctx := context.Background()
	reg := DefaultRegistry()

	t.Run("memory", func(t *testing.T) {
		cfg := &config.Config{Store: config.StoreConfig{Backend: config.BackendMemory, Collection: "c"}}
		store, err := reg.Open(ctx, cfg)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &memory.Store{}, store)
	})

	t.Run("qdrant", func(t *testing.T) {
		cfg := &config.Config{
			Store:  config.StoreConfig{Backend: config.BackendQdrant, Collection: "c"},
			Qdrant: config.QdrantConfig{URL: "http://localhost:6333"},
		}
		store, err := reg.Open(ctx, cfg)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &qdrant.Store{}, store)
	})

	t.Run("sqlite creates directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "conversations.db")
		cfg := &config.Config{
			Store:  config.StoreConfig{Backend: config.BackendSQLite, Collection: "c"},
			SQLite: config.SQLiteConfig{Path: path},
		}
		store, err := reg.Open(ctx, cfg)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &sqlstore.Store{}, store)
		assert.FileExists(t, path)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := reg.Open(ctx, &config.Config{Store: config.StoreConfig{Backend: "cassandra"}})
		assert.EqualError(t, err, "unsupported store backend: cassandra")
	})
}

func TestRegistry_OpenWrapsFactoryError(t *testing.T) {
	reg := NewRegistry()
	reg.Register("broken", func(ctx context.Context, cfg *config.Config) (domain.ConversationStore, error) {
		return nil, errors.New("boom")
	})

	_, err := reg.Open(context.Background(), &config.Config{Store: config.StoreConfig{Backend: "broken"}})
	assert.EqualError(t, err, "failed to open broken store: boom")
}
