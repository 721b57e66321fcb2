// Package repository wires the configured conversation store backend.
package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/Santhosh-Rony/growdigo-qdrant/internal/config"
	"github.com/Santhosh-Rony/growdigo-qdrant/internal/domain"
	"github.com/Santhosh-Rony/growdigo-qdrant/internal/repository/memory"
	"github.com/Santhosh-Rony/growdigo-qdrant/internal/repository/mongo"
	"github.com/Santhosh-Rony/growdigo-qdrant/internal/repository/postgres"
	"github.com/Santhosh-Rony/growdigo-qdrant/internal/repository/qdrant"
	"github.com/Santhosh-Rony/growdigo-qdrant/internal/repository/sqlstore"
)

// Factory opens a store for the given configuration
type Factory func(ctx context.Context, cfg *config.Config) (domain.ConversationStore, error)

// Registry maps backend names to store factories
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register registers a factory for a backend name
func (r *Registry) Register(backend string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[backend] = factory
}

// Supported returns the registered backend names, sorted
func (r *Registry) Supported() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open creates the store selected by cfg.Store.Backend
func (r *Registry) Open(ctx context.Context, cfg *config.Config) (domain.ConversationStore, error) {
	r.mu.RLock()
	factory, ok := r.factories[cfg.Store.Backend]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Store.Backend)
	}

	store, err := factory(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}
	return store, nil
}

// DefaultRegistry returns a registry with every built-in backend
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(config.BackendQdrant, func(ctx context.Context, cfg *config.Config) (domain.ConversationStore, error) {
		return qdrant.NewStore(cfg.Qdrant, cfg.Store.Collection), nil
	})

	r.Register(config.BackendPostgres, func(ctx context.Context, cfg *config.Config) (domain.ConversationStore, error) {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		return postgres.NewConversationRepository(db, cfg.Store.Collection), nil
	})

	r.Register(config.BackendMySQL, func(ctx context.Context, cfg *config.Config) (domain.ConversationStore, error) {
		return sqlstore.Open(ctx, sqlstore.MySQL, cfg.MySQL.DSN, cfg.Store.Collection, cfg.MySQL.MaxConns)
	})

	r.Register(config.BackendSQLite, func(ctx context.Context, cfg *config.Config) (domain.ConversationStore, error) {
		if dir := filepath.Dir(cfg.SQLite.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
			}
		}
		return sqlstore.OpenSQLite(ctx, cfg.SQLite.Path, cfg.Store.Collection)
	})

	r.Register(config.BackendMongo, func(ctx context.Context, cfg *config.Config) (domain.ConversationStore, error) {
		return mongo.NewStore(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Store.Collection)
	})

	r.Register(config.BackendMemory, func(ctx context.Context, cfg *config.Config) (domain.ConversationStore, error) {
		return memory.NewStore(cfg.Store.Collection), nil
	})

	return r
}
