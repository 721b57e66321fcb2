package repository

import (
	"context"
	"sync"

	"github.com/Santhosh-Rony/growdigo-qdrant/internal/config"
	"github.com/Santhosh-Rony/growdigo-qdrant/internal/domain"
)

// lazyStore defers opening the backend until the first operation and retries
// on every call until an open succeeds.
type lazyStore struct {
	open  func(ctx context.Context) (domain.ConversationStore, error)
	mu    sync.Mutex
	store domain.ConversationStore
}

// OpenLazy returns a store that connects to the configured backend on first
// use. Connection failures are reported by the operation that triggered them,
// so a server can start while its backend is down.
func (r *Registry) OpenLazy(cfg *config.Config) domain.ConversationStore {
	return &lazyStore{
		open: func(ctx context.Context) (domain.ConversationStore, error) {
			return r.Open(ctx, cfg)
		},
	}
}

func (l *lazyStore) get(ctx context.Context) (domain.ConversationStore, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.store != nil {
		return l.store, nil
	}
	store, err := l.open(ctx)
	if err != nil {
		return nil, err
	}
	l.store = store
	return store, nil
}

func (l *lazyStore) EnsureCollection(ctx context.Context, spec domain.CollectionSpec) error {
	store, err := l.get(ctx)
	if err != nil {
		return err
	}
	return store.EnsureCollection(ctx, spec)
}

func (l *lazyStore) Upsert(ctx context.Context, id int64, vector []float32, payload *domain.Conversation) error {
	store, err := l.get(ctx)
	if err != nil {
		return err
	}
	return store.Upsert(ctx, id, vector, payload)
}

func (l *lazyStore) Get(ctx context.Context, id int64) (*domain.Conversation, error) {
	store, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return store.Get(ctx, id)
}

func (l *lazyStore) List(ctx context.Context, limit int) ([]domain.Conversation, error) {
	store, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return store.List(ctx, limit)
}

func (l *lazyStore) Delete(ctx context.Context, id int64) error {
	store, err := l.get(ctx)
	if err != nil {
		return err
	}
	return store.Delete(ctx, id)
}

func (l *lazyStore) Collections(ctx context.Context) (int, error) {
	store, err := l.get(ctx)
	if err != nil {
		return 0, err
	}
	return store.Collections(ctx)
}

// Close releases the backend if it was ever opened
func (l *lazyStore) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.store == nil {
		return nil
	}
	err := l.store.Close()
	l.store = nil
	return err
}
