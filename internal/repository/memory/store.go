// Package memory provides an in-process conversation store used for local
// development and tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Santhosh-Rony/growdigo-qdrant/internal/domain"
)

type point struct {
	vector  []float32
	payload *domain.Conversation
}

// Store implements domain.ConversationStore on top of a map
type Store struct {
	mu          sync.RWMutex
	collections map[string]domain.CollectionSpec
	collection  string
	points      map[int64]point
	closed      bool
}

// NewStore creates an empty store operating on the given collection
func NewStore(collection string) *Store {
	return &Store{
		collections: make(map[string]domain.CollectionSpec),
		collection:  collection,
		points:      make(map[int64]point),
	}
}

var errClosed = errors.New("memory store is closed")

func (s *Store) EnsureCollection(ctx context.Context, spec domain.CollectionSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed
	}
	if _, ok := s.collections[spec.Name]; ok {
		return nil
	}
	s.collections[spec.Name] = spec
	return nil
}

func (s *Store) Upsert(ctx context.Context, id int64, vector []float32, payload *domain.Conversation) error {
	if payload == nil {
		return fmt.Errorf("nil payload for point %d", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed
	}
	s.points[id] = point{
		vector:  append([]float32(nil), vector...),
		payload: payload.Clone(),
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id int64) (*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed
	}
	p, ok := s.points[id]
	if !ok {
		return nil, nil
	}
	return p.payload.Clone(), nil
}

// List returns up to limit conversations in ascending id order
func (s *Store) List(ctx context.Context, limit int) ([]domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed
	}

	ids := make([]int64, 0, len(s.points))
	for id := range s.points {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if limit >= 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	out := make([]domain.Conversation, 0, len(ids))
	for _, id := range ids {
		out = append(out, *s.points[id].payload.Clone())
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed
	}
	delete(s.points, id)
	return nil
}

func (s *Store) Collections(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, errClosed
	}
	return len(s.collections), nil
}

// Vector returns a copy of the vector stored for id
func (s *Store) Vector(id int64) ([]float32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.points[id]
	if !ok {
		return nil, false
	}
	return append([]float32(nil), p.vector...), true
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
