package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Santhosh-Rony/growdigo-qdrant/internal/domain"
)

// MockConversationStore mocks the ConversationStore interface
type MockConversationStore struct {
	mock.Mock
}

func (m *MockConversationStore) EnsureCollection(ctx context.Context, spec domain.CollectionSpec) error {
	args := m.Called(ctx, spec)
	return args.Error(0)
}

func (m *MockConversationStore) Upsert(ctx context.Context, id int64, vector []float32, payload *domain.Conversation) error {
	args := m.Called(ctx, id, vector, payload)
	return args.Error(0)
}

func (m *MockConversationStore) Get(ctx context.Context, id int64) (*domain.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conversation), args.Error(1)
}

func (m *MockConversationStore) List(ctx context.Context, limit int) ([]domain.Conversation, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Conversation), args.Error(1)
}

func (m *MockConversationStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockConversationStore) Collections(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockConversationStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
