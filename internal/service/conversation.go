package service

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Santhosh-Rony/growdigo-qdrant/internal/domain"
	"github.com/Santhosh-Rony/growdigo-qdrant/internal/vector"
)

// DefaultListLimit is the number of points scanned by List when no limit is given
const DefaultListLimit = 50

// ConversationService handles conversation operations
type ConversationService struct {
	store domain.ConversationStore
	now   func() time.Time
}

// NewConversationService creates a new conversation service
func NewConversationService(store domain.ConversationStore) *ConversationService {
	return &ConversationService{
		store: store,
		now:   time.Now,
	}
}

func (s *ConversationService) timestamp() string {
	return s.now().UTC().Format(domain.TimestampLayout)
}

// encodedCreate is the record whose vector is stored on creation
type encodedCreate struct {
	Title    *string          `json:"title"`
	Messages []domain.Message `json:"messages"`
	UserID   string           `json:"user_id"`
}

// Create stores a conversation under its caller-assigned id, overwriting any
// existing point with the same id.
func (s *ConversationService) Create(ctx context.Context, conv *domain.Conversation) (*domain.Conversation, error) {
	if err := validateConversation(conv); err != nil {
		return nil, err
	}

	out := conv.Clone()
	if (out.Title == nil || *out.Title == "") && len(out.Messages) > 0 {
		title := GenerateTitle(out.Messages[0].Content)
		out.Title = &title
	}

	now := s.timestamp()
	if out.CreatedAt == "" {
		out.CreatedAt = now
	}
	out.UpdatedAt = now

	vec := vector.Encode(encodedCreate{Title: out.Title, Messages: out.Messages, UserID: out.UserID})
	if err := s.store.Upsert(ctx, out.ID, vec, out); err != nil {
		return nil, &domain.StoreError{Op: "saving", Err: err}
	}

	log.Debug().Int64("conversation_id", out.ID).Str("user_id", out.UserID).Msg("conversation saved")
	return out, nil
}

// List returns the user's conversations among the first limit stored points,
// most recently updated first. The owner filter runs after the scan, so fewer
// than limit results may be returned even when the user has more.
func (s *ConversationService) List(ctx context.Context, userID string, limit int) ([]domain.Conversation, error) {
	if limit <= 0 {
		return nil, domain.NewValidationError("limit", "must be a positive integer")
	}

	points, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, &domain.StoreError{Op: "getting", Err: err}
	}

	out := make([]domain.Conversation, 0, len(points))
	for _, p := range points {
		if p.UserID == userID {
			out = append(out, p)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt > out[j].UpdatedAt
	})
	return out, nil
}

// Get returns a conversation owned by userID
func (s *ConversationService) Get(ctx context.Context, userID string, id int64) (*domain.Conversation, error) {
	return s.authorize(ctx, "getting", userID, id)
}

// Update replaces the messages of a conversation owned by userID. Concurrent
// updates to the same id are not coordinated; the last write wins.
func (s *ConversationService) Update(ctx context.Context, userID string, id int64, messages []domain.Message) (*domain.Conversation, error) {
	if messages == nil {
		return nil, domain.NewValidationError("messages", "required")
	}

	existing, err := s.authorize(ctx, "updating", userID, id)
	if err != nil {
		return nil, err
	}

	updated := existing.Clone()
	updated.Messages = append([]domain.Message{}, messages...)
	updated.UpdatedAt = s.timestamp()

	if err := s.store.Upsert(ctx, id, vector.Encode(updated), updated); err != nil {
		return nil, &domain.StoreError{Op: "updating", Err: err}
	}

	log.Debug().Int64("conversation_id", id).Str("user_id", userID).Msg("conversation updated")
	return updated, nil
}

// Delete removes a conversation owned by userID
func (s *ConversationService) Delete(ctx context.Context, userID string, id int64) error {
	if _, err := s.authorize(ctx, "deleting", userID, id); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return &domain.StoreError{Op: "deleting", Err: err}
	}

	log.Debug().Int64("conversation_id", id).Str("user_id", userID).Msg("conversation deleted")
	return nil
}

// authorize fetches a conversation and checks it belongs to userID. A missing
// conversation and one owned by someone else are indistinguishable.
func (s *ConversationService) authorize(ctx context.Context, op, userID string, id int64) (*domain.Conversation, error) {
	conv, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, &domain.StoreError{Op: op, Err: err}
	}
	if conv == nil || conv.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return conv, nil
}

// Bootstrap makes sure the collection exists. Failures are logged and
// swallowed so the service can start while the store is unavailable.
func (s *ConversationService) Bootstrap(ctx context.Context, name string) {
	if err := s.EnsureCollection(ctx, name); err != nil {
		log.Warn().Err(err).Str("collection", name).Msg("Error initializing collection")
		return
	}
	log.Info().Str("collection", name).Msg("Collection ready")
}

// EnsureCollection creates the conversation collection if it is missing
func (s *ConversationService) EnsureCollection(ctx context.Context, name string) error {
	return s.store.EnsureCollection(ctx, domain.CollectionSpec{
		Name:      name,
		Dimension: vector.Dimension,
		Distance:  domain.DistanceCosine,
	})
}

// Health pings the store and returns the number of collections it holds
func (s *ConversationService) Health(ctx context.Context) (int, error) {
	return s.store.Collections(ctx)
}

func validateConversation(conv *domain.Conversation) error {
	if conv == nil {
		return domain.NewValidationError("body", "required")
	}

	fields := map[string]string{}
	if conv.ID < 0 {
		fields["id"] = "must be greater than or equal to 0"
	}
	if conv.UserID == "" {
		fields["user_id"] = "required"
	}
	if conv.Messages == nil {
		fields["messages"] = "required"
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}
