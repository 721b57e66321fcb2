package domain

import (
	"context"
)

// TimestampLayout is the UTC ISO-8601 layout used for created_at/updated_at.
// Fixed precision keeps lexicographic and chronological order identical.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Message represents a single chat message inside a conversation
type Message struct {
	ID        int64  `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// Conversation represents a stored chat conversation owned by a single user
type Conversation struct {
	ID        int64     `json:"id"`
	Title     *string   `json:"title"`
	Messages  []Message `json:"messages"`
	UserID    string    `json:"user_id"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}

// Clone returns a deep copy of the conversation
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	out := *c
	if c.Title != nil {
		title := *c.Title
		out.Title = &title
	}
	if c.Messages != nil {
		out.Messages = make([]Message, len(c.Messages))
		copy(out.Messages, c.Messages)
	}
	return &out
}

// MessageInput represents a message in a request body.
// Pointers distinguish a missing field from an empty one.
type MessageInput struct {
	ID        *int64  `json:"id" validate:"required"`
	Role      *string `json:"role" validate:"required"`
	Content   *string `json:"content" validate:"required"`
	Timestamp *string `json:"timestamp" validate:"required"`
}

// ConversationCreate represents the body of a save request
type ConversationCreate struct {
	ID        *int64         `json:"id" validate:"required,gte=0"`
	Title     *string        `json:"title,omitempty"`
	Messages  []MessageInput `json:"messages" validate:"required,dive"`
	UserID    string         `json:"user_id" validate:"required,max=255"`
	CreatedAt *string        `json:"created_at,omitempty"`
	UpdatedAt *string        `json:"updated_at,omitempty"`
}

// ConversationUpdate represents the body of an update request
type ConversationUpdate struct {
	Messages []MessageInput `json:"messages" validate:"required,dive"`
}

// ToMessages converts validated inputs into messages
func ToMessages(inputs []MessageInput) []Message {
	messages := make([]Message, 0, len(inputs))
	for _, in := range inputs {
		var m Message
		if in.ID != nil {
			m.ID = *in.ID
		}
		if in.Role != nil {
			m.Role = *in.Role
		}
		if in.Content != nil {
			m.Content = *in.Content
		}
		if in.Timestamp != nil {
			m.Timestamp = *in.Timestamp
		}
		messages = append(messages, m)
	}
	return messages
}

// ToConversation converts a validated create request into a conversation
func (c ConversationCreate) ToConversation() *Conversation {
	conv := &Conversation{
		Title:    c.Title,
		Messages: ToMessages(c.Messages),
		UserID:   c.UserID,
	}
	if c.ID != nil {
		conv.ID = *c.ID
	}
	if c.CreatedAt != nil {
		conv.CreatedAt = *c.CreatedAt
	}
	if c.UpdatedAt != nil {
		conv.UpdatedAt = *c.UpdatedAt
	}
	return conv
}

// Distance is the similarity metric a collection is configured with
type Distance string

const (
	DistanceCosine Distance = "Cosine"
	DistanceDot    Distance = "Dot"
	DistanceEuclid Distance = "Euclid"
)

// CollectionSpec describes a vector collection
type CollectionSpec struct {
	Name      string
	Dimension int
	Distance  Distance
}

// ConversationStore defines the interface for conversation point storage.
// Get returns nil, nil when the point does not exist.
type ConversationStore interface {
	EnsureCollection(ctx context.Context, spec CollectionSpec) error
	Upsert(ctx context.Context, id int64, vector []float32, payload *Conversation) error
	Get(ctx context.Context, id int64) (*Conversation, error)
	List(ctx context.Context, limit int) ([]Conversation, error)
	Delete(ctx context.Context, id int64) error

	// Collections pings the store and returns how many collections it holds
	Collections(ctx context.Context) (int, error)

	Close() error
}
