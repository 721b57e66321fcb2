// Package mongo stores conversations as documents keyed by conversation id.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Santhosh-Rony/growdigo-qdrant/internal/domain"
)

const closeTimeout = 5 * time.Second

type messageDocument struct {
	ID        int64  `bson:"id"`
	Role      string `bson:"role"`
	Content   string `bson:"content"`
	Timestamp string `bson:"timestamp"`
}

type conversationDocument struct {
	ID        int64             `bson:"_id"`
	Title     *string           `bson:"title"`
	Messages  []messageDocument `bson:"messages"`
	UserID    string            `bson:"user_id"`
	CreatedAt string            `bson:"created_at"`
	UpdatedAt string            `bson:"updated_at"`
	Vector    []float64         `bson:"vector"`
}

func toDocument(id int64, vector []float32, conv *domain.Conversation) conversationDocument {
	msgs := make([]messageDocument, len(conv.Messages))
	for i, m := range conv.Messages {
		msgs[i] = messageDocument(m)
	}
	vec := make([]float64, len(vector))
	for i, v := range vector {
		vec[i] = float64(v)
	}
	return conversationDocument{
		ID:        id,
		Title:     conv.Title,
		Messages:  msgs,
		UserID:    conv.UserID,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
		Vector:    vec,
	}
}

func (d conversationDocument) toConversation() domain.Conversation {
	msgs := make([]domain.Message, len(d.Messages))
	for i, m := range d.Messages {
		msgs[i] = domain.Message(m)
	}
	return domain.Conversation{
		ID:        d.ID,
		Title:     d.Title,
		Messages:  msgs,
		UserID:    d.UserID,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// Store implements domain.ConversationStore on a MongoDB database
type Store struct {
	client     *mongo.Client
	db         *mongo.Database
	collection string
}

// NewStore connects to MongoDB and verifies the connection
func NewStore(ctx context.Context, uri, database, collection string) (*Store, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is required")
	}
	if database == "" {
		return nil, errors.New("mongo database name is required")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Store{client: client, db: client.Database(database), collection: collection}, nil
}

func (s *Store) coll() *mongo.Collection {
	return s.db.Collection(s.collection)
}

// EnsureCollection creates the collection when it is missing. MongoDB does
// not enforce the vector dimension.
func (s *Store) EnsureCollection(ctx context.Context, spec domain.CollectionSpec) error {
	names, err := s.db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: spec.Name}})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	if len(names) > 0 {
		return nil
	}

	if err := s.db.CreateCollection(ctx, spec.Name); err != nil {
		var cmdErr mongo.CommandError
		// NamespaceExists
		if errors.As(err, &cmdErr) && cmdErr.Code == 48 {
			return nil
		}
		return fmt.Errorf("failed to create collection %s: %w", spec.Name, err)
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, id int64, vector []float32, payload *domain.Conversation) error {
	doc := toDocument(id, vector, payload)
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll().ReplaceOne(ctx, bson.M{"_id": id}, doc, opts); err != nil {
		return fmt.Errorf("failed to upsert conversation: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id int64) (*domain.Conversation, error) {
	var doc conversationDocument
	err := s.coll().FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	conv := doc.toConversation()
	return &conv, nil
}

func (s *Store) List(ctx context.Context, limit int) ([]domain.Conversation, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"vector": 0})

	cursor, err := s.coll().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer cursor.Close(ctx)

	out := []domain.Conversation{}
	for cursor.Next(ctx) {
		var doc conversationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode conversation: %w", err)
		}
		out = append(out, doc.toConversation())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	if _, err := s.coll().DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

func (s *Store) Collections(ctx context.Context) (int, error) {
	names, err := s.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("failed to list collections: %w", err)
	}
	return len(names), nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}
