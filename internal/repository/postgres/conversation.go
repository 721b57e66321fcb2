package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/Santhosh-Rony/growdigo-qdrant/internal/domain"
)

// ConversationRepository implements domain.ConversationStore using
// Postgres + pgvector. Each collection is a table.
type ConversationRepository struct {
	db    *DB
	table string
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *DB, table string) *ConversationRepository {
	return &ConversationRepository{db: db, table: table}
}

func (r *ConversationRepository) ident() string {
	return pgx.Identifier{r.table}.Sanitize()
}

// EnsureCollection creates the pgvector extension, the table and an HNSW
// index matching the distance metric when the table is missing.
func (r *ConversationRepository) EnsureCollection(ctx context.Context, spec domain.CollectionSpec) error {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = $1
		)
	`, spec.Name).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check table %s: %w", spec.Name, err)
	}
	if exists {
		return nil
	}

	table := pgx.Identifier{spec.Name}.Sanitize()
	index := pgx.Identifier{spec.Name + "_embedding_idx"}.Sanitize()
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id BIGINT PRIMARY KEY,
			user_id TEXT NOT NULL,
			payload JSONB NOT NULL,
			embedding vector(%d) NOT NULL
		)`, table, spec.Dimension),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding %s)`,
			index, table, operatorClass(spec.Distance)),
	}

	for _, stmt := range statements {
		if _, err := r.db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table %s: %w", spec.Name, err)
		}
	}
	return nil
}

func (r *ConversationRepository) Upsert(ctx context.Context, id int64, vector []float32, payload *domain.Conversation) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, payload, embedding)
		VALUES ($1, $2, $3::jsonb, $4::vector)
		ON CONFLICT (id) DO UPDATE
		SET user_id = EXCLUDED.user_id, payload = EXCLUDED.payload, embedding = EXCLUDED.embedding
	`, r.ident())

	if _, err := r.db.Pool.Exec(ctx, query, id, payload.UserID, string(data), pgvector.NewVector(vector)); err != nil {
		return fmt.Errorf("failed to upsert conversation: %w", err)
	}
	return nil
}

func (r *ConversationRepository) Get(ctx context.Context, id int64) (*domain.Conversation, error) {
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE id = $1`, r.ident())

	var data []byte
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	var conv domain.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("failed to decode conversation %d: %w", id, err)
	}
	return &conv, nil
}

func (r *ConversationRepository) List(ctx context.Context, limit int) ([]domain.Conversation, error) {
	query := fmt.Sprintf(`SELECT payload FROM %s ORDER BY id LIMIT $1`, r.ident())

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	conversations := []domain.Conversation{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		var conv domain.Conversation
		if err := json.Unmarshal(data, &conv); err != nil {
			return nil, fmt.Errorf("failed to decode conversation: %w", err)
		}
		conversations = append(conversations, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}
	return conversations, nil
}

func (r *ConversationRepository) Delete(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.ident())
	if _, err := r.db.Pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

func (r *ConversationRepository) Collections(ctx context.Context) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
	`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tables: %w", err)
	}
	return count, nil
}

func (r *ConversationRepository) Close() error {
	r.db.Close()
	return nil
}

func operatorClass(d domain.Distance) string {
	switch d {
	case domain.DistanceDot:
		return "vector_ip_ops"
	case domain.DistanceEuclid:
		return "vector_l2_ops"
	default:
		return "vector_cosine_ops"
	}
}
