// Package sqlstore keeps conversation points in a relational table through
// database/sql. It serves both the embedded SQLite backend and MySQL.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/Santhosh-Rony/growdigo-qdrant/internal/domain"
)

// Store implements domain.ConversationStore on a SQL table
type Store struct {
	db      *sql.DB
	dialect Dialect
	table   string
}

// Open connects with the dialect's driver and verifies the connection
func Open(ctx context.Context, dialect Dialect, dsn, table string, maxConns int) (*Store, error) {
	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect.Name, err)
	}

	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
	}
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", dialect.Name, err)
	}

	return New(db, dialect, table), nil
}

// OpenSQLite opens (or creates) an SQLite database file
func OpenSQLite(ctx context.Context, path, table string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	// SQLite only supports one writer
	return Open(ctx, SQLite, dsn, table, 1)
}

// New wraps an existing database handle
func New(db *sql.DB, dialect Dialect, table string) *Store {
	return &Store{db: db, dialect: dialect, table: table}
}

// EnsureCollection creates the backing table. Dimension and distance are not
// enforced by a plain SQL table.
func (s *Store) EnsureCollection(ctx context.Context, spec domain.CollectionSpec) error {
	var count int
	if err := s.db.QueryRowContext(ctx, s.dialect.tableExists, spec.Name).Scan(&count); err != nil {
		return fmt.Errorf("failed to check table %s: %w", spec.Name, err)
	}
	if count > 0 {
		return nil
	}

	if _, err := s.db.ExecContext(ctx, s.dialect.createTable(spec.Name)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", spec.Name, err)
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, id int64, vector []float32, payload *domain.Conversation) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	embedding, err := EncodeEmbedding(vector)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, s.dialect.upsertStmt(s.table), id, payload.UserID, string(data), embedding); err != nil {
		return fmt.Errorf("failed to upsert conversation: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id int64) (*domain.Conversation, error) {
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE id = ?`, s.dialect.quote(s.table))

	var data string
	err := s.db.QueryRowContext(ctx, query, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	var conv domain.Conversation
	if err := json.Unmarshal([]byte(data), &conv); err != nil {
		return nil, fmt.Errorf("failed to decode conversation %d: %w", id, err)
	}
	return &conv, nil
}

func (s *Store) List(ctx context.Context, limit int) ([]domain.Conversation, error) {
	query := fmt.Sprintf(`SELECT payload FROM %s ORDER BY id LIMIT ?`, s.dialect.quote(s.table))

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	out := []domain.Conversation{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		var conv domain.Conversation
		if err := json.Unmarshal([]byte(data), &conv); err != nil {
			return nil, fmt.Errorf("failed to decode conversation: %w", err)
		}
		out = append(out, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, s.dialect.quote(s.table))
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

func (s *Store) Collections(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, s.dialect.countTables).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tables: %w", err)
	}
	return count, nil
}

// Vector loads the stored embedding for id
func (s *Store) Vector(ctx context.Context, id int64) ([]float32, error) {
	query := fmt.Sprintf(`SELECT embedding FROM %s WHERE id = ?`, s.dialect.quote(s.table))

	var blob []byte
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&blob); err != nil {
		return nil, fmt.Errorf("failed to load embedding: %w", err)
	}
	return DecodeEmbedding(blob)
}

func (s *Store) Close() error {
	return s.db.Close()
}
