package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// PostgresStore persists validation attempts in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed audit store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	const query = `
		INSERT INTO validation_log (id, conversation_id, document_hash, document_type, is_valid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.New(),
		entry.ConversationID,
		entry.DocumentHash,
		string(entry.DocumentType),
		entry.Valid,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert validation log entry: %w", err)
	}
	return nil
}
