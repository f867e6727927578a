package customer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mia/pkg/domain"
	"mia/pkg/platform/sentinel"
)

// PostgresStore reads customers from PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed customer store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (Customer, error) {
	const query = `
		SELECT id, client_name, first_name, document_type
		FROM customers
		WHERE id = $1
	`

	var c Customer
	var docType string
	err := s.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.ClientName, &c.FirstName, &docType)
	if errors.Is(err, sql.ErrNoRows) {
		return Customer{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Customer{}, fmt.Errorf("find customer: %w", err)
	}
	c.DocumentType = domain.DocumentType(docType)
	return c, nil
}
