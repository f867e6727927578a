package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"mia/internal/conversation/models"
	"mia/pkg/platform/sentinel"
	"mia/pkg/requestcontext"
)

// PostgresStore is the durable session store over the conversations and
// customers tables.
type PostgresStore struct {
	db          *sql.DB
	companyName string
}

// NewPostgres constructs a PostgreSQL-backed session store. companyName feeds
// the presentation bag; it is deployment config, not customer data.
func NewPostgres(db *sql.DB, companyName string) *PostgresStore {
	return &PostgresStore{db: db, companyName: companyName}
}

func (s *PostgresStore) Get(ctx context.Context, sessionID string) (models.Session, error) {
	const query = `
		SELECT c.id, c.customer_id, c.channel, c.state, c.validation_attempts,
		       c.is_validated, c.last_message_at,
		       cu.client_name, cu.first_name, cu.document_type
		FROM conversations c
		JOIN customers cu ON cu.id = c.customer_id
		WHERE c.session_id = $1
	`

	var sess models.Session
	var docType string
	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(
		&sess.ID,
		&sess.CustomerID,
		&sess.Channel,
		&sess.State,
		&sess.ValidationAttempts,
		&sess.IsValidated,
		&sess.LastMessageAt,
		&sess.TemplateData.ClientName,
		&sess.TemplateData.FirstName,
		&docType,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("get session: %w", err)
	}

	sess.SessionID = sessionID
	sess.ConversationID = sess.ID
	sess.TemplateData.CompanyName = s.companyName
	sess.TemplateData.IsCPF = docType == "CPF"
	return sess, nil
}

func (s *PostgresStore) Create(ctx context.Context, customerID, sessionID, channel string) (models.Session, error) {
	if customerID == "" {
		return models.Session{}, fmt.Errorf("customer id is required: %w", sentinel.ErrNotFound)
	}

	const customerQuery = `
		SELECT client_name, first_name, document_type
		FROM customers
		WHERE id = $1
	`
	var clientName, firstName, docType string
	err := s.db.QueryRowContext(ctx, customerQuery, customerID).Scan(&clientName, &firstName, &docType)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, fmt.Errorf("customer %s: %w", customerID, sentinel.ErrNotFound)
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("find customer: %w", err)
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	conversationID := uuid.NewString()
	now := requestcontext.Now(ctx)

	const insertQuery = `
		INSERT INTO conversations (id, session_id, customer_id, channel, state, validation_attempts, is_validated, last_message_at)
		VALUES ($1, $2, $3, $4, $5, 0, FALSE, $6)
	`
	_, err = s.db.ExecContext(ctx, insertQuery,
		conversationID, sessionID, customerID, channel, string(models.StateGreeting), now,
	)
	if err != nil {
		return models.Session{}, fmt.Errorf("create conversation: %w", err)
	}

	return models.Session{
		ID:             conversationID,
		SessionID:      sessionID,
		ConversationID: conversationID,
		CustomerID:     customerID,
		Channel:        channel,
		State:          models.StateGreeting,
		LastMessageAt:  now,
		TemplateData: models.TemplateData{
			CompanyName: s.companyName,
			ClientName:  clientName,
			FirstName:   firstName,
			IsCPF:       docType == "CPF",
		},
	}, nil
}

func (s *PostgresStore) Update(ctx context.Context, sessionID string, m models.Mutation) error {
	if sessionID == "" {
		// No-op by contract; see Store.
		return nil
	}

	set := "last_message_at = $1"
	args := []any{requestcontext.Now(ctx)}
	idx := 2

	if m.State != nil {
		set += fmt.Sprintf(", state = $%d", idx)
		args = append(args, string(*m.State))
		idx++
	}
	if m.ValidationAttempts != nil {
		set += fmt.Sprintf(", validation_attempts = $%d", idx)
		args = append(args, *m.ValidationAttempts)
		idx++
	}
	if m.IsValidated != nil {
		set += fmt.Sprintf(", is_validated = $%d", idx)
		args = append(args, *m.IsValidated)
		idx++
	}

	query := fmt.Sprintf("UPDATE conversations SET %s WHERE session_id = $%d", set, idx)
	args = append(args, sessionID)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
