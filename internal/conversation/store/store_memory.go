package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"mia/internal/conversation/models"
	"mia/internal/customer"
	"mia/pkg/platform/sentinel"
	"mia/pkg/requestcontext"
)

// InMemoryStore is the map-backed twin of PostgresStore for unit tests and
// database-less local runs.
type InMemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string]models.Session
	customers   customer.Store
	companyName string
}

// NewInMemory creates an in-memory session store resolving customers through
// the given store.
func NewInMemory(customers customer.Store, companyName string) *InMemoryStore {
	return &InMemoryStore{
		sessions:    make(map[string]models.Session),
		customers:   customers,
		companyName: companyName,
	}
}

func (s *InMemoryStore) Get(_ context.Context, sessionID string) (models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return models.Session{}, sentinel.ErrNotFound
	}
	return sess, nil
}

func (s *InMemoryStore) Create(ctx context.Context, customerID, sessionID, channel string) (models.Session, error) {
	cust, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return models.Session{}, fmt.Errorf("customer %s: %w", customerID, err)
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	conversationID := uuid.NewString()

	sess := models.Session{
		ID:             conversationID,
		SessionID:      sessionID,
		ConversationID: conversationID,
		CustomerID:     customerID,
		Channel:        channel,
		State:          models.StateGreeting,
		LastMessageAt:  requestcontext.Now(ctx),
		TemplateData: models.TemplateData{
			CompanyName: s.companyName,
			ClientName:  cust.ClientName,
			FirstName:   cust.FirstName,
			IsCPF:       cust.DocumentType.IsCPF(),
		},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[sessionID]; exists {
		return models.Session{}, sentinel.ErrConflict
	}
	s.sessions[sessionID] = sess
	return sess, nil
}

func (s *InMemoryStore) Update(ctx context.Context, sessionID string, m models.Mutation) error {
	if sessionID == "" {
		// No-op by contract; see Store.
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return sentinel.ErrNotFound
	}
	s.sessions[sessionID] = m.Apply(sess, requestcontext.Now(ctx))
	return nil
}
