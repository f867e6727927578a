// Package store persists conversation sessions. The durable store is
// PostgreSQL; Cached layers a Redis read-through snapshot on top of any Store.
package store

import (
	"context"

	"mia/internal/conversation/models"
)

// Store is the session persistence contract.
//
// Get returns sentinel.ErrNotFound for unknown sessions. Create returns
// sentinel.ErrNotFound (wrapped) when the customer id does not resolve, and
// generates a session id when none is supplied. Update with an empty
// sessionID is a silent no-op by contract: it keeps call sites simple when a
// transition decided to persist nothing.
//
// Sessions are never deleted here; a conversation is logically dead once its
// state reaches CLOSED. Concurrent updates to the same session are
// last-write-wins; callers must not rely on cross-request locking.
type Store interface {
	Get(ctx context.Context, sessionID string) (models.Session, error)
	Create(ctx context.Context, customerID, sessionID, channel string) (models.Session, error)
	Update(ctx context.Context, sessionID string, m models.Mutation) error
}
