// Package audit records identity validation attempts. Only the one-way hash
// of the submitted document is kept; the raw document never reaches this
// package.
package audit

import (
	"context"
	"time"

	"mia/pkg/domain"
)

// Entry is one validation attempt.
type Entry struct {
	ConversationID string
	DocumentHash   string
	DocumentType   domain.DocumentType
	Valid          bool
	CreatedAt      time.Time
}

// Store appends validation attempts. Append is the only operation; the trail
// is queried out of band.
type Store interface {
	Append(ctx context.Context, entry Entry) error
}
