// Package customer resolves the bank customers a conversation can be opened
// for. Records are provisioned out of band; this service only reads them.
package customer

import (
	"context"

	"mia/pkg/domain"
)

// Customer is a known bank customer eligible for the identification dialog.
type Customer struct {
	ID           string
	ClientName   string
	FirstName    string
	DocumentType domain.DocumentType
}

// Store looks up customers. Implementations return sentinel.ErrNotFound when
// the id does not resolve.
type Store interface {
	FindByID(ctx context.Context, id string) (Customer, error)
}
