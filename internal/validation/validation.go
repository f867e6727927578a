// Package validation checks a submitted CPF/CNPJ against the bank's records.
// The actual check is a stand-in kept behind the Validator interface so a real
// registry client can replace it without touching the conversation flow.
package validation

import (
	"context"

	"mia/pkg/domain"
)

// Kind classifies a validation outcome. Exactly one applies per attempt.
type Kind string

const (
	KindSuccess       Kind = "SUCCESS"
	KindInvalidFormat Kind = "INVALID_FORMAT"
	KindNotFound      Kind = "DOCUMENT_NOT_FOUND"
	KindSystemError   Kind = "SYSTEM_ERROR"
)

// Product is a next-step product suggestion returned on success.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	PreApproved bool    `json:"preApproved"`
	Limit       float64 `json:"limit"`
}

// Outcome is the immutable result of one identity-check attempt. The raw
// document is never part of it; only the masked form survives.
type Outcome struct {
	Kind              Kind
	DocumentType      domain.DocumentType
	MaskedDocument    string
	RiskLevel         string
	UserMessage       string
	SuggestedProducts []Product
}

// Success reports whether the attempt validated the customer.
func (o Outcome) Success() bool { return o.Kind == KindSuccess }

// Validator performs one identity check. Implementations must not panic
// across this boundary and must be safe to retry; the audit append is the
// only side effect.
type Validator interface {
	Validate(ctx context.Context, document string, docType domain.DocumentType, conversationID, expectedName string) Outcome
}
