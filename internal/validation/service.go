package validation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"mia/internal/audit"
	"mia/pkg/domain"
	"mia/pkg/requestcontext"
)

// Service is the reference Validator. It enforces format, hashes the document
// for the audit trail, and runs the stand-in registry check: any document
// whose digits are not all identical is accepted.
type Service struct {
	auditStore audit.Store
	logger     *slog.Logger
}

// New constructs the reference validator.
func New(auditStore audit.Store, logger *slog.Logger) *Service {
	return &Service{auditStore: auditStore, logger: logger}
}

// Validate implements Validator. Outcomes carry user-facing Portuguese
// messages for the failure branches; success text is rendered by the
// conversation templates instead.
func (s *Service) Validate(ctx context.Context, document string, docType domain.DocumentType, conversationID, expectedName string) (outcome Outcome) {
	// Internal faults must not escape: convert to a SYSTEM_ERROR outcome.
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.ErrorContext(ctx, "validator panic",
				"conversation_id", conversationID,
				"panic", rec,
			)
			outcome = errorOutcome(KindSystemError, docType)
		}
	}()

	sanitized := domain.SanitizeDocument(document)
	if len(sanitized) != docType.Digits() {
		return errorOutcome(KindInvalidFormat, docType)
	}

	// One-way hash only; the raw document is never persisted or logged.
	hash, err := bcrypt.GenerateFromPassword([]byte(sanitized), bcrypt.DefaultCost)
	if err != nil {
		s.logger.ErrorContext(ctx, "document hash failed",
			"conversation_id", conversationID,
			"error", err,
		)
		return errorOutcome(KindSystemError, docType)
	}

	valid := !allSameDigits(sanitized)

	err = s.auditStore.Append(ctx, audit.Entry{
		ConversationID: conversationID,
		DocumentHash:   string(hash),
		DocumentType:   docType,
		Valid:          valid,
		CreatedAt:      requestcontext.Now(ctx),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "validation audit append failed",
			"conversation_id", conversationID,
			"error", err,
		)
		return errorOutcome(KindSystemError, docType)
	}

	if !valid {
		return errorOutcome(KindNotFound, docType)
	}

	return Outcome{
		Kind:           KindSuccess,
		DocumentType:   docType,
		MaskedDocument: MaskDocument(sanitized, docType),
		RiskLevel:      "low",
		SuggestedProducts: []Product{
			{ID: "credit_card_gold", Name: "Cartão Gold", Type: "credit_card", PreApproved: true, Limit: 15000},
		},
	}
}

// MaskDocument replaces all but the last two digits with the mask character,
// formatted per document type.
func MaskDocument(sanitized string, docType domain.DocumentType) string {
	last2 := sanitized
	if len(sanitized) >= 2 {
		last2 = sanitized[len(sanitized)-2:]
	}
	if docType.IsCPF() {
		return "***.***.***." + last2
	}
	return "**.***.***/****-" + last2
}

func allSameDigits(s string) bool {
	if s == "" {
		return false
	}
	return strings.Count(s, s[:1]) == len(s)
}

func errorOutcome(kind Kind, docType domain.DocumentType) Outcome {
	return Outcome{
		Kind:         kind,
		DocumentType: docType,
		RiskLevel:    "medium",
		UserMessage:  userMessage(kind, docType),
	}
}

func userMessage(kind Kind, docType domain.DocumentType) string {
	switch kind {
	case KindInvalidFormat:
		return fmt.Sprintf("%s inválido. %s deve ter %d dígitos.", docType, docType, docType.Digits())
	case KindNotFound:
		return "Não consegui validar o documento informado. Por favor, verifique se digitou corretamente."
	default:
		return "Estou com uma instabilidade técnica momentânea. Tente novamente em alguns minutos."
	}
}
