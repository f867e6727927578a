// Package engine is the conversation state machine. Decide and
// ResolveValidation are pure: they never touch the store, the renderer or the
// validator, which keeps every transition unit-testable in isolation.
package engine

import (
	"strings"

	"mia/internal/conversation/models"
	"mia/pkg/domain"
)

// Template names the engine selects from. The renderer owns their content.
const (
	TemplateGreeting           = "greeting"
	TemplateRequestDocument    = "request-document"
	TemplateNotClient          = "not-client"
	TemplateValidationSuccess  = "validation-success"
	TemplateValidationFailure  = "validation-failure"
	TemplateValidationExceeded = "validation-exceeded"
	TemplateTimeoutEnd         = "timeout-end"
	TemplateOfferCard          = "offer-card"
	TemplateOfferLoan          = "offer-loan"
	TemplateOfferInvestment    = "offer-investment"
	TemplateOfferInsurance     = "offer-insurance"
	TemplateOfferGeneric       = "offer-generic"
)

// Decision is the outcome of one transition: where the conversation goes,
// what gets said, and what must be persisted.
type Decision struct {
	Next     models.State
	Template string
	Mutation models.Mutation

	// NeedsValidation asks the orchestrator to run the identity validator on
	// Document and feed the result back through ResolveValidation.
	NeedsValidation bool
	Document        string

	// ResetFromUnknown marks the defensive reset of an undefined stored
	// state. The caller must log it as an anomaly.
	ResetFromUnknown bool
}

var affirmatives = map[string]struct{}{
	"sim": {}, "s": {}, "yes": {}, "y": {},
	"isso": {}, "correto": {}, "sou eu": {}, "sou": {},
}

var negatives = map[string]struct{}{
	"não": {}, "nao": {}, "n": {}, "no": {},
	"não sou": {}, "nao sou": {},
}

// offerKeywords route post-validation messages to product offer templates.
// Substring match, diacritics covered both ways.
var offerKeywords = []struct {
	substrings []string
	template   string
}{
	{[]string{"cartão", "cartao"}, TemplateOfferCard},
	{[]string{"empréstimo", "emprestimo", "financiamento"}, TemplateOfferLoan},
	{[]string{"invest"}, TemplateOfferInvestment},
	{[]string{"seguro"}, TemplateOfferInsurance},
}

// Decide computes the transition for an inbound message given the current
// session. It never mutates sess.
func Decide(sess models.Session, message string) Decision {
	switch sess.State {
	case models.StateGreeting:
		return Decision{
			Next:     models.StateConfirmName,
			Template: TemplateGreeting,
			Mutation: models.Mutation{State: models.StatePtr(models.StateConfirmName)},
		}

	case models.StateConfirmName:
		return decideConfirmName(sess, message)

	case models.StateRequestDocument:
		return decideRequestDocument(sess, message)

	case models.StateValidated:
		return decideValidated(sess, message)

	case models.StateClosed:
		return Decision{Next: models.StateClosed, Template: TemplateTimeoutEnd}

	default:
		// Undefined stored state: re-greet and restart from name
		// confirmation. Not a silent success, the caller logs it.
		return Decision{
			Next:             models.StateConfirmName,
			Template:         TemplateGreeting,
			Mutation:         models.Mutation{State: models.StatePtr(models.StateConfirmName)},
			ResetFromUnknown: true,
		}
	}
}

func decideConfirmName(sess models.Session, message string) Decision {
	normalized := strings.ToLower(strings.TrimSpace(message))
	if normalized == "" {
		return Decision{Next: models.StateConfirmName, Template: TemplateGreeting}
	}

	if _, ok := affirmatives[normalized]; ok {
		return Decision{
			Next:     models.StateRequestDocument,
			Template: TemplateRequestDocument,
			Mutation: models.Mutation{State: models.StatePtr(models.StateRequestDocument)},
		}
	}

	if _, ok := negatives[normalized]; ok {
		return Decision{
			Next:     models.StateClosed,
			Template: TemplateNotClient,
			Mutation: models.Mutation{State: models.StatePtr(models.StateClosed)},
		}
	}

	// Ambiguous answer: repeat the question, persist nothing.
	return Decision{Next: models.StateConfirmName, Template: TemplateGreeting}
}

func decideRequestDocument(sess models.Session, message string) Decision {
	if strings.TrimSpace(message) == "" {
		return Decision{Next: models.StateRequestDocument, Template: TemplateRequestDocument}
	}

	document := domain.SanitizeDocument(message)
	if len(document) != sess.DocumentType().Digits() {
		// A malformed document is a wrong answer like any other: it burns an
		// attempt under the same cap as a failed lookup.
		return failAttempt(sess)
	}

	return Decision{
		Next:            sess.State,
		NeedsValidation: true,
		Document:        document,
	}
}

// ResolveValidation turns the validator verdict for a well-formed document
// into the final transition.
func ResolveValidation(sess models.Session, valid bool) Decision {
	if valid {
		return Decision{
			Next:     models.StateValidated,
			Template: TemplateValidationSuccess,
			Mutation: models.Mutation{
				State:       models.StatePtr(models.StateValidated),
				IsValidated: models.BoolPtr(true),
			},
		}
	}
	return failAttempt(sess)
}

// failAttempt increments the attempt counter and forces CLOSED at the cap.
func failAttempt(sess models.Session) Decision {
	attempts := sess.ValidationAttempts + 1

	if attempts >= models.MaxValidationAttempts {
		return Decision{
			Next:     models.StateClosed,
			Template: TemplateValidationExceeded,
			Mutation: models.Mutation{
				State:              models.StatePtr(models.StateClosed),
				ValidationAttempts: models.IntPtr(attempts),
			},
		}
	}

	return Decision{
		Next:     models.StateRequestDocument,
		Template: TemplateValidationFailure,
		Mutation: models.Mutation{ValidationAttempts: models.IntPtr(attempts)},
	}
}

func decideValidated(sess models.Session, message string) Decision {
	if strings.TrimSpace(message) == "" {
		// Unusual, but harmless: repeat the success message and wait.
		return Decision{Next: models.StateValidated, Template: TemplateValidationSuccess}
	}

	lower := strings.ToLower(message)
	template := TemplateOfferGeneric
	for _, kw := range offerKeywords {
		for _, sub := range kw.substrings {
			if strings.Contains(lower, sub) {
				template = kw.template
				break
			}
		}
		if template != TemplateOfferGeneric {
			break
		}
	}

	return Decision{
		Next:     models.StateClosed,
		Template: template,
		Mutation: models.Mutation{State: models.StatePtr(models.StateClosed)},
	}
}
