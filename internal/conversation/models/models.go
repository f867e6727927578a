package models

import (
	"time"

	"mia/pkg/domain"
)

// State is the conversation state machine position. Values are stored as-is,
// so renames are wire changes.
type State string

const (
	StateGreeting        State = "GREETING"
	StateConfirmName     State = "CONFIRM_NAME"
	StateRequestDocument State = "REQUEST_DOCUMENT"
	StateValidated       State = "VALIDATED"
	StateClosed          State = "CLOSED"
)

// Known reports whether s is one of the defined states. Anything else falls
// into the engine's reset bucket.
func (s State) Known() bool {
	switch s {
	case StateGreeting, StateConfirmName, StateRequestDocument, StateValidated, StateClosed:
		return true
	}
	return false
}

// MaxValidationAttempts caps failed document submissions per session. Reaching
// it forces the conversation to CLOSED.
const MaxValidationAttempts = 3

// TemplateData is the read-mostly presentation bag handed to the renderer.
// It never participates in transition decisions.
type TemplateData struct {
	CompanyName string `json:"companyName"`
	ClientName  string `json:"clientName"`
	FirstName   string `json:"firstName"`
	IsCPF       bool   `json:"isCPF"`
}

// Session is one customer's in-progress identification dialog. The engine
// works on an in-memory copy; the store owns persistence.
type Session struct {
	ID                 string       `json:"id"`
	SessionID          string       `json:"sessionId"`
	ConversationID     string       `json:"conversationId"`
	CustomerID         string       `json:"customerId"`
	Channel            string       `json:"channel"`
	State              State        `json:"state"`
	ValidationAttempts int          `json:"validationAttempts"`
	IsValidated        bool         `json:"isValidated"`
	LastMessageAt      time.Time    `json:"lastMessageAt"`
	TemplateData       TemplateData `json:"templateData"`
}

// DocumentType derives the expected document type from the presentation bag.
func (s Session) DocumentType() domain.DocumentType {
	if s.TemplateData.IsCPF {
		return domain.DocumentTypeCPF
	}
	return domain.DocumentTypeCNPJ
}

// Mutation is a partial session update. Nil fields are left untouched; the
// store always refreshes the last-message timestamp.
type Mutation struct {
	State              *State
	ValidationAttempts *int
	IsValidated        *bool
}

// Apply returns a copy of sess with the mutation folded in, so callers can
// report consistent values without re-reading the store.
func (m Mutation) Apply(sess Session, now time.Time) Session {
	if m.State != nil {
		sess.State = *m.State
	}
	if m.ValidationAttempts != nil {
		sess.ValidationAttempts = *m.ValidationAttempts
	}
	if m.IsValidated != nil {
		sess.IsValidated = *m.IsValidated
	}
	sess.LastMessageAt = now
	return sess
}

// IsZero reports whether the mutation changes nothing.
func (m Mutation) IsZero() bool {
	return m.State == nil && m.ValidationAttempts == nil && m.IsValidated == nil
}

// StatePtr is a convenience for building mutations.
func StatePtr(s State) *State { return &s }

// IntPtr is a convenience for building mutations.
func IntPtr(v int) *int { return &v }

// BoolPtr is a convenience for building mutations.
func BoolPtr(v bool) *bool { return &v }
