// Package service orchestrates one conversation turn: resolve the session,
// run the engine, consult the validator when asked, render the reply and
// persist the mutation. The reply is only returned after the store write
// completed, so the caller never reports state that failed to commit.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"mia/internal/conversation/engine"
	"mia/internal/conversation/models"
	"mia/internal/platform/metrics"
	"mia/internal/validation"
	dErrors "mia/pkg/domain-errors"
	"mia/pkg/domain"
	"mia/pkg/platform/sentinel"
	"mia/pkg/requestcontext"
)

// ErrSessionWithoutID marks the degenerate case of a session record that
// resolved without a session identifier.
var ErrSessionWithoutID = errors.New("session without id")

// SessionStore is the session persistence the service depends on.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (models.Session, error)
	Create(ctx context.Context, customerID, sessionID, channel string) (models.Session, error)
	Update(ctx context.Context, sessionID string, m models.Mutation) error
}

// Validator performs the identity check for a well-formed document.
type Validator interface {
	Validate(ctx context.Context, document string, docType domain.DocumentType, conversationID, expectedName string) validation.Outcome
}

// Renderer maps a template name and data bag to a response string.
type Renderer interface {
	Render(name string, data any) string
}

// MessageRequest is one inbound message with its session coordinates.
type MessageRequest struct {
	SessionID  string
	Message    string
	CustomerID string
	Channel    string
}

// Result is what the transport reports back for one turn.
type Result struct {
	Response  string
	State     models.State
	SessionID string
}

// Service drives the conversation flow.
type Service struct {
	sessions  SessionStore
	validator Validator
	renderer  Renderer
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service.
func New(sessions SessionStore, validator Validator, renderer Renderer, opts ...Option) *Service {
	s := &Service{
		sessions:  sessions,
		validator: validator,
		renderer:  renderer,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleMessage processes one inbound message end to end.
func (s *Service) HandleMessage(ctx context.Context, req MessageRequest) (Result, error) {
	sess, err := s.resolveSession(ctx, req)
	if err != nil {
		return Result{}, err
	}

	if sess.SessionID == "" {
		s.logger.ErrorContext(ctx, "session resolved without id",
			"request_id", requestcontext.RequestID(ctx),
			"conversation_id", sess.ConversationID,
		)
		return Result{}, ErrSessionWithoutID
	}

	s.metrics.IncrementMessages(string(sess.State))

	decision := engine.Decide(sess, req.Message)
	if decision.ResetFromUnknown {
		s.logger.WarnContext(ctx, "unknown conversation state, resetting",
			"request_id", requestcontext.RequestID(ctx),
			"session_id", sess.SessionID,
			"state", string(sess.State),
		)
	}

	if decision.NeedsValidation {
		start := time.Now()
		outcome := s.validator.Validate(ctx, decision.Document, sess.DocumentType(), sess.ConversationID, sess.TemplateData.ClientName)
		s.metrics.ObserveValidation(time.Since(start), string(outcome.Kind))
		decision = engine.ResolveValidation(sess, outcome.Success())
	}

	response := s.renderer.Render(decision.Template, sess.TemplateData)

	if !decision.Mutation.IsZero() {
		if err := s.sessions.Update(ctx, sess.SessionID, decision.Mutation); err != nil {
			s.logger.ErrorContext(ctx, "session update failed",
				"request_id", requestcontext.RequestID(ctx),
				"session_id", sess.SessionID,
				"state", string(sess.State),
				"next_state", string(decision.Next),
				"error", err,
			)
			return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist session")
		}
	}

	return Result{
		Response:  response,
		State:     decision.Next,
		SessionID: sess.SessionID,
	}, nil
}

func (s *Service) resolveSession(ctx context.Context, req MessageRequest) (models.Session, error) {
	if req.SessionID != "" {
		sess, err := s.sessions.Get(ctx, req.SessionID)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.ErrorContext(ctx, "session lookup failed",
				"request_id", requestcontext.RequestID(ctx),
				"session_id", req.SessionID,
				"error", err,
			)
			return models.Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
		}
	}

	// First contact (or a session id the store no longer knows).
	if req.CustomerID == "" {
		return models.Session{}, dErrors.New(dErrors.CodeBadRequest, "customerId é obrigatório na primeira mensagem")
	}

	channel := req.Channel
	if channel == "" {
		channel = "chat"
	}

	sess, err := s.sessions.Create(ctx, req.CustomerID, req.SessionID, channel)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "unknown customer on first contact",
				"request_id", requestcontext.RequestID(ctx),
				"customer_id", req.CustomerID,
			)
			return models.Session{}, dErrors.Wrap(err, dErrors.CodeNotFound, "customer not found")
		}
		s.logger.ErrorContext(ctx, "session creation failed",
			"request_id", requestcontext.RequestID(ctx),
			"customer_id", req.CustomerID,
			"error", err,
		)
		return models.Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create session")
	}

	s.metrics.IncrementConversations(string(sess.State), sess.Channel)
	return sess, nil
}
