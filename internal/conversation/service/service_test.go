package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"mia/internal/audit"
	"mia/internal/conversation/models"
	"mia/internal/conversation/store"
	"mia/internal/customer"
	"mia/internal/render"
	"mia/internal/validation"
	dErrors "mia/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	store   *store.InMemoryStore
	service *Service
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.NewInMemory(customer.NewInMemorySeeded(), "Banco Nova Era")
	validator := validation.New(audit.NewInMemoryStore(), slog.Default())

	r, err := render.NewFromMap(map[string]string{
		"greeting":            "greeting:{{.FirstName}}",
		"request-document":    "request-document",
		"not-client":          "not-client",
		"validation-success":  "validation-success:{{.FirstName}}",
		"validation-failure":  "validation-failure",
		"validation-exceeded": "validation-exceeded",
		"timeout-end":         "timeout-end",
		"offer-card":          "offer-card",
		"offer-generic":       "offer-generic",
	}, slog.Default())
	s.Require().NoError(err)

	s.service = New(s.store, validator, r, WithLogger(slog.Default()))
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

// open runs the first contact for a seeded customer and returns the session id.
func (s *ServiceSuite) open(customerID string) string {
	res, err := s.service.HandleMessage(context.Background(), MessageRequest{
		Message:    "oi",
		CustomerID: customerID,
		Channel:    "web",
	})
	s.Require().NoError(err)
	s.Require().NotEmpty(res.SessionID)
	return res.SessionID
}

// send replays one turn on an existing session.
func (s *ServiceSuite) send(sessionID, message string) Result {
	res, err := s.service.HandleMessage(context.Background(), MessageRequest{
		SessionID: sessionID,
		Message:   message,
	})
	s.Require().NoError(err)
	return res
}

func (s *ServiceSuite) TestFirstContact() {
	s.Run("opens a session, greets by first name and moves to name confirmation", func() {
		res, err := s.service.HandleMessage(context.Background(), MessageRequest{
			Message:    "oi",
			CustomerID: "cust-ale",
			Channel:    "web",
		})
		s.Require().NoError(err)
		s.Equal("greeting:Alessandra", res.Response)
		s.Equal(models.StateConfirmName, res.State)
		s.NotEmpty(res.SessionID)

		sess, err := s.store.Get(context.Background(), res.SessionID)
		s.Require().NoError(err)
		s.Equal(models.StateConfirmName, sess.State)
	})

	s.Run("missing customerId on first contact is a client error", func() {
		_, err := s.service.HandleMessage(context.Background(), MessageRequest{Message: "oi"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
		s.Equal("customerId é obrigatório na primeira mensagem", dErrors.Message(err))
	})

	s.Run("unknown customer id is reported as not found", func() {
		_, err := s.service.HandleMessage(context.Background(), MessageRequest{
			Message:    "oi",
			CustomerID: "cust-nobody",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("a session id the store no longer knows reopens against the customer", func() {
		res, err := s.service.HandleMessage(context.Background(), MessageRequest{
			SessionID:  "sess-gone",
			Message:    "oi",
			CustomerID: "cust-jose",
		})
		s.Require().NoError(err)
		s.Equal("sess-gone", res.SessionID)
		s.Equal(models.StateConfirmName, res.State)
	})
}

func (s *ServiceSuite) TestHappyPath() {
	sessionID := s.open("cust-ale")

	res := s.send(sessionID, "sim")
	s.Equal(models.StateRequestDocument, res.State)
	s.Equal("request-document", res.Response)

	res = s.send(sessionID, "123.456.789-00")
	s.Equal(models.StateValidated, res.State)
	s.Equal("validation-success:Alessandra", res.Response)

	sess, err := s.store.Get(context.Background(), sessionID)
	s.Require().NoError(err)
	s.True(sess.IsValidated)

	res = s.send(sessionID, "quero um cartão")
	s.Equal(models.StateClosed, res.State)
	s.Equal("offer-card", res.Response)

	res = s.send(sessionID, "oi de novo")
	s.Equal(models.StateClosed, res.State)
	s.Equal("timeout-end", res.Response)
}

func (s *ServiceSuite) TestValidationAttempts() {
	s.Run("a malformed document burns an attempt but keeps the session open", func() {
		sessionID := s.open("cust-ale")
		s.send(sessionID, "sim")

		res := s.send(sessionID, "123")
		s.Equal(models.StateRequestDocument, res.State)
		s.Equal("validation-failure", res.Response)

		sess, err := s.store.Get(context.Background(), sessionID)
		s.Require().NoError(err)
		s.Equal(1, sess.ValidationAttempts)
	})

	s.Run("a well-formed document that fails the check also burns an attempt", func() {
		sessionID := s.open("cust-ale")
		s.send(sessionID, "sim")

		res := s.send(sessionID, "111.111.111-11")
		s.Equal(models.StateRequestDocument, res.State)
		s.Equal("validation-failure", res.Response)

		sess, err := s.store.Get(context.Background(), sessionID)
		s.Require().NoError(err)
		s.Equal(1, sess.ValidationAttempts)
		s.False(sess.IsValidated)
	})

	s.Run("the third failure closes the conversation", func() {
		sessionID := s.open("cust-ale")
		s.send(sessionID, "sim")

		s.send(sessionID, "1")
		s.send(sessionID, "22")
		res := s.send(sessionID, "333")
		s.Equal(models.StateClosed, res.State)
		s.Equal("validation-exceeded", res.Response)

		res = s.send(sessionID, "123.456.789-00")
		s.Equal(models.StateClosed, res.State, "closed sessions take no more documents")
		s.Equal("timeout-end", res.Response)
	})
}

func (s *ServiceSuite) TestDeclinedIdentity() {
	sessionID := s.open("cust-jose")

	res := s.send(sessionID, "não sou")
	s.Equal(models.StateClosed, res.State)
	s.Equal("not-client", res.Response)
}

func (s *ServiceSuite) TestCorporateCustomer() {
	sessionID := s.open("cust-empresa1")
	s.send(sessionID, "sim")

	res := s.send(sessionID, "12345678900") // CPF length, session expects a CNPJ
	s.Equal(models.StateRequestDocument, res.State)
	s.Equal("validation-failure", res.Response)

	res = s.send(sessionID, "12.345.678/0001-99")
	s.Equal(models.StateValidated, res.State)
}

func (s *ServiceSuite) TestStoreFailures() {
	s.Run("a session record without id is refused", func() {
		svc := New(sessionWithoutIDStore{}, nil, mustRenderer(s.T()))
		_, err := svc.HandleMessage(context.Background(), MessageRequest{SessionID: "sess-1", Message: "oi"})
		s.Require().ErrorIs(err, ErrSessionWithoutID)
	})

	s.Run("a failed persist turns into an internal error, not a reply", func() {
		svc := New(&failingUpdateStore{inner: s.store}, nil, mustRenderer(s.T()))
		sessionID := s.open("cust-ale")

		_, err := svc.HandleMessage(context.Background(), MessageRequest{SessionID: sessionID, Message: "sim"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func mustRenderer(t *testing.T) *render.Renderer {
	r, err := render.NewFromMap(map[string]string{"greeting": "greeting"}, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	return r
}

type sessionWithoutIDStore struct{}

func (sessionWithoutIDStore) Get(context.Context, string) (models.Session, error) {
	return models.Session{ID: "conv-1", ConversationID: "conv-1", State: models.StateGreeting}, nil
}

func (sessionWithoutIDStore) Create(context.Context, string, string, string) (models.Session, error) {
	return models.Session{}, errors.New("unused")
}

func (sessionWithoutIDStore) Update(context.Context, string, models.Mutation) error {
	return nil
}

type failingUpdateStore struct {
	inner *store.InMemoryStore
}

func (f *failingUpdateStore) Get(ctx context.Context, sessionID string) (models.Session, error) {
	return f.inner.Get(ctx, sessionID)
}

func (f *failingUpdateStore) Create(ctx context.Context, customerID, sessionID, channel string) (models.Session, error) {
	return f.inner.Create(ctx, customerID, sessionID, channel)
}

func (f *failingUpdateStore) Update(context.Context, string, models.Mutation) error {
	return errors.New("write timeout")
}
