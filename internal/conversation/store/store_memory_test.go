package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"mia/internal/conversation/models"
	"mia/internal/customer"
	"mia/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemory(customer.NewInMemorySeeded(), "Banco Nova Era")
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) TestCreate() {
	s.Run("creates a session in GREETING with the customer's presentation data", func() {
		sess, err := s.store.Create(context.Background(), "cust-ale", "", "web")
		s.Require().NoError(err)

		s.NotEmpty(sess.SessionID, "a session id is generated when none is supplied")
		s.Equal(sess.ID, sess.ConversationID)
		s.Equal(models.StateGreeting, sess.State)
		s.Equal(0, sess.ValidationAttempts)
		s.False(sess.IsValidated)
		s.Equal("web", sess.Channel)
		s.Equal("Alessandra", sess.TemplateData.FirstName)
		s.Equal("Banco Nova Era", sess.TemplateData.CompanyName)
		s.True(sess.TemplateData.IsCPF)
	})

	s.Run("keeps a client-supplied session id", func() {
		sess, err := s.store.Create(context.Background(), "cust-jose", "sess-42", "chat")
		s.Require().NoError(err)
		s.Equal("sess-42", sess.SessionID)
	})

	s.Run("CNPJ customers get a corporate presentation bag", func() {
		sess, err := s.store.Create(context.Background(), "cust-empresa1", "", "web")
		s.Require().NoError(err)
		s.False(sess.TemplateData.IsCPF)
	})

	s.Run("unknown customer fails with ErrNotFound", func() {
		_, err := s.store.Create(context.Background(), "cust-nobody", "", "web")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestGet() {
	s.Run("returns the stored session", func() {
		created, err := s.store.Create(context.Background(), "cust-ale", "sess-1", "web")
		s.Require().NoError(err)

		got, err := s.store.Get(context.Background(), "sess-1")
		s.Require().NoError(err)
		s.Equal(created, got)
	})

	s.Run("unknown session returns ErrNotFound", func() {
		_, err := s.store.Get(context.Background(), "sess-nope")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestUpdate() {
	s.Run("applies partial mutations and refreshes the timestamp", func() {
		created, err := s.store.Create(context.Background(), "cust-ale", "sess-1", "web")
		s.Require().NoError(err)

		err = s.store.Update(context.Background(), "sess-1", models.Mutation{
			State:              models.StatePtr(models.StateRequestDocument),
			ValidationAttempts: models.IntPtr(1),
		})
		s.Require().NoError(err)

		got, err := s.store.Get(context.Background(), "sess-1")
		s.Require().NoError(err)
		s.Equal(models.StateRequestDocument, got.State)
		s.Equal(1, got.ValidationAttempts)
		s.False(got.IsValidated, "untouched fields stay as they were")
		s.False(got.LastMessageAt.Before(created.LastMessageAt))
	})

	s.Run("empty session id is a silent no-op", func() {
		err := s.store.Update(context.Background(), "", models.Mutation{
			State: models.StatePtr(models.StateClosed),
		})
		s.Require().NoError(err)
	})

	s.Run("unknown session returns ErrNotFound", func() {
		err := s.store.Update(context.Background(), "sess-nope", models.Mutation{
			State: models.StatePtr(models.StateClosed),
		})
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}
