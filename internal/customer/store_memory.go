package customer

import (
	"context"
	"sync"

	"mia/pkg/domain"
	"mia/pkg/platform/sentinel"
)

// InMemoryStore is the map-backed twin of PostgresStore for tests and local
// runs without a database.
type InMemoryStore struct {
	mu        sync.RWMutex
	customers map[string]Customer
}

// NewInMemory creates an empty in-memory customer store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{customers: make(map[string]Customer)}
}

// NewInMemorySeeded creates an in-memory store preloaded with the demo
// customers.
func NewInMemorySeeded() *InMemoryStore {
	s := NewInMemory()
	for _, c := range SeedCustomers() {
		s.Put(c)
	}
	return s
}

// Put adds or replaces a customer.
func (s *InMemoryStore) Put(c Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.ID] = c
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	if !ok {
		return Customer{}, sentinel.ErrNotFound
	}
	return c, nil
}

// SeedCustomers returns the demo customers of Banco Nova Era.
func SeedCustomers() []Customer {
	return []Customer{
		{ID: "cust-ale", ClientName: "Alessandra Sanches", FirstName: "Alessandra", DocumentType: domain.DocumentTypeCPF},
		{ID: "cust-jose", ClientName: "José da Silva", FirstName: "José", DocumentType: domain.DocumentTypeCPF},
		{ID: "cust-empresa1", ClientName: "Empresa Primavera LTDA", FirstName: "Representante", DocumentType: domain.DocumentTypeCNPJ},
	}
}
