package store

import (
	"strings"

	"github.com/semdin/sellerx-backend/internal/domain/shared"
)

// Store is a seller's marketplace shop. Orders, products and settlement
// transactions all belong to exactly one store.
type Store struct {
	shared.BaseAggregateRoot
	Name        string
	Credentials Credentials
}

// NewStore creates a store with validated credentials
func NewStore(name string, creds Credentials) (*Store, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "store name is required")
	}
	if creds != nil {
		if err := creds.Validate(); err != nil {
			return nil, err
		}
	}
	return &Store{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Credentials:       creds,
	}, nil
}

// TrendyolCredentials returns the store's Trendyol credentials, or
// ErrCredentialsMissing when none are configured for this marketplace.
func (s *Store) TrendyolCredentials() (*TrendyolCredentials, error) {
	if s.Credentials == nil {
		return nil, shared.ErrCredentialsMissing
	}
	creds, ok := s.Credentials.(*TrendyolCredentials)
	if !ok {
		return nil, shared.ErrCredentialsMissing
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	return creds, nil
}

// UpdateCredentials replaces the store's marketplace credentials
func (s *Store) UpdateCredentials(creds Credentials) error {
	if creds == nil {
		return shared.ErrCredentialsMissing
	}
	if err := creds.Validate(); err != nil {
		return err
	}
	s.Credentials = creds
	s.IncrementVersion()
	return nil
}

// Rename changes the store display name
func (s *Store) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_INPUT", "store name is required")
	}
	s.Name = name
	s.IncrementVersion()
	return nil
}
