package models

import (
	"fmt"

	"github.com/semdin/sellerx-backend/internal/domain/store"
)

// StoreModel is the persistence model for the Store aggregate. Credentials
// are stored as a JSONB document carrying the marketplace discriminant.
type StoreModel struct {
	AggregateModel
	Name        string `gorm:"type:varchar(200);not null"`
	Credentials []byte `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (StoreModel) TableName() string {
	return "stores"
}

// ToDomain converts the persistence model to a domain Store aggregate.
func (m *StoreModel) ToDomain() (*store.Store, error) {
	creds, err := store.DecodeCredentials(m.Credentials)
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", m.ID, err)
	}
	return &store.Store{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Credentials:       creds,
	}, nil
}

// FromDomain populates the persistence model from a domain Store aggregate.
func (m *StoreModel) FromDomain(s *store.Store) error {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.Name = s.Name
	if s.Credentials == nil {
		m.Credentials = nil
		return nil
	}
	encoded, err := store.EncodeCredentials(s.Credentials)
	if err != nil {
		return err
	}
	m.Credentials = encoded
	return nil
}

// StoreModelFromDomain creates a new persistence model from a domain Store.
func StoreModelFromDomain(s *store.Store) (*StoreModel, error) {
	m := &StoreModel{}
	if err := m.FromDomain(s); err != nil {
		return nil, err
	}
	return m, nil
}
