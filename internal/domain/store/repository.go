package store

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence operations for stores
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Store, error)
	List(ctx context.Context) ([]*Store, error)
	Create(ctx context.Context, s *Store) error
	Update(ctx context.Context, s *Store) error
	Delete(ctx context.Context, id uuid.UUID) error
}
