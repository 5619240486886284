package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence operations for products and their lot
// ledgers. Implementations must persist the full lot list as a unit so the
// read-modify-write cycle of resync never loses concurrent updates.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByStoreAndBarcode(ctx context.Context, storeID uuid.UUID, barcode string) (*Product, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]*Product, error)
	Create(ctx context.Context, p *Product) error
	Save(ctx context.Context, p *Product) error
}
