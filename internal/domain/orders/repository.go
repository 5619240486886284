package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines persistence operations for orders. Line items and
// their nested transactions are stored as part of the order document and
// are always read and written as a unit with it.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// FindByIdentity locates an order by its full business identity.
	FindByIdentity(ctx context.Context, storeID uuid.UUID, orderNumber string, packageNo int64) (*Order, error)
	// ListByNumber returns every package of an order number in a store.
	ListByNumber(ctx context.Context, storeID uuid.UUID, orderNumber string) ([]*Order, error)
	// ListContainingBarcode returns the store's orders dated on or after
	// from that carry at least one line item with the given barcode.
	ListContainingBarcode(ctx context.Context, storeID uuid.UUID, barcode string, from time.Time) ([]*Order, error)
	// ListByPeriod returns the store's orders with an order date in
	// [from, to).
	ListByPeriod(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]*Order, error)
	Create(ctx context.Context, o *Order) error
	Save(ctx context.Context, o *Order) error
	SaveAll(ctx context.Context, os []*Order) error
}
