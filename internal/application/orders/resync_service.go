package orders

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/semdin/sellerx-backend/internal/domain/catalog"
	"github.com/semdin/sellerx-backend/internal/domain/orders"
	"github.com/semdin/sellerx-backend/internal/domain/shared"
)

// productLockTTL bounds how long a per-product lot ledger lease may be held
// if the holder dies without releasing it.
const productLockTTL = 5 * time.Minute

// productLockKey names the lease serializing writers of one product's lot
// ledger. Resync and initial order costing share it: both mutate lot usage
// and would clobber each other's saves otherwise.
func productLockKey(storeID uuid.UUID, barcode string) string {
	return fmt.Sprintf("lots:%s:%s", storeID, barcode)
}

// ResyncSummary reports the outcome of a store-wide resynchronization
type ResyncSummary struct {
	Products  int      `json:"products"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// ResyncService recomputes FIFO lot usage and line item cost attribution
// from a given date forward. It is the single authority that keeps
// allocations consistent after cost lots change.
type ResyncService struct {
	products catalog.Repository
	orders   orders.Repository
	locks    shared.EntityLocker
	location *time.Location
	logger   *zap.Logger
}

// NewResyncService creates a resync service
func NewResyncService(
	products catalog.Repository,
	orderRepo orders.Repository,
	locks shared.EntityLocker,
	location *time.Location,
	logger *zap.Logger,
) *ResyncService {
	return &ResyncService{
		products: products,
		orders:   orderRepo,
		locks:    locks,
		location: location,
		logger:   logger.Named("resync"),
	}
}

// ResyncProduct recomputes allocations for one product from the given date
// forward. Runs for the same product are serialized: the reset-then-
// reallocate sequence is not safe under concurrent mutation of one ledger.
// Re-running with the same date is idempotent, the outcome is a pure
// function of the current lots and orders.
func (s *ResyncService) ResyncProduct(ctx context.Context, storeID uuid.UUID, barcode string, from time.Time) error {
	return s.locks.WithLock(ctx, productLockKey(storeID, barcode), productLockTTL, func() error {
		return s.resyncLocked(ctx, storeID, barcode, from)
	})
}

// ResyncStore recomputes allocations for every product of a store. A
// failure on one product does not block the rest: state is updated as each
// product finishes, never rolled back globally.
func (s *ResyncService) ResyncStore(ctx context.Context, storeID uuid.UUID, from time.Time) (*ResyncSummary, error) {
	products, err := s.products.ListByStore(ctx, storeID)
	if err != nil {
		return nil, err
	}

	summary := &ResyncSummary{Products: len(products)}
	for _, p := range products {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := s.ResyncProduct(ctx, storeID, p.Barcode, from); err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", p.Barcode, err))
			s.logger.Warn("Product resync failed, continuing with next product",
				zap.String("store_id", storeID.String()),
				zap.String("barcode", p.Barcode),
				zap.Error(err),
			)
			continue
		}
		summary.Succeeded++
	}

	s.logger.Info("Store resync completed",
		zap.String("store_id", storeID.String()),
		zap.Time("from", from),
		zap.Int("products", summary.Products),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

// lineRef pairs a line item with its owning order so line items from many
// orders can be sorted into one chronological consumption sequence
type lineRef struct {
	order *orders.Order
	line  *orders.LineItem
}

func (s *ResyncService) resyncLocked(ctx context.Context, storeID uuid.UUID, barcode string, from time.Time) error {
	from = shared.DayOf(from, s.location)

	product, err := s.products.FindByStoreAndBarcode(ctx, storeID, barcode)
	if err != nil {
		return err
	}

	// Lots acquired before the affected date keep their historical
	// consumption as settled fact.
	product.ResetUsageFrom(from)

	affected, err := s.orders.ListContainingBarcode(ctx, storeID, barcode, from)
	if err != nil {
		return err
	}

	refs := make([]lineRef, 0, len(affected))
	for _, o := range affected {
		if o.OrderDate.Before(from) {
			continue
		}
		for i := range o.Lines {
			if o.Lines[i].Barcode == barcode {
				refs = append(refs, lineRef{order: o, line: &o.Lines[i]})
			}
		}
	}

	// Chronological consumption order must match the real-world FIFO sale
	// order. Stable sort keeps arrival order on same-date ties.
	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].order.OrderDate.Before(refs[j].order.OrderDate)
	})

	for _, ref := range refs {
		orderDay := shared.DayOf(ref.order.OrderDate, s.location)
		alloc := product.Allocate(orderDay, ref.line.Quantity)
		if alloc == nil {
			ref.line.ClearCost()
			continue
		}
		ref.line.SetCost(alloc.Lot.UnitCost, alloc.Lot.VatRate, alloc.Lot.AcquisitionDate)
	}

	if err := s.products.Save(ctx, product); err != nil {
		return fmt.Errorf("save product %s: %w", barcode, err)
	}
	if err := s.orders.SaveAll(ctx, affected); err != nil {
		return fmt.Errorf("save orders for %s: %w", barcode, err)
	}

	s.logger.Debug("Product resynchronized",
		zap.String("store_id", storeID.String()),
		zap.String("barcode", barcode),
		zap.Time("from", from),
		zap.Int("orders", len(affected)),
		zap.Int("line_items", len(refs)),
	)
	return nil
}
