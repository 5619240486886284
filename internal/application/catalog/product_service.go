package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/semdin/sellerx-backend/internal/domain/catalog"
	"github.com/semdin/sellerx-backend/internal/domain/marketplace"
	"github.com/semdin/sellerx-backend/internal/domain/shared"
	"github.com/semdin/sellerx-backend/internal/domain/store"
)

const (
	productPageSize  = 200
	productPageDelay = 200 * time.Millisecond
)

// Resynchronizer recomputes a product's allocations from a date forward.
// Every lot mutation triggers it with the mutated lot's date.
type Resynchronizer interface {
	ResyncProduct(ctx context.Context, storeID uuid.UUID, barcode string, from time.Time) error
}

// ProductSyncSummary reports the outcome of a catalog feed sync
type ProductSyncSummary struct {
	Fetched int      `json:"fetched"`
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Partial bool     `json:"partial"`
	Errors  []string `json:"errors,omitempty"`
}

// ProductService manages products and their cost lot ledgers. Lot mutations
// go through here so the mandatory resynchronization side effect cannot be
// skipped.
type ProductService struct {
	products catalog.Repository
	stores   store.Repository
	gateway  marketplace.Gateway
	resync   Resynchronizer
	location *time.Location
	logger   *zap.Logger
}

// NewProductService creates a product service
func NewProductService(
	products catalog.Repository,
	stores store.Repository,
	gateway marketplace.Gateway,
	resync Resynchronizer,
	location *time.Location,
	logger *zap.Logger,
) *ProductService {
	return &ProductService{
		products: products,
		stores:   stores,
		gateway:  gateway,
		resync:   resync,
		location: location,
		logger:   logger.Named("product"),
	}
}

// GetProduct loads one product with its lot ledger
func (s *ProductService) GetProduct(ctx context.Context, storeID uuid.UUID, barcode string) (*catalog.Product, error) {
	return s.products.FindByStoreAndBarcode(ctx, storeID, barcode)
}

// ListProducts loads every product of a store
func (s *ProductService) ListProducts(ctx context.Context, storeID uuid.UUID) ([]*catalog.Product, error) {
	return s.products.ListByStore(ctx, storeID)
}

// AddLot records an acquisition lot, merging with an existing lot on the
// same day, and resynchronizes the product from the lot's date.
func (s *ProductService) AddLot(ctx context.Context, storeID uuid.UUID, barcode string, quantity int, unitCost decimal.Decimal, vatRate int, date time.Time) error {
	product, err := s.products.FindByStoreAndBarcode(ctx, storeID, barcode)
	if err != nil {
		return err
	}
	lot, err := catalog.NewCostLot(quantity, unitCost, vatRate, shared.DayOf(date, s.location))
	if err != nil {
		return err
	}
	from, err := product.AddOrMergeLot(lot)
	if err != nil {
		return err
	}
	if err := s.products.Save(ctx, product); err != nil {
		return err
	}
	return s.resyncFrom(ctx, storeID, barcode, from)
}

// EditLot replaces the lot on date and resynchronizes from that date
func (s *ProductService) EditLot(ctx context.Context, storeID uuid.UUID, barcode string, date time.Time, quantity int, unitCost decimal.Decimal, vatRate int) error {
	product, err := s.products.FindByStoreAndBarcode(ctx, storeID, barcode)
	if err != nil {
		return err
	}
	day := shared.DayOf(date, s.location)
	if err := product.EditLot(day, quantity, unitCost, vatRate); err != nil {
		return err
	}
	if err := s.products.Save(ctx, product); err != nil {
		return err
	}
	return s.resyncFrom(ctx, storeID, barcode, day)
}

// DeleteLot removes the lot on date and resynchronizes from that date
func (s *ProductService) DeleteLot(ctx context.Context, storeID uuid.UUID, barcode string, date time.Time) error {
	product, err := s.products.FindByStoreAndBarcode(ctx, storeID, barcode)
	if err != nil {
		return err
	}
	day := shared.DayOf(date, s.location)
	if err := product.DeleteLot(day); err != nil {
		return err
	}
	if err := s.products.Save(ctx, product); err != nil {
		return err
	}
	return s.resyncFrom(ctx, storeID, barcode, day)
}

func (s *ProductService) resyncFrom(ctx context.Context, storeID uuid.UUID, barcode string, from time.Time) error {
	if err := s.resync.ResyncProduct(ctx, storeID, barcode, from); err != nil {
		return fmt.Errorf("lot saved but resync failed: %w", err)
	}
	return nil
}

// SyncCatalog pulls the seller's product catalog from the marketplace and
// upserts products by barcode. Existing lot ledgers are never touched by
// the catalog feed.
func (s *ProductService) SyncCatalog(ctx context.Context, storeID uuid.UUID) (*ProductSyncSummary, error) {
	st, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	creds, err := st.TrendyolCredentials()
	if err != nil {
		return nil, err
	}

	summary := &ProductSyncSummary{}
	for page := 0; ; page++ {
		if page > 0 {
			timer := time.NewTimer(productPageDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return summary, ctx.Err()
			case <-timer.C:
			}
		}
		resp, err := s.gateway.FetchProducts(ctx, creds, page, productPageSize)
		if err != nil {
			summary.Partial = true
			summary.Errors = append(summary.Errors, err.Error())
			s.logger.Warn("Product page fetch failed, keeping prior progress",
				zap.String("store_id", storeID.String()),
				zap.Int("page", page),
				zap.Error(err),
			)
			break
		}
		for _, payload := range resp.Products {
			summary.Fetched++
			created, err := s.upsertProduct(ctx, storeID, payload)
			if err != nil {
				summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", payload.Barcode, err))
				continue
			}
			if created {
				summary.Created++
			} else {
				summary.Updated++
			}
		}
		if page+1 >= resp.TotalPages {
			break
		}
	}
	return summary, nil
}

func (s *ProductService) upsertProduct(ctx context.Context, storeID uuid.UUID, payload marketplace.ProductPayload) (bool, error) {
	existing, err := s.products.FindByStoreAndBarcode(ctx, storeID, payload.Barcode)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return false, err
	}
	if existing != nil {
		existing.Title = payload.Title
		existing.CommissionRate = payload.CommissionRate
		existing.ShippingWeight = payload.DimensionalWeight
		existing.IncrementVersion()
		return false, s.products.Save(ctx, existing)
	}

	product, err := catalog.NewProduct(storeID, payload.Barcode, payload.Title)
	if err != nil {
		return false, err
	}
	product.CommissionRate = payload.CommissionRate
	product.ShippingWeight = payload.DimensionalWeight
	return true, s.products.Create(ctx, product)
}
