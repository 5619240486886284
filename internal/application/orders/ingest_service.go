package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/semdin/sellerx-backend/internal/domain/catalog"
	"github.com/semdin/sellerx-backend/internal/domain/marketplace"
	"github.com/semdin/sellerx-backend/internal/domain/orders"
	"github.com/semdin/sellerx-backend/internal/domain/shared"
	"github.com/semdin/sellerx-backend/internal/domain/store"
)

const (
	orderPageSize        = 200
	orderPageDelay       = 500 * time.Millisecond
	orderWindowDelay     = time.Second
	orderLookbackMonths  = 3
	orderFetchWindowSpan = 15 * 24 * time.Hour
)

// IngestSummary reports the outcome of an order feed sync
type IngestSummary struct {
	Fetched  int      `json:"fetched"`
	Created  int      `json:"created"`
	Updated  int      `json:"updated"`
	Skipped  int      `json:"skipped"`
	Uncosted int      `json:"uncosted"`
	Partial  bool     `json:"partial"`
	Errors   []string `json:"errors,omitempty"`
}

// IngestService pulls the store's order feed and materializes it as order
// aggregates. New orders get an initial cost via FIFO allocation with the
// earliest-lot fallback; existing orders only update their status in place.
type IngestService struct {
	orders   orders.Repository
	products catalog.Repository
	stores   store.Repository
	gateway  marketplace.Gateway
	locks    shared.EntityLocker
	location *time.Location
	logger   *zap.Logger
}

// NewIngestService creates an order ingest service
func NewIngestService(
	orderRepo orders.Repository,
	products catalog.Repository,
	stores store.Repository,
	gateway marketplace.Gateway,
	locks shared.EntityLocker,
	location *time.Location,
	logger *zap.Logger,
) *IngestService {
	return &IngestService{
		orders:   orderRepo,
		products: products,
		stores:   stores,
		gateway:  gateway,
		locks:    locks,
		location: location,
		logger:   logger.Named("order_ingest"),
	}
}

// Sync fetches orders over the lookback period in windowed pages. A page
// failure abandons the rest of the run but keeps everything already
// persisted; the summary is marked partial in that case.
func (s *IngestService) Sync(ctx context.Context, storeID uuid.UUID) (*IngestSummary, error) {
	st, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	creds, err := st.TrendyolCredentials()
	if err != nil {
		return nil, err
	}

	now := time.Now().In(s.location)
	windows := marketplace.Windows(now.AddDate(0, -orderLookbackMonths, 0), now, orderFetchWindowSpan)

	summary := &IngestSummary{}
	for i, window := range windows {
		if i > 0 {
			if err := sleepCtx(ctx, orderWindowDelay); err != nil {
				return summary, err
			}
		}
		if err := s.syncWindow(ctx, storeID, creds, window, summary); err != nil {
			summary.Partial = true
			summary.Errors = append(summary.Errors, fmt.Sprintf("window %s: %v", window.Start.Format("2006-01-02"), err))
			s.logger.Warn("Order window fetch failed, keeping prior progress",
				zap.String("store_id", storeID.String()),
				zap.Time("window_start", window.Start),
				zap.Error(err),
			)
			break
		}
	}

	s.logger.Info("Order sync finished",
		zap.String("store_id", storeID.String()),
		zap.Int("fetched", summary.Fetched),
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped),
		zap.Bool("partial", summary.Partial),
	)
	return summary, nil
}

func (s *IngestService) syncWindow(ctx context.Context, storeID uuid.UUID, creds *store.TrendyolCredentials, window marketplace.Window, summary *IngestSummary) error {
	for page := 0; ; page++ {
		if page > 0 {
			if err := sleepCtx(ctx, orderPageDelay); err != nil {
				return err
			}
		}
		resp, err := s.gateway.FetchOrders(ctx, creds, window, page, orderPageSize)
		if err != nil {
			return err
		}
		for _, payload := range resp.Orders {
			summary.Fetched++
			if err := s.ingestOrder(ctx, storeID, payload, summary); err != nil {
				summary.Skipped++
				summary.Errors = append(summary.Errors, fmt.Sprintf("order %s: %v", payload.OrderNumber, err))
			}
		}
		if page+1 >= resp.TotalPages {
			return nil
		}
	}
}

func (s *IngestService) ingestOrder(ctx context.Context, storeID uuid.UUID, payload marketplace.OrderPayload, summary *IngestSummary) error {
	// Orders without a package number have no usable identity. They are
	// counted and skipped, the batch continues.
	if payload.PackageNo == 0 {
		summary.Skipped++
		return nil
	}

	existing, err := s.orders.FindByIdentity(ctx, storeID, payload.OrderNumber, payload.PackageNo)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	if existing != nil {
		existing.UpdateStatus(orders.OrderStatus(payload.Status))
		if err := s.orders.Save(ctx, existing); err != nil {
			return err
		}
		summary.Updated++
		return nil
	}

	order, err := orders.NewOrder(storeID, payload.OrderNumber, payload.PackageNo, payload.OrderDate)
	if err != nil {
		summary.Skipped++
		return nil
	}
	order.GrossAmount = payload.GrossAmount
	order.TotalDiscount = payload.TotalDiscount
	order.UpdateStatus(orders.OrderStatus(payload.Status))

	orderDay := shared.DayOf(payload.OrderDate, s.location)
	for _, lp := range payload.Lines {
		line := orders.LineItem{
			Barcode:           lp.Barcode,
			ProductName:       lp.ProductName,
			Quantity:          lp.Quantity,
			UnitPriceOrder:    lp.UnitPriceOrder,
			UnitPriceDiscount: lp.UnitPriceDiscount,
			VatBaseAmount:     lp.VatBaseAmount,
			Price:             lp.Price,
		}
		if err := s.costLine(ctx, storeID, &line, orderDay); err != nil {
			return err
		}
		if !line.HasCost() {
			summary.Uncosted++
		}
		order.AddLine(line)
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return err
	}
	summary.Created++
	return nil
}

// costLine assigns the initial cost of a freshly ingested line item. Unlike
// resync, first ingestion may fall back to the earliest available lot so
// imported historical orders are not left permanently uncosted. The product
// is loaded, reserved and saved under the per-product lot ledger lock, so a
// resync finishing mid-sync is never overwritten with stale lot state.
func (s *IngestService) costLine(ctx context.Context, storeID uuid.UUID, line *orders.LineItem, orderDay time.Time) error {
	return s.locks.WithLock(ctx, productLockKey(storeID, line.Barcode), productLockTTL, func() error {
		product, err := s.products.FindByStoreAndBarcode(ctx, storeID, line.Barcode)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				line.ClearCost()
				return nil
			}
			return err
		}
		alloc := product.AllocateWithFallback(orderDay, line.Quantity)
		if alloc == nil {
			line.ClearCost()
			return nil
		}
		line.SetCost(alloc.Lot.UnitCost, alloc.Lot.VatRate, alloc.Lot.AcquisitionDate)
		return s.products.Save(ctx, product)
	})
}
