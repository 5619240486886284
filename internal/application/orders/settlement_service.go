package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/semdin/sellerx-backend/internal/domain/marketplace"
	"github.com/semdin/sellerx-backend/internal/domain/orders"
	"github.com/semdin/sellerx-backend/internal/domain/shared"
	"github.com/semdin/sellerx-backend/internal/domain/store"
)

const (
	settlementPageSize       = 1000
	settlementPageDelay      = 200 * time.Millisecond
	settlementWindowDelay    = time.Second
	settlementLookbackMonths = 3
	settlementWindowSpan     = 15 * 24 * time.Hour
)

// ReconcileSummary reports the outcome of a settlement reconciliation run
type ReconcileSummary struct {
	Records          int      `json:"records"`
	SalesApplied     int      `json:"sales_applied"`
	ReturnsConverted int      `json:"returns_converted"`
	ReturnsAppended  int      `json:"returns_appended"`
	Duplicates       int      `json:"duplicates"`
	Skipped          int      `json:"skipped"`
	OrdersSettled    int      `json:"orders_settled"`
	Partial          bool     `json:"partial"`
	Errors           []string `json:"errors,omitempty"`
}

// SettlementService ingests settlement transaction batches, matches them
// against order line items, deduplicates by external transaction id and
// applies sale/return status transitions. The whole operation is safe to
// re-run over overlapping feed windows.
type SettlementService struct {
	orders   orders.Repository
	stores   store.Repository
	gateway  marketplace.Gateway
	location *time.Location
	logger   *zap.Logger
}

// NewSettlementService creates a settlement service
func NewSettlementService(
	orderRepo orders.Repository,
	stores store.Repository,
	gateway marketplace.Gateway,
	location *time.Location,
	logger *zap.Logger,
) *SettlementService {
	return &SettlementService{
		orders:   orderRepo,
		stores:   stores,
		gateway:  gateway,
		location: location,
		logger:   logger.Named("settlement"),
	}
}

// ---------------------------------------------------------------------------
// Feed fetch
// ---------------------------------------------------------------------------

// Sync fetches the store's sale and return settlement feeds over the
// lookback period and reconciles each window as it is materialized. A page
// failure abandons the remaining windows but keeps everything already
// reconciled; the summary is marked partial in that case.
func (s *SettlementService) Sync(ctx context.Context, storeID uuid.UUID) (*ReconcileSummary, error) {
	st, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	creds, err := st.TrendyolCredentials()
	if err != nil {
		return nil, err
	}

	now := time.Now().In(s.location)
	windows := marketplace.Windows(now.AddDate(0, -settlementLookbackMonths, 0), now, settlementWindowSpan)

	total := &ReconcileSummary{}
	for i, window := range windows {
		if i > 0 {
			if err := sleepCtx(ctx, settlementWindowDelay); err != nil {
				return total, err
			}
		}

		batch, err := s.fetchWindow(ctx, creds, window)
		if err != nil {
			total.Partial = true
			total.Errors = append(total.Errors, fmt.Sprintf("window %s: %v", window.Start.Format("2006-01-02"), err))
			s.logger.Warn("Settlement window fetch failed, keeping prior progress",
				zap.String("store_id", storeID.String()),
				zap.Time("window_start", window.Start),
				zap.Error(err),
			)
			break
		}

		summary, err := s.Reconcile(ctx, storeID, batch)
		if err != nil {
			total.Partial = true
			total.Errors = append(total.Errors, fmt.Sprintf("window %s: %v", window.Start.Format("2006-01-02"), err))
			break
		}
		total.merge(summary)
	}

	s.logger.Info("Settlement sync finished",
		zap.String("store_id", storeID.String()),
		zap.Int("records", total.Records),
		zap.Int("sales_applied", total.SalesApplied),
		zap.Int("returns_converted", total.ReturnsConverted),
		zap.Bool("partial", total.Partial),
	)
	return total, nil
}

// fetchWindow pulls every sale and return page of one window. The two
// transaction kinds are separate feeds on the same endpoint.
func (s *SettlementService) fetchWindow(ctx context.Context, creds *store.TrendyolCredentials, window marketplace.Window) ([]marketplace.SettlementPayload, error) {
	var batch []marketplace.SettlementPayload
	for _, kind := range []marketplace.SettlementKind{marketplace.SettlementKindSale, marketplace.SettlementKindReturn} {
		for page := 0; ; page++ {
			if page > 0 {
				if err := sleepCtx(ctx, settlementPageDelay); err != nil {
					return nil, err
				}
			}
			resp, err := s.gateway.FetchSettlements(ctx, creds, kind, window, page, settlementPageSize)
			if err != nil {
				return nil, err
			}
			batch = append(batch, resp.Records...)
			if page+1 >= resp.TotalPages {
				break
			}
		}
	}
	return batch, nil
}

// ---------------------------------------------------------------------------
// Reconciliation
// ---------------------------------------------------------------------------

type saleGroupKey struct {
	orderNumber string
	packageID   int64
}

// orderCache resolves orders at most once per reconciliation run so the sale
// and return paths mutate the same in-memory instances. The repository
// materializes a fresh instance per query; without the cache a return group
// would re-load a row the sale path already changed and its save would
// silently drop those changes.
type orderCache struct {
	repo       orders.Repository
	storeID    uuid.UUID
	byIdentity map[saleGroupKey]*orders.Order
	byNumber   map[string][]*orders.Order
}

func newOrderCache(repo orders.Repository, storeID uuid.UUID) *orderCache {
	return &orderCache{
		repo:       repo,
		storeID:    storeID,
		byIdentity: make(map[saleGroupKey]*orders.Order),
		byNumber:   make(map[string][]*orders.Order),
	}
}

func (c *orderCache) findByIdentity(ctx context.Context, orderNumber string, packageID int64) (*orders.Order, error) {
	key := saleGroupKey{orderNumber: orderNumber, packageID: packageID}
	if o, ok := c.byIdentity[key]; ok {
		return o, nil
	}
	o, err := c.repo.FindByIdentity(ctx, c.storeID, orderNumber, packageID)
	if err != nil {
		return nil, err
	}
	c.byIdentity[key] = o
	return o, nil
}

func (c *orderCache) listByNumber(ctx context.Context, orderNumber string) ([]*orders.Order, error) {
	if list, ok := c.byNumber[orderNumber]; ok {
		return list, nil
	}
	loaded, err := c.repo.ListByNumber(ctx, c.storeID, orderNumber)
	if err != nil {
		return nil, err
	}
	list := make([]*orders.Order, 0, len(loaded))
	for _, o := range loaded {
		key := saleGroupKey{orderNumber: orderNumber, packageID: o.PackageNo}
		if cached, ok := c.byIdentity[key]; ok {
			list = append(list, cached)
			continue
		}
		c.byIdentity[key] = o
		list = append(list, o)
	}
	c.byNumber[orderNumber] = list
	return list, nil
}

// Reconcile applies one fully materialized settlement batch to the store's
// orders. Correctness under re-runs relies entirely on the id-based dedup:
// re-ingesting a transaction id that is already recorded is a no-op, and a
// SOLD transaction converted to RETURNED is never reverted.
func (s *SettlementService) Reconcile(ctx context.Context, storeID uuid.UUID, records []marketplace.SettlementPayload) (*ReconcileSummary, error) {
	summary := &ReconcileSummary{Records: len(records)}

	// Partition into sale and return groups, preserving first-seen group
	// order so repeated runs walk the batch deterministically. Transaction
	// types other than sale/return carry no line item effect and pass
	// through uncounted.
	saleGroups := make(map[saleGroupKey][]marketplace.SettlementPayload)
	var saleKeys []saleGroupKey
	returnGroups := make(map[string][]marketplace.SettlementPayload)
	var returnKeys []string

	for _, rec := range records {
		switch rec.TransactionType {
		case orders.TransactionTypeSale:
			key := saleGroupKey{orderNumber: rec.OrderNumber, packageID: rec.PackageID}
			if _, seen := saleGroups[key]; !seen {
				saleKeys = append(saleKeys, key)
			}
			saleGroups[key] = append(saleGroups[key], rec)
		case orders.TransactionTypeReturn:
			if _, seen := returnGroups[rec.OrderNumber]; !seen {
				returnKeys = append(returnKeys, rec.OrderNumber)
			}
			returnGroups[rec.OrderNumber] = append(returnGroups[rec.OrderNumber], rec)
		}
	}

	changed := make(map[uuid.UUID]*orders.Order)
	cache := newOrderCache(s.orders, storeID)

	for _, key := range saleKeys {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		s.applySaleGroup(ctx, cache, key, saleGroups[key], changed, summary)
	}
	for _, orderNumber := range returnKeys {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		s.applyReturnGroup(ctx, cache, orderNumber, returnGroups[orderNumber], changed, summary)
	}

	if len(changed) == 0 {
		return summary, nil
	}

	// Any order that gained a transaction is settled. Monotonic: already
	// settled orders stay settled.
	touched := make([]*orders.Order, 0, len(changed))
	for _, o := range changed {
		o.MarkSettled()
		touched = append(touched, o)
	}
	if err := s.orders.SaveAll(ctx, touched); err != nil {
		return summary, err
	}
	summary.OrdersSettled = len(touched)
	return summary, nil
}

// applySaleGroup matches sale transactions against the single order
// identified by (order number, package id), appending each as SOLD unless
// its id is already recorded.
func (s *SettlementService) applySaleGroup(
	ctx context.Context,
	cache *orderCache,
	key saleGroupKey,
	recs []marketplace.SettlementPayload,
	changed map[uuid.UUID]*orders.Order,
	summary *ReconcileSummary,
) {
	order, err := cache.findByIdentity(ctx, key.orderNumber, key.packageID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			summary.Skipped += len(recs)
			return
		}
		summary.Skipped += len(recs)
		summary.Errors = append(summary.Errors, fmt.Sprintf("order %s/%d: %v", key.orderNumber, key.packageID, err))
		return
	}

	for _, rec := range recs {
		if order.HasTransaction(rec.ID) {
			summary.Duplicates++
			continue
		}
		lines := order.LinesWithBarcode(rec.Barcode)
		if len(lines) == 0 {
			summary.Skipped++
			continue
		}
		lines[0].AppendTransaction(toDomainTransaction(rec, orders.SettlementStatusSold))
		changed[order.ID] = order
		summary.SalesApplied++
	}
}

// applyReturnGroup matches return transactions against every package of an
// order number. Returns may be reported without the original package id, so
// matching deliberately does not require package equality. Each return
// converts one existing SOLD transaction of the same barcode to RETURNED,
// recording the return's id on the converted transaction; when no SOLD
// remains, a new RETURNED transaction is appended under the return's own
// id. Either way the id is registered, so replayed returns from
// overlapping windows dedup exactly and leave state unchanged.
func (s *SettlementService) applyReturnGroup(
	ctx context.Context,
	cache *orderCache,
	orderNumber string,
	recs []marketplace.SettlementPayload,
	changed map[uuid.UUID]*orders.Order,
	summary *ReconcileSummary,
) {
	located, err := cache.listByNumber(ctx, orderNumber)
	if err != nil || len(located) == 0 {
		summary.Skipped += len(recs)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			summary.Errors = append(summary.Errors, fmt.Sprintf("order %s: %v", orderNumber, err))
		}
		return
	}

	for _, rec := range recs {
		if s.transactionExists(located, rec.ID) {
			summary.Duplicates++
			continue
		}
		if sold := s.findSoldTransaction(located, rec.Barcode); sold != nil {
			sold.tx.MarkReturnedBy(rec.ID)
			changed[sold.order.ID] = sold.order
			summary.ReturnsConverted++
			continue
		}
		// No SOLD transaction left to convert: register the return under
		// its own id so future replays dedup against it.
		appended := false
		for _, o := range located {
			if lines := o.LinesWithBarcode(rec.Barcode); len(lines) > 0 {
				lines[0].AppendTransaction(toDomainTransaction(rec, orders.SettlementStatusReturned))
				changed[o.ID] = o
				summary.ReturnsAppended++
				appended = true
				break
			}
		}
		if !appended {
			summary.Skipped++
		}
	}
}

// soldRef points at a SOLD transaction inside its owning order
type soldRef struct {
	order *orders.Order
	tx    *orders.SettlementTransaction
}

func (s *SettlementService) findSoldTransaction(located []*orders.Order, barcode string) *soldRef {
	for _, o := range located {
		for i := range o.Lines {
			if o.Lines[i].Barcode != barcode {
				continue
			}
			for j := range o.Lines[i].Transactions {
				tx := &o.Lines[i].Transactions[j]
				if tx.Status == orders.SettlementStatusSold && tx.Barcode == barcode {
					return &soldRef{order: o, tx: tx}
				}
			}
		}
	}
	return nil
}

func (s *SettlementService) transactionExists(located []*orders.Order, id string) bool {
	for _, o := range located {
		if o.HasTransaction(id) {
			return true
		}
	}
	return false
}

func toDomainTransaction(rec marketplace.SettlementPayload, status orders.SettlementStatus) orders.SettlementTransaction {
	return orders.SettlementTransaction{
		ID:               rec.ID,
		Barcode:          rec.Barcode,
		Type:             rec.TransactionType,
		Status:           status,
		Debt:             rec.Debt,
		Credit:           rec.Credit,
		CommissionRate:   rec.CommissionRate,
		CommissionAmount: rec.CommissionAmount,
		SellerRevenue:    rec.SellerRevenue,
		PackageID:        rec.PackageID,
		TransactionDate:  rec.TransactionDate,
	}
}

func (r *ReconcileSummary) merge(other *ReconcileSummary) {
	r.Records += other.Records
	r.SalesApplied += other.SalesApplied
	r.ReturnsConverted += other.ReturnsConverted
	r.ReturnsAppended += other.ReturnsAppended
	r.Duplicates += other.Duplicates
	r.Skipped += other.Skipped
	r.OrdersSettled += other.OrdersSettled
	r.Errors = append(r.Errors, other.Errors...)
}

// sleepCtx paces upstream calls while staying cancellable
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
