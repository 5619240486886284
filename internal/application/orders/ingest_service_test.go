package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/semdin/sellerx-backend/internal/domain/marketplace"
	"github.com/semdin/sellerx-backend/internal/domain/orders"
)

func newIngestService(products *fakeProductRepo, orderRepo *fakeOrderRepo) *IngestService {
	return NewIngestService(orderRepo, products, nil, nil, noopLocker{}, time.UTC, zap.NewNop())
}

func orderPayload(number string, packageNo int64, date string, lines ...marketplace.LinePayload) marketplace.OrderPayload {
	return marketplace.OrderPayload{
		OrderNumber:   number,
		PackageNo:     packageNo,
		OrderDate:     day(date),
		GrossAmount:   decimal.NewFromInt(100),
		TotalDiscount: decimal.NewFromInt(10),
		Status:        string(orders.StatusCreated),
		Lines:         lines,
	}
}

func linePayload(barcode string, quantity int) marketplace.LinePayload {
	return marketplace.LinePayload{
		Barcode:  barcode,
		Quantity: quantity,
		Price:    decimal.NewFromInt(50),
	}
}

func TestIngestOrder_SkipsMissingPackageNumber(t *testing.T) {
	storeID := uuid.New()
	orderRepo := newFakeOrderRepo()
	svc := newIngestService(newFakeProductRepo(), orderRepo)

	summary := &IngestSummary{}
	err := svc.ingestOrder(context.Background(), storeID, orderPayload("A", 0, "2024-01-15"), summary)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Created)
	assert.Empty(t, orderRepo.orders)
}

func TestIngestOrder_CreatesWithInitialCost(t *testing.T) {
	storeID := uuid.New()
	product := testProduct(t, storeID, "BC-1", testLot(t, 5, "10", 20, "2024-01-01"))
	products := newFakeProductRepo(product)
	orderRepo := newFakeOrderRepo()
	svc := newIngestService(products, orderRepo)

	summary := &IngestSummary{}
	payload := orderPayload("A", 1, "2024-01-15", linePayload("BC-1", 2))
	require.NoError(t, svc.ingestOrder(context.Background(), storeID, payload, summary))

	assert.Equal(t, 1, summary.Created)
	require.Len(t, orderRepo.orders, 1)

	created := storedOrder(t, orderRepo, storeID, "A", 1)
	require.Len(t, created.Lines, 1)
	require.True(t, created.Lines[0].HasCost())
	assert.True(t, created.Lines[0].Cost.Equal(decimal.RequireFromString("10")))

	// The reservation is persisted with the order it backs, not deferred.
	assert.Equal(t, 2, product.Lots[0].UsedQuantity)
	assert.Equal(t, 1, products.saves)
}

func TestIngestOrder_FallsBackToEarliestLot(t *testing.T) {
	// An order predating every lot still gets an initial cost on first
	// ingestion, from the earliest lot available.
	storeID := uuid.New()
	product := testProduct(t, storeID, "BC-1", testLot(t, 5, "10", 20, "2024-03-01"))
	orderRepo := newFakeOrderRepo()
	svc := newIngestService(newFakeProductRepo(product), orderRepo)

	summary := &IngestSummary{}
	payload := orderPayload("A", 1, "2024-01-15", linePayload("BC-1", 1))
	require.NoError(t, svc.ingestOrder(context.Background(), storeID, payload, summary))

	line := storedOrder(t, orderRepo, storeID, "A", 1).Lines[0]
	require.True(t, line.HasCost())
	assert.True(t, line.SourceLotDate.Equal(day("2024-03-01")))
}

func TestIngestOrder_UncostedWhenProductUnknown(t *testing.T) {
	storeID := uuid.New()
	orderRepo := newFakeOrderRepo()
	svc := newIngestService(newFakeProductRepo(), orderRepo)

	summary := &IngestSummary{}
	payload := orderPayload("A", 1, "2024-01-15", linePayload("UNKNOWN", 1))
	require.NoError(t, svc.ingestOrder(context.Background(), storeID, payload, summary))

	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 1, summary.Uncosted)
	assert.False(t, storedOrder(t, orderRepo, storeID, "A", 1).Lines[0].HasCost())
}

func TestIngestOrder_UpdatesExistingStatusOnly(t *testing.T) {
	storeID := uuid.New()
	existing := testOrder(t, storeID, "A", 1, "2024-01-15", lineOf("BC-1", 1))
	existing.Lines[0].SetCost(decimal.NewFromInt(10), 20, day("2024-01-01"))
	orderRepo := newFakeOrderRepo(existing)
	svc := newIngestService(newFakeProductRepo(), orderRepo)

	summary := &IngestSummary{}
	payload := orderPayload("A", 1, "2024-01-15", linePayload("BC-1", 1))
	payload.Status = string(orders.StatusShipped)
	require.NoError(t, svc.ingestOrder(context.Background(), storeID, payload, summary))

	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 0, summary.Created)
	require.Len(t, orderRepo.orders, 1)

	stored := storedOrder(t, orderRepo, storeID, "A", 1)
	assert.Equal(t, orders.StatusShipped, stored.Status)
	// Re-ingestion never reallocates cost on an existing order.
	assert.True(t, stored.Lines[0].Cost.Equal(decimal.NewFromInt(10)))
}

func TestIngestOrder_AccumulatesReservationsAcrossOrders(t *testing.T) {
	storeID := uuid.New()
	product := testProduct(t, storeID, "BC-1", testLot(t, 10, "10", 20, "2024-01-01"))
	products := newFakeProductRepo(product)
	orderRepo := newFakeOrderRepo()
	svc := newIngestService(products, orderRepo)

	summary := &IngestSummary{}
	for i, num := range []string{"A", "B"} {
		payload := orderPayload(num, int64(i+1), "2024-01-15", linePayload("BC-1", 3))
		require.NoError(t, svc.ingestOrder(context.Background(), storeID, payload, summary))
	}

	// Each order costs against the freshly persisted ledger state.
	assert.Equal(t, 6, product.Lots[0].UsedQuantity)
	assert.Equal(t, 2, products.saves)
}

// recordingLocker captures the keys of every lock taken
type recordingLocker struct {
	keys []string
}

func (l *recordingLocker) WithLock(_ context.Context, key string, _ time.Duration, fn func() error) error {
	l.keys = append(l.keys, key)
	return fn()
}

func TestIngestOrder_CostsUnderProductLock(t *testing.T) {
	// Initial costing mutates the same lot ledger resync rewrites, so it has
	// to take the same per-product lease. Costing outside that lease lets a
	// concurrent resync's save be clobbered with stale lot state.
	storeID := uuid.New()
	product := testProduct(t, storeID, "BC-1", testLot(t, 5, "10", 20, "2024-01-01"))
	locker := &recordingLocker{}
	orderRepo := newFakeOrderRepo()
	svc := NewIngestService(orderRepo, newFakeProductRepo(product), nil, nil, locker, time.UTC, zap.NewNop())

	summary := &IngestSummary{}
	payload := orderPayload("A", 1, "2024-01-15", linePayload("BC-1", 2))
	require.NoError(t, svc.ingestOrder(context.Background(), storeID, payload, summary))

	require.Len(t, locker.keys, 1)
	assert.Equal(t, productLockKey(storeID, "BC-1"), locker.keys[0])
}
