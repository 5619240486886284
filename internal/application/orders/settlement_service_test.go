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

func newSettlementService(orderRepo *fakeOrderRepo) *SettlementService {
	return NewSettlementService(orderRepo, nil, nil, time.UTC, zap.NewNop())
}

func saleRecord(id, orderNumber string, packageID int64, barcode string) marketplace.SettlementPayload {
	return marketplace.SettlementPayload{
		ID:              id,
		OrderNumber:     orderNumber,
		PackageID:       packageID,
		Barcode:         barcode,
		TransactionType: orders.TransactionTypeSale,
		SellerRevenue:   decimal.NewFromInt(90),
		TransactionDate: day("2024-02-01"),
	}
}

func returnRecord(id, orderNumber, barcode string) marketplace.SettlementPayload {
	return marketplace.SettlementPayload{
		ID:              id,
		OrderNumber:     orderNumber,
		Barcode:         barcode,
		TransactionType: orders.TransactionTypeReturn,
		TransactionDate: day("2024-02-10"),
	}
}

func transactionsOf(o *orders.Order, barcode string) []orders.SettlementTransaction {
	lines := o.LinesWithBarcode(barcode)
	if len(lines) == 0 {
		return nil
	}
	return lines[0].Transactions
}

func TestReconcile_AppliesSales(t *testing.T) {
	storeID := uuid.New()
	repo := newFakeOrderRepo(testOrder(t, storeID, "A", 1, "2024-01-15", lineOf("BC-1", 2)))
	svc := newSettlementService(repo)

	summary, err := svc.Reconcile(context.Background(), storeID, []marketplace.SettlementPayload{
		saleRecord("T1", "A", 1, "BC-1"),
		saleRecord("T2", "A", 1, "BC-1"),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.SalesApplied)
	assert.Equal(t, 1, summary.OrdersSettled)

	stored := storedOrder(t, repo, storeID, "A", 1)
	txs := transactionsOf(stored, "BC-1")
	require.Len(t, txs, 2)
	assert.Equal(t, orders.SettlementStatusSold, txs[0].Status)
	assert.Equal(t, orders.SettlementStatusSold, txs[1].Status)
	assert.Equal(t, orders.TransactionStatusSettled, stored.TransactionStatus)
}

func TestReconcile_DeduplicatesByTransactionID(t *testing.T) {
	storeID := uuid.New()
	repo := newFakeOrderRepo(testOrder(t, storeID, "A", 1, "2024-01-15", lineOf("BC-1", 2)))
	svc := newSettlementService(repo)

	batch := []marketplace.SettlementPayload{saleRecord("T1", "A", 1, "BC-1")}

	_, err := svc.Reconcile(context.Background(), storeID, batch)
	require.NoError(t, err)
	summary, err := svc.Reconcile(context.Background(), storeID, batch)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.SalesApplied)
	assert.Equal(t, 1, summary.Duplicates)
	assert.Len(t, transactionsOf(storedOrder(t, repo, storeID, "A", 1), "BC-1"), 1)
}

func TestReconcile_ConvertsSoldToReturned(t *testing.T) {
	storeID := uuid.New()
	repo := newFakeOrderRepo(testOrder(t, storeID, "A", 1, "2024-01-15", lineOf("BC-1", 1)))
	svc := newSettlementService(repo)

	_, err := svc.Reconcile(context.Background(), storeID, []marketplace.SettlementPayload{
		saleRecord("T1", "A", 1, "BC-1"),
	})
	require.NoError(t, err)

	summary, err := svc.Reconcile(context.Background(), storeID, []marketplace.SettlementPayload{
		returnRecord("R1", "A", "BC-1"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ReturnsConverted)

	// The converted transaction keeps its original external id, is relabeled
	// in place and records the id of the converting return.
	txs := transactionsOf(storedOrder(t, repo, storeID, "A", 1), "BC-1")
	require.Len(t, txs, 1)
	assert.Equal(t, "T1", txs[0].ID)
	assert.Equal(t, orders.SettlementStatusReturned, txs[0].Status)
	assert.Equal(t, orders.TransactionTypeReturn, txs[0].Type)
	assert.Equal(t, "R1", txs[0].ReturnID)
}

func TestReconcile_SaleAndReturnInSameBatch(t *testing.T) {
	// Both feeds of a window land in one batch, so a sale and its return can
	// arrive together. The return path must see the order instance the sale
	// path already changed: the sale must survive the save and be converted,
	// not replaced by a freshly appended return.
	storeID := uuid.New()
	repo := newFakeOrderRepo(testOrder(t, storeID, "A", 1, "2024-01-15", lineOf("BC-1", 1)))
	svc := newSettlementService(repo)

	summary, err := svc.Reconcile(context.Background(), storeID, []marketplace.SettlementPayload{
		saleRecord("T1", "A", 1, "BC-1"),
		returnRecord("R1", "A", "BC-1"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.SalesApplied)
	assert.Equal(t, 1, summary.ReturnsConverted)
	assert.Equal(t, 0, summary.ReturnsAppended)

	txs := transactionsOf(storedOrder(t, repo, storeID, "A", 1), "BC-1")
	require.Len(t, txs, 1)
	require.Equal(t, "T1", txs[0].ID)
	assert.Equal(t, orders.SettlementStatusReturned, txs[0].Status)
	assert.Equal(t, "R1", txs[0].ReturnID)
}

func TestReconcile_ReturnReplayIsNoOp(t *testing.T) {
	storeID := uuid.New()
	repo := newFakeOrderRepo(testOrder(t, storeID, "A", 1, "2024-01-15", lineOf("BC-1", 2)))
	svc := newSettlementService(repo)

	_, err := svc.Reconcile(context.Background(), storeID, []marketplace.SettlementPayload{
		saleRecord("T1", "A", 1, "BC-1"),
		saleRecord("T2", "A", 1, "BC-1"),
		returnRecord("R1", "A", "BC-1"),
	})
	require.NoError(t, err)

	// Replaying the same return in an overlapping window must not convert a
	// second SOLD transaction: its id is recorded on the converted one.
	summary, err := svc.Reconcile(context.Background(), storeID, []marketplace.SettlementPayload{
		returnRecord("R1", "A", "BC-1"),
	})
	require.NoError(t, err)

	assert.Equal(t, 0, summary.ReturnsConverted)
	assert.Equal(t, 1, summary.Duplicates)

	txs := transactionsOf(storedOrder(t, repo, storeID, "A", 1), "BC-1")
	require.Len(t, txs, 2)
	returned := 0
	for _, tx := range txs {
		if tx.Status == orders.SettlementStatusReturned {
			returned++
		}
	}
	assert.Equal(t, 1, returned)
}

func TestReconcile_NewReturnInLaterWindowConvertsRemainingSale(t *testing.T) {
	// A return id never seen before must convert the remaining SOLD
	// transaction even though an earlier window already converted one of the
	// same barcode. Only the replayed id counts as a duplicate.
	storeID := uuid.New()
	repo := newFakeOrderRepo(testOrder(t, storeID, "A", 1, "2024-01-15", lineOf("BC-1", 2)))
	svc := newSettlementService(repo)

	_, err := svc.Reconcile(context.Background(), storeID, []marketplace.SettlementPayload{
		saleRecord("T1", "A", 1, "BC-1"),
		saleRecord("T2", "A", 1, "BC-1"),
		returnRecord("R1", "A", "BC-1"),
	})
	require.NoError(t, err)

	summary, err := svc.Reconcile(context.Background(), storeID, []marketplace.SettlementPayload{
		returnRecord("R1", "A", "BC-1"),
		returnRecord("R2", "A", "BC-1"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ReturnsConverted)
	assert.Equal(t, 1, summary.Duplicates)

	txs := transactionsOf(storedOrder(t, repo, storeID, "A", 1), "BC-1")
	require.Len(t, txs, 2)
	byID := make(map[string]orders.SettlementTransaction, len(txs))
	for _, tx := range txs {
		assert.Equal(t, orders.SettlementStatusReturned, tx.Status)
		byID[tx.ID] = tx
	}
	assert.Equal(t, "R1", byID["T1"].ReturnID)
	assert.Equal(t, "R2", byID["T2"].ReturnID)
}

func TestReconcile_DistinctReturnsConvertDistinctSales(t *testing.T) {
	storeID := uuid.New()
	repo := newFakeOrderRepo(testOrder(t, storeID, "A", 1, "2024-01-15", lineOf("BC-1", 2)))
	svc := newSettlementService(repo)

	_, err := svc.Reconcile(context.Background(), storeID, []marketplace.SettlementPayload{
		saleRecord("T1", "A", 1, "BC-1"),
		saleRecord("T2", "A", 1, "BC-1"),
	})
	require.NoError(t, err)

	summary, err := svc.Reconcile(context.Background(), storeID, []marketplace.SettlementPayload{
		returnRecord("R1", "A", "BC-1"),
		returnRecord("R2", "A", "BC-1"),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.ReturnsConverted)
	for _, tx := range transactionsOf(storedOrder(t, repo, storeID, "A", 1), "BC-1") {
		assert.Equal(t, orders.SettlementStatusReturned, tx.Status)
	}
}

func TestReconcile_AppendsReturnWithoutMatchingSale(t *testing.T) {
	storeID := uuid.New()
	repo := newFakeOrderRepo(testOrder(t, storeID, "A", 1, "2024-01-15", lineOf("BC-1", 1)))
	svc := newSettlementService(repo)

	summary, err := svc.Reconcile(context.Background(), storeID, []marketplace.SettlementPayload{
		returnRecord("R1", "A", "BC-1"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ReturnsAppended)
	txs := transactionsOf(storedOrder(t, repo, storeID, "A", 1), "BC-1")
	require.Len(t, txs, 1)
	assert.Equal(t, "R1", txs[0].ID)
	assert.Equal(t, orders.SettlementStatusReturned, txs[0].Status)

	// The appended transaction registers the return's own id, so a replay
	// dedups against it.
	again, err := svc.Reconcile(context.Background(), storeID, []marketplace.SettlementPayload{
		returnRecord("R1", "A", "BC-1"),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, again.ReturnsAppended)
	assert.Equal(t, 1, again.Duplicates)
	assert.Len(t, transactionsOf(storedOrder(t, repo, storeID, "A", 1), "BC-1"), 1)
}

func TestReconcile_ReturnMatchesAcrossPackages(t *testing.T) {
	// Returns carry no reliable package id, so they match against every
	// package of the order number.
	storeID := uuid.New()
	repo := newFakeOrderRepo(
		testOrder(t, storeID, "A", 1, "2024-01-15", lineOf("BC-1", 1)),
		testOrder(t, storeID, "A", 2, "2024-01-15", lineOf("BC-2", 1)),
	)
	svc := newSettlementService(repo)

	_, err := svc.Reconcile(context.Background(), storeID, []marketplace.SettlementPayload{
		saleRecord("T1", "A", 2, "BC-2"),
	})
	require.NoError(t, err)

	summary, err := svc.Reconcile(context.Background(), storeID, []marketplace.SettlementPayload{
		returnRecord("R1", "A", "BC-2"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ReturnsConverted)
	txs := transactionsOf(storedOrder(t, repo, storeID, "A", 2), "BC-2")
	require.Len(t, txs, 1)
	assert.Equal(t, orders.SettlementStatusReturned, txs[0].Status)
}

func TestReconcile_SkipsUnknownOrdersAndTypes(t *testing.T) {
	storeID := uuid.New()
	repo := newFakeOrderRepo()
	svc := newSettlementService(repo)

	other := marketplace.SettlementPayload{
		ID:              "X1",
		OrderNumber:     "A",
		TransactionType: "Stoppage",
	}
	summary, err := svc.Reconcile(context.Background(), storeID, []marketplace.SettlementPayload{
		saleRecord("T1", "MISSING", 1, "BC-1"),
		returnRecord("R1", "MISSING", "BC-1"),
		other,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Records)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, 0, summary.SalesApplied)
	assert.Equal(t, 0, summary.OrdersSettled)
}

func TestReconcile_SettledStateIsMonotonic(t *testing.T) {
	storeID := uuid.New()
	repo := newFakeOrderRepo(testOrder(t, storeID, "A", 1, "2024-01-15", lineOf("BC-1", 1)))
	svc := newSettlementService(repo)

	_, err := svc.Reconcile(context.Background(), storeID, []marketplace.SettlementPayload{
		saleRecord("T1", "A", 1, "BC-1"),
	})
	require.NoError(t, err)
	require.Equal(t, orders.TransactionStatusSettled, storedOrder(t, repo, storeID, "A", 1).TransactionStatus)

	// A later batch that only dedups must not flip the order back.
	_, err = svc.Reconcile(context.Background(), storeID, []marketplace.SettlementPayload{
		saleRecord("T1", "A", 1, "BC-1"),
	})
	require.NoError(t, err)
	assert.Equal(t, orders.TransactionStatusSettled, storedOrder(t, repo, storeID, "A", 1).TransactionStatus)
}
