package orders

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestOrder(t *testing.T) *Order {
	t.Helper()
	o, err := NewOrder(uuid.New(), "ORD-1001", 4711, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	o.AddLine(LineItem{
		Barcode:  "BRC-001",
		Quantity: 2,
		Price:    decimal.RequireFromString("120"),
	})
	return o
}

func TestNewOrder_RequiresIdentityFields(t *testing.T) {
	storeID := uuid.New()
	now := time.Now()

	_, err := NewOrder(storeID, "", 4711, now)
	assert.Error(t, err)

	_, err = NewOrder(storeID, "ORD-1001", 0, now)
	assert.Error(t, err, "orders without a package number are rejected")

	_, err = NewOrder(uuid.Nil, "ORD-1001", 4711, now)
	assert.Error(t, err)
}

func TestAppendTransaction_DeduplicatesByID(t *testing.T) {
	o := createTestOrder(t)
	tx := SettlementTransaction{ID: "T1", Barcode: "BRC-001", Type: TransactionTypeSale, Status: SettlementStatusSold}

	assert.True(t, o.Lines[0].AppendTransaction(tx))
	assert.False(t, o.Lines[0].AppendTransaction(tx), "same external id must be a no-op")
	assert.Len(t, o.Lines[0].Transactions, 1)
	assert.True(t, o.HasTransaction("T1"))
	assert.False(t, o.HasTransaction("T2"))
}

func TestMarkReturned_RelabelsTypeAndStatus(t *testing.T) {
	tx := SettlementTransaction{ID: "T1", Type: TransactionTypeSale, Status: SettlementStatusSold}

	tx.MarkReturned()

	assert.Equal(t, SettlementStatusReturned, tx.Status)
	assert.Equal(t, TransactionTypeReturn, tx.Type)
	assert.Equal(t, "T1", tx.ID, "the original id is kept through the transition")
}

func TestMarkReturnedBy_RegistersReturnID(t *testing.T) {
	o := createTestOrder(t)
	o.Lines[0].AppendTransaction(SettlementTransaction{ID: "T1", Barcode: "BRC-001", Type: TransactionTypeSale, Status: SettlementStatusSold})

	o.Lines[0].Transactions[0].MarkReturnedBy("R1")

	tx := o.Lines[0].Transactions[0]
	assert.Equal(t, SettlementStatusReturned, tx.Status)
	assert.Equal(t, TransactionTypeReturn, tx.Type)
	assert.Equal(t, "R1", tx.ReturnID)

	// The converting return's id dedups exactly like a transaction's own id.
	assert.True(t, o.HasTransaction("T1"))
	assert.True(t, o.HasTransaction("R1"))
	assert.False(t, o.HasTransaction("R2"))
}

func TestMarkSettled_Monotonic(t *testing.T) {
	o := createTestOrder(t)
	assert.Equal(t, TransactionStatusNotSettled, o.TransactionStatus)

	o.MarkSettled()
	version := o.Version
	o.MarkSettled()

	assert.Equal(t, TransactionStatusSettled, o.TransactionStatus)
	assert.Equal(t, version, o.Version, "repeated settle is a no-op")
}

func TestLineItem_CostLifecycle(t *testing.T) {
	li := LineItem{Barcode: "BRC-001", Quantity: 1}
	assert.False(t, li.HasCost())

	lotDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	li.SetCost(decimal.RequireFromString("80"), 10, lotDate)
	require.True(t, li.HasCost())
	assert.Equal(t, 10, *li.CostVatRate)
	assert.True(t, li.SourceLotDate.Equal(lotDate))

	li.ClearCost()
	assert.Nil(t, li.Cost)
	assert.Nil(t, li.CostVatRate)
	assert.Nil(t, li.SourceLotDate)
}

func TestOrderStatus_CountsAsRevenue(t *testing.T) {
	revenue := []OrderStatus{StatusCreated, StatusPicking, StatusInvoiced, StatusShipped,
		StatusDelivered, StatusAtCollectionPoint, StatusUnPacked}
	for _, s := range revenue {
		assert.True(t, s.CountsAsRevenue(), "status %s should count as revenue", s)
	}
	for _, s := range []OrderStatus{StatusCancelled, StatusReturned, StatusUnSupplied} {
		assert.False(t, s.CountsAsRevenue(), "status %s should not count as revenue", s)
	}
}

func TestLinesWithBarcode(t *testing.T) {
	o := createTestOrder(t)
	o.AddLine(LineItem{Barcode: "BRC-002", Quantity: 1})
	o.AddLine(LineItem{Barcode: "BRC-001", Quantity: 3})

	matched := o.LinesWithBarcode("BRC-001")
	require.Len(t, matched, 2)
	matched[0].SetCost(decimal.RequireFromString("10"), 20, time.Now())
	assert.True(t, o.Lines[0].HasCost(), "returned pointers alias the order's lines")
}
