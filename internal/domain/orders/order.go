package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/semdin/sellerx-backend/internal/domain/shared"
)

// OrderStatus is the marketplace fulfillment status of an order
type OrderStatus string

const (
	StatusCreated           OrderStatus = "Created"
	StatusPicking           OrderStatus = "Picking"
	StatusInvoiced          OrderStatus = "Invoiced"
	StatusShipped           OrderStatus = "Shipped"
	StatusDelivered         OrderStatus = "Delivered"
	StatusAtCollectionPoint OrderStatus = "AtCollectionPoint"
	StatusUnPacked          OrderStatus = "UnPacked"
	StatusCancelled         OrderStatus = "Cancelled"
	StatusReturned          OrderStatus = "Returned"
	StatusUnSupplied        OrderStatus = "UnSupplied"
)

// revenueStatuses are the fulfillment states that count toward revenue.
// Cancelled and returned orders are excluded.
var revenueStatuses = map[OrderStatus]struct{}{
	StatusCreated:           {},
	StatusPicking:           {},
	StatusInvoiced:          {},
	StatusShipped:           {},
	StatusDelivered:         {},
	StatusAtCollectionPoint: {},
	StatusUnPacked:          {},
}

// CountsAsRevenue reports whether orders in this status contribute revenue
func (s OrderStatus) CountsAsRevenue() bool {
	_, ok := revenueStatuses[s]
	return ok
}

// TransactionStatus is the settlement aggregate state of an order
type TransactionStatus string

const (
	TransactionStatusNotSettled TransactionStatus = "NOT_SETTLED"
	TransactionStatusSettled    TransactionStatus = "SETTLED"
)

// Order is one marketplace package. Its business identity is
// (store, order number, package number) and is immutable; status and
// settlement state mutate in place across re-ingestions.
type Order struct {
	shared.BaseAggregateRoot
	StoreID           uuid.UUID
	OrderNumber       string
	PackageNo         int64
	OrderDate         time.Time
	GrossAmount       decimal.Decimal
	TotalDiscount     decimal.Decimal
	Status            OrderStatus
	TransactionStatus TransactionStatus
	Lines             []LineItem
}

// NewOrder creates an order, rejecting records without the package number
// that forms part of the business identity.
func NewOrder(storeID uuid.UUID, orderNumber string, packageNo int64, orderDate time.Time) (*Order, error) {
	if storeID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "store id is required")
	}
	if orderNumber == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "order number is required")
	}
	if packageNo == 0 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "order has no package number")
	}
	return &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		StoreID:           storeID,
		OrderNumber:       orderNumber,
		PackageNo:         packageNo,
		OrderDate:         orderDate,
		Status:            StatusCreated,
		TransactionStatus: TransactionStatusNotSettled,
		Lines:             make([]LineItem, 0),
	}, nil
}

// AddLine appends a line item to the order
func (o *Order) AddLine(line LineItem) {
	o.Lines = append(o.Lines, line)
}

// LinesWithBarcode returns pointers to every line item carrying barcode
func (o *Order) LinesWithBarcode(barcode string) []*LineItem {
	var matched []*LineItem
	for i := range o.Lines {
		if o.Lines[i].Barcode == barcode {
			matched = append(matched, &o.Lines[i])
		}
	}
	return matched
}

// HasTransaction reports whether any line carries a transaction with id
func (o *Order) HasTransaction(id string) bool {
	for i := range o.Lines {
		if o.Lines[i].HasTransaction(id) {
			return true
		}
	}
	return false
}

// MarkSettled sets the aggregate settlement state. Monotonic: once settled,
// the order never regresses to NOT_SETTLED.
func (o *Order) MarkSettled() {
	if o.TransactionStatus != TransactionStatusSettled {
		o.TransactionStatus = TransactionStatusSettled
		o.IncrementVersion()
	}
}

// UpdateStatus applies the latest fulfillment status from the feed
func (o *Order) UpdateStatus(status OrderStatus) {
	if status != "" && status != o.Status {
		o.Status = status
		o.IncrementVersion()
	}
}
