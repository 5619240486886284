package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settlement transaction types as reported by the marketplace feed
const (
	TransactionTypeSale   = "Sale"
	TransactionTypeReturn = "Return"
)

// SettlementStatus is the realized outcome of a settlement transaction
type SettlementStatus string

const (
	SettlementStatusSold      SettlementStatus = "SOLD"
	SettlementStatusReturned  SettlementStatus = "RETURNED"
	SettlementStatusCancelled SettlementStatus = "CANCELLED"
	SettlementStatusUnknown   SettlementStatus = "UNKNOWN"
)

// SettlementTransaction is an externally reported financial event attached
// to exactly one order line item. Its externally assigned ID is the
// deduplication key: re-ingesting the same ID is a no-op.
type SettlementTransaction struct {
	ID               string
	Barcode          string
	Type             string
	Status           SettlementStatus
	Debt             decimal.Decimal
	Credit           decimal.Decimal
	CommissionRate   decimal.Decimal
	CommissionAmount decimal.Decimal
	SellerRevenue    decimal.Decimal
	PackageID        int64
	TransactionDate  time.Time
	// ReturnID holds the external id of the return record that converted
	// this transaction from SOLD to RETURNED. It is a second dedup key:
	// replaying that return record must not convert another sale.
	ReturnID string
}

// MarkReturned relabels a sold transaction as returned. The transition is
// one-way: a RETURNED transaction is never reverted to SOLD.
func (t *SettlementTransaction) MarkReturned() {
	t.Status = SettlementStatusReturned
	t.Type = TransactionTypeReturn
}

// MarkReturnedBy relabels a sold transaction as returned and records the id
// of the return record that caused the conversion.
func (t *SettlementTransaction) MarkReturnedBy(returnID string) {
	t.MarkReturned()
	t.ReturnID = returnID
}
