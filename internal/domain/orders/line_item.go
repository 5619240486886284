package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one product's position within an order. Cost, CostVatRate and
// SourceLotDate are written by the allocator and stay nil while no eligible
// cost lot exists ("uncosted").
type LineItem struct {
	Barcode           string
	ProductName       string
	Quantity          int
	UnitPriceOrder    decimal.Decimal
	UnitPriceDiscount decimal.Decimal
	VatBaseAmount     decimal.Decimal
	Price             decimal.Decimal
	Cost              *decimal.Decimal
	CostVatRate       *int
	SourceLotDate     *time.Time
	Transactions      []SettlementTransaction
}

// SetCost records the allocated cost source on the item
func (li *LineItem) SetCost(unitCost decimal.Decimal, vatRate int, lotDate time.Time) {
	cost := unitCost
	rate := vatRate
	date := lotDate
	li.Cost = &cost
	li.CostVatRate = &rate
	li.SourceLotDate = &date
}

// ClearCost marks the item as uncosted
func (li *LineItem) ClearCost() {
	li.Cost = nil
	li.CostVatRate = nil
	li.SourceLotDate = nil
}

// HasCost reports whether a positive cost has been allocated
func (li *LineItem) HasCost() bool {
	return li.Cost != nil && li.Cost.IsPositive()
}

// HasTransaction reports whether the given external ID is already recorded
// on this item, either as a transaction's own id or as the id of the return
// that converted a transaction to RETURNED.
func (li *LineItem) HasTransaction(id string) bool {
	if id == "" {
		return false
	}
	for i := range li.Transactions {
		if li.Transactions[i].ID == id || li.Transactions[i].ReturnID == id {
			return true
		}
	}
	return false
}

// AppendTransaction adds a transaction unless its ID is already present.
// Returns true when the transaction was newly added.
func (li *LineItem) AppendTransaction(tx SettlementTransaction) bool {
	if li.HasTransaction(tx.ID) {
		return false
	}
	li.Transactions = append(li.Transactions, tx)
	return true
}
