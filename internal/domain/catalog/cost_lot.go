package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/semdin/sellerx-backend/internal/domain/shared"
)

// ErrLotNotFound is returned when no lot exists on the requested date
var ErrLotNotFound = shared.NewDomainError("LOT_NOT_FOUND", "no cost lot exists on the given date")

// CostLot is one acquisition batch of a product: a quantity bought at one
// unit cost on one day. UsedQuantity tracks how many units the allocator has
// attributed to order line items; it never exceeds Quantity.
type CostLot struct {
	Quantity        int             `json:"quantity"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	VatRate         int             `json:"vat_rate"`
	AcquisitionDate time.Time       `json:"acquisition_date"`
	UsedQuantity    int             `json:"used_quantity"`
}

// NewCostLot creates a lot. The date is expected to be normalized to
// business-day midnight already.
func NewCostLot(quantity int, unitCost decimal.Decimal, vatRate int, date time.Time) (CostLot, error) {
	lot := CostLot{
		Quantity:        quantity,
		UnitCost:        unitCost,
		VatRate:         vatRate,
		AcquisitionDate: date,
	}
	if err := lot.Validate(); err != nil {
		return CostLot{}, err
	}
	return lot, nil
}

// Validate checks the lot's internal consistency
func (l *CostLot) Validate() error {
	if l.Quantity <= 0 {
		return shared.NewDomainError("VALIDATION_ERROR", "lot quantity must be positive")
	}
	if l.UnitCost.IsNegative() {
		return shared.NewDomainError("VALIDATION_ERROR", "lot unit cost cannot be negative")
	}
	if l.VatRate < 0 {
		return shared.NewDomainError("VALIDATION_ERROR", "lot vat rate cannot be negative")
	}
	if l.UsedQuantity < 0 || l.UsedQuantity > l.Quantity {
		return shared.NewDomainError("VALIDATION_ERROR", "lot usage out of range")
	}
	return nil
}

// Remaining returns how many units are still unattributed
func (l *CostLot) Remaining() int {
	return l.Quantity - l.UsedQuantity
}

// Reserve attributes up to needed units and returns how many were actually
// taken. Never exceeds the remaining capacity.
func (l *CostLot) Reserve(needed int) int {
	if needed <= 0 {
		return 0
	}
	taken := needed
	if remaining := l.Remaining(); taken > remaining {
		taken = remaining
	}
	l.UsedQuantity += taken
	return taken
}

// ResetUsage clears all attribution so a resync can recompute it
func (l *CostLot) ResetUsage() {
	l.UsedQuantity = 0
}

// mergeInto folds an incoming same-day lot into this one. Unit cost and VAT
// rate become quantity-weighted averages; the VAT rate is rounded to the
// nearest whole percent. Existing usage is kept, the follow-up resync
// reassigns it.
func (l *CostLot) mergeInto(incoming CostLot) {
	oldQty := decimal.NewFromInt(int64(l.Quantity))
	newQty := decimal.NewFromInt(int64(incoming.Quantity))
	totalQty := oldQty.Add(newQty)

	weightedCost := l.UnitCost.Mul(oldQty).Add(incoming.UnitCost.Mul(newQty)).Div(totalQty)
	weightedVat := decimal.NewFromInt(int64(l.VatRate)).Mul(oldQty).
		Add(decimal.NewFromInt(int64(incoming.VatRate)).Mul(newQty)).
		Div(totalQty)

	l.Quantity += incoming.Quantity
	l.UnitCost = weightedCost
	l.VatRate = int(weightedVat.Round(0).IntPart())
}
