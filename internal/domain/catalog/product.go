package catalog

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/semdin/sellerx-backend/internal/domain/shared"
)

// Product owns the ordered cost lot ledger for one barcode in one store.
// Lot dates are expected to be normalized to business-day midnight
// (shared.DayOf) before they reach the aggregate.
type Product struct {
	shared.BaseAggregateRoot
	StoreID        uuid.UUID
	Barcode        string
	Title          string
	CommissionRate decimal.Decimal
	ShippingWeight decimal.Decimal
	Lots           []CostLot
}

// NewProduct creates a product with an empty lot ledger
func NewProduct(storeID uuid.UUID, barcode, title string) (*Product, error) {
	if storeID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "store id is required")
	}
	if barcode == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "barcode is required")
	}
	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		StoreID:           storeID,
		Barcode:           barcode,
		Title:             title,
		Lots:              make([]CostLot, 0),
	}, nil
}

// AddOrMergeLot appends a lot, or merges it into the existing lot on the
// same acquisition date by quantity-weighted average of unit cost and VAT
// rate. Returns the effective date callers must resynchronize from.
func (p *Product) AddOrMergeLot(lot CostLot) (time.Time, error) {
	if err := lot.Validate(); err != nil {
		return time.Time{}, err
	}
	if existing := p.lotOn(lot.AcquisitionDate); existing != nil {
		existing.mergeInto(lot)
	} else {
		p.Lots = append(p.Lots, lot)
		p.sortLots()
	}
	p.IncrementVersion()
	return lot.AcquisitionDate, nil
}

// EditLot replaces quantity, unit cost and VAT rate of the lot on date.
// Usage is cleared: the caller triggers a resync that reassigns it.
func (p *Product) EditLot(date time.Time, quantity int, unitCost decimal.Decimal, vatRate int) error {
	lot := p.lotOn(date)
	if lot == nil {
		return ErrLotNotFound
	}
	updated := CostLot{
		Quantity:        quantity,
		UnitCost:        unitCost,
		VatRate:         vatRate,
		AcquisitionDate: lot.AcquisitionDate,
	}
	if err := updated.Validate(); err != nil {
		return err
	}
	*lot = updated
	p.IncrementVersion()
	return nil
}

// DeleteLot removes the lot on date
func (p *Product) DeleteLot(date time.Time) error {
	for i := range p.Lots {
		if p.Lots[i].AcquisitionDate.Equal(date) {
			p.Lots = append(p.Lots[:i], p.Lots[i+1:]...)
			p.IncrementVersion()
			return nil
		}
	}
	return ErrLotNotFound
}

// ResetUsageFrom clears usage on every lot acquired on or after date. Lots
// strictly before it keep their consumption as settled fact.
func (p *Product) ResetUsageFrom(date time.Time) {
	for i := range p.Lots {
		if !p.Lots[i].AcquisitionDate.Before(date) {
			p.Lots[i].ResetUsage()
		}
	}
}

// TotalRemaining sums the unattributed units across all lots
func (p *Product) TotalRemaining() int {
	total := 0
	for i := range p.Lots {
		total += p.Lots[i].Remaining()
	}
	return total
}

// lotOn returns a pointer to the lot acquired exactly on date, or nil
func (p *Product) lotOn(date time.Time) *CostLot {
	for i := range p.Lots {
		if p.Lots[i].AcquisitionDate.Equal(date) {
			return &p.Lots[i]
		}
	}
	return nil
}

// sortLots orders the ledger by acquisition date ascending, stable on ties
// so insertion order is preserved
func (p *Product) sortLots() {
	sort.SliceStable(p.Lots, func(i, j int) bool {
		return p.Lots[i].AcquisitionDate.Before(p.Lots[j].AcquisitionDate)
	})
}
