package catalog

import "time"

// Allocation is the outcome of sourcing a line item's cost from one lot.
// A line item is committed to exactly one lot: when no single lot can cover
// the full quantity, the oldest eligible lot with remaining capacity is
// committed partially rather than splitting the item across lots. Splitting
// would change financial output and is deliberately not done here.
type Allocation struct {
	Lot      *CostLot
	Consumed int
}

// Allocate selects, in acquisition-date order among lots dated on or before
// orderDate, the first lot whose remaining capacity covers the full needed
// quantity. When no lot can fully cover it, the oldest eligible lot with
// any remaining capacity is committed instead. Returns nil when no eligible
// lot exists; the caller clears the item's cost fields and the item is
// reported as uncosted.
func (p *Product) Allocate(orderDate time.Time, needed int) *Allocation {
	return p.allocate(orderDate, needed, false)
}

// AllocateWithFallback behaves like Allocate, but when no lot is dated on
// or before orderDate it considers all lots regardless of date. Used only
// on first ingestion of historical orders, so freshly imported orders are
// not left permanently uncosted. Resynchronization never uses the fallback.
func (p *Product) AllocateWithFallback(orderDate time.Time, needed int) *Allocation {
	if alloc := p.allocate(orderDate, needed, false); alloc != nil {
		return alloc
	}
	return p.allocate(orderDate, needed, true)
}

func (p *Product) allocate(orderDate time.Time, needed int, ignoreDate bool) *Allocation {
	if needed <= 0 {
		return nil
	}
	var partial *CostLot
	for i := range p.Lots {
		lot := &p.Lots[i]
		if !ignoreDate && lot.AcquisitionDate.After(orderDate) {
			continue
		}
		if lot.Remaining() <= 0 {
			continue
		}
		if lot.Remaining() >= needed {
			return &Allocation{Lot: lot, Consumed: lot.Reserve(needed)}
		}
		if partial == nil {
			partial = lot
		}
	}
	if partial != nil {
		return &Allocation{Lot: partial, Consumed: partial.Reserve(needed)}
	}
	return nil
}
