package catalog

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func newTestProduct(t *testing.T) *Product {
	t.Helper()
	p, err := NewProduct(uuid.New(), "BRC-001", "Test Product")
	require.NoError(t, err)
	return p
}

func mustLot(t *testing.T, qty int, cost string, vatRate int, date string) CostLot {
	t.Helper()
	lot, err := NewCostLot(qty, decimal.RequireFromString(cost), vatRate, day(date))
	require.NoError(t, err)
	return lot
}

func TestNewCostLot_Validation(t *testing.T) {
	tests := []struct {
		name    string
		qty     int
		cost    string
		vatRate int
		wantErr bool
	}{
		{"valid lot", 10, "12.50", 20, false},
		{"zero quantity", 0, "12.50", 20, true},
		{"negative quantity", -5, "12.50", 20, true},
		{"negative cost", 10, "-1", 20, true},
		{"negative vat rate", 10, "12.50", -1, true},
		{"zero cost allowed", 10, "0", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCostLot(tt.qty, decimal.RequireFromString(tt.cost), tt.vatRate, day("2024-01-01"))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAddOrMergeLot_MergesSameDateByWeightedAverage(t *testing.T) {
	p := newTestProduct(t)

	_, err := p.AddOrMergeLot(mustLot(t, 5, "10", 10, "2024-01-01"))
	require.NoError(t, err)
	from, err := p.AddOrMergeLot(mustLot(t, 5, "20", 20, "2024-01-01"))
	require.NoError(t, err)

	require.Len(t, p.Lots, 1)
	lot := p.Lots[0]
	assert.Equal(t, 10, lot.Quantity)
	assert.True(t, lot.UnitCost.Equal(decimal.RequireFromString("15")),
		"expected weighted average 15, got %s", lot.UnitCost)
	assert.Equal(t, 15, lot.VatRate)
	assert.True(t, from.Equal(day("2024-01-01")))
}

func TestAddOrMergeLot_WeightedAverageUnevenQuantities(t *testing.T) {
	p := newTestProduct(t)

	_, err := p.AddOrMergeLot(mustLot(t, 3, "10", 18, "2024-01-01"))
	require.NoError(t, err)
	_, err = p.AddOrMergeLot(mustLot(t, 1, "30", 8, "2024-01-01"))
	require.NoError(t, err)

	require.Len(t, p.Lots, 1)
	lot := p.Lots[0]
	assert.Equal(t, 4, lot.Quantity)
	// (3*10 + 1*30) / 4 = 15
	assert.True(t, lot.UnitCost.Equal(decimal.RequireFromString("15")))
	// (3*18 + 1*8) / 4 = 15.5, rounded to 16
	assert.Equal(t, 16, lot.VatRate)
}

func TestAddOrMergeLot_DistinctDatesStaySeparateAndSorted(t *testing.T) {
	p := newTestProduct(t)

	_, err := p.AddOrMergeLot(mustLot(t, 5, "20", 20, "2024-02-01"))
	require.NoError(t, err)
	_, err = p.AddOrMergeLot(mustLot(t, 5, "10", 20, "2024-01-01"))
	require.NoError(t, err)

	require.Len(t, p.Lots, 2)
	assert.True(t, p.Lots[0].AcquisitionDate.Before(p.Lots[1].AcquisitionDate))
	assert.True(t, p.Lots[0].UnitCost.Equal(decimal.RequireFromString("10")))
}

func TestEditLot(t *testing.T) {
	p := newTestProduct(t)
	_, err := p.AddOrMergeLot(mustLot(t, 5, "10", 20, "2024-01-01"))
	require.NoError(t, err)

	t.Run("edits existing lot and clears usage", func(t *testing.T) {
		p.Lots[0].UsedQuantity = 3

		err := p.EditLot(day("2024-01-01"), 8, decimal.RequireFromString("12"), 10)
		require.NoError(t, err)

		lot := p.Lots[0]
		assert.Equal(t, 8, lot.Quantity)
		assert.True(t, lot.UnitCost.Equal(decimal.RequireFromString("12")))
		assert.Equal(t, 10, lot.VatRate)
		assert.Equal(t, 0, lot.UsedQuantity)
	})

	t.Run("fails for absent date", func(t *testing.T) {
		err := p.EditLot(day("2024-03-01"), 8, decimal.RequireFromString("12"), 10)
		assert.ErrorIs(t, err, ErrLotNotFound)
	})

	t.Run("rejects invalid fields", func(t *testing.T) {
		err := p.EditLot(day("2024-01-01"), 0, decimal.RequireFromString("12"), 10)
		assert.Error(t, err)
	})
}

func TestDeleteLot(t *testing.T) {
	p := newTestProduct(t)
	_, err := p.AddOrMergeLot(mustLot(t, 5, "10", 20, "2024-01-01"))
	require.NoError(t, err)
	_, err = p.AddOrMergeLot(mustLot(t, 5, "20", 20, "2024-02-01"))
	require.NoError(t, err)

	require.NoError(t, p.DeleteLot(day("2024-01-01")))
	require.Len(t, p.Lots, 1)
	assert.True(t, p.Lots[0].AcquisitionDate.Equal(day("2024-02-01")))

	assert.ErrorIs(t, p.DeleteLot(day("2024-01-01")), ErrLotNotFound)
}

func TestResetUsageFrom(t *testing.T) {
	p := newTestProduct(t)
	_, err := p.AddOrMergeLot(mustLot(t, 5, "10", 20, "2024-01-01"))
	require.NoError(t, err)
	_, err = p.AddOrMergeLot(mustLot(t, 5, "20", 20, "2024-02-01"))
	require.NoError(t, err)
	p.Lots[0].UsedQuantity = 4
	p.Lots[1].UsedQuantity = 2

	p.ResetUsageFrom(day("2024-02-01"))

	assert.Equal(t, 4, p.Lots[0].UsedQuantity, "lots before the reset date keep their consumption")
	assert.Equal(t, 0, p.Lots[1].UsedQuantity)
}

func TestReserve_NeverExceedsRemaining(t *testing.T) {
	lot := mustLot(t, 5, "10", 20, "2024-01-01")

	assert.Equal(t, 3, lot.Reserve(3))
	assert.Equal(t, 2, lot.Reserve(10), "reservation is capped at remaining capacity")
	assert.Equal(t, 0, lot.Reserve(1))
	assert.Equal(t, 5, lot.UsedQuantity)
	assert.NoError(t, lot.Validate())
}
