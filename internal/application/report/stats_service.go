package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/semdin/sellerx-backend/internal/domain/orders"
	"github.com/semdin/sellerx-backend/internal/domain/shared"
)

// FinancialConfig holds the constants of the payout model
type FinancialConfig struct {
	// ReturnUnitCost is the fixed handling cost charged per returned order.
	ReturnUnitCost decimal.Decimal
	// StoppageRate is the withholding applied to revenue in the payout
	// estimate, e.g. 0.01 for 1%.
	StoppageRate decimal.Decimal
	// DefaultVatRate is used for the sales VAT of items whose feed did not
	// report a VAT base, e.g. 0.20 for 20%.
	DefaultVatRate decimal.Decimal
}

// DefaultFinancialConfig returns the standard payout model constants
func DefaultFinancialConfig() FinancialConfig {
	return FinancialConfig{
		ReturnUnitCost: decimal.NewFromInt(50),
		StoppageRate:   decimal.RequireFromString("0.01"),
		DefaultVatRate: decimal.RequireFromString("0.20"),
	}
}

// Stats is the read-only financial view of a store over a period
type Stats struct {
	From              time.Time       `json:"from"`
	To                time.Time       `json:"to"`
	OrderCount        int             `json:"order_count"`
	ReturnCount       int             `json:"return_count"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalProductCosts decimal.Decimal `json:"total_product_costs"`
	GrossProfit       decimal.Decimal `json:"gross_profit"`
	VatDifference     decimal.Decimal `json:"vat_difference"`
	ReturnCost        decimal.Decimal `json:"return_cost"`
	EstimatedPayout   decimal.Decimal `json:"estimated_payout"`
	ItemsWithoutCost  int             `json:"items_without_cost"`
}

// StatsService derives revenue, gross profit, VAT differential and return
// cost from allocated costs and settlement outcomes. Pure read path: it
// never mutates orders or lots.
type StatsService struct {
	orders   orders.Repository
	cfg      FinancialConfig
	location *time.Location
	logger   *zap.Logger
}

// NewStatsService creates a stats service
func NewStatsService(orderRepo orders.Repository, cfg FinancialConfig, location *time.Location, logger *zap.Logger) *StatsService {
	return &StatsService{
		orders:   orderRepo,
		cfg:      cfg,
		location: location,
		logger:   logger.Named("stats"),
	}
}

// Stats computes the financial view for [from, to)
func (s *StatsService) Stats(ctx context.Context, storeID uuid.UUID, from, to time.Time) (*Stats, error) {
	list, err := s.orders.ListByPeriod(ctx, storeID, from, to)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		From:              from,
		To:                to,
		TotalRevenue:      decimal.Zero,
		TotalProductCosts: decimal.Zero,
		GrossProfit:       decimal.Zero,
		VatDifference:     decimal.Zero,
		ReturnCost:        decimal.Zero,
		EstimatedPayout:   decimal.Zero,
	}

	for _, o := range list {
		if o.Status == orders.StatusReturned {
			stats.ReturnCount++
		}
		if !o.Status.CountsAsRevenue() {
			continue
		}
		stats.OrderCount++
		stats.TotalRevenue = stats.TotalRevenue.Add(o.GrossAmount.Sub(o.TotalDiscount))

		for i := range o.Lines {
			line := &o.Lines[i]
			qty := decimal.NewFromInt(int64(line.Quantity))

			if !line.HasCost() {
				stats.ItemsWithoutCost += line.Quantity
				continue
			}
			stats.TotalProductCosts = stats.TotalProductCosts.Add(line.Cost.Mul(qty))
			stats.VatDifference = stats.VatDifference.Add(s.itemVatDifference(line).Mul(qty))
		}
	}

	stats.GrossProfit = stats.TotalRevenue.Sub(stats.TotalProductCosts)
	stats.ReturnCost = s.cfg.ReturnUnitCost.Mul(decimal.NewFromInt(int64(stats.ReturnCount)))

	stoppage := stats.TotalRevenue.Mul(s.cfg.StoppageRate)
	stats.EstimatedPayout = stats.TotalRevenue.Sub(stoppage).Sub(stats.TotalProductCosts).Sub(stats.ReturnCost)

	return stats, nil
}

// itemVatDifference computes the per-unit VAT differential: sales VAT out
// of the gross price minus cost VAT out of the gross cost. Items without a
// reported VAT base fall back to the default rate; items without a cost
// VAT rate contribute no cost VAT.
func (s *StatsService) itemVatDifference(line *orders.LineItem) decimal.Decimal {
	if !line.Price.IsPositive() || !line.HasCost() {
		return decimal.Zero
	}

	rate := s.cfg.DefaultVatRate
	if line.VatBaseAmount.IsPositive() {
		rate = line.VatBaseAmount.Div(decimal.NewFromInt(100))
	}
	salesVat := line.Price.Div(decimal.NewFromInt(1).Add(rate)).Mul(rate)

	costVat := decimal.Zero
	if line.CostVatRate != nil && *line.CostVatRate > 0 {
		costRate := decimal.NewFromInt(int64(*line.CostVatRate)).Div(decimal.NewFromInt(100))
		costVat = line.Cost.Div(decimal.NewFromInt(1).Add(costRate)).Mul(costRate)
	}

	return salesVat.Sub(costVat)
}

// Period presets resolved against the business timezone
const (
	PeriodToday       = "today"
	PeriodLast7Days   = "7d"
	PeriodLast30Days  = "30d"
	PeriodMonthToDate = "mtd"
)

// PeriodRange resolves a preset to a half-open [from, to) range in loc.
// Day boundaries follow the business timezone, not the server zone.
func PeriodRange(preset string, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	today := shared.DayOf(now, loc)
	tomorrow := today.AddDate(0, 0, 1)

	switch preset {
	case PeriodToday, "":
		return today, tomorrow, nil
	case PeriodLast7Days:
		return today.AddDate(0, 0, -6), tomorrow, nil
	case PeriodLast30Days:
		return today.AddDate(0, 0, -29), tomorrow, nil
	case PeriodMonthToDate:
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, loc)
		return first, tomorrow, nil
	default:
		return time.Time{}, time.Time{}, shared.NewDomainError("INVALID_INPUT", "unknown period preset: "+preset)
	}
}
