package marketplace

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/semdin/sellerx-backend/internal/domain/store"
)

// SettlementKind selects which settlement feed to fetch. The marketplace
// reports sales and returns as separate feeds over the same endpoint.
type SettlementKind string

const (
	SettlementKindSale   SettlementKind = "Sale"
	SettlementKindReturn SettlementKind = "Return"
)

// Gateway is the outbound port to the Trendyol seller API. Implementations
// handle transport, auth and pagination mechanics; callers only see fully
// materialized pages.
type Gateway interface {
	FetchOrders(ctx context.Context, creds *store.TrendyolCredentials, window Window, page, size int) (*OrderPage, error)
	FetchSettlements(ctx context.Context, creds *store.TrendyolCredentials, kind SettlementKind, window Window, page, size int) (*SettlementPage, error)
	FetchProducts(ctx context.Context, creds *store.TrendyolCredentials, page, size int) (*ProductPage, error)
}

// OrderPage is one page of the order feed
type OrderPage struct {
	Orders     []OrderPayload
	Page       int
	TotalPages int
}

// OrderPayload is an order as reported by the marketplace
type OrderPayload struct {
	OrderNumber   string
	PackageNo     int64
	OrderDate     time.Time
	GrossAmount   decimal.Decimal
	TotalDiscount decimal.Decimal
	Status        string
	Lines         []LinePayload
}

// LinePayload is one order line as reported by the marketplace
type LinePayload struct {
	Barcode           string
	ProductName       string
	Quantity          int
	UnitPriceOrder    decimal.Decimal
	UnitPriceDiscount decimal.Decimal
	VatBaseAmount     decimal.Decimal
	Price             decimal.Decimal
}

// SettlementPage is one page of a settlement feed
type SettlementPage struct {
	Records    []SettlementPayload
	Page       int
	TotalPages int
}

// SettlementPayload is a settlement transaction as reported by the
// marketplace, carrying the order identity it settles against
type SettlementPayload struct {
	ID               string
	OrderNumber      string
	PackageID        int64
	Barcode          string
	TransactionType  string
	Debt             decimal.Decimal
	Credit           decimal.Decimal
	CommissionRate   decimal.Decimal
	CommissionAmount decimal.Decimal
	SellerRevenue    decimal.Decimal
	TransactionDate  time.Time
}

// ProductPage is one page of the product catalog feed
type ProductPage struct {
	Products   []ProductPayload
	Page       int
	TotalPages int
}

// ProductPayload is a catalog product as reported by the marketplace
type ProductPayload struct {
	Barcode           string
	Title             string
	CommissionRate    decimal.Decimal
	DimensionalWeight decimal.Decimal
}
