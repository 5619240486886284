package marketplace

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wire DTOs for the Trendyol seller API. Field names follow the upstream
// JSON contract; timestamps arrive as epoch milliseconds.

type trendyolOrderResponse struct {
	TotalElements int                    `json:"totalElements"`
	TotalPages    int                    `json:"totalPages"`
	Page          int                    `json:"page"`
	Size          int                    `json:"size"`
	Content       []trendyolOrderContent `json:"content"`
}

type trendyolOrderContent struct {
	OrderNumber           string              `json:"orderNumber"`
	ID                    int64               `json:"id"` // shipment package number
	GrossAmount           decimal.Decimal     `json:"grossAmount"`
	TotalDiscount         decimal.Decimal     `json:"totalDiscount"`
	TotalPrice            decimal.Decimal     `json:"totalPrice"`
	Lines                 []trendyolOrderLine `json:"lines"`
	OriginShipmentDate    int64               `json:"originShipmentDate"`
	ShipmentPackageStatus string              `json:"shipmentPackageStatus"`
	Status                string              `json:"status"`
}

type trendyolOrderLine struct {
	Barcode       string          `json:"barcode"`
	ProductName   string          `json:"productName"`
	Quantity      int             `json:"quantity"`
	Amount        decimal.Decimal `json:"amount"`
	Discount      decimal.Decimal `json:"discount"`
	VatBaseAmount decimal.Decimal `json:"vatBaseAmount"`
	Price         decimal.Decimal `json:"price"`
}

type trendyolSettlementResponse struct {
	TotalElements int                      `json:"totalElements"`
	TotalPages    int                      `json:"totalPages"`
	Page          int                      `json:"page"`
	Size          int                      `json:"size"`
	Content       []trendyolSettlementItem `json:"content"`
}

type trendyolSettlementItem struct {
	ID                string          `json:"id"`
	TransactionDate   int64           `json:"transactionDate"`
	Barcode           string          `json:"barcode"`
	TransactionType   string          `json:"transactionType"`
	Debt              decimal.Decimal `json:"debt"`
	Credit            decimal.Decimal `json:"credit"`
	CommissionRate    decimal.Decimal `json:"commissionRate"`
	CommissionAmount  decimal.Decimal `json:"commissionAmount"`
	SellerRevenue     decimal.Decimal `json:"sellerRevenue"`
	OrderNumber       string          `json:"orderNumber"`
	OrderDate         int64           `json:"orderDate"`
	ShipmentPackageID int64           `json:"shipmentPackageId"`
}

type trendyolProductResponse struct {
	TotalElements int                      `json:"totalElements"`
	TotalPages    int                      `json:"totalPages"`
	Page          int                      `json:"page"`
	Size          int                      `json:"size"`
	Content       []trendyolProductContent `json:"content"`
}

type trendyolProductContent struct {
	Barcode           string          `json:"barcode"`
	Title             string          `json:"title"`
	CommissionRate    decimal.Decimal `json:"commissionRate"`
	DimensionalWeight decimal.Decimal `json:"dimensionalWeight"`
	Approved          bool            `json:"approved"`
	Archived          bool            `json:"archived"`
}

// millisToTime converts an epoch-milliseconds timestamp to UTC time.
// Zero stays the zero time rather than becoming 1970-01-01.
func millisToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
