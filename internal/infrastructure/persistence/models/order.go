package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/semdin/sellerx-backend/internal/domain/orders"
)

// lineItemDoc is the JSONB shape of one order line. The lowercase "barcode"
// key is load-bearing: the containment query that finds orders touching a
// barcode matches against it.
type lineItemDoc struct {
	Barcode           string           `json:"barcode"`
	ProductName       string           `json:"product_name,omitempty"`
	Quantity          int              `json:"quantity"`
	UnitPriceOrder    decimal.Decimal  `json:"unit_price_order"`
	UnitPriceDiscount decimal.Decimal  `json:"unit_price_discount"`
	VatBaseAmount     decimal.Decimal  `json:"vat_base_amount"`
	Price             decimal.Decimal  `json:"price"`
	Cost              *decimal.Decimal `json:"cost,omitempty"`
	CostVatRate       *int             `json:"cost_vat_rate,omitempty"`
	SourceLotDate     *time.Time       `json:"source_lot_date,omitempty"`
	Transactions      []transactionDoc `json:"transactions,omitempty"`
}

type transactionDoc struct {
	ID               string                  `json:"id"`
	Barcode          string                  `json:"barcode"`
	Type             string                  `json:"type"`
	Status           orders.SettlementStatus `json:"status"`
	Debt             decimal.Decimal         `json:"debt"`
	Credit           decimal.Decimal         `json:"credit"`
	CommissionRate   decimal.Decimal         `json:"commission_rate"`
	CommissionAmount decimal.Decimal         `json:"commission_amount"`
	SellerRevenue    decimal.Decimal         `json:"seller_revenue"`
	PackageID        int64                   `json:"package_id"`
	TransactionDate  time.Time               `json:"transaction_date"`
	ReturnID         string                  `json:"return_id,omitempty"`
}

// LineItemsColumn stores an order's lines, with their nested settlement
// transactions, as one JSONB document.
type LineItemsColumn []lineItemDoc

// Value implements driver.Valuer
func (l LineItemsColumn) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]lineItemDoc(l))
	if err != nil {
		return nil, fmt.Errorf("marshal line items: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (l *LineItemsColumn) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported line items column type %T", value)
	}
	return json.Unmarshal(data, (*[]lineItemDoc)(l))
}

// OrderModel is the persistence model for the Order aggregate.
type OrderModel struct {
	AggregateModel
	StoreID           uuid.UUID                `gorm:"type:uuid;not null;uniqueIndex:idx_order_identity,priority:1"`
	OrderNumber       string                   `gorm:"type:varchar(100);not null;uniqueIndex:idx_order_identity,priority:2;index:idx_order_number"`
	PackageNo         int64                    `gorm:"not null;uniqueIndex:idx_order_identity,priority:3"`
	OrderDate         time.Time                `gorm:"not null;index"`
	GrossAmount       decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	TotalDiscount     decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	Status            orders.OrderStatus       `gorm:"type:varchar(30);not null"`
	TransactionStatus orders.TransactionStatus `gorm:"type:varchar(20);not null;default:'NOT_SETTLED'"`
	Lines             LineItemsColumn          `gorm:"type:jsonb;not null;default:'[]'"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order aggregate.
func (m *OrderModel) ToDomain() *orders.Order {
	lines := make([]orders.LineItem, len(m.Lines))
	for i, doc := range m.Lines {
		lines[i] = doc.toDomain()
	}
	return &orders.Order{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		StoreID:           m.StoreID,
		OrderNumber:       m.OrderNumber,
		PackageNo:         m.PackageNo,
		OrderDate:         m.OrderDate,
		GrossAmount:       m.GrossAmount,
		TotalDiscount:     m.TotalDiscount,
		Status:            m.Status,
		TransactionStatus: m.TransactionStatus,
		Lines:             lines,
	}
}

// FromDomain populates the persistence model from a domain Order aggregate.
func (m *OrderModel) FromDomain(o *orders.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.StoreID = o.StoreID
	m.OrderNumber = o.OrderNumber
	m.PackageNo = o.PackageNo
	m.OrderDate = o.OrderDate
	m.GrossAmount = o.GrossAmount
	m.TotalDiscount = o.TotalDiscount
	m.Status = o.Status
	m.TransactionStatus = o.TransactionStatus
	m.Lines = make(LineItemsColumn, len(o.Lines))
	for i := range o.Lines {
		m.Lines[i] = lineItemDocFromDomain(&o.Lines[i])
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order.
func OrderModelFromDomain(o *orders.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

func (d *lineItemDoc) toDomain() orders.LineItem {
	txs := make([]orders.SettlementTransaction, len(d.Transactions))
	for i, t := range d.Transactions {
		txs[i] = orders.SettlementTransaction(t)
	}
	if len(txs) == 0 {
		txs = nil
	}
	return orders.LineItem{
		Barcode:           d.Barcode,
		ProductName:       d.ProductName,
		Quantity:          d.Quantity,
		UnitPriceOrder:    d.UnitPriceOrder,
		UnitPriceDiscount: d.UnitPriceDiscount,
		VatBaseAmount:     d.VatBaseAmount,
		Price:             d.Price,
		Cost:              d.Cost,
		CostVatRate:       d.CostVatRate,
		SourceLotDate:     d.SourceLotDate,
		Transactions:      txs,
	}
}

func lineItemDocFromDomain(li *orders.LineItem) lineItemDoc {
	txs := make([]transactionDoc, len(li.Transactions))
	for i, t := range li.Transactions {
		txs[i] = transactionDoc(t)
	}
	if len(txs) == 0 {
		txs = nil
	}
	return lineItemDoc{
		Barcode:           li.Barcode,
		ProductName:       li.ProductName,
		Quantity:          li.Quantity,
		UnitPriceOrder:    li.UnitPriceOrder,
		UnitPriceDiscount: li.UnitPriceDiscount,
		VatBaseAmount:     li.VatBaseAmount,
		Price:             li.Price,
		Cost:              li.Cost,
		CostVatRate:       li.CostVatRate,
		SourceLotDate:     li.SourceLotDate,
		Transactions:      txs,
	}
}
