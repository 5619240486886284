package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/semdin/sellerx-backend/internal/domain/catalog"
)

// CostLotsColumn stores a product's lot ledger as one JSONB document so the
// whole ledger is read and written atomically with the product row.
type CostLotsColumn []catalog.CostLot

// Value implements driver.Valuer
func (c CostLotsColumn) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]catalog.CostLot(c))
	if err != nil {
		return nil, fmt.Errorf("marshal cost lots: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (c *CostLotsColumn) Scan(value any) error {
	if value == nil {
		*c = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported cost lots column type %T", value)
	}
	return json.Unmarshal(data, (*[]catalog.CostLot)(c))
}

// ProductModel is the persistence model for the Product aggregate.
type ProductModel struct {
	AggregateModel
	StoreID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_product_store_barcode,priority:1"`
	Barcode        string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_product_store_barcode,priority:2"`
	Title          string          `gorm:"type:varchar(500)"`
	CommissionRate decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
	ShippingWeight decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0"`
	Lots           CostLotsColumn  `gorm:"type:jsonb;not null;default:'[]'"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product aggregate.
func (m *ProductModel) ToDomain() *catalog.Product {
	lots := make([]catalog.CostLot, len(m.Lots))
	copy(lots, m.Lots)
	return &catalog.Product{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		StoreID:           m.StoreID,
		Barcode:           m.Barcode,
		Title:             m.Title,
		CommissionRate:    m.CommissionRate,
		ShippingWeight:    m.ShippingWeight,
		Lots:              lots,
	}
}

// FromDomain populates the persistence model from a domain Product aggregate.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.StoreID = p.StoreID
	m.Barcode = p.Barcode
	m.Title = p.Title
	m.CommissionRate = p.CommissionRate
	m.ShippingWeight = p.ShippingWeight
	m.Lots = make(CostLotsColumn, len(p.Lots))
	copy(m.Lots, p.Lots)
}

// ProductModelFromDomain creates a new persistence model from a domain Product.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
