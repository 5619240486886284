package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/semdin/sellerx-backend/internal/domain/orders"
	"github.com/semdin/sellerx-backend/internal/domain/shared"
	"github.com/semdin/sellerx-backend/internal/infrastructure/persistence/models"
)

// GormOrderRepository implements orders.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*orders.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIdentity locates an order by its full business identity
func (r *GormOrderRepository) FindByIdentity(ctx context.Context, storeID uuid.UUID, orderNumber string, packageNo int64) (*orders.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND order_number = ? AND package_no = ?", storeID, orderNumber, packageNo).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListByNumber returns every package of an order number in a store
func (r *GormOrderRepository) ListByNumber(ctx context.Context, storeID uuid.UUID, orderNumber string) ([]*orders.Order, error) {
	var rows []models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND order_number = ?", storeID, orderNumber).
		Order("package_no").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainOrders(rows), nil
}

// ListContainingBarcode returns the store's orders dated on or after from
// that carry at least one line item with the given barcode. Uses JSONB
// containment against the lines document, served by the GIN index.
func (r *GormOrderRepository) ListContainingBarcode(ctx context.Context, storeID uuid.UUID, barcode string, from time.Time) ([]*orders.Order, error) {
	probe, err := json.Marshal([]map[string]string{{"barcode": barcode}})
	if err != nil {
		return nil, fmt.Errorf("marshal barcode probe: %w", err)
	}

	var rows []models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND order_date >= ? AND lines @> ?::jsonb", storeID, from, string(probe)).
		Order("order_date").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainOrders(rows), nil
}

// ListByPeriod returns the store's orders with an order date in [from, to)
func (r *GormOrderRepository) ListByPeriod(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]*orders.Order, error) {
	var rows []models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND order_date >= ? AND order_date < ?", storeID, from, to).
		Order("order_date").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainOrders(rows), nil
}

// Create persists a new order
func (r *GormOrderRepository) Create(ctx context.Context, o *orders.Order) error {
	model := models.OrderModelFromDomain(o)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Save persists the full mutable state of an order
func (r *GormOrderRepository) Save(ctx context.Context, o *orders.Order) error {
	return r.save(r.db.WithContext(ctx), o)
}

// SaveAll persists a batch of orders in one transaction so a reconciliation
// or resync run is either fully applied or not at all.
func (r *GormOrderRepository) SaveAll(ctx context.Context, os []*orders.Order) error {
	if len(os) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, o := range os {
			if err := r.save(tx, o); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *GormOrderRepository) save(tx *gorm.DB, o *orders.Order) error {
	model := models.OrderModelFromDomain(o)
	result := tx.Model(&models.OrderModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]any{
			"gross_amount":       model.GrossAmount,
			"total_discount":     model.TotalDiscount,
			"status":             model.Status,
			"transaction_status": model.TransactionStatus,
			"lines":              model.Lines,
			"version":            model.Version,
			"updated_at":         model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toDomainOrders(rows []models.OrderModel) []*orders.Order {
	list := make([]*orders.Order, len(rows))
	for i := range rows {
		list[i] = rows[i].ToDomain()
	}
	return list
}
