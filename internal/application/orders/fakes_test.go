package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/semdin/sellerx-backend/internal/domain/catalog"
	"github.com/semdin/sellerx-backend/internal/domain/orders"
	"github.com/semdin/sellerx-backend/internal/domain/shared"
)

// fakeProductRepo is an in-memory catalog repository keyed by barcode
type fakeProductRepo struct {
	byBarcode map[string]*catalog.Product
	saves     int
}

func newFakeProductRepo(products ...*catalog.Product) *fakeProductRepo {
	repo := &fakeProductRepo{byBarcode: make(map[string]*catalog.Product)}
	for _, p := range products {
		repo.byBarcode[p.Barcode] = p
	}
	return repo
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	for _, p := range r.byBarcode {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeProductRepo) FindByStoreAndBarcode(_ context.Context, _ uuid.UUID, barcode string) (*catalog.Product, error) {
	p, ok := r.byBarcode[barcode]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (r *fakeProductRepo) ListByStore(_ context.Context, _ uuid.UUID) ([]*catalog.Product, error) {
	list := make([]*catalog.Product, 0, len(r.byBarcode))
	for _, p := range r.byBarcode {
		list = append(list, p)
	}
	return list, nil
}

func (r *fakeProductRepo) Create(_ context.Context, p *catalog.Product) error {
	if _, ok := r.byBarcode[p.Barcode]; ok {
		return shared.ErrAlreadyExists
	}
	r.byBarcode[p.Barcode] = p
	return nil
}

func (r *fakeProductRepo) Save(_ context.Context, p *catalog.Product) error {
	r.byBarcode[p.Barcode] = p
	r.saves++
	return nil
}

// fakeOrderRepo is an in-memory order repository. Like the real repository,
// which materializes a fresh domain instance per query, it deep-copies on
// every read and write: services must never depend on pointer aliasing
// across repository calls.
type fakeOrderRepo struct {
	orders []*orders.Order
	saves  int
}

func newFakeOrderRepo(os ...*orders.Order) *fakeOrderRepo {
	r := &fakeOrderRepo{}
	for _, o := range os {
		r.orders = append(r.orders, cloneOrder(o))
	}
	return r
}

func cloneOrder(o *orders.Order) *orders.Order {
	clone := *o
	clone.Lines = make([]orders.LineItem, len(o.Lines))
	for i := range o.Lines {
		clone.Lines[i] = cloneLineItem(o.Lines[i])
	}
	return &clone
}

func cloneLineItem(li orders.LineItem) orders.LineItem {
	clone := li
	if li.Cost != nil {
		cost := *li.Cost
		clone.Cost = &cost
	}
	if li.CostVatRate != nil {
		rate := *li.CostVatRate
		clone.CostVatRate = &rate
	}
	if li.SourceLotDate != nil {
		date := *li.SourceLotDate
		clone.SourceLotDate = &date
	}
	clone.Transactions = append([]orders.SettlementTransaction(nil), li.Transactions...)
	return clone
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*orders.Order, error) {
	for _, o := range r.orders {
		if o.ID == id {
			return cloneOrder(o), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeOrderRepo) FindByIdentity(_ context.Context, storeID uuid.UUID, orderNumber string, packageNo int64) (*orders.Order, error) {
	for _, o := range r.orders {
		if o.StoreID == storeID && o.OrderNumber == orderNumber && o.PackageNo == packageNo {
			return cloneOrder(o), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeOrderRepo) ListByNumber(_ context.Context, storeID uuid.UUID, orderNumber string) ([]*orders.Order, error) {
	var matched []*orders.Order
	for _, o := range r.orders {
		if o.StoreID == storeID && o.OrderNumber == orderNumber {
			matched = append(matched, cloneOrder(o))
		}
	}
	return matched, nil
}

func (r *fakeOrderRepo) ListContainingBarcode(_ context.Context, storeID uuid.UUID, barcode string, from time.Time) ([]*orders.Order, error) {
	var matched []*orders.Order
	for _, o := range r.orders {
		if o.StoreID != storeID || o.OrderDate.Before(from) {
			continue
		}
		if len(o.LinesWithBarcode(barcode)) > 0 {
			matched = append(matched, cloneOrder(o))
		}
	}
	return matched, nil
}

func (r *fakeOrderRepo) ListByPeriod(_ context.Context, storeID uuid.UUID, from, to time.Time) ([]*orders.Order, error) {
	var matched []*orders.Order
	for _, o := range r.orders {
		if o.StoreID == storeID && !o.OrderDate.Before(from) && o.OrderDate.Before(to) {
			matched = append(matched, cloneOrder(o))
		}
	}
	return matched, nil
}

func (r *fakeOrderRepo) Create(_ context.Context, o *orders.Order) error {
	r.orders = append(r.orders, cloneOrder(o))
	return nil
}

func (r *fakeOrderRepo) Save(_ context.Context, o *orders.Order) error {
	r.saves++
	for i := range r.orders {
		if r.orders[i].ID == o.ID {
			r.orders[i] = cloneOrder(o)
			return nil
		}
	}
	r.orders = append(r.orders, cloneOrder(o))
	return nil
}

func (r *fakeOrderRepo) SaveAll(ctx context.Context, os []*orders.Order) error {
	for _, o := range os {
		if err := r.Save(ctx, o); err != nil {
			return err
		}
	}
	return nil
}

// storedOrder reads an order's persisted state back out of the fake
func storedOrder(t *testing.T, repo *fakeOrderRepo, storeID uuid.UUID, orderNumber string, packageNo int64) *orders.Order {
	t.Helper()
	o, err := repo.FindByIdentity(context.Background(), storeID, orderNumber, packageNo)
	require.NoError(t, err)
	return o
}

// noopLocker runs the callback without any locking
type noopLocker struct{}

func (noopLocker) WithLock(_ context.Context, _ string, _ time.Duration, fn func() error) error {
	return fn()
}

var _ catalog.Repository = (*fakeProductRepo)(nil)
var _ orders.Repository = (*fakeOrderRepo)(nil)
var _ shared.EntityLocker = (*noopLocker)(nil)
