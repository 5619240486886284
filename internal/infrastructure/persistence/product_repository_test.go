package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/semdin/sellerx-backend/internal/domain/catalog"
	"github.com/semdin/sellerx-backend/internal/domain/shared"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func TestGormProductRepository_FindByStoreAndBarcode(t *testing.T) {
	t.Run("finds product and unmarshals lot ledger", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormProductRepository(gormDB)

		productID := uuid.New()
		storeID := uuid.New()
		lots := `[{"quantity":5,"unit_cost":"10","vat_rate":20,"acquisition_date":"2024-01-01T00:00:00Z","used_quantity":3}]`

		rows := sqlmock.NewRows([]string{"id", "store_id", "barcode", "title", "lots", "version"}).
			AddRow(productID, storeID, "BC-1", "Test Product", lots, 2)

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE store_id = \$1 AND barcode = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(storeID, "BC-1", 1).
			WillReturnRows(rows)

		product, err := repo.FindByStoreAndBarcode(context.Background(), storeID, "BC-1")

		require.NoError(t, err)
		assert.Equal(t, productID, product.ID)
		assert.Equal(t, "BC-1", product.Barcode)
		assert.Equal(t, 2, product.Version)
		require.Len(t, product.Lots, 1)
		assert.Equal(t, 5, product.Lots[0].Quantity)
		assert.Equal(t, 3, product.Lots[0].UsedQuantity)
		assert.Equal(t, 2, product.Lots[0].Remaining())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps missing product to domain not-found", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormProductRepository(gormDB)

		storeID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "products" WHERE store_id = \$1 AND barcode = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(storeID, "MISSING", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		product, err := repo.FindByStoreAndBarcode(context.Background(), storeID, "MISSING")

		assert.Nil(t, product)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductRepository_Save(t *testing.T) {
	t.Run("writes the full lot ledger", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormProductRepository(gormDB)

		product, err := catalog.NewProduct(uuid.New(), "BC-1", "Test Product")
		require.NoError(t, err)

		mock.ExpectExec(`UPDATE "products" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Save(context.Background(), product))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports not-found when no row matches", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormProductRepository(gormDB)

		product, err := catalog.NewProduct(uuid.New(), "BC-1", "Test Product")
		require.NoError(t, err)

		mock.ExpectExec(`UPDATE "products" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Save(context.Background(), product), shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
