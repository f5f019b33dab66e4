package sales

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgdb "github.com/mcouto/autosales-backend/pkg/db"
	"github.com/mcouto/autosales-backend/pkg/db/models"
	"github.com/mcouto/autosales-backend/pkg/enums"
)

func setupSalesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS sales (
  id TEXT PRIMARY KEY,
  vehicle_id TEXT NOT NULL,
  buyer_tax_id TEXT NOT NULL,
  sale_timestamp DATETIME NOT NULL,
  payment_code TEXT,
  payment_status TEXT NOT NULL DEFAULT 'pending',
  checkout_link TEXT,
  checkout_session_id TEXT,
  version INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	require.NoError(t, db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_sales_payment_code ON sales(payment_code) WHERE payment_code IS NOT NULL;`).Error)
	return db
}

func newStoredSale(t *testing.T, repo Repository, paymentCode *string) *models.Sale {
	t.Helper()
	sale := &models.Sale{
		VehicleID:     uuid.New(),
		BuyerTaxID:    "12345678900",
		SaleTimestamp: time.Now().UTC(),
		PaymentCode:   paymentCode,
		PaymentStatus: enums.PaymentStatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), sale))
	return sale
}

func TestRepository_CreateAssignsIDAndVersion(t *testing.T) {
	repo := NewRepository(setupSalesTestDB(t))
	sale := newStoredSale(t, repo, nil)

	assert.NotEqual(t, uuid.Nil, sale.ID)
	assert.Equal(t, int64(1), sale.Version)

	stored, err := repo.FindByID(context.Background(), sale.ID)
	require.NoError(t, err)
	assert.Equal(t, sale.BuyerTaxID, stored.BuyerTaxID)
	assert.Equal(t, enums.PaymentStatusPending, stored.PaymentStatus)
}

func TestRepository_UpdateBumpsVersion(t *testing.T) {
	repo := NewRepository(setupSalesTestDB(t))
	sale := newStoredSale(t, repo, nil)

	sale.PaymentStatus = enums.PaymentStatusEffective
	require.NoError(t, repo.Update(context.Background(), sale))
	assert.Equal(t, int64(2), sale.Version)

	stored, err := repo.FindByID(context.Background(), sale.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusEffective, stored.PaymentStatus)
	assert.Equal(t, int64(2), stored.Version)
}

func TestRepository_UpdateStaleVersionConflicts(t *testing.T) {
	repo := NewRepository(setupSalesTestDB(t))
	sale := newStoredSale(t, repo, nil)

	first := *sale
	second := *sale

	first.PaymentStatus = enums.PaymentStatusEffective
	require.NoError(t, repo.Update(context.Background(), &first))

	second.PaymentStatus = enums.PaymentStatusCancelled
	err := repo.Update(context.Background(), &second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrVersionConflict))

	stored, err := repo.FindByID(context.Background(), sale.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusEffective, stored.PaymentStatus)
}

func TestRepository_FindByPaymentCode(t *testing.T) {
	repo := NewRepository(setupSalesTestDB(t))
	code := "PAY-777"
	sale := newStoredSale(t, repo, &code)
	newStoredSale(t, repo, nil)

	stored, err := repo.FindByPaymentCode(context.Background(), code)
	require.NoError(t, err)
	assert.Equal(t, sale.ID, stored.ID)

	_, err = repo.FindByPaymentCode(context.Background(), "PAY-MISSING")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRepository_DuplicatePaymentCodeRejected(t *testing.T) {
	repo := NewRepository(setupSalesTestDB(t))
	code := "PAY-DUP"
	newStoredSale(t, repo, &code)

	dup := &models.Sale{
		VehicleID:     uuid.New(),
		BuyerTaxID:    "98765432100",
		SaleTimestamp: time.Now().UTC(),
		PaymentCode:   &code,
		PaymentStatus: enums.PaymentStatusPending,
	}
	err := repo.Create(context.Background(), dup)
	require.Error(t, err)
	assert.True(t, pkgdb.IsUniqueViolation(err, ""))
}

func TestRepository_ListReturnsAllSales(t *testing.T) {
	repo := NewRepository(setupSalesTestDB(t))
	first := newStoredSale(t, repo, nil)
	second := newStoredSale(t, repo, nil)

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)

	ids := []uuid.UUID{list[0].ID, list[1].ID}
	assert.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, ids)
}
