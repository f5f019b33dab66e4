package sales

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mcouto/autosales-backend/pkg/db/models"
)

// ErrVersionConflict signals a compare-and-swap miss on a concurrent write to
// the same sale record.
var ErrVersionConflict = errors.New("sale was modified concurrently")

// Repository is the durable store for sale records.
type Repository interface {
	Create(ctx context.Context, sale *models.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	FindByPaymentCode(ctx context.Context, paymentCode string) (*models.Sale, error)
	List(ctx context.Context) ([]models.Sale, error)
	Update(ctx context.Context, sale *models.Sale) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a sales repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, sale *models.Sale) error {
	if sale.ID == uuid.Nil {
		sale.ID = uuid.New()
	}
	if sale.Version == 0 {
		sale.Version = 1
	}
	return r.db.WithContext(ctx).Create(sale).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&sale).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *repository) FindByPaymentCode(ctx context.Context, paymentCode string) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Where("payment_code = ?", paymentCode).
		First(&sale).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *repository) List(ctx context.Context) ([]models.Sale, error) {
	var sales []models.Sale
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&sales).Error
	if err != nil {
		return nil, err
	}
	return sales, nil
}

// Update persists the sale with a compare-and-swap on the version column. A
// stale version returns ErrVersionConflict instead of silently losing a write.
func (r *repository) Update(ctx context.Context, sale *models.Sale) error {
	currentVersion := sale.Version
	res := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Where("id = ? AND version = ?", sale.ID, currentVersion).
		Updates(map[string]any{
			"vehicle_id":          sale.VehicleID,
			"buyer_tax_id":        sale.BuyerTaxID,
			"sale_timestamp":      sale.SaleTimestamp,
			"payment_code":        sale.PaymentCode,
			"payment_status":      sale.PaymentStatus,
			"checkout_link":       sale.CheckoutLink,
			"checkout_session_id": sale.CheckoutSessionID,
			"version":             currentVersion + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	sale.Version = currentVersion + 1
	return nil
}
