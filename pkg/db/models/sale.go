package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mcouto/autosales-backend/pkg/enums"
)

// Sale is the single durable record of the service: one row per sale attempt
// against a vehicle from the inventory service.
type Sale struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	VehicleID         uuid.UUID           `gorm:"column:vehicle_id;type:uuid;not null" json:"vehicle_id"`
	BuyerTaxID        string              `gorm:"column:buyer_tax_id;not null" json:"buyer_tax_id"`
	SaleTimestamp     time.Time           `gorm:"column:sale_timestamp;not null" json:"sale_timestamp"`
	PaymentCode       *string             `gorm:"column:payment_code;uniqueIndex:ux_sales_payment_code" json:"payment_code,omitempty"`
	PaymentStatus     enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'" json:"payment_status"`
	CheckoutLink      *string             `gorm:"column:checkout_link" json:"checkout_link,omitempty"`
	CheckoutSessionID *string             `gorm:"column:checkout_session_id" json:"checkout_session_id,omitempty"`
	Version           int64               `gorm:"column:version;not null;default:1" json:"-"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName pins the table name regardless of gorm pluralization settings.
func (Sale) TableName() string {
	return "sales"
}
