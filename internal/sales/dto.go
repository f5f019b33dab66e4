package sales

import (
	"github.com/google/uuid"

	"github.com/mcouto/autosales-backend/pkg/db/models"
	"github.com/mcouto/autosales-backend/pkg/enums"
)

// Lexical payment results accepted on the direct notification path.
const (
	PaymentResultPaid      = "paid"
	PaymentResultCancelled = "cancelled"
)

// CreateSaleInput captures the fields required to record a sale.
type CreateSaleInput struct {
	VehicleID   uuid.UUID
	BuyerTaxID  string
	PaymentCode *string
}

// CreateSaleResult reports the persisted sale plus whether the checkout link
// could be issued. Link failure is a degraded outcome, not an error.
type CreateSaleResult struct {
	Sale       *models.Sale
	LinkIssued bool
}

// EditSaleInput overwrites a sale unconditionally, including its status. The
// edit path intentionally bypasses the state machine.
type EditSaleInput struct {
	VehicleID     uuid.UUID
	BuyerTaxID    string
	PaymentCode   *string
	PaymentStatus enums.PaymentStatus
}
