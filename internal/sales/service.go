package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mcouto/autosales-backend/internal/vehicles"
	pkgdb "github.com/mcouto/autosales-backend/pkg/db"
	"github.com/mcouto/autosales-backend/pkg/db/models"
	"github.com/mcouto/autosales-backend/pkg/enums"
	pkgerrors "github.com/mcouto/autosales-backend/pkg/errors"
	"github.com/mcouto/autosales-backend/pkg/logger"
)

type vehicleClient interface {
	FindByID(ctx context.Context, vehicleID uuid.UUID) (*vehicles.Vehicle, error)
	MarkSold(ctx context.Context, vehicleID uuid.UUID) bool
}

type linkIssuer interface {
	CreatePaymentLink(ctx context.Context, saleID, vehicleID uuid.UUID) (string, error)
}

// Service is the sale lifecycle manager: the sole writer of sale records and
// the enforcement point for the payment state machine.
type Service interface {
	Create(ctx context.Context, input CreateSaleInput) (*CreateSaleResult, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	List(ctx context.Context) ([]models.Sale, error)
	Edit(ctx context.Context, id uuid.UUID, input EditSaleInput) (*models.Sale, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	ReconcilePayment(ctx context.Context, paymentCode, result string) error
	ApplyProviderResult(ctx context.Context, saleID uuid.UUID, sessionID string, paid bool) error
}

type service struct {
	repo     Repository
	vehicles vehicleClient
	links    linkIssuer
	logg     *logger.Logger
}

// ServiceParams collects the lifecycle manager's collaborators.
type ServiceParams struct {
	Repo          Repository
	VehicleClient vehicleClient
	LinkIssuer    linkIssuer
	Logger        *logger.Logger
}

// NewService builds the sale lifecycle manager.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "sales repository required")
	}
	if params.VehicleClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "vehicle client required")
	}
	if params.LinkIssuer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "link issuer required")
	}
	return &service{
		repo:     params.Repo,
		vehicles: params.VehicleClient,
		links:    params.LinkIssuer,
		logg:     params.Logger,
	}, nil
}

// Create records a PENDING sale after checking the vehicle exists and is still
// available, then attempts to mint a checkout link. Link failure degrades the
// outcome without failing the create.
func (s *service) Create(ctx context.Context, input CreateSaleInput) (*CreateSaleResult, error) {
	vehicle, err := s.vehicles.FindByID(ctx, input.VehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle.Status == enums.VehicleStatusSold {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle has already been sold")
	}

	sale := &models.Sale{
		ID:            uuid.New(),
		VehicleID:     input.VehicleID,
		BuyerTaxID:    input.BuyerTaxID,
		SaleTimestamp: time.Now().UTC(),
		PaymentCode:   input.PaymentCode,
		PaymentStatus: enums.PaymentStatusPending,
	}
	if err := s.repo.Create(ctx, sale); err != nil {
		if pkgdb.IsUniqueViolation(err, "ux_sales_payment_code") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "payment code already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist sale")
	}

	url, linkErr := s.links.CreatePaymentLink(ctx, sale.ID, sale.VehicleID)
	if linkErr != nil {
		s.logError(ctx, sale.ID, "failed to create checkout link", linkErr)
		return &CreateSaleResult{Sale: sale}, nil
	}

	sale.CheckoutLink = &url
	if err := s.repo.Update(ctx, sale); err != nil {
		s.logError(ctx, sale.ID, "failed to persist checkout link", err)
		sale.CheckoutLink = nil
		return &CreateSaleResult{Sale: sale}, nil
	}
	return &CreateSaleResult{Sale: sale, LinkIssued: true}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err)
	}
	return sale, nil
}

func (s *service) List(ctx context.Context) ([]models.Sale, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sales")
	}
	return list, nil
}

// Edit overwrites the sale's fields unconditionally. There is deliberately no
// state-machine guard here; the write still goes through the versioned update.
func (s *service) Edit(ctx context.Context, id uuid.UUID, input EditSaleInput) (*models.Sale, error) {
	if !input.PaymentStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown payment status %q", input.PaymentStatus))
	}

	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err)
	}

	sale.VehicleID = input.VehicleID
	sale.BuyerTaxID = input.BuyerTaxID
	sale.PaymentCode = input.PaymentCode
	sale.PaymentStatus = input.PaymentStatus
	sale.SaleTimestamp = time.Now().UTC()

	if err := s.update(ctx, sale); err != nil {
		return nil, err
	}
	return sale, nil
}

// Cancel transitions the sale to CANCELLED. Finalized sales report a conflict;
// refused and already-cancelled sales cancel idempotently.
func (s *service) Cancel(ctx context.Context, id uuid.UUID) error {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return mapLookupError(err)
	}

	switch sale.PaymentStatus {
	case enums.PaymentStatusEffective:
		return pkgerrors.New(pkgerrors.CodeConflict, "sale is already finalized and cannot be cancelled")
	case enums.PaymentStatusCancelled:
		return nil
	}

	sale.PaymentStatus = enums.PaymentStatusCancelled
	return s.update(ctx, sale)
}

// ReconcilePayment applies a direct payment notification keyed by payment code.
func (s *service) ReconcilePayment(ctx context.Context, paymentCode, result string) error {
	if result != PaymentResultPaid && result != PaymentResultCancelled {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown payment result %q", result))
	}

	sale, err := s.repo.FindByPaymentCode(ctx, paymentCode)
	if err != nil {
		return mapLookupError(err)
	}

	if sale.PaymentStatus.IsTerminal() {
		s.logInfo(ctx, sale.ID, "sale already finalized, ignoring payment notification")
		return nil
	}

	switch result {
	case PaymentResultPaid:
		sale.PaymentStatus = enums.PaymentStatusEffective
		if err := s.update(ctx, sale); err != nil {
			return err
		}
		s.markVehicleSold(ctx, sale)
		return nil
	default:
		sale.PaymentStatus = enums.PaymentStatusCancelled
		return s.update(ctx, sale)
	}
}

// ApplyProviderResult applies a verified provider callback: the external
// session id is always recorded, the status moves to EFFECTIVE or REFUSED, and
// a finalized sale is never touched again.
func (s *service) ApplyProviderResult(ctx context.Context, saleID uuid.UUID, sessionID string, paid bool) error {
	sale, err := s.repo.FindByID(ctx, saleID)
	if err != nil {
		return mapLookupError(err)
	}

	if sale.PaymentStatus.IsTerminal() {
		s.logInfo(ctx, sale.ID, "sale already finalized, ignoring provider event")
		return nil
	}

	if sessionID != "" {
		sale.CheckoutSessionID = &sessionID
	}
	if paid {
		sale.PaymentStatus = enums.PaymentStatusEffective
	} else {
		sale.PaymentStatus = enums.PaymentStatusRefused
	}

	if err := s.update(ctx, sale); err != nil {
		return err
	}
	if paid {
		s.markVehicleSold(ctx, sale)
	}
	return nil
}

// markVehicleSold is best-effort: the inventory service owns the vehicle
// record, and a failed mutation is logged rather than surfaced.
func (s *service) markVehicleSold(ctx context.Context, sale *models.Sale) {
	if s.vehicles.MarkSold(ctx, sale.VehicleID) {
		s.logInfo(ctx, sale.ID, "vehicle marked as sold")
		return
	}
	s.logError(ctx, sale.ID, "failed to mark vehicle as sold", nil)
}

func (s *service) update(ctx context.Context, sale *models.Sale) error {
	if err := s.repo.Update(ctx, sale); err != nil {
		if errors.Is(err, ErrVersionConflict) {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "sale was modified concurrently")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist sale")
	}
	return nil
}

func (s *service) logInfo(ctx context.Context, saleID uuid.UUID, msg string) {
	if s.logg == nil {
		return
	}
	s.logg.Info(s.logg.WithSaleID(ctx, saleID.String()), msg)
}

func (s *service) logError(ctx context.Context, saleID uuid.UUID, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Error(s.logg.WithSaleID(ctx, saleID.String()), msg, err)
}

func mapLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale")
}
