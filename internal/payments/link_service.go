package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/mcouto/autosales-backend/internal/vehicles"
	"github.com/mcouto/autosales-backend/pkg/config"
	pkgerrors "github.com/mcouto/autosales-backend/pkg/errors"
	"github.com/mcouto/autosales-backend/pkg/logger"
)

// MetadataSaleID is the payment-intent metadata key carrying the sale id, used
// by the webhook reconciler to resolve the sale a provider event belongs to.
const MetadataSaleID = "sale_id"

type vehicleFinder interface {
	FindByID(ctx context.Context, vehicleID uuid.UUID) (*vehicles.Vehicle, error)
}

// LinkService mints hosted payment links: a Stripe product, a price and a
// payment link are created in sequence, with the sale id embedded as intent
// metadata.
type LinkService struct {
	stripe   StripeLinkClient
	vehicles vehicleFinder
	cfg      config.StripeConfig
	logg     *logger.Logger
}

// NewLinkService builds the payment link issuer.
func NewLinkService(client StripeLinkClient, finder vehicleFinder, cfg config.StripeConfig, logg *logger.Logger) (*LinkService, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe link client required")
	}
	if finder == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "vehicle finder required")
	}
	return &LinkService{
		stripe:   client,
		vehicles: finder,
		cfg:      cfg,
		logg:     logg,
	}, nil
}

// CreatePaymentLink resolves the vehicle backing the sale and mints the hosted
// checkout URL. Mid-sequence failures archive the partially created product
// before the original error propagates.
func (s *LinkService) CreatePaymentLink(ctx context.Context, saleID, vehicleID uuid.UUID) (string, error) {
	vehicle, err := s.vehicles.FindByID(ctx, vehicleID)
	if err != nil {
		return "", err
	}

	if !vehicle.Price.IsPositive() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "vehicle price must be positive")
	}
	unitAmount := vehicle.Price.Mul(decimal.NewFromInt(100)).Round(0).IntPart()

	productParams := &stripe.ProductParams{
		Name:        stripe.String(vehicle.Model),
		Description: stripe.String(fmt.Sprintf("Vehicle sale: %s (%s)", vehicle.Model, vehicle.Brand)),
	}
	product, err := s.stripe.CreateProduct(ctx, productParams)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stripe product")
	}

	priceParams := &stripe.PriceParams{
		UnitAmount: stripe.Int64(unitAmount),
		Currency:   stripe.String(s.currency()),
		Product:    stripe.String(product.ID),
	}
	priceObj, err := s.stripe.CreatePrice(ctx, priceParams)
	if err != nil {
		s.compensate(ctx, product.ID)
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stripe price")
	}

	linkParams := &stripe.PaymentLinkParams{
		LineItems: []*stripe.PaymentLinkLineItemParams{
			{
				Price:    stripe.String(priceObj.ID),
				Quantity: stripe.Int64(1),
			},
		},
		AfterCompletion: &stripe.PaymentLinkAfterCompletionParams{
			Type: stripe.String(string(stripe.PaymentLinkAfterCompletionTypeRedirect)),
			Redirect: &stripe.PaymentLinkAfterCompletionRedirectParams{
				URL: stripe.String(fmt.Sprintf("%s/%s", s.successURL(), saleID)),
			},
		},
		PaymentIntentData: &stripe.PaymentLinkPaymentIntentDataParams{
			Metadata: map[string]string{MetadataSaleID: saleID.String()},
		},
	}
	link, err := s.stripe.CreatePaymentLink(ctx, linkParams)
	if err != nil {
		s.compensate(ctx, product.ID)
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stripe payment link")
	}

	return link.URL, nil
}

// compensate archives a product left behind by a failed sequence. Best-effort:
// a failed archive is logged and swallowed so the original error surfaces.
func (s *LinkService) compensate(ctx context.Context, productID string) {
	if err := s.stripe.ArchiveProduct(ctx, productID); err != nil && s.logg != nil {
		ctx = s.logg.WithField(ctx, "stripe_product_id", productID)
		s.logg.Warn(ctx, fmt.Sprintf("failed to archive orphaned stripe product: %v", err))
	}
}

func (s *LinkService) currency() string {
	if s.cfg.Currency == "" {
		return "brl"
	}
	return s.cfg.Currency
}

func (s *LinkService) successURL() string {
	if s.cfg.SuccessURL == "" {
		return "https://example.com/sales"
	}
	return s.cfg.SuccessURL
}
