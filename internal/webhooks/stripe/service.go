package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/mcouto/autosales-backend/internal/payments"
	pkgerrors "github.com/mcouto/autosales-backend/pkg/errors"
	"github.com/mcouto/autosales-backend/pkg/logger"
	"github.com/mcouto/autosales-backend/pkg/metrics"
)

const (
	outcomeApplied = "applied"
	outcomeDropped = "dropped"
	outcomeIgnored = "ignored"
	outcomeFailed  = "failed"
)

type saleReconciler interface {
	ApplyProviderResult(ctx context.Context, saleID uuid.UUID, sessionID string, paid bool) error
}

type intentFetcher interface {
	GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
}

type ServiceParams struct {
	Sales   saleReconciler
	Stripe  intentFetcher
	Metrics *metrics.WebhookMetrics
	Logger  *logger.Logger
}

// Service translates verified Stripe events into sale state transitions.
type Service struct {
	sales   saleReconciler
	stripe  intentFetcher
	metrics *metrics.WebhookMetrics
	logg    *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Sales == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "sales service required")
	}
	if params.Stripe == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe client required")
	}
	return &Service{
		sales:   params.Sales,
		stripe:  params.Stripe,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

// HandleEvent dispatches a verified event. Events the service does not care
// about are acknowledged without side effects so Stripe stops retrying them.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	start := time.Now()
	outcome, err := s.dispatch(ctx, event)
	s.metrics.ObserveDuration(string(event.Type), time.Since(start))
	if err != nil {
		s.metrics.IncEvent(string(event.Type), outcomeFailed)
		return err
	}
	s.metrics.IncEvent(string(event.Type), outcome)
	return nil
}

func (s *Service) dispatch(ctx context.Context, event *stripe.Event) (string, error) {
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		return s.applySession(ctx, event)
	case stripe.EventTypePaymentIntentSucceeded:
		return s.applyIntent(ctx, event)
	case stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded,
		stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
		// Async payment methods are not offered on our payment links; if one
		// of these shows up anyway, keep a trace but take no action.
		s.logInfo(ctx, fmt.Sprintf("async payment event %s received, no action taken", event.Type))
		return outcomeIgnored, nil
	default:
		s.logDebug(ctx, fmt.Sprintf("ignoring stripe event type %s", event.Type))
		return outcomeIgnored, nil
	}
}

func (s *Service) applySession(ctx context.Context, event *stripe.Event) (string, error) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session event")
	}

	saleID, ok := saleIDFromMetadata(session.Metadata)
	if !ok {
		// Metadata set on the payment link lands on the payment intent, not
		// always on the session; fall back to the intent before giving up.
		saleID, ok = s.saleIDFromIntent(ctx, &session)
	}
	if !ok {
		s.logWarn(ctx, fmt.Sprintf("stripe event %s has no usable sale id, dropping", event.ID))
		return outcomeDropped, nil
	}

	paid := session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
		session.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired
	if err := s.sales.ApplyProviderResult(ctx, saleID, session.ID, paid); err != nil {
		return "", err
	}
	return outcomeApplied, nil
}

func (s *Service) applyIntent(ctx context.Context, event *stripe.Event) (string, error) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent event")
	}

	saleID, ok := saleIDFromMetadata(intent.Metadata)
	if !ok {
		// Intents created through anything but our payment links carry no sale
		// reference; the session events cover those flows.
		s.logInfo(ctx, fmt.Sprintf("payment intent %s has no sale id, dropping", intent.ID))
		return outcomeDropped, nil
	}
	if err := s.sales.ApplyProviderResult(ctx, saleID, "", true); err != nil {
		return "", err
	}
	return outcomeApplied, nil
}

func (s *Service) saleIDFromIntent(ctx context.Context, session *stripe.CheckoutSession) (uuid.UUID, bool) {
	if session.PaymentIntent == nil || session.PaymentIntent.ID == "" {
		return uuid.Nil, false
	}
	intent, err := s.stripe.GetPaymentIntent(ctx, session.PaymentIntent.ID)
	if err != nil {
		s.logWarn(ctx, fmt.Sprintf("failed to fetch payment intent %s: %v", session.PaymentIntent.ID, err))
		return uuid.Nil, false
	}
	return saleIDFromMetadata(intent.Metadata)
}

func saleIDFromMetadata(metadata map[string]string) (uuid.UUID, bool) {
	raw, ok := metadata[payments.MetadataSaleID]
	if !ok || raw == "" {
		return uuid.Nil, false
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return parsed, true
}

func (s *Service) logInfo(ctx context.Context, msg string) {
	if s.logg == nil {
		return
	}
	s.logg.Info(ctx, msg)
}

func (s *Service) logWarn(ctx context.Context, msg string) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(ctx, msg)
}

func (s *Service) logDebug(ctx context.Context, msg string) {
	if s.logg == nil {
		return
	}
	s.logg.Debug(ctx, msg)
}
