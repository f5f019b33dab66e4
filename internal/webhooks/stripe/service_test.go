package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
)

type appliedResult struct {
	saleID    uuid.UUID
	sessionID string
	paid      bool
}

type stubReconciler struct {
	applied []appliedResult
	err     error
}

func (s *stubReconciler) ApplyProviderResult(ctx context.Context, saleID uuid.UUID, sessionID string, paid bool) error {
	s.applied = append(s.applied, appliedResult{saleID: saleID, sessionID: sessionID, paid: paid})
	return s.err
}

type stubIntentFetcher struct {
	intent *stripe.PaymentIntent
	err    error
	calls  int
}

func (s *stubIntentFetcher) GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.intent, nil
}

func newWebhookService(t *testing.T, sales *stubReconciler, fetcher *stubIntentFetcher) *Service {
	t.Helper()
	if fetcher == nil {
		fetcher = &stubIntentFetcher{err: errors.New("unexpected fetch")}
	}
	svc, err := NewService(ServiceParams{Sales: sales, Stripe: fetcher})
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}
	return svc
}

func sessionEvent(t *testing.T, eventType stripe.EventType, session *stripe.CheckoutSession) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(session)
	if err != nil {
		t.Fatalf("marshal session: %v", err)
	}
	return &stripe.Event{
		ID:   "evt_" + uuid.NewString(),
		Type: eventType,
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestService_CheckoutSessionCompletedPaid(t *testing.T) {
	saleID := uuid.New()
	sales := &stubReconciler{}
	svc := newWebhookService(t, sales, nil)

	event := sessionEvent(t, stripe.EventTypeCheckoutSessionCompleted, &stripe.CheckoutSession{
		ID:            "cs_test_1",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		Metadata:      map[string]string{"sale_id": saleID.String()},
	})

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(sales.applied) != 1 {
		t.Fatalf("expected one result applied, got %d", len(sales.applied))
	}
	got := sales.applied[0]
	if got.saleID != saleID || got.sessionID != "cs_test_1" || !got.paid {
		t.Fatalf("unexpected applied result %+v", got)
	}
}

func TestService_CheckoutSessionCompletedUnpaid(t *testing.T) {
	saleID := uuid.New()
	sales := &stubReconciler{}
	svc := newWebhookService(t, sales, nil)

	event := sessionEvent(t, stripe.EventTypeCheckoutSessionCompleted, &stripe.CheckoutSession{
		ID:            "cs_test_2",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid,
		Metadata:      map[string]string{"sale_id": saleID.String()},
	})

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(sales.applied) != 1 || sales.applied[0].paid {
		t.Fatalf("expected unpaid result applied, got %+v", sales.applied)
	}
}

func TestService_CheckoutSessionMissingMetadataDropped(t *testing.T) {
	sales := &stubReconciler{}
	svc := newWebhookService(t, sales, &stubIntentFetcher{err: errors.New("no intent")})

	event := sessionEvent(t, stripe.EventTypeCheckoutSessionCompleted, &stripe.CheckoutSession{
		ID:            "cs_test_3",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
	})

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("dropped event must not error: %v", err)
	}
	if len(sales.applied) != 0 {
		t.Fatalf("expected no result applied, got %d", len(sales.applied))
	}
}

func TestService_CheckoutSessionFallsBackToIntentMetadata(t *testing.T) {
	saleID := uuid.New()
	sales := &stubReconciler{}
	fetcher := &stubIntentFetcher{
		intent: &stripe.PaymentIntent{
			ID:       "pi_test_1",
			Metadata: map[string]string{"sale_id": saleID.String()},
		},
	}
	svc := newWebhookService(t, sales, fetcher)

	event := sessionEvent(t, stripe.EventTypeCheckoutSessionCompleted, &stripe.CheckoutSession{
		ID:            "cs_test_4",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		PaymentIntent: &stripe.PaymentIntent{ID: "pi_test_1"},
	})

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if fetcher.calls != 1 {
		t.Fatalf("expected one intent fetch, got %d", fetcher.calls)
	}
	if len(sales.applied) != 1 || sales.applied[0].saleID != saleID {
		t.Fatalf("expected result resolved via intent, got %+v", sales.applied)
	}
}

func TestService_PaymentIntentSucceeded(t *testing.T) {
	saleID := uuid.New()
	sales := &stubReconciler{}
	svc := newWebhookService(t, sales, nil)

	raw, _ := json.Marshal(&stripe.PaymentIntent{
		ID:       "pi_test_2",
		Metadata: map[string]string{"sale_id": saleID.String()},
	})
	event := &stripe.Event{
		ID:   "evt_" + uuid.NewString(),
		Type: stripe.EventTypePaymentIntentSucceeded,
		Data: &stripe.EventData{Raw: raw},
	}

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(sales.applied) != 1 || !sales.applied[0].paid {
		t.Fatalf("expected paid result applied, got %+v", sales.applied)
	}
}

func TestService_AsyncEventsTakeNoAction(t *testing.T) {
	sales := &stubReconciler{}
	svc := newWebhookService(t, sales, nil)

	for _, eventType := range []stripe.EventType{
		stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded,
		stripe.EventTypeCheckoutSessionAsyncPaymentFailed,
	} {
		event := sessionEvent(t, eventType, &stripe.CheckoutSession{ID: "cs_async"})
		if err := svc.HandleEvent(context.Background(), event); err != nil {
			t.Fatalf("handle %s: %v", eventType, err)
		}
	}
	if len(sales.applied) != 0 {
		t.Fatalf("async events must not mutate sales, got %d calls", len(sales.applied))
	}
}

func TestService_UnknownEventIgnored(t *testing.T) {
	sales := &stubReconciler{}
	svc := newWebhookService(t, sales, nil)

	event := &stripe.Event{
		ID:   "evt_" + uuid.NewString(),
		Type: stripe.EventTypeChargeRefunded,
		Data: &stripe.EventData{Raw: json.RawMessage(`{}`)},
	}
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(sales.applied) != 0 {
		t.Fatalf("expected no result applied")
	}
}

func TestService_ReconcilerFailurePropagates(t *testing.T) {
	saleID := uuid.New()
	sales := &stubReconciler{err: errors.New("db down")}
	svc := newWebhookService(t, sales, nil)

	event := sessionEvent(t, stripe.EventTypeCheckoutSessionCompleted, &stripe.CheckoutSession{
		ID:            "cs_test_5",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		Metadata:      map[string]string{"sale_id": saleID.String()},
	})

	if err := svc.HandleEvent(context.Background(), event); err == nil {
		t.Fatalf("expected error to surface")
	}
}
