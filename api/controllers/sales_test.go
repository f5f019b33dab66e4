package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	salesvc "github.com/mcouto/autosales-backend/internal/sales"
	"github.com/mcouto/autosales-backend/pkg/db/models"
	"github.com/mcouto/autosales-backend/pkg/enums"
	pkgerrors "github.com/mcouto/autosales-backend/pkg/errors"
)

type stubSalesService struct {
	createFn    func(ctx context.Context, input salesvc.CreateSaleInput) (*salesvc.CreateSaleResult, error)
	getFn       func(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	listFn      func(ctx context.Context) ([]models.Sale, error)
	editFn      func(ctx context.Context, id uuid.UUID, input salesvc.EditSaleInput) (*models.Sale, error)
	cancelFn    func(ctx context.Context, id uuid.UUID) error
	reconcileFn func(ctx context.Context, paymentCode, result string) error
}

func (s *stubSalesService) Create(ctx context.Context, input salesvc.CreateSaleInput) (*salesvc.CreateSaleResult, error) {
	return s.createFn(ctx, input)
}

func (s *stubSalesService) Get(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	return s.getFn(ctx, id)
}

func (s *stubSalesService) List(ctx context.Context) ([]models.Sale, error) {
	return s.listFn(ctx)
}

func (s *stubSalesService) Edit(ctx context.Context, id uuid.UUID, input salesvc.EditSaleInput) (*models.Sale, error) {
	return s.editFn(ctx, id, input)
}

func (s *stubSalesService) Cancel(ctx context.Context, id uuid.UUID) error {
	return s.cancelFn(ctx, id)
}

func (s *stubSalesService) ReconcilePayment(ctx context.Context, paymentCode, result string) error {
	return s.reconcileFn(ctx, paymentCode, result)
}

func (s *stubSalesService) ApplyProviderResult(ctx context.Context, saleID uuid.UUID, sessionID string, paid bool) error {
	return nil
}

func salesRouter(svc salesvc.Service) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/v1/sales", CreateSale(svc, nil))
	r.Get("/api/v1/sales/{saleId}", GetSale(svc, nil))
	r.Put("/api/v1/sales/{saleId}/cancel", CancelSale(svc, nil))
	return r
}

func TestCreateSale_Returns201WithLink(t *testing.T) {
	vehicleID := uuid.New()
	link := "https://buy.stripe.com/test"
	svc := &stubSalesService{
		createFn: func(ctx context.Context, input salesvc.CreateSaleInput) (*salesvc.CreateSaleResult, error) {
			if input.VehicleID != vehicleID {
				t.Errorf("unexpected vehicle id %s", input.VehicleID)
			}
			return &salesvc.CreateSaleResult{
				Sale: &models.Sale{
					ID:            uuid.New(),
					VehicleID:     input.VehicleID,
					BuyerTaxID:    input.BuyerTaxID,
					PaymentStatus: enums.PaymentStatusPending,
					CheckoutLink:  &link,
				},
				LinkIssued: true,
			}, nil
		},
	}
	router := salesRouter(svc)

	body := `{"vehicle_id":"` + vehicleID.String() + `","buyer_tax_id":"12345678900"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data struct {
			Sale    *models.Sale `json:"sale"`
			Message string       `json:"message"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Sale.CheckoutLink == nil || *envelope.Data.Sale.CheckoutLink != link {
		t.Fatalf("expected checkout link in response")
	}
	if envelope.Data.Message != "" {
		t.Fatalf("expected no degraded message, got %q", envelope.Data.Message)
	}
}

func TestCreateSale_DegradedWithoutLink(t *testing.T) {
	svc := &stubSalesService{
		createFn: func(ctx context.Context, input salesvc.CreateSaleInput) (*salesvc.CreateSaleResult, error) {
			return &salesvc.CreateSaleResult{
				Sale: &models.Sale{ID: uuid.New(), PaymentStatus: enums.PaymentStatusPending},
			}, nil
		},
	}
	router := salesRouter(svc)

	body := `{"vehicle_id":"` + uuid.NewString() + `","buyer_tax_id":"12345678900"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "retry later") {
		t.Fatalf("expected degraded message, got %s", rec.Body.String())
	}
}

func TestCreateSale_InvalidBody(t *testing.T) {
	called := false
	svc := &stubSalesService{
		createFn: func(ctx context.Context, input salesvc.CreateSaleInput) (*salesvc.CreateSaleResult, error) {
			called = true
			return nil, nil
		},
	}
	router := salesRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(`{"vehicle_id":"not-a-uuid"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if called {
		t.Fatalf("service must not be called with invalid body")
	}
}

func TestCreateSale_UnknownVehicle(t *testing.T) {
	svc := &stubSalesService{
		createFn: func(ctx context.Context, input salesvc.CreateSaleInput) (*salesvc.CreateSaleResult, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
		},
	}
	router := salesRouter(svc)

	body := `{"vehicle_id":"` + uuid.NewString() + `","buyer_tax_id":"12345678900"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetSale_InvalidID(t *testing.T) {
	svc := &stubSalesService{
		getFn: func(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
			t.Fatalf("service must not be called")
			return nil, nil
		},
	}
	router := salesRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sales/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCancelSale_ConflictOnEffective(t *testing.T) {
	svc := &stubSalesService{
		cancelFn: func(ctx context.Context, id uuid.UUID) error {
			return pkgerrors.New(pkgerrors.CodeConflict, "sale is already finalized and cannot be cancelled")
		},
	}
	router := salesRouter(svc)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/sales/"+uuid.NewString()+"/cancel", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestCancelSale_Success(t *testing.T) {
	svc := &stubSalesService{
		cancelFn: func(ctx context.Context, id uuid.UUID) error { return nil },
	}
	router := salesRouter(svc)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/sales/"+uuid.NewString()+"/cancel", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "cancelled") {
		t.Fatalf("expected cancelled status in body, got %s", rec.Body.String())
	}
}
