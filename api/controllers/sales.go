package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mcouto/autosales-backend/api/responses"
	"github.com/mcouto/autosales-backend/api/validators"
	salesvc "github.com/mcouto/autosales-backend/internal/sales"
	"github.com/mcouto/autosales-backend/pkg/db/models"
	"github.com/mcouto/autosales-backend/pkg/enums"
	pkgerrors "github.com/mcouto/autosales-backend/pkg/errors"
	"github.com/mcouto/autosales-backend/pkg/logger"
)

type createSaleRequest struct {
	VehicleID   string  `json:"vehicle_id" validate:"required,uuid"`
	BuyerTaxID  string  `json:"buyer_tax_id" validate:"required,min=5,max=32"`
	PaymentCode *string `json:"payment_code,omitempty" validate:"omitempty,min=1,max=64"`
}

type createSaleResponse struct {
	Sale    *models.Sale `json:"sale"`
	Message string       `json:"message,omitempty"`
}

// CreateSale registers a pending sale and tries to issue a checkout link.
func CreateSale(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		var payload createSaleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vehicleID, err := uuid.Parse(payload.VehicleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vehicle id"))
			return
		}

		result, err := svc.Create(r.Context(), salesvc.CreateSaleInput{
			VehicleID:   vehicleID,
			BuyerTaxID:  payload.BuyerTaxID,
			PaymentCode: payload.PaymentCode,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := createSaleResponse{Sale: result.Sale}
		if !result.LinkIssued {
			resp.Message = "checkout link could not be issued, retry later"
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, resp)
	}
}

// ListSales returns every recorded sale.
func ListSales(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// GetSale returns a single sale by id.
func GetSale(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "saleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sale)
	}
}

type editSaleRequest struct {
	VehicleID     string  `json:"vehicle_id" validate:"required,uuid"`
	BuyerTaxID    string  `json:"buyer_tax_id" validate:"required,min=5,max=32"`
	PaymentCode   *string `json:"payment_code,omitempty" validate:"omitempty,min=1,max=64"`
	PaymentStatus string  `json:"payment_status" validate:"required,oneof=pending effective refused cancelled"`
}

// EditSale overwrites a sale's fields, status included.
func EditSale(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "saleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload editSaleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vehicleID, err := uuid.Parse(payload.VehicleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vehicle id"))
			return
		}

		status, err := enums.ParsePaymentStatus(payload.PaymentStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status"))
			return
		}

		sale, err := svc.Edit(r.Context(), id, salesvc.EditSaleInput{
			VehicleID:     vehicleID,
			BuyerTaxID:    payload.BuyerTaxID,
			PaymentCode:   payload.PaymentCode,
			PaymentStatus: status,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sale)
	}
}

// CancelSale moves a sale to the cancelled status when its state allows it.
func CancelSale(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "saleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Cancel(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": string(enums.PaymentStatusCancelled)})
	}
}
