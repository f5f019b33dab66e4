package webhooks

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mcouto/autosales-backend/api/responses"
	"github.com/mcouto/autosales-backend/api/validators"
	pkgerrors "github.com/mcouto/autosales-backend/pkg/errors"
	"github.com/mcouto/autosales-backend/pkg/logger"
)

type paymentReconciler interface {
	ReconcilePayment(ctx context.Context, paymentCode, result string) error
}

type paymentNoticeRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required"`
}

// PaymentNotice applies an unsigned direct notification from the payment
// gateway, keyed by the merchant payment code.
func PaymentNotice(svc paymentReconciler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		paymentCode := strings.TrimSpace(chi.URLParam(r, "paymentCode"))
		if paymentCode == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "payment code is required"))
			return
		}

		var payload paymentNoticeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			ctx = logg.WithPaymentCode(ctx, paymentCode)
		}

		if err := svc.ReconcilePayment(ctx, paymentCode, payload.PaymentStatus); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"payment_status": payload.PaymentStatus})
	}
}
