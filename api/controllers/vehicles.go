package controllers

import (
	"context"
	"net/http"

	"github.com/mcouto/autosales-backend/api/responses"
	"github.com/mcouto/autosales-backend/api/validators"
	"github.com/mcouto/autosales-backend/internal/vehicles"
	"github.com/mcouto/autosales-backend/pkg/enums"
	pkgerrors "github.com/mcouto/autosales-backend/pkg/errors"
	"github.com/mcouto/autosales-backend/pkg/logger"
	"github.com/mcouto/autosales-backend/pkg/pagination"
)

type vehicleLister interface {
	ListByStatus(ctx context.Context, status enums.VehicleStatus, params pagination.Params) (*pagination.Page[vehicles.Vehicle], error)
}

// VehiclesForSale lists available vehicles ordered by price.
func VehiclesForSale(client vehicleLister, logg *logger.Logger) http.HandlerFunc {
	return listVehicles(client, logg, enums.VehicleStatusAvailable)
}

// VehiclesSold lists already-sold vehicles ordered by price.
func VehiclesSold(client vehicleLister, logg *logger.Logger) http.HandlerFunc {
	return listVehicles(client, logg, enums.VehicleStatusSold)
}

func listVehicles(client vehicleLister, logg *logger.Logger, status enums.VehicleStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vehicle client unavailable"))
			return
		}

		page, err := validators.ParseQueryInt(r, "page", 0, 0, 1<<20)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		size, err := validators.ParseQueryInt(r, "size", pagination.DefaultSize, 1, pagination.MaxSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := client.ListByStatus(r.Context(), status, pagination.Params{Page: page, Size: size})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
