package orders

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/aquadrop/api/middleware"
	"github.com/angelmondragon/aquadrop/api/responses"
	"github.com/angelmondragon/aquadrop/api/validators"
	internalorders "github.com/angelmondragon/aquadrop/internal/orders"
	pkgerrors "github.com/angelmondragon/aquadrop/pkg/errors"
	"github.com/angelmondragon/aquadrop/pkg/logger"
)

type placeOrderResponse struct {
	Orders []internalorders.Order `json:"orders"`
}

// PlaceOrder checks out the session cart, creating one order per vendor.
func PlaceOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		store := middleware.CartFromContext(r.Context())
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session context missing"))
			return
		}

		var payload internalorders.PlaceOrderInput
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payload.DeliveryAddress = validators.SanitizeString(payload.DeliveryAddress, 500)

		created, err := svc.PlaceOrder(r.Context(), middleware.IdentityFromContext(r.Context()), store, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, placeOrderResponse{Orders: created})
	}
}

// List returns the signed-in customer's orders, newest first.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		list, err := svc.ListCustomerOrders(r.Context(), middleware.IdentityFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if list == nil {
			list = []internalorders.Order{}
		}
		responses.WriteSuccess(w, list)
	}
}

// VendorList returns the orders placed with the signed-in vendor.
func VendorList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		vendorID, ok := vendorFromRequest(w, r, logg)
		if !ok {
			return
		}

		list, err := svc.ListVendorOrders(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if list == nil {
			list = []internalorders.Order{}
		}
		responses.WriteSuccess(w, list)
	}
}

// VendorUpdateStatus moves one of the vendor's orders to the requested status.
func VendorUpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		vendorID, ok := vendorFromRequest(w, r, logg)
		if !ok {
			return
		}

		orderID := strings.TrimSpace(chi.URLParam(r, "orderId"))
		if orderID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id required"))
			return
		}

		var payload internalorders.StatusInput
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateStatus(r.Context(), vendorID, orderID, payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// VendorDashboard returns order stats, stock alerts and suggestions for the vendor.
func VendorDashboard(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		vendorID, ok := vendorFromRequest(w, r, logg)
		if !ok {
			return
		}

		dash, err := svc.Dashboard(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dash)
	}
}

func vendorFromRequest(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (string, bool) {
	ident := middleware.IdentityFromContext(r.Context())
	if ident == nil || !ident.IsVendor() {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing"))
		return "", false
	}
	return ident.VendorID, true
}
