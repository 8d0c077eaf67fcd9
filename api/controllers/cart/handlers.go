package cart

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/aquadrop/api/middleware"
	"github.com/angelmondragon/aquadrop/api/responses"
	"github.com/angelmondragon/aquadrop/api/validators"
	cartsvc "github.com/angelmondragon/aquadrop/internal/cart"
	"github.com/angelmondragon/aquadrop/internal/catalog"
	pkgerrors "github.com/angelmondragon/aquadrop/pkg/errors"
	"github.com/angelmondragon/aquadrop/pkg/logger"
)

// ProductGetter looks up the product being added. *catalog.Service satisfies it.
type ProductGetter interface {
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
}

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required,max=128"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// CartFetch returns the session's cart.
func CartFetch(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := storeFromRequest(w, r, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, store.Snapshot())
	}
}

// CartAddItem adds one unit of a catalog product.
func CartAddItem(products ProductGetter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if products == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		store, ok := storeFromRequest(w, r, logg)
		if !ok {
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := products.GetProduct(r.Context(), strings.TrimSpace(payload.ProductID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if _, err := store.Add(r.Context(), product); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store.Snapshot())
	}
}

// CartUpdateQuantity sets a line's quantity; values below one remove the line.
func CartUpdateQuantity(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := storeFromRequest(w, r, logg)
		if !ok {
			return
		}
		productID, ok := productIDParam(w, r, logg)
		if !ok {
			return
		}

		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store.UpdateQuantity(r.Context(), productID, *payload.Quantity)
		responses.WriteSuccess(w, store.Snapshot())
	}
}

// CartRemoveItem drops a line. Missing lines are ignored.
func CartRemoveItem(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := storeFromRequest(w, r, logg)
		if !ok {
			return
		}
		productID, ok := productIDParam(w, r, logg)
		if !ok {
			return
		}

		store.Remove(r.Context(), productID)
		responses.WriteSuccess(w, store.Snapshot())
	}
}

// CartClear empties the cart.
func CartClear(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := storeFromRequest(w, r, logg)
		if !ok {
			return
		}
		store.Clear(r.Context())
		responses.WriteSuccess(w, store.Snapshot())
	}
}

func storeFromRequest(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (*cartsvc.Store, bool) {
	store := middleware.CartFromContext(r.Context())
	if store == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session context missing"))
		return nil, false
	}
	return store, true
}

func productIDParam(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (string, bool) {
	productID := strings.TrimSpace(chi.URLParam(r, "productId"))
	if productID == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id required"))
		return "", false
	}
	return productID, true
}
