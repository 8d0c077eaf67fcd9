package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/aquadrop/api/middleware"
	"github.com/angelmondragon/aquadrop/api/responses"
	"github.com/angelmondragon/aquadrop/api/validators"
	"github.com/angelmondragon/aquadrop/internal/catalog"
	pkgerrors "github.com/angelmondragon/aquadrop/pkg/errors"
	"github.com/angelmondragon/aquadrop/pkg/logger"
)

// CatalogReader is the read side of *catalog.Service.
type CatalogReader interface {
	GetVendor(ctx context.Context, id string) (catalog.Vendor, error)
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
	ListProducts(ctx context.Context, filter catalog.ProductFilter) []catalog.Product
}

// CatalogWriter is the vendor side of *catalog.Service.
type CatalogWriter interface {
	CreateProduct(ctx context.Context, vendorID string, in catalog.ProductInput) (catalog.Product, error)
	UpdateStock(ctx context.Context, vendorID, productID string, stock int) (catalog.Product, error)
}

type vendorDetailResponse struct {
	Vendor   catalog.Vendor    `json:"vendor"`
	Products []catalog.Product `json:"products"`
}

// VendorDetail returns one shop with its product listing.
func VendorDetail(svc CatalogReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		vendorID := strings.TrimSpace(chi.URLParam(r, "vendorId"))
		if vendorID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required"))
			return
		}

		vendor, err := svc.GetVendor(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		products := svc.ListProducts(r.Context(), catalog.ProductFilter{VendorID: vendor.ID})
		responses.WriteSuccess(w, vendorDetailResponse{Vendor: vendor, Products: products})
	}
}

// ProductDetail returns a single product.
func ProductDetail(svc CatalogReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID := strings.TrimSpace(chi.URLParam(r, "productId"))
		if productID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id required"))
			return
		}

		product, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// VendorCreateProduct adds a product to the signed-in vendor's shop.
func VendorCreateProduct(svc CatalogWriter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		ident := middleware.IdentityFromContext(r.Context())
		if ident == nil || !ident.IsVendor() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing"))
			return
		}

		var payload catalog.ProductInput
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payload.Name = validators.SanitizeString(payload.Name, 200)
		payload.Description = validators.SanitizeString(payload.Description, 2000)

		product, err := svc.CreateProduct(r.Context(), ident.VendorID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

type updateStockRequest struct {
	Stock *int `json:"stock" validate:"required,gte=0"`
}

// VendorUpdateStock sets the stock level of one of the vendor's products.
func VendorUpdateStock(svc CatalogWriter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		ident := middleware.IdentityFromContext(r.Context())
		if ident == nil || !ident.IsVendor() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing"))
			return
		}

		productID := strings.TrimSpace(chi.URLParam(r, "productId"))
		if productID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id required"))
			return
		}

		var payload updateStockRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateStock(r.Context(), ident.VendorID, productID, *payload.Stock)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}
