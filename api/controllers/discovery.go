package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/aquadrop/api/responses"
	"github.com/angelmondragon/aquadrop/api/validators"
	"github.com/angelmondragon/aquadrop/internal/discovery"
	"github.com/angelmondragon/aquadrop/internal/location"
	pkgerrors "github.com/angelmondragon/aquadrop/pkg/errors"
	"github.com/angelmondragon/aquadrop/pkg/geo"
	"github.com/angelmondragon/aquadrop/pkg/logger"
)

const (
	maxQueryLen   = 200
	maxAddressLen = 500

	defaultDiscoveryLimit = 50
	maxDiscoveryLimit     = 200
)

// Discoverer ranks listings around the shopper. *discovery.Service satisfies it.
type Discoverer interface {
	Products(ctx context.Context, q discovery.ProductQuery) ([]discovery.RankedProduct, *geo.Point)
	Vendors(ctx context.Context, q discovery.VendorQuery) ([]discovery.RankedVendor, *geo.Point)
}

type discoveryResponse[T any] struct {
	Items    []T        `json:"items"`
	Location *geo.Point `json:"location,omitempty"`
}

// DiscoverProducts lists products nearest first, filtered by the optional q text.
func DiscoverProducts(svc Discoverer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discovery service unavailable"))
			return
		}

		loc, err := locationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", defaultDiscoveryLimit, 1, maxDiscoveryLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, user := svc.Products(r.Context(), discovery.ProductQuery{
			Text:     validators.SanitizeString(r.URL.Query().Get("q"), maxQueryLen),
			Location: loc,
		})
		if items == nil {
			items = []discovery.RankedProduct{}
		}
		items = firstN(items, limit)
		responses.WriteSuccess(w, discoveryResponse[discovery.RankedProduct]{Items: items, Location: user})
	}
}

// DiscoverVendors lists vendors nearest first, narrowed by the optional area.
func DiscoverVendors(svc Discoverer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discovery service unavailable"))
			return
		}

		loc, err := locationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", defaultDiscoveryLimit, 1, maxDiscoveryLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, user := svc.Vendors(r.Context(), discovery.VendorQuery{
			Area:     validators.SanitizeString(r.URL.Query().Get("area"), maxQueryLen),
			Location: loc,
		})
		if items == nil {
			items = []discovery.RankedVendor{}
		}
		items = firstN(items, limit)
		responses.WriteSuccess(w, discoveryResponse[discovery.RankedVendor]{Items: items, Location: user})
	}
}

func locationFromQuery(r *http.Request) (location.Request, error) {
	lat, err := validators.ParseQueryFloat(r, "lat", -90, 90)
	if err != nil {
		return location.Request{}, err
	}
	lng, err := validators.ParseQueryFloat(r, "lng", -180, 180)
	if err != nil {
		return location.Request{}, err
	}
	if (lat == nil) != (lng == nil) {
		return location.Request{}, pkgerrors.New(pkgerrors.CodeValidation, "lat and lng must be provided together")
	}
	return location.Request{
		Lat:     lat,
		Lng:     lng,
		Address: validators.SanitizeString(r.URL.Query().Get("address"), maxAddressLen),
	}, nil
}

// firstN keeps the nearest n; ranking already sorted the slice.
func firstN[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
