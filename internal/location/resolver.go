// Package location determines the shopper's coordinate on a best-effort basis.
package location

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/aquadrop/pkg/geo"
	"github.com/angelmondragon/aquadrop/pkg/logger"
	"github.com/angelmondragon/aquadrop/pkg/maps"
)

// Geocoder turns address text into coordinates. *maps.Client satisfies it.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (maps.LatLng, error)
}

// Request carries whatever the device shared: a coordinate, an address, or nothing.
type Request struct {
	Lat     *float64
	Lng     *float64
	Address string
}

// Resolver never fails: anything it cannot resolve is reported as absent.
type Resolver struct {
	geocoder Geocoder
	timeout  time.Duration
	logg     *logger.Logger
}

// NewResolver builds a resolver. A nil geocoder disables address lookup.
func NewResolver(geocoder Geocoder, timeout time.Duration, logg *logger.Logger) *Resolver {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Resolver{geocoder: geocoder, timeout: timeout, logg: logg}
}

// Resolve prefers an explicit valid coordinate, then geocodes the address.
func (r *Resolver) Resolve(ctx context.Context, req Request) *geo.Point {
	if req.Lat != nil && req.Lng != nil {
		p := geo.Point{Latitude: *req.Lat, Longitude: *req.Lng}
		if p.Valid() {
			return &p
		}
		r.logg.Debug(ctx, "location.coordinate_invalid")
	}

	address := strings.TrimSpace(req.Address)
	if address == "" || r.geocoder == nil {
		return nil
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	ll, err := r.geocoder.Geocode(ctx, address)
	if err != nil {
		r.logg.Warn(r.logg.WithField(ctx, "error", err.Error()), "location.geocode_failed")
		return nil
	}
	p := geo.Point{Latitude: ll.Latitude, Longitude: ll.Longitude}
	if !p.Valid() || p.IsZero() {
		return nil
	}
	return &p
}
