// Package discovery ranks catalog listings by distance from the shopper.
package discovery

import (
	"sort"
	"strings"

	"github.com/angelmondragon/aquadrop/internal/catalog"
	"github.com/angelmondragon/aquadrop/pkg/geo"
)

// UnknownDistanceKm is assigned when neither a coordinate nor a static estimate exists.
const UnknownDistanceKm = 999999.0

// RankedProduct is a product decorated with its vendor and distance. Never persisted.
type RankedProduct struct {
	Product    catalog.Product `json:"product"`
	Vendor     catalog.Vendor  `json:"vendor"`
	DistanceKm float64         `json:"-"`
	Known      bool            `json:"distance_known"`
	DisplayKm  *float64        `json:"distance_km"`
}

// RankedVendor is a vendor decorated with its distance.
type RankedVendor struct {
	Vendor     catalog.Vendor `json:"vendor"`
	DistanceKm float64        `json:"-"`
	Known      bool           `json:"distance_known"`
	DisplayKm  *float64       `json:"distance_km"`
}

// ResolveDistance returns the Haversine distance when both coordinates exist,
// else the vendor's static estimate, else UnknownDistanceKm with known=false.
func ResolveDistance(v catalog.Vendor, user *geo.Point) (km float64, known bool) {
	if user != nil && user.Valid() && v.HasLocation() {
		return geo.DistanceKm(*user, *v.Location), true
	}
	if v.DistanceKm != nil && *v.DistanceKm >= 0 {
		return *v.DistanceKm, true
	}
	return UnknownDistanceKm, false
}

// DisplayKm rounds a resolved distance to one decimal for presentation.
func DisplayKm(km float64, known bool) *float64 {
	if !known {
		return nil
	}
	rounded := geo.RoundKm(km)
	return &rounded
}

// RankProducts filters products by query on name and description, attaches each
// product's vendor (a zero Vendor when missing) and sorts nearest first. Ties and
// unknown distances keep input order; unknown distances sort after known ones.
// An empty query returns every product.
func RankProducts(products []catalog.Product, vendors map[string]catalog.Vendor, user *geo.Point, query string) []RankedProduct {
	out := make([]RankedProduct, 0, len(products))
	for _, p := range products {
		if !p.Matches(query) {
			continue
		}
		v := vendors[p.VendorID]
		km, known := ResolveDistance(v, user)
		out = append(out, RankedProduct{
			Product:    p,
			Vendor:     v,
			DistanceKm: km,
			Known:      known,
			DisplayKm:  DisplayKm(km, known),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return nearer(out[i].DistanceKm, out[i].Known, out[j].DistanceKm, out[j].Known)
	})
	return out
}

// RankVendors sorts vendors nearest first with the same fallback rules as RankProducts.
func RankVendors(vendors []catalog.Vendor, user *geo.Point) []RankedVendor {
	out := make([]RankedVendor, 0, len(vendors))
	for _, v := range vendors {
		km, known := ResolveDistance(v, user)
		out = append(out, RankedVendor{Vendor: v, DistanceKm: km, Known: known, DisplayKm: DisplayKm(km, known)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return nearer(out[i].DistanceKm, out[i].Known, out[j].DistanceKm, out[j].Known)
	})
	return out
}

// SearchVendorsByArea keeps vendors whose city or area contains query, case-insensitively.
// An empty query returns every vendor.
func SearchVendorsByArea(vendors []catalog.Vendor, query string) []catalog.Vendor {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]catalog.Vendor, 0, len(vendors))
	for _, v := range vendors {
		if q == "" ||
			strings.Contains(strings.ToLower(v.City), q) ||
			strings.Contains(strings.ToLower(v.Area), q) {
			out = append(out, v)
		}
	}
	return out
}

// nearer orders known distances ascending ahead of every unknown one.
func nearer(a float64, aKnown bool, b float64, bKnown bool) bool {
	if aKnown != bKnown {
		return aKnown
	}
	if !aKnown {
		return false
	}
	return a < b
}
