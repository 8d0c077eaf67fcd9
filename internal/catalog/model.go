// Package catalog reads vendors and products from the document store and caches listings.
package catalog

import (
	"strings"

	"github.com/angelmondragon/aquadrop/pkg/geo"
)

// LowStockThreshold marks products that deserve a restock hint.
const LowStockThreshold = 10

// Vendor is a delivery shop. Location is nil when the vendor never shared coordinates.
type Vendor struct {
	ID           string     `json:"id" firestore:"-"`
	OwnerID      string     `json:"owner_id,omitempty" firestore:"ownerId,omitempty"`
	ShopName     string     `json:"shop_name" firestore:"shopName"`
	Address      string     `json:"address" firestore:"address"`
	City         string     `json:"city,omitempty" firestore:"city,omitempty"`
	Area         string     `json:"area,omitempty" firestore:"area,omitempty"`
	Rating       float64    `json:"rating" firestore:"rating"`
	IsOpen       bool       `json:"is_open" firestore:"isOpen"`
	Location     *geo.Point `json:"location,omitempty" firestore:"location,omitempty"`
	DeliveryTime string     `json:"delivery_time,omitempty" firestore:"deliveryTime,omitempty"`
	ImageRef     string     `json:"image_ref,omitempty" firestore:"image,omitempty"`
	// DistanceKm is the static estimate used when no user coordinate is available.
	DistanceKm *float64 `json:"distance_km,omitempty" firestore:"distance,omitempty"`
}

// HasLocation reports whether the vendor carries a usable coordinate.
func (v Vendor) HasLocation() bool {
	return v.Location != nil && v.Location.Valid() && !v.Location.IsZero()
}

// Product is a sellable item owned by one vendor.
type Product struct {
	ID          string  `json:"id" firestore:"-"`
	VendorID    string  `json:"vendor_id" firestore:"vendorId"`
	Name        string  `json:"name" firestore:"name"`
	Description string  `json:"description,omitempty" firestore:"description,omitempty"`
	Price       float64 `json:"price" firestore:"price"`
	Stock       int     `json:"stock" firestore:"stock"`
	ImageRef    string  `json:"image_ref,omitempty" firestore:"image,omitempty"`
	IsAvailable bool    `json:"is_available" firestore:"isAvailable"`
}

// InStock reports whether the product can be shown as orderable.
func (p Product) InStock() bool { return p.Stock > 0 }

// LowStock reports whether the product is below the restock threshold.
func (p Product) LowStock() bool { return p.Stock < LowStockThreshold }

// Matches reports a case-insensitive substring match on name or description.
func (p Product) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(p.Description), q)
}

// ProductFilter narrows ListProducts.
type ProductFilter struct {
	VendorID string
}

func (f ProductFilter) cacheKey() string {
	if v := strings.TrimSpace(f.VendorID); v != "" {
		return "vendor:" + v
	}
	return "all"
}

// IndexVendors maps vendors by id.
func IndexVendors(vendors []Vendor) map[string]Vendor {
	out := make(map[string]Vendor, len(vendors))
	for _, v := range vendors {
		out[v.ID] = v
	}
	return out
}
