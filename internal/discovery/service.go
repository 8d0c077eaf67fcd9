package discovery

import (
	"context"

	"github.com/angelmondragon/aquadrop/internal/catalog"
	"github.com/angelmondragon/aquadrop/internal/location"
	"github.com/angelmondragon/aquadrop/pkg/geo"
)

// Catalog is the listing source. *catalog.Service satisfies it.
type Catalog interface {
	ListVendors(ctx context.Context) []catalog.Vendor
	ListProducts(ctx context.Context, filter catalog.ProductFilter) []catalog.Product
}

// Locator resolves the shopper's coordinate. *location.Resolver satisfies it.
type Locator interface {
	Resolve(ctx context.Context, req location.Request) *geo.Point
}

// ProductQuery is a product search from one shopper.
type ProductQuery struct {
	Text     string
	Location location.Request
}

// VendorQuery is a vendor browse, optionally narrowed by city or area.
type VendorQuery struct {
	Area     string
	Location location.Request
}

// Service combines catalog listings with the shopper's location.
type Service struct {
	catalog Catalog
	locator Locator
}

// NewService wires the ranker to its collaborators.
func NewService(c Catalog, l Locator) *Service {
	return &Service{catalog: c, locator: l}
}

// Products returns the ranked product listing and the coordinate used, if any.
func (s *Service) Products(ctx context.Context, q ProductQuery) ([]RankedProduct, *geo.Point) {
	user := s.locate(ctx, q.Location)
	vendors := catalog.IndexVendors(s.catalog.ListVendors(ctx))
	products := s.catalog.ListProducts(ctx, catalog.ProductFilter{})
	return RankProducts(products, vendors, user, q.Text), user
}

// Vendors returns vendors in the area, nearest first.
func (s *Service) Vendors(ctx context.Context, q VendorQuery) ([]RankedVendor, *geo.Point) {
	user := s.locate(ctx, q.Location)
	vendors := SearchVendorsByArea(s.catalog.ListVendors(ctx), q.Area)
	return RankVendors(vendors, user), user
}

func (s *Service) locate(ctx context.Context, req location.Request) *geo.Point {
	if s.locator == nil {
		return nil
	}
	return s.locator.Resolve(ctx, req)
}
