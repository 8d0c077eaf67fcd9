package discovery

import (
	"context"
	"math"
	"testing"

	"github.com/angelmondragon/aquadrop/internal/catalog"
	"github.com/angelmondragon/aquadrop/internal/location"
	"github.com/angelmondragon/aquadrop/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func km(v float64) *float64 { return &v }

var (
	connaught = geo.Point{Latitude: 28.6139, Longitude: 77.2090}
	noida     = geo.Point{Latitude: 28.5355, Longitude: 77.3910}
	mumbai    = geo.Point{Latitude: 19.0760, Longitude: 72.8777}
)

func testVendors() []catalog.Vendor {
	return []catalog.Vendor{
		{ID: "v1", ShopName: "Aqua Pure Supplies", City: "Delhi", Location: &connaught, DistanceKm: km(2.5)},
		{ID: "v2", ShopName: "Himalayan Flow", City: "Mumbai", Location: &mumbai, DistanceKm: km(5.2)},
		{ID: "v4", ShopName: "Spring Water Store", City: "Delhi", Area: "Noida Sector 18", Location: &noida, DistanceKm: km(1.8)},
		{ID: "v9", ShopName: "Unlisted", City: "Anand"},
	}
}

func testProducts() []catalog.Product {
	return []catalog.Product{
		{ID: "p1", VendorID: "v2", Name: "20L Water Jar", Description: "Refillable"},
		{ID: "p2", VendorID: "v9", Name: "Mineral Water 1L"},
		{ID: "p3", VendorID: "v1", Name: "Bisleri 500ml", Description: "Sealed mineral water"},
		{ID: "p4", VendorID: "missing", Name: "Orphan Jar"},
		{ID: "p5", VendorID: "v4", Name: "20L Jar"},
	}
}

func ids(ranked []RankedProduct) []string {
	out := make([]string, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.Product.ID)
	}
	return out
}

func TestResolveDistanceMatchesHaversine(t *testing.T) {
	t.Parallel()

	v := catalog.Vendor{Location: &connaught}
	user := noida
	got, known := ResolveDistance(v, &user)
	require.True(t, known)

	const r = 6371.0
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := rad(noida.Latitude - connaught.Latitude)
	dLon := rad(noida.Longitude - connaught.Longitude)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(connaught.Latitude))*math.Cos(rad(noida.Latitude))*math.Sin(dLon/2)*math.Sin(dLon/2)
	want := r * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	assert.InDelta(t, want, got, 1e-9)
	assert.Equal(t, 19.8, *DisplayKm(got, known))
}

func TestResolveDistanceFallbacks(t *testing.T) {
	t.Parallel()

	withStatic := catalog.Vendor{Location: &connaught, DistanceKm: km(2.5)}
	got, known := ResolveDistance(withStatic, nil)
	assert.True(t, known)
	assert.Equal(t, 2.5, got)

	got, known = ResolveDistance(catalog.Vendor{}, &noida)
	assert.False(t, known)
	assert.Equal(t, UnknownDistanceKm, got)
	assert.Nil(t, DisplayKm(got, known))
}

func TestRankProductsEmptyQueryReturnsAllNearestFirst(t *testing.T) {
	t.Parallel()

	user := noida
	ranked := RankProducts(testProducts(), catalog.IndexVendors(testVendors()), &user, "")

	require.Len(t, ranked, 5)
	assert.Equal(t, []string{"p5", "p3", "p1", "p2", "p4"}, ids(ranked))
	assert.False(t, ranked[3].Known)
	assert.False(t, ranked[4].Known)
	assert.Empty(t, ranked[4].Vendor.ID, "missing vendor becomes a zero placeholder")
	for i := 1; i < 3; i++ {
		assert.LessOrEqual(t, ranked[i-1].DistanceKm, ranked[i].DistanceKm)
	}
}

func TestRankProductsWithoutLocationUsesStaticDistance(t *testing.T) {
	t.Parallel()

	ranked := RankProducts(testProducts(), catalog.IndexVendors(testVendors()), nil, "")
	assert.Equal(t, []string{"p5", "p3", "p1", "p2", "p4"}, ids(ranked))
	assert.Equal(t, 1.8, ranked[0].DistanceKm)
}

func TestRankProductsFiltersByText(t *testing.T) {
	t.Parallel()

	vendors := catalog.IndexVendors(testVendors())
	user := noida

	ranked := RankProducts(testProducts(), vendors, &user, "MINERAL")
	assert.Equal(t, []string{"p3", "p2"}, ids(ranked), "matches on name and description")

	none := RankProducts(testProducts(), vendors, &user, "kombucha")
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestRankProductsStableTies(t *testing.T) {
	t.Parallel()

	vendors := catalog.IndexVendors([]catalog.Vendor{{ID: "v1", DistanceKm: km(3)}})
	products := []catalog.Product{
		{ID: "b", VendorID: "v1", Name: "B"},
		{ID: "a", VendorID: "v1", Name: "A"},
		{ID: "x", VendorID: "nope", Name: "X"},
		{ID: "c", VendorID: "v1", Name: "C"},
	}
	ranked := RankProducts(products, vendors, nil, "")
	assert.Equal(t, []string{"b", "a", "c", "x"}, ids(ranked))
}

func TestRankVendors(t *testing.T) {
	t.Parallel()

	user := connaught
	ranked := RankVendors(testVendors(), &user)
	require.Len(t, ranked, 4)
	assert.Equal(t, "v1", ranked[0].Vendor.ID)
	assert.InDelta(t, 0, ranked[0].DistanceKm, 1e-9)
	assert.Equal(t, "v4", ranked[1].Vendor.ID)
	assert.Equal(t, "v2", ranked[2].Vendor.ID)
	assert.Equal(t, "v9", ranked[3].Vendor.ID)
}

func TestSearchVendorsByArea(t *testing.T) {
	t.Parallel()

	vendors := testVendors()
	assert.Len(t, SearchVendorsByArea(vendors, ""), 4)
	delhi := SearchVendorsByArea(vendors, " delhi ")
	assert.Len(t, delhi, 2)
	noidaOnly := SearchVendorsByArea(vendors, "noida")
	require.Len(t, noidaOnly, 1)
	assert.Equal(t, "v4", noidaOnly[0].ID)
	assert.Empty(t, SearchVendorsByArea(vendors, "chennai"))
}

type stubCatalog struct {
	vendors  []catalog.Vendor
	products []catalog.Product
}

func (s stubCatalog) ListVendors(context.Context) []catalog.Vendor { return s.vendors }
func (s stubCatalog) ListProducts(context.Context, catalog.ProductFilter) []catalog.Product {
	return s.products
}

type fixedLocator struct{ p *geo.Point }

func (f fixedLocator) Resolve(context.Context, location.Request) *geo.Point { return f.p }

func TestServiceProducts(t *testing.T) {
	t.Parallel()

	user := noida
	svc := NewService(stubCatalog{vendors: testVendors(), products: testProducts()}, fixedLocator{p: &user})
	ranked, used := svc.Products(context.Background(), ProductQuery{Text: "jar"})
	require.NotNil(t, used)
	assert.Equal(t, []string{"p5", "p1", "p4"}, ids(ranked))

	vendors, _ := svc.Vendors(context.Background(), VendorQuery{Area: "delhi"})
	require.Len(t, vendors, 2)
	assert.Equal(t, "v4", vendors[0].Vendor.ID)
}

func TestServiceDegradesWithoutBackend(t *testing.T) {
	t.Parallel()

	svc := NewService(stubCatalog{vendors: []catalog.Vendor{}, products: []catalog.Product{}}, nil)
	ranked, used := svc.Products(context.Background(), ProductQuery{})
	assert.Nil(t, used)
	assert.Empty(t, ranked)
}
