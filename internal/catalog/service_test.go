package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/aquadrop/pkg/errors"
)

type stubRepo struct {
	vendors      []Vendor
	products     []Product
	err          error
	vendorCalls  int
	productCalls int
	created      []Product
	stock        map[string]int
}

func (s *stubRepo) ListVendors(context.Context) ([]Vendor, error) {
	s.vendorCalls++
	return s.vendors, s.err
}

func (s *stubRepo) GetVendor(_ context.Context, id string) (Vendor, error) {
	for _, v := range s.vendors {
		if v.ID == id {
			return v, nil
		}
	}
	return Vendor{}, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
}

func (s *stubRepo) ListProducts(_ context.Context, f ProductFilter) ([]Product, error) {
	s.productCalls++
	if s.err != nil {
		return nil, s.err
	}
	var out []Product
	for _, p := range s.products {
		if f.VendorID == "" || p.VendorID == f.VendorID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubRepo) GetProduct(_ context.Context, id string) (Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func (s *stubRepo) CreateProduct(_ context.Context, p Product) (Product, error) {
	p.ID = "generated"
	s.created = append(s.created, p)
	return p, nil
}

func (s *stubRepo) SetStock(_ context.Context, id string, stock int) error {
	if s.stock == nil {
		s.stock = map[string]int{}
	}
	s.stock[id] = stock
	return nil
}

type memoryCache struct {
	data    map[string]string
	deleted []string
}

func (m *memoryCache) Get(_ context.Context, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", errors.New("miss")
	}
	return v, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	if m.data == nil {
		m.data = map[string]string{}
	}
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	return nil
}

func (m *memoryCache) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
		m.deleted = append(m.deleted, k)
	}
	return nil
}

func (m *memoryCache) CatalogKey(parts ...string) string {
	key := "aq:catalog"
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

func newTestService(t *testing.T, repo Repository, cache Cache) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: repo, Cache: cache, TTL: time.Minute})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestListVendorsDegradesToEmpty(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubRepo{err: pkgerrors.New(pkgerrors.CodeDependency, "offline")}, nil)
	got := svc.ListVendors(context.Background())
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
	if products := svc.ListProducts(context.Background(), ProductFilter{}); len(products) != 0 {
		t.Fatalf("expected empty products, got %d", len(products))
	}
}

func TestListVendorsUsesCache(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{vendors: []Vendor{{ID: "v1", ShopName: "Aqua Pure Supplies"}}}
	cache := &memoryCache{}
	svc := newTestService(t, repo, cache)

	first := svc.ListVendors(context.Background())
	second := svc.ListVendors(context.Background())
	if repo.vendorCalls != 1 {
		t.Fatalf("expected one repo call, got %d", repo.vendorCalls)
	}
	if len(first) != 1 || len(second) != 1 || second[0].ShopName != "Aqua Pure Supplies" {
		t.Fatalf("unexpected listings %+v %+v", first, second)
	}
}

func TestListProductsFiltersByVendor(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{products: []Product{
		{ID: "p1", VendorID: "v1", Name: "20L Jar"},
		{ID: "p2", VendorID: "v2", Name: "1L Bottle"},
	}}
	svc := newTestService(t, repo, &memoryCache{})

	got := svc.ListProducts(context.Background(), ProductFilter{VendorID: "v2"})
	if len(got) != 1 || got[0].ID != "p2" {
		t.Fatalf("unexpected products %+v", got)
	}
}

func TestCreateProductValidatesAndInvalidates(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{}
	cache := &memoryCache{}
	svc := newTestService(t, repo, cache)

	if _, err := svc.CreateProduct(context.Background(), "v1", ProductInput{Name: " ", Price: 10}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.CreateProduct(context.Background(), "", ProductInput{Name: "Jar"}); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}

	p, err := svc.CreateProduct(context.Background(), "v1", ProductInput{Name: " 20L Jar ", Price: 80, Stock: 0})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if p.Name != "20L Jar" || p.VendorID != "v1" || p.IsAvailable {
		t.Fatalf("unexpected product %+v", p)
	}
	if len(cache.deleted) != 2 {
		t.Fatalf("expected both product listings invalidated, got %v", cache.deleted)
	}
}

func TestUpdateStockChecksOwnership(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{products: []Product{{ID: "p1", VendorID: "v1", Stock: 3}}}
	svc := newTestService(t, repo, nil)

	if _, err := svc.UpdateStock(context.Background(), "v2", "p1", 40); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := svc.UpdateStock(context.Background(), "v1", "p1", -1); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation, got %v", err)
	}
	p, err := svc.UpdateStock(context.Background(), "v1", "p1", 40)
	if err != nil {
		t.Fatalf("update stock: %v", err)
	}
	if p.Stock != 40 || !p.IsAvailable || repo.stock["p1"] != 40 {
		t.Fatalf("unexpected product %+v stock %v", p, repo.stock)
	}
}

func TestProductMatches(t *testing.T) {
	t.Parallel()

	p := Product{Name: "Mineral Water 1L", Description: "Sealed Bisleri bottle"}
	for _, q := range []string{"", "mineral", "BISLERI", " water "} {
		if !p.Matches(q) {
			t.Fatalf("expected %q to match", q)
		}
	}
	if p.Matches("jar") {
		t.Fatal("expected no match for jar")
	}
}
