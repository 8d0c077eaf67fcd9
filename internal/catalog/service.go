package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/aquadrop/pkg/errors"
	"github.com/angelmondragon/aquadrop/pkg/logger"
	"github.com/angelmondragon/aquadrop/pkg/metrics"
)

// Cache stores serialized listings. *redis.Client satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CatalogKey(parts ...string) string
}

const cacheVersion = "v1"

// ProductInput is the vendor-supplied payload for a new product.
type ProductInput struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=2000"`
	Price       float64 `json:"price" validate:"gte=0"`
	Stock       int     `json:"stock" validate:"gte=0"`
	ImageRef    string  `json:"image_ref" validate:"omitempty,max=2048"`
}

// Service exposes catalog listings that degrade to empty collections when the backend is down.
type Service struct {
	repo    Repository
	cache   Cache
	ttl     time.Duration
	logg    *logger.Logger
	metrics *metrics.CacheMetrics
}

// ServiceParams groups the Service collaborators.
type ServiceParams struct {
	Repo    Repository
	Cache   Cache
	TTL     time.Duration
	Logger  *logger.Logger
	Metrics *metrics.CacheMetrics
}

// NewService builds a catalog service. Cache and Metrics are optional.
func NewService(p ServiceParams) (*Service, error) {
	if p.Repo == nil {
		return nil, errors.New("catalog repository required")
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	return &Service{repo: p.Repo, cache: p.Cache, ttl: p.TTL, logg: p.Logger, metrics: p.Metrics}, nil
}

// ListVendors returns every vendor, or an empty slice if the store is unreachable.
func (s *Service) ListVendors(ctx context.Context) []Vendor {
	var vendors []Vendor
	if s.cached(ctx, "vendors", &vendors, "all") {
		return vendors
	}
	vendors, err := s.repo.ListVendors(ctx)
	if err != nil {
		s.logg.Error(ctx, "catalog.list_vendors.failed", err)
		return []Vendor{}
	}
	s.store(ctx, vendors, "vendors", "all")
	return vendors
}

// ListProducts returns matching products, or an empty slice if the store is unreachable.
func (s *Service) ListProducts(ctx context.Context, filter ProductFilter) []Product {
	var products []Product
	if s.cached(ctx, "products", &products, filter.cacheKey()) {
		return products
	}
	products, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "vendor_id", filter.VendorID), "catalog.list_products.failed", err)
		return []Product{}
	}
	s.store(ctx, products, "products", filter.cacheKey())
	return products
}

// GetProduct looks a product up directly in the store.
func (s *Service) GetProduct(ctx context.Context, id string) (Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// GetVendor looks a vendor up directly in the store.
func (s *Service) GetVendor(ctx context.Context, id string) (Vendor, error) {
	return s.repo.GetVendor(ctx, id)
}

// CreateProduct adds a product owned by vendorID.
func (s *Service) CreateProduct(ctx context.Context, vendorID string, in ProductInput) (Product, error) {
	vendorID = strings.TrimSpace(vendorID)
	if vendorID == "" {
		return Product{}, pkgerrors.New(pkgerrors.CodeForbidden, "vendor account required")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Product{}, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if in.Price < 0 {
		return Product{}, pkgerrors.New(pkgerrors.CodeValidation, "price must be zero or more")
	}
	if in.Stock < 0 {
		return Product{}, pkgerrors.New(pkgerrors.CodeValidation, "stock must be zero or more")
	}

	created, err := s.repo.CreateProduct(ctx, Product{
		VendorID:    vendorID,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Stock:       in.Stock,
		ImageRef:    strings.TrimSpace(in.ImageRef),
		IsAvailable: in.Stock > 0,
	})
	if err != nil {
		return Product{}, err
	}
	s.invalidateProducts(ctx, vendorID)
	return created, nil
}

// UpdateStock sets the stock level of a product owned by vendorID.
func (s *Service) UpdateStock(ctx context.Context, vendorID, productID string, stock int) (Product, error) {
	if stock < 0 {
		return Product{}, pkgerrors.New(pkgerrors.CodeValidation, "stock must be zero or more")
	}
	p, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return Product{}, err
	}
	if p.VendorID != strings.TrimSpace(vendorID) {
		return Product{}, pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another vendor")
	}
	if err := s.repo.SetStock(ctx, p.ID, stock); err != nil {
		return Product{}, err
	}
	p.Stock = stock
	p.IsAvailable = stock > 0
	s.invalidateProducts(ctx, p.VendorID)
	return p, nil
}

func (s *Service) cached(ctx context.Context, listing string, dst any, parts ...string) bool {
	if s.cache == nil {
		return false
	}
	key := s.cache.CatalogKey(append([]string{listing}, append(parts, cacheVersion)...)...)
	raw, err := s.cache.Get(ctx, key)
	if err != nil || raw == "" {
		s.metrics.Miss(listing)
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "catalog.cache.decode_failed")
		s.metrics.Miss(listing)
		return false
	}
	s.metrics.Hit(listing)
	return true
}

func (s *Service) store(ctx context.Context, value any, listing string, parts ...string) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	key := s.cache.CatalogKey(append([]string{listing}, append(parts, cacheVersion)...)...)
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.ttl); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "catalog.cache.write_failed")
	}
}

func (s *Service) invalidateProducts(ctx context.Context, vendorID string) {
	if s.cache == nil {
		return
	}
	keys := []string{
		s.cache.CatalogKey("products", ProductFilter{}.cacheKey(), cacheVersion),
		s.cache.CatalogKey("products", ProductFilter{VendorID: vendorID}.cacheKey(), cacheVersion),
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		s.logg.Warn(ctx, "catalog.cache.invalidate_failed")
	}
}
