package catalog

import (
	"context"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/aquadrop/pkg/config"
	pkgerrors "github.com/angelmondragon/aquadrop/pkg/errors"
	"github.com/angelmondragon/aquadrop/pkg/retry"
)

// Repository is the catalog persistence contract.
type Repository interface {
	ListVendors(ctx context.Context) ([]Vendor, error)
	GetVendor(ctx context.Context, id string) (Vendor, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	GetProduct(ctx context.Context, id string) (Product, error)
	CreateProduct(ctx context.Context, p Product) (Product, error)
	SetStock(ctx context.Context, productID string, stock int) error
}

// FirestoreRepository reads vendors and products from their collections.
type FirestoreRepository struct {
	client   *firestore.Client
	vendors  string
	products string
	policy   retry.Policy
}

// NewFirestoreRepository binds the repository to the configured collections.
func NewFirestoreRepository(client *firestore.Client, cfg config.FirestoreConfig) *FirestoreRepository {
	return &FirestoreRepository{
		client:   client,
		vendors:  cfg.VendorsCollection,
		products: cfg.ProductsCollection,
		policy:   retry.Policy{Attempts: cfg.RetryAttempts, BaseDelay: cfg.RetryBaseDelay},
	}
}

func (r *FirestoreRepository) ready() error {
	if r == nil || r.client == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "catalog store not configured")
	}
	return nil
}

func (r *FirestoreRepository) ListVendors(ctx context.Context) ([]Vendor, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	var out []Vendor
	err := retry.Do(ctx, r.policy, func(ctx context.Context) error {
		out = out[:0]
		it := r.client.Collection(r.vendors).Documents(ctx)
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err == iterator.Done {
				return nil
			}
			if err != nil {
				return err
			}
			v, err := decodeVendor(snap)
			if err != nil {
				return err
			}
			out = append(out, v)
		}
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendors")
	}
	return out, nil
}

func (r *FirestoreRepository) GetVendor(ctx context.Context, id string) (Vendor, error) {
	if err := r.ready(); err != nil {
		return Vendor{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Vendor{}, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
	}
	var snap *firestore.DocumentSnapshot
	err := retry.Do(ctx, r.policy, func(ctx context.Context) error {
		var err error
		snap, err = r.client.Collection(r.vendors).Doc(id).Get(ctx)
		return err
	})
	if err != nil {
		return Vendor{}, lookupError(err, "vendor")
	}
	return decodeVendor(snap)
}

func (r *FirestoreRepository) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	var out []Product
	err := retry.Do(ctx, r.policy, func(ctx context.Context) error {
		out = out[:0]
		q := r.client.Collection(r.products).Query
		if v := strings.TrimSpace(filter.VendorID); v != "" {
			q = q.Where("vendorId", "==", v)
		}
		it := q.Documents(ctx)
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err == iterator.Done {
				return nil
			}
			if err != nil {
				return err
			}
			p, err := decodeProduct(snap)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return out, nil
}

func (r *FirestoreRepository) GetProduct(ctx context.Context, id string) (Product, error) {
	if err := r.ready(); err != nil {
		return Product{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	var snap *firestore.DocumentSnapshot
	err := retry.Do(ctx, r.policy, func(ctx context.Context) error {
		var err error
		snap, err = r.client.Collection(r.products).Doc(id).Get(ctx)
		return err
	})
	if err != nil {
		return Product{}, lookupError(err, "product")
	}
	return decodeProduct(snap)
}

func (r *FirestoreRepository) CreateProduct(ctx context.Context, p Product) (Product, error) {
	if err := r.ready(); err != nil {
		return Product{}, err
	}
	ref := r.client.Collection(r.products).NewDoc()
	p.ID = ref.ID
	if _, err := ref.Create(ctx, p); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return Product{}, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "product already exists")
		}
		return Product{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return p, nil
}

func (r *FirestoreRepository) SetStock(ctx context.Context, productID string, stock int) error {
	if err := r.ready(); err != nil {
		return err
	}
	_, err := r.client.Collection(r.products).Doc(productID).Update(ctx, []firestore.Update{
		{Path: "stock", Value: stock},
		{Path: "isAvailable", Value: stock > 0},
	})
	if err != nil {
		return lookupError(err, "product")
	}
	return nil
}

func decodeVendor(snap *firestore.DocumentSnapshot) (Vendor, error) {
	var v Vendor
	if err := snap.DataTo(&v); err != nil {
		return Vendor{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode vendor "+snap.Ref.ID)
	}
	v.ID = snap.Ref.ID
	return v, nil
}

func decodeProduct(snap *firestore.DocumentSnapshot) (Product, error) {
	var p Product
	if err := snap.DataTo(&p); err != nil {
		return Product{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode product "+snap.Ref.ID)
	}
	p.ID = snap.Ref.ID
	return p, nil
}

func lookupError(err error, kind string) error {
	if status.Code(err) == codes.NotFound {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, kind+" not found")
	}
	return pkgerrors.FromStatus(err, "get "+kind)
}
