package orders

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/aquadrop/pkg/enums"
	pkgerrors "github.com/angelmondragon/aquadrop/pkg/errors"
	"github.com/angelmondragon/aquadrop/pkg/retry"
)

// FirestoreRepository stores orders, one document per vendor order.
type FirestoreRepository struct {
	client     *firestore.Client
	collection string
	policy     retry.Policy
	now        func() time.Time
}

// NewFirestoreRepository binds the repository to the orders collection.
func NewFirestoreRepository(client *firestore.Client, collection string, policy retry.Policy) *FirestoreRepository {
	if strings.TrimSpace(collection) == "" {
		collection = "orders"
	}
	return &FirestoreRepository{client: client, collection: collection, policy: policy, now: time.Now}
}

func (r *FirestoreRepository) col() (*firestore.CollectionRef, error) {
	if r == nil || r.client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "order store not configured")
	}
	return r.client.Collection(r.collection), nil
}

// CreateAll writes every order of a checkout in one transaction.
func (r *FirestoreRepository) CreateAll(ctx context.Context, orders []Order) error {
	col, err := r.col()
	if err != nil {
		return err
	}
	err = r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, o := range orders {
			if err := tx.Create(col.Doc(o.ID), o); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order already exists")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create orders")
	}
	return nil
}

func (r *FirestoreRepository) ListByVendor(ctx context.Context, vendorID string) ([]Order, error) {
	return r.listWhere(ctx, "vendorId", vendorID)
}

func (r *FirestoreRepository) ListByCustomer(ctx context.Context, customerID string) ([]Order, error) {
	return r.listWhere(ctx, "userId", customerID)
}

func (r *FirestoreRepository) listWhere(ctx context.Context, field, value string) ([]Order, error) {
	col, err := r.col()
	if err != nil {
		return nil, err
	}
	var out []Order
	err = retry.Do(ctx, r.policy, func(ctx context.Context) error {
		out = out[:0]
		it := col.Where(field, "==", value).Documents(ctx)
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err == iterator.Done {
				return nil
			}
			if err != nil {
				return err
			}
			o, err := decodeOrder(snap)
			if err != nil {
				return err
			}
			out = append(out, o)
		}
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return out, nil
}

func (r *FirestoreRepository) Transition(ctx context.Context, orderID string, decide func(Order) (enums.OrderStatus, error)) (Order, error) {
	col, err := r.col()
	if err != nil {
		return Order{}, err
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Order{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	var result Order
	ref := col.Doc(orderID)
	err = r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
			}
			return err
		}
		current, err := decodeOrder(snap)
		if err != nil {
			return err
		}
		next, err := decide(current)
		if err != nil {
			return err
		}
		result = current
		if next == current.Status {
			return nil
		}
		now := r.now().UTC()
		result.Status = next
		result.UpdatedAt = now
		return tx.Update(ref, []firestore.Update{
			{Path: "status", Value: string(next)},
			{Path: "updatedAt", Value: now},
		})
	})
	if err != nil {
		return Order{}, pkgerrors.FromStatus(err, "update order status")
	}
	return result, nil
}

func decodeOrder(snap *firestore.DocumentSnapshot) (Order, error) {
	var o Order
	if err := snap.DataTo(&o); err != nil {
		return Order{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode order "+snap.Ref.ID)
	}
	o.ID = snap.Ref.ID
	return o, nil
}
