package cart

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pkgerrors "github.com/angelmondragon/aquadrop/pkg/errors"
	"github.com/angelmondragon/aquadrop/pkg/retry"
)

// cartDoc is the account cart document: carts/{uid}.
type cartDoc struct {
	UserID    string    `firestore:"userId"`
	Items     []Line    `firestore:"items"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// FirestoreRepository persists account carts, one document per uid.
type FirestoreRepository struct {
	client     *firestore.Client
	collection string
	policy     retry.Policy
	now        func() time.Time
}

// NewFirestoreRepository binds the repository to the carts collection. Transient
// backend errors are retried according to policy.
func NewFirestoreRepository(client *firestore.Client, collection string, policy retry.Policy) *FirestoreRepository {
	if strings.TrimSpace(collection) == "" {
		collection = "carts"
	}
	return &FirestoreRepository{client: client, collection: collection, policy: policy, now: time.Now}
}

func (r *FirestoreRepository) doc(uid string) (*firestore.DocumentRef, error) {
	if r == nil || r.client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart store not configured")
	}
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "uid is required")
	}
	return r.client.Collection(r.collection).Doc(uid), nil
}

func (r *FirestoreRepository) Load(ctx context.Context, uid string) (Lines, bool, error) {
	ref, err := r.doc(uid)
	if err != nil {
		return nil, false, err
	}

	var snap *firestore.DocumentSnapshot
	err = retry.Do(ctx, r.policy, func(ctx context.Context) error {
		var getErr error
		snap, getErr = ref.Get(ctx)
		return getErr
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, false, nil
		}
		return nil, false, unavailable(err, "load cart")
	}

	var doc cartDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode cart")
	}
	return Lines(doc.Items), true, nil
}

func (r *FirestoreRepository) Save(ctx context.Context, uid string, lines Lines) error {
	ref, err := r.doc(uid)
	if err != nil {
		return err
	}
	doc := cartDoc{UserID: uid, Items: []Line(lines.Clone()), UpdatedAt: r.now().UTC()}
	err = retry.Do(ctx, r.policy, func(ctx context.Context) error {
		_, setErr := ref.Set(ctx, doc)
		return setErr
	})
	if err != nil {
		return unavailable(err, "save cart")
	}
	return nil
}

func (r *FirestoreRepository) Delete(ctx context.Context, uid string) error {
	ref, err := r.doc(uid)
	if err != nil {
		return err
	}
	err = retry.Do(ctx, r.policy, func(ctx context.Context) error {
		_, delErr := ref.Delete(ctx)
		return delErr
	})
	if err != nil && status.Code(err) != codes.NotFound {
		return unavailable(err, "delete cart")
	}
	return nil
}

func unavailable(err error, msg string) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
