package orders

import (
	"context"

	"github.com/angelmondragon/aquadrop/internal/cart"
	"github.com/angelmondragon/aquadrop/internal/catalog"
	"github.com/angelmondragon/aquadrop/internal/identity"
	"github.com/angelmondragon/aquadrop/pkg/enums"
	"github.com/angelmondragon/aquadrop/pkg/pubsub"
)

// Repository persists orders.
type Repository interface {
	CreateAll(ctx context.Context, orders []Order) error
	ListByVendor(ctx context.Context, vendorID string) ([]Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]Order, error)
	// Transition loads the order, lets decide choose the next status and writes
	// it atomically. decide errors abort without writing.
	Transition(ctx context.Context, orderID string, decide func(Order) (enums.OrderStatus, error)) (Order, error)
}

// CartStore is the session cart being checked out. *cart.Store satisfies it.
// Take empties the cart and returns its lines in one step; Restore puts lines
// back when the checkout fails.
type CartStore interface {
	Identity() *identity.Identity
	Take(ctx context.Context) cart.Lines
	Restore(ctx context.Context, lines cart.Lines) cart.Lines
}

// Publisher emits order events. *pubsub.Client satisfies it.
type Publisher interface {
	Publish(ctx context.Context, ev pubsub.Event) (string, error)
}

// ProductLister provides the vendor's products for the dashboard.
type ProductLister interface {
	ListProducts(ctx context.Context, filter catalog.ProductFilter) []catalog.Product
}
