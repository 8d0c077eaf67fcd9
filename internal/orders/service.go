package orders

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/angelmondragon/aquadrop/internal/catalog"
	"github.com/angelmondragon/aquadrop/internal/identity"
	"github.com/angelmondragon/aquadrop/pkg/enums"
	"github.com/angelmondragon/aquadrop/pkg/pubsub"
	pkgerrors "github.com/angelmondragon/aquadrop/pkg/errors"
	"github.com/angelmondragon/aquadrop/pkg/logger"
	"github.com/angelmondragon/aquadrop/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service handles checkout and vendor order management.
type Service interface {
	PlaceOrder(ctx context.Context, ident *identity.Identity, store CartStore, input PlaceOrderInput) ([]Order, error)
	ListCustomerOrders(ctx context.Context, ident *identity.Identity) ([]Order, error)
	ListVendorOrders(ctx context.Context, vendorID string) ([]Order, error)
	UpdateStatus(ctx context.Context, vendorID, orderID, status string) (Order, error)
	Dashboard(ctx context.Context, vendorID string) (Dashboard, error)
}

// ServiceParams groups the order service collaborators.
type ServiceParams struct {
	Repo      Repository
	Publisher Publisher
	Products  ProductLister
	Logger    *logger.Logger
	Now       func() time.Time
}

type service struct {
	repo      Repository
	publisher Publisher
	products  ProductLister
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the order service. Publisher and Products are optional.
func NewService(p ServiceParams) (Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &service{repo: p.Repo, publisher: p.Publisher, products: p.Products, logg: p.Logger, now: p.Now}, nil
}

// PlaceOrder takes the cart, splits it into one pending order per vendor, stores
// and announces them. Lines added while the orders are written stay in the
// cart; a failed write puts the taken lines back.
func (s *service) PlaceOrder(ctx context.Context, ident *identity.Identity, store CartStore, input PlaceOrderInput) ([]Order, error) {
	if ident == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required to place an order")
	}
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable")
	}
	if !identity.Same(store.Identity(), ident) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is not bound to this account")
	}
	address := strings.TrimSpace(input.DeliveryAddress)
	if address == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required")
	}
	lines := store.Take(ctx)
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	now := s.now().UTC()
	checkoutID := uuid.NewString()
	vendorOrder, groups := lines.ByVendor()
	orders := make([]Order, 0, len(vendorOrder))
	for _, vendorID := range vendorOrder {
		group := groups[vendorID]
		items := make([]Item, 0, len(group))
		for _, line := range group {
			items = append(items, Item{
				ProductID: line.ProductID,
				Name:      line.Name,
				Price:     line.Price,
				Quantity:  line.Quantity,
				LineTotal: money.Amount(money.LineTotal(line.Price, line.Quantity)),
			})
		}
		orders = append(orders, Order{
			ID:              uuid.NewString(),
			CheckoutID:      checkoutID,
			CustomerID:      ident.UID,
			CustomerEmail:   ident.Email,
			VendorID:        vendorID,
			Items:           items,
			TotalAmount:     money.Amount(group.Total()),
			Status:          enums.OrderStatusPending,
			DeliveryAddress: address,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}

	if err := s.repo.CreateAll(ctx, orders); err != nil {
		store.Restore(ctx, lines)
		return nil, err
	}

	for _, o := range orders {
		s.publish(ctx, enums.EventOrderPlaced, o.ID, OrderPlacedEvent{
			OrderID:     o.ID,
			CheckoutID:  o.CheckoutID,
			VendorID:    o.VendorID,
			CustomerID:  o.CustomerID,
			TotalAmount: o.TotalAmount,
			ItemCount:   len(o.Items),
			PlacedAt:    o.CreatedAt,
		})
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"user_id":     ident.UID,
		"checkout_id": checkoutID,
		"orders":      len(orders),
	}), "orders.placed")
	return orders, nil
}

func (s *service) ListCustomerOrders(ctx context.Context, ident *identity.Identity) ([]Order, error) {
	if ident == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}
	orders, err := s.repo.ListByCustomer(ctx, ident.UID)
	if err != nil {
		return nil, err
	}
	newestFirst(orders)
	return orders, nil
}

func (s *service) ListVendorOrders(ctx context.Context, vendorID string) ([]Order, error) {
	vendorID = strings.TrimSpace(vendorID)
	if vendorID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor account required")
	}
	orders, err := s.repo.ListByVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	newestFirst(orders)
	return orders, nil
}

func (s *service) UpdateStatus(ctx context.Context, vendorID, orderID, status string) (Order, error) {
	vendorID = strings.TrimSpace(vendorID)
	if vendorID == "" {
		return Order{}, pkgerrors.New(pkgerrors.CodeForbidden, "vendor account required")
	}
	next, err := enums.ParseOrderStatus(status)
	if err != nil {
		return Order{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}

	var from enums.OrderStatus
	updated, err := s.repo.Transition(ctx, orderID, func(o Order) (enums.OrderStatus, error) {
		if o.VendorID != vendorID {
			return "", pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to vendor")
		}
		from = o.Status
		if o.Status == next {
			return next, nil
		}
		if !o.Status.CanTransitionTo(next) {
			return "", pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move order from %s to %s", o.Status, next))
		}
		return next, nil
	})
	if err != nil {
		return Order{}, err
	}

	if from != next {
		s.publish(ctx, enums.EventOrderStatusChanged, updated.ID, StatusChangedEvent{
			OrderID:  updated.ID,
			VendorID: vendorID,
			From:     from,
			To:       next,
		})
	}
	return updated, nil
}

func (s *service) Dashboard(ctx context.Context, vendorID string) (Dashboard, error) {
	orders, err := s.ListVendorOrders(ctx, vendorID)
	if err != nil {
		return Dashboard{}, err
	}
	var products []catalog.Product
	if s.products != nil {
		products = s.products.ListProducts(ctx, catalog.ProductFilter{VendorID: vendorID})
	}

	revenue := decimal.Zero
	for _, o := range orders {
		if o.Status != enums.OrderStatusCancelled {
			revenue = revenue.Add(decimal.NewFromFloat(o.TotalAmount))
		}
	}
	lowStock := 0
	for _, p := range products {
		if p.LowStock() {
			lowStock++
		}
	}

	return Dashboard{
		OrderCount:  len(orders),
		Revenue:     money.Amount(revenue),
		Orders:      orders,
		Suggestions: Suggestions(products, orders),
		LowStock:    lowStock,
		Products:    len(products),
	}, nil
}

// publish keys events by order id so one order's history stays in sequence.
func (s *service) publish(ctx context.Context, eventType enums.EventType, orderID string, payload any) {
	if s.publisher == nil {
		return
	}
	ev := pubsub.Event{Type: eventType.String(), Key: orderID, Payload: payload}
	if _, err := s.publisher.Publish(ctx, ev); err != nil {
		s.logg.Error(s.logg.WithFields(ctx, map[string]any{"event_type": ev.Type, "order_id": orderID}), "orders.publish.failed", err)
	}
}

func newestFirst(orders []Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
