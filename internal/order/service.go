package order

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/example/shopease-backend/internal/cart"
	"github.com/example/shopease-backend/internal/infrastructure/kafka"
	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Store is the persistence contract for orders
type Store interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
}

// CartSource provides the lines to snapshot at checkout
type CartSource interface {
	GetItems(ctx context.Context, userID string) ([]*cart.Item, error)
	ClearCart(ctx context.Context, userID string) error
}

// StockSource decrements catalog stock at checkout and puts it back when
// the checkout aborts partway.
type StockSource interface {
	IsInStock(ctx context.Context, productID string, qty int) (bool, error)
	UpdateStock(ctx context.Context, productID string, qty int) (bool, error)
	RestoreStock(ctx context.Context, productID string, qty int) error
}

// Service turns a cart into an immutable order
type Service struct {
	store    Store
	carts    CartSource
	stock    StockSource
	producer *kafka.Producer
}

func NewService(store Store, carts CartSource, stock StockSource, producer *kafka.Producer) *Service {
	return &Service{store: store, carts: carts, stock: stock, producer: producer}
}

// PlaceOrder snapshots the user's cart lines into an order, decrements
// stock per product and clears the cart. Stock is enforced here, not at
// add-to-cart time.
func (s *Service) PlaceOrder(ctx context.Context, userID string) (*Order, error) {
	items, err := s.carts.GetItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	// Quantities are aggregated per product before any stock check: two
	// variant lines of the same product compete for the same stock, so each
	// product gets one check and one decrement for its combined total.
	productIDs := make([]string, 0, len(items))
	required := make(map[string]int, len(items))
	for _, item := range items {
		if _, seen := required[item.ProductID]; !seen {
			productIDs = append(productIDs, item.ProductID)
		}
		required[item.ProductID] += item.Quantity
	}

	// Check availability up front so the common failure aborts before any
	// stock has been taken.
	for _, productID := range productIDs {
		ok, err := s.stock.IsInStock(ctx, productID, required[productID])
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrInsufficientStock
		}
	}

	var taken []string
	restoreTaken := func() {
		for _, productID := range taken {
			if err := s.stock.RestoreStock(ctx, productID, required[productID]); err != nil {
				log.Printf("[Order] Error restoring %d stock for product %s: %v", required[productID], productID, err)
			}
		}
	}

	for _, productID := range productIDs {
		ok, err := s.stock.UpdateStock(ctx, productID, required[productID])
		if err == nil && !ok {
			// A concurrent checkout took the stock after our availability
			// pass; give back what this one already decremented.
			err = ErrInsufficientStock
		}
		if err != nil {
			restoreTaken()
			return nil, err
		}
		taken = append(taken, productID)
	}

	o := &Order{
		ID:        uuid.New().String(),
		UserID:    userID,
		Status:    StatusPlaced,
		CreatedAt: time.Now(),
	}

	for _, item := range items {
		line := &OrderItem{
			ID:            uuid.New().String(),
			OrderID:       o.ID,
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			SelectedSize:  item.SelectedSize,
			SelectedColor: item.SelectedColor,
		}
		if item.Product != nil {
			line.ProductName = item.Product.Name
			line.ProductImage = item.Product.MainImageURL()
			line.PriceCents = item.Product.PriceCents
		}
		o.TotalCents += line.PriceCents * int64(line.Quantity)
		o.Items = append(o.Items, line)
	}

	if err := s.store.Create(ctx, o); err != nil {
		restoreTaken()
		return nil, err
	}

	if err := s.carts.ClearCart(ctx, userID); err != nil {
		// The order exists; a stale cart is recoverable by the user.
		log.Printf("[Order] Error clearing cart for user %s: %v", userID, err)
	}

	s.producer.Publish(ctx, userID, kafka.ActivityEvent{
		Type:    kafka.EventOrderPlaced,
		UserID:  userID,
		OrderID: o.ID,
	})
	return o, nil
}

// GetByID returns a single order with its lines
func (s *Service) GetByID(ctx context.Context, id string) (*Order, error) {
	return s.store.GetByID(ctx, id)
}

// ListByUser returns the user's orders newest-first
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*Order, error) {
	return s.store.ListByUser(ctx, userID)
}
