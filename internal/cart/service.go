package cart

import (
	"context"
	"errors"

	"github.com/example/shopease-backend/internal/catalog"
	"github.com/example/shopease-backend/internal/infrastructure/kafka"
)

var (
	ErrNotFound        = errors.New("cart item not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// Store is the persistence contract for cart lines. AddLine performs the
// reconciliation atomically: it merges into the line matching the item's
// (user, product, size, color) tuple, or inserts a new one.
type Store interface {
	AddLine(ctx context.Context, item *Item) (*Item, error)
	GetByID(ctx context.Context, id string) (*Item, error)
	SetQuantity(ctx context.Context, id string, quantity int) (*Item, error)
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) error
	ListByUser(ctx context.Context, userID string) ([]*Item, error)
	CountByUser(ctx context.Context, userID string) (int, error)
}

// ProductSource resolves products for validation and hydration
type ProductSource interface {
	GetByID(ctx context.Context, id string) (*catalog.Product, error)
}

// UserSource checks user existence
type UserSource interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

// Service implements cart reconciliation on top of a Store
type Service struct {
	store    Store
	products ProductSource
	users    UserSource
	producer *kafka.Producer
}

func NewService(store Store, products ProductSource, users UserSource, producer *kafka.Producer) *Service {
	return &Service{store: store, products: products, users: users, producer: producer}
}

// AddToCart merges the requested quantity into the existing line for the
// exact (user, product, size, color) tuple, or creates a new line. The
// product's active flag and current stock are deliberately not checked here;
// stock is enforced at checkout.
func (s *Service) AddToCart(ctx context.Context, userID, productID string, quantity int, selectedSize, selectedColor *string) (*Item, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	if _, err := s.products.GetByID(ctx, productID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	item, err := s.store.AddLine(ctx, &Item{
		UserID:        userID,
		ProductID:     productID,
		Quantity:      quantity,
		SelectedSize:  selectedSize,
		SelectedColor: selectedColor,
	})
	if err != nil {
		return nil, err
	}

	s.producer.Publish(ctx, userID, kafka.ActivityEvent{
		Type:      kafka.EventCartItemAdded,
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	})
	return item, nil
}

// UpdateItem overwrites a line's quantity. A quantity of zero or less
// deletes the line instead; removed reports which of the two happened.
func (s *Service) UpdateItem(ctx context.Context, id string, quantity int) (item *Item, removed bool, err error) {
	if quantity <= 0 {
		if err := s.store.Delete(ctx, id); err != nil {
			return nil, false, err
		}
		return nil, true, nil
	}

	item, err = s.store.SetQuantity(ctx, id, quantity)
	if err != nil {
		return nil, false, err
	}
	return item, false, nil
}

// GetItem returns a single line by id
func (s *Service) GetItem(ctx context.Context, id string) (*Item, error) {
	return s.store.GetByID(ctx, id)
}

// RemoveItem deletes a line
func (s *Service) RemoveItem(ctx context.Context, id string) error {
	item, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.producer.Publish(ctx, item.UserID, kafka.ActivityEvent{
		Type:      kafka.EventCartItemRemoved,
		UserID:    item.UserID,
		ProductID: item.ProductID,
	})
	return nil
}

// ClearCart deletes every line for the user. Clearing an empty cart is fine.
func (s *Service) ClearCart(ctx context.Context, userID string) error {
	return s.store.DeleteByUser(ctx, userID)
}

// GetItems returns the user's cart lines with products hydrated for display
func (s *Service) GetItems(ctx context.Context, userID string) ([]*Item, error) {
	items, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		product, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				continue
			}
			return nil, err
		}
		item.Product = product
	}
	return items, nil
}

// ItemCount returns the number of distinct lines in the user's cart, not
// the summed quantities. Two lines with quantities 3 and 5 count as 2.
func (s *Service) ItemCount(ctx context.Context, userID string) (int, error) {
	return s.store.CountByUser(ctx, userID)
}
