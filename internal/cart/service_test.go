package cart

import (
	"context"
	"testing"

	"github.com/example/shopease-backend/internal/catalog"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore implements Store in memory with the same reconciliation contract
// as the Postgres store: AddLine merges on the exact
// (user, product, size, color) tuple, nil compared as nil.
type memStore struct {
	items map[string]*Item
}

func newMemStore() *memStore {
	return &memStore{items: make(map[string]*Item)}
}

func sameVariant(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (m *memStore) AddLine(ctx context.Context, item *Item) (*Item, error) {
	for _, existing := range m.items {
		if existing.UserID == item.UserID && existing.ProductID == item.ProductID &&
			sameVariant(existing.SelectedSize, item.SelectedSize) &&
			sameVariant(existing.SelectedColor, item.SelectedColor) {
			existing.Quantity += item.Quantity
			return existing, nil
		}
	}
	line := *item
	line.ID = uuid.New().String()
	m.items[line.ID] = &line
	return &line, nil
}

func (m *memStore) GetByID(ctx context.Context, id string) (*Item, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return item, nil
}

func (m *memStore) SetQuantity(ctx context.Context, id string, quantity int) (*Item, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	item.Quantity = quantity
	return item, nil
}

func (m *memStore) Delete(ctx context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memStore) DeleteByUser(ctx context.Context, userID string) error {
	for id, item := range m.items {
		if item.UserID == userID {
			delete(m.items, id)
		}
	}
	return nil
}

func (m *memStore) ListByUser(ctx context.Context, userID string) ([]*Item, error) {
	var items []*Item
	for _, item := range m.items {
		if item.UserID == userID {
			items = append(items, item)
		}
	}
	return items, nil
}

func (m *memStore) CountByUser(ctx context.Context, userID string) (int, error) {
	count := 0
	for _, item := range m.items {
		if item.UserID == userID {
			count++
		}
	}
	return count, nil
}

type stubProducts struct {
	known map[string]*catalog.Product
}

func (s *stubProducts) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	p, ok := s.known[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return p, nil
}

type stubUsers struct {
	known map[string]bool
}

func (s *stubUsers) Exists(ctx context.Context, userID string) (bool, error) {
	return s.known[userID], nil
}

func strp(s string) *string { return &s }

func newTestCartService() (*Service, *memStore) {
	store := newMemStore()
	products := &stubProducts{known: map[string]*catalog.Product{
		"prod-1": {ID: "prod-1", Name: "T-Shirt", PriceCents: 1999},
		"prod-2": {ID: "prod-2", Name: "Headphones", PriceCents: 7999},
	}}
	users := &stubUsers{known: map[string]bool{"user-1": true}}
	return NewService(store, products, users, nil), store
}

func TestAddToCart_NewLine(t *testing.T) {
	service, _ := newTestCartService()
	ctx := context.Background()

	item, err := service.AddToCart(ctx, "user-1", "prod-1", 3, strp("M"), strp("Black"))

	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, 3, item.Quantity)
	assert.Equal(t, "M", *item.SelectedSize)
	assert.Equal(t, "Black", *item.SelectedColor)
}

func TestAddToCart_MergesSameVariant(t *testing.T) {
	service, store := newTestCartService()
	ctx := context.Background()

	first, err := service.AddToCart(ctx, "user-1", "prod-1", 3, strp("M"), strp("Black"))
	require.NoError(t, err)

	second, err := service.AddToCart(ctx, "user-1", "prod-1", 5, strp("M"), strp("Black"))
	require.NoError(t, err)

	// Exactly one line with quantity q1+q2
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 8, second.Quantity)
	assert.Len(t, store.items, 1)
}

func TestAddToCart_MergesNilVariant(t *testing.T) {
	service, store := newTestCartService()
	ctx := context.Background()

	_, err := service.AddToCart(ctx, "user-1", "prod-2", 1, nil, nil)
	require.NoError(t, err)
	item, err := service.AddToCart(ctx, "user-1", "prod-2", 2, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, item.Quantity)
	assert.Len(t, store.items, 1)
}

func TestAddToCart_DistinctVariantsMakeDistinctLines(t *testing.T) {
	service, store := newTestCartService()
	ctx := context.Background()

	tests := []struct {
		name  string
		size  *string
		color *string
	}{
		{"different size", strp("L"), strp("Black")},
		{"different color", strp("M"), strp("White")},
		{"nil size", nil, strp("Black")},
		{"nil color", strp("M"), nil},
	}

	_, err := service.AddToCart(ctx, "user-1", "prod-1", 1, strp("M"), strp("Black"))
	require.NoError(t, err)

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.AddToCart(ctx, "user-1", "prod-1", 1, tt.size, tt.color)
			require.NoError(t, err)
			assert.Len(t, store.items, i+2)
		})
	}
}

func TestAddToCart_InvalidQuantity(t *testing.T) {
	service, _ := newTestCartService()
	ctx := context.Background()

	for _, qty := range []int{0, -1} {
		_, err := service.AddToCart(ctx, "user-1", "prod-1", qty, nil, nil)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}
}

func TestAddToCart_UnknownUser(t *testing.T) {
	service, _ := newTestCartService()

	_, err := service.AddToCart(context.Background(), "nobody", "prod-1", 1, nil, nil)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAddToCart_UnknownProduct(t *testing.T) {
	service, _ := newTestCartService()

	_, err := service.AddToCart(context.Background(), "user-1", "prod-999", 1, nil, nil)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestUpdateItem_OverwritesQuantity(t *testing.T) {
	service, _ := newTestCartService()
	ctx := context.Background()

	added, err := service.AddToCart(ctx, "user-1", "prod-1", 3, nil, nil)
	require.NoError(t, err)

	item, removed, err := service.UpdateItem(ctx, added.ID, 7)

	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, 7, item.Quantity)
}

func TestUpdateItem_ZeroOrNegativeDeletes(t *testing.T) {
	service, store := newTestCartService()
	ctx := context.Background()

	for _, qty := range []int{0, -2} {
		added, err := service.AddToCart(ctx, "user-1", "prod-1", 3, nil, nil)
		require.NoError(t, err)

		item, removed, err := service.UpdateItem(ctx, added.ID, qty)

		require.NoError(t, err)
		assert.True(t, removed)
		assert.Nil(t, item)

		// The line is gone for good
		_, err = store.GetByID(ctx, added.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	}
}

func TestUpdateItem_NotFound(t *testing.T) {
	service, _ := newTestCartService()

	_, _, err := service.UpdateItem(context.Background(), "missing-id", 2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveItem(t *testing.T) {
	service, store := newTestCartService()
	ctx := context.Background()

	added, err := service.AddToCart(ctx, "user-1", "prod-1", 1, nil, nil)
	require.NoError(t, err)

	require.NoError(t, service.RemoveItem(ctx, added.ID))
	assert.Empty(t, store.items)

	assert.ErrorIs(t, service.RemoveItem(ctx, added.ID), ErrNotFound)
}

func TestClearCart(t *testing.T) {
	service, store := newTestCartService()
	ctx := context.Background()

	_, err := service.AddToCart(ctx, "user-1", "prod-1", 1, nil, nil)
	require.NoError(t, err)
	_, err = service.AddToCart(ctx, "user-1", "prod-2", 2, nil, nil)
	require.NoError(t, err)

	require.NoError(t, service.ClearCart(ctx, "user-1"))
	assert.Empty(t, store.items)

	// Clearing an empty cart is not an error
	require.NoError(t, service.ClearCart(ctx, "user-1"))
}

func TestItemCount_CountsLinesNotQuantities(t *testing.T) {
	service, _ := newTestCartService()
	ctx := context.Background()

	_, err := service.AddToCart(ctx, "user-1", "prod-1", 3, nil, nil)
	require.NoError(t, err)
	_, err = service.AddToCart(ctx, "user-1", "prod-2", 5, nil, nil)
	require.NoError(t, err)

	count, err := service.ItemCount(ctx, "user-1")

	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestGetItems_HydratesProducts(t *testing.T) {
	service, _ := newTestCartService()
	ctx := context.Background()

	_, err := service.AddToCart(ctx, "user-1", "prod-1", 1, nil, nil)
	require.NoError(t, err)

	items, err := service.GetItems(ctx, "user-1")

	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Product)
	assert.Equal(t, "T-Shirt", items[0].Product.Name)
}
