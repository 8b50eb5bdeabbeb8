package catalog

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/example/shopease-backend/internal/infrastructure/cache"
	"github.com/example/shopease-backend/internal/infrastructure/kafka"
	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("product not found")
	ErrInvalidPrice     = errors.New("price must be greater than 0")
	ErrNameRequired     = errors.New("product name is required")
	ErrCategoryRequired = errors.New("product category is required")
	ErrInvalidSortField = errors.New("unknown sort field")
)

// sortColumns whitelists the sortable fields for ListActive. Anything else
// is a caller error, never a silent fallback.
var sortColumns = map[string]string{
	"name":          "name",
	"price":         "price_cents",
	"createdAt":     "created_at",
	"rating":        "average_rating",
	"stockQuantity": "stock_quantity",
}

// Store is the persistence contract for the catalog
type Store interface {
	Insert(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	ListActive(ctx context.Context, page, pageSize int, sortColumn string, descending bool) ([]*Product, error)
	Search(ctx context.Context, term string, page, pageSize int) ([]*Product, error)
	ByCategory(ctx context.Context, category string, page, pageSize int) ([]*Product, error)
	ByPriceRange(ctx context.Context, minCents, maxCents int64) ([]*Product, error)
	Featured(ctx context.Context, limit int) ([]*Product, error)
	Categories(ctx context.Context) ([]string, error)
	LowStock(ctx context.Context, threshold int) ([]*Product, error)
	SoftDelete(ctx context.Context, id string) error
	DecrementStock(ctx context.Context, id string, qty int) (bool, error)
	IncrementStock(ctx context.Context, id string, qty int) error
	StockQuantity(ctx context.Context, id string) (int, error)
	SetRating(ctx context.Context, id string, rating float64, reviewCount int) error
}

const (
	cacheKeyFeatured   = "catalog:featured"
	cacheKeyCategories = "catalog:categories"
	cacheTTL           = 5 * time.Minute
)

// Service implements the catalog query surface and stock operations.
// Cache and producer may be nil; they are read-through/best-effort only.
type Service struct {
	store    Store
	cache    *cache.Cache
	producer *kafka.Producer
}

func NewService(store Store, c *cache.Cache, producer *kafka.Producer) *Service {
	return &Service{store: store, cache: c, producer: producer}
}

// Create validates and stores a new product
func (s *Service) Create(ctx context.Context, p *Product) (*Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	p.ID = uuid.New().String()
	p.IsActive = true
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	for i := range p.Images {
		if p.Images[i].ID == "" {
			p.Images[i].ID = uuid.New().String()
		}
	}

	if err := s.store.Insert(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return p, nil
}

// Update overwrites an existing product's catalog fields
func (s *Service) Update(ctx context.Context, p *Product) (*Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	existing, err := s.store.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	p.IsActive = existing.IsActive
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now()

	for i := range p.Images {
		if p.Images[i].ID == "" {
			p.Images[i].ID = uuid.New().String()
		}
	}

	if err := s.store.Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return p, nil
}

// GetByID returns the product regardless of its active flag, so order
// history can still resolve soft-deleted products.
func (s *Service) GetByID(ctx context.Context, id string) (*Product, error) {
	return s.store.GetByID(ctx, id)
}

// ListActive returns a page of active products ordered by the given field.
// An unknown sort field fails fast.
func (s *Service) ListActive(ctx context.Context, page, pageSize int, sortField, sortDir string) ([]*Product, error) {
	column, ok := sortColumns[sortField]
	if !ok {
		return nil, ErrInvalidSortField
	}
	return s.store.ListActive(ctx, page, pageSize, column, sortDir == "desc")
}

// Search matches the term case-insensitively against name, description and
// category of active products. No relevance ranking.
func (s *Service) Search(ctx context.Context, term string, page, pageSize int) ([]*Product, error) {
	return s.store.Search(ctx, term, page, pageSize)
}

// ByCategory returns a page of active products in the category
func (s *Service) ByCategory(ctx context.Context, category string, page, pageSize int) ([]*Product, error) {
	return s.store.ByCategory(ctx, category, page, pageSize)
}

// ByPriceRange returns active products priced within [minCents, maxCents]
func (s *Service) ByPriceRange(ctx context.Context, minCents, maxCents int64) ([]*Product, error) {
	return s.store.ByPriceRange(ctx, minCents, maxCents)
}

// Featured returns the top rated active products, rating then review count
// descending. Served from cache when warm.
func (s *Service) Featured(ctx context.Context, limit int) ([]*Product, error) {
	var cached []*Product
	if s.cache.GetJSON(ctx, cacheKeyFeatured, &cached) && len(cached) >= limit {
		return cached[:limit], nil
	}

	products, err := s.store.Featured(ctx, limit)
	if err != nil {
		return nil, err
	}
	s.cache.SetJSON(ctx, cacheKeyFeatured, products, cacheTTL)
	return products, nil
}

// Categories returns the distinct categories of active products
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	var cached []string
	if s.cache.GetJSON(ctx, cacheKeyCategories, &cached) {
		return cached, nil
	}

	categories, err := s.store.Categories(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetJSON(ctx, cacheKeyCategories, categories, cacheTTL)
	return categories, nil
}

// LowStock returns active products with stock below the threshold
func (s *Service) LowStock(ctx context.Context, threshold int) ([]*Product, error) {
	return s.store.LowStock(ctx, threshold)
}

// SoftDelete hides the product from catalog reads. Idempotent; the row
// stays retrievable by id.
func (s *Service) SoftDelete(ctx context.Context, id string) error {
	if err := s.store.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// UpdateStock decrements stock by qty if enough is available. Insufficient
// stock (or a missing product) is reported as false, not as an error, and
// leaves the row untouched.
func (s *Service) UpdateStock(ctx context.Context, productID string, qty int) (bool, error) {
	ok, err := s.store.DecrementStock(ctx, productID, qty)
	if err != nil {
		return false, err
	}
	if ok {
		s.producer.Publish(ctx, productID, kafka.ActivityEvent{
			Type:      kafka.EventStockChanged,
			ProductID: productID,
			Quantity:  -qty,
		})
	}
	return ok, nil
}

// RestoreStock returns qty to the product, undoing decrements taken by a
// checkout that later aborted.
func (s *Service) RestoreStock(ctx context.Context, productID string, qty int) error {
	if err := s.store.IncrementStock(ctx, productID, qty); err != nil {
		return err
	}
	s.producer.Publish(ctx, productID, kafka.ActivityEvent{
		Type:      kafka.EventStockChanged,
		ProductID: productID,
		Quantity:  qty,
	})
	return nil
}

// IsInStock reports whether the product exists and has at least qty in stock
func (s *Service) IsInStock(ctx context.Context, productID string, qty int) (bool, error) {
	stock, err := s.store.StockQuantity(ctx, productID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return stock >= qty, nil
}

// Stock returns the product's current stock quantity
func (s *Service) Stock(ctx context.Context, productID string) (int, error) {
	return s.store.StockQuantity(ctx, productID)
}

// UpdateRating stores a recomputed average rating and review count
func (s *Service) UpdateRating(ctx context.Context, productID string, rating float64, reviewCount int) error {
	if err := s.store.SetRating(ctx, productID, rating, reviewCount); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	s.cache.Delete(ctx, cacheKeyFeatured, cacheKeyCategories)
}

func validateProduct(p *Product) error {
	if p.Name == "" {
		return ErrNameRequired
	}
	if p.Category == "" {
		return ErrCategoryRequired
	}
	if p.PriceCents <= 0 {
		return ErrInvalidPrice
	}

	primaries := 0
	for _, img := range p.Images {
		if img.IsPrimary {
			primaries++
		}
	}
	if primaries > 1 {
		log.Printf("[Catalog] Product %q has %d primary images, keeping the first", p.Name, primaries)
		seen := false
		for i := range p.Images {
			if p.Images[i].IsPrimary {
				if seen {
					p.Images[i].IsPrimary = false
				}
				seen = true
			}
		}
	}
	return nil
}
