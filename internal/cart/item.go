package cart

import (
	"time"

	"github.com/example/shopease-backend/internal/catalog"
)

// Item is one cart line: a product plus the chosen variant and quantity.
// SelectedSize and SelectedColor are nil when the product has no variants;
// two lines belong to the same variant only when both fields match,
// including both being nil.
type Item struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	ProductID     string    `json:"product_id"`
	Quantity      int       `json:"quantity"`
	SelectedSize  *string   `json:"selected_size,omitempty"`
	SelectedColor *string   `json:"selected_color,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Product is hydrated on reads for display; never persisted with the line
	Product *catalog.Product `json:"product,omitempty"`
}
