package order

import "time"

const StatusPlaced = "placed"

// Order is an immutable purchase record. Items snapshot the product name,
// image and price at purchase time, so later catalog edits never rewrite
// history.
type Order struct {
	ID         string       `json:"id"`
	UserID     string       `json:"user_id"`
	TotalCents int64        `json:"total_cents"`
	Status     string       `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	Items      []*OrderItem `json:"items"`
}

// OrderItem is one purchased line, decoupled from the live product row
type OrderItem struct {
	ID            string  `json:"id"`
	OrderID       string  `json:"order_id"`
	ProductID     string  `json:"product_id"`
	ProductName   string  `json:"product_name"`
	ProductImage  string  `json:"product_image,omitempty"`
	PriceCents    int64   `json:"price_cents"`
	Quantity      int     `json:"quantity"`
	SelectedSize  *string `json:"selected_size,omitempty"`
	SelectedColor *string `json:"selected_color,omitempty"`
}
