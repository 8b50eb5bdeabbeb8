package catalog

import "time"

// Product is a catalog entry. Prices are integer cents. Images, sizes,
// colors and specifications are owned by the product and deleted with it.
type Product struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Description        string          `json:"description"`
	PriceCents         int64           `json:"price_cents"`
	OriginalPriceCents *int64          `json:"original_price_cents,omitempty"`
	StockQuantity      int             `json:"stock_quantity"`
	Category           string          `json:"category"`
	Brand              string          `json:"brand,omitempty"`
	SKU                string          `json:"sku,omitempty"`
	IsActive           bool            `json:"is_active"`
	AverageRating      float64         `json:"average_rating"`
	ReviewCount        int             `json:"review_count"`
	Sizes              []string        `json:"sizes,omitempty"`
	Colors             []string        `json:"colors,omitempty"`
	Specifications     []Specification `json:"specifications,omitempty"`
	Images             []Image         `json:"images,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// Image is a product image. At most one image per product is primary.
type Image struct {
	ID        string `json:"id"`
	ImageURL  string `json:"image_url"`
	AltText   string `json:"alt_text,omitempty"`
	IsPrimary bool   `json:"is_primary"`
	SortOrder int    `json:"sort_order"`
}

// Specification is a key/value spec pair shown on the product page.
type Specification struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// MainImageURL returns the primary image URL, falling back to the first
// image when none is flagged primary. Empty string when there are no images.
func (p *Product) MainImageURL() string {
	for _, img := range p.Images {
		if img.IsPrimary {
			return img.ImageURL
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].ImageURL
	}
	return ""
}
