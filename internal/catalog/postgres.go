package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// PostgresStore implements Store on top of PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const productColumns = `id, name, description, price_cents, original_price_cents, stock_quantity,
	category, brand, sku, is_active, average_rating, review_count, created_at, updated_at`

func (s *PostgresStore) Insert(ctx context.Context, p *Product) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, p.ID, p.Name, p.Description, p.PriceCents, p.OriginalPriceCents, p.StockQuantity,
		p.Category, p.Brand, p.SKU, p.IsActive, p.AverageRating, p.ReviewCount, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("insert product: %w", err)
	}

	if err := s.insertAssociations(ctx, tx, p); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (s *PostgresStore) Update(ctx context.Context, p *Product) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE products SET
			name = $2, description = $3, price_cents = $4, original_price_cents = $5,
			stock_quantity = $6, category = $7, brand = $8, sku = $9, updated_at = $10
		WHERE id = $1
	`, p.ID, p.Name, p.Description, p.PriceCents, p.OriginalPriceCents,
		p.StockQuantity, p.Category, p.Brand, p.SKU, p.UpdatedAt)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("update product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		tx.Rollback()
		return ErrNotFound
	}

	// Owned collections are replaced wholesale on update
	for _, table := range []string{"product_images", "product_sizes", "product_colors", "product_specifications"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE product_id = $1", p.ID); err != nil {
			tx.Rollback()
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if err := s.insertAssociations(ctx, tx, p); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (s *PostgresStore) insertAssociations(ctx context.Context, tx *sql.Tx, p *Product) error {
	for _, img := range p.Images {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO product_images (id, product_id, image_url, alt_text, is_primary, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, img.ID, p.ID, img.ImageURL, img.AltText, img.IsPrimary, img.SortOrder)
		if err != nil {
			return fmt.Errorf("insert product image: %w", err)
		}
	}
	for _, size := range p.Sizes {
		if _, err := tx.ExecContext(ctx, `INSERT INTO product_sizes (product_id, label) VALUES ($1, $2)`, p.ID, size); err != nil {
			return fmt.Errorf("insert product size: %w", err)
		}
	}
	for _, color := range p.Colors {
		if _, err := tx.ExecContext(ctx, `INSERT INTO product_colors (product_id, label) VALUES ($1, $2)`, p.ID, color); err != nil {
			return fmt.Errorf("insert product color: %w", err)
		}
	}
	for _, spec := range p.Specifications {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO product_specifications (product_id, spec_key, spec_value) VALUES ($1, $2, $3)
		`, p.ID, spec.Key, spec.Value)
		if err != nil {
			return fmt.Errorf("insert product specification: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (*Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.loadAssociations(ctx, []*Product{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PostgresStore) ListActive(ctx context.Context, page, pageSize int, sortColumn string, descending bool) ([]*Product, error) {
	direction := "ASC"
	if descending {
		direction = "DESC"
	}
	// sortColumn is validated against the whitelist before it gets here
	query := fmt.Sprintf(`SELECT %s FROM products WHERE is_active ORDER BY %s %s LIMIT $1 OFFSET $2`,
		productColumns, sortColumn, direction)

	return s.queryProducts(ctx, query, pageSize, page*pageSize)
}

func (s *PostgresStore) Search(ctx context.Context, term string, page, pageSize int) ([]*Product, error) {
	return s.queryProducts(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE is_active AND (name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%' OR category ILIKE '%' || $1 || '%')
		LIMIT $2 OFFSET $3
	`, term, pageSize, page*pageSize)
}

func (s *PostgresStore) ByCategory(ctx context.Context, category string, page, pageSize int) ([]*Product, error) {
	return s.queryProducts(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE is_active AND category = $1
		LIMIT $2 OFFSET $3
	`, category, pageSize, page*pageSize)
}

func (s *PostgresStore) ByPriceRange(ctx context.Context, minCents, maxCents int64) ([]*Product, error) {
	return s.queryProducts(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE is_active AND price_cents BETWEEN $1 AND $2
	`, minCents, maxCents)
}

func (s *PostgresStore) Featured(ctx context.Context, limit int) ([]*Product, error) {
	return s.queryProducts(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE is_active
		ORDER BY average_rating DESC, review_count DESC, id
		LIMIT $1
	`, limit)
}

func (s *PostgresStore) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT category FROM products WHERE is_active ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *PostgresStore) LowStock(ctx context.Context, threshold int) ([]*Product, error) {
	return s.queryProducts(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE is_active AND stock_quantity < $1
		ORDER BY stock_quantity
	`, threshold)
}

// SoftDelete flips the active flag. Re-deleting an inactive product is a
// no-op, not an error.
func (s *PostgresStore) SoftDelete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("soft delete product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DecrementStock atomically subtracts qty when enough stock is available.
// The condition rides in the statement itself, so concurrent decrements
// cannot oversell.
func (s *PostgresStore) DecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET stock_quantity = stock_quantity - $2, updated_at = NOW()
		WHERE id = $1 AND stock_quantity >= $2
	`, id, qty)
	if err != nil {
		return false, fmt.Errorf("decrement stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IncrementStock adds qty back unconditionally
func (s *PostgresStore) IncrementStock(ctx context.Context, id string, qty int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET stock_quantity = stock_quantity + $2, updated_at = NOW()
		WHERE id = $1
	`, id, qty)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) StockQuantity(ctx context.Context, id string) (int, error) {
	var stock int
	err := s.db.QueryRowContext(ctx, `SELECT stock_quantity FROM products WHERE id = $1`, id).Scan(&stock)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return stock, nil
}

func (s *PostgresStore) SetRating(ctx context.Context, id string, rating float64, reviewCount int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET average_rating = $2, review_count = $3, updated_at = NOW() WHERE id = $1
	`, id, rating, reviewCount)
	if err != nil {
		return fmt.Errorf("set rating: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) queryProducts(ctx context.Context, query string, args ...any) ([]*Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadAssociations(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*Product, error) {
	var p Product
	var originalPrice sql.NullInt64
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &originalPrice, &p.StockQuantity,
		&p.Category, &p.Brand, &p.SKU, &p.IsActive, &p.AverageRating, &p.ReviewCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if originalPrice.Valid {
		p.OriginalPriceCents = &originalPrice.Int64
	}
	return &p, nil
}

// loadAssociations fetches images, sizes, colors and specifications for a
// batch of products in four queries instead of four per product.
func (s *PostgresStore) loadAssociations(ctx context.Context, products []*Product) error {
	if len(products) == 0 {
		return nil
	}

	byID := make(map[string]*Product, len(products))
	ids := make([]string, 0, len(products))
	for _, p := range products {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, id, image_url, alt_text, is_primary, sort_order
		FROM product_images WHERE product_id = ANY($1) ORDER BY sort_order
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load images: %w", err)
	}
	for rows.Next() {
		var productID string
		var img Image
		if err := rows.Scan(&productID, &img.ID, &img.ImageURL, &img.AltText, &img.IsPrimary, &img.SortOrder); err != nil {
			rows.Close()
			return err
		}
		byID[productID].Images = append(byID[productID].Images, img)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `SELECT product_id, label FROM product_sizes WHERE product_id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load sizes: %w", err)
	}
	for rows.Next() {
		var productID, label string
		if err := rows.Scan(&productID, &label); err != nil {
			rows.Close()
			return err
		}
		byID[productID].Sizes = append(byID[productID].Sizes, label)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `SELECT product_id, label FROM product_colors WHERE product_id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load colors: %w", err)
	}
	for rows.Next() {
		var productID, label string
		if err := rows.Scan(&productID, &label); err != nil {
			rows.Close()
			return err
		}
		byID[productID].Colors = append(byID[productID].Colors, label)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `SELECT product_id, spec_key, spec_value FROM product_specifications WHERE product_id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load specifications: %w", err)
	}
	for rows.Next() {
		var productID string
		var spec Specification
		if err := rows.Scan(&productID, &spec.Key, &spec.Value); err != nil {
			rows.Close()
			return err
		}
		byID[productID].Specifications = append(byID[productID].Specifications, spec)
	}
	rows.Close()

	return nil
}
