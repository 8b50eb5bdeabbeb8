package order

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore implements Store on top of PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create writes the order and its lines in one transaction
func (s *PostgresStore) Create(ctx context.Context, o *Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, total_cents, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, o.ID, o.UserID, o.TotalCents, o.Status, o.CreatedAt)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range o.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, product_name, product_image, price_cents, quantity, selected_size, selected_color)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, item.ID, item.OrderID, item.ProductID, item.ProductName, item.ProductImage,
			item.PriceCents, item.Quantity, item.SelectedSize, item.SelectedColor)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return tx.Commit()
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (*Order, error) {
	var o Order
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, total_cents, status, created_at FROM orders WHERE id = $1
	`, id).Scan(&o.ID, &o.UserID, &o.TotalCents, &o.Status, &o.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := s.loadItems(ctx, []*Order{&o}); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]*Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, total_cents, status, created_at
		FROM orders WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.TotalCents, &o.Status, &o.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *PostgresStore) loadItems(ctx context.Context, orders []*Order) error {
	for _, o := range orders {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, order_id, product_id, product_name, product_image, price_cents, quantity, selected_size, selected_color
			FROM order_items WHERE order_id = $1
		`, o.ID)
		if err != nil {
			return fmt.Errorf("load order items: %w", err)
		}
		for rows.Next() {
			var item OrderItem
			if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.ProductImage,
				&item.PriceCents, &item.Quantity, &item.SelectedSize, &item.SelectedColor); err != nil {
				rows.Close()
				return err
			}
			o.Items = append(o.Items, &item)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()
	}
	return nil
}
