package cart

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostgresStore implements Store on top of PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const itemColumns = `id, user_id, product_id, quantity, selected_size, selected_color, created_at, updated_at`

// AddLine merges into the line matching the (user, product, size, color)
// tuple or inserts a new one. The lookup and the write share one
// transaction so two concurrent adds for the same tuple cannot both insert.
// IS NOT DISTINCT FROM makes two NULL variants compare equal.
func (s *PostgresStore) AddLine(ctx context.Context, item *Item) (*Item, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	var existingID string
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM cart_items
		WHERE user_id = $1 AND product_id = $2
		  AND selected_size IS NOT DISTINCT FROM $3
		  AND selected_color IS NOT DISTINCT FROM $4
		FOR UPDATE
	`, item.UserID, item.ProductID, item.SelectedSize, item.SelectedColor).Scan(&existingID)

	switch {
	case err == sql.ErrNoRows:
		now := time.Now()
		line := &Item{
			ID:            uuid.New().String(),
			UserID:        item.UserID,
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			SelectedSize:  item.SelectedSize,
			SelectedColor: item.SelectedColor,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO cart_items (`+itemColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, line.ID, line.UserID, line.ProductID, line.Quantity, line.SelectedSize, line.SelectedColor, line.CreatedAt, line.UpdatedAt)
		if err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("insert cart line: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		return line, nil

	case err != nil:
		tx.Rollback()
		return nil, fmt.Errorf("find cart line: %w", err)
	}

	row := tx.QueryRowContext(ctx, `
		UPDATE cart_items SET quantity = quantity + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+itemColumns+`
	`, existingID, item.Quantity)
	line, err := scanItem(row)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("merge cart line: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return line, nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM cart_items WHERE id = $1`, id)
	item, err := scanItem(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s *PostgresStore) SetQuantity(ctx context.Context, id string, quantity int) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE cart_items SET quantity = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+itemColumns+`
	`, id, quantity)
	item, err := scanItem(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("set cart quantity: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteByUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]*Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+itemColumns+` FROM cart_items WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *PostgresStore) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cart_items WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count cart: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*Item, error) {
	var item Item
	err := row.Scan(&item.ID, &item.UserID, &item.ProductID, &item.Quantity,
		&item.SelectedSize, &item.SelectedColor, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
