package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// ConnectPostgres creates a connection pool to PostgreSQL
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate creates the schema if it does not exist yet
func Migrate(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			first_name    TEXT NOT NULL,
			last_name     TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			phone_number  TEXT NOT NULL DEFAULT '',
			role          TEXT NOT NULL DEFAULT 'customer',
			is_active     BOOLEAN NOT NULL DEFAULT TRUE,
			created_at    TIMESTAMPTZ NOT NULL,
			updated_at    TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS addresses (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			type         TEXT NOT NULL DEFAULT 'home',
			first_name   TEXT NOT NULL,
			last_name    TEXT NOT NULL,
			street       TEXT NOT NULL,
			city         TEXT NOT NULL,
			state        TEXT NOT NULL,
			zip_code     TEXT NOT NULL,
			phone_number TEXT NOT NULL DEFAULT '',
			is_default   BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id                   TEXT PRIMARY KEY,
			name                 TEXT NOT NULL,
			description          TEXT NOT NULL DEFAULT '',
			price_cents          BIGINT NOT NULL CHECK (price_cents > 0),
			original_price_cents BIGINT,
			stock_quantity       INTEGER NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
			category             TEXT NOT NULL,
			brand                TEXT NOT NULL DEFAULT '',
			sku                  TEXT NOT NULL DEFAULT '',
			is_active            BOOLEAN NOT NULL DEFAULT TRUE,
			average_rating       DOUBLE PRECISION NOT NULL DEFAULT 0,
			review_count         INTEGER NOT NULL DEFAULT 0,
			created_at           TIMESTAMPTZ NOT NULL,
			updated_at           TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_category ON products(category) WHERE is_active`,
		`CREATE TABLE IF NOT EXISTS product_images (
			id         TEXT PRIMARY KEY,
			product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
			image_url  TEXT NOT NULL,
			alt_text   TEXT NOT NULL DEFAULT '',
			is_primary BOOLEAN NOT NULL DEFAULT FALSE,
			sort_order INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS product_sizes (
			product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
			label      TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS product_colors (
			product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
			label      TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS product_specifications (
			product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
			spec_key   TEXT NOT NULL,
			spec_value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS cart_items (
			id             TEXT PRIMARY KEY,
			user_id        TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			product_id     TEXT NOT NULL REFERENCES products(id),
			quantity       INTEGER NOT NULL CHECK (quantity > 0),
			selected_size  TEXT,
			selected_color TEXT,
			created_at     TIMESTAMPTZ NOT NULL,
			updated_at     TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cart_items_user ON cart_items(user_id)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL REFERENCES users(id),
			total_cents BIGINT NOT NULL,
			status      TEXT NOT NULL DEFAULT 'placed',
			created_at  TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			id             TEXT PRIMARY KEY,
			order_id       TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			product_id     TEXT NOT NULL,
			product_name   TEXT NOT NULL,
			product_image  TEXT NOT NULL DEFAULT '',
			price_cents    BIGINT NOT NULL,
			quantity       INTEGER NOT NULL,
			selected_size  TEXT,
			selected_color TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
