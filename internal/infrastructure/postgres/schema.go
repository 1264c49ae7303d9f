package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS product_stock (
  product_id bigint PRIMARY KEY,
  price numeric(10, 2) NOT NULL CHECK (price > 0),
  quantity integer NOT NULL CHECK (quantity >= 0),
  status text NOT NULL,
  updated_at timestamptz NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS cart_lines (
  buyer_id bigint NOT NULL,
  product_id bigint NOT NULL REFERENCES product_stock (product_id) ON DELETE CASCADE,
  quantity integer NOT NULL CHECK (quantity > 0),
  PRIMARY KEY (buyer_id, product_id)
)`,
	`CREATE TABLE IF NOT EXISTS addresses (
  id bigserial PRIMARY KEY,
  buyer_id bigint NOT NULL,
  city text NOT NULL,
  street text NOT NULL,
  house text NOT NULL,
  building text NOT NULL DEFAULT '',
  apartment text NOT NULL DEFAULT '',
  is_active boolean NOT NULL DEFAULT true,
  UNIQUE (buyer_id, city, street, house, building, apartment)
)`,
	`CREATE TABLE IF NOT EXISTS orders (
  id bigserial PRIMARY KEY,
  buyer_id bigint NOT NULL,
  address_id bigint NOT NULL REFERENCES addresses (id),
  first_name text NOT NULL,
  last_name text NOT NULL,
  middle_name text NOT NULL DEFAULT '',
  email text NOT NULL,
  phone text NOT NULL,
  status text NOT NULL,
  created_at timestamptz NOT NULL,
  updated_at timestamptz NOT NULL,
  delivered_at timestamptz
)`,
	`CREATE INDEX IF NOT EXISTS orders_buyer_created_idx ON orders (buyer_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS order_lines (
  order_id bigint NOT NULL REFERENCES orders (id) ON DELETE CASCADE,
  product_id bigint NOT NULL REFERENCES product_stock (product_id),
  price numeric(20, 5) NOT NULL,
  quantity integer NOT NULL CHECK (quantity > 0),
  PRIMARY KEY (order_id, product_id)
)`,
}

// EnsureSchema creates the tables if they are missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: schema: %w", err)
		}
	}
	return nil
}
