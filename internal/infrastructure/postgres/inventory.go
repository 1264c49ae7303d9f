package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	domain "github.com/Zhima-Mochi/minishop-checkout/internal/domain/inventory"
)

type inventoryRepository struct {
	q querier
}

const stockColumns = `product_id, price::text, quantity, status, updated_at`

func scanStock(row pgx.Row) (*domain.Stock, error) {
	var (
		s      domain.Stock
		price  string
		status string
	)
	if err := row.Scan(&s.ProductID, &price, &s.Quantity, &status, &s.UpdatedAt); err != nil {
		return nil, err
	}
	p, err := parsePrice(price)
	if err != nil {
		return nil, err
	}
	s.Price = p
	s.Status = domain.Status(status)
	return &s, nil
}

func (r inventoryRepository) Get(ctx context.Context, productID int64) (*domain.Stock, error) {
	s, err := scanStock(r.q.QueryRow(ctx,
		`SELECT `+stockColumns+` FROM product_stock WHERE product_id = $1`, productID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return s, err
}

// Decrement is one conditional UPDATE so concurrent buyers can never drive stock below zero.
func (r inventoryRepository) Decrement(ctx context.Context, productID int64, amount int) (*domain.Stock, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	s, err := scanStock(r.q.QueryRow(ctx, `
UPDATE product_stock
SET quantity = quantity - $2,
    status = CASE
      WHEN status = 'withdrawn' THEN status
      WHEN quantity - $2 = 0 THEN 'sold'
      ELSE 'in_stock'
    END,
    updated_at = now()
WHERE product_id = $1 AND quantity >= $2
RETURNING `+stockColumns, productID, amount))
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	var exists bool
	if err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM product_stock WHERE product_id = $1)`, productID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}
	return nil, domain.ErrInsufficientStock
}

func (r inventoryRepository) SetWithdrawn(ctx context.Context, productID int64) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE product_stock SET status = 'withdrawn', updated_at = now() WHERE product_id = $1`, productID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r inventoryRepository) Put(ctx context.Context, s *domain.Stock) error {
	if s == nil {
		return nil
	}
	updated := s.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	_, err := r.q.Exec(ctx, `
INSERT INTO product_stock (product_id, price, quantity, status, updated_at)
VALUES ($1, $2::text::numeric, $3, $4, $5)
ON CONFLICT (product_id) DO UPDATE
SET price = EXCLUDED.price, quantity = EXCLUDED.quantity,
    status = CASE WHEN product_stock.status = 'withdrawn' THEN 'withdrawn' ELSE EXCLUDED.status END,
    updated_at = EXCLUDED.updated_at`,
		s.ProductID, s.Price.StringFixed(domain.PricePlaces), s.Quantity, string(s.Status), updated)
	return err
}
