package postgres

import (
	"context"

	domain "github.com/Zhima-Mochi/minishop-checkout/internal/domain/cart"
	dominv "github.com/Zhima-Mochi/minishop-checkout/internal/domain/inventory"
)

type cartRepository struct {
	q querier
}

func (r cartRepository) Upsert(ctx context.Context, line domain.Line) (bool, error) {
	var created bool
	err := r.q.QueryRow(ctx, `
INSERT INTO cart_lines (buyer_id, product_id, quantity) VALUES ($1, $2, $3)
ON CONFLICT (buyer_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity
RETURNING (xmax = 0)`, line.BuyerID, line.ProductID, line.Quantity).Scan(&created)
	return created, err
}

func (r cartRepository) Delete(ctx context.Context, buyerID, productID int64) error {
	tag, err := r.q.Exec(ctx,
		`DELETE FROM cart_lines WHERE buyer_id = $1 AND product_id = $2`, buyerID, productID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLineNotFound
	}
	return nil
}

func (r cartRepository) Positions(ctx context.Context, buyerID int64) ([]domain.Position, error) {
	rows, err := r.q.Query(ctx, `
SELECT c.product_id, c.quantity, s.price::text, s.quantity, s.status, s.updated_at
FROM cart_lines c
JOIN product_stock s ON s.product_id = c.product_id
WHERE c.buyer_id = $1
ORDER BY c.product_id`, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	positions := []domain.Position{}
	for rows.Next() {
		var (
			p      domain.Position
			price  string
			status string
		)
		if err := rows.Scan(&p.ProductID, &p.Quantity, &price, &p.Stock.Quantity, &status, &p.Stock.UpdatedAt); err != nil {
			return nil, err
		}
		if p.Stock.Price, err = parsePrice(price); err != nil {
			return nil, err
		}
		p.BuyerID = buyerID
		p.Stock.ProductID = p.ProductID
		p.Stock.Status = dominv.Status(status)
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

func (r cartRepository) SetQuantity(ctx context.Context, buyerID, productID int64, quantity int) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE cart_lines SET quantity = $3 WHERE buyer_id = $1 AND product_id = $2`,
		buyerID, productID, quantity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLineNotFound
	}
	return nil
}

func (r cartRepository) Clear(ctx context.Context, buyerID int64) error {
	_, err := r.q.Exec(ctx, `DELETE FROM cart_lines WHERE buyer_id = $1`, buyerID)
	return err
}
