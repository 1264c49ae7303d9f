package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	domain "github.com/Zhima-Mochi/minishop-checkout/internal/domain/order"
)

type orderRepository struct {
	q querier
}

const orderColumns = `id, buyer_id, address_id, first_name, last_name, middle_name, email, phone,
status, created_at, updated_at, delivered_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o      domain.Order
		status string
	)
	err := row.Scan(&o.ID, &o.BuyerID, &o.AddressID,
		&o.FirstName, &o.LastName, &o.MiddleName, &o.Email, &o.Phone,
		&status, &o.CreatedAt, &o.UpdatedAt, &o.DeliveredAt)
	if err != nil {
		return nil, err
	}
	o.Status = domain.Status(status)
	return &o, nil
}

func (r orderRepository) Insert(ctx context.Context, o *domain.Order) error {
	if o == nil {
		return fmt.Errorf("order repository: order is required")
	}
	err := r.q.QueryRow(ctx, `
INSERT INTO orders (buyer_id, address_id, first_name, last_name, middle_name, email, phone,
                    status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id`,
		o.BuyerID, o.AddressID, o.FirstName, o.LastName, o.MiddleName, o.Email, o.Phone,
		string(o.Status), o.CreatedAt, o.UpdatedAt).Scan(&o.ID)
	if err != nil {
		return err
	}
	for i := range o.Lines {
		o.Lines[i].OrderID = o.ID
	}
	return nil
}

func (r orderRepository) InsertLines(ctx context.Context, orderID int64, lines []domain.Line) error {
	batch := &pgx.Batch{}
	for _, l := range lines {
		batch.Queue(`INSERT INTO order_lines (order_id, product_id, price, quantity)
VALUES ($1, $2, $3::text::numeric, $4)`,
			orderID, l.ProductID, l.Price.StringFixed(domain.PricePlaces), l.Quantity)
	}
	if batch.Len() == 0 {
		return nil
	}
	return sendBatch(ctx, r.q, batch)
}

func (r orderRepository) Get(ctx context.Context, id int64) (*domain.Order, error) {
	o, err := scanOrder(r.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.attachLines(ctx, []*domain.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r orderRepository) ListByBuyer(ctx context.Context, buyerID int64, day *domain.DayFilter) ([]*domain.Order, error) {
	var from, to *time.Time
	if day != nil {
		from, to = &day.From, &day.To
	}
	rows, err := r.q.Query(ctx, `
SELECT `+orderColumns+` FROM orders
WHERE buyer_id = $1
  AND ($2::timestamptz IS NULL OR created_at >= $2)
  AND ($3::timestamptz IS NULL OR created_at < $3)
ORDER BY created_at DESC, id DESC`, buyerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachLines(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r orderRepository) UpdateStatus(ctx context.Context, o *domain.Order) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = $3, delivered_at = $4 WHERE id = $1`,
		o.ID, string(o.Status), o.UpdatedAt, o.DeliveredAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r orderRepository) ReferencesAddress(ctx context.Context, addressID int64) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE address_id = $1)`, addressID).Scan(&exists)
	return exists, err
}

func (r orderRepository) attachLines(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[int64]*domain.Order, len(orders))
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	rows, err := r.q.Query(ctx, `
SELECT order_id, product_id, price::text, quantity FROM order_lines
WHERE order_id = ANY($1)
ORDER BY order_id, product_id`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l     domain.Line
			price string
		)
		if err := rows.Scan(&l.OrderID, &l.ProductID, &price, &l.Quantity); err != nil {
			return err
		}
		if l.Price, err = parsePrice(price); err != nil {
			return err
		}
		if o := byID[l.OrderID]; o != nil {
			o.Lines = append(o.Lines, l)
		}
	}
	return rows.Err()
}

func sendBatch(ctx context.Context, q querier, batch *pgx.Batch) error {
	br := q.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return err
		}
	}
	return br.Close()
}
