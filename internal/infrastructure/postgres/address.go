package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	domain "github.com/Zhima-Mochi/minishop-checkout/internal/domain/address"
)

type addressRepository struct {
	q querier
}

const addressColumns = `id, buyer_id, city, street, house, building, apartment, is_active`

func scanAddress(row pgx.Row) (*domain.Address, error) {
	var a domain.Address
	err := row.Scan(&a.ID, &a.BuyerID, &a.City, &a.Street, &a.House, &a.Building, &a.Apartment, &a.IsActive)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r addressRepository) Get(ctx context.Context, id int64) (*domain.Address, error) {
	a, err := scanAddress(r.q.QueryRow(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return a, err
}

func (r addressRepository) FindByFields(ctx context.Context, buyerID int64, f domain.Fields) (*domain.Address, error) {
	a, err := scanAddress(r.q.QueryRow(ctx, `
SELECT `+addressColumns+` FROM addresses
WHERE buyer_id = $1 AND city = $2 AND street = $3 AND house = $4 AND building = $5 AND apartment = $6
FOR UPDATE`, buyerID, f.City, f.Street, f.House, f.Building, f.Apartment))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return a, err
}

func (r addressRepository) ListActive(ctx context.Context, buyerID int64) ([]*domain.Address, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE buyer_id = $1 AND is_active ORDER BY id`, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Address{}
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// LockBuyer takes a transaction-scoped advisory lock keyed by the buyer.
func (r addressRepository) LockBuyer(ctx context.Context, buyerID int64) error {
	_, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, buyerID)
	return err
}

func (r addressRepository) CountActive(ctx context.Context, buyerID int64) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT count(*) FROM addresses WHERE buyer_id = $1 AND is_active`, buyerID).Scan(&n)
	return n, err
}

func (r addressRepository) Insert(ctx context.Context, a *domain.Address) error {
	err := r.q.QueryRow(ctx, `
INSERT INTO addresses (buyer_id, city, street, house, building, apartment, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`, a.BuyerID, a.City, a.Street, a.House, a.Building, a.Apartment, a.IsActive).Scan(&a.ID)
	if isUniqueViolation(err) {
		return domain.ErrDuplicate
	}
	return err
}

func (r addressRepository) Update(ctx context.Context, a *domain.Address) error {
	tag, err := r.q.Exec(ctx, `
UPDATE addresses
SET city = $2, street = $3, house = $4, building = $5, apartment = $6, is_active = $7
WHERE id = $1`, a.ID, a.City, a.Street, a.House, a.Building, a.Apartment, a.IsActive)
	if isUniqueViolation(err) {
		return domain.ErrDuplicate
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r addressRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM addresses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
