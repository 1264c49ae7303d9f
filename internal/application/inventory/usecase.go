package inventory

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minishop-checkout/internal/application"
	dominv "github.com/Zhima-Mochi/minishop-checkout/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	inventoryService = "inventory-service"
	useCaseStockGet  = "inventory.get"
	useCaseDecrement = "inventory.decrement"
	useCaseWithdraw  = "inventory.withdraw"
	useCaseStockPut  = "inventory.put"
)

// Ledger exposes stock records: read, atomic decrement and withdrawal.
type Ledger struct {
	uow application.UnitOfWork
	in  application.Instruments
}

func NewLedger(uow application.UnitOfWork, tel observability.Observability) *Ledger {
	return &Ledger{
		uow: uow,
		in:  application.NewInstruments(tel, inventoryService),
	}
}

func (l *Ledger) Get(ctx context.Context, productID int64) (stock *dominv.Stock, err error) {
	ctx, inv := l.in.Begin(ctx, useCaseStockGet, "GetStock", attribute.Int64("product.id", productID))
	defer func() { inv.End(err) }()

	err = l.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		var getErr error
		stock, getErr = tx.Stock().Get(ctx, productID)
		return getErr
	})
	if err != nil {
		if errors.Is(err, dominv.ErrNotFound) {
			return nil, inv.Fail("PRODUCT_NOT_FOUND", err)
		}
		return nil, inv.Fail("REPO_GET_FAILED", application.WrapRepository(err))
	}
	return stock, nil
}

// Decrement removes amount units atomically and returns the quantity left.
func (l *Ledger) Decrement(ctx context.Context, productID int64, amount int) (left int, err error) {
	ctx, inv := l.in.Begin(ctx, useCaseDecrement, "DecrementStock",
		attribute.Int64("product.id", productID),
		attribute.Int("stock.amount", amount),
	)
	defer func() { inv.End(err) }()

	if amount <= 0 {
		return 0, inv.Fail("QUANTITY_INVALID", dominv.ErrInvalidQuantity)
	}
	err = l.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		stock, decErr := tx.Stock().Decrement(ctx, productID, amount)
		if decErr != nil {
			return decErr
		}
		left = stock.Quantity
		return nil
	})
	switch {
	case err == nil:
		inv.With(observability.F("quantity_left", left))
		return left, nil
	case errors.Is(err, dominv.ErrNotFound):
		return 0, inv.Fail("PRODUCT_NOT_FOUND", err)
	case errors.Is(err, dominv.ErrInsufficientStock):
		return 0, inv.Fail("INSUFFICIENT_STOCK", err)
	default:
		return 0, inv.Fail("REPO_DECREMENT_FAILED", application.WrapRepository(err))
	}
}

// Withdraw takes a product off sale regardless of its quantity.
func (l *Ledger) Withdraw(ctx context.Context, productID int64) (err error) {
	ctx, inv := l.in.Begin(ctx, useCaseWithdraw, "WithdrawStock", attribute.Int64("product.id", productID))
	defer func() { inv.End(err) }()

	err = l.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		return tx.Stock().SetWithdrawn(ctx, productID)
	})
	if err != nil {
		if errors.Is(err, dominv.ErrNotFound) {
			return inv.Fail("PRODUCT_NOT_FOUND", err)
		}
		return inv.Fail("REPO_WITHDRAW_FAILED", application.WrapRepository(err))
	}
	return nil
}

// Put seeds or replaces a stock record. The status is derived from the stored
// record, so a withdrawn product stays withdrawn whatever the new quantity.
func (l *Ledger) Put(ctx context.Context, stock *dominv.Stock) (err error) {
	ctx, inv := l.in.Begin(ctx, useCaseStockPut, "PutStock", attribute.Int64("product.id", stock.ProductID))
	defer func() { inv.End(err) }()

	err = l.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		current, getErr := tx.Stock().Get(ctx, stock.ProductID)
		switch {
		case getErr == nil:
			stock.Status = dominv.DeriveStatus(current.Status, stock.Quantity)
		case !errors.Is(getErr, dominv.ErrNotFound):
			return getErr
		}
		return tx.Stock().Put(ctx, stock)
	})
	if err != nil {
		return inv.Fail("REPO_PUT_FAILED", application.WrapRepository(err))
	}
	return nil
}
