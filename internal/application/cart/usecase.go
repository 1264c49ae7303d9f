package cart

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minishop-checkout/internal/application"
	domcart "github.com/Zhima-Mochi/minishop-checkout/internal/domain/cart"
	dominv "github.com/Zhima-Mochi/minishop-checkout/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-checkout/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	cartService       = "cart-service"
	useCaseCartUpsert = "cart.upsert_line"
	useCaseCartRemove = "cart.remove_line"
	useCaseCartList   = "cart.list_lines"
	useCaseCartClear  = "cart.clear"
	useCaseCartView   = "cart.read_view"
)

// Store is the buyer cart: one line per product, validated against live stock.
type Store struct {
	uow     application.UnitOfWork
	in      application.Instruments
	clamped observability.Counter
}

func NewStore(uow application.UnitOfWork, tel observability.Observability) *Store {
	in := application.NewInstruments(tel, cartService)
	return &Store{
		uow:     uow,
		in:      in,
		clamped: in.Metrics().Counter(observability.MCartLinesClamped),
	}
}

type UpsertLineInput struct {
	BuyerID   int64
	ProductID int64
	Quantity  int
}

type UpsertLineResult struct {
	Created bool
}

// UpsertLine creates or replaces the buyer's line for a product.
func (s *Store) UpsertLine(ctx context.Context, cmd UpsertLineInput) (_ *UpsertLineResult, err error) {
	ctx, inv := s.in.Begin(ctx, useCaseCartUpsert, "UpsertCartLine",
		attribute.Int64("buyer.id", cmd.BuyerID),
		attribute.Int64("product.id", cmd.ProductID),
		attribute.Int("cart.quantity", cmd.Quantity),
	)
	defer func() { inv.End(err) }()

	if cmd.Quantity < 1 {
		return nil, inv.Fail("QUANTITY_INVALID", application.FieldError("quantity", domcart.ErrInvalidQuantity.Error()))
	}

	var created bool
	err = s.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		stock, getErr := tx.Stock().Get(ctx, cmd.ProductID)
		if getErr != nil {
			if errors.Is(getErr, dominv.ErrNotFound) {
				return application.FieldError("product_card", "Invalid pk - object does not exist.")
			}
			return getErr
		}
		line, lineErr := domcart.NewLine(cmd.BuyerID, stock, cmd.Quantity)
		switch {
		case errors.Is(lineErr, domcart.ErrProductUnavailable):
			return application.FieldError("product_card", lineErr.Error())
		case lineErr != nil:
			return application.FieldError("quantity", lineErr.Error())
		}
		var upErr error
		created, upErr = tx.Carts().Upsert(ctx, line)
		return upErr
	})
	if err != nil {
		var verr *application.ValidationError
		if errors.As(err, &verr) {
			return nil, inv.Fail("LINE_INVALID", err)
		}
		return nil, inv.Fail("REPO_UPSERT_FAILED", application.WrapRepository(err))
	}
	inv.With(observability.F("created", created))
	return &UpsertLineResult{Created: created}, nil
}

// RemoveLine deletes one line; ErrLineNotFound when the product is not in the cart.
func (s *Store) RemoveLine(ctx context.Context, buyerID, productID int64) (err error) {
	ctx, inv := s.in.Begin(ctx, useCaseCartRemove, "RemoveCartLine",
		attribute.Int64("buyer.id", buyerID),
		attribute.Int64("product.id", productID),
	)
	defer func() { inv.End(err) }()

	err = s.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		return tx.Carts().Delete(ctx, buyerID, productID)
	})
	if err != nil {
		if errors.Is(err, domcart.ErrLineNotFound) {
			return inv.Fail("LINE_NOT_FOUND", err)
		}
		return inv.Fail("REPO_DELETE_FAILED", application.WrapRepository(err))
	}
	return nil
}

// ListLines returns every line with the current stock of its product.
func (s *Store) ListLines(ctx context.Context, buyerID int64) (positions []domcart.Position, err error) {
	ctx, inv := s.in.Begin(ctx, useCaseCartList, "ListCartLines", attribute.Int64("buyer.id", buyerID))
	defer func() { inv.End(err) }()

	err = s.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		var listErr error
		positions, listErr = tx.Carts().Positions(ctx, buyerID)
		return listErr
	})
	if err != nil {
		return nil, inv.Fail("REPO_LIST_FAILED", application.WrapRepository(err))
	}
	return positions, nil
}

// ClearAll empties the cart; clearing an empty cart is a no-op.
func (s *Store) ClearAll(ctx context.Context, buyerID int64) (err error) {
	ctx, inv := s.in.Begin(ctx, useCaseCartClear, "ClearCart", attribute.Int64("buyer.id", buyerID))
	defer func() { inv.End(err) }()

	err = s.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		return tx.Carts().Clear(ctx, buyerID)
	})
	if err != nil {
		return inv.Fail("REPO_CLEAR_FAILED", application.WrapRepository(err))
	}
	return nil
}

// ReadView partitions the cart by availability. Available lines that exceed the
// current stock are lowered to it and persisted before being returned.
func (s *Store) ReadView(ctx context.Context, buyerID int64) (_ *domcart.View, err error) {
	ctx, inv := s.in.Begin(ctx, useCaseCartView, "ReadCartView", attribute.Int64("buyer.id", buyerID))
	defer func() { inv.End(err) }()

	var view domcart.View
	var clamped []domcart.Position
	err = s.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		positions, listErr := tx.Carts().Positions(ctx, buyerID)
		if listErr != nil {
			return listErr
		}
		view, clamped = domcart.Partition(positions, domorder.PricePlaces)
		for _, p := range clamped {
			if setErr := tx.Carts().SetQuantity(ctx, buyerID, p.ProductID, p.Quantity); setErr != nil {
				return setErr
			}
		}
		return nil
	})
	if err != nil {
		return nil, inv.Fail("REPO_VIEW_FAILED", application.WrapRepository(err))
	}

	if len(clamped) > 0 {
		s.clamped.Add(float64(len(clamped)))
		inv.Status("CLAMPED")
	}
	inv.With(
		observability.F("available", len(view.Available)),
		observability.F("unavailable", len(view.Unavailable)),
		observability.F("clamped", len(clamped)),
	)
	inv.Span().SetAttributes(attribute.String("cart.total", view.Total.String()))
	return &view, nil
}
