package cart

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/inventory"
)

var (
	ErrLineNotFound       = errors.New("cart: product is not in the cart")
	ErrInvalidQuantity    = errors.New("cart: quantity must be at least 1")
	ErrProductUnavailable = errors.New("cart: the product is sold or withdrawn")
	ErrExceedsStock       = errors.New("cart: quantity exceeds the actual stock of the product")
)

// Line is one buyer's desired quantity of one product. Unique per (BuyerID, ProductID).
type Line struct {
	BuyerID   int64
	ProductID int64
	Quantity  int
}

// NewLine validates a requested line against the current stock of its product.
func NewLine(buyerID int64, stock *inventory.Stock, quantity int) (Line, error) {
	if quantity < 1 {
		return Line{}, ErrInvalidQuantity
	}
	if !stock.Status.Available() {
		return Line{}, ErrProductUnavailable
	}
	if quantity > stock.Quantity {
		return Line{}, ErrExceedsStock
	}
	return Line{BuyerID: buyerID, ProductID: stock.ProductID, Quantity: quantity}, nil
}

// Position is a cart line joined with the current stock of its product.
type Position struct {
	Line
	Stock inventory.Stock
}

// Subtotal prices the line with the current catalog price.
func (p Position) Subtotal() decimal.Decimal {
	return p.Stock.Price.Mul(decimal.NewFromInt(int64(p.Quantity)))
}

// Clamp lowers the stored quantity to what is left in stock and reports whether it changed.
func (p *Position) Clamp() bool {
	if p.Quantity <= p.Stock.Quantity {
		return false
	}
	p.Quantity = p.Stock.Quantity
	return true
}

// View is the availability-partitioned read of a cart.
type View struct {
	Available   []Position
	Unavailable []Position
	Total       decimal.Decimal
}

// Partition splits positions by current product status and totals the available ones.
// Available positions whose quantity exceeds the stock are clamped in place; the
// clamped positions are returned so the caller can persist them.
func Partition(positions []Position, places int32) (View, []Position) {
	view := View{
		Available:   []Position{},
		Unavailable: []Position{},
		Total:       decimal.Zero,
	}
	var clamped []Position
	for _, p := range positions {
		if !p.Stock.Status.Available() || p.Stock.Quantity == 0 {
			view.Unavailable = append(view.Unavailable, p)
			continue
		}
		if p.Clamp() {
			clamped = append(clamped, p)
		}
		view.Available = append(view.Available, p)
		view.Total = view.Total.Add(p.Subtotal())
	}
	view.Total = view.Total.Round(places)
	return view, clamped
}
