package inventory

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("inventory: product not found")
	ErrInvalidQuantity   = errors.New("inventory: quantity must be greater than zero")
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
	ErrInvalidPrice      = errors.New("inventory: price must be positive")
)

// PricePlaces is the number of decimal places stored for product prices.
const PricePlaces = 2

type Status string

const (
	StatusInStock   Status = "in_stock"
	StatusSold      Status = "sold"
	StatusWithdrawn Status = "withdrawn"
)

// Available reports whether products in this status may be put in a cart or ordered.
func (s Status) Available() bool {
	return s == StatusInStock
}

// DeriveStatus recomputes the availability status after a quantity change.
// Withdrawn is sticky and never reverted here.
func DeriveStatus(current Status, quantity int) Status {
	if current == StatusWithdrawn {
		return StatusWithdrawn
	}
	if quantity == 0 {
		return StatusSold
	}
	return StatusInStock
}

// Stock is the sellable record of one product card.
type Stock struct {
	ProductID int64
	Price     decimal.Decimal
	Quantity  int
	Status    Status
	UpdatedAt time.Time
}

func NewStock(productID int64, price decimal.Decimal, quantity int) (*Stock, error) {
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	if !price.IsPositive() {
		return nil, ErrInvalidPrice
	}
	return &Stock{
		ProductID: productID,
		Price:     price.Round(PricePlaces),
		Quantity:  quantity,
		Status:    DeriveStatus(StatusInStock, quantity),
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// Deduct removes amount units and recomputes the status.
func (s *Stock) Deduct(amount int) error {
	if amount <= 0 {
		return ErrInvalidQuantity
	}
	if amount > s.Quantity {
		return ErrInsufficientStock
	}
	s.Quantity -= amount
	s.Status = DeriveStatus(s.Status, s.Quantity)
	s.touch()
	return nil
}

func (s *Stock) Withdraw() {
	s.Status = StatusWithdrawn
	s.touch()
}

// Reprice changes the current catalog price. Existing order lines keep their snapshot.
func (s *Stock) Reprice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return ErrInvalidPrice
	}
	s.Price = price.Round(PricePlaces)
	s.touch()
	return nil
}

func (s *Stock) Clone() *Stock {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

func (s *Stock) touch() {
	s.UpdatedAt = time.Now().UTC()
}
