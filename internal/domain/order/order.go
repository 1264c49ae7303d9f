package order

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound               = errors.New("order: not found")
	ErrEmptyCart              = errors.New("order: empty cart")
	ErrInvalidStateTransition = errors.New("order: invalid status transition")
	ErrInvalidStatus          = errors.New("order: unknown status")
)

// PricePlaces is the precision of snapshot prices on order lines.
const PricePlaces = 5

type Status string

const (
	StatusNew       Status = "new"
	StatusConfirmed Status = "confirmed"
	StatusAssembled Status = "assembled"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusCanceled  Status = "canceled"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusNew, StatusConfirmed, StatusAssembled, StatusSent, StatusDelivered, StatusCanceled:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Recipient is the person the order is delivered to.
type Recipient struct {
	FirstName  string
	LastName   string
	MiddleName string
	Email      string
	Phone      string
}

// Normalize trims every field and title-cases the names.
func (r Recipient) Normalize() Recipient {
	return Recipient{
		FirstName:  titleCase(r.FirstName),
		LastName:   titleCase(r.LastName),
		MiddleName: titleCase(r.MiddleName),
		Email:      strings.TrimSpace(r.Email),
		Phone:      strings.TrimSpace(r.Phone),
	}
}

// Problems returns field name to message for every rule the recipient breaks.
func (r Recipient) Problems() map[string]string {
	problems := map[string]string{}
	check := func(name, value string, max int, required bool) {
		switch {
		case required && value == "":
			problems[name] = "This field may not be blank."
		case utf8.RuneCountInString(value) > max:
			problems[name] = fmt.Sprintf("Ensure this field has no more than %d characters.", max)
		}
	}
	check("first_name", r.FirstName, 40, true)
	check("last_name", r.LastName, 60, true)
	check("middle_name", r.MiddleName, 50, false)
	check("phone", r.Phone, 20, true)
	if r.Email != "" {
		if addr, err := mail.ParseAddress(r.Email); err != nil || addr.Address != r.Email {
			problems["email"] = "Enter a valid email address."
		}
	}
	return problems
}

// Line is an immutable order position with the price captured at conversion time.
type Line struct {
	OrderID   int64
	ProductID int64
	Price     decimal.Decimal
	Quantity  int
}

func NewLine(productID int64, price decimal.Decimal, quantity int) Line {
	return Line{
		ProductID: productID,
		Price:     price.Round(PricePlaces),
		Quantity:  quantity,
	}
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Order struct {
	ID        int64
	BuyerID   int64
	AddressID int64
	Recipient
	Status      Status
	Lines       []Line
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeliveredAt *time.Time
}

// New builds an order in status new. The ID is assigned by the repository.
func New(buyerID, addressID int64, recipient Recipient) *Order {
	now := time.Now().UTC()
	return &Order{
		BuyerID:   buyerID,
		AddressID: addressID,
		Recipient: recipient,
		Status:    StatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (o *Order) AddLine(l Line) {
	l.OrderID = o.ID
	o.Lines = append(o.Lines, l)
}

func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Subtotal())
	}
	return total.Round(PricePlaces)
}

// TransitionTo moves the order along its lifecycle.
func (o *Order) TransitionTo(to Status) error {
	next, err := move(stateOf(o.Status), o, to)
	if err != nil {
		return err
	}
	o.Status = next.Status()
	o.touch()
	return nil
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Lines = append([]Line(nil), o.Lines...)
	if o.DeliveredAt != nil {
		at := *o.DeliveredAt
		clone.DeliveredAt = &at
	}
	return &clone
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}

func titleCase(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
