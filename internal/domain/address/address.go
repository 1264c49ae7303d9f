package address

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxActive is the number of active addresses a buyer may hold at once.
const MaxActive = 5

var (
	ErrNotFound      = errors.New("address: not found")
	ErrLimitExceeded = fmt.Errorf("address: no more than %d addresses per user", MaxActive)
	ErrDuplicate     = errors.New("address: the address already exists")
)

// Fields are the structural fields that identify an address for one buyer.
type Fields struct {
	City      string
	Street    string
	House     string
	Building  string
	Apartment string
}

type fieldRule struct {
	name     string
	value    string
	max      int
	required bool
}

// Normalize trims surrounding whitespace from every field.
func (f Fields) Normalize() Fields {
	return Fields{
		City:      strings.TrimSpace(f.City),
		Street:    strings.TrimSpace(f.Street),
		House:     strings.TrimSpace(f.House),
		Building:  strings.TrimSpace(f.Building),
		Apartment: strings.TrimSpace(f.Apartment),
	}
}

// Problems returns field name to message for every rule the fields break.
func (f Fields) Problems() map[string]string {
	rules := []fieldRule{
		{"city", f.City, 50, true},
		{"street", f.Street, 100, true},
		{"house", f.House, 15, true},
		{"building", f.Building, 15, false},
		{"apartment", f.Apartment, 15, false},
	}
	problems := map[string]string{}
	for _, r := range rules {
		switch {
		case r.required && r.value == "":
			problems[r.name] = "This field may not be blank."
		case utf8.RuneCountInString(r.value) > r.max:
			problems[r.name] = fmt.Sprintf("Ensure this field has no more than %d characters.", r.max)
		}
	}
	return problems
}

type Address struct {
	ID      int64
	BuyerID int64
	Fields
	IsActive bool
}

// CanActivate checks the cap before an inactive or new address becomes active.
// Activating an address that is already active never changes the count.
func (a *Address) CanActivate(activeCount int) error {
	if a != nil && a.IsActive {
		return nil
	}
	if activeCount >= MaxActive {
		return ErrLimitExceeded
	}
	return nil
}

func (a *Address) Clone() *Address {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}
