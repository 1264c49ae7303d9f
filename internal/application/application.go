package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/address"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/order"
)

type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}

// Tx exposes repositories bound to one unit of work.
type Tx interface {
	Stock() inventory.Repository
	Carts() cart.Repository
	Addresses() address.Repository
	Orders() order.Repository
}

// UnitOfWork runs fn atomically: a non-nil error from fn discards every write made through tx.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Buyer is the authenticated caller of buyer-side use cases.
type Buyer struct {
	ID    int64
	Email string
}

var (
	ErrValidation       = errors.New("validation failed")
	ErrPermissionDenied = errors.New("permission denied")
	ErrRepository       = errors.New("repository failure")
)

// ValidationError reports caller-correctable input problems per field.
type ValidationError struct {
	Fields map[string]string
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// FieldError is shorthand for a single-field validation failure.
func FieldError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// WrapRepository marks unexpected storage failures while keeping domain sentinels visible.
func WrapRepository(err error, known ...error) error {
	if err == nil {
		return nil
	}
	for _, k := range known {
		if errors.Is(err, k) {
			return err
		}
	}
	var verr *ValidationError
	if errors.As(err, &verr) || errors.Is(err, ErrPermissionDenied) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrRepository, err)
}
