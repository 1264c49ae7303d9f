package order

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minishop-checkout/internal/application"
	domaddr "github.com/Zhima-Mochi/minishop-checkout/internal/domain/address"
	domain "github.com/Zhima-Mochi/minishop-checkout/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	useCaseOrderGet    = "order.get"
	useCaseOrderList   = "order.list"
	useCaseOrderStatus = "order.change_status"
)

// Details is an order together with the address it ships to.
type Details struct {
	Order   *domain.Order
	Address *domaddr.Address
}

// History serves buyer-side order reads and seller-side status changes.
type History struct {
	uow application.UnitOfWork
	in  application.Instruments
}

func NewHistory(uow application.UnitOfWork, tel observability.Observability) *History {
	return &History{
		uow: uow,
		in:  application.NewInstruments(tel, orderService),
	}
}

// Get returns one of the buyer's orders with lines and address.
func (h *History) Get(ctx context.Context, buyerID, orderID int64) (details *Details, err error) {
	ctx, inv := h.in.Begin(ctx, useCaseOrderGet, "GetOrder",
		attribute.Int64("buyer.id", buyerID),
		attribute.Int64("order.id", orderID),
	)
	defer func() { inv.End(err) }()

	err = h.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		o, getErr := tx.Orders().Get(ctx, orderID)
		if getErr != nil {
			return getErr
		}
		if o.BuyerID != buyerID {
			return application.ErrPermissionDenied
		}
		addr, addrErr := tx.Addresses().Get(ctx, o.AddressID)
		if addrErr != nil {
			return addrErr
		}
		details = &Details{Order: o, Address: addr}
		return nil
	})
	switch {
	case err == nil:
		return details, nil
	case errors.Is(err, domain.ErrNotFound):
		return nil, inv.Fail("ORDER_NOT_FOUND", err)
	case errors.Is(err, application.ErrPermissionDenied):
		return nil, inv.Fail("PERMISSION_DENIED", err)
	default:
		return nil, inv.Fail("REPO_GET_FAILED", application.WrapRepository(err))
	}
}

// List returns the buyer's orders newest first; day is an optional YYYY-MM-DD filter.
func (h *History) List(ctx context.Context, buyerID int64, day string) (orders []*domain.Order, err error) {
	ctx, inv := h.in.Begin(ctx, useCaseOrderList, "ListOrders", attribute.Int64("buyer.id", buyerID))
	defer func() { inv.End(err) }()

	filter, err := domain.ParseDay(day)
	if err != nil {
		return nil, inv.Fail("DATE_INVALID", application.FieldError("date", err.Error()))
	}
	err = h.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		var listErr error
		orders, listErr = tx.Orders().ListByBuyer(ctx, buyerID, filter)
		return listErr
	})
	if err != nil {
		return nil, inv.Fail("REPO_LIST_FAILED", application.WrapRepository(err))
	}
	inv.With(observability.F("orders", len(orders)))
	return orders, nil
}

// ChangeStatus moves an order along new → confirmed → assembled → sent → delivered,
// or cancels it from any non-terminal status. Authorization belongs to the caller.
func (h *History) ChangeStatus(ctx context.Context, orderID int64, to domain.Status) (o *domain.Order, err error) {
	ctx, inv := h.in.Begin(ctx, useCaseOrderStatus, "ChangeOrderStatus",
		attribute.Int64("order.id", orderID),
		attribute.String("order.status_to", string(to)),
	)
	defer func() { inv.End(err) }()

	var from domain.Status
	err = h.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		current, getErr := tx.Orders().Get(ctx, orderID)
		if getErr != nil {
			return getErr
		}
		from = current.Status
		if trErr := current.TransitionTo(to); trErr != nil {
			return trErr
		}
		if upErr := tx.Orders().UpdateStatus(ctx, current); upErr != nil {
			return upErr
		}
		o = current
		return nil
	})
	switch {
	case err == nil:
		inv.With(observability.F("from", string(from)), observability.F("to", string(to)))
		return o, nil
	case errors.Is(err, domain.ErrNotFound):
		return nil, inv.Fail("ORDER_NOT_FOUND", err)
	case errors.Is(err, domain.ErrInvalidStateTransition):
		return nil, inv.Fail("STATE_TRANSITION_FAILED", err)
	default:
		return nil, inv.Fail("REPO_UPDATE_FAILED", application.WrapRepository(err))
	}
}
