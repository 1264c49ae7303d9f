package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/minishop-checkout/internal/application"
	appaddress "github.com/Zhima-Mochi/minishop-checkout/internal/application/address"
	domaddr "github.com/Zhima-Mochi/minishop-checkout/internal/domain/address"
	domcart "github.com/Zhima-Mochi/minishop-checkout/internal/domain/cart"
	dominv "github.com/Zhima-Mochi/minishop-checkout/internal/domain/inventory"
	domain "github.com/Zhima-Mochi/minishop-checkout/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-checkout/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	orderService        = "order-service"
	useCaseOrderConvert = "order.convert_cart"
	publishPeer         = "outbox"
	publishTimeout      = 300 * time.Millisecond
)

// ConvertCartUseCase turns the buyer's available cart lines into an order in one unit of work.
type ConvertCartUseCase struct {
	uow       application.UnitOfWork
	publisher domoutbox.Publisher
	in        application.Instruments

	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewConvertCartUseCase(
	uow application.UnitOfWork,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *ConvertCartUseCase {
	in := application.NewInstruments(tel, orderService)
	return &ConvertCartUseCase{
		uow:          uow,
		publisher:    publisher,
		in:           in,
		extCounter:   in.Metrics().Counter(observability.MExternalRequests),
		extHistogram: in.Metrics().Histogram(observability.MExternalRequestDuration),
	}
}

type ConvertCartInput struct {
	Buyer     application.Buyer
	Recipient domain.Recipient
	Address   domaddr.Fields
}

type ConvertCartResult struct {
	OrderID   int64
	AddressID int64
	Status    domain.Status
	Lines     int
	Total     decimal.Decimal
}

// Execute resolves the address, snapshots every in-stock cart line into an order
// line, decrements stock and clears the converted lines. Any failure leaves no trace.
// The placed-order event is published only after the unit of work commits.
func (uc *ConvertCartUseCase) Execute(ctx context.Context, cmd ConvertCartInput) (_ *ConvertCartResult, err error) {
	ctx, inv := uc.in.Begin(ctx, useCaseOrderConvert, "ConvertCart",
		attribute.Int64("buyer.id", cmd.Buyer.ID),
	)
	defer func() { inv.End(err) }()

	if cmd.Buyer.ID <= 0 {
		return nil, inv.Fail("BUYER_REQUIRED", application.ErrPermissionDenied)
	}
	recipient := cmd.Recipient.Normalize()
	fields := cmd.Address.Normalize()
	if problems := validationProblems(recipient, fields); len(problems) > 0 {
		return nil, inv.Fail("FIELDS_INVALID", application.NewValidation(problems))
	}
	if err := ctx.Err(); err != nil {
		return nil, inv.Fail("CONTEXT_CANCELED", err)
	}

	var (
		entity   *domain.Order
		depleted []int64
	)
	err = uc.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		entity, depleted = nil, nil

		addr, _, resErr := appaddress.ResolveIn(ctx, tx, cmd.Buyer.ID, fields)
		if resErr != nil {
			return resErr
		}

		positions, listErr := tx.Carts().Positions(ctx, cmd.Buyer.ID)
		if listErr != nil {
			return listErr
		}
		positions = inStock(positions)
		if len(positions) == 0 {
			return domain.ErrEmptyCart
		}

		entity = domain.New(cmd.Buyer.ID, addr.ID, recipient)
		if insErr := tx.Orders().Insert(ctx, entity); insErr != nil {
			return insErr
		}

		for _, p := range positions {
			stock, decErr := tx.Stock().Decrement(ctx, p.ProductID, p.Quantity)
			if decErr != nil {
				return fmt.Errorf("product %d: %w", p.ProductID, decErr)
			}
			entity.AddLine(domain.NewLine(p.ProductID, stock.Price, p.Quantity))
			if stock.Quantity == 0 {
				depleted = append(depleted, p.ProductID)
			}
			if delErr := tx.Carts().Delete(ctx, cmd.Buyer.ID, p.ProductID); delErr != nil {
				return delErr
			}
		}

		return tx.Orders().InsertLines(ctx, entity.ID, entity.Lines)
	})
	if err != nil {
		return nil, inv.Fail(conversionFailure(err), application.WrapRepository(err,
			domain.ErrEmptyCart,
			domaddr.ErrLimitExceeded,
			domaddr.ErrDuplicate,
			dominv.ErrInsufficientStock,
			dominv.ErrNotFound,
		))
	}

	email := cmd.Buyer.Email
	if email == "" {
		email = recipient.Email
	}
	uc.publish(ctx, inv, domain.NewOrderPlacedEvent(entity, email))
	for _, productID := range depleted {
		uc.publish(ctx, inv, dominv.NewStockDepletedEvent(productID, entity.ID))
	}

	total := entity.Total()
	inv.With(
		observability.F("order_id", entity.ID),
		observability.F("lines", len(entity.Lines)),
		observability.F("total", total.String()),
	)
	inv.Span().SetAttributes(
		attribute.Int64("order.id", entity.ID),
		attribute.String("order.status", string(entity.Status)),
		attribute.Int("order.lines", len(entity.Lines)),
	)
	inv.Span().AddEvent("order.placed", trace.WithAttributes(attribute.Int64("order.id", entity.ID)))

	return &ConvertCartResult{
		OrderID:   entity.ID,
		AddressID: entity.AddressID,
		Status:    entity.Status,
		Lines:     len(entity.Lines),
		Total:     total,
	}, nil
}

// publish is best effort: a failure is logged and counted but the order stands.
func (uc *ConvertCartUseCase) publish(ctx context.Context, inv *application.Invocation, e domoutbox.Event) {
	if uc.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	pubStart := time.Now()
	pubOutcome := "success"
	pubErr := uc.publisher.Publish(pubCtx, e)
	if pubErr != nil {
		pubOutcome = "error"
		if errors.Is(pubErr, context.DeadlineExceeded) {
			pubOutcome = "canceled"
		}
		inv.Status("EVENT_PUBLISH_FAILED")
		inv.Span().RecordError(pubErr)
		inv.Logger().Warn("event_publish_failed",
			observability.F("event", e.EventName()),
			observability.F("error", pubErr.Error()),
		)
	}

	uc.extCounter.Add(1,
		observability.L("peer", publishPeer),
		observability.L("endpoint", e.EventName()),
		observability.L("outcome", pubOutcome),
	)
	uc.extHistogram.Observe(time.Since(pubStart).Seconds(),
		observability.L("peer", publishPeer),
		observability.L("endpoint", e.EventName()),
	)
}

// inStock drops lines whose product is sold or withdrawn; they stay in the cart.
func inStock(positions []domcart.Position) []domcart.Position {
	out := positions[:0:0]
	for _, p := range positions {
		if p.Stock.Status == dominv.StatusInStock {
			out = append(out, p)
		}
	}
	return out
}

func validationProblems(r domain.Recipient, f domaddr.Fields) map[string]string {
	problems := r.Problems()
	for k, v := range f.Problems() {
		problems["address."+k] = v
	}
	return problems
}

func conversionFailure(err error) string {
	var verr *application.ValidationError
	switch {
	case errors.As(err, &verr):
		return "FIELDS_INVALID"
	case errors.Is(err, domain.ErrEmptyCart):
		return "EMPTY_CART"
	case errors.Is(err, domaddr.ErrLimitExceeded):
		return "ADDRESS_LIMIT_EXCEEDED"
	case errors.Is(err, dominv.ErrInsufficientStock):
		return "INSUFFICIENT_STOCK"
	case errors.Is(err, dominv.ErrNotFound):
		return "PRODUCT_NOT_FOUND"
	default:
		return "REPO_FAILED"
	}
}
