package address

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minishop-checkout/internal/application"
	domaddr "github.com/Zhima-Mochi/minishop-checkout/internal/domain/address"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	addressService        = "address-service"
	useCaseAddrResolve    = "address.resolve"
	useCaseAddrDeactivate = "address.deactivate"
	useCaseAddrList       = "address.list_active"
	useCaseAddrGet        = "address.get"
	useCaseAddrPatch      = "address.patch"
)

// Outcome tells how Resolve satisfied the request.
type Outcome string

const (
	OutcomeCreated     Outcome = "created"
	OutcomeReactivated Outcome = "reactivated"
	OutcomeExisting    Outcome = "existing"
)

// Book manages the buyer's delivery addresses and the active-address cap.
type Book struct {
	uow application.UnitOfWork
	in  application.Instruments
}

func NewBook(uow application.UnitOfWork, tel observability.Observability) *Book {
	return &Book{
		uow: uow,
		in:  application.NewInstruments(tel, addressService),
	}
}

// ResolveIn finds or creates an active address inside an existing unit of work.
// The cap is checked under the buyer lock, only when the active count would grow.
func ResolveIn(ctx context.Context, tx application.Tx, buyerID int64, fields domaddr.Fields) (*domaddr.Address, Outcome, error) {
	fields = fields.Normalize()
	if problems := fields.Problems(); len(problems) > 0 {
		return nil, "", application.NewValidation(problems)
	}

	repo := tx.Addresses()
	if err := repo.LockBuyer(ctx, buyerID); err != nil {
		return nil, "", err
	}

	existing, err := repo.FindByFields(ctx, buyerID, fields)
	switch {
	case err == nil && existing.IsActive:
		return existing, OutcomeExisting, nil
	case err != nil && !errors.Is(err, domaddr.ErrNotFound):
		return nil, "", err
	}

	active, err := repo.CountActive(ctx, buyerID)
	if err != nil {
		return nil, "", err
	}
	if err := existing.CanActivate(active); err != nil {
		return nil, "", err
	}

	if existing != nil {
		existing.IsActive = true
		if err := repo.Update(ctx, existing); err != nil {
			return nil, "", err
		}
		return existing, OutcomeReactivated, nil
	}

	created := &domaddr.Address{BuyerID: buyerID, Fields: fields, IsActive: true}
	if err := repo.Insert(ctx, created); err != nil {
		return nil, "", err
	}
	return created, OutcomeCreated, nil
}

// Resolve returns the buyer's address matching fields, activating or creating it as needed.
func (b *Book) Resolve(ctx context.Context, buyerID int64, fields domaddr.Fields) (addr *domaddr.Address, outcome Outcome, err error) {
	ctx, inv := b.in.Begin(ctx, useCaseAddrResolve, "ResolveAddress", attribute.Int64("buyer.id", buyerID))
	defer func() { inv.End(err) }()

	err = b.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		var resErr error
		addr, outcome, resErr = ResolveIn(ctx, tx, buyerID, fields)
		return resErr
	})
	if err != nil {
		return nil, "", inv.Fail(failureStatus(err), application.WrapRepository(err, domaddr.ErrLimitExceeded, domaddr.ErrDuplicate))
	}
	inv.With(observability.F("address_id", addr.ID), observability.F("resolve_outcome", string(outcome)))
	return addr, outcome, nil
}

// Get returns one of the buyer's addresses, active or not.
func (b *Book) Get(ctx context.Context, buyerID, addressID int64) (addr *domaddr.Address, err error) {
	ctx, inv := b.in.Begin(ctx, useCaseAddrGet, "GetAddress",
		attribute.Int64("buyer.id", buyerID),
		attribute.Int64("address.id", addressID),
	)
	defer func() { inv.End(err) }()

	err = b.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		var getErr error
		addr, getErr = owned(ctx, tx, buyerID, addressID)
		return getErr
	})
	if err != nil {
		return nil, inv.Fail(failureStatus(err), application.WrapRepository(err, domaddr.ErrNotFound))
	}
	return addr, nil
}

// PatchInput carries optional replacements for structural fields.
type PatchInput struct {
	City      *string
	Street    *string
	House     *string
	Building  *string
	Apartment *string
}

func (p PatchInput) apply(f domaddr.Fields) domaddr.Fields {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&f.City, p.City)
	set(&f.Street, p.Street)
	set(&f.House, p.House)
	set(&f.Building, p.Building)
	set(&f.Apartment, p.Apartment)
	return f
}

// Patch rewrites fields of an address without touching its active flag, so the cap is not rechecked.
func (b *Book) Patch(ctx context.Context, buyerID, addressID int64, patch PatchInput) (addr *domaddr.Address, err error) {
	ctx, inv := b.in.Begin(ctx, useCaseAddrPatch, "PatchAddress",
		attribute.Int64("buyer.id", buyerID),
		attribute.Int64("address.id", addressID),
	)
	defer func() { inv.End(err) }()

	err = b.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		current, getErr := owned(ctx, tx, buyerID, addressID)
		if getErr != nil {
			return getErr
		}
		current.Fields = patch.apply(current.Fields).Normalize()
		if problems := current.Fields.Problems(); len(problems) > 0 {
			return application.NewValidation(problems)
		}
		if upErr := tx.Addresses().Update(ctx, current); upErr != nil {
			return upErr
		}
		addr = current
		return nil
	})
	if err != nil {
		return nil, inv.Fail(failureStatus(err), application.WrapRepository(err, domaddr.ErrNotFound, domaddr.ErrDuplicate))
	}
	return addr, nil
}

// Deactivate hides an address from the buyer. Addresses no order references are
// deleted outright; referenced ones are only flagged inactive.
func (b *Book) Deactivate(ctx context.Context, buyerID, addressID int64) (err error) {
	ctx, inv := b.in.Begin(ctx, useCaseAddrDeactivate, "DeactivateAddress",
		attribute.Int64("buyer.id", buyerID),
		attribute.Int64("address.id", addressID),
	)
	defer func() { inv.End(err) }()

	var hardDeleted bool
	err = b.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		// Conversion resolves addresses under the same lock, so no order can
		// start referencing this address between the check and the delete.
		if lockErr := tx.Addresses().LockBuyer(ctx, buyerID); lockErr != nil {
			return lockErr
		}
		current, getErr := owned(ctx, tx, buyerID, addressID)
		if getErr != nil {
			return getErr
		}
		referenced, refErr := tx.Orders().ReferencesAddress(ctx, addressID)
		if refErr != nil {
			return refErr
		}
		if !referenced {
			hardDeleted = true
			return tx.Addresses().Delete(ctx, addressID)
		}
		current.IsActive = false
		return tx.Addresses().Update(ctx, current)
	})
	if err != nil {
		return inv.Fail(failureStatus(err), application.WrapRepository(err, domaddr.ErrNotFound))
	}
	inv.With(observability.F("hard_deleted", hardDeleted))
	return nil
}

// ListActive returns the buyer's active addresses.
func (b *Book) ListActive(ctx context.Context, buyerID int64) (addrs []*domaddr.Address, err error) {
	ctx, inv := b.in.Begin(ctx, useCaseAddrList, "ListActiveAddresses", attribute.Int64("buyer.id", buyerID))
	defer func() { inv.End(err) }()

	err = b.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		var listErr error
		addrs, listErr = tx.Addresses().ListActive(ctx, buyerID)
		return listErr
	})
	if err != nil {
		return nil, inv.Fail("REPO_LIST_FAILED", application.WrapRepository(err))
	}
	return addrs, nil
}

func owned(ctx context.Context, tx application.Tx, buyerID, addressID int64) (*domaddr.Address, error) {
	addr, err := tx.Addresses().Get(ctx, addressID)
	if err != nil {
		return nil, err
	}
	if addr.BuyerID != buyerID {
		return nil, application.ErrPermissionDenied
	}
	return addr, nil
}

func failureStatus(err error) string {
	var verr *application.ValidationError
	switch {
	case errors.As(err, &verr):
		return "FIELDS_INVALID"
	case errors.Is(err, domaddr.ErrLimitExceeded):
		return "ADDRESS_LIMIT_EXCEEDED"
	case errors.Is(err, domaddr.ErrDuplicate):
		return "ADDRESS_DUPLICATE"
	case errors.Is(err, domaddr.ErrNotFound):
		return "ADDRESS_NOT_FOUND"
	case errors.Is(err, application.ErrPermissionDenied):
		return "PERMISSION_DENIED"
	default:
		return "REPO_FAILED"
	}
}
