package order

import (
	"fmt"
	"time"
)

// OrderState implements the state pattern for order lifecycle transitions.
type OrderState interface {
	Status() Status
	// Forward is the single regular successor; ok is false for terminal states.
	Forward() (next OrderState, ok bool)
	Cancelable() bool
	onEnter(o *Order)
}

func stateOf(s Status) OrderState {
	switch s {
	case StatusNew:
		return newState{}
	case StatusConfirmed:
		return confirmedState{}
	case StatusAssembled:
		return assembledState{}
	case StatusSent:
		return sentState{}
	case StatusDelivered:
		return deliveredState{}
	default:
		return canceledState{}
	}
}

// move is shared by all states: either the regular successor or a cancel.
func move(from OrderState, o *Order, to Status) (OrderState, error) {
	if to == StatusCanceled && from.Cancelable() {
		next := canceledState{}
		next.onEnter(o)
		return next, nil
	}
	if next, ok := from.Forward(); ok && next.Status() == to {
		next.onEnter(o)
		return next, nil
	}
	return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, from.Status(), to)
}

type newState struct{}

func (newState) Status() Status              { return StatusNew }
func (newState) Forward() (OrderState, bool) { return confirmedState{}, true }
func (newState) Cancelable() bool            { return true }
func (newState) onEnter(*Order)              {}

type confirmedState struct{}

func (confirmedState) Status() Status              { return StatusConfirmed }
func (confirmedState) Forward() (OrderState, bool) { return assembledState{}, true }
func (confirmedState) Cancelable() bool            { return true }
func (confirmedState) onEnter(*Order)              {}

type assembledState struct{}

func (assembledState) Status() Status              { return StatusAssembled }
func (assembledState) Forward() (OrderState, bool) { return sentState{}, true }
func (assembledState) Cancelable() bool            { return true }
func (assembledState) onEnter(*Order)              {}

type sentState struct{}

func (sentState) Status() Status              { return StatusSent }
func (sentState) Forward() (OrderState, bool) { return deliveredState{}, true }
func (sentState) Cancelable() bool            { return true }
func (sentState) onEnter(*Order)              {}

type deliveredState struct{}

func (deliveredState) Status() Status              { return StatusDelivered }
func (deliveredState) Forward() (OrderState, bool) { return nil, false }
func (deliveredState) Cancelable() bool            { return false }
func (deliveredState) onEnter(o *Order) {
	at := time.Now().UTC()
	o.DeliveredAt = &at
}

type canceledState struct{}

func (canceledState) Status() Status              { return StatusCanceled }
func (canceledState) Forward() (OrderState, bool) { return nil, false }
func (canceledState) Cancelable() bool            { return false }
func (canceledState) onEnter(*Order)              {}
