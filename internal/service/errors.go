package service

import (
	"errors"
	"fmt"

	"github.com/canteenconnect/api/internal/enum"
	"github.com/google/uuid"
)

// Errors returned by the order lifecycle. Callers match them with errors.Is;
// every returned error wraps exactly one of them.
var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidTransition    = errors.New("invalid transition")
	ErrInvalidLine          = errors.New("invalid line")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrConflict             = errors.New("order changed concurrently, re-read and retry")
	ErrExternal             = errors.New("external failure")
	ErrInvalidTrigger       = errors.New("invalid trigger")
	ErrInvalidPaymentMethod = errors.New("invalid payment_method")
	ErrInvalidCustomer      = errors.New("customer_id is required")
	ErrNotFinalized         = errors.New("order has no payment method yet")
)

// ErrDuplicateCode is returned by an OrderStore when a pickup code is already
// bound to another order. The lifecycle retries with a fresh code.
var ErrDuplicateCode = errors.New("pickup code already issued")

// TransitionError reports a trigger fired from a status that does not allow it.
type TransitionError struct {
	OrderID uuid.UUID
	From    enum.OrderStatus
	Trigger enum.Trigger
	To      enum.OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("order %s: cannot %s from %s to %s", e.OrderID, e.Trigger, e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// LineError reports the cart line that made PlaceOrder abort.
type LineError struct {
	Index      int
	MenuItemID string
	Reason     string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("lines[%d] (%s): %s", e.Index, e.MenuItemID, e.Reason)
}

func (e *LineError) Is(target error) bool { return target == ErrInvalidLine }

// ExternalError wraps a collaborator failure (store, ticketing, renderer).
type ExternalError struct {
	Op  string
	Err error
}

func (e *ExternalError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *ExternalError) Unwrap() error { return e.Err }

func (e *ExternalError) Is(target error) bool { return target == ErrExternal }

func external(op string, err error) error {
	return &ExternalError{Op: op, Err: err}
}

// Code returns the machine-readable kind of err for API responses.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrExternal):
		return "external_failure"
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, ErrInvalidLine):
		return "invalid_line"
	case errors.Is(err, ErrInvalidTrigger):
		return "invalid_trigger"
	case errors.Is(err, ErrInvalidPaymentMethod):
		return "invalid_payment_method"
	case errors.Is(err, ErrInvalidCustomer):
		return "invalid_customer"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNotFinalized):
		return "not_finalized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	}
	return "internal"
}
