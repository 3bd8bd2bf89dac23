package service

import (
	"fmt"

	"github.com/canteenconnect/api/internal/enum"
	"github.com/canteenconnect/api/internal/model"
)

// transition is one edge of the order state machine. Every trigger has
// exactly one source status.
type transition struct {
	from   enum.OrderStatus
	to     enum.OrderStatus
	method enum.PaymentMethod // implied payment method, payment triggers only
	effect func(o model.Order) model.OrderUpdate
}

// transitions is the complete state machine. Anything not listed is illegal.
var transitions = map[enum.Trigger]transition{
	enum.TriggerAccept: {
		from:   enum.OrderStatusAwaitingAcceptance,
		to:     enum.OrderStatusAcceptedPendingPayment,
		effect: keepPayment(enum.OrderStatusAcceptedPendingPayment),
	},
	enum.TriggerReject: {
		from:   enum.OrderStatusAwaitingAcceptance,
		to:     enum.OrderStatusRejected,
		effect: keepPayment(enum.OrderStatusRejected),
	},
	enum.TriggerSelectCashPayment: {
		from:   enum.OrderStatusAcceptedPendingPayment,
		to:     enum.OrderStatusProcessing,
		method: enum.PaymentMethodCash,
		effect: func(model.Order) model.OrderUpdate {
			// Cash is settled at handover, not here.
			return model.OrderUpdate{
				Status:        enum.OrderStatusProcessing,
				PaymentMethod: enum.PaymentMethodCash,
				PaymentStatus: enum.PaymentStatusPending,
			}
		},
	},
	enum.TriggerCompleteOnlinePayment: {
		from:   enum.OrderStatusAcceptedPendingPayment,
		to:     enum.OrderStatusProcessing,
		method: enum.PaymentMethodOnline,
		effect: func(model.Order) model.OrderUpdate {
			return model.OrderUpdate{
				Status:        enum.OrderStatusProcessing,
				PaymentMethod: enum.PaymentMethodOnline,
				PaymentStatus: enum.PaymentStatusPaid,
			}
		},
	},
	enum.TriggerMarkReady: {
		from:   enum.OrderStatusProcessing,
		to:     enum.OrderStatusReady,
		effect: keepPayment(enum.OrderStatusReady),
	},
	enum.TriggerConfirmPickup: {
		from: enum.OrderStatusReady,
		to:   enum.OrderStatusPickedUp,
		effect: func(o model.Order) model.OrderUpdate {
			u := model.OrderUpdate{
				Status:        enum.OrderStatusPickedUp,
				PaymentMethod: o.PaymentMethod,
				PaymentStatus: o.PaymentStatus,
			}
			if o.PaymentMethod == enum.PaymentMethodCash {
				u.PaymentStatus = enum.PaymentStatusPaid
			}
			return u
		},
	},
}

func keepPayment(to enum.OrderStatus) func(model.Order) model.OrderUpdate {
	return func(o model.Order) model.OrderUpdate {
		return model.OrderUpdate{
			Status:        to,
			PaymentMethod: o.PaymentMethod,
			PaymentStatus: o.PaymentStatus,
		}
	}
}

// triggerOrder fixes the order AllowedTriggers reports in.
var triggerOrder = []enum.Trigger{
	enum.TriggerAccept,
	enum.TriggerReject,
	enum.TriggerSelectCashPayment,
	enum.TriggerCompleteOnlinePayment,
	enum.TriggerMarkReady,
	enum.TriggerConfirmPickup,
}

// ValidTrigger reports whether t names a defined trigger.
func ValidTrigger(t enum.Trigger) bool {
	_, ok := transitions[t]
	return ok
}

// IsPaymentTrigger reports whether t selects a payment method.
func IsPaymentTrigger(t enum.Trigger) bool {
	return transitions[t].method != ""
}

// AllowedTriggers lists the triggers that are legal from status s.
func AllowedTriggers(s enum.OrderStatus) []enum.Trigger {
	var out []enum.Trigger
	for _, t := range triggerOrder {
		if transitions[t].from == s {
			out = append(out, t)
		}
	}
	return out
}

// checkTrigger validates a trigger and its optional payment method without
// looking at any order.
func checkTrigger(trigger enum.Trigger, method enum.PaymentMethod) (transition, error) {
	t, ok := transitions[trigger]
	if !ok {
		return transition{}, fmt.Errorf("%q: %w", trigger, ErrInvalidTrigger)
	}
	if method == "" {
		return t, nil
	}
	if t.method == "" {
		return transition{}, fmt.Errorf("%s takes no payment method: %w", trigger, ErrInvalidPaymentMethod)
	}
	if method != t.method {
		return transition{}, fmt.Errorf("%s requires %s, got %q: %w", trigger, t.method, method, ErrInvalidPaymentMethod)
	}
	return t, nil
}

// Next computes the update trigger produces on o. It has no side effects;
// the caller writes the result conditionally on o.Status.
func Next(o model.Order, trigger enum.Trigger, method enum.PaymentMethod) (model.OrderUpdate, error) {
	t, err := checkTrigger(trigger, method)
	if err != nil {
		return model.OrderUpdate{}, err
	}
	if o.Status != t.from {
		return model.OrderUpdate{}, &TransitionError{
			OrderID: o.ID,
			From:    o.Status,
			Trigger: trigger,
			To:      t.to,
		}
	}
	return t.effect(o), nil
}
