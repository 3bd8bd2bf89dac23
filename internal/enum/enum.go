package enum

// ── Group A: State machines (CHECK constrained in DB) ──

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	OrderStatusAwaitingAcceptance     OrderStatus = "AWAITING_ACCEPTANCE"
	OrderStatusAcceptedPendingPayment OrderStatus = "ACCEPTED_PENDING_PAYMENT"
	OrderStatusProcessing             OrderStatus = "PROCESSING"
	OrderStatusReady                  OrderStatus = "READY"
	OrderStatusPickedUp               OrderStatus = "PICKED_UP"
	OrderStatusRejected               OrderStatus = "REJECTED"
)

// OrderStatuses lists every status in queue order.
var OrderStatuses = []OrderStatus{
	OrderStatusAwaitingAcceptance,
	OrderStatusAcceptedPendingPayment,
	OrderStatusProcessing,
	OrderStatusReady,
	OrderStatusPickedUp,
	OrderStatusRejected,
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether no trigger can leave s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusPickedUp || s == OrderStatusRejected
}

type PaymentMethod string

const (
	PaymentMethodNone   PaymentMethod = "NONE"
	PaymentMethodOnline PaymentMethod = "ONLINE"
	PaymentMethodCash   PaymentMethod = "CASH"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodNone, PaymentMethodOnline, PaymentMethodCash:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

// ── Group B: Triggers (API only, never stored) ──

// Trigger names an event that may advance an order.
type Trigger string

const (
	TriggerAccept                Trigger = "accept"
	TriggerReject                Trigger = "reject"
	TriggerSelectCashPayment     Trigger = "selectCashPayment"
	TriggerCompleteOnlinePayment Trigger = "completeOnlinePayment"
	TriggerMarkReady             Trigger = "markReady"
	TriggerConfirmPickup         Trigger = "confirmPickup"
)

// ── Group C: Roles and realtime labels (no DB constraint) ──

const (
	UserRoleCustomer = "CUSTOMER"
	UserRoleOperator = "OPERATOR"
)

const (
	EventOrderCreated = "order.created"
	EventOrderUpdated = "order.updated"
)

// TopicOperators receives every order event.
const TopicOperators = "operators"

// CustomerTopic is the room a single customer's events are sent to.
func CustomerTopic(customerID string) string {
	return "customer:" + customerID
}
