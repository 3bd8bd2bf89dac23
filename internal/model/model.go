package model

import (
	"time"

	"github.com/canteenconnect/api/internal/enum"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MenuItem is a priced item offered by the canteen.
type MenuItem struct {
	ID          uuid.UUID
	Name        string
	Description string
	Price       decimal.Decimal
	Available   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrderLine is a snapshot of a menu item taken when the order was placed.
// Later catalog edits never reach it.
type OrderLine struct {
	MenuItemID uuid.UUID
	Name       string
	Quantity   int32
	UnitPrice  decimal.Decimal
}

// Subtotal returns UnitPrice × Quantity.
func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt32(l.Quantity))
}

// Order is the central lifecycle record.
type Order struct {
	ID            uuid.UUID
	CustomerID    uuid.UUID
	CustomerName  string
	Lines         []OrderLine
	Total         decimal.Decimal
	Status        enum.OrderStatus
	PaymentMethod enum.PaymentMethod
	PaymentStatus enum.PaymentStatus
	PickupCode    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// LineTotal sums the subtotals of lines. Order.Total is always this value.
func LineTotal(lines []OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Clone returns a deep copy so callers cannot alias a stored record's lines.
func (o Order) Clone() Order {
	c := o
	c.Lines = make([]OrderLine, len(o.Lines))
	copy(c.Lines, o.Lines)
	return c
}

// OrderUpdate is the set of fields a transition may write.
type OrderUpdate struct {
	Status        enum.OrderStatus
	PaymentMethod enum.PaymentMethod
	PaymentStatus enum.PaymentStatus
}

// Apply returns a copy of o with u written over it.
func (u OrderUpdate) Apply(o Order, now time.Time) Order {
	c := o.Clone()
	c.Status = u.Status
	c.PaymentMethod = u.PaymentMethod
	c.PaymentStatus = u.PaymentStatus
	c.UpdatedAt = now
	return c
}

// OrderFilter narrows ListOrders. Zero values mean "no constraint".
type OrderFilter struct {
	Statuses     []enum.OrderStatus
	CustomerID   uuid.UUID
	CreatedAfter time.Time
	// CreatedBefore is exclusive.
	CreatedBefore time.Time
	Limit         int
	Offset        int
}

// Matches reports whether o passes every constraint in f except pagination.
func (f OrderFilter) Matches(o Order) bool {
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if o.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.CustomerID != uuid.Nil && o.CustomerID != f.CustomerID {
		return false
	}
	if !f.CreatedAfter.IsZero() && o.CreatedAt.Before(f.CreatedAfter) {
		return false
	}
	if !f.CreatedBefore.IsZero() && !o.CreatedAt.Before(f.CreatedBefore) {
		return false
	}
	return true
}
