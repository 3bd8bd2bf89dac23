// Package invoice renders human-readable invoice text for finalized orders.
package invoice

import (
	"github.com/canteenconnect/api/internal/model"
)

// Line is one invoiced item.
type Line struct {
	Name     string `json:"name"`
	Quantity int32  `json:"quantity"`
	Price    string `json:"price"`
	Subtotal string `json:"subtotal"`
}

// Payload is the data an invoice is rendered from.
type Payload struct {
	CustomerName  string `json:"customer_name"`
	OrderID       string `json:"order_id"`
	Lines         []Line `json:"items"`
	TotalAmount   string `json:"total_amount"`
	PaymentMethod string `json:"payment_method"`
	PaymentStatus string `json:"payment_status"`
	PickupCode    string `json:"pickup_code"`
}

// NewPayload flattens an order into invoice data. Amounts are fixed to two
// decimal places.
func NewPayload(o model.Order) Payload {
	p := Payload{
		CustomerName:  o.CustomerName,
		OrderID:       o.ID.String(),
		Lines:         make([]Line, len(o.Lines)),
		TotalAmount:   o.Total.StringFixed(2),
		PaymentMethod: string(o.PaymentMethod),
		PaymentStatus: string(o.PaymentStatus),
		PickupCode:    o.PickupCode,
	}
	for i, l := range o.Lines {
		p.Lines[i] = Line{
			Name:     l.Name,
			Quantity: l.Quantity,
			Price:    l.UnitPrice.StringFixed(2),
			Subtotal: l.Subtotal().StringFixed(2),
		}
	}
	return p
}
