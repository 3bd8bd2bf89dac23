package store

import (
	"github.com/canteenconnect/api/internal/database"
	"github.com/canteenconnect/api/internal/enum"
	"github.com/canteenconnect/api/internal/model"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	s, ok := val.(string)
	if !ok {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}

func toModelMenuItem(i database.MenuItem) model.MenuItem {
	return model.MenuItem{
		ID:          i.ID,
		Name:        i.Name,
		Description: i.Description,
		Price:       numericToDecimal(i.Price),
		Available:   i.Available,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}

func toModelOrder(o database.Order, lines []database.OrderLine) model.Order {
	out := model.Order{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		CustomerName:  o.CustomerName,
		Total:         numericToDecimal(o.Total),
		Status:        enum.OrderStatus(o.Status),
		PaymentMethod: enum.PaymentMethod(o.PaymentMethod),
		PaymentStatus: enum.PaymentStatus(o.PaymentStatus),
		PickupCode:    o.PickupCode,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
		Lines:         make([]model.OrderLine, 0, len(lines)),
	}
	for _, l := range lines {
		out.Lines = append(out.Lines, model.OrderLine{
			MenuItemID: l.MenuItemID,
			Name:       l.Name,
			Quantity:   l.Quantity,
			UnitPrice:  numericToDecimal(l.UnitPrice),
		})
	}
	return out
}
