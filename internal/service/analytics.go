package service

import (
	"time"

	"github.com/canteenconnect/api/internal/enum"
	"github.com/canteenconnect/api/internal/model"
	"github.com/shopspring/decimal"
)

// HourBucket holds per-hour dashboard figures. Earnings are cumulative over
// the day up to and including Hour.
type HourBucket struct {
	Hour     int
	Orders   int
	Earnings decimal.Decimal
}

// Summary is the operator dashboard view of a set of orders.
type Summary struct {
	TotalOrders    int
	TotalEarnings  decimal.Decimal
	PendingCash    decimal.Decimal
	RejectedOrders int
	Hours          [24]HourBucket
	OnlineOrders   int
	CashOrders     int
}

// Summarize aggregates orders for the dashboard. Hours are taken in loc;
// nil means UTC.
func Summarize(orders []model.Order, loc *time.Location) Summary {
	if loc == nil {
		loc = time.UTC
	}
	sum := Summary{
		TotalEarnings: decimal.Zero,
		PendingCash:   decimal.Zero,
	}
	hourly := [24]decimal.Decimal{}
	for i := range sum.Hours {
		sum.Hours[i].Hour = i
		hourly[i] = decimal.Zero
	}

	for _, o := range orders {
		sum.TotalOrders++
		hour := o.CreatedAt.In(loc).Hour()
		sum.Hours[hour].Orders++

		paid := o.PaymentStatus == enum.PaymentStatusPaid
		if paid {
			sum.TotalEarnings = sum.TotalEarnings.Add(o.Total)
			hourly[hour] = hourly[hour].Add(o.Total)
		}
		if o.PaymentMethod == enum.PaymentMethodCash && !paid {
			sum.PendingCash = sum.PendingCash.Add(o.Total)
		}
		if o.Status == enum.OrderStatusRejected {
			sum.RejectedOrders++
		}
		switch o.PaymentMethod {
		case enum.PaymentMethodOnline:
			sum.OnlineOrders++
		case enum.PaymentMethodCash:
			sum.CashOrders++
		}
	}

	running := decimal.Zero
	for i := range sum.Hours {
		running = running.Add(hourly[i])
		sum.Hours[i].Earnings = running
	}
	return sum
}
