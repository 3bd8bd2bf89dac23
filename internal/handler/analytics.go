package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/canteenconnect/api/internal/model"
	"github.com/canteenconnect/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const analyticsPageSize = 100

// OrderLister is satisfied by *service.OrderLifecycle.
type OrderLister interface {
	ListOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)
}

// AnalyticsHandler serves the operator dashboard.
type AnalyticsHandler struct {
	svc    OrderLister
	loc    *time.Location
	now    func() time.Time
	logger *zap.SugaredLogger
}

// NewAnalyticsHandler creates a handler bucketing hours in loc.
func NewAnalyticsHandler(svc OrderLister, loc *time.Location, logger *zap.SugaredLogger) *AnalyticsHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &AnalyticsHandler{svc: svc, loc: loc, now: time.Now, logger: logger}
}

func (h *AnalyticsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Summary)
}

type hourResponse struct {
	Hour     int    `json:"hour"`
	Orders   int    `json:"orders"`
	Earnings string `json:"earnings"`
}

type summaryResponse struct {
	Date           string         `json:"date"`
	TotalOrders    int            `json:"total_orders"`
	TotalEarnings  string         `json:"total_earnings"`
	PendingCash    string         `json:"pending_cash"`
	RejectedOrders int            `json:"rejected_orders"`
	OnlineOrders   int            `json:"online_orders"`
	CashOrders     int            `json:"cash_orders"`
	Hours          []hourResponse `json:"hours"`
}

// Summary handles GET /analytics[?date=YYYY-MM-DD]. The day defaults to today
// in the configured timezone.
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	now := h.now().In(h.loc)
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, h.loc)
	if s := r.URL.Query().Get("date"); s != "" {
		t, err := time.ParseInLocation("2006-01-02", s, h.loc)
		if err != nil {
			writeBadRequest(w, "invalid date format, use YYYY-MM-DD")
			return
		}
		day = t
	}

	filter := model.OrderFilter{
		CreatedAfter:  day,
		CreatedBefore: day.AddDate(0, 0, 1),
		Limit:         analyticsPageSize,
	}
	// Pages are walked with a created_at cursor so orders placed during
	// the scan cannot shift rows between pages. The cursor keeps ties with
	// the last row, which seen filters out.
	var orders []model.Order
	seen := make(map[uuid.UUID]bool)
	for {
		page, err := h.svc.ListOrders(r.Context(), filter)
		if err != nil {
			writeError(w, h.logger, "list orders for analytics", err)
			return
		}
		added := 0
		for _, o := range page {
			if seen[o.ID] {
				continue
			}
			seen[o.ID] = true
			orders = append(orders, o)
			added++
		}
		if len(page) < analyticsPageSize || added == 0 {
			break
		}
		filter.CreatedBefore = page[len(page)-1].CreatedAt.Add(time.Microsecond)
	}

	sum := service.Summarize(orders, h.loc)
	resp := summaryResponse{
		Date:           day.Format("2006-01-02"),
		TotalOrders:    sum.TotalOrders,
		TotalEarnings:  sum.TotalEarnings.StringFixed(2),
		PendingCash:    sum.PendingCash.StringFixed(2),
		RejectedOrders: sum.RejectedOrders,
		OnlineOrders:   sum.OnlineOrders,
		CashOrders:     sum.CashOrders,
		Hours:          make([]hourResponse, len(sum.Hours)),
	}
	for i, b := range sum.Hours {
		resp.Hours[i] = hourResponse{Hour: b.Hour, Orders: b.Orders, Earnings: b.Earnings.StringFixed(2)}
	}
	writeJSON(w, http.StatusOK, resp)
}
