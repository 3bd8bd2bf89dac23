package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/canteenconnect/api/internal/auth"
	"github.com/canteenconnect/api/internal/enum"
	"github.com/canteenconnect/api/internal/middleware"
	"github.com/canteenconnect/api/internal/model"
	"github.com/canteenconnect/api/internal/service"
	"github.com/canteenconnect/api/internal/ticket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultQRSize = 256
	minQRSize     = 64
	maxQRSize     = 1024
)

// OrderServicer defines the lifecycle methods needed by order handlers.
// Satisfied by *service.OrderLifecycle; narrow interface for testability.
type OrderServicer interface {
	PlaceOrder(ctx context.Context, req service.PlaceOrderRequest) (*model.Order, error)
	ApplyTransition(ctx context.Context, req service.TransitionRequest) (*model.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)
	RenderInvoice(ctx context.Context, id uuid.UUID) (string, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc    OrderServicer
	logger *zap.SugaredLogger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, logger *zap.SugaredLogger) *OrderHandler {
	return &OrderHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted behind Authenticate at /orders.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/transitions", h.Transition)
	r.Get("/{id}/invoice", h.Invoice)
	r.Get("/{id}/qr", h.QR)
}

// --- Request types ---

type createOrderRequest struct {
	CustomerName string                   `json:"customer_name"`
	Items        []createOrderItemRequest `json:"items"`
}

type createOrderItemRequest struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int32  `json:"quantity"`
}

type transitionRequest struct {
	Trigger        string `json:"trigger"`
	PaymentMethod  string `json:"payment_method"`
	ExpectedStatus string `json:"expected_status"`
}

// --- Handlers ---

// Create handles POST /orders. The customer is whoever holds the token;
// customer_name overrides the token's display name when given.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated", "code": "unauthenticated"})
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		name = claims.Name
	}

	lines := make([]service.CartLine, len(req.Items))
	for i, item := range req.Items {
		lines[i] = service.CartLine{MenuItemID: item.MenuItemID, Quantity: item.Quantity}
	}

	order, err := h.svc.PlaceOrder(r.Context(), service.PlaceOrderRequest{
		CustomerID:   claims.UserID,
		CustomerName: name,
		Lines:        lines,
	})
	if err != nil {
		writeError(w, h.logger, "place order", err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(*order))
}

// List handles GET /orders. Customers only ever see their own orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated", "code": "unauthenticated"})
		return
	}

	q := r.URL.Query()

	// Parse pagination
	limit := 20
	if s := q.Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}

	offset := 0
	if s := q.Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	filter := model.OrderFilter{Limit: limit, Offset: offset}

	if s := q.Get("status"); s != "" {
		for _, part := range strings.Split(s, ",") {
			st := enum.OrderStatus(strings.TrimSpace(part))
			if !st.Valid() {
				writeBadRequest(w, "invalid status: "+part)
				return
			}
			filter.Statuses = append(filter.Statuses, st)
		}
	}

	if s := q.Get("customer_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			writeBadRequest(w, "invalid customer_id")
			return
		}
		filter.CustomerID = id
	}
	if !isOperator(claims.Role) {
		if filter.CustomerID != uuid.Nil && filter.CustomerID != claims.UserID {
			writeForbidden(w, "customers can only list their own orders")
			return
		}
		filter.CustomerID = claims.UserID
	}

	if s := q.Get("start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeBadRequest(w, "invalid start_date format, use YYYY-MM-DD")
			return
		}
		filter.CreatedAfter = t
	}
	if s := q.Get("end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeBadRequest(w, "invalid end_date format, use YYYY-MM-DD")
			return
		}
		// end_date is inclusive of the whole day
		filter.CreatedBefore = t.AddDate(0, 0, 1)
	}

	orders, err := h.svc.ListOrders(r.Context(), filter)
	if err != nil {
		writeError(w, h.logger, "list orders", err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}

	writeJSON(w, http.StatusOK, orderListResponse{
		Orders: resp,
		Limit:  limit,
		Offset: offset,
	})
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadVisible(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

// Transition handles POST /orders/{id}/transitions.
func (h *OrderHandler) Transition(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated", "code": "unauthenticated"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, "invalid order ID")
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	trigger := enum.Trigger(req.Trigger)
	if !service.ValidTrigger(trigger) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown trigger: " + req.Trigger, "code": "invalid_trigger"})
		return
	}

	expected := enum.OrderStatus(req.ExpectedStatus)
	if expected != "" && !expected.Valid() {
		writeBadRequest(w, "invalid expected_status")
		return
	}

	if !isOperator(claims.Role) {
		if !service.IsPaymentTrigger(trigger) {
			writeForbidden(w, "customers may only choose a payment method")
			return
		}
		order, err := h.svc.GetOrder(r.Context(), orderID)
		if err != nil {
			writeError(w, h.logger, "get order", err)
			return
		}
		if order.CustomerID != claims.UserID {
			writeForbidden(w, "order belongs to another customer")
			return
		}
	}

	updated, err := h.svc.ApplyTransition(r.Context(), service.TransitionRequest{
		OrderID:        orderID,
		Trigger:        trigger,
		PaymentMethod:  enum.PaymentMethod(strings.ToUpper(req.PaymentMethod)),
		ExpectedStatus: expected,
	})
	if err != nil {
		writeError(w, h.logger, "apply transition", err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(*updated))
}

// Invoice handles GET /orders/{id}/invoice.
func (h *OrderHandler) Invoice(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadVisible(w, r)
	if !ok {
		return
	}
	text, err := h.svc.RenderInvoice(r.Context(), order.ID)
	if err != nil {
		writeError(w, h.logger, "render invoice", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"order_id": order.ID.String(), "invoice_text": text})
}

// QR handles GET /orders/{id}/qr and returns the pickup code as a PNG.
func (h *OrderHandler) QR(w http.ResponseWriter, r *http.Request) {
	size := defaultQRSize
	if s := r.URL.Query().Get("size"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < minQRSize || v > maxQRSize {
			writeBadRequest(w, "size must be between 64 and 1024")
			return
		}
		size = v
	}

	order, ok := h.loadVisible(w, r)
	if !ok {
		return
	}

	png, err := ticket.PNG(order.PickupCode, size)
	if err != nil {
		writeError(w, h.logger, "render qr", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(png) //nolint:errcheck
}

// loadVisible fetches the {id} order and checks the caller may see it.
// It writes the error response itself.
func (h *OrderHandler) loadVisible(w http.ResponseWriter, r *http.Request) (*model.Order, bool) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated", "code": "unauthenticated"})
		return nil, false
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, "invalid order ID")
		return nil, false
	}

	order, err := h.svc.GetOrder(r.Context(), orderID)
	if err != nil {
		writeError(w, h.logger, "get order", err)
		return nil, false
	}
	if !canView(claims, order) {
		writeForbidden(w, "order belongs to another customer")
		return nil, false
	}
	return order, true
}

func canView(claims *auth.Claims, o *model.Order) bool {
	return isOperator(claims.Role) || o.CustomerID == claims.UserID
}
