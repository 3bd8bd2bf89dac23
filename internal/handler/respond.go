package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/canteenconnect/api/internal/enum"
	"github.com/canteenconnect/api/internal/model"
	"github.com/canteenconnect/api/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	codeBadRequest = "bad_request"
	codeForbidden  = "forbidden"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg, "code": codeBadRequest})
}

func writeForbidden(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusForbidden, map[string]string{"error": msg, "code": codeForbidden})
}

// statusFor maps a service error code to its HTTP status.
func statusFor(code string) int {
	switch code {
	case "empty_cart", "invalid_line", "invalid_trigger", "invalid_payment_method", "invalid_customer":
		return http.StatusBadRequest
	case "not_found":
		return http.StatusNotFound
	case "invalid_transition", "conflict", "not_finalized":
		return http.StatusConflict
	case "external_failure":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders a lifecycle error. Server-side failures are logged with
// op and hidden from the client.
func writeError(w http.ResponseWriter, logger *zap.SugaredLogger, op string, err error) {
	code := service.Code(err)
	status := statusFor(code)
	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		logger.Errorw(op, "error", err)
		msg = "internal server error"
	case http.StatusBadGateway:
		logger.Errorw(op, "error", err)
		msg = "upstream service failed"
	}
	writeJSON(w, status, map[string]string{"error": msg, "code": code})
}

// --- Order response ---

type orderLineResponse struct {
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Name       string    `json:"name"`
	Quantity   int32     `json:"quantity"`
	UnitPrice  string    `json:"unit_price"`
	Subtotal   string    `json:"subtotal"`
}

type orderResponse struct {
	ID            uuid.UUID           `json:"id"`
	CustomerID    uuid.UUID           `json:"customer_id"`
	CustomerName  string              `json:"customer_name"`
	Status        string              `json:"status"`
	PaymentMethod string              `json:"payment_method"`
	PaymentStatus string              `json:"payment_status"`
	TotalAmount   string              `json:"total_amount"`
	PickupCode    string              `json:"pickup_code"`
	NextTriggers  []string            `json:"next_triggers"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	Items         []orderLineResponse `json:"items"`
}

// orderListResponse wraps a list of orders with pagination metadata.
type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

func toOrderResponse(o model.Order) orderResponse {
	items := make([]orderLineResponse, len(o.Lines))
	for i, l := range o.Lines {
		items[i] = orderLineResponse{
			MenuItemID: l.MenuItemID,
			Name:       l.Name,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice.StringFixed(2),
			Subtotal:   l.Subtotal().StringFixed(2),
		}
	}
	triggers := service.AllowedTriggers(o.Status)
	next := make([]string, len(triggers))
	for i, t := range triggers {
		next[i] = string(t)
	}
	return orderResponse{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		CustomerName:  o.CustomerName,
		Status:        string(o.Status),
		PaymentMethod: string(o.PaymentMethod),
		PaymentStatus: string(o.PaymentStatus),
		TotalAmount:   o.Total.StringFixed(2),
		PickupCode:    o.PickupCode,
		NextTriggers:  next,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
		Items:         items,
	}
}

func isOperator(role string) bool {
	return role == enum.UserRoleOperator
}
