package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/canteenconnect/api/internal/auth"
	"github.com/canteenconnect/api/internal/enum"
	"github.com/canteenconnect/api/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const testJWTSecret = "test-secret"

// doAuthRequest sends a request carrying a real JWT for claims.
func doAuthRequest(t *testing.T, router http.Handler, method, path string, body interface{}, claims *auth.Claims) *httptest.ResponseRecorder {
	t.Helper()

	token, err := auth.GenerateToken(testJWTSecret, claims.UserID, claims.Name, claims.Role, time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v; body: %s", err, rr.Body.String())
	}
}

func operatorClaims() *auth.Claims {
	return &auth.Claims{UserID: uuid.New(), Name: "Counter", Role: enum.UserRoleOperator}
}

func customerClaims() *auth.Claims {
	return &auth.Claims{UserID: uuid.New(), Name: "John Doe", Role: enum.UserRoleCustomer}
}

func testOrder(customerID uuid.UUID, status enum.OrderStatus) model.Order {
	now := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	lines := []model.OrderLine{
		{MenuItemID: uuid.New(), Name: "Cheeseburger", Quantity: 2, UnitPrice: decimal.RequireFromString("8.99")},
		{MenuItemID: uuid.New(), Name: "Latte", Quantity: 1, UnitPrice: decimal.RequireFromString("4.50")},
	}
	return model.Order{
		ID:            uuid.New(),
		CustomerID:    customerID,
		CustomerName:  "John Doe",
		Lines:         lines,
		Total:         model.LineTotal(lines),
		Status:        status,
		PaymentMethod: enum.PaymentMethodNone,
		PaymentStatus: enum.PaymentStatusPending,
		PickupCode:    "CC-0123456789ABCDEF",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
