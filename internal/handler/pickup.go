package handler

import (
	"context"
	"net/http"

	"github.com/canteenconnect/api/internal/enum"
	"github.com/canteenconnect/api/internal/model"
	"github.com/canteenconnect/api/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PickupServicer is the part of the lifecycle the counter scanner needs.
// Satisfied by *service.OrderLifecycle.
type PickupServicer interface {
	ResolvePickupCode(ctx context.Context, code string) (*model.Order, error)
	ApplyTransition(ctx context.Context, req service.TransitionRequest) (*model.Order, error)
}

// PickupHandler serves the operator's code scanner.
type PickupHandler struct {
	svc    PickupServicer
	logger *zap.SugaredLogger
}

func NewPickupHandler(svc PickupServicer, logger *zap.SugaredLogger) *PickupHandler {
	return &PickupHandler{svc: svc, logger: logger}
}

// RegisterRoutes mounts at /pickup behind the operator role gate.
func (h *PickupHandler) RegisterRoutes(r chi.Router) {
	r.Get("/{code}", h.Resolve)
	r.Post("/{code}/confirm", h.Confirm)
}

// Resolve handles GET /pickup/{code}.
func (h *PickupHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	order, err := h.svc.ResolvePickupCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, h.logger, "resolve pickup code", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

// Confirm handles POST /pickup/{code}/confirm. The status seen at scan time is
// sent as the expected status, so a concurrent change surfaces as a conflict.
func (h *PickupHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	order, err := h.svc.ResolvePickupCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, h.logger, "resolve pickup code", err)
		return
	}

	updated, err := h.svc.ApplyTransition(r.Context(), service.TransitionRequest{
		OrderID:        order.ID,
		Trigger:        enum.TriggerConfirmPickup,
		ExpectedStatus: order.Status,
	})
	if err != nil {
		writeError(w, h.logger, "confirm pickup", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*updated))
}
