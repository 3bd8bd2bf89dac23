package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/canteenconnect/api/internal/model"
	"github.com/canteenconnect/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MenuStore defines the catalog methods needed by menu handlers.
// Satisfied by *store.Postgres and *store.Memory; narrow interface for testability.
type MenuStore interface {
	ListMenuItems(ctx context.Context, onlyAvailable bool) ([]model.MenuItem, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (model.MenuItem, error)
	CreateMenuItem(ctx context.Context, item model.MenuItem) (model.MenuItem, error)
	UpdateMenuItem(ctx context.Context, item model.MenuItem) (model.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id uuid.UUID) error
}

// MenuHandler handles menu endpoints.
type MenuHandler struct {
	store  MenuStore
	logger *zap.SugaredLogger
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(store MenuStore, logger *zap.SugaredLogger) *MenuHandler {
	return &MenuHandler{store: store, logger: logger}
}

// RegisterRoutes registers the read endpoints every signed-in user may call.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
}

// RegisterAdminRoutes registers the write endpoints. Mount behind an
// operator role gate.
func (h *MenuHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type menuItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Available   *bool  `json:"available"`
}

type menuItemResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	Available   bool      `json:"available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toMenuItemResponse(m model.MenuItem) menuItemResponse {
	return menuItemResponse{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price.StringFixed(2),
		Available:   m.Available,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

var errNegativePrice = errors.New("price must be >= 0")

// parsePrice accepts non-negative amounts with at most two decimal places.
func parsePrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, err
	}
	if d.IsNegative() {
		return decimal.Decimal{}, errNegativePrice
	}
	if !d.Equal(d.Round(2)) {
		return decimal.Decimal{}, errors.New("price has more than two decimal places")
	}
	return d, nil
}

// toMenuItem validates a create/update body.
func (req menuItemRequest) toMenuItem(id uuid.UUID) (model.MenuItem, string) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return model.MenuItem{}, "name is required"
	}
	if req.Price == "" {
		return model.MenuItem{}, "price is required"
	}
	price, err := parsePrice(req.Price)
	if err != nil {
		if errors.Is(err, errNegativePrice) {
			return model.MenuItem{}, "price must be >= 0"
		}
		return model.MenuItem{}, "invalid price"
	}
	available := true
	if req.Available != nil {
		available = *req.Available
	}
	return model.MenuItem{
		ID:          id,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Price:       price,
		Available:   available,
	}, ""
}

// --- Handlers ---

// List handles GET /menu. ?available=true hides items that cannot be ordered.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	onlyAvailable := r.URL.Query().Get("available") == "true"
	items, err := h.store.ListMenuItems(r.Context(), onlyAvailable)
	if err != nil {
		writeError(w, h.logger, "list menu items", err)
		return
	}
	resp := make([]menuItemResponse, len(items))
	for i, m := range items {
		resp[i] = toMenuItemResponse(m)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /menu/{id}.
func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, "invalid menu item ID")
		return
	}
	item, err := h.store.GetMenuItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found", "code": "not_found"})
			return
		}
		writeError(w, h.logger, "get menu item", err)
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// Create handles POST /menu.
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	item, msg := req.toMenuItem(uuid.Nil)
	if msg != "" {
		writeBadRequest(w, msg)
		return
	}
	created, err := h.store.CreateMenuItem(r.Context(), item)
	if err != nil {
		writeError(w, h.logger, "create menu item", err)
		return
	}
	writeJSON(w, http.StatusCreated, toMenuItemResponse(created))
}

// Update handles PUT /menu/{id}. The body replaces the item; placed orders
// keep the name and price they were priced with.
func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, "invalid menu item ID")
		return
	}
	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	item, msg := req.toMenuItem(id)
	if msg != "" {
		writeBadRequest(w, msg)
		return
	}
	updated, err := h.store.UpdateMenuItem(r.Context(), item)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found", "code": "not_found"})
			return
		}
		writeError(w, h.logger, "update menu item", err)
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemResponse(updated))
}

// Delete handles DELETE /menu/{id}.
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, "invalid menu item ID")
		return
	}
	if err := h.store.DeleteMenuItem(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found", "code": "not_found"})
			return
		}
		writeError(w, h.logger, "delete menu item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
