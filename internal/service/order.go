package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/canteenconnect/api/internal/enum"
	"github.com/canteenconnect/api/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxPickupCodeRetries  = 3
	defaultInvoiceTimeout = 15 * time.Second
	defaultListLimit      = 20
	maxListLimit          = 100

	// maxLineQuantity caps a single line after duplicates are merged.
	maxLineQuantity = 10000
)

// Catalog resolves menu items when pricing a cart.
type Catalog interface {
	// GetAvailableItem returns ErrNotFound for unknown or unavailable items.
	GetAvailableItem(ctx context.Context, id uuid.UUID) (model.MenuItem, error)
}

// OrderStore persists orders. Satisfied by *store.Postgres and *store.Memory.
type OrderStore interface {
	Get(ctx context.Context, id uuid.UUID) (model.Order, error)
	GetByPickupCode(ctx context.Context, code string) (model.Order, error)
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)
	// Create returns ErrDuplicateCode when the pickup code is taken.
	Create(ctx context.Context, order model.Order) (model.Order, error)
	// CompareAndUpdate writes u only if the stored status still equals
	// expected, otherwise it returns ErrConflict.
	CompareAndUpdate(ctx context.Context, id uuid.UUID, expected enum.OrderStatus, u model.OrderUpdate) (model.Order, error)
}

// Ticketing issues and resolves pickup codes.
type Ticketing interface {
	Issue(ctx context.Context, orderID uuid.UUID) (string, error)
	// Resolve returns ErrNotFound for codes that were never issued.
	Resolve(ctx context.Context, code string) (uuid.UUID, error)
}

// InvoiceRenderer produces human-readable invoice text for an order.
type InvoiceRenderer interface {
	Render(ctx context.Context, order model.Order) (string, error)
}

// Event is published after an order was created or changed.
type Event struct {
	Type  string
	Order model.Order
}

// Notifier receives order events. Publish must not block for long.
type Notifier interface {
	Publish(ctx context.Context, ev Event)
}

// Deps wires the lifecycle to its collaborators. Notifier, Invoices and
// Logger are optional.
type Deps struct {
	Catalog        Catalog
	Store          OrderStore
	Tickets        Ticketing
	Invoices       InvoiceRenderer
	Notifier       Notifier
	InvoiceTimeout time.Duration
	Logger         *zap.SugaredLogger
	Now            func() time.Time
}

// OrderLifecycle owns the order state machine.
type OrderLifecycle struct {
	catalog        Catalog
	store          OrderStore
	tickets        Ticketing
	invoices       InvoiceRenderer
	notifier       Notifier
	invoiceTimeout time.Duration
	logger         *zap.SugaredLogger
	now            func() time.Time
}

// NewOrderLifecycle creates a new OrderLifecycle.
func NewOrderLifecycle(d Deps) *OrderLifecycle {
	s := &OrderLifecycle{
		catalog:        d.Catalog,
		store:          d.Store,
		tickets:        d.Tickets,
		invoices:       d.Invoices,
		notifier:       d.Notifier,
		invoiceTimeout: d.InvoiceTimeout,
		logger:         d.Logger,
		now:            d.Now,
	}
	if s.invoiceTimeout <= 0 {
		s.invoiceTimeout = defaultInvoiceTimeout
	}
	if s.logger == nil {
		s.logger = zap.NewNop().Sugar()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// CartLine is one requested menu item.
type CartLine struct {
	MenuItemID string
	Quantity   int32
}

// PlaceOrderRequest is the input for creating an order.
type PlaceOrderRequest struct {
	CustomerID   uuid.UUID
	CustomerName string
	Lines        []CartLine
}

// TransitionRequest is the input for ApplyTransition.
type TransitionRequest struct {
	OrderID uuid.UUID
	Trigger enum.Trigger
	// PaymentMethod is optional; payment triggers imply it.
	PaymentMethod enum.PaymentMethod
	// ExpectedStatus, when set, is the status the caller last saw. A mismatch
	// fails with ErrConflict before anything is written.
	ExpectedStatus enum.OrderStatus
}

type mergedLine struct {
	index    int
	raw      string
	id       uuid.UUID
	quantity int32
}

// PlaceOrder validates the cart, snapshots prices, binds a pickup code and
// persists the order. Either the whole order is stored or nothing is.
func (s *OrderLifecycle) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*model.Order, error) {
	if req.CustomerID == uuid.Nil {
		return nil, ErrInvalidCustomer
	}
	if len(req.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	merged, err := mergeLines(req.Lines)
	if err != nil {
		return nil, err
	}

	lines := make([]model.OrderLine, 0, len(merged))
	for _, m := range merged {
		item, err := s.catalog.GetAvailableItem(ctx, m.id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, &LineError{Index: m.index, MenuItemID: m.raw, Reason: "menu item not found or unavailable"}
			}
			return nil, external("catalog", err)
		}
		lines = append(lines, model.OrderLine{
			MenuItemID: item.ID,
			Name:       item.Name,
			Quantity:   m.quantity,
			UnitPrice:  item.Price,
		})
	}

	now := s.now()
	order := model.Order{
		CustomerID:    req.CustomerID,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		Lines:         lines,
		Total:         model.LineTotal(lines),
		Status:        enum.OrderStatusAwaitingAcceptance,
		PaymentMethod: enum.PaymentMethodNone,
		PaymentStatus: enum.PaymentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// Retry loop: a freshly issued code can collide with an existing one.
	var lastErr error
	for attempt := 0; attempt < maxPickupCodeRetries; attempt++ {
		order.ID = uuid.New()
		code, err := s.tickets.Issue(ctx, order.ID)
		if err != nil {
			return nil, external("ticketing", err)
		}
		order.PickupCode = code

		created, err := s.store.Create(ctx, order)
		if err == nil {
			s.logger.Infow("order placed",
				"order_id", created.ID,
				"customer_id", created.CustomerID,
				"total", created.Total.StringFixed(2),
			)
			s.publish(ctx, enum.EventOrderCreated, created)
			return &created, nil
		}
		if errors.Is(err, ErrDuplicateCode) {
			lastErr = err
			continue
		}
		return nil, external("order store: create", err)
	}
	return nil, external("ticketing", lastErr)
}

// mergeLines validates cart lines and folds repeated menu items together,
// keeping the position of the first occurrence.
func mergeLines(in []CartLine) ([]mergedLine, error) {
	out := make([]mergedLine, 0, len(in))
	pos := make(map[uuid.UUID]int, len(in))
	for i, l := range in {
		if l.Quantity <= 0 {
			return nil, &LineError{Index: i, MenuItemID: l.MenuItemID, Reason: "quantity must be > 0"}
		}
		if l.Quantity > maxLineQuantity {
			return nil, &LineError{Index: i, MenuItemID: l.MenuItemID, Reason: "quantity too large"}
		}
		id, err := uuid.Parse(l.MenuItemID)
		if err != nil {
			return nil, &LineError{Index: i, MenuItemID: l.MenuItemID, Reason: "invalid menu_item_id"}
		}
		if j, ok := pos[id]; ok {
			// Sum in int64 so two large quantities cannot wrap around.
			sum := int64(out[j].quantity) + int64(l.Quantity)
			if sum > maxLineQuantity {
				return nil, &LineError{Index: i, MenuItemID: l.MenuItemID, Reason: "quantity too large"}
			}
			out[j].quantity = int32(sum)
			continue
		}
		pos[id] = len(out)
		out = append(out, mergedLine{index: i, raw: l.MenuItemID, id: id, quantity: l.Quantity})
	}
	return out, nil
}

// ApplyTransition fires a trigger on an order. The write is conditional on the
// status read here, so of two racing callers exactly one wins and the other
// gets ErrConflict. Conflicts are never retried here.
func (s *OrderLifecycle) ApplyTransition(ctx context.Context, req TransitionRequest) (*model.Order, error) {
	if _, err := checkTrigger(req.Trigger, req.PaymentMethod); err != nil {
		return nil, err
	}

	current, err := s.get(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	if req.ExpectedStatus != "" && req.ExpectedStatus != current.Status {
		return nil, fmt.Errorf("order %s is %s, caller expected %s: %w",
			current.ID, current.Status, req.ExpectedStatus, ErrConflict)
	}

	update, err := Next(current, req.Trigger, req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.CompareAndUpdate(ctx, current.ID, current.Status, update)
	if err != nil {
		switch {
		case errors.Is(err, ErrConflict):
			return nil, fmt.Errorf("order %s left %s before %s landed: %w", current.ID, current.Status, req.Trigger, ErrConflict)
		case errors.Is(err, ErrNotFound):
			return nil, fmt.Errorf("order %s: %w", current.ID, ErrNotFound)
		}
		return nil, external("order store: update", err)
	}

	s.logger.Infow("order transitioned",
		"order_id", updated.ID,
		"trigger", req.Trigger,
		"from", current.Status,
		"to", updated.Status,
		"payment_method", updated.PaymentMethod,
		"payment_status", updated.PaymentStatus,
	)
	s.publish(ctx, enum.EventOrderUpdated, updated)
	return &updated, nil
}

// ResolvePickupCode looks up the order bound to a scanned code. An unknown
// code yields ErrNotFound.
func (s *OrderLifecycle) ResolvePickupCode(ctx context.Context, code string) (*model.Order, error) {
	id, err := s.tickets.Resolve(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("pickup code %q: %w", code, ErrNotFound)
		}
		return nil, external("ticketing: resolve", err)
	}
	order, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrder returns a single order.
func (s *OrderLifecycle) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns orders matching filter, newest first.
func (s *OrderLifecycle) ListOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	orders, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, external("order store: list", err)
	}
	return orders, nil
}

// RenderInvoice produces invoice text for an order that has a payment method.
// The renderer runs under its own deadline and never changes order state.
func (s *OrderLifecycle) RenderInvoice(ctx context.Context, id uuid.UUID) (string, error) {
	order, err := s.get(ctx, id)
	if err != nil {
		return "", err
	}
	if order.PaymentMethod == enum.PaymentMethodNone {
		return "", fmt.Errorf("order %s: %w", order.ID, ErrNotFinalized)
	}
	if s.invoices == nil {
		return "", external("invoice renderer", errors.New("not configured"))
	}

	ctx, cancel := context.WithTimeout(ctx, s.invoiceTimeout)
	defer cancel()

	text, err := s.invoices.Render(ctx, order)
	if err != nil {
		return "", external("invoice renderer", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", external("invoice renderer", errors.New("empty invoice text"))
	}
	return text, nil
}

func (s *OrderLifecycle) get(ctx context.Context, id uuid.UUID) (model.Order, error) {
	order, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.Order{}, fmt.Errorf("order %s: %w", id, ErrNotFound)
		}
		return model.Order{}, external("order store: get", err)
	}
	return order, nil
}

func (s *OrderLifecycle) publish(ctx context.Context, typ string, o model.Order) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(ctx, Event{Type: typ, Order: o.Clone()})
}
