package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/canteenconnect/api/internal/enum"
	"github.com/canteenconnect/api/internal/model"
	"github.com/canteenconnect/api/internal/service"
	"github.com/google/uuid"
)

var errDuplicateID = errors.New("order id already exists")

// record guards one order. Updates to different orders never share a lock.
type record struct {
	mu    sync.Mutex
	order model.Order
}

// Memory is an in-process OrderStore and Catalog. The index lock only covers
// lookup and insertion of records; per-order writes take the record's lock.
type Memory struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*record
	codes  map[string]uuid.UUID

	menuMu sync.RWMutex
	menu   map[uuid.UUID]model.MenuItem

	now func() time.Time
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		orders: make(map[uuid.UUID]*record),
		codes:  make(map[string]uuid.UUID),
		menu:   make(map[uuid.UUID]model.MenuItem),
		now:    time.Now,
	}
}

func (m *Memory) Create(_ context.Context, order model.Order) (model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[order.ID]; ok {
		return model.Order{}, errDuplicateID
	}
	if _, ok := m.codes[order.PickupCode]; ok {
		return model.Order{}, service.ErrDuplicateCode
	}
	stored := order.Clone()
	m.orders[order.ID] = &record{order: stored}
	m.codes[order.PickupCode] = order.ID
	return stored.Clone(), nil
}

func (m *Memory) record(id uuid.UUID) (*record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.orders[id]
	return r, ok
}

func (m *Memory) Get(_ context.Context, id uuid.UUID) (model.Order, error) {
	r, ok := m.record(id)
	if !ok {
		return model.Order{}, service.ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.order.Clone(), nil
}

func (m *Memory) GetByPickupCode(ctx context.Context, code string) (model.Order, error) {
	m.mu.RLock()
	id, ok := m.codes[code]
	m.mu.RUnlock()
	if !ok {
		return model.Order{}, service.ErrNotFound
	}
	return m.Get(ctx, id)
}

func (m *Memory) List(_ context.Context, filter model.OrderFilter) ([]model.Order, error) {
	m.mu.RLock()
	records := make([]*record, 0, len(m.orders))
	for _, r := range m.orders {
		records = append(records, r)
	}
	m.mu.RUnlock()

	out := []model.Order{}
	for _, r := range records {
		r.mu.Lock()
		o := r.order.Clone()
		r.mu.Unlock()
		if filter.Matches(o) {
			out = append(out, o)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() > out[j].ID.String()
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []model.Order{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *Memory) CompareAndUpdate(_ context.Context, id uuid.UUID, expected enum.OrderStatus, u model.OrderUpdate) (model.Order, error) {
	r, ok := m.record(id)
	if !ok {
		return model.Order{}, service.ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.order.Status != expected {
		return model.Order{}, service.ErrConflict
	}
	r.order = u.Apply(r.order, m.now())
	return r.order.Clone(), nil
}

// --- Catalog ---

func (m *Memory) GetAvailableItem(_ context.Context, id uuid.UUID) (model.MenuItem, error) {
	m.menuMu.RLock()
	defer m.menuMu.RUnlock()
	item, ok := m.menu[id]
	if !ok || !item.Available {
		return model.MenuItem{}, service.ErrNotFound
	}
	return item, nil
}

func (m *Memory) ListMenuItems(_ context.Context, onlyAvailable bool) ([]model.MenuItem, error) {
	m.menuMu.RLock()
	defer m.menuMu.RUnlock()
	out := []model.MenuItem{}
	for _, item := range m.menu {
		if onlyAvailable && !item.Available {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (m *Memory) GetMenuItem(_ context.Context, id uuid.UUID) (model.MenuItem, error) {
	m.menuMu.RLock()
	defer m.menuMu.RUnlock()
	item, ok := m.menu[id]
	if !ok {
		return model.MenuItem{}, service.ErrNotFound
	}
	return item, nil
}

func (m *Memory) CreateMenuItem(_ context.Context, item model.MenuItem) (model.MenuItem, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	now := m.now()
	item.CreatedAt = now
	item.UpdatedAt = now

	m.menuMu.Lock()
	defer m.menuMu.Unlock()
	m.menu[item.ID] = item
	return item, nil
}

func (m *Memory) UpdateMenuItem(_ context.Context, item model.MenuItem) (model.MenuItem, error) {
	m.menuMu.Lock()
	defer m.menuMu.Unlock()
	existing, ok := m.menu[item.ID]
	if !ok {
		return model.MenuItem{}, service.ErrNotFound
	}
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = m.now()
	m.menu[item.ID] = item
	return item, nil
}

func (m *Memory) DeleteMenuItem(_ context.Context, id uuid.UUID) error {
	m.menuMu.Lock()
	defer m.menuMu.Unlock()
	if _, ok := m.menu[id]; !ok {
		return service.ErrNotFound
	}
	delete(m.menu, id)
	return nil
}
