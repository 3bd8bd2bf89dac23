package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/canteenconnect/api/internal/database"
	"github.com/canteenconnect/api/internal/enum"
	"github.com/canteenconnect/api/internal/model"
	"github.com/canteenconnect/api/internal/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DB is satisfied by *pgxpool.Pool.
type DB interface {
	database.DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Postgres implements service.OrderStore and service.Catalog on PostgreSQL.
type Postgres struct {
	db  DB
	q   *database.Queries
	now func() time.Time
}

// NewPostgres creates a Postgres store over db.
func NewPostgres(db DB) *Postgres {
	return &Postgres{db: db, q: database.New(db), now: time.Now}
}

// isPickupCodeConflict checks for a unique violation on the pickup code
// (pgconn error code 23505).
func isPickupCodeConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_pickup_code_key"
	}
	return false
}

// Create inserts the order and its lines in one transaction.
func (p *Postgres) Create(ctx context.Context, order model.Order) (model.Order, error) {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return model.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	q := p.q.WithTx(tx)

	row, err := q.CreateOrder(ctx, database.CreateOrderParams{
		ID:            order.ID,
		CustomerID:    order.CustomerID,
		CustomerName:  order.CustomerName,
		Total:         decimalToNumeric(order.Total),
		Status:        string(order.Status),
		PaymentMethod: string(order.PaymentMethod),
		PaymentStatus: string(order.PaymentStatus),
		PickupCode:    order.PickupCode,
		CreatedAt:     order.CreatedAt,
	})
	if err != nil {
		if isPickupCodeConflict(err) {
			return model.Order{}, service.ErrDuplicateCode
		}
		return model.Order{}, fmt.Errorf("create order: %w", err)
	}

	lines := make([]database.OrderLine, 0, len(order.Lines))
	for i, l := range order.Lines {
		line, err := q.CreateOrderLine(ctx, database.CreateOrderLineParams{
			OrderID:    row.ID,
			Position:   int32(i),
			MenuItemID: l.MenuItemID,
			Name:       l.Name,
			Quantity:   l.Quantity,
			UnitPrice:  decimalToNumeric(l.UnitPrice),
		})
		if err != nil {
			return model.Order{}, fmt.Errorf("create order line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Order{}, fmt.Errorf("commit tx: %w", err)
	}
	return toModelOrder(row, lines), nil
}

func (p *Postgres) Get(ctx context.Context, id uuid.UUID) (model.Order, error) {
	row, err := p.q.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Order{}, service.ErrNotFound
		}
		return model.Order{}, fmt.Errorf("get order: %w", err)
	}
	return p.withLines(ctx, row)
}

func (p *Postgres) GetByPickupCode(ctx context.Context, code string) (model.Order, error) {
	row, err := p.q.GetOrderByPickupCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Order{}, service.ErrNotFound
		}
		return model.Order{}, fmt.Errorf("get order by pickup code: %w", err)
	}
	return p.withLines(ctx, row)
}

func (p *Postgres) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	params := database.ListOrdersParams{
		Limit:  int32(filter.Limit),
		Offset: int32(filter.Offset),
	}
	for _, s := range filter.Statuses {
		params.Statuses = append(params.Statuses, string(s))
	}
	if filter.CustomerID != uuid.Nil {
		params.CustomerID = pgtype.UUID{Bytes: filter.CustomerID, Valid: true}
	}
	if !filter.CreatedAfter.IsZero() {
		params.StartDate = pgtype.Timestamptz{Time: filter.CreatedAfter, Valid: true}
	}
	if !filter.CreatedBefore.IsZero() {
		params.EndDate = pgtype.Timestamptz{Time: filter.CreatedBefore, Valid: true}
	}

	rows, err := p.q.ListOrders(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if len(rows) == 0 {
		return []model.Order{}, nil
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID.String()
	}
	lines, err := p.q.ListOrderLines(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}
	byOrder := make(map[uuid.UUID][]database.OrderLine, len(rows))
	for _, l := range lines {
		byOrder[l.OrderID] = append(byOrder[l.OrderID], l)
	}

	out := make([]model.Order, len(rows))
	for i, r := range rows {
		out[i] = toModelOrder(r, byOrder[r.ID])
	}
	return out, nil
}

// CompareAndUpdate runs a single conditional UPDATE. When no row matches it
// reads the order once more to tell a missing order from a lost race.
func (p *Postgres) CompareAndUpdate(ctx context.Context, id uuid.UUID, expected enum.OrderStatus, u model.OrderUpdate) (model.Order, error) {
	// Lines never change after creation. Reading them first means a failed
	// read can only happen before the row is written.
	lines, err := p.q.ListOrderLines(ctx, []string{id.String()})
	if err != nil {
		return model.Order{}, fmt.Errorf("list order lines: %w", err)
	}

	row, err := p.q.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:             id,
		Status:         string(u.Status),
		PaymentMethod:  string(u.PaymentMethod),
		PaymentStatus:  string(u.PaymentStatus),
		ExpectedStatus: string(expected),
		UpdatedAt:      p.now(),
	})
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return model.Order{}, fmt.Errorf("update order status: %w", err)
		}
		if _, getErr := p.q.GetOrder(ctx, id); getErr != nil {
			if errors.Is(getErr, pgx.ErrNoRows) {
				return model.Order{}, service.ErrNotFound
			}
			return model.Order{}, fmt.Errorf("get order after failed update: %w", getErr)
		}
		return model.Order{}, service.ErrConflict
	}
	return toModelOrder(row, lines), nil
}

func (p *Postgres) withLines(ctx context.Context, row database.Order) (model.Order, error) {
	lines, err := p.q.ListOrderLines(ctx, []string{row.ID.String()})
	if err != nil {
		return model.Order{}, fmt.Errorf("list order lines: %w", err)
	}
	return toModelOrder(row, lines), nil
}

// --- Catalog ---

func (p *Postgres) GetAvailableItem(ctx context.Context, id uuid.UUID) (model.MenuItem, error) {
	row, err := p.q.GetAvailableMenuItem(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.MenuItem{}, service.ErrNotFound
		}
		return model.MenuItem{}, fmt.Errorf("get available menu item: %w", err)
	}
	return toModelMenuItem(row), nil
}

func (p *Postgres) ListMenuItems(ctx context.Context, onlyAvailable bool) ([]model.MenuItem, error) {
	rows, err := p.q.ListMenuItems(ctx, onlyAvailable)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	out := make([]model.MenuItem, len(rows))
	for i, r := range rows {
		out[i] = toModelMenuItem(r)
	}
	return out, nil
}

func (p *Postgres) GetMenuItem(ctx context.Context, id uuid.UUID) (model.MenuItem, error) {
	row, err := p.q.GetMenuItem(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.MenuItem{}, service.ErrNotFound
		}
		return model.MenuItem{}, fmt.Errorf("get menu item: %w", err)
	}
	return toModelMenuItem(row), nil
}

func (p *Postgres) CreateMenuItem(ctx context.Context, item model.MenuItem) (model.MenuItem, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	row, err := p.q.CreateMenuItem(ctx, database.CreateMenuItemParams{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Price:       decimalToNumeric(item.Price),
		Available:   item.Available,
	})
	if err != nil {
		return model.MenuItem{}, fmt.Errorf("create menu item: %w", err)
	}
	return toModelMenuItem(row), nil
}

func (p *Postgres) UpdateMenuItem(ctx context.Context, item model.MenuItem) (model.MenuItem, error) {
	row, err := p.q.UpdateMenuItem(ctx, database.UpdateMenuItemParams{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Price:       decimalToNumeric(item.Price),
		Available:   item.Available,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.MenuItem{}, service.ErrNotFound
		}
		return model.MenuItem{}, fmt.Errorf("update menu item: %w", err)
	}
	return toModelMenuItem(row), nil
}

func (p *Postgres) DeleteMenuItem(ctx context.Context, id uuid.UUID) error {
	n, err := p.q.DeleteMenuItem(ctx, id)
	if err != nil {
		return fmt.Errorf("delete menu item: %w", err)
	}
	if n == 0 {
		return service.ErrNotFound
	}
	return nil
}
