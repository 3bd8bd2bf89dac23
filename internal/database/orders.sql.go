package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, customer_id, customer_name, total, status, payment_method, payment_status, pickup_code, created_at, updated_at`

func scanOrder(row interface{ Scan(dest ...interface{}) error }) (Order, error) {
	var i Order
	err := row.Scan(
		&i.ID,
		&i.CustomerID,
		&i.CustomerName,
		&i.Total,
		&i.Status,
		&i.PaymentMethod,
		&i.PaymentStatus,
		&i.PickupCode,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createOrder = `-- name: CreateOrder :one
INSERT INTO orders (id, customer_id, customer_name, total, status, payment_method, payment_status, pickup_code, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	ID            uuid.UUID      `json:"id"`
	CustomerID    uuid.UUID      `json:"customer_id"`
	CustomerName  string         `json:"customer_name"`
	Total         pgtype.Numeric `json:"total"`
	Status        string         `json:"status"`
	PaymentMethod string         `json:"payment_method"`
	PaymentStatus string         `json:"payment_status"`
	PickupCode    string         `json:"pickup_code"`
	CreatedAt     time.Time      `json:"created_at"`
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.ID,
		arg.CustomerID,
		arg.CustomerName,
		arg.Total,
		arg.Status,
		arg.PaymentMethod,
		arg.PaymentStatus,
		arg.PickupCode,
		arg.CreatedAt,
	)
	return scanOrder(row)
}

const createOrderLine = `-- name: CreateOrderLine :one
INSERT INTO order_lines (order_id, position, menu_item_id, name, quantity, unit_price)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING order_id, position, menu_item_id, name, quantity, unit_price`

type CreateOrderLineParams struct {
	OrderID    uuid.UUID      `json:"order_id"`
	Position   int32          `json:"position"`
	MenuItemID uuid.UUID      `json:"menu_item_id"`
	Name       string         `json:"name"`
	Quantity   int32          `json:"quantity"`
	UnitPrice  pgtype.Numeric `json:"unit_price"`
}

func (q *Queries) CreateOrderLine(ctx context.Context, arg CreateOrderLineParams) (OrderLine, error) {
	row := q.db.QueryRow(ctx, createOrderLine,
		arg.OrderID,
		arg.Position,
		arg.MenuItemID,
		arg.Name,
		arg.Quantity,
		arg.UnitPrice,
	)
	var i OrderLine
	err := row.Scan(
		&i.OrderID,
		&i.Position,
		&i.MenuItemID,
		&i.Name,
		&i.Quantity,
		&i.UnitPrice,
	)
	return i, err
}

const getOrder = `-- name: GetOrder :one
SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const getOrderByPickupCode = `-- name: GetOrderByPickupCode :one
SELECT ` + orderColumns + ` FROM orders WHERE pickup_code = $1`

func (q *Queries) GetOrderByPickupCode(ctx context.Context, pickupCode string) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderByPickupCode, pickupCode))
}

const listOrders = `-- name: ListOrders :many
SELECT ` + orderColumns + ` FROM orders
WHERE (COALESCE(cardinality($1::text[]), 0) = 0 OR status = ANY($1::text[]))
  AND ($2::uuid IS NULL OR customer_id = $2::uuid)
  AND ($3::timestamptz IS NULL OR created_at >= $3::timestamptz)
  AND ($4::timestamptz IS NULL OR created_at < $4::timestamptz)
ORDER BY created_at DESC, id DESC
LIMIT $5 OFFSET $6`

type ListOrdersParams struct {
	Statuses   []string           `json:"statuses"`
	CustomerID pgtype.UUID        `json:"customer_id"`
	StartDate  pgtype.Timestamptz `json:"start_date"`
	EndDate    pgtype.Timestamptz `json:"end_date"`
	Limit      int32              `json:"limit"`
	Offset     int32              `json:"offset"`
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	statuses := arg.Statuses
	if statuses == nil {
		statuses = []string{}
	}
	rows, err := q.db.Query(ctx, listOrders,
		statuses,
		arg.CustomerID,
		arg.StartDate,
		arg.EndDate,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Order{}
	for rows.Next() {
		i, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listOrderLines = `-- name: ListOrderLines :many
SELECT order_id, position, menu_item_id, name, quantity, unit_price
FROM order_lines
WHERE order_id = ANY($1::uuid[])
ORDER BY order_id, position`

// ListOrderLines returns the lines of every order in orderIDs.
func (q *Queries) ListOrderLines(ctx context.Context, orderIDs []string) ([]OrderLine, error) {
	rows, err := q.db.Query(ctx, listOrderLines, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []OrderLine{}
	for rows.Next() {
		var i OrderLine
		if err := rows.Scan(
			&i.OrderID,
			&i.Position,
			&i.MenuItemID,
			&i.Name,
			&i.Quantity,
			&i.UnitPrice,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateOrderStatus = `-- name: UpdateOrderStatus :one
UPDATE orders
SET status = $2, payment_method = $3, payment_status = $4, updated_at = $6
WHERE id = $1 AND status = $5
RETURNING ` + orderColumns

type UpdateOrderStatusParams struct {
	ID             uuid.UUID `json:"id"`
	Status         string    `json:"status"`
	PaymentMethod  string    `json:"payment_method"`
	PaymentStatus  string    `json:"payment_status"`
	ExpectedStatus string    `json:"expected_status"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UpdateOrderStatus returns pgx.ErrNoRows when the order is missing or its
// status is no longer ExpectedStatus.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderStatus,
		arg.ID,
		arg.Status,
		arg.PaymentMethod,
		arg.PaymentStatus,
		arg.ExpectedStatus,
		arg.UpdatedAt,
	)
	return scanOrder(row)
}
