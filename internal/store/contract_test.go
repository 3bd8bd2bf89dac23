package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/canteenconnect/api/internal/enum"
	"github.com/canteenconnect/api/internal/model"
	"github.com/canteenconnect/api/internal/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backend is what both store implementations offer.
type backend interface {
	service.OrderStore
	service.Catalog
	ListMenuItems(ctx context.Context, onlyAvailable bool) ([]model.MenuItem, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (model.MenuItem, error)
	CreateMenuItem(ctx context.Context, item model.MenuItem) (model.MenuItem, error)
	UpdateMenuItem(ctx context.Context, item model.MenuItem) (model.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id uuid.UUID) error
}

func newOrder(customer uuid.UUID, code string, createdAt time.Time) model.Order {
	lines := []model.OrderLine{
		{MenuItemID: uuid.New(), Name: "Cheeseburger", Quantity: 2, UnitPrice: decimal.RequireFromString("8.99")},
		{MenuItemID: uuid.New(), Name: "Latte", Quantity: 1, UnitPrice: decimal.RequireFromString("4.50")},
	}
	return model.Order{
		ID:            uuid.New(),
		CustomerID:    customer,
		CustomerName:  "John Doe",
		Lines:         lines,
		Total:         model.LineTotal(lines),
		Status:        enum.OrderStatusAwaitingAcceptance,
		PaymentMethod: enum.PaymentMethodNone,
		PaymentStatus: enum.PaymentStatusPending,
		PickupCode:    code,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}

// runContract exercises the semantics every backend must share.
func runContract(t *testing.T, newBackend func(t *testing.T) backend) {
	t.Run("create and get", func(t *testing.T) {
		s := newBackend(t)
		ctx := context.Background()
		now := time.Now().UTC().Truncate(time.Millisecond)
		o := newOrder(uuid.New(), "CC-"+uuid.NewString()[:8], now)

		created, err := s.Create(ctx, o)
		require.NoError(t, err)
		assert.Equal(t, o.ID, created.ID)

		got, err := s.Get(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, "22.48", got.Total.StringFixed(2))
		require.Len(t, got.Lines, 2)
		assert.Equal(t, "Cheeseburger", got.Lines[0].Name)
		assert.Equal(t, int32(2), got.Lines[0].Quantity)
		assert.True(t, got.Lines[1].UnitPrice.Equal(decimal.RequireFromString("4.50")))
		assert.Equal(t, enum.OrderStatusAwaitingAcceptance, got.Status)

		byCode, err := s.GetByPickupCode(ctx, o.PickupCode)
		require.NoError(t, err)
		assert.Equal(t, o.ID, byCode.ID)
	})

	t.Run("missing order", func(t *testing.T) {
		s := newBackend(t)
		ctx := context.Background()
		_, err := s.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, service.ErrNotFound)
		_, err = s.GetByPickupCode(ctx, "CC-NOPE")
		assert.ErrorIs(t, err, service.ErrNotFound)
		_, err = s.CompareAndUpdate(ctx, uuid.New(), enum.OrderStatusAwaitingAcceptance, model.OrderUpdate{
			Status:        enum.OrderStatusAcceptedPendingPayment,
			PaymentMethod: enum.PaymentMethodNone,
			PaymentStatus: enum.PaymentStatusPending,
		})
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("duplicate pickup code", func(t *testing.T) {
		s := newBackend(t)
		ctx := context.Background()
		code := "CC-" + uuid.NewString()[:8]
		_, err := s.Create(ctx, newOrder(uuid.New(), code, time.Now()))
		require.NoError(t, err)

		_, err = s.Create(ctx, newOrder(uuid.New(), code, time.Now()))
		assert.ErrorIs(t, err, service.ErrDuplicateCode)
	})

	t.Run("compare and update", func(t *testing.T) {
		s := newBackend(t)
		ctx := context.Background()
		o := newOrder(uuid.New(), "CC-"+uuid.NewString()[:8], time.Now())
		_, err := s.Create(ctx, o)
		require.NoError(t, err)

		accept := model.OrderUpdate{
			Status:        enum.OrderStatusAcceptedPendingPayment,
			PaymentMethod: enum.PaymentMethodNone,
			PaymentStatus: enum.PaymentStatusPending,
		}
		updated, err := s.CompareAndUpdate(ctx, o.ID, enum.OrderStatusAwaitingAcceptance, accept)
		require.NoError(t, err)
		assert.Equal(t, enum.OrderStatusAcceptedPendingPayment, updated.Status)
		assert.Len(t, updated.Lines, 2)

		// Stale expectation loses.
		_, err = s.CompareAndUpdate(ctx, o.ID, enum.OrderStatusAwaitingAcceptance, accept)
		assert.ErrorIs(t, err, service.ErrConflict)

		got, err := s.Get(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, enum.OrderStatusAcceptedPendingPayment, got.Status)
	})

	t.Run("concurrent updates have one winner", func(t *testing.T) {
		s := newBackend(t)
		ctx := context.Background()
		o := newOrder(uuid.New(), "CC-"+uuid.NewString()[:8], time.Now())
		_, err := s.Create(ctx, o)
		require.NoError(t, err)

		const racers = 8
		var wg sync.WaitGroup
		errs := make([]error, racers)
		start := make(chan struct{})
		for i := 0; i < racers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				_, errs[i] = s.CompareAndUpdate(ctx, o.ID, enum.OrderStatusAwaitingAcceptance, model.OrderUpdate{
					Status:        enum.OrderStatusRejected,
					PaymentMethod: enum.PaymentMethodNone,
					PaymentStatus: enum.PaymentStatusPending,
				})
			}(i)
		}
		close(start)
		wg.Wait()

		wins := 0
		for _, err := range errs {
			if err == nil {
				wins++
				continue
			}
			assert.ErrorIs(t, err, service.ErrConflict)
		}
		assert.Equal(t, 1, wins)
	})

	t.Run("list newest first with filters", func(t *testing.T) {
		s := newBackend(t)
		ctx := context.Background()
		alice, bob := uuid.New(), uuid.New()
		base := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

		var ids []uuid.UUID
		for i, c := range []uuid.UUID{alice, bob, alice} {
			o := newOrder(c, "CC-"+uuid.NewString()[:8], base.Add(time.Duration(i)*time.Minute))
			_, err := s.Create(ctx, o)
			require.NoError(t, err)
			ids = append(ids, o.ID)
		}

		all, err := s.List(ctx, model.OrderFilter{Limit: 10})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, ids[2], all[0].ID)
		assert.Equal(t, ids[0], all[2].ID)
		assert.Len(t, all[0].Lines, 2)

		mine, err := s.List(ctx, model.OrderFilter{CustomerID: alice, Limit: 10})
		require.NoError(t, err)
		assert.Len(t, mine, 2)

		page, err := s.List(ctx, model.OrderFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, ids[1], page[0].ID)

		window, err := s.List(ctx, model.OrderFilter{
			CreatedAfter:  base.Add(time.Minute),
			CreatedBefore: base.Add(2 * time.Minute),
			Limit:         10,
		})
		require.NoError(t, err)
		require.Len(t, window, 1)
		assert.Equal(t, ids[1], window[0].ID)

		_, err = s.CompareAndUpdate(ctx, ids[1], enum.OrderStatusAwaitingAcceptance, model.OrderUpdate{
			Status:        enum.OrderStatusRejected,
			PaymentMethod: enum.PaymentMethodNone,
			PaymentStatus: enum.PaymentStatusPending,
		})
		require.NoError(t, err)
		rejected, err := s.List(ctx, model.OrderFilter{Statuses: []enum.OrderStatus{enum.OrderStatusRejected}, Limit: 10})
		require.NoError(t, err)
		require.Len(t, rejected, 1)
		assert.Equal(t, ids[1], rejected[0].ID)
	})

	t.Run("menu items", func(t *testing.T) {
		s := newBackend(t)
		ctx := context.Background()

		burger, err := s.CreateMenuItem(ctx, model.MenuItem{Name: "Cheeseburger", Price: decimal.RequireFromString("8.99"), Available: true})
		require.NoError(t, err)
		pasta, err := s.CreateMenuItem(ctx, model.MenuItem{Name: "Spaghetti Bolognese", Price: decimal.RequireFromString("11.50"), Available: false})
		require.NoError(t, err)

		got, err := s.GetAvailableItem(ctx, burger.ID)
		require.NoError(t, err)
		assert.True(t, got.Price.Equal(decimal.RequireFromString("8.99")))

		_, err = s.GetAvailableItem(ctx, pasta.ID)
		assert.ErrorIs(t, err, service.ErrNotFound)

		available, err := s.ListMenuItems(ctx, true)
		require.NoError(t, err)
		require.Len(t, available, 1)
		assert.Equal(t, burger.ID, available[0].ID)

		all, err := s.ListMenuItems(ctx, false)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		pasta.Available = true
		pasta.Price = decimal.RequireFromString("12.00")
		updated, err := s.UpdateMenuItem(ctx, pasta)
		require.NoError(t, err)
		assert.True(t, updated.Available)

		require.NoError(t, s.DeleteMenuItem(ctx, burger.ID))
		assert.ErrorIs(t, s.DeleteMenuItem(ctx, burger.ID), service.ErrNotFound)
		_, err = s.GetMenuItem(ctx, burger.ID)
		assert.ErrorIs(t, err, service.ErrNotFound)
		_, err = s.UpdateMenuItem(ctx, burger)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}
