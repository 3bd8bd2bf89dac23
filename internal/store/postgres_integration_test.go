//go:build integration

package store_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/canteenconnect/api/internal/database"
	"github.com/canteenconnect/api/internal/enum"
	"github.com/canteenconnect/api/internal/model"
	"github.com/canteenconnect/api/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestPostgresContract runs the shared store contract against a real
// PostgreSQL started in a container.
func TestPostgresContract(t *testing.T) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("canteen_test"),
		tcpostgres.WithUsername("canteen"),
		tcpostgres.WithPassword("canteen"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	if err := database.Migrate(connStr); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	runContract(t, func(t *testing.T) backend {
		if _, err := pool.Exec(ctx, `TRUNCATE order_lines, orders, menu_items`); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return store.NewPostgres(pool)
	})

	t.Run("line read failure leaves status untouched", func(t *testing.T) {
		healthy := store.NewPostgres(pool)
		o := newOrder(uuid.New(), "CC-"+uuid.NewString()[:8], time.Now().UTC().Truncate(time.Millisecond))
		_, err := healthy.Create(ctx, o)
		require.NoError(t, err)

		broken := store.NewPostgres(&failingLinesDB{Pool: pool})
		_, err = broken.CompareAndUpdate(ctx, o.ID, enum.OrderStatusAwaitingAcceptance, model.OrderUpdate{
			Status:        enum.OrderStatusAcceptedPendingPayment,
			PaymentMethod: o.PaymentMethod,
			PaymentStatus: o.PaymentStatus,
		})
		require.ErrorIs(t, err, errLinesUnavailable)

		got, err := healthy.Get(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, enum.OrderStatusAwaitingAcceptance, got.Status)
	})
}

var errLinesUnavailable = errors.New("order_lines unavailable")

// failingLinesDB fails every query that reads order lines and passes
// everything else through to the pool.
type failingLinesDB struct {
	*pgxpool.Pool
}

func (f *failingLinesDB) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	if strings.Contains(sql, "FROM order_lines") {
		return nil, errLinesUnavailable
	}
	return f.Pool.Query(ctx, sql, args...)
}
