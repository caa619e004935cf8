package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-restaurant-ordering/models"
)

func newSQLiteStore(t *testing.T) Store {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

// newMongoStore needs a replica set, since units of work are multi-document
// transactions.
func newMongoStore(t *testing.T) Store {
	t.Helper()
	uri := os.Getenv("MONGODB_URL")
	if uri == "" {
		t.Skip("MONGODB_URL not set")
	}
	ctx := context.Background()
	store, err := OpenMongo(ctx, uri, "restaurant_test_"+primitive.NewObjectID().Hex(), 0)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	t.Cleanup(func() {
		_ = store.db.Drop(context.Background())
		_ = store.Close(context.Background())
	})
	return store
}

func backends(t *testing.T, fn func(t *testing.T, store Store)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, newSQLiteStore(t)) })
	t.Run("mongo", func(t *testing.T) { fn(t, newMongoStore(t)) })
}

func seed(t *testing.T, store Store, id string, stock int) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, store.CreateMenu(context.Background(), &models.Menu{
		ID: id, Name: "Item " + id, Price: 1000, Stock: stock, Is_available: true, Created_at: now, Updated_at: now,
	}))
}

func TestDecrementStockIsConditional(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		seed(t, store, "m1", 3)

		err := RunInTx(ctx, store, func(tx Tx) error {
			left, err := tx.DecrementStock(ctx, "m1", 2)
			require.NoError(t, err)
			assert.Equal(t, 1, left)

			_, err = tx.DecrementStock(ctx, "m1", 2)
			assert.ErrorIs(t, err, ErrConflict)

			_, err = tx.DecrementStock(ctx, "ghost", 1)
			assert.ErrorIs(t, err, ErrNotFound)
			return nil
		})
		require.NoError(t, err)

		menu, err := store.FindMenu(ctx, "m1")
		require.NoError(t, err)
		assert.Equal(t, 1, menu.Stock)
	})
}

func TestRunInTxRollsBack(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		seed(t, store, "m1", 5)
		boom := errors.New("boom")

		err := RunInTx(ctx, store, func(tx Tx) error {
			_, err := tx.DecrementStock(ctx, "m1", 5)
			require.NoError(t, err)
			require.NoError(t, tx.AppendLog(ctx, models.NewLogEntry("u", models.ActionStockUpdated, "gone")))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		assert.Panics(t, func() {
			_ = RunInTx(ctx, store, func(tx Tx) error {
				_, _ = tx.DecrementStock(ctx, "m1", 1)
				panic("kaboom")
			})
		})

		menu, err := store.FindMenu(ctx, "m1")
		require.NoError(t, err)
		assert.Equal(t, 5, menu.Stock)
		logs, err := store.ListLogs(ctx, LogFilter{})
		require.NoError(t, err)
		assert.Empty(t, logs)
	})
}

func TestSetStockCompareAndSet(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		seed(t, store, "m1", 4)

		err := RunInTx(ctx, store, func(tx Tx) error {
			menu, err := tx.FindMenuForUpdate(ctx, "m1")
			require.NoError(t, err)
			assert.ErrorIs(t, tx.SetStock(ctx, "m1", menu.Stock+1, 10), ErrConflict)
			return tx.SetStock(ctx, "m1", menu.Stock, 10)
		})
		require.NoError(t, err)

		menu, err := store.FindMenu(ctx, "m1")
		require.NoError(t, err)
		assert.Equal(t, 10, menu.Stock)

		err = RunInTx(ctx, store, func(tx Tx) error {
			_, err := tx.FindMenuForUpdate(ctx, "ghost")
			return err
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestOrdersRoundTrip(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		now := time.Now().UTC().Truncate(time.Millisecond)
		order := models.Order{
			ID: models.NewID(), Table_id: "t1", Order_status: models.OrderStatusPending,
			Payment_status: models.PaymentStatusPending, Total_amount: 3000, Order_time: now, Created_at: now, Updated_at: now,
		}
		items := []models.OrderItem{
			{ID: models.NewID(), Order_id: order.ID, Menu_id: "m1", Price: 1000, Quantity: 3, Subtotal: 3000, Created_at: now},
		}
		require.NoError(t, RunInTx(ctx, store, func(tx Tx) error {
			return tx.CreateOrder(ctx, &order, items)
		}))

		got, gotItems, err := store.FindOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3000), got.Total_amount)
		require.Len(t, gotItems, 1)
		assert.Equal(t, 3, gotItems[0].Quantity)

		next := *got
		next.Order_status = models.OrderStatusCooking
		require.NoError(t, RunInTx(ctx, store, func(tx Tx) error {
			return tx.UpdateOrderStatus(ctx, &next, models.OrderStatusPending, models.PaymentStatusPending)
		}))
		err = RunInTx(ctx, store, func(tx Tx) error {
			return tx.UpdateOrderStatus(ctx, &next, models.OrderStatusPending, models.PaymentStatusPending)
		})
		assert.ErrorIs(t, err, ErrConflict)

		cooking, err := store.ListOrders(ctx, OrderFilter{OrderStatus: models.OrderStatusCooking})
		require.NoError(t, err)
		assert.Len(t, cooking, 1)

		_, _, err = store.FindOrder(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestNotFoundMapping(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		_, err := store.FindMenu(ctx, "ghost")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = store.FindTable(ctx, "ghost")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = store.FindCategory(ctx, "ghost")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, store.UpdateMenu(ctx, &models.Menu{ID: "ghost", Name: "x"}), ErrNotFound)
		assert.ErrorIs(t, store.UpdateTable(ctx, &models.Table{ID: "ghost", Name: "x"}), ErrNotFound)

		menus, err := store.FindMenus(ctx, []string{"ghost"})
		require.NoError(t, err)
		assert.Empty(t, menus)
	})
}

func TestListLogsNewestFirst(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		base := time.Now().UTC().Truncate(time.Second)
		for i, action := range []string{models.ActionMenuCreated, models.ActionTableCreated, models.ActionMenuCreated} {
			entry := models.NewLogEntry("u", action, action)
			entry.Created_at = base.Add(time.Duration(i) * time.Second)
			require.NoError(t, store.AppendLog(ctx, entry))
		}

		all, err := store.ListLogs(ctx, LogFilter{Limit: 2})
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.True(t, all[0].Created_at.After(all[1].Created_at))

		menus, err := store.ListLogs(ctx, LogFilter{Action: models.ActionMenuCreated})
		require.NoError(t, err)
		assert.Len(t, menus, 2)
	})
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultListLimit, clampLimit(0))
	assert.Equal(t, 10, clampLimit(10))
	assert.Equal(t, MaxListLimit, clampLimit(MaxListLimit+1))
}
