package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-restaurant-ordering/database"
	"go-restaurant-ordering/models"
)

var admin = Actor{ID: "admin-1", Role: RoleAdmin}

func newTestStore(t *testing.T) *database.GormStore {
	t.Helper()
	store, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

func seedMenu(t *testing.T, store database.Store, id, name string, price int64, stock int, available bool) models.Menu {
	t.Helper()
	now := time.Now().UTC()
	menu := models.Menu{
		ID:           id,
		Name:         name,
		Price:        price,
		Stock:        stock,
		Is_available: available,
		Created_at:   now,
		Updated_at:   now,
	}
	require.NoError(t, store.CreateMenu(context.Background(), &menu))
	return menu
}

func seedTable(t *testing.T, store database.Store, id, name string) models.Table {
	t.Helper()
	now := time.Now().UTC()
	table := models.Table{ID: id, Name: name, Created_at: now, Updated_at: now}
	require.NoError(t, store.CreateTable(context.Background(), &table))
	return table
}

func stockOf(t *testing.T, store database.Store, id string) int {
	t.Helper()
	menu, err := store.FindMenu(context.Background(), id)
	require.NoError(t, err)
	return menu.Stock
}

func logsOf(t *testing.T, store database.Store, action string) []models.LogEntry {
	t.Helper()
	entries, err := store.ListLogs(context.Background(), database.LogFilter{Action: action, Limit: database.MaxListLimit})
	require.NoError(t, err)
	return entries
}

func requireCode(t *testing.T, err error, code string) *Error {
	t.Helper()
	require.Error(t, err)
	svcErr, ok := err.(*Error)
	require.True(t, ok, "expected *Error, got %T: %v", err, err)
	require.Equal(t, code, svcErr.Code, svcErr.Message)
	return svcErr
}
