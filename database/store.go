package database

import (
	"context"
	"errors"
	"fmt"

	"go-restaurant-ordering/logging"
	"go-restaurant-ordering/models"
)

var (
	// ErrNotFound is returned when the referenced row or document does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a conditional write matched nothing, e.g. a
	// stock decrement that would go below zero.
	ErrConflict = errors.New("conditional write conflict")
)

// Catalog is the read side used to validate carts and stock updates.
type Catalog interface {
	FindMenu(ctx context.Context, id string) (*models.Menu, error)
	FindMenus(ctx context.Context, ids []string) (map[string]models.Menu, error)
	FindTable(ctx context.Context, id string) (*models.Table, error)
}

// Tx is one atomic unit of work. Every mutation made through a Tx is either
// committed together or discarded together.
type Tx interface {
	FindMenuForUpdate(ctx context.Context, id string) (*models.Menu, error)
	CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error
	// DecrementStock lowers stock by quantity only if at least quantity is
	// left and returns the new stock. ErrConflict otherwise.
	DecrementStock(ctx context.Context, menuID string, quantity int) (int, error)
	// SetStock writes stock only if the stored value still equals expected.
	SetStock(ctx context.Context, menuID string, expected, stock int) error
	// UpdateOrderStatus writes the status fields of order only if the stored
	// statuses still equal the expected ones.
	UpdateOrderStatus(ctx context.Context, order *models.Order, expectedStatus, expectedPayment string) error
	AppendLog(ctx context.Context, entry *models.LogEntry) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type MenuFilter struct {
	CategoryID    string
	AvailableOnly bool
}

type OrderFilter struct {
	OrderStatus string
	Limit       int
}

type LogFilter struct {
	Action string
	Limit  int
}

type Store interface {
	Catalog

	Begin(ctx context.Context) (Tx, error)
	// AppendLog writes outside any unit of work.
	AppendLog(ctx context.Context, entry *models.LogEntry) error

	ListMenus(ctx context.Context, filter MenuFilter) ([]models.Menu, error)
	CreateMenu(ctx context.Context, menu *models.Menu) error
	UpdateMenu(ctx context.Context, menu *models.Menu) error

	ListTables(ctx context.Context) ([]models.Table, error)
	CreateTable(ctx context.Context, table *models.Table) error
	UpdateTable(ctx context.Context, table *models.Table) error

	FindCategory(ctx context.Context, id string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error

	FindOrder(ctx context.Context, id string) (*models.Order, []models.OrderItem, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error)

	ListLogs(ctx context.Context, filter LogFilter) ([]models.LogEntry, error)

	Migrate(ctx context.Context) error
	Close(ctx context.Context) error
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// RunInTx begins a unit of work, runs fn and commits. Any error from fn, or a
// panic, rolls the whole unit back.
func RunInTx(ctx context.Context, s Store, fn func(tx Tx) error) (err error) {
	tx, err := s.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			logging.FromCtx(ctx).Warn("rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
