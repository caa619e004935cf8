package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-restaurant-ordering/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps the catalog, orders and activity log in a relational
// database.
type GormStore struct {
	db      *gorm.DB
	onClose func()
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&models.Category{},
		&models.Menu{},
		&models.Table{},
		&models.Order{},
		&models.OrderItem{},
		&models.LogEntry{},
	)
}

func (s *GormStore) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	err = sqlDB.Close()
	if s.onClose != nil {
		s.onClose()
	}
	return err
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *GormStore) FindMenu(ctx context.Context, id string) (*models.Menu, error) {
	var menu models.Menu
	if err := s.db.WithContext(ctx).First(&menu, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &menu, nil
}

func (s *GormStore) FindMenus(ctx context.Context, ids []string) (map[string]models.Menu, error) {
	found := make(map[string]models.Menu, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	var menus []models.Menu
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&menus).Error; err != nil {
		return nil, err
	}
	for _, m := range menus {
		found[m.ID] = m
	}
	return found, nil
}

func (s *GormStore) FindTable(ctx context.Context, id string) (*models.Table, error) {
	var table models.Table
	if err := s.db.WithContext(ctx).First(&table, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &table, nil
}

func (s *GormStore) Begin(ctx context.Context) (Tx, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &gormTx{db: tx}, nil
}

func (s *GormStore) AppendLog(ctx context.Context, entry *models.LogEntry) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *GormStore) ListMenus(ctx context.Context, filter MenuFilter) ([]models.Menu, error) {
	q := s.db.WithContext(ctx).Order("name")
	if filter.CategoryID != "" {
		q = q.Where("category_id = ?", filter.CategoryID)
	}
	if filter.AvailableOnly {
		q = q.Where("is_available = ?", true)
	}
	menus := []models.Menu{}
	if err := q.Find(&menus).Error; err != nil {
		return nil, err
	}
	return menus, nil
}

func (s *GormStore) CreateMenu(ctx context.Context, menu *models.Menu) error {
	return s.db.WithContext(ctx).Create(menu).Error
}

// UpdateMenu writes the catalog fields of menu. Stock is deliberately left
// out; it only changes through a Tx.
func (s *GormStore) UpdateMenu(ctx context.Context, menu *models.Menu) error {
	res := s.db.WithContext(ctx).Model(&models.Menu{}).Where("id = ?", menu.ID).Updates(map[string]interface{}{
		"name":         menu.Name,
		"description":  menu.Description,
		"price":        menu.Price,
		"is_available": menu.Is_available,
		"category_id":  menu.Category_id,
		"updated_at":   menu.Updated_at,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ListTables(ctx context.Context) ([]models.Table, error) {
	tables := []models.Table{}
	if err := s.db.WithContext(ctx).Order("name").Find(&tables).Error; err != nil {
		return nil, err
	}
	return tables, nil
}

func (s *GormStore) CreateTable(ctx context.Context, table *models.Table) error {
	return s.db.WithContext(ctx).Create(table).Error
}

func (s *GormStore) UpdateTable(ctx context.Context, table *models.Table) error {
	res := s.db.WithContext(ctx).Model(&models.Table{}).Where("id = ?", table.ID).Updates(map[string]interface{}{
		"name":        table.Name,
		"description": table.Description,
		"updated_at":  table.Updated_at,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) FindCategory(ctx context.Context, id string) (*models.Category, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &category, nil
}

func (s *GormStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	if err := s.db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *GormStore) CreateCategory(ctx context.Context, category *models.Category) error {
	err := s.db.WithContext(ctx).Create(category).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	return err
}

func (s *GormStore) FindOrder(ctx context.Context, id string) (*models.Order, []models.OrderItem, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, nil, notFound(err)
	}
	items := []models.OrderItem{}
	if err := s.db.WithContext(ctx).Where("order_id = ?", id).Order("created_at, id").Find(&items).Error; err != nil {
		return nil, nil, err
	}
	return &order, items, nil
}

func (s *GormStore) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	q := s.db.WithContext(ctx).Order("order_time DESC").Limit(clampLimit(filter.Limit))
	if filter.OrderStatus != "" {
		q = q.Where("order_status = ?", filter.OrderStatus)
	}
	orders := []models.Order{}
	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *GormStore) ListLogs(ctx context.Context, filter LogFilter) ([]models.LogEntry, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC").Limit(clampLimit(filter.Limit))
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	entries := []models.LogEntry{}
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

type gormTx struct {
	db   *gorm.DB
	done bool
}

func (t *gormTx) FindMenuForUpdate(ctx context.Context, id string) (*models.Menu, error) {
	var menu models.Menu
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&menu, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &menu, nil
}

func (t *gormTx) CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	db := t.db.WithContext(ctx)
	if err := db.Create(order).Error; err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	if len(items) == 0 {
		return nil
	}
	if err := db.Create(&items).Error; err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}
	return nil
}

func (t *gormTx) DecrementStock(ctx context.Context, menuID string, quantity int) (int, error) {
	db := t.db.WithContext(ctx)
	res := db.Model(&models.Menu{}).
		Where("id = ? AND stock >= ?", menuID, quantity).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock - ?", quantity),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("decrement stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := t.stockOf(ctx, menuID); err != nil {
			return 0, err
		}
		return 0, ErrConflict
	}
	return t.stockOf(ctx, menuID)
}

func (t *gormTx) stockOf(ctx context.Context, menuID string) (int, error) {
	var menu models.Menu
	if err := t.db.WithContext(ctx).Select("id", "stock").First(&menu, "id = ?", menuID).Error; err != nil {
		return 0, notFound(err)
	}
	return menu.Stock, nil
}

func (t *gormTx) SetStock(ctx context.Context, menuID string, expected, stock int) error {
	res := t.db.WithContext(ctx).Model(&models.Menu{}).
		Where("id = ? AND stock = ?", menuID, expected).
		Updates(map[string]interface{}{
			"stock":      stock,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("set stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (t *gormTx) UpdateOrderStatus(ctx context.Context, order *models.Order, expectedStatus, expectedPayment string) error {
	res := t.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND order_status = ? AND payment_status = ?", order.ID, expectedStatus, expectedPayment).
		Updates(map[string]interface{}{
			"order_status":   order.Order_status,
			"payment_status": order.Payment_status,
			"completed_time": order.Completed_time,
			"updated_at":     order.Updated_at,
		})
	if res.Error != nil {
		return fmt.Errorf("update order status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (t *gormTx) AppendLog(ctx context.Context, entry *models.LogEntry) error {
	return t.db.WithContext(ctx).Create(entry).Error
}

func (t *gormTx) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	return t.db.Commit().Error
}

func (t *gormTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	return t.db.Rollback().Error
}
