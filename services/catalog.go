package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go-restaurant-ordering/database"
	"go-restaurant-ordering/logging"
	"go-restaurant-ordering/models"
)

type MenuInput struct {
	Name         string  `json:"name" validate:"required,min=2,max=100"`
	Description  string  `json:"description" validate:"max=1000"`
	Price        *int64  `json:"price" validate:"required,min=0,max=1000000000"`
	Stock        *int    `json:"stock" validate:"omitempty,min=0"`
	Is_available *bool   `json:"is_available"`
	Category_id  *string `json:"category_id"`
}

// MenuPatch changes only the fields that are set. Stock is not part of it.
type MenuPatch struct {
	Name         *string `json:"name" validate:"omitempty,min=2,max=100"`
	Description  *string `json:"description" validate:"omitempty,max=1000"`
	Price        *int64  `json:"price" validate:"omitempty,min=0,max=1000000000"`
	Is_available *bool   `json:"is_available"`
	Category_id  *string `json:"category_id"`
}

type TableInput struct {
	Name        string `json:"name" validate:"required,min=1,max=50"`
	Description string `json:"description" validate:"max=500"`
}

type TablePatch struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=50"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

type CategoryInput struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Description string `json:"description" validate:"max=500"`
}

// CatalogService is the admin side of menus, tables and categories, plus the
// activity log listing.
type CatalogService struct {
	store database.Store
	log   *slog.Logger
	now   func() time.Time
}

func NewCatalogService(store database.Store) *CatalogService {
	return &CatalogService{store: store, log: logging.New("catalog"), now: time.Now}
}

func (s *CatalogService) ListMenus(ctx context.Context, filter database.MenuFilter) ([]models.Menu, error) {
	menus, err := s.store.ListMenus(ctx, filter)
	if err != nil {
		return nil, transactionFailure("Failed to list menus", err)
	}
	return menus, nil
}

func (s *CatalogService) GetMenu(ctx context.Context, id string) (*models.Menu, error) {
	menu, err := s.store.FindMenu(ctx, id)
	if err != nil {
		return nil, s.lookupError("Menu item", id, err)
	}
	return menu, nil
}

func (s *CatalogService) CreateMenu(ctx context.Context, actor Actor, in MenuInput) (*models.Menu, error) {
	if err := actor.authenticated(); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := ValidateStruct(&in); err != nil {
		return nil, err
	}
	categoryID, err := s.checkCategory(ctx, in.Category_id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	menu := &models.Menu{
		ID:           models.NewID(),
		Name:         in.Name,
		Description:  strings.TrimSpace(in.Description),
		Price:        *in.Price,
		Is_available: true,
		Category_id:  categoryID,
		Created_at:   now,
		Updated_at:   now,
	}
	if in.Stock != nil {
		menu.Stock = *in.Stock
	}
	if in.Is_available != nil {
		menu.Is_available = *in.Is_available
	}
	if err := s.store.CreateMenu(ctx, menu); err != nil {
		return nil, transactionFailure("Failed to create menu item", err)
	}
	bestEffortLog(ctx, s.store, s.log, models.NewLogEntry(actor.ID, models.ActionMenuCreated,
		fmt.Sprintf("Menu item %s created (price %d, stock %d)", menu.Name, menu.Price, menu.Stock)))
	return menu, nil
}

func (s *CatalogService) UpdateMenu(ctx context.Context, actor Actor, id string, patch MenuPatch) (*models.Menu, error) {
	if err := actor.authenticated(); err != nil {
		return nil, err
	}
	if err := ValidateStruct(&patch); err != nil {
		return nil, err
	}
	menu, err := s.store.FindMenu(ctx, id)
	if err != nil {
		return nil, s.lookupError("Menu item", id, err)
	}

	if patch.Name != nil {
		menu.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		menu.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Price != nil {
		menu.Price = *patch.Price
	}
	if patch.Is_available != nil {
		menu.Is_available = *patch.Is_available
	}
	if patch.Category_id != nil {
		if menu.Category_id, err = s.checkCategory(ctx, patch.Category_id); err != nil {
			return nil, err
		}
	}
	if err := ValidateStruct(menu); err != nil {
		return nil, err
	}

	menu.Updated_at = s.now().UTC()
	if err := s.store.UpdateMenu(ctx, menu); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFound("Menu item", id)
		}
		return nil, transactionFailure("Failed to update menu item", err)
	}
	bestEffortLog(ctx, s.store, s.log, models.NewLogEntry(actor.ID, models.ActionMenuUpdated,
		fmt.Sprintf("Menu item %s updated", menu.Name)))
	return menu, nil
}

// checkCategory resolves an optional category reference. An empty id clears it.
func (s *CatalogService) checkCategory(ctx context.Context, id *string) (*string, error) {
	if id == nil || strings.TrimSpace(*id) == "" {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*id)
	if _, err := s.store.FindCategory(ctx, trimmed); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, validationFailed("Validation failed", []FieldError{{Field: "category_id", Message: "does not exist"}})
		}
		return nil, transactionFailure("Failed to load category", err)
	}
	return &trimmed, nil
}

func (s *CatalogService) ListTables(ctx context.Context) ([]models.Table, error) {
	tables, err := s.store.ListTables(ctx)
	if err != nil {
		return nil, transactionFailure("Failed to list tables", err)
	}
	return tables, nil
}

func (s *CatalogService) GetTable(ctx context.Context, id string) (*models.Table, error) {
	table, err := s.store.FindTable(ctx, id)
	if err != nil {
		return nil, s.lookupError("Table", id, err)
	}
	return table, nil
}

func (s *CatalogService) CreateTable(ctx context.Context, actor Actor, in TableInput) (*models.Table, error) {
	if err := actor.authenticated(); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := ValidateStruct(&in); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	table := &models.Table{
		ID:          models.NewID(),
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		Created_at:  now,
		Updated_at:  now,
	}
	if err := s.store.CreateTable(ctx, table); err != nil {
		return nil, transactionFailure("Failed to create table", err)
	}
	bestEffortLog(ctx, s.store, s.log, models.NewLogEntry(actor.ID, models.ActionTableCreated,
		fmt.Sprintf("Table %s created", table.Name)))
	return table, nil
}

func (s *CatalogService) UpdateTable(ctx context.Context, actor Actor, id string, patch TablePatch) (*models.Table, error) {
	if err := actor.authenticated(); err != nil {
		return nil, err
	}
	if err := ValidateStruct(&patch); err != nil {
		return nil, err
	}
	table, err := s.store.FindTable(ctx, id)
	if err != nil {
		return nil, s.lookupError("Table", id, err)
	}
	if patch.Name != nil {
		table.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		table.Description = strings.TrimSpace(*patch.Description)
	}
	if err := ValidateStruct(table); err != nil {
		return nil, err
	}
	table.Updated_at = s.now().UTC()
	if err := s.store.UpdateTable(ctx, table); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFound("Table", id)
		}
		return nil, transactionFailure("Failed to update table", err)
	}
	bestEffortLog(ctx, s.store, s.log, models.NewLogEntry(actor.ID, models.ActionTableUpdated,
		fmt.Sprintf("Table %s updated", table.Name)))
	return table, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, transactionFailure("Failed to list categories", err)
	}
	return categories, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, actor Actor, in CategoryInput) (*models.Category, error) {
	if err := actor.authenticated(); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := ValidateStruct(&in); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	category := &models.Category{
		ID:          models.NewID(),
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		Created_at:  now,
		Updated_at:  now,
	}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return nil, conflict(fmt.Sprintf("Category %s already exists", category.Name), err)
		}
		return nil, transactionFailure("Failed to create category", err)
	}
	bestEffortLog(ctx, s.store, s.log, models.NewLogEntry(actor.ID, models.ActionCategoryCreated,
		fmt.Sprintf("Category %s created", category.Name)))
	return category, nil
}

func (s *CatalogService) ListLogs(ctx context.Context, filter database.LogFilter) ([]models.LogEntry, error) {
	entries, err := s.store.ListLogs(ctx, filter)
	if err != nil {
		return nil, transactionFailure("Failed to list activity log", err)
	}
	return entries, nil
}

func (s *CatalogService) lookupError(what, id string, err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return notFound(what, id)
	}
	return transactionFailure(fmt.Sprintf("Failed to load %s", strings.ToLower(what)), err)
}
