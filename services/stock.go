package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go-restaurant-ordering/database"
	"go-restaurant-ordering/logging"
	"go-restaurant-ordering/models"
)

type StockAction string

const (
	StockAdd      StockAction = "add"
	StockSubtract StockAction = "subtract"
	StockSet      StockAction = "set"
)

// maxStockAttempts bounds the compare-and-set retries of one adjustment.
const maxStockAttempts = 3

const maxStockQuantity = 1000000000

type StockUpdateRequest struct {
	Action   string   `json:"action"`
	Quantity Quantity `json:"quantity"`
	Reason   string   `json:"reason"`
}

type StockChange struct {
	PreviousStock int         `json:"previous_stock"`
	NewStock      int         `json:"new_stock"`
	Change        int         `json:"change"`
	Action        StockAction `json:"action"`
}

type StockResult struct {
	Menu    models.Menu
	Change  StockChange
	Message string
}

// ApplyStockAction computes the stock after action and the signed change.
// Subtracting never goes below zero.
func ApplyStockAction(current int, action StockAction, quantity int) (newStock, delta int) {
	switch action {
	case StockAdd:
		newStock = current + quantity
	case StockSubtract:
		newStock = current - quantity
		if newStock < 0 {
			newStock = 0
		}
	case StockSet:
		newStock = quantity
	default:
		newStock = current
	}
	return newStock, newStock - current
}

type StockService struct {
	store database.Store
	log   *slog.Logger
	now   func() time.Time
}

func NewStockService(store database.Store) *StockService {
	return &StockService{store: store, log: logging.New("stock"), now: time.Now}
}

// Adjust applies one add, subtract or set to a menu item's stock and records
// it in the activity log.
func (s *StockService) Adjust(ctx context.Context, actor Actor, menuID string, req StockUpdateRequest) (*StockResult, error) {
	if err := actor.authenticated(); err != nil {
		return nil, err
	}
	action, quantity, err := parseStockUpdate(req)
	if err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(req.Reason)

	var lastErr error
	for attempt := 1; attempt <= maxStockAttempts; attempt++ {
		result, err := s.adjustOnce(ctx, actor, menuID, action, quantity, reason)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, database.ErrConflict) {
			return nil, s.fail(ctx, actor, menuID, err)
		}
		lastErr = err
		logging.FromCtx(ctx).Debug("stock changed concurrently, retrying", "menu_id", menuID, "attempt", attempt)
	}
	return nil, conflict("Stock changed concurrently, please retry", lastErr)
}

func (s *StockService) adjustOnce(ctx context.Context, actor Actor, menuID string, action StockAction, quantity int, reason string) (*StockResult, error) {
	var result *StockResult
	err := database.RunInTx(ctx, s.store, func(tx database.Tx) error {
		menu, err := tx.FindMenuForUpdate(ctx, menuID)
		if errors.Is(err, database.ErrNotFound) {
			return notFound("Menu item", menuID)
		}
		if err != nil {
			return err
		}

		previous := menu.Stock
		newStock, delta := ApplyStockAction(previous, action, quantity)
		if err := tx.SetStock(ctx, menu.ID, previous, newStock); err != nil {
			return err
		}

		message := fmt.Sprintf("%s stock for %s: %s (%d → %d)", strings.ToUpper(string(action[:1]))+string(action[1:]),
			menu.Name, signed(delta), previous, newStock)
		if reason != "" {
			message += ". Reason: " + reason
		}
		if err := tx.AppendLog(ctx, models.NewLogEntry(actor.ID, models.ActionStockUpdated, message)); err != nil {
			return fmt.Errorf("append stock log: %w", err)
		}

		menu.Stock = newStock
		menu.Updated_at = s.now().UTC()
		result = &StockResult{
			Menu:    *menu,
			Change:  StockChange{PreviousStock: previous, NewStock: newStock, Change: delta, Action: action},
			Message: message,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *StockService) fail(ctx context.Context, actor Actor, menuID string, err error) error {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr
	}
	logging.FromCtx(ctx).Error("stock update failed", "menu_id", menuID, "error", err)
	bestEffortLog(ctx, s.store, s.log, models.NewLogEntry(actor.ID, models.ActionStockError,
		fmt.Sprintf("Stock update for %s failed: %v", menuID, err)))
	return transactionFailure("Failed to update stock", err)
}

func parseStockUpdate(req StockUpdateRequest) (StockAction, int, error) {
	var details []FieldError
	action := StockAction(strings.ToLower(strings.TrimSpace(req.Action)))
	switch action {
	case StockAdd, StockSubtract, StockSet:
	case "":
		details = append(details, FieldError{Field: "action", Message: "is required"})
	default:
		details = append(details, FieldError{Field: "action", Message: "must be one of: add subtract set"})
	}

	var quantity int
	switch q, problem := req.Quantity.Int(); {
	case problem != "":
		details = append(details, FieldError{Field: "quantity", Message: problem})
	case q < 0:
		details = append(details, FieldError{Field: "quantity", Message: "must be at least 0"})
	case q > maxStockQuantity:
		details = append(details, FieldError{Field: "quantity", Message: "must be at most " + strconv.Itoa(maxStockQuantity)})
	default:
		quantity = int(q)
	}

	if len(details) > 0 {
		return "", 0, validationFailed("Invalid stock update", details)
	}
	return action, quantity, nil
}

// signed renders a change with an explicit sign, using a true minus.
func signed(delta int) string {
	if delta < 0 {
		return fmt.Sprintf("−%d", -delta)
	}
	return fmt.Sprintf("+%d", delta)
}
