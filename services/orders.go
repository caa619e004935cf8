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

var orderFlow = []string{
	models.OrderStatusPending,
	models.OrderStatusCooking,
	models.OrderStatusReady,
	models.OrderStatusCompleted,
}

type StatusUpdateRequest struct {
	Order_status   string `json:"order_status" validate:"omitempty,oneof=pending cooking ready completed"`
	Payment_status string `json:"payment_status" validate:"omitempty,oneof=pending paid"`
}

type OrderService struct {
	store database.Store
	log   *slog.Logger
	now   func() time.Time
}

func NewOrderService(store database.Store) *OrderService {
	return &OrderService{store: store, log: logging.New("orders"), now: time.Now}
}

func (s *OrderService) List(ctx context.Context, filter database.OrderFilter) ([]models.Order, error) {
	if filter.OrderStatus != "" && flowIndex(filter.OrderStatus) < 0 {
		return nil, validationFailed("Invalid filter", []FieldError{{Field: "order_status", Message: "must be one of: " + strings.Join(orderFlow, " ")}})
	}
	orders, err := s.store.ListOrders(ctx, filter)
	if err != nil {
		return nil, transactionFailure("Failed to list orders", err)
	}
	return orders, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (*OrderDetail, error) {
	return loadOrderDetail(ctx, s.store, id)
}

// UpdateStatus moves an order forward. Order status advances one step at a
// time; payment only goes from pending to paid.
func (s *OrderService) UpdateStatus(ctx context.Context, actor Actor, id string, req StatusUpdateRequest) (*models.Order, error) {
	if err := actor.authenticated(); err != nil {
		return nil, err
	}
	if err := ValidateStruct(&req); err != nil {
		return nil, err
	}
	if req.Order_status == "" && req.Payment_status == "" {
		return nil, validationFailed("Nothing to update", []FieldError{{Field: "order_status", Message: "order_status or payment_status is required"}})
	}

	// The statuses read here are the expected values of the compare-and-set
	// write below, so a concurrent change surfaces as a conflict.
	current, _, err := s.store.FindOrder(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound("Order", id)
	}
	if err != nil {
		return nil, transactionFailure("Failed to load order", err)
	}

	var updated models.Order
	err = database.RunInTx(ctx, s.store, func(tx database.Tx) error {
		next := *current
		var changes []string
		if req.Order_status != "" && req.Order_status != current.Order_status {
			if flowIndex(req.Order_status) != flowIndex(current.Order_status)+1 {
				return invalidTransition(fmt.Sprintf("Order status cannot change from %s to %s", current.Order_status, req.Order_status))
			}
			next.Order_status = req.Order_status
			changes = append(changes, fmt.Sprintf("status %s → %s", current.Order_status, next.Order_status))
		}
		if req.Payment_status != "" && req.Payment_status != current.Payment_status {
			if current.Payment_status != models.PaymentStatusPending || req.Payment_status != models.PaymentStatusPaid {
				return invalidTransition(fmt.Sprintf("Payment status cannot change from %s to %s", current.Payment_status, req.Payment_status))
			}
			next.Payment_status = req.Payment_status
			changes = append(changes, fmt.Sprintf("payment %s → %s", current.Payment_status, next.Payment_status))
		}
		if len(changes) == 0 {
			updated = *current
			return nil
		}

		now := s.now().UTC()
		next.Updated_at = now
		if next.Order_status == models.OrderStatusCompleted && current.Order_status != models.OrderStatusCompleted {
			next.Completed_time = &now
		}
		if err := tx.UpdateOrderStatus(ctx, &next, current.Order_status, current.Payment_status); err != nil {
			return err
		}
		msg := fmt.Sprintf("Order #%s: %s", next.OrderNumber(), strings.Join(changes, ", "))
		if err := tx.AppendLog(ctx, models.NewLogEntry(actor.ID, models.ActionOrderStatusUpdated, msg)); err != nil {
			return fmt.Errorf("append status log: %w", err)
		}
		updated = next
		return nil
	})
	if err != nil {
		var svcErr *Error
		if errors.As(err, &svcErr) {
			return nil, svcErr
		}
		if errors.Is(err, database.ErrConflict) {
			s.log.Warn("order status changed concurrently", "order_id", id)
			return nil, conflict("Order was updated concurrently, please retry", err)
		}
		logging.FromCtx(ctx).Error("order status update failed", "order_id", id, "error", err)
		return nil, transactionFailure("Failed to update order", err)
	}
	return &updated, nil
}

func flowIndex(status string) int {
	for i, st := range orderFlow {
		if st == status {
			return i
		}
	}
	return -1
}

// loadOrderDetail reads an order with its items, the menu names of the items
// and its table. A table or menu deleted since is left out, not an error.
func loadOrderDetail(ctx context.Context, store database.Store, id string) (*OrderDetail, error) {
	order, items, err := store.FindOrder(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound("Order", id)
	}
	if err != nil {
		return nil, transactionFailure("Failed to load order", err)
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.Menu_id)
	}
	menus, err := store.FindMenus(ctx, ids)
	if err != nil {
		return nil, transactionFailure("Failed to load order items", err)
	}

	detail := &OrderDetail{Order: *order, Items: make([]OrderLine, 0, len(items))}
	for _, it := range items {
		detail.Items = append(detail.Items, OrderLine{Item: it, MenuName: menus[it.Menu_id].Name})
	}
	table, err := store.FindTable(ctx, order.Table_id)
	switch {
	case err == nil:
		detail.Table = table
	case !errors.Is(err, database.ErrNotFound):
		return nil, transactionFailure("Failed to load table", err)
	}
	return detail, nil
}
