package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"go-restaurant-ordering/database"
	"go-restaurant-ordering/logging"
	"go-restaurant-ordering/models"
)

// maxLineQuantity keeps price × quantity far away from int64 overflow.
const maxLineQuantity = 100000

type CartLine struct {
	ID            string   `json:"id"`
	Quantity      Quantity `json:"quantity"`
	Customization string   `json:"customization"`
}

type CheckoutRequest struct {
	TableID string     `json:"tableId"`
	Items   []CartLine `json:"items"`
	// IdempotencyKey comes from the Idempotency-Key header.
	IdempotencyKey string `json:"-"`
}

// OrderLine is an order item together with the name of the menu it was
// ordered from.
type OrderLine struct {
	Item     models.OrderItem
	MenuName string
}

type OrderDetail struct {
	Order    models.Order
	Table    *models.Table
	Items    []OrderLine
	Replayed bool
}

func (d *OrderDetail) Number() string {
	return d.Order.OrderNumber()
}

type CheckoutService struct {
	store database.Store
	idem  IdempotencyStore
	log   *slog.Logger
	now   func() time.Time
}

// NewCheckoutService builds the checkout transactor. idem may be nil, in which
// case Idempotency-Key headers are ignored.
func NewCheckoutService(store database.Store, idem IdempotencyStore) *CheckoutService {
	return &CheckoutService{
		store: store,
		idem:  idem,
		log:   logging.New("checkout"),
		now:   time.Now,
	}
}

// line is a validated cart line with its price captured.
type line struct {
	menu          models.Menu
	quantity      int
	customization string
}

// demand is the total quantity requested for one menu item across the cart.
type demand struct {
	menu     models.Menu
	quantity int
}

// Checkout turns a cart into an order. Every check runs before anything is
// written; the writes then happen in one unit of work.
func (s *CheckoutService) Checkout(ctx context.Context, actor Actor, req CheckoutRequest) (*OrderDetail, error) {
	if err := actor.authenticated(); err != nil {
		return nil, err
	}

	key := strings.TrimSpace(req.IdempotencyKey)
	if key == "" || s.idem == nil {
		return s.checkout(ctx, actor, req)
	}

	if orderID, err := s.idem.Recall(ctx, actor.ID, key); err == nil {
		return s.replay(ctx, orderID)
	} else if !errors.Is(err, ErrKeyNotFound) {
		return nil, transactionFailure("Failed to read idempotency key", err)
	}

	locked, err := s.idem.TryLock(ctx, actor.ID, key)
	if err != nil {
		return nil, transactionFailure("Failed to lock idempotency key", err)
	}
	if !locked {
		// The first request may have finished between Recall and TryLock.
		if orderID, err := s.idem.Recall(ctx, actor.ID, key); err == nil {
			return s.replay(ctx, orderID)
		}
		return nil, conflict("A checkout with this Idempotency-Key is already in progress", nil)
	}

	detail, err := s.checkout(ctx, actor, req)
	if err != nil {
		if relErr := s.idem.Release(context.WithoutCancel(ctx), actor.ID, key); relErr != nil {
			s.log.Warn("release idempotency key failed", "error", relErr)
		}
		return nil, err
	}
	s.remember(context.WithoutCancel(ctx), actor.ID, key, detail.Order.ID)
	return detail, nil
}

// remember records the order for key, trying twice. If that fails the lock is
// released so a retry with the same key is not refused until the lock expires.
func (s *CheckoutService) remember(ctx context.Context, scope, key, orderID string) {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		if err = s.idem.Remember(ctx, scope, key, orderID); err == nil {
			return
		}
	}
	s.log.Warn("remember idempotency key failed", "order_id", orderID, "error", err)
	if relErr := s.idem.Release(ctx, scope, key); relErr != nil {
		s.log.Warn("release idempotency key failed", "error", relErr)
	}
}

func (s *CheckoutService) replay(ctx context.Context, orderID string) (*OrderDetail, error) {
	detail, err := loadOrderDetail(ctx, s.store, orderID)
	if err != nil {
		return nil, err
	}
	detail.Replayed = true
	return detail, nil
}

func (s *CheckoutService) checkout(ctx context.Context, actor Actor, req CheckoutRequest) (*OrderDetail, error) {
	if len(req.Items) == 0 {
		return nil, validationFailed("Cart is empty", []FieldError{{Field: "items", Message: "must contain at least one item"}})
	}

	table, err := s.findTable(ctx, req.TableID)
	if err != nil {
		return nil, s.fail(ctx, actor, err)
	}

	lines, err := s.validateLines(ctx, req.Items)
	if err != nil {
		return nil, s.fail(ctx, actor, err)
	}

	demands := aggregate(lines)
	var shortages []StockShortage
	for _, d := range demands {
		if d.quantity > d.menu.Stock {
			shortages = append(shortages, StockShortage{MenuID: d.menu.ID, Name: d.menu.Name, Requested: d.quantity, Available: d.menu.Stock})
		}
	}
	if len(shortages) > 0 {
		return nil, insufficientStock(shortages)
	}

	now := s.now().UTC()
	order := models.Order{
		ID:             models.NewID(),
		Customer_id:    &actor.ID,
		Table_id:       table.ID,
		Order_status:   models.OrderStatusPending,
		Payment_status: models.PaymentStatusPending,
		Order_time:     now,
		Created_at:     now,
		Updated_at:     now,
	}
	detail := &OrderDetail{Table: table, Items: make([]OrderLine, 0, len(lines))}
	items := make([]models.OrderItem, 0, len(lines))
	for _, l := range lines {
		subtotal, ok := multiplyPrice(l.menu.Price, l.quantity)
		if !ok || subtotal > math.MaxInt64-order.Total_amount {
			return nil, validationFailed("Order total is too large", []FieldError{{Field: "items", Message: "total exceeds the maximum order amount"}})
		}
		item := models.OrderItem{
			ID:            models.NewID(),
			Order_id:      order.ID,
			Menu_id:       l.menu.ID,
			Price:         l.menu.Price,
			Quantity:      l.quantity,
			Subtotal:      subtotal,
			Customization: l.customization,
			Created_at:    now,
		}
		order.Total_amount += item.Subtotal
		items = append(items, item)
		detail.Items = append(detail.Items, OrderLine{Item: item, MenuName: l.menu.Name})
	}
	detail.Order = order

	err = database.RunInTx(ctx, s.store, func(tx database.Tx) error {
		return s.apply(ctx, tx, actor, table, &order, items, demands)
	})
	if err != nil {
		return nil, s.fail(ctx, actor, err)
	}

	logging.FromCtx(ctx).Info("order created",
		"order_id", order.ID, "table_id", table.ID, "items", len(items), "total", order.Total_amount)
	return detail, nil
}

func (s *CheckoutService) apply(ctx context.Context, tx database.Tx, actor Actor, table *models.Table,
	order *models.Order, items []models.OrderItem, demands []demand) error {
	if err := tx.CreateOrder(ctx, order, items); err != nil {
		return err
	}

	number := order.OrderNumber()
	entries := []*models.LogEntry{
		models.NewLogEntry(actor.ID, models.ActionOrderCreated, fmt.Sprintf(
			"Order #%s created for table %s: %d items, total %d", number, table.Name, len(items), order.Total_amount)),
	}
	for _, d := range demands {
		remaining, err := tx.DecrementStock(ctx, d.menu.ID, d.quantity)
		if errors.Is(err, database.ErrConflict) || errors.Is(err, database.ErrNotFound) {
			return s.lostRace(ctx, tx, d)
		}
		if err != nil {
			return err
		}
		entries = append(entries, models.NewLogEntry(actor.ID, models.ActionStockUpdated, fmt.Sprintf(
			"Stock for %s reduced by %d (%d → %d) for order #%s", d.menu.Name, d.quantity, remaining+d.quantity, remaining, number)))
	}

	for _, e := range entries {
		if err := tx.AppendLog(ctx, e); err != nil {
			return fmt.Errorf("append %s log: %w", e.Action, err)
		}
	}
	return nil
}

// lostRace reports a decrement that matched nothing: stock was taken (or the
// item removed) after validation.
func (s *CheckoutService) lostRace(ctx context.Context, tx database.Tx, d demand) error {
	current, err := tx.FindMenuForUpdate(ctx, d.menu.ID)
	if errors.Is(err, database.ErrNotFound) {
		return unavailableItems([]string{d.menu.ID})
	}
	if err != nil {
		return conflict("Stock changed during checkout, please retry", err)
	}
	return insufficientStock([]StockShortage{{MenuID: current.ID, Name: current.Name, Requested: d.quantity, Available: current.Stock}})
}

func (s *CheckoutService) findTable(ctx context.Context, tableID string) (*models.Table, error) {
	tableID = strings.TrimSpace(tableID)
	if tableID == "" {
		return nil, invalidTable(tableID)
	}
	table, err := s.store.FindTable(ctx, tableID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, invalidTable(tableID)
	}
	if err != nil {
		return nil, fmt.Errorf("find table: %w", err)
	}
	return table, nil
}

// validateLines checks the shape of every line, then availability, and
// returns the lines with their menu (and so their price) captured.
func (s *CheckoutService) validateLines(ctx context.Context, cart []CartLine) ([]line, error) {
	var malformed []LineItemError
	quantities := make([]int, len(cart))
	ids := make([]string, 0, len(cart))
	seen := make(map[string]bool, len(cart))
	for i, cl := range cart {
		id := strings.TrimSpace(cl.ID)
		if id == "" {
			malformed = append(malformed, LineItemError{Index: i, ID: cl.ID, Reason: "id is required"})
			continue
		}
		qty, reason := parseQuantity(cl.Quantity)
		if reason != "" {
			malformed = append(malformed, LineItemError{Index: i, ID: id, Reason: reason})
			continue
		}
		quantities[i] = qty
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(malformed) > 0 {
		return nil, malformedLineItems(malformed)
	}

	menus, err := s.store.FindMenus(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("find menus: %w", err)
	}
	var unavailable []string
	for _, id := range ids {
		if m, ok := menus[id]; !ok || !m.Is_available {
			unavailable = append(unavailable, id)
		}
	}
	if len(unavailable) > 0 {
		return nil, unavailableItems(unavailable)
	}

	lines := make([]line, 0, len(cart))
	for i, cl := range cart {
		lines = append(lines, line{
			menu:          menus[strings.TrimSpace(cl.ID)],
			quantity:      quantities[i],
			customization: strings.TrimSpace(cl.Customization),
		})
	}
	return lines, nil
}

func parseQuantity(quantity Quantity) (int, string) {
	q, problem := quantity.Int()
	if problem != "" {
		return 0, "quantity " + problem
	}
	if q <= 0 {
		return 0, "quantity must be greater than 0"
	}
	if q > maxLineQuantity {
		return 0, "quantity must be at most " + strconv.Itoa(maxLineQuantity)
	}
	return int(q), ""
}

func multiplyPrice(price int64, quantity int) (int64, bool) {
	if price < 0 || (price > 0 && int64(quantity) > math.MaxInt64/price) {
		return 0, false
	}
	return price * int64(quantity), true
}

// aggregate sums quantities per menu item, keeping first-seen order.
func aggregate(lines []line) []demand {
	index := make(map[string]int, len(lines))
	var out []demand
	for _, l := range lines {
		if i, ok := index[l.menu.ID]; ok {
			out[i].quantity += l.quantity
			continue
		}
		index[l.menu.ID] = len(out)
		out = append(out, demand{menu: l.menu, quantity: l.quantity})
	}
	return out
}

// fail passes typed errors through. Anything else is an infrastructure
// failure: it gets an order_error log entry written outside the failed unit.
func (s *CheckoutService) fail(ctx context.Context, actor Actor, err error) error {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr
	}
	logging.FromCtx(ctx).Error("checkout failed", "error", err)
	bestEffortLog(ctx, s.store, s.log, models.NewLogEntry(actor.ID, models.ActionOrderError,
		fmt.Sprintf("Checkout failed: %v", err)))
	return transactionFailure("Failed to create order", err)
}
