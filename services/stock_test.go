package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-restaurant-ordering/database"
	"go-restaurant-ordering/models"
)

func TestApplyStockAction(t *testing.T) {
	tests := []struct {
		name      string
		current   int
		action    StockAction
		quantity  int
		wantStock int
		wantDelta int
	}{
		{"add", 5, StockAdd, 3, 8, 3},
		{"add zero", 5, StockAdd, 0, 5, 0},
		{"subtract", 5, StockSubtract, 2, 3, -2},
		{"subtract to zero", 5, StockSubtract, 5, 0, -5},
		{"subtract clamps at zero", 8, StockSubtract, 20, 0, -8},
		{"subtract from empty", 0, StockSubtract, 4, 0, 0},
		{"set up", 2, StockSet, 10, 10, 8},
		{"set down", 10, StockSet, 4, 4, -6},
		{"set same", 7, StockSet, 7, 7, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stock, delta := ApplyStockAction(tt.current, tt.action, tt.quantity)
			assert.Equal(t, tt.wantStock, stock)
			assert.Equal(t, tt.wantDelta, delta)
			assert.GreaterOrEqual(t, stock, 0)
			assert.Equal(t, stock-tt.current, delta)
		})
	}
}

func stockReq(action, qty, reason string) StockUpdateRequest {
	return StockUpdateRequest{Action: action, Quantity: Quantity(qty), Reason: reason}
}

func TestAdjustSubtractClampsAndLogs(t *testing.T) {
	// Setup
	store := newTestStore(t)
	seedMenu(t, store, "m3", "Iced Tea", 8000, 8, true)
	svc := NewStockService(store)

	// Execute
	res, err := svc.Adjust(context.Background(), admin, "m3", stockReq("subtract", "20", ""))

	// Verify
	require.NoError(t, err)
	assert.Equal(t, StockChange{PreviousStock: 8, NewStock: 0, Change: -8, Action: StockSubtract}, res.Change)
	assert.Equal(t, 0, res.Menu.Stock)
	assert.Equal(t, 0, stockOf(t, store, "m3"))

	entries := logsOf(t, store, models.ActionStockUpdated)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Message, "−8 (8 → 0)")
	assert.Equal(t, "Subtract stock for Iced Tea: −8 (8 → 0)", entries[0].Message)
	require.NotNil(t, entries[0].User_id)
	assert.Equal(t, admin.ID, *entries[0].User_id)
}

func TestAdjustAddWithReason(t *testing.T) {
	store := newTestStore(t)
	seedMenu(t, store, "m1", "Soup", 12000, 4, true)
	svc := NewStockService(store)

	res, err := svc.Adjust(context.Background(), admin, "m1", stockReq("add", "6", " delivery "))
	require.NoError(t, err)
	assert.Equal(t, 10, res.Change.NewStock)
	assert.Equal(t, 6, res.Change.Change)
	assert.Equal(t, "Add stock for Soup: +6 (4 → 10). Reason: delivery", res.Message)
	assert.Equal(t, 10, stockOf(t, store, "m1"))
}

func TestAdjustSetIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	seedMenu(t, store, "m1", "Soup", 12000, 4, true)
	svc := NewStockService(store)

	first, err := svc.Adjust(context.Background(), admin, "m1", stockReq("set", "9", ""))
	require.NoError(t, err)
	assert.Equal(t, 5, first.Change.Change)

	second, err := svc.Adjust(context.Background(), admin, "m1", stockReq("set", "9", ""))
	require.NoError(t, err)
	assert.Equal(t, 0, second.Change.Change)
	assert.Equal(t, 9, second.Change.NewStock)
	assert.Equal(t, 9, stockOf(t, store, "m1"))
}

func TestAdjustValidationComesBeforeLookup(t *testing.T) {
	store := newTestStore(t)
	svc := NewStockService(store)

	tests := []struct {
		name    string
		req     StockUpdateRequest
		details []FieldError
	}{
		{
			name:    "bad action and negative quantity",
			req:     stockReq("remove", "-1", ""),
			details: []FieldError{{Field: "action", Message: "must be one of: add subtract set"}, {Field: "quantity", Message: "must be at least 0"}},
		},
		{
			name:    "missing fields",
			req:     stockReq("", "", ""),
			details: []FieldError{{Field: "action", Message: "is required"}, {Field: "quantity", Message: "is required"}},
		},
		{
			name:    "fractional quantity",
			req:     stockReq("add", "2.5", ""),
			details: []FieldError{{Field: "quantity", Message: "must be an integer"}},
		},
		{
			name:    "string quantity",
			req:     stockReq("add", `"ten"`, ""),
			details: []FieldError{{Field: "quantity", Message: "must be an integer"}},
		},
		{
			name:    "quoted number",
			req:     stockReq("set", `"5"`, ""),
			details: []FieldError{{Field: "quantity", Message: "must be an integer"}},
		},
		{
			name:    "boolean quantity",
			req:     stockReq("set", "true", ""),
			details: []FieldError{{Field: "quantity", Message: "must be an integer"}},
		},
		{
			name:    "quantity too large",
			req:     stockReq("add", "3000000000", ""),
			details: []FieldError{{Field: "quantity", Message: "must be at most 1000000000"}},
		},
		{
			name:    "quantity beyond int64",
			req:     stockReq("add", "99999999999999999999", ""),
			details: []FieldError{{Field: "quantity", Message: "must be at most 1000000000"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Adjust(context.Background(), admin, "does-not-exist", tt.req)
			svcErr := requireCode(t, err, CodeValidationFailed)
			assert.Equal(t, tt.details, svcErr.Details)
		})
	}
}

func TestAdjustUnknownMenu(t *testing.T) {
	store := newTestStore(t)
	svc := NewStockService(store)

	_, err := svc.Adjust(context.Background(), admin, "ghost", stockReq("add", "1", ""))

	requireCode(t, err, CodeNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, logsOf(t, store, ""))
}

func TestAdjustRequiresActor(t *testing.T) {
	store := newTestStore(t)
	seedMenu(t, store, "m1", "Soup", 12000, 4, true)
	svc := NewStockService(store)

	_, err := svc.Adjust(context.Background(), Actor{}, "m1", stockReq("add", "1", ""))

	requireCode(t, err, CodeUnauthorized)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 4, stockOf(t, store, "m1"))
}

// conflictingStore fails the compare-and-set a fixed number of times.
type conflictingStore struct {
	*database.GormStore
	mu        sync.Mutex
	conflicts int
}

func (s *conflictingStore) Begin(ctx context.Context) (database.Tx, error) {
	tx, err := s.GormStore.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &conflictingTx{Tx: tx, store: s}, nil
}

type conflictingTx struct {
	database.Tx
	store *conflictingStore
}

func (t *conflictingTx) SetStock(ctx context.Context, menuID string, expected, stock int) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.store.conflicts > 0 {
		t.store.conflicts--
		return database.ErrConflict
	}
	return t.Tx.SetStock(ctx, menuID, expected, stock)
}

func TestAdjustRetriesConflicts(t *testing.T) {
	inner := newTestStore(t)
	seedMenu(t, inner, "m1", "Soup", 12000, 4, true)

	t.Run("recovers", func(t *testing.T) {
		svc := NewStockService(&conflictingStore{GormStore: inner, conflicts: maxStockAttempts - 1})
		res, err := svc.Adjust(context.Background(), admin, "m1", stockReq("add", "1", ""))
		require.NoError(t, err)
		assert.Equal(t, 5, res.Change.NewStock)
	})

	t.Run("gives up", func(t *testing.T) {
		svc := NewStockService(&conflictingStore{GormStore: inner, conflicts: maxStockAttempts})
		_, err := svc.Adjust(context.Background(), admin, "m1", stockReq("add", "1", ""))
		requireCode(t, err, CodeConflict)
		assert.ErrorIs(t, err, ErrConflict)
		assert.Equal(t, 5, stockOf(t, inner, "m1"))
	})

	assert.Len(t, logsOf(t, inner, models.ActionStockUpdated), 1)
}

func TestAdjustFailureWritesStockError(t *testing.T) {
	inner := newTestStore(t)
	seedMenu(t, inner, "m1", "Soup", 12000, 4, true)
	store := &failingStore{GormStore: inner, txLogErr: errors.New("log table locked")}
	svc := NewStockService(store)

	_, err := svc.Adjust(context.Background(), admin, "m1", stockReq("subtract", "1", ""))

	requireCode(t, err, CodeTransactionFailure)
	assert.Equal(t, 4, stockOf(t, inner, "m1"))
	assert.Empty(t, logsOf(t, inner, models.ActionStockUpdated))
	assert.Len(t, logsOf(t, inner, models.ActionStockError), 1)
}
