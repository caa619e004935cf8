package services

import (
	"context"
	"log/slog"
	"time"

	"go-restaurant-ordering/database"
	"go-restaurant-ordering/models"
)

const RoleAdmin = "ADMIN"

// Actor is the authenticated caller on whose behalf an operation runs.
type Actor struct {
	ID   string
	Role string
}

func (a Actor) authenticated() error {
	if a.ID == "" {
		return Unauthorized("Authentication required")
	}
	return nil
}

const fallbackLogTimeout = 5 * time.Second

// bestEffortLog appends entry outside any unit of work. A failure is only
// reported through l and never returned.
func bestEffortLog(ctx context.Context, store database.Store, l *slog.Logger, entry *models.LogEntry) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fallbackLogTimeout)
	defer cancel()
	if err := store.AppendLog(ctx, entry); err != nil {
		l.Warn("activity log write failed", "action", entry.Action, "error", err)
	}
}
