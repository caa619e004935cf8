package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ActionOrderCreated       = "order_created"
	ActionOrderError         = "order_error"
	ActionOrderStatusUpdated = "order_status_updated"
	ActionStockUpdated       = "stock_updated"
	ActionStockError         = "stock_error"
	ActionMenuCreated        = "menu_created"
	ActionMenuUpdated        = "menu_updated"
	ActionTableCreated       = "table_created"
	ActionTableUpdated       = "table_updated"
	ActionCategoryCreated    = "category_created"
)

// LogEntry is an append-only activity record.
type LogEntry struct {
	ID         string    `gorm:"primaryKey;size:24" bson:"_id" json:"id"`
	User_id    *string   `gorm:"column:user_id;size:64;index" json:"user_id"`
	Action     string    `gorm:"column:action;size:32;not null;index" json:"action"`
	Message    string    `gorm:"column:message;type:text;not null" json:"message"`
	Created_at time.Time `gorm:"column:created_at;index" json:"created_at"`
}

func NewLogEntry(userID, action, message string) *LogEntry {
	entry := &LogEntry{
		ID:         NewID(),
		Action:     action,
		Message:    message,
		Created_at: time.Now().UTC(),
	}
	if userID != "" {
		entry.User_id = &userID
	}
	return entry
}

func NewID() string {
	return primitive.NewObjectID().Hex()
}
