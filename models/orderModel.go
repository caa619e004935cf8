package models

import (
	"strings"
	"time"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusCooking   = "cooking"
	OrderStatusReady     = "ready"
	OrderStatusCompleted = "completed"

	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
)

type Order struct {
	ID             string     `gorm:"primaryKey;size:24" bson:"_id" json:"id"`
	Customer_id    *string    `gorm:"column:customer_id;size:64;index" json:"customer_id"`
	Table_id       string     `gorm:"column:table_id;size:24;not null;index" json:"table_id"`
	Order_status   string     `gorm:"column:order_status;size:16;not null;default:'pending'" json:"order_status" validate:"required,eq=pending|eq=cooking|eq=ready|eq=completed"`
	Payment_status string     `gorm:"column:payment_status;size:16;not null;default:'pending'" json:"payment_status" validate:"required,eq=pending|eq=paid"`
	Total_amount   int64      `gorm:"column:total_amount;not null" json:"total_amount"`
	Order_time     time.Time  `gorm:"column:order_time;not null;index" json:"order_time"`
	Completed_time *time.Time `gorm:"column:completed_time" json:"completed_time"`
	Created_at     time.Time  `gorm:"column:created_at" json:"created_at"`
	Updated_at     time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

// OrderNumber is the customer-facing reference: the last eight characters of
// the id, upper-cased.
func (o Order) OrderNumber() string {
	return OrderNumber(o.ID)
}

func OrderNumber(id string) string {
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	return strings.ToUpper(id)
}
