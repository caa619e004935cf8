package models

import "time"

// OrderItem keeps the price charged at checkout; it is never re-read from the
// menu afterwards.
type OrderItem struct {
	ID            string    `gorm:"primaryKey;size:24" bson:"_id" json:"id"`
	Order_id      string    `gorm:"column:order_id;size:24;not null;index" json:"order_id"`
	Menu_id       string    `gorm:"column:menu_id;size:24;not null;index" json:"menu_id"`
	Price         int64     `gorm:"column:price;not null" json:"price"`
	Quantity      int       `gorm:"column:quantity;not null" json:"quantity" validate:"gt=0"`
	Subtotal      int64     `gorm:"column:subtotal;not null" json:"subtotal"`
	Customization string    `gorm:"column:customization;type:text" json:"customization"`
	Created_at    time.Time `gorm:"column:created_at" json:"created_at"`
}
