package models

import "time"

type Menu struct {
	ID           string    `gorm:"primaryKey;size:24" bson:"_id" json:"id"`
	Name         string    `gorm:"column:name;size:100;not null" json:"name" validate:"required,min=2,max=100"`
	Description  string    `gorm:"column:description;type:text" json:"description" validate:"max=1000"`
	Price        int64     `gorm:"column:price;not null" json:"price" validate:"min=0,max=1000000000"`
	Stock        int       `gorm:"column:stock;not null;default:0" json:"stock" validate:"min=0"`
	Is_available bool      `gorm:"column:is_available;not null" json:"is_available"`
	Category_id  *string   `gorm:"column:category_id;size:24;index" json:"category_id"`
	Created_at   time.Time `gorm:"column:created_at" json:"created_at"`
	Updated_at   time.Time `gorm:"column:updated_at" json:"updated_at"`
}
