package models

import "time"

type Table struct {
	ID          string    `gorm:"primaryKey;size:24" bson:"_id" json:"id"`
	Name        string    `gorm:"column:name;size:50;not null" json:"name" validate:"required,min=1,max=50"`
	Description string    `gorm:"column:description;type:text" json:"description" validate:"max=500"`
	Created_at  time.Time `gorm:"column:created_at" json:"created_at"`
	Updated_at  time.Time `gorm:"column:updated_at" json:"updated_at"`
}
