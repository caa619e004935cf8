package models

import "time"

type Category struct {
	ID          string    `gorm:"primaryKey;size:24" bson:"_id" json:"id"`
	Name        string    `gorm:"column:name;size:100;not null;uniqueIndex" json:"name" validate:"required,min=2,max=100"`
	Description string    `gorm:"column:description;type:text" json:"description" validate:"max=500"`
	Created_at  time.Time `gorm:"column:created_at" json:"created_at"`
	Updated_at  time.Time `gorm:"column:updated_at" json:"updated_at"`
}
