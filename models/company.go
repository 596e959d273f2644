package models

import (
	"time"
)

// Company represents a client company whose equipment is serviced
type Company struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Company model
func (Company) TableName() string {
	return "companies"
}
