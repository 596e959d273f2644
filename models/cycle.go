package models

import (
	"time"
)

// Cycle represents a bounded reporting period (typically a quarter) for one
// company. At most one cycle per company may be active at a time; closing a
// cycle freezes every maintenance record attached to it.
type Cycle struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	Name      string   `gorm:"not null;uniqueIndex:idx_cycle_name_company" json:"name"`
	Quarter   int      `json:"quarter"`
	Year      int      `json:"year"`
	StartDate string   `json:"start_date"`           // YYYY-MM-DD
	CloseDate *string  `json:"close_date,omitempty"` // set when the cycle is closed
	Notes     string   `gorm:"type:text" json:"notes"`
	Active    bool     `gorm:"not null;default:false" json:"active"`
	CompanyID *uint    `gorm:"uniqueIndex:idx_cycle_name_company;index" json:"company_id"` // nullable, legacy cycles predate companies
	Company   *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Cycle model
func (Cycle) TableName() string {
	return "cycles"
}
