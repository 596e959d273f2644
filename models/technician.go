package models

import (
	"time"
)

// Role values for technicians
const (
	RoleAdmin      = "admin"
	RoleTechnician = "tecnico"
)

// Technician represents a user of the system (field technician or admin).
// Passwords are stored as bcrypt hashes; the system this replaces compared
// them as plain text, which is not preserved here.
type Technician struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	Name         string    `gorm:"not null" json:"name"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         string    `gorm:"not null;default:'tecnico'" json:"role"` // "admin" or "tecnico"
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Technician model
func (Technician) TableName() string {
	return "technicians"
}

// IsAdmin reports whether the technician has the admin role
func (t *Technician) IsAdmin() bool {
	return t.Role == RoleAdmin
}
