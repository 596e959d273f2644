package models

import (
	"time"
)

// PasswordResetToken represents a pending password recovery request.
// Tokens expire after one hour and are deleted once used or found expired.
type PasswordResetToken struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	TechnicianID uint       `gorm:"not null;index" json:"technician_id"`
	Technician   Technician `gorm:"foreignKey:TechnicianID;constraint:OnDelete:CASCADE" json:"-"`
	Token        string     `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt    time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

// TableName specifies the table name for the PasswordResetToken model
func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}

// Expired reports whether the token's expiry timestamp has passed
func (p *PasswordResetToken) Expired() bool {
	return time.Now().After(p.ExpiresAt)
}
