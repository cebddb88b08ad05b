package model

import (
	"time"
)

// Client represents a billable customer owned by a user. Clients are
// deactivated via is_active rather than removed when they have history;
// the delete endpoint performs a hard delete.
type Client struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Name       string    `gorm:"type:varchar(255);not null;index" json:"name"`
	Email      string    `gorm:"type:varchar(255);not null;index" json:"email"`
	Phone      string    `gorm:"type:varchar(50)" json:"phone"`
	Address    string    `gorm:"type:text" json:"address"`
	City       string    `gorm:"type:varchar(100)" json:"city"`
	State      string    `gorm:"type:varchar(100)" json:"state"`
	PostalCode string    `gorm:"type:varchar(20)" json:"postal_code"`
	Country    string    `gorm:"type:varchar(100)" json:"country"`
	TaxID      string    `gorm:"type:varchar(50)" json:"tax_id"`
	Notes      string    `gorm:"type:text" json:"notes"`
	IsActive   bool      `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
