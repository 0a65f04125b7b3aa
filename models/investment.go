package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvestmentStatus string

const (
	InvestmentPending InvestmentStatus = "pending"
	InvestmentActive  InvestmentStatus = "active"
	// InvestmentCompleted is part of the stored enum but nothing transitions into it.
	// Payouts over the term are not implemented; keep it until product decides.
	InvestmentCompleted InvestmentStatus = "completed"
)

type Investment struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	UserID        uint             `gorm:"not null;index" json:"user_id"`
	Amount        decimal.Decimal  `gorm:"type:decimal(15,2);not null" json:"amount"`
	Daily         decimal.Decimal  `gorm:"type:decimal(15,2);not null" json:"daily"`
	Total         decimal.Decimal  `gorm:"type:decimal(15,2);not null" json:"total"`
	Status        InvestmentStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	InvoiceID     string           `gorm:"type:varchar(191);not null;uniqueIndex" json:"invoice_id"`
	OrderID       string           `gorm:"type:varchar(191);not null;uniqueIndex" json:"order_id"`
	PaymentMethod string           `gorm:"type:varchar(16)" json:"payment_method"`
	InvoiceURL    string           `gorm:"type:text" json:"invoice_url"`
	ExpiresAt     time.Time        `json:"expires_at"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (Investment) TableName() string {
	return "investments"
}
