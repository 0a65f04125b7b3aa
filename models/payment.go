package models

import "time"

// Payment records one authenticated gateway notification and what it did.
// Rows are an audit trail only; investment status is never derived from them.
type Payment struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	InvestmentID  uint      `gorm:"not null;index" json:"investment_id"`
	InvoiceID     string    `gorm:"type:varchar(191);not null;index" json:"invoice_id"`
	PaymentStatus string    `gorm:"type:varchar(32);not null" json:"payment_status"`
	Result        string    `gorm:"type:varchar(16);not null" json:"result"`
	CreatedAt     time.Time `json:"created_at"`
}

func (Payment) TableName() string {
	return "payments"
}
