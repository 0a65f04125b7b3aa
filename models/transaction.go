package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ledger flow, as seen from the platform: debit is money into the user's balance,
// credit is money out of it.
const (
	FlowDebit  = "debit"
	FlowCredit = "credit"

	TransactionTypeReturn     = "return"
	TransactionTypeWithdrawal = "withdrawal"

	TransactionSuccess = "Success"
)

// Transaction is an append-only ledger row written next to every balance change.
type Transaction struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	UserID          uint            `gorm:"not null;index" json:"user_id"`
	Amount          decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	OrderID         string          `gorm:"type:varchar(191);not null;uniqueIndex" json:"order_id"`
	TransactionFlow string          `gorm:"type:varchar(8);not null" json:"transaction_flow"`
	TransactionType string          `gorm:"type:varchar(50);not null" json:"transaction_type"`
	Message         *string         `gorm:"type:text" json:"message,omitempty"`
	Status          string          `gorm:"type:varchar(16);not null;default:'Success'" json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"-"`
}

func (Transaction) TableName() string {
	return "transactions"
}
