package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Email     string          `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password  string          `gorm:"size:255;not null" json:"-"`
	Balance   decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"-"`
}

func (User) TableName() string {
	return "users"
}
