package models

import "time"

// RevokedToken is the database fallback for the access-token blacklist when Redis
// is not configured.
type RevokedToken struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
	RevokedAt time.Time `json:"revoked_at"`
}

func (RevokedToken) TableName() string {
	return "revoked_tokens"
}

// All lists every model managed by migrations, in dependency order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Investment{},
		&Transaction{},
		&Payment{},
		&RevokedToken{},
	}
}
