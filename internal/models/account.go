package models

import "time"

// AccountID is the primary key of the single authenticated account.
const AccountID = "me"

// Account holds the OAuth credentials of the one user whose mailbox is mirrored
type Account struct {
	ID           string     `gorm:"column:id;primaryKey"`
	AccessToken  string     `gorm:"column:access_token"`
	RefreshToken *string    `gorm:"column:refresh_token"`
	TokenType    string     `gorm:"column:token_type"`
	Expiry       *time.Time `gorm:"column:expiry"`
	Scope        *string    `gorm:"column:scope"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}

// TableName specifies the table name for GORM
func (Account) TableName() string {
	return "account"
}
