package models

import (
	"time"
)

// BuyerProfile holds the contact details collected from a buyer during
// checkout. Used to enrich staff notifications and courier payloads.
type BuyerProfile struct {
	ChatID      int64     `gorm:"primaryKey" json:"chat_id"`
	Username    string    `json:"username"`
	RealName    string    `json:"real_name"`
	Phone       string    `json:"phone"`
	LastAddress string    `json:"last_address"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for the BuyerProfile model
func (BuyerProfile) TableName() string {
	return "buyer_profiles"
}
