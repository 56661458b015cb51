package models

import (
	"time"
)

// Payment is one commission settlement. It closes every order commission
// that was unpaid at settlement time. Created once, never mutated.
type Payment struct {
	ID          string     `gorm:"primaryKey" json:"id"`
	KitchenID   string     `gorm:"not null;index" json:"kitchen_id"`
	SettledAt   time.Time  `gorm:"not null" json:"settled_at"`
	TotalAmount int64      `gorm:"not null" json:"total_amount"`
	PeriodFrom  *time.Time `json:"period_from"`
	PeriodTo    *time.Time `json:"period_to"`
	OrderCount  int        `gorm:"not null" json:"order_count"`
	SettledBy   string     `gorm:"not null" json:"settled_by"`
}

// TableName specifies the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}
