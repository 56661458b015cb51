package models

import (
	"strconv"
	"strings"
	"time"
)

// Kitchen operational statuses
const (
	KitchenActive   = "active"
	KitchenInactive = "inactive"
)

// Kitchen is one independently operated storefront on the platform.
// Rows are created and retired by the provisioning process; the order core
// only ever reads them.
type Kitchen struct {
	ID            string    `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"not null" json:"name"`
	PickupAddress string    `gorm:"not null" json:"pickup_address"`
	OwnerChatID   int64     `gorm:"not null" json:"owner_chat_id"`
	StaffChatIDs  string    `gorm:"not null" json:"staff_chat_ids"` // comma-separated chat identities
	Status        string    `gorm:"not null;default:'active'" json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Kitchen model
func (Kitchen) TableName() string {
	return "kitchens"
}

// IsActive reports whether the kitchen accepts orders
func (k *Kitchen) IsActive() bool {
	return k.Status == KitchenActive
}

// StaffIDs returns the staff chat identities as a slice
func (k *Kitchen) StaffIDs() []int64 {
	var ids []int64
	for _, part := range strings.Split(k.StaffChatIDs, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
