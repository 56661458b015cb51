package models

import (
	"time"
)

// Order lifecycle statuses. A staff decision moves an order from created to
// approved or rejected exactly once; the field is never written again.
const (
	StatusCreated  = "created"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Fulfillment kinds
const (
	KindPickup   = "pickup"
	KindDelivery = "delivery"
)

// Courier states. Only meaningful for approved delivery orders.
// pending_eta is entered automatically on approval; requested/not_requested
// is the staff ETA decision and is terminal; created_ok and failed may
// alternate while dispatch attempts are retried.
const (
	CourierStateNone         = "none"
	CourierStatePendingEta   = "pending_eta"
	CourierStateRequested    = "requested"
	CourierStateNotRequested = "not_requested"
	CourierStateCreatedOK    = "created_ok"
	CourierStateFailed       = "failed"
)

// Commission statuses. unpaid flips to paid only through a batch settlement.
const (
	CommissionNone   = "none"
	CommissionUnpaid = "unpaid"
	CommissionPaid   = "paid"
)

// ETA sources
const (
	EtaSourcePreset = "preset"
	EtaSourceManual = "manual"
)

// Staff decisions
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// Order represents one purchase placed by a buyer with a kitchen
type Order struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	KitchenID string    `gorm:"not null;index" json:"kitchen_id"`
	BuyerID   int64     `gorm:"not null;index" json:"buyer_id"` // buyer chat identity
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ItemsSummary    string      `json:"items_summary"`
	Items           []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	TotalAmount     int64       `gorm:"not null" json:"total_amount"`
	DeliveryFee     int64       `json:"delivery_fee"`
	FulfillmentKind string      `gorm:"not null" json:"fulfillment_kind"` // pickup or delivery
	Comment         string      `json:"comment"`
	DeliveryAddress string      `json:"delivery_address"`
	PaymentProofKey *string     `json:"payment_proof_key"`            // S3 key of the payment screenshot
	PaymentProofURL *string     `gorm:"-" json:"proof_url,omitempty"` // computed, presigned

	Status          string     `gorm:"not null;default:'created';index" json:"status"`
	HandledAt       *time.Time `json:"handled_at"`
	HandledBy       *string    `json:"handled_by"`
	ReactionSeconds *int64     `json:"reaction_seconds"`

	CourierState       string     `gorm:"not null;default:'none'" json:"courier_state"`
	PickupEtaAt        *time.Time `json:"pickup_eta_at"`
	EtaSource          *string    `json:"eta_source"` // preset or manual
	CourierExternalRef *string    `json:"courier_external_ref"`
	CourierLastError   *string    `json:"courier_last_error"`
	CourierSentAt      *time.Time `json:"courier_sent_at"`

	CommissionAmount    *int64     `json:"commission_amount"`
	CommissionStatus    string     `gorm:"not null;default:'none';index" json:"commission_status"`
	CommissionAccruedAt *time.Time `json:"commission_accrued_at"`

	// Reconciliation markers. One-way: unset -> set, never cleared.
	SeenAt     *time.Time `json:"seen_at"`
	NotifiedAt *time.Time `json:"notified_at"`

	// LockVersion is the optimistic token for guarded writes. Every
	// decision-point update must match the version it read and bump it.
	LockVersion int64 `gorm:"not null;default:0" json:"-"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// IsDelivery reports whether the order needs a courier decision after approval
func (o *Order) IsDelivery() bool {
	return o.FulfillmentKind == KindDelivery
}

// OrderItem is one cart line of an order. BuyerPrice is what the buyer was
// charged per unit, KitchenPrice is what the platform owes the kitchen; the
// difference across all lines is the platform commission.
type OrderItem struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	OrderID      string `gorm:"not null;index" json:"order_id"`
	Name         string `gorm:"not null" json:"name"`
	Quantity     int    `gorm:"not null;check:quantity > 0" json:"quantity"`
	BuyerPrice   int64  `gorm:"not null" json:"buyer_price"`
	KitchenPrice int64  `gorm:"not null" json:"kitchen_price"`
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

// CommissionFor returns the platform markup accrued when this order is approved
func CommissionFor(items []OrderItem) int64 {
	var total int64
	for _, it := range items {
		total += (it.BuyerPrice - it.KitchenPrice) * int64(it.Quantity)
	}
	if total < 0 {
		return 0
	}
	return total
}
