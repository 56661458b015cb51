package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/barakat-platform/kitchen-orders-api/models"
	"gorm.io/gorm"
)

// OrderStateService guards the legality of order status and courier state
// transitions. The backing store has no native locking, so every guarded
// write is a compare-and-swap on the row's lock_version: the update matches
// the version the guard read and bumps it, and zero affected rows means the
// transition raced or already happened.
type OrderStateService struct {
	db *gorm.DB
}

// NewOrderStateService creates the state machine over the given store
func NewOrderStateService(db *gorm.DB) *OrderStateService {
	return &OrderStateService{db: db}
}

// EtaChoice is the staff commitment for the courier arrival: a preset offset
// in minutes, a manually entered timestamp, or an explicit decline.
type EtaChoice struct {
	Decline bool
	Minutes int
	At      *time.Time
}

// Source returns the eta_source value recorded for this choice
func (c EtaChoice) Source() string {
	if c.At != nil {
		return models.EtaSourceManual
	}
	return models.EtaSourcePreset
}

// GetOrder reads one order row, kitchen-scoped
func (s *OrderStateService) GetOrder(ctx context.Context, kitchenID, orderID string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where("id = ? AND kitchen_id = ?", orderID, kitchenID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read order %s: %w", orderID, err)
	}
	return &order, nil
}

// ApplyStaffDecision transitions order_status created -> approved|rejected
// exactly once. When the order was already handled it returns
// ErrAlreadyHandled and performs no write. On approval the commission fields
// and the initial courier state are written in the same batched update.
func (s *OrderStateService) ApplyStaffDecision(
	ctx context.Context,
	kitchenID, orderID, decision, staffIdentity string,
	commission int64,
) (*models.Order, error) {
	order, err := s.GetOrder(ctx, kitchenID, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status != models.StatusCreated {
		return nil, ErrAlreadyHandled
	}

	now := time.Now().UTC()
	reaction := int64(now.Sub(order.CreatedAt) / time.Second)
	if reaction < 0 {
		reaction = 0
	}

	newStatus := models.StatusRejected
	if decision == models.DecisionApprove {
		newStatus = models.StatusApproved
	}

	updates := map[string]interface{}{
		"status":           newStatus,
		"handled_at":       now,
		"handled_by":       staffIdentity,
		"reaction_seconds": reaction,
		"lock_version":     order.LockVersion + 1,
	}

	if newStatus == models.StatusApproved {
		updates["commission_amount"] = commission
		updates["commission_status"] = models.CommissionUnpaid
		updates["commission_accrued_at"] = now

		if order.IsDelivery() {
			updates["courier_state"] = models.CourierStatePendingEta
		}
	}

	if err := s.guardedUpdate(ctx, order, updates); err != nil {
		return nil, err
	}

	order.Status = newStatus
	order.HandledAt = &now
	order.HandledBy = &staffIdentity
	order.ReactionSeconds = &reaction
	if newStatus == models.StatusApproved {
		order.CommissionAmount = &commission
		order.CommissionStatus = models.CommissionUnpaid
		order.CommissionAccruedAt = &now
		if order.IsDelivery() {
			order.CourierState = models.CourierStatePendingEta
		}
	}
	order.LockVersion++
	return order, nil
}

// ApplyCourierEtaDecision records the staff ETA commitment (or decline) for
// an approved delivery order. The decision is terminal: once the courier
// state is requested or not_requested, further calls return ErrAlreadyHandled.
func (s *OrderStateService) ApplyCourierEtaDecision(
	ctx context.Context,
	kitchenID, orderID string,
	choice EtaChoice,
) (*models.Order, error) {
	order, err := s.GetOrder(ctx, kitchenID, orderID)
	if err != nil {
		return nil, err
	}

	switch order.CourierState {
	case models.CourierStatePendingEta:
		// decision still open
	case models.CourierStateNone:
		return nil, fmt.Errorf("order %s has no pending courier decision", orderID)
	default:
		// requested, not_requested and every later state mean the
		// decision was consumed
		return nil, ErrAlreadyHandled
	}

	updates := map[string]interface{}{
		"lock_version": order.LockVersion + 1,
	}

	if choice.Decline {
		updates["courier_state"] = models.CourierStateNotRequested
	} else {
		eta := choice.At
		if eta == nil {
			t := time.Now().UTC().Add(time.Duration(choice.Minutes) * time.Minute)
			eta = &t
		}
		source := choice.Source()
		updates["courier_state"] = models.CourierStateRequested
		updates["pickup_eta_at"] = *eta
		updates["eta_source"] = source

		order.PickupEtaAt = eta
		order.EtaSource = &source
	}

	if err := s.guardedUpdate(ctx, order, updates); err != nil {
		return nil, err
	}

	if choice.Decline {
		order.CourierState = models.CourierStateNotRequested
	} else {
		order.CourierState = models.CourierStateRequested
	}
	order.LockVersion++
	return order, nil
}

// RecordDispatchResult persists the outcome of one courier call. Unlike the
// decision transitions this one is repeatable: requested orders may move
// between created_ok and failed any number of times while staff retry.
func (s *OrderStateService) RecordDispatchResult(
	ctx context.Context,
	order *models.Order,
	externalRef string,
	dispatchErr error,
) error {
	now := time.Now().UTC()
	var updates map[string]interface{}

	if dispatchErr == nil {
		updates = map[string]interface{}{
			"courier_state":        models.CourierStateCreatedOK,
			"courier_external_ref": externalRef,
			"courier_last_error":   "",
			"courier_sent_at":      now,
			"lock_version":         order.LockVersion + 1,
		}
	} else {
		msg := dispatchErr.Error()
		if len(msg) > 500 {
			msg = msg[:500]
		}
		updates = map[string]interface{}{
			"courier_state":      models.CourierStateFailed,
			"courier_last_error": msg,
			"lock_version":       order.LockVersion + 1,
		}
	}

	if err := s.guardedUpdate(ctx, order, updates); err != nil {
		return err
	}

	if dispatchErr == nil {
		order.CourierState = models.CourierStateCreatedOK
		order.CourierExternalRef = &externalRef
		order.CourierSentAt = &now
		order.CourierLastError = nil
	} else {
		msg := dispatchErr.Error()
		order.CourierState = models.CourierStateFailed
		order.CourierLastError = &msg
	}
	order.LockVersion++
	return nil
}

// MarkSeen sets the reconciliation seen marker. One-way, idempotent: a row
// already marked is left untouched.
func (s *OrderStateService) MarkSeen(ctx context.Context, order *models.Order) error {
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND seen_at IS NULL", order.ID).
		Update("seen_at", now)
	if res.Error != nil {
		return fmt.Errorf("failed to mark order %s seen: %w", order.ID, res.Error)
	}
	order.SeenAt = &now
	return nil
}

// MarkNotified sets the reconciliation notified marker
func (s *OrderStateService) MarkNotified(ctx context.Context, order *models.Order) error {
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND notified_at IS NULL", order.ID).
		Update("notified_at", now)
	if res.Error != nil {
		return fmt.Errorf("failed to mark order %s notified: %w", order.ID, res.Error)
	}
	order.NotifiedAt = &now
	return nil
}

// guardedUpdate applies updates only when the row still carries the version
// the caller read. A raced row is re-read to tell "somebody else decided"
// apart from a transient store problem.
func (s *OrderStateService) guardedUpdate(ctx context.Context, order *models.Order, updates map[string]interface{}) error {
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND kitchen_id = ? AND lock_version = ?", order.ID, order.KitchenID, order.LockVersion).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update order %s: %w", order.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		var current models.Order
		err := s.db.WithContext(ctx).
			Where("id = ? AND kitchen_id = ?", order.ID, order.KitchenID).
			First(&current).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to re-read order %s after conflict: %w", order.ID, err)
		}
		return ErrAlreadyHandled
	}
	return nil
}
