package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/barakat-platform/kitchen-orders-api/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommissionService settles accrued platform commissions in batches.
// Accrual itself happens inside the approval transition (see
// OrderStateService.ApplyStaffDecision); this service only closes the
// ledger. Settlement is serialized per process: two concurrent requests
// queue up, and the second one finds nothing left to settle.
type CommissionService struct {
	db *gorm.DB
	mu sync.Mutex
}

// NewCommissionService creates the commission ledger over the given store
func NewCommissionService(db *gorm.DB) *CommissionService {
	return &CommissionService{db: db}
}

// Settle closes every currently-unpaid commission of one kitchen under a
// single payment record. Zero unpaid rows means ErrNothingToSettle and no
// write of any kind.
func (s *CommissionService) Settle(ctx context.Context, kitchenID, settlerIdentity string) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var payment *models.Payment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var unpaid []models.Order
		if err := tx.
			Where("kitchen_id = ? AND commission_status = ?", kitchenID, models.CommissionUnpaid).
			Find(&unpaid).Error; err != nil {
			return fmt.Errorf("failed to scan unpaid commissions: %w", err)
		}

		if len(unpaid) == 0 {
			return ErrNothingToSettle
		}

		var total int64
		var periodFrom, periodTo *time.Time
		ids := make([]string, 0, len(unpaid))
		for _, o := range unpaid {
			ids = append(ids, o.ID)
			if o.CommissionAmount != nil {
				total += *o.CommissionAmount
			}
			if o.CommissionAccruedAt != nil {
				t := *o.CommissionAccruedAt
				if periodFrom == nil || t.Before(*periodFrom) {
					periodFrom = &t
				}
				if periodTo == nil || t.After(*periodTo) {
					periodTo = &t
				}
			}
		}

		payment = &models.Payment{
			ID:          uuid.NewString(),
			KitchenID:   kitchenID,
			SettledAt:   time.Now().UTC(),
			TotalAmount: total,
			PeriodFrom:  periodFrom,
			PeriodTo:    periodTo,
			OrderCount:  len(unpaid),
			SettledBy:   settlerIdentity,
		}
		if err := tx.Create(payment).Error; err != nil {
			return fmt.Errorf("failed to create payment record: %w", err)
		}

		if err := tx.Model(&models.Order{}).
			Where("id IN ?", ids).
			Update("commission_status", models.CommissionPaid).Error; err != nil {
			return fmt.Errorf("failed to close commissions: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Settled %d commissions for kitchen %s: total=%d payment=%s",
		payment.OrderCount, kitchenID, payment.TotalAmount, payment.ID)
	return payment, nil
}

// UnpaidTotal sums the outstanding commission for one kitchen
func (s *CommissionService) UnpaidTotal(ctx context.Context, kitchenID string) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("kitchen_id = ? AND commission_status = ?", kitchenID, models.CommissionUnpaid).
		Select("COALESCE(SUM(commission_amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum unpaid commissions: %w", err)
	}
	return total, nil
}
