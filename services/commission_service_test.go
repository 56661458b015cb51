package services

import (
	"context"
	"testing"
	"time"

	"github.com/barakat-platform/kitchen-orders-api/models"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func seedUnpaidCommission(t *testing.T, db *gorm.DB, kitchenID string, amount int64, accruedAt time.Time) *models.Order {
	order := seedOrder(t, db, kitchenID, models.KindPickup)
	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
		"status":                models.StatusApproved,
		"commission_amount":     amount,
		"commission_status":     models.CommissionUnpaid,
		"commission_accrued_at": accruedAt,
	}).Error; err != nil {
		t.Fatalf("Failed to seed unpaid commission: %v", err)
	}
	return order
}

func TestSettle_NothingToSettle(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewCommissionService(db)

	_, err := svc.Settle(context.Background(), "k1", "admin-1")
	assert.ErrorIs(t, err, ErrNothingToSettle)

	// no payment row of any kind
	var count int64
	assert.NoError(t, db.Model(&models.Payment{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestSettle_ClosesUnpaidCommissions(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewCommissionService(db)

	from := time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Second)
	to := time.Now().UTC().Truncate(time.Second)
	seedUnpaidCommission(t, db, "k1", 4000, from)
	seedUnpaidCommission(t, db, "k1", 6000, to)

	// another kitchen's ledger must stay open
	other := seedUnpaidCommission(t, db, "k2", 9000, to)
	// an already-paid row must not be counted twice
	paid := seedUnpaidCommission(t, db, "k1", 1000, to)
	assert.NoError(t, db.Model(&models.Order{}).Where("id = ?", paid.ID).
		Update("commission_status", models.CommissionPaid).Error)

	payment, err := svc.Settle(context.Background(), "k1", "admin-1")
	assert.NoError(t, err)
	assert.Equal(t, int64(10000), payment.TotalAmount)
	assert.Equal(t, 2, payment.OrderCount)
	assert.Equal(t, "admin-1", payment.SettledBy)
	assert.True(t, payment.PeriodFrom.Equal(from))
	assert.True(t, payment.PeriodTo.Equal(to))

	var remaining int64
	assert.NoError(t, db.Model(&models.Order{}).
		Where("kitchen_id = ? AND commission_status = ?", "k1", models.CommissionUnpaid).
		Count(&remaining).Error)
	assert.Equal(t, int64(0), remaining)

	var stored models.Order
	assert.NoError(t, db.First(&stored, "id = ?", other.ID).Error)
	assert.Equal(t, models.CommissionUnpaid, stored.CommissionStatus)
}

func TestSettle_SecondRunFindsNothing(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewCommissionService(db)

	seedUnpaidCommission(t, db, "k1", 4000, time.Now().UTC())

	_, err := svc.Settle(context.Background(), "k1", "admin-1")
	assert.NoError(t, err)

	_, err = svc.Settle(context.Background(), "k1", "admin-2")
	assert.ErrorIs(t, err, ErrNothingToSettle)

	var payments int64
	assert.NoError(t, db.Model(&models.Payment{}).Count(&payments).Error)
	assert.Equal(t, int64(1), payments)
}

func TestUnpaidTotal(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewCommissionService(db)

	total, err := svc.UnpaidTotal(context.Background(), "k1")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), total)

	seedUnpaidCommission(t, db, "k1", 4000, time.Now().UTC())
	seedUnpaidCommission(t, db, "k1", 2500, time.Now().UTC())
	seedUnpaidCommission(t, db, "k2", 7000, time.Now().UTC())

	total, err = svc.UnpaidTotal(context.Background(), "k1")
	assert.NoError(t, err)
	assert.Equal(t, int64(6500), total)
}
