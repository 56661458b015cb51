package services

import (
	"context"
	"testing"
	"time"

	"github.com/barakat-platform/kitchen-orders-api/models"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type reconcilerFixture struct {
	db         *gorm.DB
	state      *OrderStateService
	reconciler *Reconciler
	notifier   *MockNotifier
	kitchen    models.Kitchen
}

func setupReconciler(t *testing.T) *reconcilerFixture {
	db := setupServiceTestDB(t)
	kitchen := seedKitchen(t, db, "k1", "501,502")

	registry, err := NewKitchenRegistry(db, 0)
	if err != nil {
		t.Fatalf("Failed to build registry: %v", err)
	}

	state := NewOrderStateService(db)
	notifier := NewMockNotifier()

	return &reconcilerFixture{
		db:         db,
		state:      state,
		reconciler: NewReconciler(db, state, registry, notifier, time.Second),
		notifier:   notifier,
		kitchen:    kitchen,
	}
}

func TestRunOnce_TwoPassMarkerProtocol(t *testing.T) {
	f := setupReconciler(t)
	order := seedOrder(t, f.db, "k1", models.KindDelivery)

	// first pass only marks the row seen, no notification yet
	assert.NoError(t, f.reconciler.RunOnce(context.Background(), f.kitchen))
	assert.Equal(t, 0, f.notifier.Count())

	var stored models.Order
	assert.NoError(t, f.db.First(&stored, "id = ?", order.ID).Error)
	assert.NotNil(t, stored.SeenAt)
	assert.Nil(t, stored.NotifiedAt)

	// second pass notifies every staff member and sets the marker
	assert.NoError(t, f.reconciler.RunOnce(context.Background(), f.kitchen))
	assert.Len(t, f.notifier.SentTo(501), 1)
	assert.Len(t, f.notifier.SentTo(502), 1)

	assert.NoError(t, f.db.First(&stored, "id = ?", order.ID).Error)
	assert.NotNil(t, stored.NotifiedAt)

	// third pass has nothing left to do
	assert.NoError(t, f.reconciler.RunOnce(context.Background(), f.kitchen))
	assert.Equal(t, 2, f.notifier.Count())
}

func TestRunOnce_HandledOrderIsMarkedWithoutSend(t *testing.T) {
	f := setupReconciler(t)
	order := seedOrder(t, f.db, "k1", models.KindPickup)

	assert.NoError(t, f.reconciler.RunOnce(context.Background(), f.kitchen))

	// staff decided through another channel before the notification pass
	_, err := f.state.ApplyStaffDecision(context.Background(), "k1", order.ID, models.DecisionApprove, "staff-1", 0)
	assert.NoError(t, err)

	assert.NoError(t, f.reconciler.RunOnce(context.Background(), f.kitchen))
	assert.Equal(t, 0, f.notifier.Count())

	var stored models.Order
	assert.NoError(t, f.db.First(&stored, "id = ?", order.ID).Error)
	assert.NotNil(t, stored.NotifiedAt)
}

func TestRunOnce_SendFailureLeavesMarkerProgressing(t *testing.T) {
	f := setupReconciler(t)
	order := seedOrder(t, f.db, "k1", models.KindPickup)

	assert.NoError(t, f.reconciler.RunOnce(context.Background(), f.kitchen))

	// a notifier outage must not wedge the loop
	f.notifier.SendErr = assert.AnError
	assert.NoError(t, f.reconciler.RunOnce(context.Background(), f.kitchen))

	var stored models.Order
	assert.NoError(t, f.db.First(&stored, "id = ?", order.ID).Error)
	assert.NotNil(t, stored.NotifiedAt)
}

func TestComposeOrderCard(t *testing.T) {
	f := setupReconciler(t)
	order := seedOrder(t, f.db, "k1", models.KindDelivery)

	assert.NoError(t, f.db.Create(&models.BuyerProfile{
		ChatID:   order.BuyerID,
		RealName: "Алия",
		Phone:    "+7 700 000 00 00",
	}).Error)

	card := f.reconciler.composeOrderCard(context.Background(), order)
	assert.Contains(t, card, order.ID)
	assert.Contains(t, card, "Алия")
	assert.Contains(t, card, "+7 700 000 00 00")
	assert.Contains(t, card, order.ItemsSummary)
	assert.Contains(t, card, order.DeliveryAddress)
}

func TestComposeOrderCard_WithProofURL(t *testing.T) {
	f := setupReconciler(t)
	order := seedOrder(t, f.db, "k1", models.KindDelivery)

	storage := NewMockProofStorage()
	storage.SetAsMockForTesting()
	defer SetProofStorage(nil)

	key, err := storage.Put(context.Background(), order.ID, []byte{1, 2, 3}, "image/png")
	assert.NoError(t, err)
	order.PaymentProofKey = &key

	card := f.reconciler.composeOrderCard(context.Background(), order)
	assert.Contains(t, card, "mock-bucket.example.com")
}
