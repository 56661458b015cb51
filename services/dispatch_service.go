package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/barakat-platform/kitchen-orders-api/models"
	"gorm.io/gorm"
)

const (
	buyerDispatchedText = "Ваш заказ принят в работу.\nВы можете отслеживать доставку в боте курьерской службы."
	buyerNoCourierText  = "Ваш заказ принят. Курьер вызываться не будет."
)

// DispatchService coordinates courier dispatch for approved delivery orders:
// it consumes the staff ETA decision, builds the delivery job, calls the
// courier service and persists the outcome with retry support.
type DispatchService struct {
	db           *gorm.DB
	state        *OrderStateService
	registry     *KitchenRegistry
	courier      CourierClient
	registration RegistrationClient
	notifier     Notifier
}

// NewDispatchService wires the courier dispatch coordinator
func NewDispatchService(
	db *gorm.DB,
	state *OrderStateService,
	registry *KitchenRegistry,
	courier CourierClient,
	registration RegistrationClient,
	notifier Notifier,
) *DispatchService {
	return &DispatchService{
		db:           db,
		state:        state,
		registry:     registry,
		courier:      courier,
		registration: registration,
		notifier:     notifier,
	}
}

// resolveKitchen returns the kitchen that owns the order. Events are expected
// to carry the kitchen id; the all-kitchen scan is a compatibility shim for
// events that do not.
func (s *DispatchService) resolveKitchen(ctx context.Context, kitchenID, orderID string) (string, error) {
	if kitchenID != "" {
		return kitchenID, nil
	}
	for _, kitchen := range s.registry.All() {
		_, err := s.state.GetOrder(ctx, kitchen.ID, orderID)
		if err == nil {
			return kitchen.ID, nil
		}
		if !errors.Is(err, ErrOrderNotFound) {
			return "", err
		}
	}
	return "", ErrOrderNotFound
}

// Dispatch applies the staff ETA choice and, unless the choice declines the
// courier, submits the delivery job. The ETA decision itself is terminal;
// the courier call that follows is retryable.
func (s *DispatchService) Dispatch(ctx context.Context, kitchenID, orderID string, choice EtaChoice) (*models.Order, error) {
	kitchenID, err := s.resolveKitchen(ctx, kitchenID, orderID)
	if err != nil {
		return nil, err
	}

	order, err := s.state.ApplyCourierEtaDecision(ctx, kitchenID, orderID, choice)
	if err != nil {
		return nil, err
	}

	if choice.Decline {
		s.cancelExistingJob(ctx, order)
		s.notifyBuyer(ctx, order, buyerNoCourierText)
		return order, nil
	}

	s.attemptDispatch(ctx, order)
	return order, nil
}

// DeclineCourier is the no-courier branch of the ETA decision
func (s *DispatchService) DeclineCourier(ctx context.Context, kitchenID, orderID string) (*models.Order, error) {
	return s.Dispatch(ctx, kitchenID, orderID, EtaChoice{Decline: true})
}

// RetryDispatch re-reads the order and re-runs the dispatch side of the flow.
// Intentionally available any number of times while the last attempt failed;
// idempotency against the courier API rests on the courier deduplicating by
// order id.
func (s *DispatchService) RetryDispatch(ctx context.Context, kitchenID, orderID string) (*models.Order, error) {
	kitchenID, err := s.resolveKitchen(ctx, kitchenID, orderID)
	if err != nil {
		return nil, err
	}

	order, err := s.state.GetOrder(ctx, kitchenID, orderID)
	if err != nil {
		return nil, err
	}

	switch order.CourierState {
	case models.CourierStateRequested, models.CourierStateFailed, models.CourierStateCreatedOK:
		// dispatch was requested at some point, retry is legal
	default:
		return nil, fmt.Errorf("order %s has no courier request to retry (state=%s)",
			orderID, order.CourierState)
	}

	s.attemptDispatch(ctx, order)
	return order, nil
}

// attemptDispatch runs the side-effect half of dispatch: registration,
// courier call, outcome persistence, buyer notification. Persisting the
// outcome is the only step whose failure is surfaced in the stored row.
func (s *DispatchService) attemptDispatch(ctx context.Context, order *models.Order) {
	req := s.buildCourierRequest(ctx, order)

	// independent side channel, never blocks the courier call
	if err := s.registration.Register(ctx, OrderSummary{
		OrderID:         order.ID,
		KitchenID:       order.KitchenID,
		BuyerID:         order.BuyerID,
		ItemsSummary:    order.ItemsSummary,
		TotalAmount:     order.TotalAmount,
		FulfillmentKind: order.FulfillmentKind,
		DeliveryAddress: order.DeliveryAddress,
		Source:          "kitchen-bot",
	}); err != nil {
		log.Printf("Order registration failed for %s (continuing dispatch): %v", order.ID, err)
	}

	externalRef, dispatchErr := s.courier.Create(ctx, req)
	if dispatchErr != nil {
		log.Printf("Courier create failed for order %s: %v", order.ID, dispatchErr)
	}

	if err := s.state.RecordDispatchResult(ctx, order, externalRef, dispatchErr); err != nil {
		log.Printf("Failed to persist dispatch outcome for order %s: %v", order.ID, err)
		return
	}

	if dispatchErr == nil {
		s.notifyBuyer(ctx, order, buyerDispatchedText)
	}
}

// buildCourierRequest assembles the delivery job from the order row, the
// kitchen's cached pickup address and the buyer profile.
func (s *DispatchService) buildCourierRequest(ctx context.Context, order *models.Order) CourierRequest {
	pickup, err := s.registry.PickupAddress(order.KitchenID)
	if err != nil {
		log.Printf("No pickup address for kitchen %s: %v", order.KitchenID, err)
	}

	var profile models.BuyerProfile
	if err := s.db.WithContext(ctx).First(&profile, "chat_id = ?", order.BuyerID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Buyer profile lookup failed for %d: %v", order.BuyerID, err)
		}
	}

	// the courier API rejects empty ETAs, so a lost ETA degrades to "now"
	eta := time.Now().UTC()
	if order.PickupEtaAt != nil {
		eta = *order.PickupEtaAt
	}

	return CourierRequest{
		OrderID:        order.ID,
		PickupAddress:  pickup,
		DropoffAddress: order.DeliveryAddress,
		PickupEtaAt:    eta,
		CustomerName:   profile.RealName,
		CustomerPhone:  profile.Phone,
		Price:          order.TotalAmount,
		Comment:        order.Comment,
	}
}

// cancelExistingJob best-effort cancels a courier job created by an earlier
// dispatch attempt, so a declined order does not keep a live delivery.
func (s *DispatchService) cancelExistingJob(ctx context.Context, order *models.Order) {
	if order.CourierExternalRef == nil || *order.CourierExternalRef == "" {
		return
	}
	if err := s.courier.Cancel(ctx, *order.CourierExternalRef); err != nil {
		log.Printf("Courier cancel failed for order %s ref=%s: %v",
			order.ID, *order.CourierExternalRef, err)
	}
}

func (s *DispatchService) notifyBuyer(ctx context.Context, order *models.Order, text string) {
	if err := s.notifier.Send(ctx, order.BuyerID, text); err != nil {
		log.Printf("Failed to notify buyer %d about order %s: %v", order.BuyerID, order.ID, err)
	}
}
