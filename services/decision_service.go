package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/barakat-platform/kitchen-orders-api/models"
)

// Buyer-facing outcome messages. Buyers only ever see coarse status text,
// never internal error detail.
const (
	buyerApprovedText = "Ваш заказ принят в работу 👍\nМы начали обработку и свяжемся с вами при необходимости."
	buyerRejectedText = "По вашему заказу возникли сложности.\nМы свяжемся с вами в ближайшее время для уточнения деталей."
	staffEtaPrompt    = "Через сколько должен приехать курьер? Выберите ETA для заказа %s."
)

// DecisionService applies an approve/reject decision exactly once per order
type DecisionService struct {
	state    *OrderStateService
	registry *KitchenRegistry
	notifier Notifier
}

// NewDecisionService wires the staff decision handler
func NewDecisionService(state *OrderStateService, registry *KitchenRegistry, notifier Notifier) *DecisionService {
	return &DecisionService{state: state, registry: registry, notifier: notifier}
}

// DecisionResult reports what a staff decision produced
type DecisionResult struct {
	Order *models.Order
	// NeedsEta is true when the approval opened a courier ETA decision
	NeedsEta bool
}

// FindOrder locates an order. Events are expected to carry the kitchen id;
// the all-kitchen scan below is a compatibility shim for events that do not.
func (s *DecisionService) FindOrder(ctx context.Context, kitchenID, orderID string) (*models.Order, error) {
	if kitchenID != "" {
		return s.state.GetOrder(ctx, kitchenID, orderID)
	}

	for _, kitchen := range s.registry.All() {
		order, err := s.state.GetOrder(ctx, kitchen.ID, orderID)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, ErrOrderNotFound) {
			return nil, err
		}
	}
	return nil, ErrOrderNotFound
}

// HandleDecision is the single entry point for a staff approve/reject.
// The state transition is the primary effect; buyer notification and the
// staff ETA prompt are best-effort side channels.
func (s *DecisionService) HandleDecision(
	ctx context.Context,
	kitchenID, orderID, decision, staffIdentity string,
) (*DecisionResult, error) {
	if decision != models.DecisionApprove && decision != models.DecisionReject {
		return nil, fmt.Errorf("unknown decision %q", decision)
	}

	order, err := s.FindOrder(ctx, kitchenID, orderID)
	if err != nil {
		return nil, err
	}

	var commission int64
	if decision == models.DecisionApprove {
		commission = models.CommissionFor(order.Items)
	}

	updated, err := s.state.ApplyStaffDecision(ctx, order.KitchenID, order.ID, decision, staffIdentity, commission)
	if err != nil {
		return nil, err
	}

	log.Printf("Order %s %s by staff=%s, reaction=%ds",
		updated.ID, updated.Status, staffIdentity, *updated.ReactionSeconds)

	// buyer notification must not undo the decision
	buyerText := buyerRejectedText
	if updated.Status == models.StatusApproved {
		buyerText = buyerApprovedText
	}
	if err := s.notifier.Send(ctx, updated.BuyerID, buyerText); err != nil {
		log.Printf("Failed to notify buyer %d about order %s: %v", updated.BuyerID, updated.ID, err)
	}

	result := &DecisionResult{Order: updated}

	if updated.Status == models.StatusApproved && updated.CourierState == models.CourierStatePendingEta {
		result.NeedsEta = true
		s.promptStaffForEta(ctx, updated)
	}

	return result, nil
}

// promptStaffForEta asks the kitchen's staff to commit to a courier arrival
// time. A message send, not a state transition.
func (s *DecisionService) promptStaffForEta(ctx context.Context, order *models.Order) {
	kitchen, err := s.registry.Resolve(order.KitchenID)
	if err != nil {
		log.Printf("Cannot prompt staff for ETA, kitchen %s unknown: %v", order.KitchenID, err)
		return
	}

	text := fmt.Sprintf(staffEtaPrompt, order.ID)
	for _, staffID := range kitchen.StaffIDs() {
		if err := s.notifier.Send(ctx, staffID, text); err != nil {
			log.Printf("Failed to send ETA prompt to staff %d for order %s: %v", staffID, order.ID, err)
		}
	}
}
