package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/barakat-platform/kitchen-orders-api/models"
	"gorm.io/gorm"
)

// Reconciler bridges the gap between "order row exists" and "staff has been
// notified". It is the only path by which new orders reach staff attention,
// regardless of which channel created them, and it survives restarts because
// both markers live on the order row.
//
// Marker protocol per order:
//   - seen unset: set it and stop. The creating writer's batch may still be
//     settling, so no notification on the first sighting.
//   - seen set, notified unset: notify staff once, then set notified
//
// A crash between the send and the marker write re-notifies on the next
// tick. Duplicate notification is preferred over silent loss.
type Reconciler struct {
	db       *gorm.DB
	state    *OrderStateService
	registry *KitchenRegistry
	notifier Notifier
	interval time.Duration
}

// NewReconciler wires the reconciliation loop. The interval is the maximum
// staff-notification delay the platform promises.
func NewReconciler(
	db *gorm.DB,
	state *OrderStateService,
	registry *KitchenRegistry,
	notifier Notifier,
	interval time.Duration,
) *Reconciler {
	return &Reconciler{
		db:       db,
		state:    state,
		registry: registry,
		notifier: notifier,
		interval: interval,
	}
}

// Run polls every active kitchen until the context is cancelled
func (r *Reconciler) Run(ctx context.Context) {
	log.Printf("Reconciler started, interval=%s", r.interval)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("Reconciler stopped: %v", ctx.Err())
			return
		case <-ticker.C:
			for _, kitchen := range r.registry.Active() {
				if err := r.RunOnce(ctx, kitchen); err != nil {
					log.Printf("[%s] reconcile pass failed: %v", kitchen.ID, err)
				}
			}
		}
	}
}

// RunOnce applies one marker pass over one kitchen's orders
func (r *Reconciler) RunOnce(ctx context.Context, kitchen models.Kitchen) error {
	var orders []models.Order
	if err := r.db.WithContext(ctx).Preload("Items").
		Where("kitchen_id = ?", kitchen.ID).
		Where("seen_at IS NULL OR notified_at IS NULL").
		Find(&orders).Error; err != nil {
		return fmt.Errorf("failed to scan orders: %w", err)
	}

	for i := range orders {
		order := &orders[i]

		if order.SeenAt == nil {
			if err := r.state.MarkSeen(ctx, order); err != nil {
				log.Printf("[%s] mark seen failed for order %s: %v", kitchen.ID, order.ID, err)
			}
			// notification waits for the next pass
			continue
		}

		if order.NotifiedAt == nil {
			if order.Status == models.StatusCreated {
				r.notifyStaff(ctx, kitchen, order)
			}
			// handled-before-notification orders are marked without a send
			if err := r.state.MarkNotified(ctx, order); err != nil {
				log.Printf("[%s] mark notified failed for order %s: %v", kitchen.ID, order.ID, err)
			}
		}
	}
	return nil
}

// notifyStaff fans the new-order card out to every staff identity of the
// kitchen. Per-recipient failures are logged and do not stop the fan-out.
func (r *Reconciler) notifyStaff(ctx context.Context, kitchen models.Kitchen, order *models.Order) {
	text := r.composeOrderCard(ctx, order)

	for _, staffID := range kitchen.StaffIDs() {
		if err := r.notifier.Send(ctx, staffID, text); err != nil {
			log.Printf("[%s] staff notification failed for %d, order %s: %v",
				kitchen.ID, staffID, order.ID, err)
		}
	}
	log.Printf("[%s] staff notified about order %s", kitchen.ID, order.ID)
}

// composeOrderCard renders the staff-facing order summary
func (r *Reconciler) composeOrderCard(ctx context.Context, order *models.Order) string {
	var profile models.BuyerProfile
	if err := r.db.WithContext(ctx).First(&profile, "chat_id = ?", order.BuyerID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Buyer profile lookup failed for %d: %v", order.BuyerID, err)
		}
	}

	var b strings.Builder
	b.WriteString("🛎 <b>Новый заказ</b>\n\n")
	fmt.Fprintf(&b, "🧾 ID: <code>%s</code>\n\n", order.ID)
	fmt.Fprintf(&b, "👤 <b>Имя:</b> %s\n", orDash(profile.RealName))
	fmt.Fprintf(&b, "📞 <b>Телефон:</b> <code>%s</code>\n", orDash(profile.Phone))
	if order.DeliveryAddress != "" {
		fmt.Fprintf(&b, "📍 <b>Адрес:</b>\n<code>%s</code>\n", order.DeliveryAddress)
	}
	fmt.Fprintf(&b, "\n%s\n\n", order.ItemsSummary)
	if order.IsDelivery() {
		if order.DeliveryFee == 0 {
			b.WriteString("🚚 <b>Доставка:</b> бесплатно\n")
		} else {
			fmt.Fprintf(&b, "🚚 <b>Доставка:</b> %d₩\n", order.DeliveryFee)
		}
	}
	fmt.Fprintf(&b, "💰 Итого: <b>%d₩</b>\n", order.TotalAmount)
	fmt.Fprintf(&b, "🚚 Способ: <b>%s</b>\n", order.FulfillmentKind)
	fmt.Fprintf(&b, "💬 Комментарий: <b>%s</b>", orDash(order.Comment))

	if order.PaymentProofKey != nil && *order.PaymentProofKey != "" {
		if storage := GetProofStorage(); storage != nil {
			if url, err := storage.URL(ctx, *order.PaymentProofKey); err == nil && url != "" {
				fmt.Fprintf(&b, "\n🧾 <a href=\"%s\">Скриншот оплаты</a>", url)
			} else if err != nil {
				log.Printf("Proof URL generation failed for order %s: %v", order.ID, err)
			}
		}
	}

	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
