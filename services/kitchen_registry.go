package services

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/barakat-platform/kitchen-orders-api/models"
	"gorm.io/gorm"
)

// KitchenRegistry resolves kitchen ids to their routing facts: pickup
// address, owner and staff chat identities, operational status.
//
// The registry holds an immutable snapshot of the kitchens table. Request
// handling never mutates it; Reload swaps the whole snapshot at once.
type KitchenRegistry struct {
	db *gorm.DB

	mu       sync.RWMutex
	snapshot map[string]models.Kitchen
	loadedAt time.Time

	// snapshot TTL; a stale snapshot is refreshed on the next pickup
	// address lookup, so a kitchen move propagates within a few minutes
	ttl time.Duration
}

// NewKitchenRegistry creates a registry backed by the kitchens table and
// loads the initial snapshot. ttl bounds how stale the snapshot may get
// before a pickup lookup forces a refresh; zero disables refreshing.
func NewKitchenRegistry(db *gorm.DB, ttl time.Duration) (*KitchenRegistry, error) {
	r := &KitchenRegistry{db: db, ttl: ttl}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// PickupAddress resolves the kitchen's pickup location for courier payloads,
// refreshing the snapshot first when it has outlived its TTL.
func (r *KitchenRegistry) PickupAddress(kitchenID string) (string, error) {
	r.mu.RLock()
	stale := r.ttl > 0 && time.Since(r.loadedAt) > r.ttl
	r.mu.RUnlock()

	if stale {
		if err := r.Reload(); err != nil {
			// keep serving the stale snapshot rather than failing dispatch
			log.Printf("Kitchen registry refresh failed, using stale snapshot: %v", err)
		}
	}

	k, err := r.Resolve(kitchenID)
	if err != nil {
		return "", err
	}
	return k.PickupAddress, nil
}

// Reload replaces the snapshot with the current contents of the kitchens table
func (r *KitchenRegistry) Reload() error {
	var kitchens []models.Kitchen
	if err := r.db.Find(&kitchens).Error; err != nil {
		return fmt.Errorf("failed to load kitchen registry: %w", err)
	}

	snapshot := make(map[string]models.Kitchen, len(kitchens))
	for _, k := range kitchens {
		snapshot[k.ID] = k
	}

	r.mu.Lock()
	r.snapshot = snapshot
	r.loadedAt = time.Now().UTC()
	r.mu.Unlock()

	log.Printf("Kitchen registry reloaded: %d kitchens", len(snapshot))
	return nil
}

// Resolve returns the kitchen with the given id, or ErrKitchenNotFound
func (r *KitchenRegistry) Resolve(kitchenID string) (models.Kitchen, error) {
	r.mu.RLock()
	k, ok := r.snapshot[kitchenID]
	r.mu.RUnlock()
	if !ok {
		return models.Kitchen{}, ErrKitchenNotFound
	}
	return k, nil
}

// Active returns every kitchen currently accepting orders
func (r *KitchenRegistry) Active() []models.Kitchen {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kitchens := make([]models.Kitchen, 0, len(r.snapshot))
	for _, k := range r.snapshot {
		if k.IsActive() {
			kitchens = append(kitchens, k)
		}
	}
	return kitchens
}

// All returns every registered kitchen, active or not
func (r *KitchenRegistry) All() []models.Kitchen {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kitchens := make([]models.Kitchen, 0, len(r.snapshot))
	for _, k := range r.snapshot {
		kitchens = append(kitchens, k)
	}
	return kitchens
}
