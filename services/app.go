package services

import (
	"log"

	"github.com/barakat-platform/kitchen-orders-api/config"
	"gorm.io/gorm"
)

// App bundles the wired core services for the HTTP layer
type App struct {
	State      *OrderStateService
	Registry   *KitchenRegistry
	Decisions  *DecisionService
	Dispatch   *DispatchService
	Commission *CommissionService
	Reconciler *Reconciler
	Notifier   Notifier
}

var appInstance *App

// InitApp wires every core service over the given store and collaborators.
// Collaborators without configured endpoints fall back to recording mocks so
// a development instance works end to end without external services.
func InitApp(db *gorm.DB, cfg *config.Config) *App {
	var courier CourierClient
	if cfg.CourierAPIBase != "" {
		courier = NewCourierClient(cfg)
	} else {
		log.Printf("COURIER_API_BASE not set, using in-memory courier client")
		courier = NewMockCourierClient()
	}

	var registration RegistrationClient
	if cfg.RegistryAPIBase != "" {
		registration = NewRegistrationClient(cfg)
	} else {
		log.Printf("REGISTRY_API_BASE not set, using in-memory registration client")
		registration = NewMockRegistrationClient()
	}

	var notifier Notifier
	if cfg.TelegramBotToken != "" {
		notifier = NewTelegramNotifier(cfg)
	} else {
		log.Printf("TELEGRAM_BOT_TOKEN not set, using in-memory notifier")
		notifier = NewMockNotifier()
	}

	registry, err := NewKitchenRegistry(db, cfg.PickupCacheTTL)
	if err != nil {
		log.Fatalf("Failed to load kitchen registry: %v", err)
	}

	state := NewOrderStateService(db)
	app := &App{
		State:      state,
		Registry:   registry,
		Decisions:  NewDecisionService(state, registry, notifier),
		Dispatch:   NewDispatchService(db, state, registry, courier, registration, notifier),
		Commission: NewCommissionService(db),
		Reconciler: NewReconciler(db, state, registry, notifier, cfg.ReconcileInterval),
		Notifier:   notifier,
	}

	appInstance = app
	return app
}

// GetApp returns the wired application services
func GetApp() *App {
	return appInstance
}

// SetApp sets the application services (primarily for testing)
func SetApp(app *App) {
	appInstance = app
}
