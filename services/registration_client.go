package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/barakat-platform/kitchen-orders-api/config"
)

// OrderSummary is the shape pushed to the order registration collaborator
type OrderSummary struct {
	OrderID         string `json:"order_id"`
	KitchenID       string `json:"kitchen_id"`
	BuyerID         int64  `json:"client_tg_id"`
	ItemsSummary    string `json:"items_summary"`
	TotalAmount     int64  `json:"total_amount"`
	FulfillmentKind string `json:"fulfillment_kind"`
	DeliveryAddress string `json:"delivery_address,omitempty"`
	Source          string `json:"source"`
}

// RegistrationClient pushes approved orders to the platform web API.
// Registration is a side channel: its failure never blocks dispatch.
type RegistrationClient interface {
	Register(ctx context.Context, summary OrderSummary) error
}

// HTTPRegistrationClient is the production RegistrationClient
type HTTPRegistrationClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewRegistrationClient creates a registration client from configuration
func NewRegistrationClient(cfg *config.Config) *HTTPRegistrationClient {
	return &HTTPRegistrationClient{
		baseURL: cfg.RegistryAPIBase,
		apiKey:  cfg.RegistryAPIKey,
		httpClient: &http.Client{
			Timeout: cfg.RegistryTimeout,
		},
	}
}

// Register posts the order summary to the web API
func (c *HTTPRegistrationClient) Register(ctx context.Context, summary OrderSummary) error {
	body, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal order summary: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/orders", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create registration request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("X-ROLE", "kitchen")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("order registration failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("order registration failed: status=%d body=%s", resp.StatusCode, snippet)
	}
	return nil
}

// MockRegistrationClient records registrations for tests
type MockRegistrationClient struct {
	mu          sync.Mutex
	RegisterErr error
	Registered  []OrderSummary
}

// NewMockRegistrationClient creates an empty mock registration client
func NewMockRegistrationClient() *MockRegistrationClient {
	return &MockRegistrationClient{}
}

// Register records the summary
func (m *MockRegistrationClient) Register(ctx context.Context, summary OrderSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RegisterErr != nil {
		return m.RegisterErr
	}
	m.Registered = append(m.Registered, summary)
	return nil
}

// Count returns how many orders were registered
func (m *MockRegistrationClient) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Registered)
}
