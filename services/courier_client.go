package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/barakat-platform/kitchen-orders-api/config"
)

// CourierRequest is the delivery job submitted to the courier service
type CourierRequest struct {
	OrderID        string    `json:"order_id"`
	PickupAddress  string    `json:"pickup_address"`
	DropoffAddress string    `json:"dropoff_address"`
	PickupEtaAt    time.Time `json:"pickup_eta_at"`
	CustomerName   string    `json:"customer_name"`
	CustomerPhone  string    `json:"customer_phone"`
	Price          int64     `json:"price"`
	Comment        string    `json:"comment"`
}

// CourierClient talks to the external courier dispatch service
type CourierClient interface {
	Create(ctx context.Context, req CourierRequest) (string, error)
	Cancel(ctx context.Context, externalRef string) error
}

// HTTPCourierClient is the production CourierClient. The courier service is
// assumed to deduplicate jobs by order id; this client does not retry on its
// own.
type HTTPCourierClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewCourierClient creates a courier client from configuration
func NewCourierClient(cfg *config.Config) *HTTPCourierClient {
	return &HTTPCourierClient{
		baseURL: cfg.CourierAPIBase,
		apiKey:  cfg.CourierAPIKey,
		httpClient: &http.Client{
			Timeout: cfg.CourierTimeout,
		},
	}
}

type courierCreateResponse struct {
	ID string `json:"id"`
}

// Create registers a delivery job and returns the courier's external reference
func (c *HTTPCourierClient) Create(ctx context.Context, req CourierRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal courier request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/orders", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create courier request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("courier create failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("courier create failed: status=%d body=%s", resp.StatusCode, snippet)
	}

	var created courierCreateResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("failed to decode courier response: %w", err)
	}
	if created.ID == "" {
		// 200 without an external id leaves us unable to ever cancel the job
		return "", fmt.Errorf("courier returned no external id: %w", ErrContractViolation)
	}
	return created.ID, nil
}

// Cancel asks the courier service to drop a previously created job
func (c *HTTPCourierClient) Cancel(ctx context.Context, externalRef string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/api/v1/orders/"+externalRef, nil)
	if err != nil {
		return fmt.Errorf("failed to create courier cancel request: %w", err)
	}
	httpReq.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("courier cancel failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("courier cancel failed: status=%d", resp.StatusCode)
	}
	log.Printf("Courier job %s cancelled", externalRef)
	return nil
}
