package services

import (
	"context"
	"fmt"
	"sync"
)

// MockCourierClient is an in-memory CourierClient for tests and dev mode.
// It records every call and can be programmed to fail.
type MockCourierClient struct {
	mu         sync.Mutex
	CreateErr  error
	CancelErr  error
	Created    []CourierRequest
	Cancelled  []string
	refCounter int
}

// NewMockCourierClient creates an empty mock courier client
func NewMockCourierClient() *MockCourierClient {
	return &MockCourierClient{}
}

// Create records the request and returns a synthetic external reference
func (m *MockCourierClient) Create(ctx context.Context, req CourierRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	m.Created = append(m.Created, req)
	m.refCounter++
	return fmt.Sprintf("COURIER-%s-%d", req.OrderID, m.refCounter), nil
}

// Cancel records the cancellation
func (m *MockCourierClient) Cancel(ctx context.Context, externalRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CancelErr != nil {
		return m.CancelErr
	}
	m.Cancelled = append(m.Cancelled, externalRef)
	return nil
}

// CreateCalls returns how many delivery jobs were created
func (m *MockCourierClient) CreateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Created)
}
