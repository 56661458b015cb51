package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/barakat-platform/kitchen-orders-api/config"
)

// Notifier delivers a message to a chat identity (staff member or buyer).
// Callers treat sends as fire-and-forget: a failed notification is logged
// and never aborts the order processing that triggered it.
type Notifier interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// TelegramNotifier sends messages through the Telegram Bot API
type TelegramNotifier struct {
	apiBase    string
	token      string
	httpClient *http.Client
}

// NewTelegramNotifier creates a notifier from configuration
func NewTelegramNotifier(cfg *config.Config) *TelegramNotifier {
	return &TelegramNotifier{
		apiBase: cfg.TelegramAPIBase,
		token:   cfg.TelegramBotToken,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type telegramSendRequest struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// Send posts a sendMessage call to the Bot API
func (n *TelegramNotifier) Send(ctx context.Context, chatID int64, text string) error {
	body, err := json.Marshal(telegramSendRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return fmt.Errorf("failed to marshal telegram message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram send failed: status=%d body=%s", resp.StatusCode, snippet)
	}
	return nil
}

// MockNotifier records sent messages for tests and can be set to fail
type MockNotifier struct {
	mu      sync.Mutex
	SendErr error
	Sent    []MockMessage
}

// MockMessage is one recorded notification
type MockMessage struct {
	ChatID int64
	Text   string
}

// NewMockNotifier creates an empty mock notifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// Send records the message
func (m *MockNotifier) Send(ctx context.Context, chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	m.Sent = append(m.Sent, MockMessage{ChatID: chatID, Text: text})
	return nil
}

// SentTo returns the messages delivered to one chat identity
func (m *MockNotifier) SentTo(chatID int64) []MockMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var msgs []MockMessage
	for _, msg := range m.Sent {
		if msg.ChatID == chatID {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

// Count returns how many messages were sent in total
func (m *MockNotifier) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}
