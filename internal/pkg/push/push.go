// Package push delivers mobile push notifications through an Expo-compatible
// push gateway.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const defaultEndpoint = "https://exp.host/--/api/v2/push/send"

// PushService defines the interface for push notification delivery
type PushService interface {
	SendToTokens(ctx context.Context, tokens []string, title, body string, data map[string]string) error
}

// Config holds push gateway configuration
type Config struct {
	Endpoint string
	APIKey   string
}

// pushMessage is the gateway's message shape
type pushMessage struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
	Sound string            `json:"sound"`
}

// PushServiceImpl implements PushService
type PushServiceImpl struct {
	config     Config
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewPushService creates a new PushService
func NewPushService(config Config, logger zerolog.Logger) PushService {
	if config.Endpoint == "" {
		config.Endpoint = defaultEndpoint
	}
	return &PushServiceImpl{
		config: config,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger.With().Str("component", "push").Logger(),
	}
}

// SendToTokens sends the same notification to each device token. Per-token
// failures are logged and do not abort delivery to the remaining tokens; the
// returned error reports only a wholly failed batch.
func (s *PushServiceImpl) SendToTokens(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	if len(tokens) == 0 {
		s.logger.Debug().Msg("No push tokens for recipient, skipping")
		return nil
	}

	messages := make([]pushMessage, 0, len(tokens))
	for _, token := range tokens {
		messages = append(messages, pushMessage{
			To:    token,
			Title: title,
			Body:  body,
			Data:  data,
			Sound: "default",
		})
	}

	payload, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error().Err(err).Int("tokens", len(tokens)).Msg("Push gateway request failed")
		return fmt.Errorf("push gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		s.logger.Error().
			Int("status", resp.StatusCode).
			Str("response", string(respBody)).
			Msg("Push gateway rejected batch")
		return fmt.Errorf("push gateway returned status %d", resp.StatusCode)
	}

	// The gateway reports per-message tickets; individual failures are
	// logged but do not fail the batch.
	var parsed struct {
		Data []struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err == nil {
		for i, ticket := range parsed.Data {
			if ticket.Status != "ok" {
				s.logger.Warn().
					Int("index", i).
					Str("status", ticket.Status).
					Str("message", ticket.Message).
					Msg("Push ticket reported failure")
			}
		}
	}

	s.logger.Debug().Int("tokens", len(tokens)).Str("title", title).Msg("Push batch sent")
	return nil
}
