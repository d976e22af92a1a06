// Package whatsapp wraps the WhatsApp Business Cloud API: outbound message
// sending, media download, phone normalization and webhook signature
// verification.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL    = "https://graph.facebook.com"
	defaultAPIVersion = "v23.0"

	// Provider rate limits are per phone number; 20 req/s with a small burst
	// keeps well under the published business-initiated limits.
	requestsPerSecond = 20
	requestBurst      = 5
)

// Config holds WhatsApp Business API credentials. Any of them may be empty;
// an unconfigured client degrades to log-only sending instead of failing
// process startup.
type Config struct {
	BusinessAccountID string
	PhoneNumberID     string
	AccessToken       string
	VerifyToken       string
	APIVersion        string
}

// SendResult is the outcome of a single outbound send. Provider and transport
// failures are folded into it; Send* methods never return a Go error.
type SendResult struct {
	Success   bool
	MessageID string
	Error     string
}

// MediaResult is the outcome of a media download.
type MediaResult struct {
	Success  bool
	Data     []byte
	MimeType string
	Error    string
}

// Client is a thin wrapper over the provider's messaging API.
type Client struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	logger     zerolog.Logger
}

// NewClient creates a WhatsApp API client.
func NewClient(config Config, logger zerolog.Logger) *Client {
	if config.APIVersion == "" {
		config.APIVersion = defaultAPIVersion
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst),
		baseURL: defaultBaseURL,
		logger:  logger.With().Str("component", "whatsapp").Logger(),
	}
}

// Configured reports whether the client has the credentials needed to reach
// the provider.
func (c *Client) Configured() bool {
	return c.config.AccessToken != "" && c.config.PhoneNumberID != ""
}

// VerifyToken returns the configured webhook verify token.
func (c *Client) VerifyToken() string {
	return c.config.VerifyToken
}

// VerifyWebhookSignature checks a webhook body against its signature header.
func (c *Client) VerifyWebhookSignature(body []byte, header string) bool {
	return VerifySignature(body, header, c.config.AccessToken)
}

// outboundMessage is the provider's message envelope.
type outboundMessage struct {
	MessagingProduct string           `json:"messaging_product"`
	RecipientType    string           `json:"recipient_type"`
	To               string           `json:"to"`
	Type             string           `json:"type"`
	Text             *textPayload     `json:"text,omitempty"`
	Template         *templatePayload `json:"template,omitempty"`
	Document         *mediaPayload    `json:"document,omitempty"`
	Image            *mediaPayload    `json:"image,omitempty"`
}

type textPayload struct {
	Body       string `json:"body"`
	PreviewURL bool   `json:"preview_url"`
}

type templatePayload struct {
	Name       string              `json:"name"`
	Language   templateLanguage    `json:"language"`
	Components []templateComponent `json:"components,omitempty"`
}

type templateLanguage struct {
	Code string `json:"code"`
}

type templateComponent struct {
	Type       string              `json:"type"`
	Parameters []templateParameter `json:"parameters,omitempty"`
}

type templateParameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type mediaPayload struct {
	Link     string `json:"link"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// SendTextMessage sends a plain text message.
func (c *Client) SendTextMessage(ctx context.Context, to, body string) SendResult {
	return c.send(ctx, &outboundMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               FormatPhoneNumber(to),
		Type:             "text",
		Text:             &textPayload{Body: body},
	})
}

// SendTemplateMessage sends an approved message template with positional body
// parameters.
func (c *Client) SendTemplateMessage(ctx context.Context, to, name, languageCode string, params []string) SendResult {
	tpl := &templatePayload{
		Name:     name,
		Language: templateLanguage{Code: languageCode},
	}
	if len(params) > 0 {
		component := templateComponent{Type: "body"}
		for _, p := range params {
			component.Parameters = append(component.Parameters, templateParameter{Type: "text", Text: p})
		}
		tpl.Components = []templateComponent{component}
	}

	return c.send(ctx, &outboundMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               FormatPhoneNumber(to),
		Type:             "template",
		Template:         tpl,
	})
}

// SendDocument sends a document by public link.
func (c *Client) SendDocument(ctx context.Context, to, link, filename, caption string) SendResult {
	return c.send(ctx, &outboundMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               FormatPhoneNumber(to),
		Type:             "document",
		Document:         &mediaPayload{Link: link, Filename: filename, Caption: caption},
	})
}

// SendImage sends an image by public link.
func (c *Client) SendImage(ctx context.Context, to, link, caption string) SendResult {
	return c.send(ctx, &outboundMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               FormatPhoneNumber(to),
		Type:             "image",
		Image:            &mediaPayload{Link: link, Caption: caption},
	})
}

func (c *Client) send(ctx context.Context, message *outboundMessage) SendResult {
	if !c.Configured() {
		c.logger.Warn().
			Str("to", message.To).
			Str("type", message.Type).
			Msg("WhatsApp credentials not configured - message not sent")
		return SendResult{Success: false, Error: "whatsapp client not configured"}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return SendResult{Success: false, Error: fmt.Sprintf("rate limiter wait: %v", err)}
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return SendResult{Success: false, Error: fmt.Sprintf("failed to marshal message: %v", err)}
	}

	url := fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.config.APIVersion, c.config.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return SendResult{Success: false, Error: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.config.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("to", message.To).Msg("WhatsApp API request failed")
		return SendResult{Success: false, Error: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return SendResult{Success: false, Error: fmt.Sprintf("failed to read response: %v", err)}
	}

	var parsed sendResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return SendResult{Success: false, Error: fmt.Sprintf("failed to decode response: %v", err)}
	}

	if resp.StatusCode >= 300 || parsed.Error != nil {
		errMsg := fmt.Sprintf("provider returned status %d", resp.StatusCode)
		if parsed.Error != nil {
			errMsg = parsed.Error.Message
		}
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("to", message.To).
			Str("error", errMsg).
			Msg("WhatsApp send rejected by provider")
		return SendResult{Success: false, Error: errMsg}
	}

	result := SendResult{Success: true}
	if len(parsed.Messages) > 0 {
		result.MessageID = parsed.Messages[0].ID
	}

	c.logger.Debug().
		Str("to", message.To).
		Str("type", message.Type).
		Str("messageId", result.MessageID).
		Msg("WhatsApp message sent")

	return result
}

// DownloadMedia fetches media bytes for a provider media id. The provider
// requires two steps: resolve the media id to a short-lived URL, then fetch
// the bytes with the same bearer token.
func (c *Client) DownloadMedia(ctx context.Context, mediaID string) MediaResult {
	if !c.Configured() {
		return MediaResult{Success: false, Error: "whatsapp client not configured"}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return MediaResult{Success: false, Error: fmt.Sprintf("rate limiter wait: %v", err)}
	}

	// Step 1: resolve the media URL.
	metaURL := fmt.Sprintf("%s/%s/%s", c.baseURL, c.config.APIVersion, mediaID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, metaURL, nil)
	if err != nil {
		return MediaResult{Success: false, Error: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.config.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return MediaResult{Success: false, Error: err.Error()}
	}
	defer resp.Body.Close()

	var meta struct {
		URL      string `json:"url"`
		MimeType string `json:"mime_type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return MediaResult{Success: false, Error: fmt.Sprintf("failed to decode media metadata: %v", err)}
	}
	if resp.StatusCode >= 300 || meta.URL == "" {
		return MediaResult{Success: false, Error: fmt.Sprintf("media url lookup returned status %d", resp.StatusCode)}
	}

	// Step 2: fetch the bytes.
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, meta.URL, nil)
	if err != nil {
		return MediaResult{Success: false, Error: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.config.AccessToken)

	resp, err = c.httpClient.Do(req)
	if err != nil {
		return MediaResult{Success: false, Error: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return MediaResult{Success: false, Error: fmt.Sprintf("media fetch returned status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return MediaResult{Success: false, Error: fmt.Sprintf("failed to read media body: %v", err)}
	}

	return MediaResult{Success: true, Data: data, MimeType: meta.MimeType}
}
