package whatsapp

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// InboundKind tags the decoded variant of an inbound webhook message.
type InboundKind string

const (
	InboundText     InboundKind = "text"
	InboundImage    InboundKind = "image"
	InboundDocument InboundKind = "document"
	InboundUnknown  InboundKind = "unknown"
)

// InboundMessage is one user-sent message extracted from a webhook delivery.
type InboundMessage struct {
	Kind        InboundKind
	ProviderID  string // Provider message id (wamid...)
	From        string // Sender phone in provider form
	SenderName  string // Profile name from the contacts block, may be empty
	Timestamp   time.Time
	Text        string // Body for text, caption for media
	MediaID     string // Provider media id for image/document
	Filename    string // Document filename, empty otherwise
	MimeType    string
	RawType     string // Provider's type string, kept for unknown kinds
}

// StatusUpdate is one delivery-status change extracted from a webhook delivery.
type StatusUpdate struct {
	ProviderID  string // Message id the status refers to
	Status      string // sent | delivered | read | failed
	RecipientID string // Phone of the message recipient
	Timestamp   time.Time
}

// webhookEnvelope mirrors the provider's nested webhook JSON. Only the fields
// this system consumes are declared; everything else is ignored on decode.
type webhookEnvelope struct {
	Object string `json:"object"`
	Entry  []struct {
		ID      string `json:"id"`
		Changes []struct {
			Field string       `json:"field"`
			Value webhookValue `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type webhookValue struct {
	MessagingProduct string `json:"messaging_product"`
	Contacts         []struct {
		WaID    string `json:"wa_id"`
		Profile struct {
			Name string `json:"name"`
		} `json:"profile"`
	} `json:"contacts"`
	Messages []webhookMessage `json:"messages"`
	Statuses []struct {
		ID          string `json:"id"`
		Status      string `json:"status"`
		Timestamp   string `json:"timestamp"`
		RecipientID string `json:"recipient_id"`
	} `json:"statuses"`
}

type webhookMessage struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text"`
	Image    *webhookMedia `json:"image"`
	Document *webhookMedia `json:"document"`
}

type webhookMedia struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	SHA256   string `json:"sha256"`
	Caption  string `json:"caption"`
	Filename string `json:"filename"`
}

// ParseWebhook decodes a provider webhook body into flat lists of inbound
// messages and status updates. Unrecognized message types come back tagged
// InboundUnknown rather than being dropped, so the caller decides their fate.
func ParseWebhook(body []byte) ([]InboundMessage, []StatusUpdate, error) {
	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, nil, fmt.Errorf("failed to decode webhook payload: %w", err)
	}

	var messages []InboundMessage
	var statuses []StatusUpdate

	for _, entry := range envelope.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}

			names := make(map[string]string, len(change.Value.Contacts))
			for _, contact := range change.Value.Contacts {
				names[contact.WaID] = contact.Profile.Name
			}

			for _, raw := range change.Value.Messages {
				messages = append(messages, decodeMessage(raw, names[raw.From]))
			}

			for _, raw := range change.Value.Statuses {
				statuses = append(statuses, StatusUpdate{
					ProviderID:  raw.ID,
					Status:      raw.Status,
					RecipientID: raw.RecipientID,
					Timestamp:   parseUnixTimestamp(raw.Timestamp),
				})
			}
		}
	}

	return messages, statuses, nil
}

func decodeMessage(raw webhookMessage, senderName string) InboundMessage {
	msg := InboundMessage{
		ProviderID: raw.ID,
		From:       raw.From,
		SenderName: senderName,
		Timestamp:  parseUnixTimestamp(raw.Timestamp),
		RawType:    raw.Type,
	}

	switch raw.Type {
	case "text":
		msg.Kind = InboundText
		if raw.Text != nil {
			msg.Text = raw.Text.Body
		}
	case "image":
		msg.Kind = InboundImage
		if raw.Image != nil {
			msg.Text = raw.Image.Caption
			msg.MediaID = raw.Image.ID
			msg.MimeType = raw.Image.MimeType
		}
	case "document":
		msg.Kind = InboundDocument
		if raw.Document != nil {
			msg.Text = raw.Document.Caption
			msg.MediaID = raw.Document.ID
			msg.MimeType = raw.Document.MimeType
			msg.Filename = raw.Document.Filename
		}
	default:
		msg.Kind = InboundUnknown
	}

	return msg
}

// parseUnixTimestamp converts the provider's string unix-seconds timestamp.
// An unparseable value yields the zero time, which downstream treats as
// outside business hours.
func parseUnixTimestamp(s string) time.Time {
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil || secs <= 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}
