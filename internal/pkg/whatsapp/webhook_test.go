package whatsapp

import (
	"testing"
	"time"
)

const sampleInbound = `{
	"object": "whatsapp_business_account",
	"entry": [{
		"id": "123456",
		"changes": [{
			"field": "messages",
			"value": {
				"messaging_product": "whatsapp",
				"contacts": [{"wa_id": "5511999998888", "profile": {"name": "Carlos Pereira"}}],
				"messages": [
					{"from": "5511999998888", "id": "wamid.A1", "timestamp": "1717300800", "type": "text",
					 "text": {"body": "Preciso de ajuda urgente"}},
					{"from": "5511999998888", "id": "wamid.A2", "timestamp": "1717300860", "type": "document",
					 "document": {"id": "media-1", "mime_type": "application/pdf", "filename": "contrato.pdf", "caption": "segue o contrato"}},
					{"from": "5511999998888", "id": "wamid.A3", "timestamp": "1717300920", "type": "sticker"}
				]
			}
		}]
	}]
}`

const sampleStatuses = `{
	"object": "whatsapp_business_account",
	"entry": [{
		"id": "123456",
		"changes": [{
			"field": "messages",
			"value": {
				"messaging_product": "whatsapp",
				"statuses": [
					{"id": "wamid.B1", "status": "delivered", "timestamp": "1717300800", "recipient_id": "5511999998888"},
					{"id": "wamid.B1", "status": "read", "timestamp": "1717300900", "recipient_id": "5511999998888"}
				]
			}
		}]
	}]
}`

func TestParseWebhookMessages(t *testing.T) {
	messages, statuses, err := ParseWebhook([]byte(sampleInbound))
	if err != nil {
		t.Fatalf("ParseWebhook failed: %v", err)
	}
	if len(statuses) != 0 {
		t.Errorf("expected no statuses, got %d", len(statuses))
	}
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}

	text := messages[0]
	if text.Kind != InboundText {
		t.Errorf("message 0 kind = %q, want text", text.Kind)
	}
	if text.Text != "Preciso de ajuda urgente" {
		t.Errorf("message 0 text = %q", text.Text)
	}
	if text.From != "5511999998888" || text.SenderName != "Carlos Pereira" {
		t.Errorf("message 0 sender = %q / %q", text.From, text.SenderName)
	}
	if text.Timestamp != time.Unix(1717300800, 0).UTC() {
		t.Errorf("message 0 timestamp = %v", text.Timestamp)
	}

	doc := messages[1]
	if doc.Kind != InboundDocument {
		t.Errorf("message 1 kind = %q, want document", doc.Kind)
	}
	if doc.MediaID != "media-1" || doc.Filename != "contrato.pdf" || doc.MimeType != "application/pdf" {
		t.Errorf("message 1 media fields = %q / %q / %q", doc.MediaID, doc.Filename, doc.MimeType)
	}
	if doc.Text != "segue o contrato" {
		t.Errorf("message 1 caption = %q", doc.Text)
	}

	// Unrecognized type comes back tagged unknown, not dropped.
	unknown := messages[2]
	if unknown.Kind != InboundUnknown {
		t.Errorf("message 2 kind = %q, want unknown", unknown.Kind)
	}
	if unknown.RawType != "sticker" {
		t.Errorf("message 2 raw type = %q", unknown.RawType)
	}
}

func TestParseWebhookStatuses(t *testing.T) {
	messages, statuses, err := ParseWebhook([]byte(sampleStatuses))
	if err != nil {
		t.Fatalf("ParseWebhook failed: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("expected no messages, got %d", len(messages))
	}
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if statuses[0].Status != "delivered" || statuses[1].Status != "read" {
		t.Errorf("statuses = %q, %q", statuses[0].Status, statuses[1].Status)
	}
	if statuses[0].ProviderID != "wamid.B1" {
		t.Errorf("status provider id = %q", statuses[0].ProviderID)
	}
}

func TestParseWebhookBadPayloads(t *testing.T) {
	if _, _, err := ParseWebhook([]byte("not json")); err == nil {
		t.Error("malformed JSON must return an error")
	}

	messages, statuses, err := ParseWebhook([]byte(`{"object":"whatsapp_business_account","entry":[]}`))
	if err != nil {
		t.Fatalf("empty envelope should parse: %v", err)
	}
	if len(messages) != 0 || len(statuses) != 0 {
		t.Error("empty envelope should yield no items")
	}

	// A bad timestamp yields the zero time rather than an error.
	badTS := `{"entry":[{"changes":[{"field":"messages","value":{"messages":[{"from":"55119","id":"wamid.X","timestamp":"oops","type":"text","text":{"body":"hi"}}]}}]}]}`
	messages, _, err = ParseWebhook([]byte(badTS))
	if err != nil {
		t.Fatalf("bad timestamp should not fail the parse: %v", err)
	}
	if !messages[0].Timestamp.IsZero() {
		t.Errorf("bad timestamp should decode as zero, got %v", messages[0].Timestamp)
	}
}
