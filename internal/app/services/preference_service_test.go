package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/advoga/advoga/internal/app/models/dto"
)

func prefUpdate(email, push, whatsapp *bool) *dto.UpdatePreferenceRequest {
	return &dto.UpdatePreferenceRequest{
		EmailEnabled:    email,
		PushEnabled:     push,
		WhatsAppEnabled: whatsapp,
	}
}

func TestGetEffectiveSynthesizesDefaults(t *testing.T) {
	svc := NewPreferenceService(newFakePreferences(), zerolog.Nop())

	staff, err := svc.GetEffective(context.Background(), "user-1", false)
	if err != nil {
		t.Fatalf("GetEffective() error = %v", err)
	}
	if !staff.EmailEnabled || !staff.PushEnabled || staff.WhatsAppEnabled {
		t.Errorf("staff defaults = %+v, want email+push on, whatsapp off", staff)
	}
	if staff.BusinessHoursOnly {
		t.Error("staff default should not be business-hours only")
	}

	client, err := svc.GetEffective(context.Background(), "client-1", true)
	if err != nil {
		t.Fatalf("GetEffective() error = %v", err)
	}
	if !client.BusinessHoursOnly {
		t.Error("client default should be business-hours only")
	}
	if client.ClientID == nil || *client.ClientID != "client-1" {
		t.Errorf("client id = %v, want client-1", client.ClientID)
	}
}

func TestUpdateMergesPartialRequest(t *testing.T) {
	store := newFakePreferences()
	svc := NewPreferenceService(store, zerolog.Nop())

	off := false
	on := true
	pref, err := svc.Update(context.Background(), "user-1", false, prefUpdate(&off, nil, &on))
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	// Email was switched off, whatsapp on; push kept its default
	if pref.EmailEnabled {
		t.Error("email should be disabled")
	}
	if !pref.PushEnabled {
		t.Error("push should keep its default")
	}
	if !pref.WhatsAppEnabled {
		t.Error("whatsapp should be enabled")
	}

	// A second partial update builds on the stored row, not the defaults
	pref, err = svc.Update(context.Background(), "user-1", false, prefUpdate(nil, &off, nil))
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if pref.EmailEnabled {
		t.Error("email should stay disabled from the first update")
	}
	if pref.PushEnabled {
		t.Error("push should now be disabled")
	}
}
