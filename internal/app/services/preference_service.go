package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/advoga/advoga/internal/app/models"
	"github.com/advoga/advoga/internal/app/models/dto"
)

// PreferenceStore is the persistence surface the preference service needs
type PreferenceStore interface {
	Get(ctx context.Context, recipientID string, isClient bool) (*models.NotificationPreference, error)
	Upsert(ctx context.Context, pref *models.NotificationPreference) error
}

// PreferenceService defines the interface for notification preference operations
type PreferenceService interface {
	GetEffective(ctx context.Context, recipientID string, isClient bool) (*models.NotificationPreference, error)
	Update(ctx context.Context, recipientID string, isClient bool, req *dto.UpdatePreferenceRequest) (*models.NotificationPreference, error)
}

// preferenceServiceImpl implements PreferenceService
type preferenceServiceImpl struct {
	store  PreferenceStore
	logger zerolog.Logger
}

// NewPreferenceService creates a new PreferenceService
func NewPreferenceService(store PreferenceStore, logger zerolog.Logger) PreferenceService {
	return &preferenceServiceImpl{store: store, logger: logger}
}

// GetEffective returns the stored preference for a recipient, or the
// synthesized default when none was ever saved. Reads never fail just
// because a recipient hasn't touched their settings.
func (s *preferenceServiceImpl) GetEffective(ctx context.Context, recipientID string, isClient bool) (*models.NotificationPreference, error) {
	pref, err := s.store.Get(ctx, recipientID, isClient)
	if err != nil {
		return nil, err
	}
	if pref == nil {
		return models.DefaultPreference(recipientID, isClient), nil
	}
	return pref, nil
}

// Update applies a partial update on top of the recipient's effective
// preferences and persists the merged row. Fields the request leaves nil
// keep their current value, so a first-time partial update still lands on
// the documented defaults.
func (s *preferenceServiceImpl) Update(ctx context.Context, recipientID string, isClient bool, req *dto.UpdatePreferenceRequest) (*models.NotificationPreference, error) {
	pref, err := s.GetEffective(ctx, recipientID, isClient)
	if err != nil {
		return nil, err
	}

	if req.EmailEnabled != nil {
		pref.EmailEnabled = *req.EmailEnabled
	}
	if req.PushEnabled != nil {
		pref.PushEnabled = *req.PushEnabled
	}
	if req.WhatsAppEnabled != nil {
		pref.WhatsAppEnabled = *req.WhatsAppEnabled
	}
	if req.UrgentOnly != nil {
		pref.UrgentOnly = *req.UrgentOnly
	}
	if req.BusinessHoursOnly != nil {
		pref.BusinessHoursOnly = *req.BusinessHoursOnly
	}

	if err := s.store.Upsert(ctx, pref); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("recipientId", recipientID).
		Bool("isClient", isClient).
		Msg("Notification preferences updated")
	return pref, nil
}
