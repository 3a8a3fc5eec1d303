package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventdesk/internal/domain"
	"eventdesk/internal/policy"
)

type eventSettingsService struct {
	eventRepo      domain.EventRepository
	audit          *AuditTrail
	contextTimeout time.Duration
}

// NewEventSettingsService returns the EventSettingsService.
func NewEventSettingsService(eventRepo domain.EventRepository, audit *AuditTrail, timeout time.Duration) domain.EventSettingsService {
	return &eventSettingsService{eventRepo: eventRepo, audit: audit, contextTimeout: timeout}
}

func (s *eventSettingsService) Get(ctx context.Context, p *domain.Principal, eventID string) (*domain.EventSettings, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := policy.Check(policy.Request{Role: p.Role, Action: policy.ActionRead, Resource: policy.ResourceEventSettings}); err != nil {
		return nil, err
	}
	event, err := loadEventFor(ctx, s.eventRepo, p, eventID)
	if err != nil {
		return nil, err
	}
	return &event.Settings, nil
}

func (s *eventSettingsService) Update(ctx context.Context, p *domain.Principal, eventID string, patch domain.EventSettingsPatch) (*domain.EventSettings, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := policy.Check(policy.Request{Role: p.Role, Action: policy.ActionUpdate, Resource: policy.ResourceEventSettings}); err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	event, err := loadEventFor(ctx, s.eventRepo, p, eventID)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return &event.Settings, nil
	}

	updated, err := s.eventRepo.MergeSettings(ctx, event.ID, patch)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("merge settings: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      p,
		EventID:    event.ID,
		Action:     domain.AuditSettingsUpdate,
		EntityType: domain.AuditEntityEvent,
		EntityID:   event.ID,
		Changes:    auditDiff{Before: event.Settings, After: updated},
	})
	return updated, nil
}
