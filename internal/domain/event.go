package domain

import (
	"context"
	"time"
)

// EventStatus is the publication state of an event.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "DRAFT"
	EventStatusPublished EventStatus = "PUBLISHED"
	EventStatusLive      EventStatus = "LIVE"
	EventStatusCompleted EventStatus = "COMPLETED"
	EventStatusCancelled EventStatus = "CANCELLED"
)

// Event represents a conference event owned by an organization.
// swagger:model Event
type Event struct {
	ID             string        `json:"id"`
	OrganizationID string        `json:"organizationId"`
	Name           string        `json:"name"`
	Slug           string        `json:"slug"`
	Status         EventStatus   `json:"status"`
	Settings       EventSettings `json:"settings"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// IsPublic reports whether the event is visible on the public endpoints.
func (e *Event) IsPublic() bool {
	return e.Status == EventStatusPublished || e.Status == EventStatusLive
}

// EventRepository defines the interface for event storage. Settings writes are
// per-key atomic updates on the settings document, never whole-document replaces.
type EventRepository interface {
	GetByID(ctx context.Context, id string) (*Event, error)
	// GetPublicBySlug returns the most recently created PUBLISHED or LIVE event with the slug.
	GetPublicBySlug(ctx context.Context, slug string) (*Event, error)
	// AppendReviewer adds userID to settings.reviewerUserIds. Returns ErrAlreadyReviewer
	// when it is already present and ErrNotFound when the event does not exist.
	AppendReviewer(ctx context.Context, eventID, userID string) (*EventSettings, error)
	// RemoveReviewer drops userID from the roster. Returns ErrNotFound when absent.
	RemoveReviewer(ctx context.Context, eventID, userID string) (*EventSettings, error)
	// MergeSettings shallow-merges the patch into the stored settings.
	MergeSettings(ctx context.Context, eventID string, patch EventSettingsPatch) (*EventSettings, error)
}

// EventSettingsService reads and patches the typed event settings.
type EventSettingsService interface {
	Get(ctx context.Context, p *Principal, eventID string) (*EventSettings, error)
	Update(ctx context.Context, p *Principal, eventID string, patch EventSettingsPatch) (*EventSettings, error)
}
