package domain

import (
	"context"
	"time"
)

// Track is a named grouping of abstracts and sessions within an event.
// swagger:model Track
type Track struct {
	ID        string    `json:"id"`
	EventID   string    `json:"eventId"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	SortOrder int       `json:"sortOrder"`
	CreatedAt time.Time `json:"createdAt"`
}

// TrackRepository defines the interface for track storage.
type TrackRepository interface {
	// GetInEvent returns the track only when it belongs to eventID; otherwise ErrNotFound.
	GetInEvent(ctx context.Context, eventID, trackID string) (*Track, error)
	ListByEventID(ctx context.Context, eventID string) ([]*Track, error)
}
