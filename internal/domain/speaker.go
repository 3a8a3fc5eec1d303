package domain

import (
	"context"
	"time"
)

// SpeakerStatus is the participation state of a speaker at an event.
type SpeakerStatus string

const (
	SpeakerStatusInvited   SpeakerStatus = "INVITED"
	SpeakerStatusConfirmed SpeakerStatus = "CONFIRMED"
	SpeakerStatusDeclined  SpeakerStatus = "DECLINED"
	SpeakerStatusCancelled SpeakerStatus = "CANCELLED"
)

// Speaker represents a person associated with one event. UserID is set once the
// speaker signs in as a submitter or is promoted to reviewer.
// swagger:model Speaker
type Speaker struct {
	ID        string        `json:"id"`
	EventID   string        `json:"eventId"`
	Email     string        `json:"email"`
	FirstName string        `json:"firstName"`
	LastName  string        `json:"lastName"`
	Status    SpeakerStatus `json:"status"`
	UserID    *string       `json:"userId"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// NewSpeaker returns a new Speaker with the given fields. ID is typically set by the repository on create.
func NewSpeaker(eventID, email, firstName, lastName string, status SpeakerStatus, createdAt, updatedAt time.Time) *Speaker {
	return &Speaker{
		EventID:   eventID,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Status:    status,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// OwnedBy reports whether the speaker is linked to the given user.
func (s *Speaker) OwnedBy(userID string) bool {
	return s.UserID != nil && *s.UserID == userID
}

// SpeakerRepository defines the interface for speaker storage.
type SpeakerRepository interface {
	GetByID(ctx context.Context, id string) (*Speaker, error)
	ListByEventID(ctx context.Context, eventID string) ([]*Speaker, error)
	// LinkUser sets user_id on the speaker unless it is already linked to a different user,
	// in which case ErrConflict is returned.
	LinkUser(ctx context.Context, speakerID, userID string) error
	// UpsertLinked inserts the speaker or, when (event_id, email) exists, links it to
	// speaker.UserID. Returns ErrConflict if the row is linked to another user.
	UpsertLinked(ctx context.Context, speaker *Speaker) error
}
