package domain

import (
	"context"
	"time"
)

// Abstract is a speaker's proposed talk, reviewed before it is scheduled.
// swagger:model Abstract
type Abstract struct {
	ID              string           `json:"id"`
	EventID         string           `json:"eventId"`
	SpeakerID       string           `json:"speakerId"`
	Title           string           `json:"title"`
	Content         string           `json:"content"`
	TrackID         *string          `json:"trackId"`
	Specialty       *string          `json:"specialty"`
	Status          AbstractStatus   `json:"status"`
	ReviewNotes     *string          `json:"reviewNotes,omitempty"`
	ReviewScore     *int             `json:"reviewScore,omitempty"`
	SubmittedAt     *time.Time       `json:"submittedAt"`
	ReviewedAt      *time.Time       `json:"reviewedAt"`
	ManagementToken *string          `json:"-"`
	EventSessionID  *string          `json:"eventSessionId"`
	Version         int              `json:"version"`
	Speaker         *AbstractSpeaker `json:"speaker,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// AbstractSpeaker is the owning speaker as loaded alongside an abstract.
type AbstractSpeaker struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	UserID    *string `json:"userId"`
}

// OwnedBy reports whether the abstract's speaker is linked to userID.
func (a *Abstract) OwnedBy(userID string) bool {
	return a.Speaker != nil && a.Speaker.UserID != nil && *a.Speaker.UserID == userID
}

// RedactReviewFields clears the fields a submitter may not see.
func (a *Abstract) RedactReviewFields() {
	a.ReviewNotes = nil
	a.ReviewScore = nil
}

// MaxReviewScore is the upper bound of reviewScore.
const MaxReviewScore = 100

// AbstractFilter narrows an abstract listing. SpeakerUserID restricts the result
// to abstracts whose speaker is linked to that user.
type AbstractFilter struct {
	Status        *AbstractStatus
	TrackID       *string
	SpeakerID     *string
	SpeakerUserID *string
}

// AbstractRepository defines the interface for abstract storage.
type AbstractRepository interface {
	Create(ctx context.Context, a *Abstract) error
	// CreateWithSpeaker upserts the speaker on (event_id, email) and inserts the
	// abstract for it in one transaction.
	CreateWithSpeaker(ctx context.Context, speaker *Speaker, a *Abstract) error
	GetByID(ctx context.Context, id string) (*Abstract, error)
	GetByManagementToken(ctx context.Context, token string) (*Abstract, error)
	List(ctx context.Context, eventID string, filter AbstractFilter, params PaginationParams) ([]*Abstract, int, error)
	// Update writes a only if the stored version still equals a.Version and bumps
	// it on success. Returns ErrStaleWrite otherwise.
	Update(ctx context.Context, a *Abstract) error
	// Delete removes an abstract that is not linked to a session.
	Delete(ctx context.Context, id string) error
}

// CreateAbstractInput is the payload of a dashboard abstract creation.
type CreateAbstractInput struct {
	SpeakerID string
	Title     string
	Content   string
	TrackID   *string
	Specialty *string
	Status    AbstractStatus
}

// UpdateAbstractInput is a partial dashboard update. Nil fields are left unchanged.
type UpdateAbstractInput struct {
	Title       *string
	Content     *string
	TrackID     *string
	ClearTrack  bool
	Specialty   *string
	Status      *AbstractStatus
	ReviewNotes *string
	ReviewScore *int
}

// TouchesReviewFields reports whether the update writes a review decision or review data.
func (in UpdateAbstractInput) TouchesReviewFields() bool {
	return in.ReviewNotes != nil || in.ReviewScore != nil || (in.Status != nil && in.Status.IsReview())
}

// AbstractPage is one page of an event's abstracts.
type AbstractPage struct {
	Event *Event
	Items []*Abstract
	Total int
}

// AbstractService is the session-authenticated abstract API.
type AbstractService interface {
	List(ctx context.Context, p *Principal, eventID string, filter AbstractFilter, params PaginationParams) (*AbstractPage, error)
	Get(ctx context.Context, p *Principal, eventID, abstractID string) (*Abstract, error)
	Create(ctx context.Context, p *Principal, eventID string, in CreateAbstractInput) (*Abstract, error)
	Update(ctx context.Context, p *Principal, eventID, abstractID string, in UpdateAbstractInput) (*Abstract, error)
	Delete(ctx context.Context, p *Principal, eventID, abstractID string) error
}

// PublicSubmissionInput is an anonymous abstract submission.
type PublicSubmissionInput struct {
	Email     string
	FirstName string
	LastName  string
	Title     string
	Content   string
	TrackID   *string
	Specialty *string
}

// PublicSubmissionResult is returned to an anonymous submitter. The management
// token is only delivered by email.
type PublicSubmissionResult struct {
	ID          string         `json:"id"`
	Status      AbstractStatus `json:"status"`
	SubmittedAt *time.Time     `json:"submittedAt"`
}

// ManagedAbstract is the self-service view behind a management link.
// swagger:model ManagedAbstract
type ManagedAbstract struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	Content          string         `json:"content"`
	TrackID          *string        `json:"trackId"`
	Specialty        *string        `json:"specialty"`
	Status           AbstractStatus `json:"status"`
	SubmittedAt      *time.Time     `json:"submittedAt"`
	EventName        string         `json:"eventName"`
	SpeakerFirstName string         `json:"speakerFirstName"`
	SpeakerLastName  string         `json:"speakerLastName"`
	Tracks           []*Track       `json:"tracks"`
	AbstractDeadline *time.Time     `json:"abstractDeadline"`
	IsEditable       bool           `json:"isEditable"`
}

// SelfServiceEditInput is an edit made through the management link.
type SelfServiceEditInput struct {
	Title      *string
	Content    *string
	TrackID    *string
	ClearTrack bool
}

// PublicAbstractService covers anonymous submission and management-link access.
type PublicAbstractService interface {
	Submit(ctx context.Context, eventSlug string, in PublicSubmissionInput) (*PublicSubmissionResult, error)
	GetByToken(ctx context.Context, token string) (*ManagedAbstract, error)
	UpdateByToken(ctx context.Context, token string, in SelfServiceEditInput) (*ManagedAbstract, error)
}

// SubmitterRegistrationInput is a submitter self-registration for one event.
type SubmitterRegistrationInput struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// SubmitterRegistration is the result of a self-registration.
type SubmitterRegistration struct {
	Token   string   `json:"token"`
	User    *User    `json:"user"`
	Speaker *Speaker `json:"speaker"`
}

// SubmitterService registers submitter accounts against a public event.
type SubmitterService interface {
	Register(ctx context.Context, eventSlug string, in SubmitterRegistrationInput) (*SubmitterRegistration, error)
}
