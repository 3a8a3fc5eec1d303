package domain

import "context"

// ReviewerSource tells how a reviewer was added to the roster.
type ReviewerSource string

const (
	ReviewerSourceSpeaker ReviewerSource = "speaker"
	ReviewerSourceDirect  ReviewerSource = "direct"
)

// Reviewer is the single projection of a roster entry, whether or not the
// account is linked to one of the event's speakers.
// swagger:model Reviewer
type Reviewer struct {
	UserID        string         `json:"userId"`
	SpeakerID     *string        `json:"speakerId,omitempty"`
	FirstName     string         `json:"firstName"`
	LastName      string         `json:"lastName"`
	Email         string         `json:"email"`
	AccountActive bool           `json:"accountActive"`
	Source        ReviewerSource `json:"source"`
}

// ReviewerRoster is an event's reviewers plus the speakers that could still be added.
// swagger:model ReviewerRoster
type ReviewerRoster struct {
	Reviewers         []Reviewer `json:"reviewers"`
	AvailableSpeakers []*Speaker `json:"availableSpeakers"`
}

// BuildReviewerRoster projects the roster ids onto the loaded users and event
// speakers. Entries keep roster order; ids with no user row are skipped.
func BuildReviewerRoster(rosterIDs []string, users []*User, speakers []*Speaker) ReviewerRoster {
	usersByID := make(map[string]*User, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}
	speakerByUser := make(map[string]*Speaker, len(speakers))
	for _, s := range speakers {
		if s.UserID == nil {
			continue
		}
		if _, seen := speakerByUser[*s.UserID]; !seen {
			speakerByUser[*s.UserID] = s
		}
	}

	roster := ReviewerRoster{Reviewers: []Reviewer{}, AvailableSpeakers: []*Speaker{}}
	onRoster := make(map[string]struct{}, len(rosterIDs))
	for _, id := range rosterIDs {
		if _, dup := onRoster[id]; dup {
			continue
		}
		onRoster[id] = struct{}{}
		u, ok := usersByID[id]
		if !ok {
			continue
		}
		roster.Reviewers = append(roster.Reviewers, NewReviewer(u, speakerByUser[id]))
	}
	for _, s := range speakers {
		if s.UserID != nil {
			if _, ok := onRoster[*s.UserID]; ok {
				continue
			}
		}
		roster.AvailableSpeakers = append(roster.AvailableSpeakers, s)
	}
	return roster
}

// NewReviewer builds the projection for user u, preferring the speaker's display
// fields when the account is linked to a speaker of the event.
func NewReviewer(u *User, speaker *Speaker) Reviewer {
	r := Reviewer{
		UserID:        u.ID,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         u.Email,
		AccountActive: u.IsActive(),
		Source:        ReviewerSourceDirect,
	}
	if speaker != nil {
		id := speaker.ID
		r.SpeakerID = &id
		r.FirstName = speaker.FirstName
		r.LastName = speaker.LastName
		r.Email = speaker.Email
		r.Source = ReviewerSourceSpeaker
	}
	return r
}

// AddReviewerInput is the discriminated union accepted by the add-reviewer call.
// SpeakerID is used when Type is speaker; Email and names when Type is direct.
type AddReviewerInput struct {
	Type      ReviewerSource
	SpeakerID string
	Email     string
	FirstName string
	LastName  string
}

// ReviewerService manages an event's reviewer roster.
type ReviewerService interface {
	List(ctx context.Context, p *Principal, eventID string) (*ReviewerRoster, error)
	Add(ctx context.Context, p *Principal, eventID string, in AddReviewerInput) (*Reviewer, error)
	Remove(ctx context.Context, p *Principal, eventID, userID string) error
	ResendInvitation(ctx context.Context, p *Principal, eventID, userID string) error
}
