package domain

import (
	"slices"
	"time"
)

// AbstractStatus is the review lifecycle state of an abstract.
type AbstractStatus string

const (
	AbstractStatusDraft             AbstractStatus = "DRAFT"
	AbstractStatusSubmitted         AbstractStatus = "SUBMITTED"
	AbstractStatusUnderReview       AbstractStatus = "UNDER_REVIEW"
	AbstractStatusAccepted          AbstractStatus = "ACCEPTED"
	AbstractStatusRejected          AbstractStatus = "REJECTED"
	AbstractStatusRevisionRequested AbstractStatus = "REVISION_REQUESTED"
)

// abstractTransitions lists, for every status, the statuses an update may move to.
// Every write path plans its status change against this table.
var abstractTransitions = map[AbstractStatus][]AbstractStatus{
	AbstractStatusDraft:             {AbstractStatusDraft, AbstractStatusSubmitted},
	AbstractStatusSubmitted:         {AbstractStatusSubmitted, AbstractStatusUnderReview, AbstractStatusAccepted, AbstractStatusRejected, AbstractStatusRevisionRequested},
	AbstractStatusUnderReview:       {AbstractStatusUnderReview, AbstractStatusAccepted, AbstractStatusRejected, AbstractStatusRevisionRequested},
	AbstractStatusRevisionRequested: {AbstractStatusRevisionRequested, AbstractStatusSubmitted},
	AbstractStatusAccepted:          {AbstractStatusAccepted},
	AbstractStatusRejected:          {AbstractStatusRejected},
}

// Valid reports whether s is one of the six lifecycle states.
func (s AbstractStatus) Valid() bool {
	_, ok := abstractTransitions[s]
	return ok
}

// IsReview reports whether entering s is a review decision.
func (s AbstractStatus) IsReview() bool {
	switch s {
	case AbstractStatusUnderReview, AbstractStatusAccepted, AbstractStatusRejected, AbstractStatusRevisionRequested:
		return true
	}
	return false
}

// IsEditable reports whether the submitter may still change an abstract in status s.
func (s AbstractStatus) IsEditable() bool {
	switch s {
	case AbstractStatusDraft, AbstractStatusSubmitted, AbstractStatusRevisionRequested:
		return true
	}
	return false
}

// StatusChange is a planned, validated status change and the timestamps it stamps.
type StatusChange struct {
	From           AbstractStatus
	To             AbstractStatus
	StampSubmitted bool
	StampReviewed  bool
}

// IsReviewAction reports whether the change is a review decision that notifies the speaker.
func (c StatusChange) IsReviewAction() bool {
	return c.StampReviewed
}

// Apply sets the new status and stamps on a.
func (c StatusChange) Apply(a *Abstract, now time.Time) {
	a.Status = c.To
	if c.StampSubmitted {
		t := now
		a.SubmittedAt = &t
	}
	if c.StampReviewed {
		t := now
		a.ReviewedAt = &t
	}
}

// PlanTransition validates from -> to against the transition table. Entering
// SUBMITTED from DRAFT or REVISION_REQUESTED stamps submittedAt; entering any
// review status, including naming the current one again, stamps reviewedAt.
func PlanTransition(from, to AbstractStatus) (StatusChange, error) {
	if !to.Valid() {
		return StatusChange{}, NewError(ErrInvalidInput, "unknown abstract status %q", to)
	}
	allowed, ok := abstractTransitions[from]
	if !ok || !slices.Contains(allowed, to) {
		return StatusChange{}, NewError(ErrInvalidInput, "cannot change abstract status from %s to %s", from, to)
	}
	change := StatusChange{From: from, To: to}
	if to == AbstractStatusSubmitted && (from == AbstractStatusDraft || from == AbstractStatusRevisionRequested) {
		change.StampSubmitted = true
	}
	if to.IsReview() {
		change.StampReviewed = true
	}
	return change, nil
}

// PlanInitial validates the status a new abstract starts in. Empty means DRAFT.
func PlanInitial(status AbstractStatus) (StatusChange, error) {
	switch status {
	case "", AbstractStatusDraft:
		return StatusChange{To: AbstractStatusDraft}, nil
	case AbstractStatusSubmitted:
		return StatusChange{To: AbstractStatusSubmitted, StampSubmitted: true}, nil
	}
	return StatusChange{}, NewError(ErrInvalidInput, "a new abstract must start as %s or %s", AbstractStatusDraft, AbstractStatusSubmitted)
}

// CheckSelfServiceEditable gates edits made through the management link. The
// status is checked before the deadline.
func CheckSelfServiceEditable(status AbstractStatus, deadline *time.Time, now time.Time) error {
	if !status.IsEditable() {
		return NewError(ErrForbidden, "This abstract can no longer be edited because its status is %s", status)
	}
	if deadline != nil && now.After(*deadline) {
		return NewError(ErrForbidden, "The abstract submission deadline has passed")
	}
	return nil
}
