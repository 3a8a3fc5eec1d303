// Package policy decides whether a role may perform an action on a resource.
// Decisions are pure: they never touch storage and are evaluated before any write.
package policy

import (
	"slices"

	"eventdesk/internal/domain"
)

// Action is an operation a caller attempts on a resource.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionReview Action = "review"
)

// Resource is a kind of object the policy covers.
type Resource string

const (
	ResourceAbstract       Resource = "abstract"
	ResourceTrack          Resource = "track"
	ResourceHotel          Resource = "hotel"
	ResourceReviewerRoster Resource = "reviewer_roster"
	ResourceSpeaker        Resource = "speaker"
	ResourceEventSettings  Resource = "event_settings"
)

// Ownership is whether the target resource belongs to the caller.
type Ownership int

const (
	OwnershipUnknown Ownership = iota
	Owned
	NotOwned
)

// Decision is the outcome of an evaluation.
type Decision int

const (
	Allow Decision = iota
	Forbidden
	NotFound
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	}
	return "unknown"
}

// Err maps a decision to the domain sentinel the delivery layer turns into a status code.
func (d Decision) Err() error {
	switch d {
	case Allow:
		return nil
	case NotFound:
		return domain.ErrNotFound
	}
	return domain.ErrForbidden
}

// Request describes one attempted operation.
type Request struct {
	Role      domain.Role
	Action    Action
	Resource  Resource
	Ownership Ownership
	// Status is the current status of the target abstract, checked on submitter updates.
	Status domain.AbstractStatus
	// ReviewFields is set when the write touches a review status, notes or score.
	ReviewFields bool
}

var (
	allActions = []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete}
	readOnly   = []Action{ActionRead}
	rosterOps  = []Action{ActionRead, ActionCreate, ActionDelete}
	settingOps = []Action{ActionRead, ActionUpdate}
)

// capabilities is the role -> resource -> permitted actions table.
var capabilities = map[domain.Role]map[Resource][]Action{
	domain.RoleSuperAdmin: {
		ResourceAbstract:       {ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionReview},
		ResourceTrack:          allActions,
		ResourceHotel:          allActions,
		ResourceReviewerRoster: rosterOps,
		ResourceSpeaker:        allActions,
		ResourceEventSettings:  settingOps,
	},
	domain.RoleAdmin: {
		ResourceAbstract:       {ActionCreate, ActionRead, ActionUpdate, ActionReview},
		ResourceTrack:          allActions,
		ResourceHotel:          allActions,
		ResourceReviewerRoster: rosterOps,
		ResourceSpeaker:        allActions,
		ResourceEventSettings:  settingOps,
	},
	domain.RoleOrganizer: {
		ResourceAbstract:       {ActionCreate, ActionRead, ActionUpdate},
		ResourceTrack:          allActions,
		ResourceHotel:          allActions,
		ResourceReviewerRoster: rosterOps,
		ResourceSpeaker:        allActions,
		ResourceEventSettings:  settingOps,
	},
	domain.RoleReviewer: {
		ResourceAbstract: readOnly,
		ResourceTrack:    readOnly,
		ResourceHotel:    readOnly,
		ResourceSpeaker:  readOnly,
	},
	domain.RoleSubmitter: {
		ResourceAbstract: {ActionCreate, ActionRead, ActionUpdate},
		ResourceTrack:    readOnly,
		ResourceHotel:    readOnly,
		ResourceSpeaker:  {ActionRead, ActionUpdate},
	},
}

// Evaluate applies the capability table to req.
func Evaluate(req Request) Decision {
	submitterScoped := req.Role == domain.RoleSubmitter &&
		(req.Resource == ResourceAbstract || req.Resource == ResourceSpeaker)
	if submitterScoped && req.Ownership == NotOwned {
		return NotFound
	}
	if !can(req.Role, req.Resource, req.Action) {
		return Forbidden
	}
	if req.ReviewFields && !can(req.Role, req.Resource, ActionReview) {
		return Forbidden
	}
	if submitterScoped && req.Resource == ResourceAbstract && req.Action == ActionUpdate && !req.Status.IsEditable() {
		return Forbidden
	}
	return Allow
}

// Check is Evaluate returning the mapped error.
func Check(req Request) error {
	return Evaluate(req).Err()
}

func can(role domain.Role, resource Resource, action Action) bool {
	return slices.Contains(capabilities[role][resource], action)
}

// CanWriteReviewFields reports whether role may set review statuses, notes and scores.
func CanWriteReviewFields(role domain.Role) bool {
	return can(role, ResourceAbstract, ActionReview)
}

// CanViewReviewFields reports whether role may see review notes and scores.
func CanViewReviewFields(role domain.Role) bool {
	return role != domain.RoleSubmitter
}

// EventAccess scopes a principal to an event. Callers outside the event's scope
// get NotFound so the event's existence is not disclosed.
func EventAccess(p *domain.Principal, e *domain.Event) Decision {
	switch p.Role {
	case domain.RoleSuperAdmin:
		return Allow
	case domain.RoleAdmin, domain.RoleOrganizer:
		if p.OrganizationID != nil && *p.OrganizationID == e.OrganizationID {
			return Allow
		}
	case domain.RoleReviewer:
		if e.Settings.HasReviewer(p.UserID) {
			return Allow
		}
	case domain.RoleSubmitter:
		return Allow
	}
	return NotFound
}

// OwnershipOf converts an ownership test into an Ownership value.
func OwnershipOf(owned bool) Ownership {
	if owned {
		return Owned
	}
	return NotOwned
}
