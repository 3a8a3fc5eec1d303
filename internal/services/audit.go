package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"eventdesk/internal/domain"
)

// auditPolicies is the per-action criticality of audit writes. Actions not
// listed are best effort.
var auditPolicies = map[domain.AuditAction]EffectPolicy{
	domain.AuditAbstractCreate:       BestEffort,
	domain.AuditAbstractUpdate:       BestEffort,
	domain.AuditAbstractPublicSubmit: BestEffort,
	domain.AuditAbstractTokenEdit:    BestEffort,
	domain.AuditSubmitterRegister:    BestEffort,
	domain.AuditSettingsUpdate:       BestEffort,
	domain.AuditAbstractReview:       MustSucceed,
	domain.AuditAbstractDelete:       MustSucceed,
	domain.AuditReviewerAdd:          MustSucceed,
	domain.AuditReviewerRemove:       MustSucceed,
	domain.AuditReviewerResend:       MustSucceed,
}

// AuditPolicy returns the effect policy used for action.
func AuditPolicy(action domain.AuditAction) EffectPolicy {
	if p, ok := auditPolicies[action]; ok {
		return p
	}
	return BestEffort
}

// AuditEntry is one state change to record. Changes is marshalled to JSON.
type AuditEntry struct {
	Actor      *domain.Principal
	EventID    string
	Action     domain.AuditAction
	EntityType string
	EntityID   string
	Changes    any
}

// AuditTrail writes audit log entries through the effect runner.
type AuditTrail struct {
	repo    domain.AuditRepository
	effects *Effects
	now     func() time.Time
}

// NewAuditTrail returns an AuditTrail backed by repo.
func NewAuditTrail(repo domain.AuditRepository, effects *Effects) *AuditTrail {
	return &AuditTrail{repo: repo, effects: effects, now: time.Now}
}

// Record builds the log row now and stores it under the action's policy.
func (a *AuditTrail) Record(ctx context.Context, e AuditEntry) {
	row := &domain.AuditLog{
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		CreatedAt:  a.now(),
	}
	if e.EventID != "" {
		eventID := e.EventID
		row.EventID = &eventID
	}
	if e.Actor != nil {
		userID := e.Actor.UserID
		row.UserID = &userID
	}
	changes, err := json.Marshal(e.Changes)
	if err != nil {
		changes = []byte(fmt.Sprintf(`{"marshal_error":%q}`, err.Error()))
	}
	row.Changes = changes

	a.effects.Run(ctx, AuditPolicy(e.Action), "audit "+string(e.Action), func(ctx context.Context) error {
		return a.repo.Create(ctx, row)
	})
}

// auditDiff is the before/after snapshot stored for updates.
type auditDiff struct {
	Before any `json:"before"`
	After  any `json:"after"`
}
