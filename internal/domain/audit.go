package domain

import (
	"context"
	"encoding/json"
	"time"
)

// AuditAction names a state-changing operation recorded in the audit trail.
type AuditAction string

const (
	AuditAbstractCreate       AuditAction = "abstract.create"
	AuditAbstractUpdate       AuditAction = "abstract.update"
	AuditAbstractReview       AuditAction = "abstract.review"
	AuditAbstractDelete       AuditAction = "abstract.delete"
	AuditAbstractPublicSubmit AuditAction = "abstract.public_submit"
	AuditAbstractTokenEdit    AuditAction = "abstract.token_edit"
	AuditSubmitterRegister    AuditAction = "submitter.register"
	AuditReviewerAdd          AuditAction = "reviewer.add"
	AuditReviewerRemove       AuditAction = "reviewer.remove"
	AuditReviewerResend       AuditAction = "reviewer.resend"
	AuditSettingsUpdate       AuditAction = "settings.update"
)

// Audit entity types.
const (
	AuditEntityAbstract = "abstract"
	AuditEntityUser     = "user"
	AuditEntityEvent    = "event"
)

// AuditLog is an append-only record of a state change. UserID is nil for
// anonymous callers (public submission and management-link edits).
type AuditLog struct {
	ID         string
	EventID    *string
	UserID     *string
	Action     AuditAction
	EntityType string
	EntityID   string
	Changes    json.RawMessage
	CreatedAt  time.Time
}

// AuditRepository defines the interface for audit log storage.
type AuditRepository interface {
	Create(ctx context.Context, entry *AuditLog) error
}
