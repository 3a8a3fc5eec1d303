package postgres

import (
	"context"
	"database/sql"

	"eventdesk/internal/domain"
)

type auditRepository struct {
	DB *sql.DB
}

func NewAuditRepository(db *sql.DB) domain.AuditRepository {
	return &auditRepository{DB: db}
}

func (r *auditRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	query := `
		INSERT INTO audit_logs (event_id, user_id, action, entity_type, entity_id, changes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	changes := entry.Changes
	if len(changes) == 0 {
		changes = []byte("{}")
	}
	return r.DB.QueryRowContext(ctx, query,
		entry.EventID, entry.UserID, entry.Action, entry.EntityType, entry.EntityID, []byte(changes), entry.CreatedAt,
	).Scan(&entry.ID)
}
