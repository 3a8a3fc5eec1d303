package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"eventdesk/internal/domain"
)

// reviewerRoster is the settings.reviewerUserIds array, or an empty array when the
// key is missing or not an array.
const reviewerRoster = `CASE WHEN jsonb_typeof(settings->'reviewerUserIds') = 'array' THEN settings->'reviewerUserIds' ELSE '[]'::jsonb END`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var settings []byte
	if err := row.Scan(&e.ID, &e.OrganizationID, &e.Name, &e.Slug, &e.Status, &settings, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(settings, &e.Settings); err != nil {
		return nil, fmt.Errorf("decode settings of event %s: %w", e.ID, err)
	}
	return e, nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT id, organization_id, name, slug, status, settings, created_at, updated_at
		FROM events
		WHERE id = $1
	`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) GetPublicBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	query := `
		SELECT id, organization_id, name, slug, status, settings, created_at, updated_at
		FROM events
		WHERE slug = $1 AND status IN ('PUBLISHED', 'LIVE')
		ORDER BY created_at DESC
		LIMIT 1
	`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) AppendReviewer(ctx context.Context, eventID, userID string) (*domain.EventSettings, error) {
	query := `
		UPDATE events
		SET settings = jsonb_set(settings, '{reviewerUserIds}', ` + reviewerRoster + ` || to_jsonb($2::text)),
			updated_at = NOW()
		WHERE id = $1 AND NOT (` + reviewerRoster + ` ? $2)
		RETURNING settings
	`
	settings, err := r.updateSettings(ctx, query, eventID, userID)
	if !errors.Is(err, sql.ErrNoRows) {
		return settings, err
	}
	exists, err := r.exists(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrAlreadyReviewer
	}
	return nil, domain.ErrNotFound
}

func (r *eventRepository) RemoveReviewer(ctx context.Context, eventID, userID string) (*domain.EventSettings, error) {
	query := `
		UPDATE events
		SET settings = jsonb_set(settings, '{reviewerUserIds}', COALESCE(
				(SELECT jsonb_agg(elem) FROM jsonb_array_elements(settings->'reviewerUserIds') AS elem WHERE elem <> to_jsonb($2::text)),
				'[]'::jsonb)),
			updated_at = NOW()
		WHERE id = $1 AND ` + reviewerRoster + ` ? $2
		RETURNING settings
	`
	settings, err := r.updateSettings(ctx, query, eventID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return settings, err
}

func (r *eventRepository) MergeSettings(ctx context.Context, eventID string, patch domain.EventSettingsPatch) (*domain.EventSettings, error) {
	doc, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("encode settings patch: %w", err)
	}
	query := `
		UPDATE events
		SET settings = settings || $2::jsonb, updated_at = NOW()
		WHERE id = $1
		RETURNING settings
	`
	settings, err := r.updateSettings(ctx, query, eventID, string(doc))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return settings, err
}

func (r *eventRepository) updateSettings(ctx context.Context, query string, args ...any) (*domain.EventSettings, error) {
	var raw []byte
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(&raw); err != nil {
		return nil, err
	}
	settings := &domain.EventSettings{}
	if err := json.Unmarshal(raw, settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return settings, nil
}

func (r *eventRepository) exists(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, eventID).Scan(&exists)
	return exists, err
}
