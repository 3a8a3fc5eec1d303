package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventdesk/internal/domain"
)

const speakerColumns = `id, event_id, email, first_name, last_name, status, user_id, created_at, updated_at`

type speakerRepository struct {
	DB *sql.DB
}

func NewSpeakerRepository(db *sql.DB) domain.SpeakerRepository {
	return &speakerRepository{DB: db}
}

func scanSpeaker(row rowScanner) (*domain.Speaker, error) {
	s := &domain.Speaker{}
	var userID sql.NullString
	if err := row.Scan(&s.ID, &s.EventID, &s.Email, &s.FirstName, &s.LastName, &s.Status, &userID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.UserID = nullableString(userID)
	return s, nil
}

func (r *speakerRepository) GetByID(ctx context.Context, id string) (*domain.Speaker, error) {
	query := `SELECT ` + speakerColumns + ` FROM speakers WHERE id = $1`
	s, err := scanSpeaker(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *speakerRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Speaker, error) {
	query := `SELECT ` + speakerColumns + ` FROM speakers WHERE event_id = $1 ORDER BY created_at, email`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	speakers := make([]*domain.Speaker, 0)
	for rows.Next() {
		s, err := scanSpeaker(rows)
		if err != nil {
			return nil, err
		}
		speakers = append(speakers, s)
	}
	return speakers, rows.Err()
}

func (r *speakerRepository) LinkUser(ctx context.Context, speakerID, userID string) error {
	query := `
		UPDATE speakers SET user_id = $2, updated_at = NOW()
		WHERE id = $1 AND (user_id IS NULL OR user_id = $2)
	`
	result, err := r.DB.ExecContext(ctx, query, speakerID, userID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows > 0 {
		return nil
	}
	var exists bool
	if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM speakers WHERE id = $1)`, speakerID).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return domain.ErrConflict
	}
	return domain.ErrNotFound
}

func (r *speakerRepository) UpsertLinked(ctx context.Context, speaker *domain.Speaker) error {
	return upsertLinkedSpeaker(ctx, r.DB, speaker)
}

// upsertLinkedSpeaker inserts the speaker or links the existing (event_id, email) row
// to speaker.UserID. A row already linked to another user is left untouched.
func upsertLinkedSpeaker(ctx context.Context, q querier, speaker *domain.Speaker) error {
	query := `
		INSERT INTO speakers (event_id, email, first_name, last_name, status, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id, email) DO UPDATE
			SET user_id = EXCLUDED.user_id, updated_at = EXCLUDED.updated_at
			WHERE speakers.user_id IS NULL OR speakers.user_id = EXCLUDED.user_id
		RETURNING id
	`
	err := q.QueryRowContext(ctx, query,
		speaker.EventID, speaker.Email, speaker.FirstName, speaker.LastName, speaker.Status,
		speaker.UserID, speaker.CreatedAt, speaker.UpdatedAt,
	).Scan(&speaker.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrConflict
	}
	return err
}
