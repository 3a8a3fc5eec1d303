package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventdesk/internal/domain"
)

type trackRepository struct {
	DB *sql.DB
}

func NewTrackRepository(db *sql.DB) domain.TrackRepository {
	return &trackRepository{DB: db}
}

func (r *trackRepository) GetInEvent(ctx context.Context, eventID, trackID string) (*domain.Track, error) {
	query := `
		SELECT id, event_id, name, color, sort_order, created_at
		FROM tracks
		WHERE id = $1 AND event_id = $2
	`
	t := &domain.Track{}
	err := r.DB.QueryRowContext(ctx, query, trackID, eventID).Scan(&t.ID, &t.EventID, &t.Name, &t.Color, &t.SortOrder, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *trackRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Track, error) {
	query := `
		SELECT id, event_id, name, color, sort_order, created_at
		FROM tracks
		WHERE event_id = $1
		ORDER BY sort_order, name
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tracks := make([]*domain.Track, 0)
	for rows.Next() {
		t := &domain.Track{}
		if err := rows.Scan(&t.ID, &t.EventID, &t.Name, &t.Color, &t.SortOrder, &t.CreatedAt); err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}
