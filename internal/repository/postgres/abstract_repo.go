package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"eventdesk/internal/domain"
)

const abstractSelect = `
	SELECT a.id, a.event_id, a.speaker_id, a.title, a.content, a.track_id, a.specialty, a.status,
		a.review_notes, a.review_score, a.submitted_at, a.reviewed_at, a.management_token,
		a.event_session_id, a.version, a.created_at, a.updated_at,
		s.email, s.first_name, s.last_name, s.user_id
	FROM abstracts a
	JOIN speakers s ON s.id = a.speaker_id
`

type abstractRepository struct {
	DB *sql.DB
}

func NewAbstractRepository(db *sql.DB) domain.AbstractRepository {
	return &abstractRepository{DB: db}
}

func scanAbstract(row rowScanner) (*domain.Abstract, error) {
	a := &domain.Abstract{}
	sp := &domain.AbstractSpeaker{}
	var (
		trackID, specialty, reviewNotes, token, sessionID, speakerUserID sql.NullString
		reviewScore                                                      sql.NullInt64
		submittedAt, reviewedAt                                          sql.NullTime
	)
	err := row.Scan(
		&a.ID, &a.EventID, &a.SpeakerID, &a.Title, &a.Content, &trackID, &specialty, &a.Status,
		&reviewNotes, &reviewScore, &submittedAt, &reviewedAt, &token,
		&sessionID, &a.Version, &a.CreatedAt, &a.UpdatedAt,
		&sp.Email, &sp.FirstName, &sp.LastName, &speakerUserID,
	)
	if err != nil {
		return nil, err
	}
	a.TrackID = nullableString(trackID)
	a.Specialty = nullableString(specialty)
	a.ReviewNotes = nullableString(reviewNotes)
	if reviewScore.Valid {
		score := int(reviewScore.Int64)
		a.ReviewScore = &score
	}
	a.SubmittedAt = nullableTime(submittedAt)
	a.ReviewedAt = nullableTime(reviewedAt)
	a.ManagementToken = nullableString(token)
	a.EventSessionID = nullableString(sessionID)
	sp.ID = a.SpeakerID
	sp.UserID = nullableString(speakerUserID)
	a.Speaker = sp
	return a, nil
}

func (r *abstractRepository) Create(ctx context.Context, a *domain.Abstract) error {
	return insertAbstract(ctx, r.DB, a)
}

func insertAbstract(ctx context.Context, q querier, a *domain.Abstract) error {
	query := `
		INSERT INTO abstracts (event_id, speaker_id, title, content, track_id, specialty, status,
			submitted_at, management_token, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	if a.Version == 0 {
		a.Version = 1
	}
	return q.QueryRowContext(ctx, query,
		a.EventID, a.SpeakerID, a.Title, a.Content, a.TrackID, a.Specialty, a.Status,
		a.SubmittedAt, a.ManagementToken, a.Version, a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
}

func (r *abstractRepository) CreateWithSpeaker(ctx context.Context, speaker *domain.Speaker, a *domain.Abstract) error {
	return inTx(ctx, r.DB, func(tx *sql.Tx) error {
		query := `
			INSERT INTO speakers (event_id, email, first_name, last_name, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (event_id, email) DO UPDATE
				SET first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name, updated_at = EXCLUDED.updated_at
			RETURNING id, user_id
		`
		var userID sql.NullString
		err := tx.QueryRowContext(ctx, query,
			speaker.EventID, speaker.Email, speaker.FirstName, speaker.LastName, speaker.Status,
			speaker.CreatedAt, speaker.UpdatedAt,
		).Scan(&speaker.ID, &userID)
		if err != nil {
			return fmt.Errorf("upsert speaker: %w", err)
		}
		speaker.UserID = nullableString(userID)
		a.SpeakerID = speaker.ID
		if err := insertAbstract(ctx, tx, a); err != nil {
			return fmt.Errorf("insert abstract: %w", err)
		}
		return nil
	})
}

func (r *abstractRepository) GetByID(ctx context.Context, id string) (*domain.Abstract, error) {
	a, err := scanAbstract(r.DB.QueryRowContext(ctx, abstractSelect+` WHERE a.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *abstractRepository) GetByManagementToken(ctx context.Context, token string) (*domain.Abstract, error) {
	a, err := scanAbstract(r.DB.QueryRowContext(ctx, abstractSelect+` WHERE a.management_token = $1`, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *abstractRepository) List(ctx context.Context, eventID string, filter domain.AbstractFilter, params domain.PaginationParams) ([]*domain.Abstract, int, error) {
	where := []string{"a.event_id = $1"}
	args := []any{eventID}
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.Status != nil {
		add("a.status = $%d", *filter.Status)
	}
	if filter.TrackID != nil {
		add("a.track_id = $%d", *filter.TrackID)
	}
	if filter.SpeakerID != nil {
		add("a.speaker_id = $%d", *filter.SpeakerID)
	}
	if filter.SpeakerUserID != nil {
		add("s.user_id = $%d", *filter.SpeakerUserID)
	}
	cond := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM abstracts a JOIN speakers s ON s.id = a.speaker_id WHERE ` + cond
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := abstractSelect + ` WHERE ` + cond + ` ORDER BY a.created_at DESC, a.id`
	if params.PageSize > 0 {
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
		args = append(args, params.PageSize, params.Offset())
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	abstracts := make([]*domain.Abstract, 0)
	for rows.Next() {
		a, err := scanAbstract(rows)
		if err != nil {
			return nil, 0, err
		}
		abstracts = append(abstracts, a)
	}
	return abstracts, total, rows.Err()
}

func (r *abstractRepository) Update(ctx context.Context, a *domain.Abstract) error {
	query := `
		UPDATE abstracts
		SET title = $1, content = $2, track_id = $3, specialty = $4, status = $5,
			review_notes = $6, review_score = $7, submitted_at = $8, reviewed_at = $9,
			updated_at = $10, version = version + 1
		WHERE id = $11 AND version = $12
	`
	result, err := r.DB.ExecContext(ctx, query,
		a.Title, a.Content, a.TrackID, a.Specialty, a.Status,
		a.ReviewNotes, a.ReviewScore, a.SubmittedAt, a.ReviewedAt,
		a.UpdatedAt, a.ID, a.Version,
	)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows > 0 {
		a.Version++
		return nil
	}
	var exists bool
	if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM abstracts WHERE id = $1)`, a.ID).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return domain.ErrStaleWrite
	}
	return domain.ErrNotFound
}

func (r *abstractRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM abstracts WHERE id = $1 AND event_session_id IS NULL`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
