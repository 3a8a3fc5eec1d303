package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"eventdesk/internal/domain"

	"github.com/lib/pq"
)

const userColumns = `id, email, first_name, last_name, role, organization_id, password_hash, salt, email_verified_at, created_at, updated_at`

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{DB: db}
}

func scanUser(row rowScanner) (*domain.User, error) {
	u := &domain.User{}
	var orgID sql.NullString
	var verifiedAt sql.NullTime
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &orgID,
		&u.PasswordHash, &u.Salt, &verifiedAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.OrganizationID = nullableString(orgID)
	u.EmailVerifiedAt = nullableTime(verifiedAt)
	return u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *userRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	users := make([]*domain.User, 0, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func insertUser(ctx context.Context, q querier, u *domain.User) error {
	query := `
		INSERT INTO users (email, first_name, last_name, role, organization_id, password_hash, salt, email_verified_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	err := q.QueryRowContext(ctx, query,
		u.Email, u.FirstName, u.LastName, u.Role, u.OrganizationID,
		u.PasswordHash, u.Salt, u.EmailVerifiedAt, u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateEmail
	}
	return err
}

func replaceToken(ctx context.Context, q querier, t *domain.VerificationToken) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM verification_tokens WHERE identifier = $1`, t.Identifier); err != nil {
		return fmt.Errorf("delete verification tokens: %w", err)
	}
	query := `INSERT INTO verification_tokens (identifier, token_hash, expires_at) VALUES ($1, $2, $3)`
	if _, err := q.ExecContext(ctx, query, t.Identifier, t.TokenHash, t.ExpiresAt); err != nil {
		return fmt.Errorf("insert verification token: %w", err)
	}
	return nil
}

func (r *userRepository) CreateWithVerificationToken(ctx context.Context, user *domain.User, token *domain.VerificationToken) error {
	return inTx(ctx, r.DB, func(tx *sql.Tx) error {
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}
		return replaceToken(ctx, tx, token)
	})
}

func (r *userRepository) CreateWithSpeaker(ctx context.Context, user *domain.User, speaker *domain.Speaker) error {
	return inTx(ctx, r.DB, func(tx *sql.Tx) error {
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}
		speaker.UserID = &user.ID
		return upsertLinkedSpeaker(ctx, tx, speaker)
	})
}

func (r *userRepository) Activate(ctx context.Context, email, tokenHash, passwordHash, salt string, now time.Time) (*domain.User, error) {
	var user *domain.User
	err := inTx(ctx, r.DB, func(tx *sql.Tx) error {
		var identifier string
		consume := `
			DELETE FROM verification_tokens
			WHERE identifier = $1 AND token_hash = $2 AND expires_at > $3
			RETURNING identifier
		`
		if err := tx.QueryRowContext(ctx, consume, email, tokenHash, now).Scan(&identifier); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrNotFound
			}
			return err
		}
		activate := `
			UPDATE users
			SET password_hash = $1, salt = $2, email_verified_at = COALESCE(email_verified_at, $3), updated_at = $3
			WHERE email = $4
			RETURNING ` + userColumns
		u, err := scanUser(tx.QueryRowContext(ctx, activate, passwordHash, salt, now, email))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrUserNotFound
			}
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) ReplaceVerificationToken(ctx context.Context, token *domain.VerificationToken) error {
	return inTx(ctx, r.DB, func(tx *sql.Tx) error {
		return replaceToken(ctx, tx, token)
	})
}
