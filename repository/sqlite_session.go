package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/akinalp/votespace/database"
	"github.com/akinalp/votespace/models"
	"github.com/akinalp/votespace/pkg"
)

type sqliteSessionRepo struct {
	db database.TxQuerier
}

// NewSQLiteSessionRepo, constructor.
func NewSQLiteSessionRepo(db database.TxQuerier) SessionRepository {
	return &sqliteSessionRepo{db: db}
}

func (r *sqliteSessionRepo) Create(ctx context.Context, session *models.Session) error {
	session.ID = uuid.NewString()
	session.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, refresh_token, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		session.ID, session.UserID, session.RefreshToken, session.ExpiresAt.UTC(), session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

func (r *sqliteSessionRepo) GetByRefreshToken(ctx context.Context, token string) (*models.Session, error) {
	session := &models.Session{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, refresh_token, expires_at, created_at
		FROM sessions WHERE refresh_token = ?`, token,
	).Scan(&session.ID, &session.UserID, &session.RefreshToken, &session.ExpiresAt, &session.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session by refresh token: %w", err)
	}

	return session, nil
}

func (r *sqliteSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *sqliteSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return nil
}

func (r *sqliteSessionRepo) CountByUserID(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE user_id = ? AND expires_at >= ?`,
		userID, time.Now().UTC(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count user sessions: %w", err)
	}
	return count, nil
}

// DeleteExpired, süresi dolmuş oturumları temizler.
// expires_at Go'dan UTC yazıldığı için karşılaştırma da Go saatiyle yapılır.
func (r *sqliteSessionRepo) DeleteExpired(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return nil
}

type sqliteConfirmationRepo struct {
	db database.TxQuerier
}

// NewSQLiteEmailConfirmationRepo, constructor.
func NewSQLiteEmailConfirmationRepo(db database.TxQuerier) EmailConfirmationRepository {
	return &sqliteConfirmationRepo{db: db}
}

func (r *sqliteConfirmationRepo) Create(ctx context.Context, c *models.EmailConfirmation) error {
	c.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO email_confirmations (token_hash, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)`,
		c.TokenHash, c.UserID, c.ExpiresAt.UTC(), c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create email confirmation: %w", err)
	}
	return nil
}

func (r *sqliteConfirmationRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*models.EmailConfirmation, error) {
	c := &models.EmailConfirmation{}
	err := r.db.QueryRowContext(ctx, `
		SELECT token_hash, user_id, expires_at, created_at
		FROM email_confirmations WHERE token_hash = ?`, tokenHash,
	).Scan(&c.TokenHash, &c.UserID, &c.ExpiresAt, &c.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get email confirmation: %w", err)
	}
	return c, nil
}

func (r *sqliteConfirmationRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM email_confirmations WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete email confirmations: %w", err)
	}
	return nil
}
