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

type sqlitePollRepo struct {
	db database.TxQuerier
}

// NewSQLitePollRepo, constructor.
func NewSQLitePollRepo(db database.TxQuerier) PollRepository {
	return &sqlitePollRepo{db: db}
}

const pollColumns = `id, title, description, created_by, created_at, expires_at, is_active`

func (r *sqlitePollRepo) Create(ctx context.Context, poll *models.Poll) error {
	poll.ID = uuid.NewString()
	poll.CreatedAt = time.Now().UTC()

	var expiresAt any
	if poll.ExpiresAt != nil {
		expiresAt = poll.ExpiresAt.UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO polls (id, title, description, created_by, created_at, expires_at, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		poll.ID, poll.Title, poll.Description, poll.CreatedBy, poll.CreatedAt, expiresAt, poll.IsActive,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: creator does not exist", pkg.ErrBadRequest)
		}
		return fmt.Errorf("failed to create poll: %w", err)
	}

	return nil
}

func (r *sqlitePollRepo) GetByID(ctx context.Context, id string) (*models.Poll, error) {
	poll := &models.Poll{}
	err := r.db.QueryRowContext(ctx, `SELECT `+pollColumns+` FROM polls WHERE id = ?`, id).Scan(
		&poll.ID, &poll.Title, &poll.Description, &poll.CreatedBy,
		&poll.CreatedAt, &poll.ExpiresAt, &poll.IsActive,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: poll not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}

	return poll, nil
}

func (r *sqlitePollRepo) List(ctx context.Context, filter models.PollFilter, now time.Time) ([]models.Poll, error) {
	query := `SELECT ` + pollColumns + ` FROM polls`
	var args []any

	switch filter {
	case models.PollFilterActive:
		query += ` WHERE is_active = 1`
	case models.PollFilterExpired:
		query += ` WHERE expires_at IS NOT NULL AND expires_at < ?`
		args = append(args, now.UTC())
	case models.PollFilterAll, "":
	default:
		return nil, fmt.Errorf("%w: unknown filter %q", pkg.ErrBadRequest, filter)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}
	defer rows.Close()

	polls := []models.Poll{}
	for rows.Next() {
		var p models.Poll
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Description, &p.CreatedBy,
			&p.CreatedAt, &p.ExpiresAt, &p.IsActive,
		); err != nil {
			return nil, fmt.Errorf("failed to scan poll row: %w", err)
		}
		polls = append(polls, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating poll rows: %w", err)
	}

	return polls, nil
}
