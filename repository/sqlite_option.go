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

type sqliteOptionRepo struct {
	db database.TxQuerier
}

// NewSQLiteOptionRepo, constructor.
func NewSQLiteOptionRepo(db database.TxQuerier) OptionRepository {
	return &sqliteOptionRepo{db: db}
}

// CreateBatch, tüm option'lara aynı created_at verir; sıralama eşitliği
// rowid (ekleme sırası) ile çözülür.
func (r *sqliteOptionRepo) CreateBatch(ctx context.Context, pollID string, texts []string) ([]models.PollOption, error) {
	now := time.Now().UTC()
	options := make([]models.PollOption, 0, len(texts))

	for _, text := range texts {
		opt := models.PollOption{
			ID:         uuid.NewString(),
			PollID:     pollID,
			OptionText: text,
			VoteCount:  0,
			CreatedAt:  now,
		}

		_, err := r.db.ExecContext(ctx, `
			INSERT INTO poll_options (id, poll_id, option_text, vote_count, created_at)
			VALUES (?, ?, ?, 0, ?)`,
			opt.ID, opt.PollID, opt.OptionText, opt.CreatedAt,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return nil, fmt.Errorf("%w: poll not found", pkg.ErrNotFound)
			}
			return nil, fmt.Errorf("failed to create poll option: %w", err)
		}

		options = append(options, opt)
	}

	return options, nil
}

func (r *sqliteOptionRepo) GetByID(ctx context.Context, id string) (*models.PollOption, error) {
	opt := &models.PollOption{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, poll_id, option_text, vote_count, created_at
		FROM poll_options WHERE id = ?`, id,
	).Scan(&opt.ID, &opt.PollID, &opt.OptionText, &opt.VoteCount, &opt.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: option not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get poll option: %w", err)
	}

	return opt, nil
}

func (r *sqliteOptionRepo) ListByPoll(ctx context.Context, pollID string) ([]models.PollOption, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, poll_id, option_text, vote_count, created_at
		FROM poll_options WHERE poll_id = ?
		ORDER BY created_at ASC, rowid ASC`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to list poll options: %w", err)
	}
	defer rows.Close()

	options := []models.PollOption{}
	for rows.Next() {
		var o models.PollOption
		if err := rows.Scan(&o.ID, &o.PollID, &o.OptionText, &o.VoteCount, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan poll option row: %w", err)
		}
		options = append(options, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating poll option rows: %w", err)
	}

	return options, nil
}

func (r *sqliteOptionRepo) Increment(ctx context.Context, optionID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE poll_options SET vote_count = vote_count + 1 WHERE id = ?`, optionID)
	if err != nil {
		return fmt.Errorf("failed to increment vote count: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: option not found", pkg.ErrNotFound)
	}

	return nil
}
