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

type sqliteVoteRepo struct {
	db database.TxQuerier
}

// NewSQLiteVoteRepo, constructor.
func NewSQLiteVoteRepo(db database.TxQuerier) VoteRepository {
	return &sqliteVoteRepo{db: db}
}

// Create, oy satırını ekler. Tekillik idx_votes_poll_user ile DB'de zorlanır;
// iki eşzamanlı istekten sadece biri geçer.
func (r *sqliteVoteRepo) Create(ctx context.Context, vote *models.Vote) error {
	vote.ID = uuid.NewString()
	vote.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO votes (id, poll_id, option_id, user_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		vote.ID, vote.PollID, vote.OptionID, vote.UserID, vote.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "votes.poll_id", "votes.user_id") {
			return fmt.Errorf("%w: duplicate vote", pkg.ErrAlreadyExists)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: poll or option not found", pkg.ErrNotFound)
		}
		return fmt.Errorf("failed to create vote: %w", err)
	}

	return nil
}

func (r *sqliteVoteRepo) GetByPollAndUser(ctx context.Context, pollID, userID string) (*models.Vote, error) {
	v := &models.Vote{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, poll_id, option_id, user_id, created_at
		FROM votes WHERE poll_id = ? AND user_id = ?`, pollID, userID,
	).Scan(&v.ID, &v.PollID, &v.OptionID, &v.UserID, &v.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no vote for this poll", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}

	return v, nil
}

func (r *sqliteVoteRepo) CountByPoll(ctx context.Context, pollID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM votes WHERE poll_id = ?`, pollID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return n, nil
}
