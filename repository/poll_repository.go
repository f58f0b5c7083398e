package repository

import (
	"context"
	"time"

	"github.com/akinalp/votespace/models"
)

// PollRepository, polls tablosu.
type PollRepository interface {
	// Create, ID ve CreatedAt'i doldurur. IsActive çağıranın verdiği değerdir.
	Create(ctx context.Context, poll *models.Poll) error
	GetByID(ctx context.Context, id string) (*models.Poll, error)
	// List, created_at DESC sıralı tüm eşleşen poll'ları döner (sayfalama yok).
	// expired filtresi now'a göre: expires_at < now.
	List(ctx context.Context, filter models.PollFilter, now time.Time) ([]models.Poll, error)
}

// OptionRepository, poll_options tablosu.
type OptionRepository interface {
	// CreateBatch, option'ları verilen sırayla ekler; her birinin ID,
	// CreatedAt ve VoteCount (0) alanları doldurulur.
	CreateBatch(ctx context.Context, pollID string, texts []string) ([]models.PollOption, error)
	GetByID(ctx context.Context, id string) (*models.PollOption, error)
	// ListByPoll, created_at ASC (eşitlikte ekleme sırası) döner.
	ListByPoll(ctx context.Context, pollID string) ([]models.PollOption, error)
	// Increment, vote_count'u atomik olarak 1 artırır.
	Increment(ctx context.Context, optionID string) error
}

// VoteRepository, votes tablosu.
type VoteRepository interface {
	// Create, (poll_id, user_id) çakışmasında pkg.ErrAlreadyExists döner.
	Create(ctx context.Context, vote *models.Vote) error
	GetByPollAndUser(ctx context.Context, pollID, userID string) (*models.Vote, error)
	CountByPoll(ctx context.Context, pollID string) (int, error)
}
