package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/akinalp/votespace/database"
	"github.com/akinalp/votespace/models"
	"github.com/akinalp/votespace/pkg"
	"github.com/akinalp/votespace/repository"
	"github.com/akinalp/votespace/ws"
)

// PollService, poll oluşturma ve listeleme.
type PollService interface {
	// Create, poll'u ve seçeneklerini tek transaction'da yazar.
	Create(ctx context.Context, userID string, req *models.CreatePollRequest) (*models.PollWithOptions, error)
	// List, filtreye uyan poll'ları created_at DESC döner. search boş değilse
	// başlık/açıklamada case-insensitive substring araması uygulanır.
	List(ctx context.Context, filter models.PollFilter, search string) ([]models.Poll, error)
	GetByID(ctx context.Context, id string) (*models.Poll, error)
}

type pollService struct {
	db         *sql.DB // Create'te WithTx için
	pollRepo   repository.PollRepository
	optionRepo repository.OptionRepository
	hub        ws.EventPublisher
}

// NewPollService, constructor.
func NewPollService(
	db *sql.DB,
	pollRepo repository.PollRepository,
	optionRepo repository.OptionRepository,
	hub ws.EventPublisher,
) PollService {
	return &pollService{
		db:         db,
		pollRepo:   pollRepo,
		optionRepo: optionRepo,
		hub:        hub,
	}
}

func (s *pollService) Create(ctx context.Context, userID string, req *models.CreatePollRequest) (*models.PollWithOptions, error) {
	if err := req.Validate(time.Now()); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	poll := &models.Poll{
		Title:       req.Title,
		Description: req.Description,
		CreatedBy:   userID,
		ExpiresAt:   req.ExpiresAt,
		IsActive:    true,
	}

	var options []models.PollOption

	// Poll + option'lar tek birim: seçeneksiz poll kalmaz
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		txPollRepo := repository.NewSQLitePollRepo(tx)
		txOptionRepo := repository.NewSQLiteOptionRepo(tx)

		if err := txPollRepo.Create(ctx, poll); err != nil {
			return fmt.Errorf("failed to create poll: %w", err)
		}

		created, err := txOptionRepo.CreateBatch(ctx, poll.ID, req.Options)
		if err != nil {
			return fmt.Errorf("failed to create poll options: %w", err)
		}
		options = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &models.PollWithOptions{Poll: *poll, Options: options}

	s.hub.BroadcastToAll(ws.Event{Op: ws.OpPollCreate, Data: result})

	log.Printf("[polls] created poll %s with %d options by user %s", poll.ID, len(options), userID)
	return result, nil
}

func (s *pollService) List(ctx context.Context, filter models.PollFilter, search string) ([]models.Poll, error) {
	polls, err := s.pollRepo.List(ctx, filter, time.Now())
	if err != nil {
		return nil, err
	}

	matched := make([]models.Poll, 0, len(polls))
	for i := range polls {
		if polls[i].MatchesSearch(search) {
			matched = append(matched, polls[i])
		}
	}
	return matched, nil
}

func (s *pollService) GetByID(ctx context.Context, id string) (*models.Poll, error) {
	return s.pollRepo.GetByID(ctx, id)
}
