package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/akinalp/votespace/database"
	"github.com/akinalp/votespace/models"
	"github.com/akinalp/votespace/pkg"
	"github.com/akinalp/votespace/repository"
	"github.com/akinalp/votespace/ws"
)

// VoteService, poll kartı verisi ve oy verme.
//
// Oy kaydı ile option sayacı aynı transaction'da yazılır; commit sonrası
// poll'a abone bağlantılara güncel tally yayınlanır.
type VoteService interface {
	// GetCard, kartın tüm verisini ve userID'ye göre durumunu döner.
	// userID boşsa kullanıcı oturum açmamış sayılır.
	GetCard(ctx context.Context, pollID, userID string) (*models.PollCardView, error)
	Options(ctx context.Context, pollID string) (*models.PollTally, error)
	MyVote(ctx context.Context, pollID, userID string) (*models.Vote, error)
	Vote(ctx context.Context, pollID, userID string, req *models.CastVoteRequest) (*models.PollTally, error)
}

type voteService struct {
	db         *sql.DB
	pollRepo   repository.PollRepository
	optionRepo repository.OptionRepository
	voteRepo   repository.VoteRepository
	hub        ws.EventPublisher
}

// NewVoteService, constructor.
func NewVoteService(
	db *sql.DB,
	pollRepo repository.PollRepository,
	optionRepo repository.OptionRepository,
	voteRepo repository.VoteRepository,
	hub ws.EventPublisher,
) VoteService {
	return &voteService{
		db:         db,
		pollRepo:   pollRepo,
		optionRepo: optionRepo,
		voteRepo:   voteRepo,
		hub:        hub,
	}
}

func (s *voteService) GetCard(ctx context.Context, pollID, userID string) (*models.PollCardView, error) {
	poll, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		return nil, err
	}

	options, err := s.optionRepo.ListByPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}

	var userVoteOptionID *string
	if userID != "" {
		vote, err := s.voteRepo.GetByPollAndUser(ctx, pollID, userID)
		switch {
		case err == nil:
			userVoteOptionID = &vote.OptionID
		case !errors.Is(err, pkg.ErrNotFound):
			return nil, err
		}
	}

	state, reason := models.EvaluateCard(poll, userID != "", userVoteOptionID != nil, time.Now())
	tallies, total := models.Tally(options)

	return &models.PollCardView{
		Poll:             *poll,
		Options:          tallies,
		TotalVotes:       total,
		UserVoteOptionID: userVoteOptionID,
		State:            state,
		Reason:           reason,
	}, nil
}

func (s *voteService) Options(ctx context.Context, pollID string) (*models.PollTally, error) {
	if _, err := s.pollRepo.GetByID(ctx, pollID); err != nil {
		return nil, err
	}
	return s.loadTally(ctx, pollID)
}

func (s *voteService) MyVote(ctx context.Context, pollID, userID string) (*models.Vote, error) {
	return s.voteRepo.GetByPollAndUser(ctx, pollID, userID)
}

// Vote, oy kaydını ve sayaç artışını tek transaction'da yapar.
//
// Kontroller transaction içinde: poll aktif ve süresi dolmamış olmalı,
// option bu poll'a ait olmalı, kullanıcı daha önce oy vermemiş olmalı.
// Eşzamanlı iki istekte unique index ikinciyi reddeder (duplicate vote).
func (s *voteService) Vote(ctx context.Context, pollID, userID string, req *models.CastVoteRequest) (*models.PollTally, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		txPollRepo := repository.NewSQLitePollRepo(tx)
		txOptionRepo := repository.NewSQLiteOptionRepo(tx)
		txVoteRepo := repository.NewSQLiteVoteRepo(tx)

		poll, err := txPollRepo.GetByID(ctx, pollID)
		if err != nil {
			return err
		}

		if _, err := txVoteRepo.GetByPollAndUser(ctx, pollID, userID); err == nil {
			return fmt.Errorf("%w: duplicate vote", pkg.ErrAlreadyExists)
		} else if !errors.Is(err, pkg.ErrNotFound) {
			return err
		}

		if state, reason := models.EvaluateCard(poll, true, false, time.Now()); state == models.CardStateIneligible {
			return fmt.Errorf("%w: %s", pkg.ErrForbidden, reason.Message())
		}

		option, err := txOptionRepo.GetByID(ctx, req.OptionID)
		if err != nil {
			if errors.Is(err, pkg.ErrNotFound) {
				return fmt.Errorf("%w: option does not belong to this poll", pkg.ErrBadRequest)
			}
			return err
		}
		if option.PollID != pollID {
			return fmt.Errorf("%w: option does not belong to this poll", pkg.ErrBadRequest)
		}

		if err := txVoteRepo.Create(ctx, &models.Vote{
			PollID:   pollID,
			OptionID: option.ID,
			UserID:   userID,
		}); err != nil {
			return err
		}

		return txOptionRepo.Increment(ctx, option.ID)
	})
	if err != nil {
		return nil, err
	}

	return s.publishTally(ctx, pollID)
}

// publishTally, commit sonrası option listesini yeniden okur ve
// poll aboneliği olan bağlantılara poll_options_update gönderir.
// Sayaç toplamı vote satır sayısından saparsa loglanır; yayın yine yapılır.
func (s *voteService) publishTally(ctx context.Context, pollID string) (*models.PollTally, error) {
	tally, err := s.loadTally(ctx, pollID)
	if err != nil {
		return nil, err
	}

	if n, err := s.voteRepo.CountByPoll(ctx, pollID); err != nil {
		log.Printf("[vote] count check failed for poll %s: %v", pollID, err)
	} else if n != tally.TotalVotes {
		log.Printf("[vote] tally drift on poll %s: counters=%d votes=%d", pollID, tally.TotalVotes, n)
	}

	s.hub.PublishToPoll(pollID, ws.Event{Op: ws.OpPollOptionsUpdate, Data: tally})
	return tally, nil
}

func (s *voteService) loadTally(ctx context.Context, pollID string) (*models.PollTally, error) {
	options, err := s.optionRepo.ListByPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	tally := models.NewPollTally(pollID, options)
	return &tally, nil
}
