package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/votespace/models"
	"github.com/akinalp/votespace/pkg"
	"github.com/akinalp/votespace/repository"
	"github.com/akinalp/votespace/testutil"
	"github.com/akinalp/votespace/ws"
)

func strPtr(s string) *string { return &s }

func TestPollCreate(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	userID := testutil.SeedUser(t, f.db, "ada@example.com")

	created, err := f.polls.Create(ctx, userID, &models.CreatePollRequest{
		Title:       "  Lunch?  ",
		Description: strPtr("   "),
		Options:     []string{"Pizza", "  ", "Sushi "},
	})
	require.NoError(t, err)

	assert.Equal(t, "Lunch?", created.Title)
	assert.Nil(t, created.Description)
	assert.True(t, created.IsActive)
	assert.Equal(t, userID, created.CreatedBy)
	require.Len(t, created.Options, 2)
	assert.Equal(t, "Pizza", created.Options[0].OptionText)
	assert.Equal(t, "Sushi", created.Options[1].OptionText)
	for _, o := range created.Options {
		assert.Zero(t, o.VoteCount)
	}

	events := f.pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "all", events[0].Target)
	assert.Equal(t, ws.OpPollCreate, events[0].Event.Op)
}

func TestPollCreate_ValidationWritesNothing(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	userID := testutil.SeedUser(t, f.db, "ada@example.com")

	cases := []struct {
		name string
		req  models.CreatePollRequest
		msg  string
	}{
		{"one option", models.CreatePollRequest{Title: "Q", Options: []string{"A", ""}}, "Please provide at least 2 options"},
		{"blank title", models.CreatePollRequest{Title: "  ", Options: []string{"A", "B"}}, "Title is required"},
		{"past expiry", models.CreatePollRequest{Title: "Q", Options: []string{"A", "B"}, ExpiresAt: timePtr(time.Now().Add(-time.Hour))}, "expiry must be in the future"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := tc.req
			_, err := f.polls.Create(ctx, userID, &req)
			require.ErrorIs(t, err, pkg.ErrBadRequest)
			assert.Equal(t, tc.msg, pkg.PublicMessage(err))
		})
	}

	var count int
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM polls`).Scan(&count))
	assert.Zero(t, count)
	assert.Empty(t, f.pub.Events())
}

func TestPollCreate_UnknownCreatorRollsBack(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.polls.Create(context.Background(), "ghost", &models.CreatePollRequest{
		Title:   "Q",
		Options: []string{"A", "B"},
	})
	require.Error(t, err)

	var polls, options int
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM polls`).Scan(&polls))
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM poll_options`).Scan(&options))
	assert.Zero(t, polls)
	assert.Zero(t, options)
}

func TestPollList_FilterAndSearch(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	userID := testutil.SeedUser(t, f.db, "ada@example.com")

	base := time.Now().Add(-time.Hour)
	past := time.Now().Add(-time.Minute)
	testutil.SeedPoll(t, f.db, userID, "Lunch place", true, base, nil, "A", "B")
	testutil.SeedPoll(t, f.db, userID, "Old question", true, base.Add(time.Second), &past, "A", "B")
	testutil.SeedPoll(t, f.db, userID, "Closed lunch", false, base.Add(2*time.Second), nil, "A", "B")

	all, err := f.polls.List(ctx, models.PollFilterAll, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Closed lunch", all[0].Title)
	assert.Equal(t, "Lunch place", all[2].Title)

	active, err := f.polls.List(ctx, models.PollFilterActive, "")
	require.NoError(t, err)
	assert.Len(t, active, 2)

	expired, err := f.polls.List(ctx, models.PollFilterExpired, "")
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "Old question", expired[0].Title)

	lunch, err := f.polls.List(ctx, models.PollFilterAll, "LUNCH")
	require.NoError(t, err)
	assert.Len(t, lunch, 2)
}

func timePtr(t time.Time) *time.Time { return &t }

func TestVote_TransactionalAndPublished(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	userID := testutil.SeedUser(t, f.db, "ada@example.com")
	pollID, optionIDs := testutil.SeedPoll(t, f.db, userID, "Lunch?", true, time.Now(), nil, "Pizza", "Sushi")

	card, err := f.votes.GetCard(ctx, pollID, userID)
	require.NoError(t, err)
	assert.Equal(t, models.CardStateEligible, card.State)
	assert.Zero(t, card.TotalVotes)

	tally, err := f.votes.Vote(ctx, pollID, userID, &models.CastVoteRequest{OptionID: optionIDs[0]})
	require.NoError(t, err)
	assert.Equal(t, 1, tally.TotalVotes)
	assert.Equal(t, 100, tally.Options[0].Percentage)
	assert.Equal(t, 0, tally.Options[1].Percentage)

	events := f.pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "poll:"+pollID, events[0].Target)
	assert.Equal(t, ws.OpPollOptionsUpdate, events[0].Event.Op)

	card, err = f.votes.GetCard(ctx, pollID, userID)
	require.NoError(t, err)
	assert.Equal(t, models.CardStateVoted, card.State)
	require.NotNil(t, card.UserVoteOptionID)
	assert.Equal(t, optionIDs[0], *card.UserVoteOptionID)

	vote, err := f.votes.MyVote(ctx, pollID, userID)
	require.NoError(t, err)
	assert.Equal(t, optionIDs[0], vote.OptionID)

	_, err = f.votes.Vote(ctx, pollID, userID, &models.CastVoteRequest{OptionID: optionIDs[1]})
	require.ErrorIs(t, err, pkg.ErrAlreadyExists)
	assert.Equal(t, "duplicate vote", pkg.PublicMessage(err))

	tally, err = f.votes.Options(ctx, pollID)
	require.NoError(t, err)
	assert.Equal(t, 1, tally.TotalVotes)
}

func TestVote_Eligibility(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	userID := testutil.SeedUser(t, f.db, "ada@example.com")
	past := time.Now().Add(-time.Minute)

	closedID, closedOpts := testutil.SeedPoll(t, f.db, userID, "Closed", false, time.Now(), nil, "A", "B")
	expiredID, expiredOpts := testutil.SeedPoll(t, f.db, userID, "Expired", true, time.Now(), &past, "A", "B")
	openID, _ := testutil.SeedPoll(t, f.db, userID, "Open", true, time.Now(), nil, "A", "B")

	_, err := f.votes.Vote(ctx, closedID, userID, &models.CastVoteRequest{OptionID: closedOpts[0]})
	require.ErrorIs(t, err, pkg.ErrForbidden)
	assert.Equal(t, "This poll is closed", pkg.PublicMessage(err))

	_, err = f.votes.Vote(ctx, expiredID, userID, &models.CastVoteRequest{OptionID: expiredOpts[0]})
	require.ErrorIs(t, err, pkg.ErrForbidden)
	assert.Equal(t, "This poll has expired", pkg.PublicMessage(err))

	// Başka poll'un option'ı
	_, err = f.votes.Vote(ctx, openID, userID, &models.CastVoteRequest{OptionID: closedOpts[0]})
	require.ErrorIs(t, err, pkg.ErrBadRequest)

	_, err = f.votes.Vote(ctx, "missing", userID, &models.CastVoteRequest{OptionID: closedOpts[0]})
	require.ErrorIs(t, err, pkg.ErrNotFound)

	_, err = f.votes.Vote(ctx, openID, userID, &models.CastVoteRequest{OptionID: " "})
	require.ErrorIs(t, err, pkg.ErrBadRequest)

	assert.Empty(t, f.pub.Events())

	anon, err := f.votes.GetCard(ctx, openID, "")
	require.NoError(t, err)
	assert.Equal(t, models.CardStateIneligible, anon.State)
	assert.Equal(t, models.ReasonSignInRequired, anon.Reason)
}

func TestVote_ConcurrentDuplicatesKeepCounterConsistent(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	userID := testutil.SeedUser(t, f.db, "ada@example.com")
	pollID, optionIDs := testutil.SeedPoll(t, f.db, userID, "Race", true, time.Now(), nil, "A", "B")

	const attempts = 8
	var ok, dup atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.votes.Vote(ctx, pollID, userID, &models.CastVoteRequest{OptionID: optionIDs[i%2]})
			switch {
			case err == nil:
				ok.Add(1)
			case assert.ErrorIs(t, err, pkg.ErrAlreadyExists):
				dup.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(attempts-1), dup.Load())

	var votes, sum int
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM votes WHERE poll_id = ?`, pollID).Scan(&votes))
	require.NoError(t, f.db.QueryRow(`SELECT SUM(vote_count) FROM poll_options WHERE poll_id = ?`, pollID).Scan(&sum))
	assert.Equal(t, 1, votes)
	assert.Equal(t, votes, sum)
}

func TestVote_TallyMatchesVoteRows(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	owner := testutil.SeedUser(t, f.db, "owner@example.com")
	pollID, optionIDs := testutil.SeedPoll(t, f.db, owner, "Q", true, time.Now(), nil, "A", "B")

	past := time.Now().Add(-time.Hour)
	closedID, closedOpts := testutil.SeedPoll(t, f.db, owner, "Closed", false, time.Now(), &past, "A", "B")

	voteRepo := repository.NewSQLiteVoteRepo(f.db)
	var tally *models.PollTally
	for i, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		userID := testutil.SeedUser(t, f.db, email)
		var err error
		tally, err = f.votes.Vote(ctx, pollID, userID, &models.CastVoteRequest{OptionID: optionIDs[i%2]})
		require.NoError(t, err)

		// Reddedilen oylar sayaca dokunmaz
		_, err = f.votes.Vote(ctx, pollID, userID, &models.CastVoteRequest{OptionID: optionIDs[0]})
		require.ErrorIs(t, err, pkg.ErrAlreadyExists)
		_, err = f.votes.Vote(ctx, closedID, userID, &models.CastVoteRequest{OptionID: closedOpts[0]})
		require.ErrorIs(t, err, pkg.ErrForbidden)
	}

	rows, err := voteRepo.CountByPoll(ctx, pollID)
	require.NoError(t, err)
	assert.Equal(t, 3, rows)
	assert.Equal(t, rows, tally.TotalVotes)

	closed, err := f.votes.Options(ctx, closedID)
	require.NoError(t, err)
	closedRows, err := voteRepo.CountByPoll(ctx, closedID)
	require.NoError(t, err)
	assert.Zero(t, closedRows)
	assert.Equal(t, closedRows, closed.TotalVotes)
}
