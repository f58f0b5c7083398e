package sdk

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/votespace/models"
	"github.com/akinalp/votespace/pkg"
	"github.com/akinalp/votespace/ws"
)

func lunchOptions(pizza, sushi int) []models.PollOption {
	return []models.PollOption{
		{ID: "o1", PollID: "p1", OptionText: "Pizza", VoteCount: pizza},
		{ID: "o2", PollID: "p1", OptionText: "Sushi", VoteCount: sushi},
	}
}

func cardView(state models.CardState, reason models.IneligibleReason) models.PollCardView {
	tallies, total := models.Tally(lunchOptions(0, 0))
	return models.PollCardView{
		Poll:       models.Poll{ID: "p1", Title: "Lunch?", IsActive: true},
		Options:    tallies,
		TotalVotes: total,
		State:      state,
		Reason:     reason,
	}
}

func TestPollCard_LoadAndVote(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("GET /api/polls/{id}", http.StatusOK, cardView(models.CardStateEligible, ""))
	api.handle("POST /api/polls/{id}/votes", http.StatusCreated, models.NewPollTally("p1", lunchOptions(1, 0)))

	card := NewPollCard(api.client(), nil, "p1")
	assert.Equal(t, models.CardStateLoading, card.State())

	changes := 0
	card.OnChange(func() { changes++ })

	require.NoError(t, card.Load(context.Background()))
	assert.Equal(t, models.CardStateEligible, card.State())
	assert.Equal(t, "Lunch?", card.Poll().Title)
	assert.Zero(t, card.TotalVotes())
	assert.Empty(t, card.UserVote())

	require.NoError(t, card.Vote(context.Background(), "o1"))
	assert.Equal(t, models.CardStateVoted, card.State())
	assert.Equal(t, "o1", card.UserVote())
	assert.Equal(t, 1, card.TotalVotes())
	assert.Equal(t, 100, card.Options()[0].Percentage)
	assert.Equal(t, 2, changes)

	err := card.Vote(context.Background(), "o2")
	assert.ErrorIs(t, err, ErrNotEligible, "voted card cannot vote again")
}

func TestPollCard_VoteErrorKeepsState(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("GET /api/polls/{id}", http.StatusOK, cardView(models.CardStateEligible, ""))
	api.fail("POST /api/polls/{id}/votes", http.StatusConflict, "duplicate vote")

	card := NewPollCard(api.client(), nil, "p1")
	require.NoError(t, card.Load(context.Background()))

	err := card.Vote(context.Background(), "o1")
	require.Error(t, err)
	assert.Equal(t, "duplicate vote", err.Error())
	assert.Equal(t, "duplicate vote", card.Err().Error())
	assert.Equal(t, models.CardStateEligible, card.State())
	assert.Empty(t, card.UserVote())
}

func TestPollCard_IneligibleNoRequest(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("GET /api/polls/{id}", http.StatusOK, cardView(models.CardStateIneligible, models.ReasonPollExpired))

	card := NewPollCard(api.client(), nil, "p1")
	require.NoError(t, card.Load(context.Background()))
	assert.Equal(t, models.ReasonPollExpired, card.Reason())

	before := api.requests.Load()
	err := card.Vote(context.Background(), "o1")
	assert.ErrorIs(t, err, ErrNotEligible)
	assert.Contains(t, err.Error(), "This poll has expired")
	assert.Equal(t, before, api.requests.Load())
}

func TestPollCard_LoadError(t *testing.T) {
	api := newFakeAPI(t)
	api.fail("GET /api/polls/{id}", http.StatusNotFound, "resource not found")

	card := NewPollCard(api.client(), nil, "missing")
	err := card.Load(context.Background())
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.Equal(t, err, card.Err())
}

func TestPollCard_FailedReloadKeepsState(t *testing.T) {
	api := newFakeAPI(t)

	voted := cardView(models.CardStateVoted, "")
	o1 := "o1"
	voted.UserVoteOptionID = &o1

	var calls atomic.Int32
	api.mux.HandleFunc("GET /api/polls/{id}", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			pkg.JSON(w, http.StatusOK, voted)
			return
		}
		pkg.ErrorWithMessage(w, http.StatusInternalServerError, "boom")
	})

	card := NewPollCard(api.client(), nil, "p1")
	require.NoError(t, card.Load(context.Background()))
	require.Equal(t, models.CardStateVoted, card.State())

	err := card.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())
	assert.Equal(t, err, card.Err())
	assert.Equal(t, models.CardStateVoted, card.State())
	assert.Equal(t, "o1", card.UserVote())
	assert.Equal(t, "Lunch?", card.Poll().Title)
}

func TestPollCard_ConcurrentMountSubscribesOnce(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("GET /api/polls/{id}/options", http.StatusOK, models.NewPollTally("p1", lunchOptions(0, 0)))

	client := api.client()
	client.setAccessToken("viewer")
	rt := NewRealtime(client)
	require.NoError(t, rt.Connect(context.Background()))
	t.Cleanup(rt.Close)

	card := NewPollCard(client, rt, "p1")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, card.Mount(context.Background()))
		}()
	}
	wg.Wait()

	// Diğer Mount çağrıları no-op; tek abonelik kalır
	assert.Eventually(t, card.Mounted, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, rt.SubscriptionCount())

	card.Unmount()
	assert.False(t, card.Mounted())
	assert.Zero(t, rt.SubscriptionCount())
	assert.Eventually(t, func() bool { return api.hub.SubscriberCount("p1") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestPollCard_LiveUpdates(t *testing.T) {
	api := newFakeAPI(t)

	var mu sync.Mutex
	current := models.NewPollTally("p1", lunchOptions(0, 0))
	api.mux.HandleFunc("GET /api/polls/{id}/options", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		pkg.JSON(w, http.StatusOK, current)
	})
	setTally := func(pizza, sushi int) models.PollTally {
		mu.Lock()
		defer mu.Unlock()
		current = models.NewPollTally("p1", lunchOptions(pizza, sushi))
		return current
	}

	client := api.client()
	client.setAccessToken("viewer")
	rt := NewRealtime(client)
	require.NoError(t, rt.Connect(context.Background()))
	t.Cleanup(rt.Close)

	card := NewPollCard(client, rt, "p1")
	require.NoError(t, card.Mount(context.Background()))
	assert.True(t, card.Mounted())
	assert.Equal(t, 1, api.hub.SubscriberCount("p1"))

	// Payload'daki sayıya değil, yeniden çekilen listeye bakılır
	setTally(2, 1)
	api.hub.PublishToPoll("p1", ws.Event{Op: ws.OpPollOptionsUpdate, Data: models.NewPollTally("p1", nil)})
	assert.Eventually(t, func() bool { return card.TotalVotes() == 3 }, 2*time.Second, 10*time.Millisecond)

	card.Unmount()
	assert.False(t, card.Mounted())
	assert.Eventually(t, func() bool { return api.hub.SubscriberCount("p1") == 0 }, 2*time.Second, 10*time.Millisecond)

	setTally(5, 5)
	api.hub.PublishToPoll("p1", ws.Event{Op: ws.OpPollOptionsUpdate, Data: models.NewPollTally("p1", nil)})
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 3, card.TotalVotes(), "no delivery after unmount")
}

func TestPollCard_MountWithoutStream(t *testing.T) {
	card := NewPollCard(New("http://localhost:1", testAPIKey), nil, "p1")
	assert.ErrorIs(t, card.Mount(context.Background()), ErrNotConnected)

	rt := NewRealtime(New("http://localhost:1", testAPIKey))
	card = NewPollCard(rt.client, rt, "p1")
	assert.ErrorIs(t, card.Mount(context.Background()), ErrNotConnected)
}
