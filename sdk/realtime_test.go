package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/votespace/models"
	"github.com/akinalp/votespace/ws"
)

func connectedRealtime(t *testing.T, api *fakeAPI, userID string) *Realtime {
	t.Helper()

	client := api.client()
	client.setAccessToken(userID)
	rt := NewRealtime(client)
	require.NoError(t, rt.Connect(context.Background()))
	t.Cleanup(rt.Close)
	return rt
}

func TestRealtime_RejectsBadToken(t *testing.T) {
	api := newFakeAPI(t)
	client := api.client()
	client.setAccessToken("bad")

	err := NewRealtime(client).Connect(context.Background())
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
}

func TestRealtime_MultiplexesSubscriptions(t *testing.T) {
	api := newFakeAPI(t)
	rt := connectedRealtime(t, api, "user-1")
	require.NoError(t, rt.Connect(context.Background()), "second connect is a no-op")

	got := make(chan string, 8)
	unsubA, err := rt.Subscribe(context.Background(), "p1", func(tally models.PollTally) { got <- "a:" + tally.PollID })
	require.NoError(t, err)
	unsubB, err := rt.Subscribe(context.Background(), "p1", func(tally models.PollTally) { got <- "b:" + tally.PollID })
	require.NoError(t, err)
	_, err = rt.Subscribe(context.Background(), "p2", func(tally models.PollTally) { got <- "c:" + tally.PollID })
	require.NoError(t, err)

	assert.Equal(t, 3, rt.SubscriptionCount())
	assert.Equal(t, 1, api.hub.SubscriberCount("p1"), "one server subscription per poll")

	api.hub.PublishToPoll("p1", ws.Event{Op: ws.OpPollOptionsUpdate, Data: models.NewPollTally("p1", nil)})
	received := []string{<-got, <-got}
	assert.ElementsMatch(t, []string{"a:p1", "b:p1"}, received)

	unsubA()
	unsubA()
	assert.Equal(t, 1, api.hub.SubscriberCount("p1"), "still held by b")

	unsubB()
	assert.Eventually(t, func() bool { return api.hub.SubscriberCount("p1") == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, api.hub.SubscriberCount("p2"))
}

func TestRealtime_SubscribeRejected(t *testing.T) {
	api := newFakeAPI(t)
	api.hub.OnPollSubscribe(func(pollID string) error {
		if pollID == "missing" {
			return errors.New("not found")
		}
		return nil
	})
	rt := connectedRealtime(t, api, "user-1")

	_, err := rt.Subscribe(context.Background(), "missing", func(models.PollTally) {})
	require.Error(t, err)
	assert.Equal(t, "poll not found", err.Error())
	assert.Zero(t, rt.SubscriptionCount())

	_, err = rt.Subscribe(context.Background(), "p1", func(models.PollTally) {})
	assert.NoError(t, err)
}

func TestRealtime_NotConnected(t *testing.T) {
	rt := NewRealtime(New("http://localhost:1", testAPIKey))

	_, err := rt.Subscribe(context.Background(), "p1", func(models.PollTally) {})
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.False(t, rt.Connected())
	rt.Close()
}

func TestRealtime_ServerShutdownDisconnects(t *testing.T) {
	api := newFakeAPI(t)
	rt := connectedRealtime(t, api, "user-1")
	_, err := rt.Subscribe(context.Background(), "p1", func(models.PollTally) {})
	require.NoError(t, err)

	api.hub.Shutdown()
	assert.Eventually(t, func() bool { return !rt.Connected() }, 2*time.Second, 10*time.Millisecond)
	assert.Zero(t, rt.SubscriptionCount())
}

func TestRealtime_SkippedSeqFromOtherTopicsIsQuiet(t *testing.T) {
	var logs bytes.Buffer
	log.SetOutput(&logs)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	api := newFakeAPI(t)
	rt := connectedRealtime(t, api, "user-1")
	other := connectedRealtime(t, api, "user-2")

	got := make(chan models.PollTally, 4)
	_, err := rt.Subscribe(context.Background(), "p1", func(tally models.PollTally) { got <- tally })
	require.NoError(t, err)
	_, err = other.Subscribe(context.Background(), "p2", func(models.PollTally) {})
	require.NoError(t, err)

	// p2 yayını user-1'e gitmez; p1 event'inin seq'i bir atlar
	api.hub.PublishToPoll("p2", ws.Event{Op: ws.OpPollOptionsUpdate, Data: models.NewPollTally("p2", nil)})
	api.hub.PublishToPoll("p1", ws.Event{Op: ws.OpPollOptionsUpdate, Data: models.NewPollTally("p1", nil)})

	select {
	case tally := <-got:
		assert.Equal(t, "p1", tally.PollID)
	case <-time.After(2 * time.Second):
		t.Fatal("p1 update not delivered")
	}

	log.SetOutput(os.Stderr)
	assert.NotContains(t, logs.String(), "gap")
}

func TestRealtime_MalformedSubscribedAckIsAnError(t *testing.T) {
	rt := NewRealtime(New("http://localhost:1", testAPIKey))
	ack := make(chan subscribeAck, 1)
	rt.ack = ack

	rt.dispatch(inboundEvent{Op: ws.OpSubscribed, Data: json.RawMessage(`"not an object"`)})

	select {
	case res := <-ack:
		require.Error(t, res.err)
		assert.Contains(t, res.err.Error(), "bad subscribed payload")
	default:
		t.Fatal("no ack delivered")
	}
}
