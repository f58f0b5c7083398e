package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/votespace/models"
)

// fakeValidator, token'ı doğrudan userID olarak kabul eder.
type fakeValidator struct{}

func (fakeValidator) ValidateAccessToken(token string) (*models.TokenClaims, error) {
	if token == "bad" {
		return nil, errors.New("invalid")
	}
	return &models.TokenClaims{UserID: token}, nil
}

type rawEvent struct {
	Op   string          `json:"op"`
	Data json.RawMessage `json:"d"`
	Seq  int64           `json:"seq"`
}

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	hub := NewHub()
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(NewHandler(hub, fakeValidator{}).HandleConnection))
	t.Cleanup(func() {
		hub.Shutdown()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	ev := readEvent(t, conn)
	require.Equal(t, OpReady, ev.Op)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) rawEvent {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev rawEvent
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func send(t *testing.T, conn *websocket.Conn, op string, data any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(Event{Op: op, Data: data}))
}

func subscribe(t *testing.T, conn *websocket.Conn, pollID string) {
	t.Helper()

	send(t, conn, OpSubscribe, PollTopicData{PollID: pollID})
	ev := readEvent(t, conn)
	require.Equal(t, OpSubscribed, ev.Op)

	var data PollTopicData
	require.NoError(t, json.Unmarshal(ev.Data, &data))
	require.Equal(t, pollID, data.PollID)
}

func TestHandleConnection_RejectsMissingOrInvalidToken(t *testing.T) {
	_, srv := startHub(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(url+"?token=bad", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHeartbeat(t *testing.T) {
	_, srv := startHub(t)
	conn := dial(t, srv, "u1")

	send(t, conn, OpHeartbeat, nil)
	assert.Equal(t, OpHeartbeatAck, readEvent(t, conn).Op)
}

func TestPublishToPoll_OnlySubscribersReceive(t *testing.T) {
	hub, srv := startHub(t)

	subscriber := dial(t, srv, "u1")
	bystander := dial(t, srv, "u2")

	subscribe(t, subscriber, "poll-1")
	assert.Equal(t, 1, hub.SubscriberCount("poll-1"))

	hub.PublishToPoll("poll-1", Event{Op: OpPollOptionsUpdate, Data: map[string]any{"poll_id": "poll-1"}})

	ev := readEvent(t, subscriber)
	assert.Equal(t, OpPollOptionsUpdate, ev.Op)
	assert.JSONEq(t, `{"poll_id":"poll-1"}`, string(ev.Data))

	// bystander'ın sıradaki mesajı publish değil heartbeat ack olmalı
	send(t, bystander, OpHeartbeat, nil)
	assert.Equal(t, OpHeartbeatAck, readEvent(t, bystander).Op)
}

func TestUnsubscribe_StopsDelivery(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "u1")

	subscribe(t, conn, "poll-1")
	send(t, conn, OpUnsubscribe, PollTopicData{PollID: "poll-1"})

	// unsubscribe ack'siz; heartbeat ile işlendiğinden emin ol
	send(t, conn, OpHeartbeat, nil)
	require.Equal(t, OpHeartbeatAck, readEvent(t, conn).Op)
	assert.Equal(t, 0, hub.SubscriberCount("poll-1"))

	hub.PublishToPoll("poll-1", Event{Op: OpPollOptionsUpdate})
	send(t, conn, OpHeartbeat, nil)
	assert.Equal(t, OpHeartbeatAck, readEvent(t, conn).Op)
}

func TestSubscribe_ValidatorRejectsUnknownPoll(t *testing.T) {
	hub, srv := startHub(t)
	hub.OnPollSubscribe(func(pollID string) error {
		if pollID != "known" {
			return errors.New("not found")
		}
		return nil
	})

	conn := dial(t, srv, "u1")

	send(t, conn, OpSubscribe, PollTopicData{PollID: "missing"})
	ev := readEvent(t, conn)
	require.Equal(t, OpError, ev.Op)

	var data ErrorData
	require.NoError(t, json.Unmarshal(ev.Data, &data))
	assert.Equal(t, OpSubscribe, data.Op)
	assert.Equal(t, "poll not found", data.Message)
	assert.Equal(t, 0, hub.SubscriberCount("missing"))

	subscribe(t, conn, "known")
}

func TestBroadcastToUser_ReachesAllConnectionsOfUser(t *testing.T) {
	hub, srv := startHub(t)

	tab1 := dial(t, srv, "u1")
	tab2 := dial(t, srv, "u1")
	other := dial(t, srv, "u2")

	hub.BroadcastToUser("u1", Event{Op: OpSessionUpdate, Data: SessionUpdateData{User: nil}})

	for _, conn := range []*websocket.Conn{tab1, tab2} {
		ev := readEvent(t, conn)
		assert.Equal(t, OpSessionUpdate, ev.Op)
		assert.JSONEq(t, `{"user":null}`, string(ev.Data))
	}

	send(t, other, OpHeartbeat, nil)
	assert.Equal(t, OpHeartbeatAck, readEvent(t, other).Op)
}

func TestBroadcastToAll_SeqIncreases(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "u1")

	hub.BroadcastToAll(Event{Op: OpPollCreate})
	hub.BroadcastToAll(Event{Op: OpPollCreate})

	first := readEvent(t, conn)
	second := readEvent(t, conn)
	assert.Equal(t, OpPollCreate, first.Op)
	assert.Greater(t, second.Seq, first.Seq)
}

func TestShutdown_ClosesConnections(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "u1")
	subscribe(t, conn, "poll-1")

	hub.Shutdown()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)

	assert.Equal(t, 0, hub.SubscriberCount("poll-1"))
	assert.Empty(t, hub.GetOnlineUserIDs())

	// Kapalı hub'a yayın panic atmamalı
	assert.NotPanics(t, func() {
		hub.PublishToPoll("poll-1", Event{Op: OpPollOptionsUpdate})
		hub.BroadcastToAll(Event{Op: OpPollCreate})
	})
}

func TestReadPump_RateLimitsInboundMessages(t *testing.T) {
	_, srv := startHub(t)
	conn := dial(t, srv, "u1")

	total := inboundBurst + 5
	for i := 0; i < total; i++ {
		send(t, conn, OpHeartbeat, nil)
	}

	acks, limited := 0, 0
	for i := 0; i < total; i++ {
		ev := readEvent(t, conn)
		switch ev.Op {
		case OpHeartbeatAck:
			acks++
		case OpError:
			var data ErrorData
			require.NoError(t, json.Unmarshal(ev.Data, &data))
			assert.Equal(t, MsgRateLimited, data.Message)
			assert.Equal(t, OpHeartbeat, data.Op)
			limited++
		}
	}
	assert.GreaterOrEqual(t, acks, inboundBurst)
	assert.Positive(t, limited)
	assert.Equal(t, total, acks+limited)
}

func TestConnectionAndTopicCounts(t *testing.T) {
	hub, srv := startHub(t)
	assert.Equal(t, 0, hub.ConnectionCount())

	a := dial(t, srv, "u1")
	dial(t, srv, "u1")
	dial(t, srv, "u2")
	assert.Equal(t, 3, hub.ConnectionCount())

	subscribe(t, a, "poll-1")
	subscribe(t, a, "poll-2")
	assert.Equal(t, 2, hub.TopicCount())
}
