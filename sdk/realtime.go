package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/akinalp/votespace/models"
	"github.com/akinalp/votespace/ws"
)

const (
	heartbeatInterval = 30 * time.Second
	rtWriteWait       = 10 * time.Second
	readyTimeout      = 10 * time.Second
)

// ErrNotConnected, Connect edilmemiş (veya kopmuş) stream'e abonelik denemesi.
var ErrNotConnected = errors.New("realtime stream is not connected")

// inboundEvent, sunucudan gelen event; payload op'a göre ayrıca çözülür.
type inboundEvent struct {
	Op   string          `json:"op"`
	Data json.RawMessage `json:"d"`
	Seq  int64           `json:"seq"`
}

type subscribeAck struct {
	pollID string
	err    error
}

// Realtime, client başına tek WebSocket bağlantısı.
// Poll abonelikleri bu bağlantı üzerinden çoğullanır: aynı poll için birden
// fazla handler olabilir, sunucuya tek subscribe gider. Handler'lar reader
// goroutine'inde çalışır.
type Realtime struct {
	client *Client
	dialer *websocket.Dialer

	mu        sync.Mutex
	conn      *websocket.Conn
	done      chan struct{}
	subs      map[string]map[uint64]func(models.PollTally)
	nextID    uint64
	ack       chan subscribeAck
	onSession func(*models.User)

	// Sunucuya aynı anda tek subscribe isteği; ack'ler poll'a göre eşleşmez.
	subscribeMu sync.Mutex
	writeMu     sync.Mutex
}

// NewRealtime, bağlanmamış bir stream oluşturur.
func NewRealtime(client *Client) *Realtime {
	return &Realtime{
		client: client,
		dialer: websocket.DefaultDialer,
		subs:   make(map[string]map[uint64]func(models.PollTally)),
	}
}

// OnSessionUpdate, sunucu session_update gönderdiğinde çağrılır.
func (r *Realtime) OnSessionUpdate(fn func(user *models.User)) {
	r.mu.Lock()
	r.onSession = fn
	r.mu.Unlock()
}

// Connected, aktif bir bağlantı var mı?
func (r *Realtime) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn != nil
}

// Connect, client'ın o anki access token'ı ile /ws'e bağlanır ve "ready"
// event'ini bekler. Zaten bağlıysa no-op.
func (r *Realtime) Connect(ctx context.Context) error {
	if !r.client.Configured() {
		return ErrNotConfigured
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn != nil {
		return nil
	}

	wsURL, err := r.client.wsURL()
	if err != nil {
		return err
	}

	conn, resp, err := r.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return &APIError{Status: resp.StatusCode, Message: "realtime connection rejected"}
		}
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}

	// İlk event "ready" olmalı
	conn.SetReadDeadline(time.Now().Add(readyTimeout))
	var first inboundEvent
	if err := conn.ReadJSON(&first); err != nil || first.Op != ws.OpReady {
		conn.Close()
		if err == nil {
			err = fmt.Errorf("unexpected first event %q", first.Op)
		}
		return fmt.Errorf("realtime handshake failed: %w", err)
	}
	conn.SetReadDeadline(time.Time{})

	done := make(chan struct{})
	r.conn = conn
	r.done = done

	go r.readLoop(conn, done)
	go r.heartbeatLoop(conn, done)

	return nil
}

// Subscribe, poll'un değişikliklerini fn'e bağlar. Poll için ilk handler ise
// sunucuya subscribe gönderilir ve "subscribed" onayı beklenir.
// Dönen fonksiyon aboneliği bırakır; son handler giderse sunucuya
// unsubscribe gider. Bırakıldıktan sonra gelen event'ler saklanmaz.
func (r *Realtime) Subscribe(ctx context.Context, pollID string, fn func(models.PollTally)) (func(), error) {
	r.mu.Lock()
	if r.conn == nil {
		r.mu.Unlock()
		return nil, ErrNotConnected
	}
	r.nextID++
	id := r.nextID
	handlers, ok := r.subs[pollID]
	if !ok {
		handlers = make(map[uint64]func(models.PollTally))
		r.subs[pollID] = handlers
	}
	handlers[id] = fn
	first := len(handlers) == 1
	r.mu.Unlock()

	if first {
		if err := r.requestSubscribe(ctx, pollID); err != nil {
			r.removeHandler(pollID, id)
			return nil, err
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if r.removeHandler(pollID, id) {
				if err := r.send(ws.Event{Op: ws.OpUnsubscribe, Data: ws.PollTopicData{PollID: pollID}}); err != nil && !errors.Is(err, ErrNotConnected) {
					log.Printf("[sdk] unsubscribe %s failed: %v", pollID, err)
				}
			}
		})
	}, nil
}

// requestSubscribe, subscribe gönderir ve ack'i bekler.
func (r *Realtime) requestSubscribe(ctx context.Context, pollID string) error {
	r.subscribeMu.Lock()
	defer r.subscribeMu.Unlock()

	ack := make(chan subscribeAck, 1)
	r.mu.Lock()
	r.ack = ack
	done := r.done
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.ack = nil
		r.mu.Unlock()
	}()

	if err := r.send(ws.Event{Op: ws.OpSubscribe, Data: ws.PollTopicData{PollID: pollID}}); err != nil {
		return err
	}

	select {
	case res := <-ack:
		return res.err
	case <-done:
		return ErrNotConnected
	case <-ctx.Done():
		return ctx.Err()
	}
}

// removeHandler, handler'ı siler; poll'un son handler'ı ise true döner.
func (r *Realtime) removeHandler(pollID string, id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	handlers, ok := r.subs[pollID]
	if !ok {
		return false
	}
	delete(handlers, id)
	if len(handlers) == 0 {
		delete(r.subs, pollID)
		return true
	}
	return false
}

// SubscriptionCount, aktif handler sayısı (tüm poll'lar).
func (r *Realtime) SubscriptionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, handlers := range r.subs {
		n += len(handlers)
	}
	return n
}

// Close, bağlantıyı kapatır ve tüm abonelikleri düşürür.
// Sonra Connect ile yeniden bağlanılabilir.
func (r *Realtime) Close() {
	r.mu.Lock()
	conn, done := r.conn, r.done
	r.conn = nil
	r.subs = make(map[string]map[uint64]func(models.PollTally))
	r.mu.Unlock()

	if conn == nil {
		return
	}

	r.writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(rtWriteWait))
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	r.writeMu.Unlock()

	conn.Close()
	<-done
}

func (r *Realtime) send(event ws.Event) error {
	r.mu.Lock()
	conn := r.conn
	r.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if err := conn.SetWriteDeadline(time.Now().Add(rtWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(event)
}

// readLoop, bağlantı kapanana kadar event okur ve dağıtır.
func (r *Realtime) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer func() {
		r.mu.Lock()
		if r.conn == conn {
			r.conn = nil
			r.subs = make(map[string]map[uint64]func(models.PollTally))
		}
		r.mu.Unlock()
		conn.Close()
		close(done)
	}()

	for {
		var event inboundEvent
		if err := conn.ReadJSON(&event); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[sdk] realtime read error: %v", err)
			}
			return
		}
		r.dispatch(event)
	}
}

// dispatch, event'i op'una göre dağıtır. seq hub genelinde tek sayaçtır;
// client sadece kendi topic'lerini gördüğü için atlamalar normaldir.
func (r *Realtime) dispatch(event inboundEvent) {
	switch event.Op {
	case ws.OpSubscribed:
		var data ws.PollTopicData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			r.deliverAck(subscribeAck{err: fmt.Errorf("bad subscribed payload: %w", err)})
			return
		}
		r.deliverAck(subscribeAck{pollID: data.PollID})

	case ws.OpError:
		var data ws.ErrorData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return
		}
		if data.Op == ws.OpSubscribe {
			status := 404
			if data.Message == ws.MsgRateLimited {
				status = 429
			}
			r.deliverAck(subscribeAck{err: &APIError{Status: status, Message: data.Message}})
		}

	case ws.OpPollOptionsUpdate:
		var tally models.PollTally
		if err := json.Unmarshal(event.Data, &tally); err != nil {
			log.Printf("[sdk] bad poll_options_update payload: %v", err)
			return
		}
		for _, fn := range r.handlersFor(tally.PollID) {
			fn(tally)
		}

	case ws.OpSessionUpdate:
		var data struct {
			User *models.User `json:"user"`
		}
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return
		}
		r.mu.Lock()
		fn := r.onSession
		r.mu.Unlock()
		if fn != nil {
			fn(data.User)
		}
	}
}

func (r *Realtime) deliverAck(ack subscribeAck) {
	r.mu.Lock()
	ch := r.ack
	r.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- ack:
	default:
	}
}

// handlersFor, lock dışında çağrılabilsin diye handler'ların kopyası.
func (r *Realtime) handlersFor(pollID string) []func(models.PollTally) {
	r.mu.Lock()
	defer r.mu.Unlock()

	handlers := r.subs[pollID]
	out := make([]func(models.PollTally), 0, len(handlers))
	for _, fn := range handlers {
		out = append(out, fn)
	}
	return out
}

func (r *Realtime) heartbeatLoop(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := r.send(ws.Event{Op: ws.OpHeartbeat}); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
