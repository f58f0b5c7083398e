package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// WebSocket bağlantı sabitleri
const (
	// writeWait: Bir mesajı yazmak için maksimum bekleme süresi.
	writeWait = 10 * time.Second

	// pongWait: 3 heartbeat kaçırma = 30s × 3 = 90s.
	// Bu sürede heartbeat gelmezse bağlantı kopmuş sayılır.
	pongWait = 90 * time.Second

	// maxMessageSize: Client mesajları küçük (subscribe, heartbeat).
	maxMessageSize = 4096

	// sendBufferSize: Buffer doluysa client yavaş sayılır ve düşürülür.
	sendBufferSize = 256

	// inboundRate / inboundBurst: client başına saniyede 10 mesaj, 20'lik burst.
	// Aşan mesajlar işlenmez, client'a MsgRateLimited hatası döner.
	inboundRate  = 10
	inboundBurst = 20
)

// MsgRateLimited, mesaj limiti aşıldığında error event'inin mesajı.
const MsgRateLimited = "too many messages"

// Client, tek bir WebSocket bağlantısı.
//
// Her bağlantı için iki goroutine çalışır:
//   - ReadPump: client mesajlarını okur (heartbeat, subscribe, unsubscribe)
//   - WritePump: send channel'ındaki mesajları yazar
//
// gorilla/websocket aynı anda bir okuyucu ve bir yazıcı destekler.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
	mu     sync.Mutex // conn.WriteMessage çağrılarını korur

	limiter *rate.Limiter

	// subs ve closed, hub.mu altında okunur/yazılır.
	subs   map[string]bool
	closed bool
}

func newClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
		subs:   make(map[string]bool),

		limiter: rate.NewLimiter(rate.Limit(inboundRate), inboundBurst),
	}
}

// ReadPump, bağlantı kapanana kadar client mesajlarını okur.
// Döndüğünde client Hub'dan çıkarılır.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("[ws] failed to set read deadline for user %s: %v", c.userID, err)
		return
	}

	for {
		_, rawMessage, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] unexpected close for user %s: %v", c.userID, err)
			}
			return
		}

		var event Event
		if err := json.Unmarshal(rawMessage, &event); err != nil {
			log.Printf("[ws] invalid message from user %s: %v", c.userID, err)
			continue
		}

		if !c.limiter.Allow() {
			c.sendEvent(Event{Op: OpError, Data: ErrorData{Op: event.Op, Message: MsgRateLimited}})
			continue
		}

		c.handleEvent(event)
	}
}

// handleEvent, client'dan gelen event'leri türüne göre işler.
func (c *Client) handleEvent(event Event) {
	switch event.Op {
	case OpHeartbeat:
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("[ws] failed to set read deadline for user %s: %v", c.userID, err)
			return
		}
		c.sendEvent(Event{Op: OpHeartbeatAck})

	case OpSubscribe:
		c.handleSubscribe(event)

	case OpUnsubscribe:
		data, ok := decodeTopic(event)
		if !ok {
			return
		}
		c.hub.Unsubscribe(c, data.PollID)

	default:
		log.Printf("[ws] unknown op from user %s: %s", c.userID, event.Op)
	}
}

// handleSubscribe, poll'u doğrular ve client'ı topic'e ekler.
// Başarılı abonelik "subscribed" ile onaylanır; client bu ack'ten sonra
// gelen her poll_options_update'i alacağını bilir.
func (c *Client) handleSubscribe(event Event) {
	data, ok := decodeTopic(event)
	if !ok {
		c.sendEvent(Event{Op: OpError, Data: ErrorData{Op: OpSubscribe, Message: "poll_id is required"}})
		return
	}

	if c.hub.validatePoll != nil {
		if err := c.hub.validatePoll(data.PollID); err != nil {
			c.sendEvent(Event{Op: OpError, Data: ErrorData{Op: OpSubscribe, Message: "poll not found"}})
			return
		}
	}

	if !c.hub.Subscribe(c, data.PollID) {
		return
	}
	c.sendEvent(Event{Op: OpSubscribed, Data: PollTopicData{PollID: data.PollID}})
}

// decodeTopic, event.Data'yı PollTopicData'ya çevirir.
// event.Data tipi any olduğu için JSON üzerinden geçilir.
func decodeTopic(event Event) (PollTopicData, bool) {
	var data PollTopicData

	dataBytes, err := json.Marshal(event.Data)
	if err != nil {
		return data, false
	}
	if err := json.Unmarshal(dataBytes, &data); err != nil {
		return data, false
	}
	return data, data.PollID != ""
}

// sendEvent, client'a tek bir event gönderir.
// Client zaten Hub'dan çıkarılmışsa no-op.
func (c *Client) sendEvent(event Event) {
	c.hub.sendTo(c, event)
}

// WritePump, send channel'ındaki mesajları WebSocket'e yazar.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for {
		message, ok := <-c.send
		if !ok {
			// Channel kapatıldı, Hub client'ı çıkardı
			c.writeMessage(websocket.CloseMessage, nil)
			return
		}

		if err := c.writeMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// writeMessage, conn'a aynı anda tek yazma yapılmasını garanti eder.
func (c *Client) writeMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}
