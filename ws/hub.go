package ws

import (
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
)

// EventPublisher, service katmanının event yayınlamak için kullandığı interface.
// Service'ler Hub'a değil buna bağımlıdır; testlerde fake publisher geçilir.
type EventPublisher interface {
	BroadcastToAll(event Event)
	BroadcastToUser(userID string, event Event)
	PublishToPoll(pollID string, event Event)
}

// PollValidator, subscribe isteğinde poll'un var olduğunu kontrol eder.
// nil dönerse abonelik açılır.
type PollValidator func(pollID string) error

// Hub, bağlantıları ve poll topic'lerini yönetir.
//
// Register senkron çalışır: döndüğünde client yayınları almaya hazırdır.
// Unregister, Run() goroutine'inin dinlediği channel üzerinden yapılır.
// Yayın fonksiyonları (BroadcastToAll, PublishToPoll) RLock altında
// client'ların send channel'ına non-blocking yazar; buffer'ı dolu
// client yavaş sayılır ve unregister edilir.
type Hub struct {
	// clients: userID → bağlantı seti (bir kullanıcının birden fazla tab'ı olabilir)
	clients map[string]map[*Client]bool

	// topics: pollID → abone bağlantılar
	topics map[string]map[*Client]bool

	mu sync.RWMutex

	unregister chan *Client
	done       chan struct{}
	closeOnce  sync.Once
	shutdown   bool // h.mu altında

	seq atomic.Int64

	validatePoll PollValidator
}

// NewHub, yeni bir Hub oluşturur. main'de `go hub.Run()` ile başlatılır.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		topics:     make(map[string]map[*Client]bool),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// OnPollSubscribe, subscribe isteklerini doğrulayacak fonksiyonu ayarlar.
// Run'dan önce çağrılmalı.
func (h *Hub) OnPollSubscribe(fn PollValidator) {
	h.validatePoll = fn
}

// Run, Hub'ın ana event loop'u. Shutdown çağrılınca döner.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			return
		}
	}
}

// Register, client'ı Hub'a ekler. Hub kapanmışsa false döner.
func (h *Hub) Register(client *Client) bool {
	return h.addClient(client)
}

// Unregister, client'ı Hub'dan çıkarır. Hub kapanmışsa no-op.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) addClient(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.shutdown {
		return false
	}

	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true

	log.Printf("[ws] client connected: user=%s (connections for user: %d)",
		client.userID, len(h.clients[client.userID]))
	return true
}

// removeClient, client'ı tüm topic'lerden ve kullanıcı setinden çıkarır,
// send channel'ını kapatır. İkinci çağrı no-op'tur.
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client.closed {
		return
	}
	client.closed = true
	close(client.send)

	for pollID := range client.subs {
		h.dropSubscription(client, pollID)
	}

	if clients, ok := h.clients[client.userID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.clients, client.userID)
			log.Printf("[ws] user fully disconnected: %s", client.userID)
		}
	}
}

// Subscribe, client'ı poll topic'ine ekler. Kapanmış client için false.
func (h *Hub) Subscribe(client *Client, pollID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client.closed {
		return false
	}

	if _, ok := h.topics[pollID]; !ok {
		h.topics[pollID] = make(map[*Client]bool)
	}
	h.topics[pollID][client] = true
	client.subs[pollID] = true
	return true
}

// Unsubscribe, client'ı poll topic'inden çıkarır.
func (h *Hub) Unsubscribe(client *Client, pollID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.dropSubscription(client, pollID)
}

// dropSubscription, h.mu Lock altında çağrılmalı.
func (h *Hub) dropSubscription(client *Client, pollID string) {
	delete(client.subs, pollID)
	if subs, ok := h.topics[pollID]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.topics, pollID)
		}
	}
}

// SubscriberCount, poll'un anlık abone bağlantı sayısı.
func (h *Hub) SubscriberCount(pollID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[pollID])
}

// ConnectionCount, toplam açık bağlantı sayısı (tüm kullanıcılar).
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, clients := range h.clients {
		n += len(clients)
	}
	return n
}

// TopicCount, en az bir abonesi olan poll sayısı.
func (h *Hub) TopicCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics)
}

// BroadcastToAll, tüm bağlı client'lara event gönderir.
func (h *Hub) BroadcastToAll(event Event) {
	data, ok := h.encode(event)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, clients := range h.clients {
		for client := range clients {
			h.deliver(client, data)
		}
	}
}

// BroadcastToUser, kullanıcının tüm bağlantılarına event gönderir.
func (h *Hub) BroadcastToUser(userID string, event Event) {
	data, ok := h.encode(event)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[userID] {
		h.deliver(client, data)
	}
}

// PublishToPoll, sadece poll'a abone bağlantılara event gönderir.
func (h *Hub) PublishToPoll(pollID string, event Event) {
	data, ok := h.encode(event)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.topics[pollID] {
		h.deliver(client, data)
	}
}

// sendTo, tek bir client'a event gönderir (ready, ack, error).
func (h *Hub) sendTo(client *Client, event Event) {
	data, ok := h.encode(event)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if client.closed {
		return
	}
	h.deliver(client, data)
}

func (h *Hub) encode(event Event) ([]byte, bool) {
	event.Seq = h.seq.Add(1)

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal %s event: %v", event.Op, err)
		return nil, false
	}
	return data, true
}

// deliver, RLock altında çağrılır. Buffer doluysa client'ı düşürür.
func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		log.Printf("[ws] send buffer full for user %s, dropping connection", client.userID)
		go h.Unregister(client)
	}
}

// GetOnlineUserIDs, bağlı kullanıcı ID'leri.
func (h *Hub) GetOnlineUserIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.clients))
	for userID := range h.clients {
		ids = append(ids, userID)
	}
	return ids
}

// Shutdown, tüm bağlantıları kapatır ve Run'ı durdurur (graceful shutdown).
func (h *Hub) Shutdown() {
	h.closeOnce.Do(func() {
		h.mu.Lock()
		for _, clients := range h.clients {
			for client := range clients {
				if !client.closed {
					client.closed = true
					close(client.send)
				}
			}
		}
		h.clients = make(map[string]map[*Client]bool)
		h.topics = make(map[string]map[*Client]bool)
		h.shutdown = true
		h.mu.Unlock()

		close(h.done)
		log.Println("[ws] hub shut down, all connections closed")
	})
}
