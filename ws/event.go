// Package ws, WebSocket bağlantı yönetimi ve gerçek zamanlı event dağıtımını sağlar.
//
// Mimari:
//   - Hub: tüm bağlantıları ve poll topic aboneliklerini yönetir
//   - Client: tek bir WebSocket bağlantısı (read + write pump)
//   - Event: client-server arası mesaj formatı {op, d, seq}
//
// Bir client tek bağlantı üzerinden birden fazla poll'a abone olur
// (subscribe/unsubscribe). Oy transaction'ı commit olunca service,
// PublishToPoll ile sadece o poll'un abonelerine poll_options_update yollar.
package ws

// Event, WebSocket üzerinden iletilen mesaj.
//
// Seq: her outbound event'e verilen artan sayı. Client boşluk görürse
// (5'ten sonra 7) arada event kaybolmuş demektir.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// Client → Server
const (
	OpHeartbeat   = "heartbeat"   // her 30sn, "hâlâ bağlıyım"
	OpSubscribe   = "subscribe"   // {poll_id}
	OpUnsubscribe = "unsubscribe" // {poll_id}
)

// Server → Client
const (
	OpReady             = "ready"
	OpHeartbeatAck      = "heartbeat_ack"
	OpSubscribed        = "subscribed"          // abonelik aktif: {poll_id}
	OpPollOptionsUpdate = "poll_options_update" // models.PollTally
	OpPollCreate        = "poll_create"         // models.PollWithOptions
	OpSessionUpdate     = "session_update"      // SessionUpdateData
	OpError             = "error"               // ErrorData
)

// ReadyData, bağlantı kurulunca gönderilen ilk event'in payload'ı.
type ReadyData struct {
	UserID string `json:"user_id"`
}

// PollTopicData, subscribe/unsubscribe/subscribed payload'ı.
type PollTopicData struct {
	PollID string `json:"poll_id"`
}

// SessionUpdateData, kullanıcının oturum durumu değişti.
// User nil → artık hiç oturumu yok (sign-out).
type SessionUpdateData struct {
	User any `json:"user"`
}

// ErrorData, client isteği işlenemediğinde gönderilir.
type ErrorData struct {
	Op      string `json:"op"`
	Message string `json:"message"`
}
