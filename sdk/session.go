package sdk

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/akinalp/votespace/models"
)

// Session, oturum durumunu tutar ve değişiklikleri dinleyicilere bildirir.
//
// Sign in/up/out, refresh, email doğrulama ve sunucudan gelen session_update
// event'i aynı yoldan geçer: state güncellenir, sonra her listener çağrılır.
// Oturum açılınca paylaşılan Realtime stream'i bağlanır.
type Session struct {
	client *Client
	rt     *Realtime

	mu           sync.RWMutex
	user         *models.User
	loading      bool
	refreshToken string
	listeners    map[uint64]func(*models.User)
	nextID       uint64
}

// NewSession, session oluşturur. refreshToken önceki çalıştırmadan saklanan
// token'dır (yoksa ""). Init çağrılana kadar Loading true döner.
func NewSession(client *Client, refreshToken string) *Session {
	s := &Session{
		client:       client,
		rt:           NewRealtime(client),
		loading:      true,
		refreshToken: refreshToken,
		listeners:    make(map[uint64]func(*models.User)),
	}
	s.rt.OnSessionUpdate(s.handleSessionUpdate)
	return s
}

// Client, session'ın kullandığı API client'ı.
func (s *Session) Client() *Client { return s.client }

// Realtime, oturuma bağlı paylaşılan stream.
func (s *Session) Realtime() *Realtime { return s.rt }

// User, oturumdaki kullanıcı; yoksa nil.
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Loading, ilk oturum çözümlemesi sürüyor mu?
func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// RefreshToken, kalıcı saklanması gereken güncel refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// Init, saklanan refresh token'dan ilk oturumu çözer.
// Token yoksa veya sunucu reddederse oturum kapalı olarak yerleşir; bu hata
// değildir. Sunucuya ulaşılamazsa hata döner, Loading yine false olur.
func (s *Session) Init(ctx context.Context) error {
	if !s.client.Configured() {
		s.settle(nil, "")
		return ErrNotConfigured
	}

	token := s.RefreshToken()
	if token == "" {
		s.settle(nil, "")
		return nil
	}

	tokens, err := s.client.refresh(ctx, token)
	if err != nil {
		s.settle(nil, "")
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil
		}
		return err
	}

	s.apply(ctx, tokens)
	return nil
}

// SignUp, hesap oluşturur. Sunucu doğrudan token verdiyse oturum açılır;
// email doğrulaması gerekiyorsa result.ConfirmationRequired true olur ve
// oturum kapalı kalır.
func (s *Session) SignUp(ctx context.Context, email, password string) (*models.SignUpResult, error) {
	result, err := s.client.signUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if result.Tokens != nil {
		s.apply(ctx, result.Tokens)
	}
	return result, nil
}

// SignIn, email/şifre ile oturum açar. Hata sunucu mesajıyla döner.
func (s *Session) SignIn(ctx context.Context, email, password string) error {
	tokens, err := s.client.signIn(ctx, email, password)
	if err != nil {
		return err
	}
	s.apply(ctx, tokens)
	return nil
}

// ConfirmEmail, maildeki token ile hesabı doğrular ve oturum açar.
func (s *Session) ConfirmEmail(ctx context.Context, token string) error {
	tokens, err := s.client.ConfirmEmail(ctx, token)
	if err != nil {
		return err
	}
	s.apply(ctx, tokens)
	return nil
}

// Refresh, token'ları yeniler (rotation). Refresh token reddedilirse
// oturum kapanır.
func (s *Session) Refresh(ctx context.Context) error {
	token := s.RefreshToken()
	if token == "" {
		return &APIError{Status: 401, Message: "no active session"}
	}

	tokens, err := s.client.refresh(ctx, token)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == 401 {
			s.rt.Close()
			s.settle(nil, "")
		}
		return err
	}

	s.apply(ctx, tokens)
	return nil
}

// SignOut, sunucudaki session'ı siler. Yerel oturum her durumda kapanır;
// sunucu hatası yine de döner.
func (s *Session) SignOut(ctx context.Context) error {
	token := s.RefreshToken()

	// Önce stream kapanır, kendi session_update event'imizi beklemeyiz.
	s.rt.Close()
	s.settle(nil, "")

	if token == "" {
		return nil
	}
	return s.client.signOut(ctx, token)
}

// OnChange, oturum değişikliklerine abone olur. Dönen fonksiyon aboneliği iptal eder.
func (s *Session) OnChange(fn func(user *models.User)) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Close, stream'i kapatır ve tüm dinleyicileri bırakır.
func (s *Session) Close() {
	s.rt.Close()

	s.mu.Lock()
	s.listeners = make(map[uint64]func(*models.User))
	s.mu.Unlock()
}

// apply, yeni token'ları yerleştirir ve stream'i bağlar.
// Farklı bir kullanıcıya geçilirse eski stream kapatılır.
func (s *Session) apply(ctx context.Context, tokens *models.AuthTokens) {
	prev := s.User()
	if prev != nil && tokens.User != nil && prev.ID != tokens.User.ID {
		s.rt.Close()
	}

	s.client.setAccessToken(tokens.AccessToken)
	s.settle(tokens.User, tokens.RefreshToken)

	// Canlı güncellemeler olmadan da oturum kullanılabilir
	if err := s.rt.Connect(ctx); err != nil {
		log.Printf("[sdk] realtime connect failed: %v", err)
	}
}

// settle, state'i yazar, loading'i bitirir ve dinleyicileri çağırır.
func (s *Session) settle(user *models.User, refreshToken string) {
	if user == nil {
		s.client.setAccessToken("")
	}

	s.mu.Lock()
	s.user = user
	s.refreshToken = refreshToken
	s.loading = false
	listeners := make([]func(*models.User), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(user)
	}
}

// handleSessionUpdate, stream reader goroutine'inde çalışır.
// user nil → kullanıcının hiç oturumu kalmadı (başka cihazdan çıkış).
func (s *Session) handleSessionUpdate(user *models.User) {
	if user != nil {
		s.settle(user, s.RefreshToken())
		return
	}

	s.settle(nil, "")
	// Close reader'ın bitmesini bekler; reader'ın içinden ayrı goroutine'de.
	go s.rt.Close()
}
