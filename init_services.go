// Package main: Service katmanı başlatma.
//
// initServices, service'leri, rate limiter'ları ve cooldown cache'ini oluşturur.
// Email sender opsiyoneldir; ayarlar eksikse hesaplar otomatik doğrulanır.
package main

import (
	"database/sql"
	"log"
	"time"

	"github.com/akinalp/votespace/config"
	"github.com/akinalp/votespace/pkg/cache"
	"github.com/akinalp/votespace/pkg/email"
	"github.com/akinalp/votespace/pkg/ratelimit"
	"github.com/akinalp/votespace/services"
	"github.com/akinalp/votespace/ws"
)

// resendCooldown, doğrulama maili tekrar gönderimi arasındaki minimum süre.
const resendCooldown = 60 * time.Second

// Services, tüm service instance'larını tutan container struct.
type Services struct {
	Auth services.AuthService
	Poll services.PollService
	Vote services.VoteService
}

// RateLimiters, rate limiter ve cooldown instance'larını tutan container.
// Arka plan temizlik goroutine'leri Stop ile durdurulur.
type RateLimiters struct {
	Login          *ratelimit.LoginRateLimiter
	PollCreate     *ratelimit.ActionRateLimiter
	ResendCooldown *cache.TTLCache[string, time.Time]
}

// Stop, tüm temizlik goroutine'lerini durdurur.
func (l *RateLimiters) Stop() {
	l.Login.Stop()
	l.PollCreate.Stop()
	l.ResendCooldown.Close()
}

// initServices, tüm service'leri ve rate limiter'ları oluşturur.
func initServices(db *sql.DB, repos *Repositories, hub ws.EventPublisher, cfg *config.Config) (*Services, *RateLimiters) {
	// ─── Email service (opsiyonel) ───
	var emailSender email.EmailSender
	if cfg.Email.EmailEnabled() {
		emailSender = email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.FromEmail, cfg.Email.AppURL)
		log.Printf("[main] email confirmation enabled (from=%s)", cfg.Email.FromEmail)
	} else {
		log.Println("[main] email confirmation disabled (RESEND_API_KEY, RESEND_FROM or APP_URL not set), accounts are auto-confirmed")
	}

	// ─── Rate Limiters ───
	limiters := &RateLimiters{
		Login:          ratelimit.NewLoginRateLimiter(5, 2*time.Minute),
		PollCreate:     ratelimit.NewActionRateLimiter(5, time.Minute, 2*time.Minute),
		ResendCooldown: cache.New[string, time.Time](resendCooldown, 5*time.Minute),
	}

	authService := services.NewAuthService(
		repos.User, repos.Session, repos.Confirmation, hub, emailSender, limiters.ResendCooldown,
		cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry, cfg.JWT.RefreshTokenExpiry,
	)

	svcs := &Services{
		Auth: authService,
		Poll: services.NewPollService(db, repos.Poll, repos.Option, hub),
		Vote: services.NewVoteService(db, repos.Poll, repos.Option, repos.Vote, hub),
	}

	return svcs, limiters
}
