// Package main: Handler katmanı başlatma.
//
// Handler'lar ince: HTTP parse + service call + response write.
package main

import (
	"github.com/akinalp/votespace/config"
	"github.com/akinalp/votespace/handlers"
	"github.com/akinalp/votespace/ws"
)

// Handlers, tüm handler instance'larını tutan container struct.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Poll      *handlers.PollHandler
	Vote      *handlers.VoteHandler
	Bootstrap *handlers.BootstrapHandler
	WS        *ws.Handler
}

// initHandlers, tüm handler'ları service ve rate limiter dependency'leri ile oluşturur.
func initHandlers(svcs *Services, limiters *RateLimiters, hub *ws.Hub, cfg *config.Config) *Handlers {
	return &Handlers{
		Auth:      handlers.NewAuthHandler(svcs.Auth, limiters.Login),
		Poll:      handlers.NewPollHandler(svcs.Poll, limiters.PollCreate),
		Vote:      handlers.NewVoteHandler(svcs.Vote),
		Bootstrap: handlers.NewBootstrapHandler(cfg.MissingSettings()),
		WS:        ws.NewHandler(hub, svcs.Auth),
	}
}
