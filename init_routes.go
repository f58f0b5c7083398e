// Package main: HTTP route registration.
//
// initRoutes, tüm API endpoint'lerini mux'a bağlar.
// Middleware chain helper'ları:
//   - auth: JWT zorunlu
//   - optionalAuth: JWT varsa kullanıcı context'e eklenir
package main

import (
	"net/http"

	"github.com/akinalp/votespace/middleware"
	"github.com/akinalp/votespace/repository"
	"github.com/akinalp/votespace/services"
)

// initRoutes, middleware chain'i kurar ve endpoint'leri mux'a bağlar.
//
// configured false ise (setup mode) JWT secret boştur; token doğrulaması
// güvenilmez olduğu için bootstrap anonim çalışır. Diğer route'lar zaten
// SetupGate tarafından 503 ile kesilir.
func initRoutes(
	mux *http.ServeMux,
	h *Handlers,
	authService services.AuthService,
	userRepo repository.UserRepository,
	configured bool,
) {
	// ─── Middleware ───
	authMw := middleware.NewAuthMiddleware(authService, userRepo)

	// ─── Middleware Chain Helpers ───
	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(handler)
	}
	optionalAuth := func(handler http.HandlerFunc) http.Handler {
		if !configured {
			return handler
		}
		return authMw.Optional(handler)
	}

	// Health + bootstrap (setup mode'da da açık)
	mux.HandleFunc("GET /api/health", h.Bootstrap.Health)
	mux.Handle("GET /api/bootstrap", optionalAuth(h.Bootstrap.Bootstrap))

	// Auth
	mux.HandleFunc("POST /api/auth/signup", h.Auth.SignUp)
	mux.HandleFunc("POST /api/auth/signin", h.Auth.SignIn)
	mux.HandleFunc("POST /api/auth/refresh", h.Auth.Refresh)
	mux.HandleFunc("POST /api/auth/signout", h.Auth.SignOut)
	mux.HandleFunc("POST /api/auth/confirm", h.Auth.ConfirmEmail)
	mux.HandleFunc("POST /api/auth/resend-confirmation", h.Auth.ResendConfirmation)
	mux.Handle("GET /api/auth/session", auth(h.Auth.Session))

	// Polls
	mux.Handle("GET /api/polls", auth(h.Poll.List))
	mux.Handle("POST /api/polls", auth(h.Poll.Create))
	mux.Handle("GET /api/polls/{id}", optionalAuth(h.Vote.Card))
	mux.Handle("GET /api/polls/{id}/options", optionalAuth(h.Vote.Options))
	mux.Handle("GET /api/polls/{id}/votes/me", auth(h.Vote.MyVote))
	mux.Handle("POST /api/polls/{id}/votes", auth(h.Vote.Vote))

	// WebSocket: token query parametresinden doğrulanır (ws?token=JWT)
	mux.HandleFunc("GET /ws", h.WS.HandleConnection)
}
