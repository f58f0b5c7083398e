package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/rs/cors"

	"github.com/akinalp/votespace/config"
	"github.com/akinalp/votespace/middleware"
	"github.com/akinalp/votespace/pkg/metrics"
	"github.com/akinalp/votespace/repository"
	"github.com/akinalp/votespace/ws"
)

// sessionCleanupInterval, süresi dolan refresh session'larının silinme aralığı.
const sessionCleanupInterval = time.Hour

// server, wire-up sonucu: HTTP handler + arka plan bileşenleri.
// main ve uçtan uca testler aynı kurulumu kullanır.
type server struct {
	Handler http.Handler
	Hub     *ws.Hub

	limiters  *RateLimiters
	stopClean context.CancelFunc
	closeOnce sync.Once
}

// newServer, repository → hub → service → handler → route zincirini kurar.
//
// Middleware zinciri (dıştan içe): Metrics → CORS → SetupGate → APIKey → mux.
// CORS setup/apikey'den önce; preflight istekleri o kontrollere takılmaz.
// /metrics bu zincirin dışında, kök mux'ta durur.
func newServer(cfg *config.Config, db *sql.DB) *server {
	// ─── Repository Layer ───
	repos := initRepositories(db)

	// ─── WebSocket Hub ───
	hub := ws.NewHub()
	go hub.Run()
	registerHubCallbacks(hub, repos.Poll)

	// ─── Service Layer ───
	svcs, limiters := initServices(db, repos, hub, cfg)

	// ─── Handler Layer ───
	h := initHandlers(svcs, limiters, hub, cfg)

	// ─── HTTP Router ───
	mux := http.NewServeMux()
	configured := !cfg.SetupRequired()
	initRoutes(mux, h, svcs.Auth, repos.User, configured)

	var handler http.Handler = mux
	handler = middleware.RequireAPIKey(cfg.API.PublicKey)(handler)
	handler = middleware.SetupGate(cfg.MissingSettings())(handler)

	// ─── CORS ───
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.APIKeyHeader, "Accept-Language"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
		Debug:            false,
	})
	handler = corsHandler.Handler(handler)

	// ─── Metrics ───
	m := metrics.New()
	registerGauges(m, hub)

	root := http.NewServeMux()
	root.Handle("GET /metrics", m.Handler())
	root.Handle("/", handler)
	handler = m.Middleware(root)

	// ─── Session Cleanup ───
	ctx, cancel := context.WithCancel(context.Background())
	go runSessionCleanup(ctx, repos.Session, sessionCleanupInterval)

	if !configured {
		log.Printf("[main] setup required, missing settings: %v", cfg.MissingSettings())
	}

	return &server{
		Handler:   handler,
		Hub:       hub,
		limiters:  limiters,
		stopClean: cancel,
	}
}

// Close, WebSocket bağlantılarını ve arka plan goroutine'lerini kapatır.
// Birden fazla çağrı güvenlidir.
func (s *server) Close() {
	s.closeOnce.Do(func() {
		s.Hub.Shutdown()
		s.stopClean()
		s.limiters.Stop()
	})
}

// registerGauges, Hub'ın anlık sayılarını scrape anında okunan gauge'lar olarak ekler.
func registerGauges(m *metrics.Metrics, hub *ws.Hub) {
	gauges := []struct {
		name, help string
		fn         func() float64
	}{
		{"ws_connections", "Open WebSocket connections.", func() float64 { return float64(hub.ConnectionCount()) }},
		{"ws_online_users", "Users with at least one open WebSocket connection.", func() float64 { return float64(len(hub.GetOnlineUserIDs())) }},
		{"ws_poll_topics", "Polls with at least one live subscriber.", func() float64 { return float64(hub.TopicCount()) }},
	}

	for _, g := range gauges {
		if err := m.RegisterGauge(g.name, g.help, g.fn); err != nil {
			log.Printf("[main] %v", err)
		}
	}
}

// runSessionCleanup, süresi dolan session'ları periyodik olarak siler.
func runSessionCleanup(ctx context.Context, sessions repository.SessionRepository, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := sessions.DeleteExpired(ctx); err != nil && ctx.Err() == nil {
				log.Printf("[main] session cleanup failed: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
