package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/votespace/handlers"
	"github.com/akinalp/votespace/models"
	"github.com/akinalp/votespace/pkg"
	"github.com/akinalp/votespace/pkg/cache"
	"github.com/akinalp/votespace/pkg/i18n"
	"github.com/akinalp/votespace/repository"
	"github.com/akinalp/votespace/services"
	"github.com/akinalp/votespace/testutil"
	"github.com/akinalp/votespace/ws"
)

type nopPublisher struct{}

func (nopPublisher) BroadcastToAll(ws.Event)          {}
func (nopPublisher) BroadcastToUser(string, ws.Event) {}
func (nopPublisher) PublishToPoll(string, ws.Event)   {}

// whoami, context'teki kullanıcının email'ini (yoksa "anonymous") yazar.
var whoami = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	if user, ok := r.Context().Value(handlers.UserContextKey).(*models.User); ok {
		pkg.JSON(w, http.StatusOK, user.Email)
		return
	}
	pkg.JSON(w, http.StatusOK, "anonymous")
})

func decode(t *testing.T, rec *httptest.ResponseRecorder) pkg.APIResponse {
	t.Helper()
	var resp pkg.APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func newAuth(t *testing.T) (*AuthMiddleware, string) {
	t.Helper()

	db := testutil.NewTestDB(t)
	userRepo := repository.NewSQLiteUserRepo(db.Conn)
	cooldowns := cache.New[string, time.Time](time.Minute, time.Minute)
	t.Cleanup(cooldowns.Close)

	authService := services.NewAuthService(
		userRepo,
		repository.NewSQLiteSessionRepo(db.Conn),
		repository.NewSQLiteEmailConfirmationRepo(db.Conn),
		nopPublisher{}, nil, cooldowns, "test-secret", 15, 7,
	)

	res, err := authService.SignUp(context.Background(), &models.SignUpRequest{Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)

	return NewAuthMiddleware(authService, userRepo), res.Tokens.AccessToken
}

func TestAuthRequire(t *testing.T) {
	mw, token := newAuth(t)
	h := mw.Require(whoami)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Token " + token, http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/polls", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestAuthOptional(t *testing.T) {
	mw, token := newAuth(t)
	h := mw.Optional(whoami)

	req := httptest.NewRequest(http.MethodGet, "/api/bootstrap", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "anonymous", decode(t, rec).Data)

	req = httptest.NewRequest(http.MethodGet, "/api/bootstrap", nil)
	req.Header.Set("Authorization", "Bearer broken")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", decode(t, rec).Data)

	req = httptest.NewRequest(http.MethodGet, "/api/bootstrap", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "ada@example.com", decode(t, rec).Data)
}

func TestSetupGate(t *testing.T) {
	require.NoError(t, i18n.LoadEmbedded())

	gate := SetupGate([]string{"JWT_SECRET", "PUBLIC_API_KEY"})(whoami)

	for _, path := range []string{"/api/health", "/api/bootstrap"} {
		rec := httptest.NewRecorder()
		gate.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/polls", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decode(t, rec)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "JWT_SECRET, PUBLIC_API_KEY")

	// Yapılandırılmış server'da gate şeffaf
	open := SetupGate(nil)(whoami)
	rec = httptest.NewRecorder()
	open.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/polls", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAPIKey(t *testing.T) {
	h := RequireAPIKey("anon-key")(whoami)

	serve := func(path, header string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if header != "" {
			req.Header.Set(APIKeyHeader, header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, serve("/api/health", ""))
	assert.Equal(t, http.StatusUnauthorized, serve("/api/polls", ""))
	assert.Equal(t, http.StatusUnauthorized, serve("/api/polls", "wrong"))
	assert.Equal(t, http.StatusOK, serve("/api/polls", "anon-key"))
	assert.Equal(t, http.StatusOK, serve("/ws?apikey=anon-key", ""))

	// Key tanımsızsa kontrol yok
	assert.Equal(t, http.StatusOK, func() int {
		rec := httptest.NewRecorder()
		RequireAPIKey("")(whoami).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/polls", nil))
		return rec.Code
	}())
}
