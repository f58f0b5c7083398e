package sdk

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/akinalp/votespace/models"
	"github.com/akinalp/votespace/pkg"
	"github.com/akinalp/votespace/ws"
)

const testAPIKey = "test-key"

// tokenAsUser, access token'ı doğrudan user id kabul eder ("bad" hariç).
type tokenAsUser struct{}

func (tokenAsUser) ValidateAccessToken(token string) (*models.TokenClaims, error) {
	if token == "" || token == "bad" {
		return nil, errors.New("invalid token")
	}
	return &models.TokenClaims{UserID: token}, nil
}

// fakeAPI, sabit yanıtlar dönen sunucu + gerçek ws hub.
type fakeAPI struct {
	*httptest.Server
	mux      *http.ServeMux
	hub      *ws.Hub
	requests atomic.Int32
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	f := &fakeAPI{mux: http.NewServeMux(), hub: ws.NewHub()}
	go f.hub.Run()
	f.mux.HandleFunc("GET /ws", ws.NewHandler(f.hub, tokenAsUser{}).HandleConnection)

	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws" {
			f.requests.Add(1)
		}
		if r.Header.Get(APIKeyHeader) != testAPIKey && r.URL.Query().Get(APIKeyHeader) != testAPIKey {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "API key required")
			return
		}
		f.mux.ServeHTTP(w, r)
	}))

	t.Cleanup(func() {
		f.hub.Shutdown()
		f.Close()
	})
	return f
}

func (f *fakeAPI) client() *Client {
	return New(f.URL, testAPIKey)
}

// handle, sabit bir başarılı yanıt kaydeder.
func (f *fakeAPI) handle(pattern string, status int, data any) {
	f.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		pkg.JSON(w, status, data)
	})
}

// fail, sabit bir hata yanıtı kaydeder.
func (f *fakeAPI) fail(pattern string, status int, message string) {
	f.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		pkg.ErrorWithMessage(w, status, message)
	})
}

// tokensFor, access token'ı user id olan sahte token seti.
func tokensFor(userID, email string) models.AuthTokens {
	return models.AuthTokens{
		AccessToken:  userID,
		RefreshToken: "refresh-" + userID,
		ExpiresIn:    900,
		User:         &models.User{ID: userID, Email: email, CreatedAt: time.Now().UTC()},
	}
}

func strPtr(s string) *string { return &s }
