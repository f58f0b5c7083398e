// Package sdk, VoteSpace sunucusu için Go client'ı ve ekran view-model'leri.
//
// Client HTTP JSON API'yi ({success, data, error} zarfı) ve /ws akışını konuşur.
// Session, Catalog, PollCard, PollForm ve Shell bu client üzerine kurulu
// durum tutan view-model'lerdir; UI katmanı sadece okur ve metot çağırır.
//
//	client := sdk.New("http://localhost:9090", os.Getenv("PUBLIC_API_KEY"))
//	session := sdk.NewSession(client, storedRefreshToken)
//	defer session.Close()
//	_ = session.Init(ctx)
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/akinalp/votespace/models"
)

// APIKeyHeader, sunucunun public API key beklediği header.
const APIKeyHeader = "apikey"

const defaultTimeout = 15 * time.Second

var (
	// ErrNotConfigured, base URL veya API key verilmemiş client'ın tüm çağrıları.
	ErrNotConfigured = errors.New("votespace client is not configured")

	// ErrTransport, sunucuya ulaşılamadı (DNS, bağlantı reddi, timeout...).
	ErrTransport = errors.New("unable to reach votespace server")
)

// APIError, sunucunun döndüğü hata zarfı. Message sunucu mesajının aynısıdır.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsStatus, err verilen HTTP status'lu bir APIError mı?
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// envelope, sunucu yanıt zarfı. Data ayrıca decode edilir.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// Client, VoteSpace HTTP client'ı. Eşzamanlı kullanım güvenlidir.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	lang       string

	mu          sync.RWMutex
	accessToken string
}

// Option, Client için opsiyonel ayar.
type Option func(*Client)

// WithHTTPClient, varsayılan http.Client yerine verilenini kullanır.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLanguage, Accept-Language header'ı (ör: "tr").
func WithLanguage(lang string) Option {
	return func(c *Client) { c.lang = lang }
}

// New, client oluşturur. baseURL veya apiKey boşsa client "unconfigured"
// olur: Configured false döner ve her çağrı ErrNotConfigured ile biter.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     strings.TrimSpace(apiKey),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured, base URL ve API key verilmiş mi?
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.apiKey != ""
}

// AccessToken, o anki bearer token (yoksa "").
func (c *Client) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

func (c *Client) setAccessToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

// do, isteği gönderir ve zarfı çözer. out nil ise data yoksayılır.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(APIKeyHeader, c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.lang != "" {
		req.Header.Set("Accept-Language", c.lang)
	}
	if token := c.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 400 {
			return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("decoding response: %w", err)
	}

	if resp.StatusCode >= 400 || !env.Success {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decoding response data: %w", err)
	}
	return nil
}

// ─── Auth ───

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (c *Client) signUp(ctx context.Context, email, password string) (*models.SignUpResult, error) {
	var result models.SignUpResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", nil, credentials{email, password}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) signIn(ctx context.Context, email, password string) (*models.AuthTokens, error) {
	var tokens models.AuthTokens
	if err := c.do(ctx, http.MethodPost, "/api/auth/signin", nil, credentials{email, password}, &tokens); err != nil {
		return nil, err
	}
	return &tokens, nil
}

func (c *Client) refresh(ctx context.Context, refreshToken string) (*models.AuthTokens, error) {
	var tokens models.AuthTokens
	if err := c.do(ctx, http.MethodPost, "/api/auth/refresh", nil, refreshRequest{refreshToken}, &tokens); err != nil {
		return nil, err
	}
	return &tokens, nil
}

func (c *Client) signOut(ctx context.Context, refreshToken string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/signout", nil, refreshRequest{refreshToken}, nil)
}

// ConfirmEmail, maildeki token'ı doğrular ve oturum token'larını döner.
func (c *Client) ConfirmEmail(ctx context.Context, token string) (*models.AuthTokens, error) {
	var tokens models.AuthTokens
	body := map[string]string{"token": token}
	if err := c.do(ctx, http.MethodPost, "/api/auth/confirm", nil, body, &tokens); err != nil {
		return nil, err
	}
	return &tokens, nil
}

// ResendConfirmation, doğrulama mailini tekrar ister.
func (c *Client) ResendConfirmation(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/resend-confirmation", nil, map[string]string{"email": email}, nil)
}

// CurrentUser, bearer token'ın sahibi.
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/api/auth/session", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ─── Polls ───

// Bootstrap, sunucunun yapılandırma durumu ve (token varsa) kullanıcı.
func (c *Client) Bootstrap(ctx context.Context) (*models.Bootstrap, error) {
	var b models.Bootstrap
	if err := c.do(ctx, http.MethodGet, "/api/bootstrap", nil, nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// ListPolls, filtreye uyan poll'lar (yeniden eskiye).
func (c *Client) ListPolls(ctx context.Context, filter models.PollFilter) ([]models.Poll, error) {
	query := url.Values{}
	if filter != "" {
		query.Set("filter", string(filter))
	}

	var polls []models.Poll
	if err := c.do(ctx, http.MethodGet, "/api/polls", query, nil, &polls); err != nil {
		return nil, err
	}
	return polls, nil
}

// CreatePoll, poll + seçeneklerini tek istekte oluşturur.
func (c *Client) CreatePoll(ctx context.Context, req *models.CreatePollRequest) (*models.PollWithOptions, error) {
	var poll models.PollWithOptions
	if err := c.do(ctx, http.MethodPost, "/api/polls", nil, req, &poll); err != nil {
		return nil, err
	}
	return &poll, nil
}

// PollCard, kartın tam görünümü (state dahil).
func (c *Client) PollCard(ctx context.Context, pollID string) (*models.PollCardView, error) {
	var view models.PollCardView
	if err := c.do(ctx, http.MethodGet, "/api/polls/"+url.PathEscape(pollID), nil, nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// PollOptions, seçenekler + toplam oy.
func (c *Client) PollOptions(ctx context.Context, pollID string) (*models.PollTally, error) {
	var tally models.PollTally
	if err := c.do(ctx, http.MethodGet, "/api/polls/"+url.PathEscape(pollID)+"/options", nil, nil, &tally); err != nil {
		return nil, err
	}
	return &tally, nil
}

// MyVote, kullanıcının bu poll'daki oyu. Oy yoksa (nil, nil).
func (c *Client) MyVote(ctx context.Context, pollID string) (*models.Vote, error) {
	var vote models.Vote
	err := c.do(ctx, http.MethodGet, "/api/polls/"+url.PathEscape(pollID)+"/votes/me", nil, nil, &vote)
	if IsStatus(err, http.StatusNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

// CastVote, oy verir; yanıt oy sonrası tally'dir.
func (c *Client) CastVote(ctx context.Context, pollID, optionID string) (*models.PollTally, error) {
	var tally models.PollTally
	body := models.CastVoteRequest{OptionID: optionID}
	if err := c.do(ctx, http.MethodPost, "/api/polls/"+url.PathEscape(pollID)+"/votes", nil, body, &tally); err != nil {
		return nil, err
	}
	return &tally, nil
}

// ─── WebSocket ───

// wsURL, http(s) base URL'den ws(s)://.../ws?token=...&apikey=... üretir.
func (c *Client) wsURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"

	q := url.Values{}
	q.Set("token", c.AccessToken())
	q.Set(APIKeyHeader, c.apiKey)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
