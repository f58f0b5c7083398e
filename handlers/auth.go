// Package handlers, HTTP request/response işlemlerini yönetir.
//
// Handler'lar incedir: body'yi parse eder, service'i çağırır, sonucu
// pkg.JSON / pkg.Error ile yazar. İş kuralı ve SQL burada yaşamaz.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/akinalp/votespace/models"
	"github.com/akinalp/votespace/pkg"
	"github.com/akinalp/votespace/pkg/i18n"
	"github.com/akinalp/votespace/pkg/ratelimit"
	"github.com/akinalp/votespace/services"
)

// contextKey, context.Value çakışmalarını önlemek için özel tip.
type contextKey string

// UserContextKey, auth middleware'ın context'e koyduğu *models.User.
const UserContextKey contextKey = "user"

// userFromContext, auth middleware'ın eklediği kullanıcıyı döner.
func userFromContext(r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	return user, ok
}

// AuthHandler, /api/auth endpoint'leri.
type AuthHandler struct {
	authService  services.AuthService
	loginLimiter *ratelimit.LoginRateLimiter
}

// NewAuthHandler, constructor.
// loginLimiter nil ise rate limiting devre dışı kalır.
func NewAuthHandler(authService services.AuthService, loginLimiter *ratelimit.LoginRateLimiter) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		loginLimiter: loginLimiter,
	}
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// SignUp godoc
// POST /api/auth/signup
// Email doğrulaması açıksa yanıtta token yoktur (confirmation_required).
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req models.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.authService.SignUp(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, result)
}

// SignIn godoc
// POST /api/auth/signin
//
// IP bazlı brute-force koruması: limit aşılınca 429 + Retry-After.
// Başarılı giriş sayacı sıfırlar.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	ip := ratelimit.ExtractIP(r)
	if h.loginLimiter != nil && !h.loginLimiter.Allow(ip) {
		retryAfter := h.loginLimiter.RetryAfterSeconds(ip)
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

		localizer := i18n.NewLocalizer(i18n.DetectLanguage(r.Header.Get("Accept-Language")))
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests,
			localizer.TWithParams("auth.tooManyAttempts", map[string]string{
				"retry": ratelimit.FormatRetryMessage(retryAfter),
			}))
		return
	}

	var req models.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tokens, err := h.authService.SignIn(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	if h.loginLimiter != nil {
		h.loginLimiter.Reset(ip)
	}

	pkg.JSON(w, http.StatusOK, tokens)
}

// Refresh godoc
// POST /api/auth/refresh
// Body: { "refresh_token": "..." }
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.RefreshToken == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	tokens, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, tokens)
}

// SignOut godoc
// POST /api/auth/signout
// Body: { "refresh_token": "..." }
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	var req refreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.authService.SignOut(r.Context(), req.RefreshToken); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "signed out"})
}

// Session godoc
// GET /api/auth/session
// Auth middleware gerektirir.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	current, err := h.authService.Me(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, current)
}

// ConfirmEmail godoc
// POST /api/auth/confirm
// Body: { "token": "..." }, başarılıysa kullanıcı oturum açmış döner.
func (h *AuthHandler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tokens, err := h.authService.ConfirmEmail(r.Context(), req.Token)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, tokens)
}

// ResendConfirmation godoc
// POST /api/auth/resend-confirmation
// Body: { "email": "..." }. Hesap var mı yok mu belli edilmez.
func (h *AuthHandler) ResendConfirmation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.authService.ResendConfirmation(r.Context(), req.Email); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{
		"message": "if the account exists and is unconfirmed, a new confirmation email has been sent",
	})
}
