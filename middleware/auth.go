// Package middleware, HTTP request pipeline'ına eklenen ara katmanları barındırır.
//
// Middleware bir fonksiyondur: func(next http.Handler) http.Handler.
// Kendi kontrolünü yapar, geçerse next'i çağırır; geçmezse zincir burada durur.
//
// Zincir (dıştan içe): CORS → SetupGate → APIKey → mux → Auth → Handler
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/akinalp/votespace/handlers"
	"github.com/akinalp/votespace/models"
	"github.com/akinalp/votespace/pkg"
	"github.com/akinalp/votespace/repository"
	"github.com/akinalp/votespace/services"
)

// AuthMiddleware, JWT token doğrulama middleware'ı.
type AuthMiddleware struct {
	authService services.AuthService
	userRepo    repository.UserRepository
}

// NewAuthMiddleware, constructor.
func NewAuthMiddleware(authService services.AuthService, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		userRepo:    userRepo,
	}
}

// Require, geçerli bir Bearer token zorunlu kılar.
// Token yoksa, geçersizse veya kullanıcı silinmişse → 401.
//
//	Authorization: Bearer <token>
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "authorization header required")
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "invalid authorization format, use: Bearer <token>")
			return
		}

		user, err := m.resolveUser(r.Context(), tokenString)
		if err != nil {
			pkg.Error(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), handlers.UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Optional, token varsa ve geçerliyse kullanıcıyı context'e koyar;
// yoksa veya geçersizse isteği anonim olarak devam ettirir.
// Bootstrap ve poll kartı gibi oturumsuz da görülebilen endpoint'ler için.
func (m *AuthMiddleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || tokenString == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.resolveUser(r.Context(), tokenString)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), handlers.UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// resolveUser, token'ı doğrular ve kullanıcıyı DB'den getirir.
// Token geçerli ama kullanıcı silinmiş olabilir.
func (m *AuthMiddleware) resolveUser(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := m.authService.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := m.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, pkg.ErrUnauthorized
	}

	// Password hash context'te taşınmaz
	user.PasswordHash = ""
	return user, nil
}
