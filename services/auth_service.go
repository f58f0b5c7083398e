// Package services, business logic katmanını barındırır.
//
// Handler (HTTP) ile Repository (DB) arasında oturur. Service'ler
// http.Request bilmez, SQL yazmaz; sadece domain modelleri alır/verir.
// Gerçek zamanlı event'ler ws.EventPublisher üzerinden yayınlanır.
package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/akinalp/votespace/models"
	"github.com/akinalp/votespace/pkg"
	"github.com/akinalp/votespace/pkg/cache"
	"github.com/akinalp/votespace/pkg/email"
	"github.com/akinalp/votespace/repository"
	"github.com/akinalp/votespace/ws"
)

const (
	// bcryptCost, şifre hash maliyeti.
	bcryptCost = 12

	// confirmationTTL, doğrulama linkinin geçerlilik süresi.
	confirmationTTL = 24 * time.Hour

	tokenIssuer = "votespace"
)

// Kimlik sağlayıcı mesajları. Client bu metinleri substring ile eşler
// (sdk.FriendlyAuthMessage), değiştirilmemeli.
const (
	msgInvalidCredentials = "Invalid login credentials"
	msgEmailNotConfirmed  = "Email not confirmed"
)

// AuthService, email/password kimlik doğrulaması.
type AuthService interface {
	SignUp(ctx context.Context, req *models.SignUpRequest) (*models.SignUpResult, error)
	SignIn(ctx context.Context, req *models.SignInRequest) (*models.AuthTokens, error)
	Refresh(ctx context.Context, refreshToken string) (*models.AuthTokens, error)
	SignOut(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, userID string) (*models.User, error)
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
	// ConfirmEmail, maildeki token'ı doğrular ve kullanıcıyı oturum açmış döner.
	ConfirmEmail(ctx context.Context, token string) (*models.AuthTokens, error)
	// ResendConfirmation, email başına cooldown ile yeni doğrulama maili yollar.
	// Kayıtlı olmayan veya zaten doğrulanmış adresler için sessizce nil döner.
	ResendConfirmation(ctx context.Context, emailAddr string) error
}

type authService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	confirmRepo repository.EmailConfirmationRepository
	hub         ws.EventPublisher
	emailSender email.EmailSender // nil → hesaplar otomatik doğrulanır
	cooldowns   *cache.TTLCache[string, time.Time]
	jwtSecret   []byte
	accessExp   time.Duration
	refreshExp  time.Duration
	bcryptCost  int
}

// NewAuthService, constructor.
//
// emailSender nil olabilir. cooldowns, doğrulama maili tekrar gönderimini
// email başına sınırlar; TTL'i cooldown süresidir.
func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	confirmRepo repository.EmailConfirmationRepository,
	hub ws.EventPublisher,
	emailSender email.EmailSender,
	cooldowns *cache.TTLCache[string, time.Time],
	jwtSecret string,
	accessExpMinutes int,
	refreshExpDays int,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		confirmRepo: confirmRepo,
		hub:         hub,
		emailSender: emailSender,
		cooldowns:   cooldowns,
		jwtSecret:   []byte(jwtSecret),
		accessExp:   time.Duration(accessExpMinutes) * time.Minute,
		refreshExp:  time.Duration(refreshExpDays) * 24 * time.Hour,
		bcryptCost:  bcryptCost,
	}
}

// SignUp, yeni kullanıcı oluşturur.
//
// Email sender yoksa hesap hemen doğrulanır ve token çifti döner.
// Varsa hesap doğrulanmamış oluşturulur, doğrulama maili gönderilir
// ve yanıtta token yoktur (ConfirmationRequired).
func (s *authService) SignUp(ctx context.Context, req *models.SignUpRequest) (*models.SignUpResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
	}

	if s.emailSender == nil {
		now := time.Now().UTC()
		user.EmailConfirmedAt = &now
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err // "User already registered" olabilir
	}

	if s.emailSender == nil {
		tokens, err := s.generateTokens(ctx, user)
		if err != nil {
			return nil, err
		}
		return &models.SignUpResult{User: user, Tokens: tokens}, nil
	}

	if err := s.sendConfirmation(ctx, user); err != nil {
		return nil, err
	}
	s.cooldowns.Set(user.Email, time.Now())

	return &models.SignUpResult{User: user, ConfirmationRequired: true}, nil
}

// SignIn, email + şifre ile giriş.
// Bilinmeyen email ve yanlış şifre aynı mesajı alır (hesap keşfi olmasın).
func (s *authService) SignIn(ctx context.Context, req *models.SignInRequest) (*models.AuthTokens, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", pkg.ErrUnauthorized, msgInvalidCredentials)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrUnauthorized, msgInvalidCredentials)
	}

	if !user.IsConfirmed() {
		return nil, fmt.Errorf("%w: %s", pkg.ErrForbidden, msgEmailNotConfirmed)
	}

	return s.generateTokens(ctx, user)
}

// Refresh, refresh token'ı rotate eder: eski session silinir, yenisi açılır.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*models.AuthTokens, error) {
	session, err := s.sessionRepo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid refresh token", pkg.ErrUnauthorized)
		}
		return nil, err
	}

	if err := s.sessionRepo.DeleteByID(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("failed to delete old session: %w", err)
	}

	if time.Now().After(session.ExpiresAt) {
		return nil, fmt.Errorf("%w: refresh token expired", pkg.ErrUnauthorized)
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid refresh token", pkg.ErrUnauthorized)
		}
		return nil, err
	}

	return s.generateTokens(ctx, user)
}

// SignOut, session'ı siler. Kullanıcının başka oturumu kalmadıysa
// açık WS bağlantılarına session_update (user=null) gönderilir.
// Bilinmeyen token hata değildir.
func (s *authService) SignOut(ctx context.Context, refreshToken string) error {
	session, err := s.sessionRepo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil
		}
		return err
	}

	if err := s.sessionRepo.DeleteByID(ctx, session.ID); err != nil {
		return err
	}

	remaining, err := s.sessionRepo.CountByUserID(ctx, session.UserID)
	if err != nil {
		return err
	}
	if remaining == 0 {
		s.hub.BroadcastToUser(session.UserID, ws.Event{
			Op:   ws.OpSessionUpdate,
			Data: ws.SessionUpdateData{User: nil},
		})
	}

	return nil
}

// Me, access token sahibinin güncel kaydı.
func (s *authService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", pkg.ErrUnauthorized)
		}
		return nil, err
	}
	return user, nil
}

// ValidateAccessToken, JWT access token'ı doğrular ve claims'i döner.
func (s *authService) ValidateAccessToken(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuer(tokenIssuer))

	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", pkg.ErrUnauthorized)
	}

	return claims, nil
}

// ConfirmEmail, doğrulama token'ını tüketir.
func (s *authService) ConfirmEmail(ctx context.Context, token string) (*models.AuthTokens, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: token is required", pkg.ErrBadRequest)
	}

	confirmation, err := s.confirmRepo.GetByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid or already used confirmation link", pkg.ErrBadRequest)
		}
		return nil, err
	}

	if time.Now().After(confirmation.ExpiresAt) {
		return nil, fmt.Errorf("%w: confirmation link expired", pkg.ErrBadRequest)
	}

	if err := s.userRepo.MarkEmailConfirmed(ctx, confirmation.UserID, time.Now()); err != nil {
		return nil, err
	}
	if err := s.confirmRepo.DeleteByUserID(ctx, confirmation.UserID); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, confirmation.UserID)
	if err != nil {
		return nil, err
	}

	log.Printf("[auth] email confirmed: user=%s", user.ID)
	return s.generateTokens(ctx, user)
}

func (s *authService) ResendConfirmation(ctx context.Context, emailAddr string) error {
	if s.emailSender == nil {
		return fmt.Errorf("%w: email confirmation is disabled", pkg.ErrBadRequest)
	}

	req := models.SignInRequest{Email: emailAddr, Password: "-"}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	if !s.cooldowns.SetIfAbsent(req.Email, time.Now()) {
		wait := int(math.Ceil(s.cooldowns.Remaining(req.Email).Seconds()))
		return fmt.Errorf("%w: please wait %d seconds before requesting another email", pkg.ErrTooManyRequests, wait)
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil
		}
		return err
	}
	if user.IsConfirmed() {
		return nil
	}

	return s.sendConfirmation(ctx, user)
}

// sendConfirmation, eski token'ları siler, yenisini kaydeder ve maili gönderir.
func (s *authService) sendConfirmation(ctx context.Context, user *models.User) error {
	token, err := generateRandomToken()
	if err != nil {
		return err
	}

	if err := s.confirmRepo.DeleteByUserID(ctx, user.ID); err != nil {
		return err
	}

	if err := s.confirmRepo.Create(ctx, &models.EmailConfirmation{
		TokenHash: hashToken(token),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(confirmationTTL),
	}); err != nil {
		return err
	}

	if err := s.emailSender.SendConfirmation(ctx, user.Email, token); err != nil {
		log.Printf("[auth] failed to send confirmation email to user %s: %v", user.ID, err)
		return fmt.Errorf("%w: failed to send confirmation email", pkg.ErrInternal)
	}

	return nil
}

// generateTokens, access + refresh token çifti oluşturur ve session kaydeder.
func (s *authService) generateTokens(ctx context.Context, user *models.User) (*models.AuthTokens, error) {
	now := time.Now()

	claims := models.TokenClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessExp)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshToken, err := generateRandomToken()
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		UserID:       user.ID,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(s.refreshExp),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	return &models.AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.accessExp.Seconds()),
		User:         user,
	}, nil
}

// generateRandomToken, 32 byte kriptografik rastgele hex string.
func generateRandomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// hashToken, doğrulama token'ının DB'de saklanan SHA256 hex hash'i.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
