package repository

import (
	"context"

	"github.com/akinalp/votespace/models"
)

// SessionRepository, refresh token oturumları için interface.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByRefreshToken(ctx context.Context, token string) (*models.Session, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteByUserID(ctx context.Context, userID string) error
	// CountByUserID, kullanıcının süresi dolmamış oturum sayısı.
	CountByUserID(ctx context.Context, userID string) (int, error)
	DeleteExpired(ctx context.Context) error
}

// EmailConfirmationRepository, bekleyen email doğrulama token'ları.
type EmailConfirmationRepository interface {
	Create(ctx context.Context, c *models.EmailConfirmation) error
	// GetByTokenHash, bulunamazsa pkg.ErrNotFound.
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.EmailConfirmation, error)
	// DeleteByUserID, yeni token üretmeden veya doğrulama sonrası eskileri siler.
	DeleteByUserID(ctx context.Context, userID string) error
}
