// Package repository, veritabanı erişim katmanını tanımlar.
//
// Service katmanı SQL yazmaz; bu paketteki interface'ler üzerinden çalışır.
// SQLite implementasyonları database.TxQuerier alır: normal akışta *sql.DB,
// transaction içinde *sql.Tx geçilir (bkz. database.WithTx).
package repository

import (
	"context"
	"time"

	"github.com/akinalp/votespace/models"
)

// UserRepository, kullanıcı veritabanı işlemleri için interface.
type UserRepository interface {
	// Create, ID ve CreatedAt'i doldurur. Email çakışması → pkg.ErrAlreadyExists.
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// MarkEmailConfirmed, email_confirmed_at'i set eder (zaten doluysa dokunmaz).
	MarkEmailConfirmed(ctx context.Context, userID string, at time.Time) error
}
