// Package models, uygulamanın domain modellerini tanımlar.
//
// Struct'lar hem tablo satırlarının Go karşılığı hem de API'den giden/gelen
// verinin şeklidir. Opsiyonel alanlar pointer'dır (*string, *time.Time):
// nil → JSON'da null.
package models

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

// MinPasswordLength, sign-up için minimum şifre uzunluğu.
const MinPasswordLength = 6

// User, oturum açmış kimliği temsil eder.
type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"` // API response'a DAHİL ETME
	EmailConfirmedAt *time.Time `json:"email_confirmed_at"`
	CreatedAt        time.Time  `json:"created_at"`
}

// IsConfirmed, email doğrulanmış mı?
func (u *User) IsConfirmed() bool {
	return u.EmailConfirmedAt != nil
}

// SignUpRequest, kayıt isteği. Hash'leme service katmanında yapılır.
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate, email formatını ve şifre uzunluğunu kontrol eder.
// Email trim + lower-case normalize edilir.
func (r *SignUpRequest) Validate() error {
	email, err := normalizeEmail(r.Email)
	if err != nil {
		return err
	}
	r.Email = email

	if utf8.RuneCountInString(r.Password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// SignInRequest, giriş isteği.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate, alanların dolu olduğunu kontrol eder.
func (r *SignInRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if r.Email == "" {
		return fmt.Errorf("email is required")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// normalizeEmail, adresi trim + lower-case yapar ve "ad <a@b>" gibi
// display-name'li formları reddeder.
func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", fmt.Errorf("email is required")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return "", fmt.Errorf("invalid email address")
	}
	return email, nil
}
