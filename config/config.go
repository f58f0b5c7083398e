// Package config, uygulamanın tüm konfigürasyonunu merkezi olarak yönetir.
// Environment variable'lardan okur, .env dosyasını da destekler.
//
// İki ayar "gating" ayarıdır: JWT_SECRET ve PUBLIC_API_KEY.
// Biri eksikse server kapanmaz: "setup mode"da açılır ve /api/health ile
// /api/bootstrap dışındaki tüm endpoint'ler "setup required" döner.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config, uygulamanın tüm konfigürasyon değerlerini taşır.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	API      APIConfig
	Email    EmailConfig
	CORS     CORSConfig
}

// ServerConfig, HTTP server ayarları.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig, SQLite database ayarları.
type DatabaseConfig struct {
	Path string // SQLite dosya yolu (ör: ./data/votespace.db)
}

// JWTConfig, JWT token ayarları.
type JWTConfig struct {
	Secret             string // Token imzalama anahtarı: GİZLİ TUTULMALI
	AccessTokenExpiry  int    // Dakika cinsinden (varsayılan: 15)
	RefreshTokenExpiry int    // Gün cinsinden (varsayılan: 7)
}

// APIConfig, public API key ayarı.
// Client'lar bu anahtarı her istekte "apikey" header'ında gönderir.
type APIConfig struct {
	PublicKey string
}

// EmailConfig, Resend ile email doğrulama ayarları.
// Üçü de doluysa kayıt olan kullanıcıya doğrulama maili gider;
// biri eksikse hesaplar otomatik doğrulanmış sayılır.
type EmailConfig struct {
	ResendAPIKey string
	FromEmail    string
	AppURL       string
}

// CORSConfig, izin verilen origin listesi.
type CORSConfig struct {
	AllowedOrigins []string
}

// Load, environment variable'lardan Config oluşturur.
// .env dosyası varsa önce onu yükler (development kolaylığı için).
//
// Gating ayarlarının eksikliği hata DEĞİLDİR: SetupRequired() ile kontrol edilir.
// Sadece parse edilemeyen sayısal değerler hata döner.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "9090"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	accessExpiry, err := strconv.Atoi(getEnv("JWT_ACCESS_EXPIRY_MINUTES", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_EXPIRY_MINUTES: %w", err)
	}

	refreshExpiry, err := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRY_DAYS", "7"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_REFRESH_EXPIRY_DAYS: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/votespace.db"),
		},
		JWT: JWTConfig{
			Secret:             strings.TrimSpace(getEnv("JWT_SECRET", "")),
			AccessTokenExpiry:  accessExpiry,
			RefreshTokenExpiry: refreshExpiry,
		},
		API: APIConfig{
			PublicKey: strings.TrimSpace(getEnv("PUBLIC_API_KEY", "")),
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			FromEmail:    getEnv("RESEND_FROM", ""),
			AppURL:       getEnv("APP_URL", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		},
	}

	return cfg, nil
}

// MissingSettings, eksik gating ayarlarının env adlarını döner.
func (c *Config) MissingSettings() []string {
	var missing []string
	if c.JWT.Secret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.API.PublicKey == "" {
		missing = append(missing, "PUBLIC_API_KEY")
	}
	return missing
}

// SetupRequired, gating ayarlarından en az biri eksikse true döner.
func (c *Config) SetupRequired() bool {
	return len(c.MissingSettings()) > 0
}

// EmailEnabled, doğrulama maili gönderimi için tüm ayarlar var mı?
func (c *EmailConfig) EmailEnabled() bool {
	return c.ResendAPIKey != "" && c.FromEmail != "" && c.AppURL != ""
}

// Addr, HTTP server'ın dinleyeceği adresi döner (ör: "0.0.0.0:9090").
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv, environment variable'ı okur, yoksa fallback değeri döner.
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
