// Package testutil, testler için ortak fixture'lar sağlar.
//
// Her test kendi geçici dizininde taze bir SQLite dosyası açar;
// migration'lar gömülü FS'ten uygulanır. Seed helper'ları repository
// paketine bağımlı değildir (import cycle olmasın diye düz SQL yazar).
package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/akinalp/votespace/database"
)

// NewTestDB, geçici dizinde migrate edilmiş bir DB açar; test bitince kapatır.
func NewTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "votespace_test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// SeedUser, doğrulanmış bir kullanıcı ekler ve ID'sini döner.
func SeedUser(t *testing.T, db *sql.DB, email string) string {
	t.Helper()

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := db.Exec(
		`INSERT INTO users (id, email, password_hash, email_confirmed_at, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, email, "x", now, now,
	)
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return id
}

// SeedPoll, verilen seçeneklerle bir poll ekler. createdAt sıralama
// testlerinde kontrol edilebilsin diye parametredir.
func SeedPoll(t *testing.T, db *sql.DB, createdBy, title string, active bool, createdAt time.Time, expiresAt *time.Time, options ...string) (string, []string) {
	t.Helper()

	pollID := uuid.NewString()
	var exp any
	if expiresAt != nil {
		exp = expiresAt.UTC()
	}

	_, err := db.Exec(
		`INSERT INTO polls (id, title, description, created_by, created_at, expires_at, is_active) VALUES (?, ?, NULL, ?, ?, ?, ?)`,
		pollID, title, createdBy, createdAt.UTC(), exp, active,
	)
	if err != nil {
		t.Fatalf("failed to seed poll: %v", err)
	}

	optionIDs := make([]string, 0, len(options))
	for _, text := range options {
		id := uuid.NewString()
		if _, err := db.Exec(
			`INSERT INTO poll_options (id, poll_id, option_text, vote_count, created_at) VALUES (?, ?, ?, 0, ?)`,
			id, pollID, text, createdAt.UTC(),
		); err != nil {
			t.Fatalf("failed to seed option: %v", err)
		}
		optionIDs = append(optionIDs, id)
	}

	return pollID, optionIDs
}
