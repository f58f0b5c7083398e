package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Poll oluşturma limitleri.
const (
	MinPollOptions    = 2
	MaxPollOptions    = 20
	MaxPollTitleLen   = 200
	MaxOptionTextLen  = 200
	MaxDescriptionLen = 2000
)

// Poll, bir anket. Oluşturulduktan sonra düzenlenmez.
type Poll struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at"`
	IsActive    bool       `json:"is_active"`
}

// IsExpired, expires_at verilen andan önce mi?
// expires_at yoksa poll hiç expire olmaz.
func (p *Poll) IsExpired(now time.Time) bool {
	return p.ExpiresAt != nil && p.ExpiresAt.Before(now)
}

// MatchesSearch, başlık veya açıklamada case-insensitive substring araması.
// Boş terim her poll'a uyar.
func (p *Poll) MatchesSearch(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.Title), term) {
		return true
	}
	return p.Description != nil && strings.Contains(strings.ToLower(*p.Description), term)
}

// PollOption, bir poll'un seçeneği. vote_count sadece oy transaction'ı
// içinde, vote satırıyla birlikte artar.
type PollOption struct {
	ID         string    `json:"id"`
	PollID     string    `json:"poll_id"`
	OptionText string    `json:"option_text"`
	VoteCount  int       `json:"vote_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// Vote, bir kullanıcının bir poll'daki tek seçimi.
type Vote struct {
	ID        string    `json:"id"`
	PollID    string    `json:"poll_id"`
	OptionID  string    `json:"option_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PollWithOptions, oluşturma yanıtı.
type PollWithOptions struct {
	Poll
	Options []PollOption `json:"options"`
}

// CreatePollRequest, poll oluşturma isteği.
type CreatePollRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Options     []string   `json:"options"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// Validate, isteği normalize eder ve kontrol eder.
//   - Title: trim, boş olamaz, max 200 karakter
//   - Options: trim, boşlar atılır, 2-20 arası, her biri max 200 karakter
//   - Description: trim, boşsa nil
//   - ExpiresAt: verilmişse now'dan sonra olmalı
func (r *CreatePollRequest) Validate(now time.Time) error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return fmt.Errorf("Title is required")
	}
	if utf8.RuneCountInString(r.Title) > MaxPollTitleLen {
		return fmt.Errorf("title must be at most %d characters", MaxPollTitleLen)
	}

	valid := make([]string, 0, len(r.Options))
	for _, opt := range r.Options {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}
		if utf8.RuneCountInString(opt) > MaxOptionTextLen {
			return fmt.Errorf("option must be at most %d characters", MaxOptionTextLen)
		}
		valid = append(valid, opt)
	}
	if len(valid) < MinPollOptions {
		return fmt.Errorf("Please provide at least %d options", MinPollOptions)
	}
	if len(valid) > MaxPollOptions {
		return fmt.Errorf("a poll can have at most %d options", MaxPollOptions)
	}
	r.Options = valid

	if r.Description != nil {
		d := strings.TrimSpace(*r.Description)
		if d == "" {
			r.Description = nil
		} else {
			if utf8.RuneCountInString(d) > MaxDescriptionLen {
				return fmt.Errorf("description must be at most %d characters", MaxDescriptionLen)
			}
			r.Description = &d
		}
	}

	if r.ExpiresAt != nil {
		if !r.ExpiresAt.After(now) {
			return fmt.Errorf("expiry must be in the future")
		}
		utc := r.ExpiresAt.UTC()
		r.ExpiresAt = &utc
	}

	return nil
}

// PollFilter, catalog sunucu tarafı filtresi.
type PollFilter string

const (
	PollFilterAll     PollFilter = "all"
	PollFilterActive  PollFilter = "active"
	PollFilterExpired PollFilter = "expired"
)

// ParsePollFilter, query parametresini çözer. Boş → all.
func ParsePollFilter(s string) (PollFilter, error) {
	switch PollFilter(strings.ToLower(strings.TrimSpace(s))) {
	case "", PollFilterAll:
		return PollFilterAll, nil
	case PollFilterActive:
		return PollFilterActive, nil
	case PollFilterExpired:
		return PollFilterExpired, nil
	default:
		return "", fmt.Errorf("unknown filter %q (want all, active or expired)", s)
	}
}

// CastVoteRequest, oy isteği.
type CastVoteRequest struct {
	OptionID string `json:"option_id"`
}

// Validate, option_id dolu mu?
func (r *CastVoteRequest) Validate() error {
	r.OptionID = strings.TrimSpace(r.OptionID)
	if r.OptionID == "" {
		return fmt.Errorf("option_id is required")
	}
	return nil
}
