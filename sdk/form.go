package sdk

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/akinalp/votespace/models"
)

// Yerel doğrulama hataları; sunucu da aynı mesajları kullanır.
var (
	ErrTooFewOptions = errors.New("Please provide at least 2 options")
	ErrTitleRequired = errors.New("Title is required")
)

// PollForm, poll oluşturma formu.
//
// Seçenek listesi ["", ""] ile başlar ve 2'nin altına inmez. Submit önce
// yerel doğrulama yapar (hata varsa istek atılmaz); başarılıysa formu
// sıfırlar ve OnCreated'i çağırır, başarısızsa alanlar korunur.
type PollForm struct {
	client *Client

	mu          sync.Mutex
	title       string
	description string
	options     []string
	expiresAt   *time.Time
	submitting  bool
	err         error
	onCreated   func(*models.PollWithOptions)
}

// NewPollForm, boş form oluşturur.
func NewPollForm(client *Client) *PollForm {
	return &PollForm{
		client:  client,
		options: make([]string, models.MinPollOptions),
	}
}

func (f *PollForm) SetTitle(title string) {
	f.mu.Lock()
	f.title = title
	f.mu.Unlock()
}

func (f *PollForm) Title() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.title
}

func (f *PollForm) SetDescription(desc string) {
	f.mu.Lock()
	f.description = desc
	f.mu.Unlock()
}

func (f *PollForm) Description() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.description
}

// SetExpiresAt, bitiş zamanı; nil → süresiz.
func (f *PollForm) SetExpiresAt(t *time.Time) {
	f.mu.Lock()
	f.expiresAt = t
	f.mu.Unlock()
}

func (f *PollForm) ExpiresAt() *time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.expiresAt
}

// Options, seçenek alanlarının kopyası (boşlar dahil).
func (f *PollForm) Options() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.options...)
}

// AddOption, sona boş bir seçenek alanı ekler.
func (f *PollForm) AddOption() {
	f.mu.Lock()
	f.options = append(f.options, "")
	f.mu.Unlock()
}

// RemoveOption, i. alanı siler. En az 2 alan kalır; silinemezse false.
func (f *PollForm) RemoveOption(i int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.options) <= models.MinPollOptions || i < 0 || i >= len(f.options) {
		return false
	}
	f.options = append(f.options[:i], f.options[i+1:]...)
	return true
}

// SetOption, i. alanın metnini değiştirir.
func (f *PollForm) SetOption(i int, text string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if i < 0 || i >= len(f.options) {
		return false
	}
	f.options[i] = text
	return true
}

// OnCreated, başarılı Submit sonrası çağrılır.
func (f *PollForm) OnCreated(fn func(*models.PollWithOptions)) {
	f.mu.Lock()
	f.onCreated = fn
	f.mu.Unlock()
}

// Submitting, istek sürüyor mu?
func (f *PollForm) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// Err, son Submit hatası (yerel veya sunucu).
func (f *PollForm) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Validate, sunucuya gitmeden yapılan kontroller.
func (f *PollForm) Validate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := f.buildRequest()
	return err
}

// buildRequest, form alanlarından istek üretir. mu tutulurken çağrılır.
func (f *PollForm) buildRequest() (*models.CreatePollRequest, error) {
	valid := make([]string, 0, len(f.options))
	for _, opt := range f.options {
		if opt = strings.TrimSpace(opt); opt != "" {
			valid = append(valid, opt)
		}
	}
	if len(valid) < models.MinPollOptions {
		return nil, ErrTooFewOptions
	}

	title := strings.TrimSpace(f.title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	req := &models.CreatePollRequest{
		Title:     title,
		Options:   valid,
		ExpiresAt: f.expiresAt,
	}
	if desc := strings.TrimSpace(f.description); desc != "" {
		req.Description = &desc
	}
	return req, nil
}

// Submit, poll'u oluşturur.
func (f *PollForm) Submit(ctx context.Context) (*models.PollWithOptions, error) {
	f.mu.Lock()
	req, err := f.buildRequest()
	f.err = err
	if err != nil {
		f.mu.Unlock()
		return nil, err
	}
	f.submitting = true
	f.mu.Unlock()

	poll, err := f.client.CreatePoll(ctx, req)

	f.mu.Lock()
	f.submitting = false
	if err != nil {
		f.err = err
		f.mu.Unlock()
		return nil, err
	}
	f.title = ""
	f.description = ""
	f.options = make([]string, models.MinPollOptions)
	f.expiresAt = nil
	onCreated := f.onCreated
	f.mu.Unlock()

	if onCreated != nil {
		onCreated(poll)
	}
	return poll, nil
}
