package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/akinalp/votespace/pkg/cache"
	"github.com/akinalp/votespace/repository"
	"github.com/akinalp/votespace/testutil"
	"github.com/akinalp/votespace/ws"
)

// published, fake publisher'ın kaydettiği tek yayın.
type published struct {
	Target string // "all", "user:<id>", "poll:<id>"
	Event  ws.Event
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *fakePublisher) record(target string, event ws.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{Target: target, Event: event})
}

func (p *fakePublisher) BroadcastToAll(event ws.Event) { p.record("all", event) }

func (p *fakePublisher) BroadcastToUser(userID string, event ws.Event) {
	p.record("user:"+userID, event)
}

func (p *fakePublisher) PublishToPoll(pollID string, event ws.Event) {
	p.record("poll:"+pollID, event)
}

func (p *fakePublisher) Events() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.events...)
}

type sentMail struct {
	To    string
	Token string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMail
}

func (f *fakeSender) SendConfirmation(_ context.Context, to, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{To: to, Token: token})
	return nil
}

func (f *fakeSender) Last(t *testing.T) sentMail {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

type fixture struct {
	db     *sql.DB
	pub    *fakePublisher
	auth   AuthService
	polls  PollService
	votes  VoteService
	sender *fakeSender
}

// newFixture, servisleri taze bir DB ile kurar. withEmail true ise
// kayıtlar doğrulama maili gerektirir.
func newFixture(t *testing.T, withEmail bool) *fixture {
	t.Helper()

	db := testutil.NewTestDB(t)
	pub := &fakePublisher{}

	cooldowns := cache.New[string, time.Time](time.Minute, time.Minute)
	t.Cleanup(cooldowns.Close)

	f := &fixture{db: db.Conn, pub: pub}

	pollRepo := repository.NewSQLitePollRepo(db.Conn)
	optionRepo := repository.NewSQLiteOptionRepo(db.Conn)
	voteRepo := repository.NewSQLiteVoteRepo(db.Conn)

	var auth AuthService
	if withEmail {
		f.sender = &fakeSender{}
		auth = NewAuthService(
			repository.NewSQLiteUserRepo(db.Conn),
			repository.NewSQLiteSessionRepo(db.Conn),
			repository.NewSQLiteEmailConfirmationRepo(db.Conn),
			pub, f.sender, cooldowns, "test-secret", 15, 7,
		)
	} else {
		auth = NewAuthService(
			repository.NewSQLiteUserRepo(db.Conn),
			repository.NewSQLiteSessionRepo(db.Conn),
			repository.NewSQLiteEmailConfirmationRepo(db.Conn),
			pub, nil, cooldowns, "test-secret", 15, 7,
		)
	}
	// Testlerde bcrypt maliyeti düşük tutulur
	auth.(*authService).bcryptCost = bcrypt.MinCost

	f.auth = auth
	f.polls = NewPollService(db.Conn, pollRepo, optionRepo, pub)
	f.votes = NewVoteService(db.Conn, pollRepo, optionRepo, voteRepo, pub)
	return f
}
