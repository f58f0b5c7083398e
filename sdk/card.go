package sdk

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/akinalp/votespace/models"
)

const refetchTimeout = 10 * time.Second

// ErrNotEligible, Eligible olmayan kartta oy denemesi.
var ErrNotEligible = errors.New("voting is not available for this poll")

// PollCard, tek bir poll'un oy kartı.
//
// Durumlar: loading → eligible | voted | ineligible(reason).
// Mount edilince Realtime stream üzerinden poll'a abone olur; gelen her
// değişiklik event'i seçenekleri baştan çeker.
type PollCard struct {
	client *Client
	rt     *Realtime
	pollID string

	mu          sync.RWMutex
	view        models.PollCardView
	err         error
	unsubscribe func()
	onChange    func()

	// mounting: Subscribe sürerken ikinci Mount no-op olur.
	// mountGen her Unmount'ta artar; araya Unmount girmişse yeni abonelik bırakılır.
	mounting bool
	mountGen uint64
}

// NewPollCard, kart oluşturur; state Load'a kadar loading'dir.
// rt nil olabilir, o durumda Mount hata döner.
func NewPollCard(client *Client, rt *Realtime, pollID string) *PollCard {
	return &PollCard{
		client: client,
		rt:     rt,
		pollID: pollID,
		view:   models.PollCardView{State: models.CardStateLoading},
	}
}

// PollID, kartın poll'u.
func (c *PollCard) PollID() string { return c.pollID }

// Load, kartın tam görünümünü (poll, seçenekler, kullanıcının oyu, state) çeker.
// İstek sürerken state loading'dir; hata olursa önceki state geri gelir
// (ilk yüklemede bu yine loading).
func (c *PollCard) Load(ctx context.Context) error {
	c.mu.Lock()
	prev := c.view.State
	c.view.State = models.CardStateLoading
	c.mu.Unlock()

	view, err := c.client.PollCard(ctx, c.pollID)

	c.mu.Lock()
	if err != nil {
		c.err = err
		if c.view.State == models.CardStateLoading {
			c.view.State = prev
		}
		c.mu.Unlock()
		return err
	}
	c.err = nil
	c.view = *view
	c.mu.Unlock()

	c.changed()
	return nil
}

// Vote, seçeneğe oy verir. Sadece Eligible durumunda çağrılabilir.
// Başarılıysa state Voted olur ve tally güncellenir; hata olursa state
// değişmez, hata sunucu mesajıyla döner ve Err'de kalır.
func (c *PollCard) Vote(ctx context.Context, optionID string) error {
	c.mu.RLock()
	state, reason := c.view.State, c.view.Reason
	c.mu.RUnlock()

	if state != models.CardStateEligible {
		if msg := reason.Message(); msg != "" {
			return fmt.Errorf("%w: %s", ErrNotEligible, msg)
		}
		return ErrNotEligible
	}

	tally, err := c.client.CastVote(ctx, c.pollID, optionID)

	c.mu.Lock()
	if err != nil {
		c.err = err
		c.mu.Unlock()
		return err
	}
	c.err = nil
	c.view.State = models.CardStateVoted
	c.view.Reason = ""
	voted := optionID
	c.view.UserVoteOptionID = &voted
	c.view.Options = tally.Options
	c.view.TotalVotes = tally.TotalVotes
	c.mu.Unlock()

	c.changed()
	return nil
}

// Mount, canlı aboneliği açar. Zaten mount edilmişse no-op.
func (c *PollCard) Mount(ctx context.Context) error {
	if c.rt == nil {
		return ErrNotConnected
	}

	c.mu.Lock()
	if c.unsubscribe != nil || c.mounting {
		c.mu.Unlock()
		return nil
	}
	c.mounting = true
	gen := c.mountGen
	c.mu.Unlock()

	unsubscribe, err := c.rt.Subscribe(ctx, c.pollID, func(models.PollTally) {
		c.refetchOptions()
	})

	c.mu.Lock()
	c.mounting = false
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if gen != c.mountGen {
		// Subscribe sürerken Unmount çağrıldı
		c.mu.Unlock()
		unsubscribe()
		return nil
	}
	c.unsubscribe = unsubscribe
	c.mu.Unlock()
	return nil
}

// Unmount, aboneliği bırakır. Bu andan sonraki event'ler kaybolur.
func (c *PollCard) Unmount() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mountGen++
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Mounted, canlı abonelik açık mı?
func (c *PollCard) Mounted() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.unsubscribe != nil
}

// OnChange, kart verisi her değiştiğinde çağrılır (Load, Vote, canlı güncelleme).
func (c *PollCard) OnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// refetchOptions, event payload'ına güvenmeden seçenekleri tekrar çeker.
func (c *PollCard) refetchOptions() {
	ctx, cancel := context.WithTimeout(context.Background(), refetchTimeout)
	defer cancel()

	tally, err := c.client.PollOptions(ctx, c.pollID)
	if err != nil {
		log.Printf("[sdk] refetch options for poll %s failed: %v", c.pollID, err)
		return
	}

	c.mu.Lock()
	c.view.Options = tally.Options
	c.view.TotalVotes = tally.TotalVotes
	c.mu.Unlock()

	c.changed()
}

func (c *PollCard) changed() {
	c.mu.RLock()
	fn := c.onChange
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// ─── Getters ───

func (c *PollCard) State() models.CardState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view.State
}

func (c *PollCard) Reason() models.IneligibleReason {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view.Reason
}

func (c *PollCard) Poll() models.Poll {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view.Poll
}

func (c *PollCard) Options() []models.OptionTally {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.OptionTally(nil), c.view.Options...)
}

func (c *PollCard) TotalVotes() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view.TotalVotes
}

// UserVote, kullanıcının seçtiği option id; oy yoksa "".
func (c *PollCard) UserVote() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.view.UserVoteOptionID == nil {
		return ""
	}
	return *c.view.UserVoteOptionID
}

func (c *PollCard) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}
