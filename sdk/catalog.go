package sdk

import (
	"context"
	"sync"

	"github.com/akinalp/votespace/models"
)

// Catalog, poll listesi ekranı.
//
// Load sunucudan filtreye göre listeyi çeker ve tamamen değiştirir.
// Arama terimi sadece yerelde uygulanır; terim değişince tekrar istek atılmaz.
type Catalog struct {
	client *Client

	mu      sync.RWMutex
	polls   []models.Poll
	filter  models.PollFilter
	search  string
	loading bool
	err     error
}

// NewCatalog, boş bir catalog oluşturur.
func NewCatalog(client *Client) *Catalog {
	return &Catalog{client: client, filter: models.PollFilterAll}
}

// Load, listeyi verilen filtreyle yeniden çeker. Hata olursa eski liste
// kalır ve Err hatayı tutar.
func (c *Catalog) Load(ctx context.Context, filter models.PollFilter) error {
	if filter == "" {
		filter = models.PollFilterAll
	}

	c.mu.Lock()
	c.loading = true
	c.filter = filter
	c.mu.Unlock()

	polls, err := c.client.ListPolls(ctx, filter)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		c.err = err
		return err
	}
	c.err = nil
	c.polls = polls
	return nil
}

// SetSearch, yerel arama terimini değiştirir.
func (c *Catalog) SetSearch(term string) {
	c.mu.Lock()
	c.search = term
	c.mu.Unlock()
}

// Search, o anki arama terimi.
func (c *Catalog) Search() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.search
}

// Filter, son Load'da kullanılan filtre.
func (c *Catalog) Filter() models.PollFilter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filter
}

// Polls, sunucudan gelen liste (arama uygulanmamış).
func (c *Catalog) Polls() []models.Poll {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Poll(nil), c.polls...)
}

// Visible, arama terimine uyan poll'lar; sunucu sırası korunur.
func (c *Catalog) Visible() []models.Poll {
	c.mu.RLock()
	defer c.mu.RUnlock()

	visible := make([]models.Poll, 0, len(c.polls))
	for i := range c.polls {
		if c.polls[i].MatchesSearch(c.search) {
			visible = append(visible, c.polls[i])
		}
	}
	return visible
}

// Loading, istek sürüyor mu?
func (c *Catalog) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Err, son Load hatası.
func (c *Catalog) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}
