package sdk

import (
	"sync"

	"github.com/akinalp/votespace/models"
)

// Shell, üst seviye ekran seçimi: setup_required, loading, welcome, auth,
// create veya catalog. Oturum açılınca auth formu kendiliğinden kapanır.
type Shell struct {
	session *Session

	mu          sync.RWMutex
	showAuth    bool
	showCreate  bool
	unsubscribe func()
}

// NewShell, session'a bağlı shell oluşturur.
func NewShell(session *Session) *Shell {
	s := &Shell{session: session}
	s.unsubscribe = session.OnChange(func(user *models.User) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if user != nil {
			s.showAuth = false
		} else {
			s.showCreate = false
		}
	})
	return s
}

// ShowAuth, auth formunu açar/kapatır.
func (s *Shell) ShowAuth(show bool) {
	s.mu.Lock()
	s.showAuth = show
	s.mu.Unlock()
}

// ShowCreate, poll oluşturma formunu açar/kapatır.
func (s *Shell) ShowCreate(show bool) {
	s.mu.Lock()
	s.showCreate = show
	s.mu.Unlock()
}

// View, o an gösterilecek ekran.
func (s *Shell) View() models.View {
	s.mu.RLock()
	showAuth, showCreate := s.showAuth, s.showCreate
	s.mu.RUnlock()

	return models.SelectView(
		s.session.Client().Configured(),
		s.session.Loading(),
		s.session.User(),
		showAuth,
		showCreate,
	)
}

// Close, session aboneliğini bırakır.
func (s *Shell) Close() {
	s.unsubscribe()
}
