package models

// View, shell'in göstereceği üst seviye ekran.
type View string

const (
	ViewSetupRequired View = "setup_required"
	ViewLoading       View = "loading"
	ViewWelcome       View = "welcome"
	ViewAuth          View = "auth"
	ViewCreate        View = "create"
	ViewCatalog       View = "catalog"
)

// SelectView, session durumu ve UI flag'lerinden ekranı seçer.
//
// Sıra: yapılandırma yoksa setup_required; session çözülüyorsa loading;
// kullanıcı yoksa showAuth'a göre auth veya welcome; kullanıcı varsa
// showCreate'e göre create veya catalog.
func SelectView(configured, loading bool, user *User, showAuth, showCreate bool) View {
	switch {
	case !configured:
		return ViewSetupRequired
	case loading:
		return ViewLoading
	case user == nil && showAuth:
		return ViewAuth
	case user == nil:
		return ViewWelcome
	case showCreate:
		return ViewCreate
	default:
		return ViewCatalog
	}
}

// Bootstrap, GET /api/bootstrap yanıtı.
type Bootstrap struct {
	Configured bool     `json:"configured"`
	Missing    []string `json:"missing,omitempty"`
	User       *User    `json:"user"`
	View       View     `json:"view"`
}
