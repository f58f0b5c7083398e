package handlers

import (
	"net/http"

	"github.com/akinalp/votespace/models"
	"github.com/akinalp/votespace/pkg"
)

// BootstrapHandler, client'ın ilk açılışta çağırdığı endpoint'ler.
// Setup mode'da da cevap verir.
type BootstrapHandler struct {
	missing []string
}

// NewBootstrapHandler, constructor. missing: eksik gating ayarlarının env adları.
func NewBootstrapHandler(missing []string) *BootstrapHandler {
	return &BootstrapHandler{missing: missing}
}

// Health godoc
// GET /api/health
func (h *BootstrapHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if len(h.missing) > 0 {
		status = "setup_required"
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"status": status})
}

// Bootstrap godoc
// GET /api/bootstrap
// Optional auth: token geçerliyse user dolu gelir.
func (h *BootstrapHandler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	configured := len(h.missing) == 0

	user, _ := userFromContext(r)

	pkg.JSON(w, http.StatusOK, models.Bootstrap{
		Configured: configured,
		Missing:    h.missing,
		User:       user,
		View:       models.SelectView(configured, false, user, false, false),
	})
}
