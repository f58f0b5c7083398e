package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/akinalp/votespace/pkg"
	"github.com/akinalp/votespace/pkg/i18n"
)

// setupAllowedPaths, setup mode'da da cevap veren endpoint'ler.
var setupAllowedPaths = []string{"/api/health", "/api/bootstrap"}

// SetupGate, gating ayarları (JWT_SECRET, PUBLIC_API_KEY) eksikken
// /api/health ve /api/bootstrap dışındaki her isteği 503 ile reddeder.
// Mesaj Accept-Language'a göre çevrilir ve eksik ayarların adlarını içerir.
//
// missing boşsa gate devre dışıdır.
func SetupGate(missing []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(missing) == 0 {
			return next
		}

		names := strings.Join(missing, ", ")

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if slices.Contains(setupAllowedPaths, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			localizer := i18n.NewLocalizer(i18n.DetectLanguage(r.Header.Get("Accept-Language")))
			pkg.ErrorWithMessage(w, http.StatusServiceUnavailable,
				localizer.TWithParams("setup.required", map[string]string{"missing": names}))
		})
	}
}
