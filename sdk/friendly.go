package sdk

import (
	"errors"
	"log"
	"strings"

	"github.com/akinalp/votespace/pkg/i18n"
)

// FriendlyAuthMessage, auth hatasını kullanıcıya gösterilecek metne çevirir.
//
// Sunucu mesajı alt-dize olarak eşleşir: "Invalid login credentials",
// "Email not confirmed", "User already registered". Eşleşmeyen mesaj aynen
// döner; sunucuya ulaşılamadıysa bağlantı mesajı döner.
func FriendlyAuthMessage(err error, isSignUp bool, lang string) string {
	if err == nil {
		return ""
	}
	if loadErr := i18n.LoadEmbedded(); loadErr != nil {
		log.Printf("[sdk] translations unavailable: %v", loadErr)
	}
	localizer := i18n.NewLocalizer(lang)

	if errors.Is(err, ErrTransport) {
		return localizer.T("auth.serviceUnavailable")
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "Invalid login credentials"):
		if isSignUp {
			return localizer.T("auth.invalidCredentialsSignUp")
		}
		return localizer.T("auth.invalidCredentialsSignIn")
	case strings.Contains(msg, "Email not confirmed"):
		return localizer.T("auth.emailNotConfirmed")
	case strings.Contains(msg, "User already registered"):
		return localizer.T("auth.userExists")
	default:
		return msg
	}
}
