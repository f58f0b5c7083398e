package i18n

import (
	"embed"
	"fmt"
	"io/fs"
)

// EmbeddedLocales, locales/ dizinindeki JSON dosyalarını binary'ye gömer.
//
//go:embed locales/*.json
var EmbeddedLocales embed.FS

// LoadEmbedded, gömülü çevirileri yükler. Load gibi sadece ilk çağrıda çalışır.
func LoadEmbedded() error {
	sub, err := fs.Sub(EmbeddedLocales, "locales")
	if err != nil {
		return fmt.Errorf("failed to open embedded locales: %w", err)
	}
	return Load(sub)
}
