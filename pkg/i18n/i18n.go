// Package i18n, kullanıcıya gösterilen metinler için çoklu dil desteği sağlar.
//
// İki tüketicisi var: server tarafında setup-mode mesajı (Accept-Language'a göre)
// ve sdk tarafında auth hatalarının kullanıcı dostu karşılıkları.
//
//	localizer := i18n.NewLocalizer("tr")
//	msg := localizer.T("auth.emailNotConfirmed")
package i18n

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"slices"
	"strings"
	"sync"
)

// SupportedLanguages: desteklenen dil kodları.
var SupportedLanguages = []string{"en", "tr"}

// DefaultLanguage: varsayılan dil.
const DefaultLanguage = "en"

// translations: map[lang]map[key]value. Bir kez yüklenir, sonra sadece okunur.
var (
	translations map[string]map[string]string
	loadOnce     sync.Once
	loadErr      error
)

// Load, her desteklenen dil için <lang>.json dosyasını fs.FS'ten yükler.
// sync.Once ile korunur: eşzamanlı çağrılar tek yükleme yapar, hepsi aynı
// sonucu görür.
func Load(localesFS fs.FS) error {
	loadOnce.Do(func() {
		translations = make(map[string]map[string]string)

		for _, lang := range SupportedLanguages {
			fileName := lang + ".json"

			data, err := fs.ReadFile(localesFS, fileName)
			if err != nil {
				loadErr = fmt.Errorf("failed to read translation file %s: %w", fileName, err)
				return
			}

			// Nested JSON'u flat key'lere dönüştür: {"auth": {"login": "..."}} → "auth.login"
			var nested map[string]any
			if err := json.Unmarshal(data, &nested); err != nil {
				loadErr = fmt.Errorf("failed to parse translation file %s: %w", fileName, err)
				return
			}

			flat := make(map[string]string)
			flattenMap("", nested, flat)
			translations[lang] = flat

			log.Printf("[i18n] loaded %d keys for language: %s", len(flat), lang)
		}
	})

	return loadErr
}

// Localizer, belirli bir dil için çeviri yapan struct.
type Localizer struct {
	lang string
}

// NewLocalizer, belirli bir dil için Localizer oluşturur.
// Desteklenmeyen dil verilirse varsayılana düşer.
func NewLocalizer(lang string) *Localizer {
	if !isSupported(lang) {
		lang = DefaultLanguage
	}
	return &Localizer{lang: lang}
}

// T, anahtarın çevirisini döner. Sıra: kullanıcının dili, en, anahtarın kendisi.
func (l *Localizer) T(key string) string {
	// Önce kullanıcının dilinde ara
	if msg, ok := translations[l.lang][key]; ok {
		return msg
	}
	// Fallback: İngilizce
	if msg, ok := translations[DefaultLanguage][key]; ok {
		return msg
	}
	// Son çare: anahtarın kendisi
	return key
}

// Lang, Localizer'ın çözümlenmiş dil kodu.
func (l *Localizer) Lang() string {
	return l.lang
}

// TWithParams, parametreli çeviri yapar.
// Çeviri metnindeki {{param}} yer tutucularını değerlerle değiştirir.
//
// Örnek:
//
//	localizer.TWithParams("auth.tooManyAttempts", map[string]string{"retry": "2 minute(s)"})
func (l *Localizer) TWithParams(key string, params map[string]string) string {
	msg := l.T(key)
	for k, v := range params {
		msg = strings.ReplaceAll(msg, "{{"+k+"}}", v)
	}
	return msg
}

// DetectLanguage, Accept-Language header'ından en uygun dili belirler.
// Header formatı: "tr-TR,tr;q=0.9,en-US;q=0.8,en;q=0.7"
func DetectLanguage(acceptLanguage string) string {
	if acceptLanguage == "" {
		return DefaultLanguage
	}

	// Basit parsing: ilk eşleşen desteklenen dili döndür
	parts := strings.Split(acceptLanguage, ",")
	for _, part := range parts {
		lang := strings.TrimSpace(strings.Split(part, ";")[0])
		// "tr-TR" → "tr"
		lang = strings.Split(lang, "-")[0]
		lang = strings.ToLower(lang)

		if isSupported(lang) {
			return lang
		}
	}

	return DefaultLanguage
}

// ─── Helpers ───

func isSupported(lang string) bool {
	return slices.Contains(SupportedLanguages, lang)
}

// flattenMap, nested JSON'u "dot notation" key'lere dönüştürür.
// {"auth": {"login": "Giriş"}} → {"auth.login": "Giriş"}
func flattenMap(prefix string, src map[string]any, dst map[string]string) {
	for k, v := range src {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		switch val := v.(type) {
		case string:
			dst[key] = val
		case map[string]any:
			flattenMap(key, val, dst)
		}
	}
}
