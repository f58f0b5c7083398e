package pkg

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// APIResponse, tüm API yanıtları için standart format.
// sdk paketi de aynı zarfı decode eder.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// JSON, başarılı bir yanıt gönderir.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := APIResponse{
		Success: true,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// Error, hata yanıtı gönderir.
// Domain error'ları otomatik olarak uygun HTTP status code'a çevrilir.
//
// Mesaj, sentinel prefix'i ("already exists: ") olmadan gönderilir;
// client "User already registered" gibi mesajı olduğu gibi gösterir.
// Sarılmamış (sentinel olmayan) error'lar 500 döner ve iç detay sızdırılmaz.
func Error(w http.ResponseWriter, err error) {
	status := mapErrorToStatus(err)

	message := PublicMessage(err)
	if status == http.StatusInternalServerError {
		message = ErrInternal.Error()
	}

	ErrorWithMessage(w, status, message)
}

// ErrorWithMessage, özel mesajlı hata yanıtı gönderir.
func ErrorWithMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := APIResponse{
		Success: false,
		Error:   message,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode error response", http.StatusInternalServerError)
	}
}

// PublicMessage, error zincirindeki sentinel prefix'ini atar.
// "already exists: duplicate vote" → "duplicate vote"
// Sadece sentinel'ın kendisi dönmüşse sentinel mesajı kalır.
func PublicMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range sentinels {
		if !errors.Is(err, sentinel) {
			continue
		}
		prefix := sentinel.Error() + ": "
		if idx := strings.Index(msg, prefix); idx >= 0 {
			return msg[idx+len(prefix):]
		}
	}
	return msg
}

var sentinels = []error{
	ErrNotFound, ErrUnauthorized, ErrForbidden, ErrAlreadyExists,
	ErrBadRequest, ErrInternal, ErrSetupRequired, ErrTooManyRequests,
}

// mapErrorToStatus, domain error'ları HTTP status code'larına eşler.
// errors.Is() wrap edilmiş error'ları da yakalar.
func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrSetupRequired):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
