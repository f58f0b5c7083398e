// Package pkg, projede paylaşılan utility'leri barındırır.
// Bu dosya domain-level error tanımlarını içerir.
//
// Service'ler bu sentinel'ları %w ile sarar, handler'lar errors.Is ile yakalar:
//
//	return fmt.Errorf("%w: duplicate vote", pkg.ErrAlreadyExists)
package pkg

import "errors"

// Domain-level error'lar.
// pkg.Error bunları HTTP status code'larına map'ler.
var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrAlreadyExists = errors.New("already exists")
	ErrBadRequest    = errors.New("bad request")
	ErrInternal      = errors.New("internal error")

	// ErrSetupRequired: JWT_SECRET veya PUBLIC_API_KEY eksik, server setup mode'da.
	ErrSetupRequired = errors.New("setup required")

	// ErrTooManyRequests: rate limit aşıldı.
	ErrTooManyRequests = errors.New("too many requests")
)
