// Package pkg, projede paylaşılan yardımcıları barındırır: domain error'ları
// ve HTTP yanıt zarfı.
package pkg

import "errors"

// Domain-level error'lar. Service katmanı bunları (wrap ederek) döner,
// handler katmanı Error() ile HTTP status code'una çevirir:
//
//	if errors.Is(err, pkg.ErrNotFound) { ... }
var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrAlreadyExists   = errors.New("already exists")
	ErrBadRequest      = errors.New("bad request")
	ErrTooManyRequests = errors.New("too many requests")
	ErrInternal        = errors.New("internal error")
)
