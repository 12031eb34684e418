package errors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalid      = errors.New("invalid")
	ErrConflict     = errors.New("conflict")
	ErrTooMany      = errors.New("too many requests")
	ErrInternal     = errors.New("internal")

	ErrDataAccess       = errors.New("data access failed")
	ErrEmptyDocument    = errors.New("document has no content")
	ErrEmbeddingService = errors.New("embedding service failed")
	ErrModelUnavailable = errors.New("model unavailable")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsDataAccess(err error) bool {
	return errors.Is(err, ErrDataAccess)
}
