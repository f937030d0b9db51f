package review

import "errors"

// Sentinel errors for the review package.
// Use errors.Is to check: errors.Is(err, review.ErrNotFound)
var (
	ErrValidation      = errors.New("review: invalid request")
	ErrNotFound        = errors.New("review: memory state not found")
	ErrAlreadyExists   = errors.New("review: memory state already exists")
	ErrUnauthenticated = errors.New("review: unauthenticated")
	ErrConflict        = errors.New("review: memory state was modified concurrently")
	ErrStorage         = errors.New("review: storage failure")
)

// ErrorKind maps err onto a short label for logs and metrics.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	default:
		return "storage"
	}
}
