// Package apperr holds the sentinel errors shared by the stores and the
// classification used when a failure is reduced to a soft result.
package apperr

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrInvalid   = errors.New("invalid input")
	ErrCancelled = errors.New("cancelled")
	ErrCorrupt   = errors.New("corrupt document")
)

// Error kinds recorded alongside soft failures.
const (
	KindNone      = ""
	KindNotFound  = "not_found"
	KindInvalid   = "invalid"
	KindCancelled = "cancelled"
	KindCorrupt   = "corrupt"
	KindIO        = "io"
)

// Kind classifies err. Anything not matching a sentinel is an I/O failure.
func Kind(err error) string {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalid):
		return KindInvalid
	case errors.Is(err, ErrCancelled), errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.Is(err, ErrCorrupt):
		return KindCorrupt
	default:
		return KindIO
	}
}
