// Package media persists uploaded hazard media and hands back publicly
// dereferenceable URLs. The URL must be reachable by the external analysis
// service, not merely by this process; that is a deployment invariant.
package media

import (
	"context"
	"errors"
	"io"
)

// ErrEmptyMedia is returned when the upload contains no bytes.
var ErrEmptyMedia = errors.New("empty media payload")

// ErrTooLarge is returned when the upload exceeds the configured limit.
var ErrTooLarge = errors.New("media exceeds size limit")

// Store saves raw media bytes and returns a stable URL for them. Save must
// never produce colliding URLs for concurrent uploads.
type Store interface {
	Save(ctx context.Context, r io.Reader, originalName, contentType string) (string, error)
}
