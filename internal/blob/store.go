// Package blob holds attachment content outside the document store.
package blob

import (
	"context"
	"io"
)

// Store uploads bytes under a path and hands out public URLs for them.
// Uploading to an existing path overwrites it.
type Store interface {
	Upload(ctx context.Context, path, contentType string, body io.Reader) error
	URL(path string) string
	// Delete removes path. A missing object is not an error.
	Delete(ctx context.Context, path string) error
}
