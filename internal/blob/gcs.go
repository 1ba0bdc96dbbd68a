package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GCSStore keeps blobs in a Cloud Storage bucket.
type GCSStore struct {
	bucket  *storage.BucketHandle
	baseURL string
}

// NewGCSStore builds a store. An empty publicBaseURL falls back to the
// storage.googleapis.com address of bucketName.
func NewGCSStore(bucket *storage.BucketHandle, bucketName, publicBaseURL string) *GCSStore {
	base := strings.TrimRight(publicBaseURL, "/")
	if base == "" {
		base = "https://storage.googleapis.com/" + bucketName
	}
	return &GCSStore{bucket: bucket, baseURL: base}
}

func (s *GCSStore) Upload(ctx context.Context, path, contentType string, body io.Reader) error {
	w := s.bucket.Object(path).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize object %s: %w", path, err)
	}
	return nil
}

func (s *GCSStore) URL(path string) string {
	return PublicURL(s.baseURL, path)
}

func (s *GCSStore) Delete(ctx context.Context, path string) error {
	err := s.bucket.Object(path).Delete(ctx)
	if err == nil || errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		return nil
	}
	return fmt.Errorf("delete object %s: %w", path, err)
}

// PublicURL escapes each segment of path and joins it to base.
func PublicURL(base, path string) string {
	segments := strings.Split(strings.TrimLeft(path, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segments, "/")
}
