// Package storage is the object-store boundary for product images.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	gcs "cloud.google.com/go/storage"
)

// Store uploads and deletes objects in the configured bucket. Delete
// tolerates missing objects and ignores URLs that do not belong to the
// bucket.
type Store struct {
	bucket *gcs.BucketHandle
	name   string
}

func New(bucket *gcs.BucketHandle, bucketName string) *Store {
	return &Store{bucket: bucket, name: bucketName}
}

// Upload writes the object and returns its public URL.
func (s *Store) Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	w := s.bucket.Object(key).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.name, key), nil
}

// Delete removes the object a URL points at. Object-not-found counts
// as success; URLs outside our bucket are left alone.
func (s *Store) Delete(ctx context.Context, rawURL string) error {
	key, ok := s.objectKey(rawURL)
	if !ok {
		return nil
	}

	err := s.bucket.Object(key).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// objectKey extracts the object key from the public URL forms Firebase
// and GCS hand out.
func (s *Store) objectKey(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}

	switch u.Host {
	case "storage.googleapis.com":
		// /{bucket}/{key}
		rest, ok := strings.CutPrefix(u.Path, "/"+s.name+"/")
		if !ok {
			return "", false
		}
		return rest, rest != ""
	case "firebasestorage.googleapis.com":
		// /v0/b/{bucket}/o/{url-escaped key}
		rest, ok := strings.CutPrefix(u.Path, "/v0/b/"+s.name+"/o/")
		if !ok {
			return "", false
		}
		key, err := url.PathUnescape(rest)
		if err != nil || key == "" {
			return "", false
		}
		return key, true
	default:
		return "", false
	}
}
