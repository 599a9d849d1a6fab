package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
)

// BucketStore writes images to a Cloud Storage bucket (the Firebase default bucket).
type BucketStore struct {
	bucket     *gcs.BucketHandle
	bucketName string
}

func NewBucketStore(bucket *gcs.BucketHandle, bucketName string) *BucketStore {
	return &BucketStore{bucket: bucket, bucketName: bucketName}
}

// Exists reports whether an object with the given name is already stored.
func (s *BucketStore) Exists(ctx context.Context, name string) (bool, error) {
	if len(name) == 0 {
		return false, nil
	}
	if _, err := s.bucket.Object(name).Attrs(ctx); err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *BucketStore) Save(ctx context.Context, filename string, content io.Reader) (string, error) {
	name := uploadName(filename)
	for {
		exists, err := s.Exists(ctx, name)
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", name, err)
		}
		if !exists {
			break
		}
		name = alternativeName(name)
	}

	// DoesNotExist makes a concurrent upload of the same name fail instead of overwrite.
	w := s.bucket.Object(name).If(gcs.Conditions{DoesNotExist: true}).NewWriter(ctx)
	if _, err := io.Copy(w, content); err != nil {
		w.Close()
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return name, nil
}

func (s *BucketStore) URL(name string) string {
	if name == "" {
		return ""
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucketName, name)
}
