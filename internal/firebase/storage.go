package firebase

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"github.com/google/uuid"

	"io.winapps.memorialboard/internal/store"
)

const downloadTokensKey = "firebaseStorageDownloadTokens"

// StorageBlobs stores uploads in the project's Cloud Storage bucket and
// serves them through Firebase download URLs.
type StorageBlobs struct {
	bucket     *storage.BucketHandle
	bucketName string
}

// NewStorageBlobs opens bucketName, or the app's default bucket when empty.
func NewStorageBlobs(ctx context.Context, app *firebase.App, bucketName string) (*StorageBlobs, error) {
	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Storage client: %w", err)
	}
	var bucket *storage.BucketHandle
	if bucketName == "" {
		bucket, err = client.DefaultBucket()
	} else {
		bucket, err = client.Bucket(bucketName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket: %w", err)
	}
	if bucketName == "" {
		attrs, err := bucket.Attrs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve default bucket: %w", err)
		}
		bucketName = attrs.Name
	}
	return &StorageBlobs{bucket: bucket, bucketName: bucketName}, nil
}

func (s *StorageBlobs) Put(ctx context.Context, path string, data []byte, contentType string, progress store.ProgressFunc) (string, error) {
	total := int64(len(data))
	w := s.bucket.Object(path).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{downloadTokensKey: uuid.New().String()}
	if progress != nil {
		progress(0, total)
		w.ProgressFunc = func(written int64) {
			progress(written, total)
		}
	}

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to upload %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finish upload %s: %w", path, err)
	}
	if progress != nil {
		progress(total, total)
	}
	return path, nil
}

func (s *StorageBlobs) PublicURL(ctx context.Context, ref string) (string, error) {
	obj := s.bucket.Object(ref)
	attrs, err := obj.Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read object %s: %w", ref, err)
	}

	token := attrs.Metadata[downloadTokensKey]
	if token == "" {
		token = uuid.New().String()
		metadata := map[string]string{downloadTokensKey: token}
		if _, err := obj.Update(ctx, storage.ObjectAttrsToUpdate{Metadata: metadata}); err != nil {
			return "", fmt.Errorf("failed to issue download token for %s: %w", ref, err)
		}
	}
	return downloadURL(s.bucketName, ref, token), nil
}

func downloadURL(bucket, path, token string) string {
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucket, url.PathEscape(path), url.QueryEscape(token))
}
