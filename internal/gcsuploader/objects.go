package gcsuploader

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"cloud.google.com/go/storage"
)

const uploadTimeout = 2 * time.Minute

// withClient runs fn against a short-lived storage client using
// Application Default Credentials.
func withClient(ctx context.Context, fn func(*storage.Client) error) error {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()
	return fn(client)
}

// DownloadFile reads a whole object in a single attempt. Retries live in
// GCSStorageService.
func DownloadFile(ctx context.Context, bucketName, objectName string) ([]byte, error) {
	var data []byte
	err := withClient(ctx, func(client *storage.Client) error {
		r, err := client.Bucket(bucketName).Object(objectName).NewReader(ctx)
		if err != nil {
			return fmt.Errorf("open object %s/%s: %w", bucketName, objectName, err)
		}
		defer r.Close()

		data, err = io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("read object %s/%s: %w", bucketName, objectName, err)
		}
		return nil
	})
	return data, err
}

// UploadFile archives a local CSV under objectName.
func (s *GCSStorageService) UploadFile(ctx context.Context, bucketName, objectName, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("UploadFile: read %q: %w", filePath, err)
	}
	return s.UploadBytes(ctx, bucketName, objectName, data, "text/csv")
}

func uploadBytes(ctx context.Context, bucketName, objectName string, data []byte, contentType string) error {
	return withClient(ctx, func(client *storage.Client) error {
		ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
		defer cancel()

		w := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
		w.ContentType = contentType
		w.Metadata = map[string]string{"uploaded_at": time.Now().UTC().Format(time.RFC3339)}

		if _, err := w.Write(data); err != nil {
			_ = w.Close()
			return fmt.Errorf("write object %s/%s: %w", bucketName, objectName, err)
		}
		// the object only exists once Close succeeds
		if err := w.Close(); err != nil {
			return fmt.Errorf("finalize object %s/%s: %w", bucketName, objectName, err)
		}
		return nil
	})
}
