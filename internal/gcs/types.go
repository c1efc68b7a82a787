// Package gcs holds the storage abstraction shared by dataset loading and
// upload archiving, plus gs:// URI helpers.
package gcs

import (
	"context"
	"fmt"
	"strings"
)

// Scheme prefixes every object URI.
const Scheme = "gs://"

// StorageService provides an interface for cloud storage operations.
// This interface enables mocking and testing of storage functionality.
type StorageService interface {
	// UploadBytes writes data to bucket/object with the given content type.
	UploadBytes(ctx context.Context, bucketName, objectName string, data []byte, contentType string) error

	// FetchFromGCS downloads file bytes from the given gs:// URI.
	FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error)
}

// ParseURI splits gs://bucket/path/to/object into bucket and object path.
func ParseURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, Scheme) {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, Scheme), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

// URI builds a gs:// URI.
func URI(bucket, object string) string {
	return Scheme + bucket + "/" + object
}
