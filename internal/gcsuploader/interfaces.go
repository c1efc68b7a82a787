package gcsuploader

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/expense-explorer/internal/gcs"
	"github.com/rs/zerolog"
)

// StorageService is the object storage contract used by datasets and archive jobs.
type StorageService = gcs.StorageService

// GCSStorageService is the concrete implementation of StorageService
// that interacts with Google Cloud Storage. Rate limits and 5xx responses
// are retried.
type GCSStorageService struct {
	log      zerolog.Logger
	attempts uint
	delay    time.Duration
}

// NewGCSStorageService creates a new instance of GCSStorageService.
func NewGCSStorageService(log zerolog.Logger) *GCSStorageService {
	return &GCSStorageService{
		log:      log,
		attempts: defaultAttempts,
		delay:    defaultDelay,
	}
}

// UploadBytes writes data to bucketName/objectName.
func (s *GCSStorageService) UploadBytes(ctx context.Context, bucketName, objectName string, data []byte, contentType string) error {
	return withRetry(ctx, s.log, s.attempts, s.delay, "upload", func() error {
		return uploadBytes(ctx, bucketName, objectName, data, contentType)
	})
}

// FetchFromGCS downloads the object named by a gs:// URI.
func (s *GCSStorageService) FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error) {
	bucket, object, err := gcs.ParseURI(gcsURI)
	if err != nil {
		return nil, err
	}
	var data []byte
	err = withRetry(ctx, s.log, s.attempts, s.delay, "download", func() error {
		var derr error
		data, derr = DownloadFile(ctx, bucket, object)
		return derr
	})
	if err != nil {
		return nil, fmt.Errorf("fetchFromGCS: %w", err)
	}
	return data, nil
}
