package jobs

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/expense-explorer/internal/logger"
)

// mockStorage is a mock implementation of gcs.StorageService for testing.
type mockStorage struct {
	bucket, object, contentType string
	data                        []byte
	err                         error
}

func (m *mockStorage) UploadBytes(ctx context.Context, bucketName, objectName string, data []byte, contentType string) error {
	m.bucket, m.object, m.data, m.contentType = bucketName, objectName, data, contentType
	return m.err
}

func (m *mockStorage) FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func TestObjectName(t *testing.T) {
	at := time.Date(2024, 8, 15, 23, 0, 0, 0, time.UTC)
	tests := []struct {
		filename string
		want     string
	}{
		{"expenses.csv", "uploads/2024/08/15/j1-expenses.csv"},
		{"../../etc/passwd", "uploads/2024/08/15/j1-passwd"},
		{`C:\Users\me\export.csv`, "uploads/2024/08/15/j1-export.csv"},
		{"", "uploads/2024/08/15/j1-upload.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := ObjectName("j1", tt.filename, at); got != tt.want {
				t.Errorf("ObjectName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestArchiveHandler(t *testing.T) {
	storage := &mockStorage{}
	handler := ArchiveHandler(storage, logger.Nop())

	job := &ArchiveUploadJob{JobID: "j1", Bucket: "archive", ObjectName: "uploads/x.csv", Data: []byte("date,amount\n")}
	if err := handler(context.Background(), job); err != nil {
		t.Fatalf("handler() error = %v", err)
	}
	if storage.bucket != "archive" || storage.object != "uploads/x.csv" || storage.contentType != "text/csv" {
		t.Errorf("upload = %+v", storage)
	}

	storage.err = errors.New("quota")
	if err := handler(context.Background(), job); err == nil || !strings.Contains(err.Error(), "quota") {
		t.Errorf("handler() error = %v", err)
	}
}
