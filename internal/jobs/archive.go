package jobs

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/dvloznov/expense-explorer/internal/gcs"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned by job stores for unknown IDs.
var ErrNotFound = errors.New("job not found")

// ObjectName builds the archive path for an upload received at t.
func ObjectName(jobID, filename string, t time.Time) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "upload.csv"
	}
	return fmt.Sprintf("uploads/%s/%s-%s", t.UTC().Format("2006/01/02"), jobID, base)
}

// ArchiveHandler returns the JobHandler that writes archive jobs to storage.
func ArchiveHandler(storage gcs.StorageService, log zerolog.Logger) JobHandler {
	return func(ctx context.Context, job Job) error {
		archive, ok := job.(*ArchiveUploadJob)
		if !ok {
			return fmt.Errorf("ArchiveHandler: unexpected job type %s", job.GetType())
		}

		jobLog := log.With().Str("job_id", archive.JobID).Str("object", archive.ObjectName).Logger()
		jobLog.Info().Int("size", archive.Size).Msg("Archiving upload")

		if err := storage.UploadBytes(ctx, archive.Bucket, archive.ObjectName, archive.Data, "text/csv"); err != nil {
			jobLog.Error().Err(err).Int("retry_count", archive.RetryCount).Msg("Archive upload failed")
			return fmt.Errorf("ArchiveHandler: %w", err)
		}

		jobLog.Info().Str("uri", gcs.URI(archive.Bucket, archive.ObjectName)).Msg("Upload archived")
		return nil
	}
}
