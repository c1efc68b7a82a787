package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"time"

	"github.com/dvloznov/expense-explorer/internal/api/middleware"
	"github.com/dvloznov/expense-explorer/internal/dataset"
	"github.com/dvloznov/expense-explorer/internal/ingest"
	"github.com/dvloznov/expense-explorer/internal/jobs"
	"github.com/dvloznov/expense-explorer/internal/logger"
	"github.com/dvloznov/expense-explorer/internal/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DataHandler loads, validates and archives transaction files.
type DataHandler struct {
	store     *store.Store
	loader    *ingest.Loader
	source    dataset.Source
	publisher jobs.Publisher
	bucket    string
	maxUpload int64
	log       zerolog.Logger
}

// NewDataHandler creates a new data handler. publisher may be nil or bucket
// empty, in which case uploads are not archived.
func NewDataHandler(st *store.Store, loader *ingest.Loader, source dataset.Source, publisher jobs.Publisher, bucket string, maxUpload int64, log zerolog.Logger) *DataHandler {
	return &DataHandler{
		store:     st,
		loader:    loader,
		source:    source,
		publisher: publisher,
		bucket:    bucket,
		maxUpload: maxUpload,
		log:       log,
	}
}

// Upload handles POST /data/upload. The file comes either as multipart
// field "file" or as the raw request body.
func (h *DataHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data, filename, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	res, err := h.loader.ParseCSV(bytes.NewReader(data))
	if err != nil {
		h.log.Warn().Err(err).Str("filename", filename).Msg("Rejected upload")
		middleware.WriteJSON(w, http.StatusUnprocessableEntity, ingest.NewReport(nil, err))
		return
	}
	if len(res.Transactions) == 0 {
		report := ingest.NewReport(res, nil)
		report.Error = "no valid rows"
		middleware.WriteJSON(w, http.StatusUnprocessableEntity, report)
		return
	}

	version := h.store.Replace(res.Transactions, "upload:"+filename)
	h.log.Info().
		Str("filename", filename).
		Int("records", len(res.Transactions)).
		Int("rejected", len(res.Errors)).
		Int64("version", version).
		Msg("CSV uploaded")

	report := ingest.NewReport(res, nil)
	resp := map[string]interface{}{
		"message":           "CSV uploaded and processed successfully",
		"records":           len(res.Transactions),
		"rejected":          len(res.Errors),
		"validation_errors": report.ValidationErrors,
	}

	if h.publisher != nil && h.bucket != "" {
		jobID := uuid.New().String()
		job := &jobs.ArchiveUploadJob{
			JobID:      jobID,
			Bucket:     h.bucket,
			ObjectName: jobs.ObjectName(jobID, filename, time.Now()),
			Filename:   filename,
			Size:       len(data),
			RowCount:   res.RowCount,
			Data:       data,
		}
		if err := h.publisher.PublishArchiveUpload(ctx, job); err != nil {
			// the upload itself succeeded; archiving is best effort
			h.log.Error().Err(err).Msg("Failed to enqueue archive job")
		} else {
			resp["archive_job_id"] = job.JobID
		}
	}

	middleware.WriteJSON(w, http.StatusOK, resp)
}

// Validate handles POST /data/validate. Nothing is loaded.
func (h *DataHandler) Validate(w http.ResponseWriter, r *http.Request) {
	data, _, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, h.loader.Validate(bytes.NewReader(data)))
}

// SampleCSV handles GET /data/sample-csv
func (h *DataHandler) SampleCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="sample_transactions.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(ingest.SampleCSV())
}

// Sync handles GET /data/sync by reloading the configured data source.
func (h *DataHandler) Sync(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "No data source configured")
		return
	}

	res, err := dataset.Sync(logger.WithContext(r.Context(), h.log), h.source, h.store, h.loader)
	if err != nil {
		h.log.Error().Err(err).Str("source", h.source.String()).Msg("Failed to sync data")
		var fe *ingest.FileError
		switch {
		case errors.Is(err, dataset.ErrNotFound):
			middleware.WriteError(w, http.StatusNotFound, "Data source not found: "+h.source.String())
		case errors.As(err, &fe):
			middleware.WriteJSON(w, http.StatusUnprocessableEntity, ingest.NewReport(nil, fe))
		default:
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to load data")
		}
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Data loaded successfully",
		"source":   h.source.String(),
		"records":  len(res.Transactions),
		"rejected": len(res.Errors),
	})
}

// readUpload extracts the file bytes and name. It writes the error
// response itself and returns false on failure.
func (h *DataHandler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var (
		data     []byte
		filename = "upload.csv"
		err      error
	)

	if mediaType == "multipart/form-data" {
		file, header, ferr := r.FormFile("file")
		if ferr != nil {
			err = ferr
		} else {
			defer file.Close()
			filename = filepath.Base(header.Filename)
			data, err = io.ReadAll(file)
		}
	} else {
		data, err = io.ReadAll(r.Body)
	}

	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File exceeds %d bytes", h.maxUpload))
			return nil, "", false
		}
		if errors.Is(err, http.ErrMissingFile) {
			middleware.WriteError(w, http.StatusBadRequest, "File is required")
			return nil, "", false
		}
		h.log.Warn().Err(err).Msg("Failed to read upload")
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read upload")
		return nil, "", false
	}
	if len(bytes.TrimSpace(data)) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "File is empty")
		return nil, "", false
	}
	return data, filename, true
}
