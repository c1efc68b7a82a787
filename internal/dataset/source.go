// Package dataset resolves where the transaction CSV comes from and loads
// it into the store.
package dataset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/dvloznov/expense-explorer/internal/gcs"
	bq "github.com/dvloznov/expense-explorer/internal/infra/bigquery"
	"github.com/dvloznov/expense-explorer/internal/ingest"
	"github.com/dvloznov/expense-explorer/internal/logger"
	"github.com/dvloznov/expense-explorer/internal/store"
)

// ErrNotFound is returned when a local dataset file does not exist.
var ErrNotFound = errors.New("dataset not found")

// Source yields a parsed batch of transactions.
type Source interface {
	Load(ctx context.Context, l *ingest.Loader) (*ingest.Result, error)
	String() string
}

// RepositoryOpener connects to a BigQuery table.
type RepositoryOpener func(ctx context.Context, ref bq.TableRef) (bq.TransactionRepository, error)

// Options supplies the clients remote sources need.
type Options struct {
	Storage  gcs.StorageService
	OpenRepo RepositoryOpener
}

// Open picks a Source for uri: gs://bucket/object, bq://project.dataset.table,
// or a local path with optional file:// prefix.
func Open(uri string, opts Options) (Source, error) {
	switch {
	case strings.HasPrefix(uri, gcs.Scheme):
		if _, _, err := gcs.ParseURI(uri); err != nil {
			return nil, fmt.Errorf("dataset.Open: %w", err)
		}
		if opts.Storage == nil {
			return nil, fmt.Errorf("dataset.Open: no storage client for %s", uri)
		}
		return &GCSSource{URI: uri, Storage: opts.Storage}, nil

	case strings.HasPrefix(uri, bq.Scheme):
		ref, err := bq.ParseTableURI(uri)
		if err != nil {
			return nil, fmt.Errorf("dataset.Open: %w", err)
		}
		open := opts.OpenRepo
		if open == nil {
			open = func(ctx context.Context, ref bq.TableRef) (bq.TransactionRepository, error) {
				return bq.NewBigQueryTransactionRepository(ctx, ref)
			}
		}
		return &BigQuerySource{Ref: ref, Open: open}, nil

	default:
		path := strings.TrimPrefix(uri, "file://")
		if path == "" {
			return nil, fmt.Errorf("dataset.Open: empty path")
		}
		return &FileSource{Path: path}, nil
	}
}

// Sync loads src and swaps the result into st. It logs through the
// logger carried by ctx.
func Sync(ctx context.Context, src Source, st *store.Store, l *ingest.Loader) (*ingest.Result, error) {
	log := logger.WithFields(logger.FromContext(ctx), map[string]interface{}{
		"source": src.String(),
	})

	res, err := src.Load(ctx, l)
	if err != nil {
		return nil, err
	}
	for _, e := range res.Errors {
		log.Debug().Int("line", e.Line).Str("field", e.Field).Msg(e.Reason)
	}
	st.Replace(res.Transactions, src.String())

	log.Info().
		Int("records", len(res.Transactions)).
		Int("rejected", len(res.Errors)).
		Msg("Dataset synced")
	return res, nil
}

// FileSource reads a CSV from the local filesystem.
type FileSource struct {
	Path string
}

func (s *FileSource) String() string { return s.Path }

// Load parses the file. A missing file yields ErrNotFound.
func (s *FileSource) Load(_ context.Context, l *ingest.Loader) (*ingest.Result, error) {
	f, err := os.Open(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("FileSource.Load: %s: %w", s.Path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("FileSource.Load: open: %w", err)
	}
	defer f.Close()

	res, err := l.ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("FileSource.Load: %w", err)
	}
	return res, nil
}

// GCSSource downloads a CSV object.
type GCSSource struct {
	URI     string
	Storage gcs.StorageService
}

func (s *GCSSource) String() string { return s.URI }

// Load fetches and parses the object.
func (s *GCSSource) Load(ctx context.Context, l *ingest.Loader) (*ingest.Result, error) {
	data, err := s.Storage.FetchFromGCS(ctx, s.URI)
	if err != nil {
		return nil, fmt.Errorf("GCSSource.Load: %w", err)
	}
	res, err := l.ParseCSV(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("GCSSource.Load: %w", err)
	}
	return res, nil
}

// BigQuerySource reads rows from a BigQuery table.
type BigQuerySource struct {
	Ref  bq.TableRef
	Open RepositoryOpener
}

func (s *BigQuerySource) String() string { return s.Ref.String() }

// Load queries the table and runs every row through the loader.
func (s *BigQuerySource) Load(ctx context.Context, l *ingest.Loader) (*ingest.Result, error) {
	repo, err := s.Open(ctx, s.Ref)
	if err != nil {
		return nil, fmt.Errorf("BigQuerySource.Load: %w", err)
	}
	defer repo.Close()

	rows, err := repo.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("BigQuerySource.Load: %w", err)
	}

	records := make([]ingest.Record, len(rows))
	for i, r := range rows {
		records[i] = r.Record(i + 1)
	}
	txs, rowErrs := l.Load(records)
	return &ingest.Result{
		Transactions: txs,
		Errors:       rowErrs,
		Columns:      append(append([]string{}, ingest.RequiredColumns...), ingest.OptionalColumns...),
		RowCount:     len(records),
	}, nil
}
