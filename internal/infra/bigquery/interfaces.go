package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

// TransactionRepository provides access to an expenses table.
// This interface enables mocking and testing of warehouse access.
type TransactionRepository interface {
	ListTransactions(ctx context.Context) ([]*TransactionRow, error)
	InsertTransactions(ctx context.Context, rows []*TransactionRow) error
	Close() error
}

// BigQueryTransactionRepository is the concrete implementation of
// TransactionRepository. It holds a shared BigQuery client.
type BigQueryTransactionRepository struct {
	client *bigquery.Client
	ref    TableRef
}

// NewBigQueryTransactionRepository creates a repository over ref, billing
// queries to ref.Project.
func NewBigQueryTransactionRepository(ctx context.Context, ref TableRef) (*BigQueryTransactionRepository, error) {
	client, err := bigquery.NewClient(ctx, ref.Project)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryTransactionRepository: creating client: %w", err)
	}
	return &BigQueryTransactionRepository{client: client, ref: ref}, nil
}

// Close closes the BigQuery client connection.
func (r *BigQueryTransactionRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// ListTransactions delegates to QueryTransactionsWithClient with the shared client.
func (r *BigQueryTransactionRepository) ListTransactions(ctx context.Context) ([]*TransactionRow, error) {
	return QueryTransactionsWithClient(ctx, r.client, r.ref)
}

// InsertTransactions delegates to InsertTransactionsWithClient with the shared client.
func (r *BigQueryTransactionRepository) InsertTransactions(ctx context.Context, rows []*TransactionRow) error {
	return InsertTransactionsWithClient(ctx, r.client, r.ref, rows)
}
