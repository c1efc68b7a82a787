// Package bigquery reads and writes expense rows in a BigQuery table so a
// dataset can live in the warehouse instead of a CSV file.
package bigquery

import (
	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
)

// TransactionRow mirrors one row of the expenses table. Column names match
// the CSV header so rows go through the same ingest validation.
type TransactionRow struct {
	TransactionID string     `bigquery:"transaction_id"`   // REQUIRED
	Date          civil.Date `bigquery:"transaction_date"` // REQUIRED
	Amount        float64    `bigquery:"amount"`           // REQUIRED
	Description   string     `bigquery:"description"`      // REQUIRED

	// category and parent_category hold the source values; loading maps
	// them again. The mapped_* columns are written on export only.
	Category             bigquery.NullString `bigquery:"category"`               // NULLABLE
	ParentCategory       bigquery.NullString `bigquery:"parent_category"`        // NULLABLE
	MappedCategory       bigquery.NullString `bigquery:"mapped_category"`        // NULLABLE
	MappedParentCategory bigquery.NullString `bigquery:"mapped_parent_category"` // NULLABLE

	Merchant       bigquery.NullString `bigquery:"merchant"`        // NULLABLE
	Notes          bigquery.NullString `bigquery:"notes"`           // NULLABLE
	Account        bigquery.NullString `bigquery:"account"`         // NULLABLE
	Status         bigquery.NullString `bigquery:"status"`          // NULLABLE
	Type           bigquery.NullString `bigquery:"transaction_type"`
	Recurring      bigquery.NullString `bigquery:"recurring"`
	Excluded       bigquery.NullBool   `bigquery:"excluded"`

	Tags []string `bigquery:"tags"` // REPEATED STRING
}
