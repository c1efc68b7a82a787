package bigquery

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/expense-explorer/internal/domain"
	"github.com/dvloznov/expense-explorer/internal/ingest"
	"google.golang.org/api/iterator"
)

// Scheme prefixes table URIs: bq://project.dataset.table
const Scheme = "bq://"

// TableRef names a fully qualified table.
type TableRef struct {
	Project string
	Dataset string
	Table   string
}

func (t TableRef) String() string {
	return Scheme + t.Project + "." + t.Dataset + "." + t.Table
}

// ParseTableURI parses bq://project.dataset.table.
func ParseTableURI(uri string) (TableRef, error) {
	if !strings.HasPrefix(uri, Scheme) {
		return TableRef{}, fmt.Errorf("ParseTableURI: invalid BigQuery URI: %s", uri)
	}
	parts := strings.Split(strings.TrimPrefix(uri, Scheme), ".")
	if len(parts) != 3 {
		return TableRef{}, fmt.Errorf("ParseTableURI: want bq://project.dataset.table, got %s", uri)
	}
	for _, p := range parts {
		if p == "" {
			return TableRef{}, fmt.Errorf("ParseTableURI: empty name in %s", uri)
		}
	}
	return TableRef{Project: parts[0], Dataset: parts[1], Table: parts[2]}, nil
}

// QueryTransactionsWithClient reads every row of ref ordered by date using
// the provided BigQuery client.
func QueryTransactionsWithClient(ctx context.Context, client *bigquery.Client, ref TableRef) ([]*TransactionRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			transaction_id,
			transaction_date,
			amount,
			description,
			category,
			parent_category,
			merchant,
			notes,
			account,
			status,
			transaction_type,
			recurring,
			excluded,
			tags
		FROM `+"`%s.%s.%s`"+`
		WHERE transaction_date IS NOT NULL
		ORDER BY transaction_date, transaction_id
	`, ref.Project, ref.Dataset, ref.Table))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactions: query read: %w", err)
	}

	var rows []*TransactionRow
	for {
		var r TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryTransactions: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}

// InsertTransactionsWithClient streams rows into ref using the provided
// BigQuery client.
func InsertTransactionsWithClient(ctx context.Context, client *bigquery.Client, ref TableRef, rows []*TransactionRow) error {
	if len(rows) == 0 {
		return nil
	}

	table := client.DatasetInProject(ref.Project, ref.Dataset).Table(ref.Table)
	if err := table.Inserter().Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertTransactions: inserting rows: %w", err)
	}
	return nil
}

// Record converts the row into an ingest record so it is validated and
// mapped exactly like a CSV line.
func (r *TransactionRow) Record(line int) ingest.Record {
	fields := map[string]string{
		"id":              r.TransactionID,
		"date":            r.Date.String(),
		"amount":          strconv.FormatFloat(r.Amount, 'f', -1, 64),
		"description":     r.Description,
		"category":        r.Category.StringVal,
		"parent category": r.ParentCategory.StringVal,
		"merchant":        r.Merchant.StringVal,
		"notes":           r.Notes.StringVal,
		"account":         r.Account.StringVal,
		"status":          r.Status.StringVal,
		"type":            r.Type.StringVal,
		"recurring":       r.Recurring.StringVal,
		"tags":            strings.Join(r.Tags, ","),
	}
	if !r.Date.IsValid() {
		fields["date"] = ""
	}
	if r.Excluded.Valid {
		fields["excluded"] = strconv.FormatBool(r.Excluded.Bool)
	}
	return ingest.Record{Line: line, Fields: fields}
}

// RowFromTransaction builds the row written for tx. The source category
// goes in the category column so reading the row back maps it the same
// way; the parent column stays empty because the source parent is already
// folded into RawCategory.
func RowFromTransaction(tx domain.Transaction) *TransactionRow {
	return &TransactionRow{
		TransactionID:        tx.ID,
		Date:                 civil.DateOf(tx.Date),
		Amount:               tx.Amount,
		Description:          tx.Description,
		Category:             nullString(tx.RawCategory),
		MappedCategory:       nullString(tx.Category),
		MappedParentCategory: nullString(tx.ParentCategory),
		Merchant:             nullString(tx.Merchant),
		Notes:                nullString(tx.Notes),
		Account:              nullString(tx.Account),
		Status:               nullString(tx.Status),
		Type:                 nullString(string(tx.Type)),
		Recurring:            nullString(tx.Recurring),
		Excluded:             bigquery.NullBool{Bool: tx.Excluded, Valid: true},
		Tags:                 tx.PublicTags(),
	}
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}
