package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dvloznov/expense-explorer/internal/analytics"
	"github.com/dvloznov/expense-explorer/internal/assistant"
	"github.com/dvloznov/expense-explorer/internal/config"
	"github.com/dvloznov/expense-explorer/internal/dataset"
	"github.com/dvloznov/expense-explorer/internal/gcsuploader"
	infraBQ "github.com/dvloznov/expense-explorer/internal/infra/bigquery"
	"github.com/dvloznov/expense-explorer/internal/ingest"
	"github.com/dvloznov/expense-explorer/internal/jobs"
	"github.com/dvloznov/expense-explorer/internal/logger"
	"github.com/dvloznov/expense-explorer/internal/query"
	"github.com/dvloznov/expense-explorer/internal/taxonomy"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		runValidate(log)
	case "summary":
		runSummary(log)
	case "ask":
		runAsk(log)
	case "sample":
		runSample(log)
	case "upload":
		runUpload(log)
	case "export-bq":
		runExportBQ(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Expense Explorer CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  validate   Check a CSV file without loading it")
	fmt.Println("  summary    Print the summary of a dataset")
	fmt.Println("  ask        Ask a question about a dataset")
	fmt.Println("  sample     Write the sample CSV template")
	fmt.Println("  upload     Archive a CSV file to GCS")
	fmt.Println("  export-bq  Copy a dataset into a BigQuery table")
	fmt.Println("  help       Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// loadDataset opens uri (path, gs:// or bq://) and parses it.
func loadDataset(ctx context.Context, uri string) *ingest.Result {
	log := logger.FromContext(ctx)
	src, err := dataset.Open(uri, dataset.Options{Storage: gcsuploader.NewGCSStorageService(log)})
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid data source")
	}

	res, err := src.Load(ctx, ingest.NewLoader())
	if err != nil {
		log.Fatal().Err(err).Str("source", src.String()).Msg("Failed to load dataset")
	}
	log = logger.WithFields(log, map[string]interface{}{"source": src.String()})
	for _, e := range res.Errors {
		log.Warn().Int("line", e.Line).Str("field", e.Field).Msg(e.Reason)
	}
	return res
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

func runValidate(log zerolog.Logger) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	filePath := fs.String("file", "", "Path to local CSV file")
	fs.Parse(os.Args[2:])

	if *filePath == "" {
		log.Fatal().Msg("Usage: cli validate -file PATH")
	}

	f, err := os.Open(*filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open file")
	}
	defer f.Close()

	report := ingest.NewLoader().Validate(f)
	printJSON(report)
	if !report.Valid {
		os.Exit(2)
	}
}

func runSummary(log zerolog.Logger) {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	source := fs.String("data", "data/transactions.csv", "Dataset path, gs:// or bq:// URI")
	category := fs.String("category", "", "Category or parent:<name> filter")
	tag := fs.String("tag", "", "Tag filter")
	search := fs.String("search", "", "Search text")
	fs.Parse(os.Args[2:])

	criteria := query.Criteria{
		SearchText: *search,
		Category:   *category,
		Tag:        *tag,
	}
	tax := taxonomy.Default()
	if err := criteria.Validate(tax); err != nil {
		log.Fatal().Err(err).Strs("parents", tax.Parents()).Msg("Invalid category filter")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	res := loadDataset(ctx, *source)
	txs := query.FilterWith(tax, res.Transactions, criteria)

	printJSON(analytics.Summarize(txs))
}

func runAsk(log zerolog.Logger) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	source := fs.String("data", "data/transactions.csv", "Dataset path, gs:// or bq:// URI")
	envFile := fs.String("env", ".env", "Path to an optional .env file")
	fs.Parse(os.Args[2:])

	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		log.Fatal().Msg("Usage: cli ask [-data URI] QUESTION")
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx := logger.WithContext(context.Background(), log)
	res := loadDataset(ctx, *source)

	var llm assistant.Completer
	if gemini, err := assistant.NewGeminiCompleter(ctx, cfg.APIKey(), cfg.LLMModel); err == nil {
		llm = gemini
	} else {
		log.Warn().Err(err).Msg("Language model unavailable")
	}

	d := assistant.NewDispatcher(taxonomy.Default(), llm, cfg.LLMTimeout, log)
	answer := d.Ask(ctx, assistant.Question{Text: question}, res.Transactions)

	fmt.Println(answer.Answer)
	for _, v := range answer.Visualizations {
		fmt.Printf("\n[%s] %s\n", v.ChartType, v.Title)
		for _, opt := range v.AvailableOptions {
			fmt.Printf("  %-20s $%10.2f  %d transactions\n", opt.Tag, opt.TotalAmount, opt.TransactionCount)
		}
	}
	for _, p := range answer.DataPoints {
		fmt.Printf("  %-20s $%10.2f  %6.2f%%\n", p.Category, p.Amount, p.Percentage)
	}
}

func runSample(log zerolog.Logger) {
	fs := flag.NewFlagSet("sample", flag.ExitOnError)
	out := fs.String("out", "", "Output file (defaults to stdout)")
	fs.Parse(os.Args[2:])

	if *out == "" {
		os.Stdout.Write(ingest.SampleCSV())
		return
	}
	if err := os.WriteFile(*out, ingest.SampleCSV(), 0o644); err != nil {
		log.Fatal().Err(err).Msg("Failed to write sample")
	}
	fmt.Printf("Wrote %s\n", *out)
}

func runUpload(log zerolog.Logger) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	bucketName := fs.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket name")
	objectName := fs.String("object", "", "GCS object name (defaults to the archive layout)")
	filePath := fs.String("file", "", "Path to local CSV file")
	fs.Parse(os.Args[2:])

	if *bucketName == "" || *filePath == "" {
		log.Fatal().Msg("Usage: cli upload -bucket NAME -file PATH")
	}

	// Refuse files the API would reject
	f, err := os.Open(*filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open file")
	}
	report := ingest.NewLoader().Validate(f)
	f.Close()
	if len(report.MissingColumns) > 0 || report.ValidRowCount == 0 {
		printJSON(report)
		log.Fatal().Msg("File is not a usable expense CSV")
	}

	if *objectName == "" {
		*objectName = jobs.ObjectName(uuid.New().String(), filepath.Base(*filePath), time.Now())
	}

	ctx := context.Background()

	log.Info().
		Str("bucket", *bucketName).
		Str("object", *objectName).
		Str("file", *filePath).
		Msg("Uploading file to GCS")

	storage := gcsuploader.NewGCSStorageService(log)
	if err := storage.UploadFile(ctx, *bucketName, *objectName, *filePath); err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded %s to gs://%s/%s\n", *filePath, *bucketName, *objectName)
}

func runExportBQ(log zerolog.Logger) {
	fs := flag.NewFlagSet("export-bq", flag.ExitOnError)
	source := fs.String("data", "data/transactions.csv", "Dataset path or gs:// URI")
	table := fs.String("table", "", "Destination bq://project.dataset.table")
	fs.Parse(os.Args[2:])

	ref, err := infraBQ.ParseTableURI(*table)
	if err != nil {
		log.Fatal().Err(err).Msg("Usage: cli export-bq -data PATH -table bq://project.dataset.table")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	res := loadDataset(ctx, *source)

	rows := make([]*infraBQ.TransactionRow, 0, len(res.Transactions))
	for _, tx := range res.Transactions {
		rows = append(rows, infraBQ.RowFromTransaction(tx))
	}

	repo, err := infraBQ.NewBigQueryTransactionRepository(ctx, ref)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create repository")
	}
	defer repo.Close()

	if err := repo.InsertTransactions(ctx, rows); err != nil {
		log.Fatal().Err(err).Msg("Export failed")
	}

	fmt.Printf("Exported %d transactions to %s\n", len(rows), ref)
}
