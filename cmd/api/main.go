package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/expense-explorer/internal/api/handlers"
	"github.com/dvloznov/expense-explorer/internal/api/middleware"
	"github.com/dvloznov/expense-explorer/internal/assistant"
	"github.com/dvloznov/expense-explorer/internal/config"
	"github.com/dvloznov/expense-explorer/internal/dataset"
	"github.com/dvloznov/expense-explorer/internal/gcsuploader"
	"github.com/dvloznov/expense-explorer/internal/ingest"
	"github.com/dvloznov/expense-explorer/internal/jobs"
	"github.com/dvloznov/expense-explorer/internal/jobs/inmemory"
	"github.com/dvloznov/expense-explorer/internal/logger"
	"github.com/dvloznov/expense-explorer/internal/store"
	"github.com/dvloznov/expense-explorer/internal/taxonomy"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Parse command-line flags
	var (
		envFile = flag.String("env", ".env", "Path to an optional .env file")
		port    = flag.String("port", "", "HTTP server port (overrides PORT)")
		source  = flag.String("data", "", "Dataset to load at startup (overrides DATA_SOURCE)")
	)
	flag.Parse()

	cfg, err := loadConfig(*envFile, *port, *source)
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.NewWithLevel(cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tax := taxonomy.Default()
	loader := ingest.NewLoader()
	storage := gcsuploader.NewGCSStorageService(log)

	// Initial dataset load
	st := store.New()
	src, err := dataset.Open(cfg.DataSource, dataset.Options{Storage: storage})
	if err != nil {
		log.Fatal().Err(err).Str("source", cfg.DataSource).Msg("Invalid data source")
	}
	loadDataset(ctx, log, src, st, loader)

	// Language model
	var llm assistant.Completer
	gemini, err := assistant.NewGeminiCompleter(ctx, cfg.APIKey(), cfg.LLMModel)
	switch {
	case errors.Is(err, assistant.ErrNotConfigured):
		log.Warn().Msg("No GEMINI_API_KEY configured - general questions will return a fallback answer")
	case err != nil:
		log.Fatal().Err(err).Msg("Failed to create language model client")
	default:
		llm = gemini
	}
	dispatcher := assistant.NewDispatcher(tax, llm, cfg.LLMTimeout, log)

	// Upload archive jobs
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore, inmemory.WithWorkers(cfg.ArchiveWorkers))
	if cfg.GCSBucket == "" {
		log.Warn().Msg("No GCS bucket configured - uploads will not be archived")
	}

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()
	if err := jobQueue.Start(workerCtx, jobs.ArchiveHandler(storage, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job workers")
	}

	mux := handlers.NewMux(handlers.Handlers{
		System:       handlers.NewSystemHandler(st),
		Transactions: handlers.NewTransactionsHandler(st, tax, log),
		Query:        handlers.NewQueryHandler(st, dispatcher, log),
		Data:         handlers.NewDataHandler(st, loader, src, jobQueue, cfg.GCSBucket, cfg.MaxUploadBytes, log),
		Charts:       handlers.NewChartsHandler(st, tax, log),
		Jobs:         handlers.NewJobsHandler(jobStore, log),
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(cfg.Origins())(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.LLMTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("source", src.String()).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}

		// Stop job queue and wait for in-flight uploads
		if err := jobQueue.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error stopping job queue")
		}
		cancelWorker()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("Server stopped with error")
	}
	log.Info().Msg("Server exited")
}

// loadDataset fills st from src. A missing local file leaves the store
// empty so data can still be uploaded.
func loadDataset(ctx context.Context, log zerolog.Logger, src dataset.Source, st *store.Store, loader *ingest.Loader) {
	loadCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	loadCtx = logger.WithContext(loadCtx, log)

	_, err := dataset.Sync(loadCtx, src, st, loader)
	if errors.Is(err, dataset.ErrNotFound) {
		log.Warn().Str("source", src.String()).Msg("Dataset not found - starting with no transactions")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("source", src.String()).Msg("Failed to load dataset - starting with no transactions")
	}
}

// loadConfig reads configuration and applies command-line overrides.
func loadConfig(envFile, port, source string) (*config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	if port != "" {
		cfg.Port = port
	}
	if source != "" {
		cfg.DataSource = source
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
