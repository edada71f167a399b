package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/BlueSinkers/medical-summarizer-t3/internal/api/handlers"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/config"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/domain"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/embedding"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/index"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/jobs"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/kb"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/llm"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/server"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/service"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/storage"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/telemetry"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/validator"
)

const (
	kbWatchDebounce = 2 * time.Second
	kbFreshnessPoll = 5 * time.Minute
	shutdownTimeout = 30 * time.Second
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the medical report summarizer API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
			Debug:            cfg.Debug,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	validatorMode, err := domain.ParseValidatorMode(cfg.ValidatorMode)
	if err != nil {
		return fmt.Errorf("invalid MEDSUM_VALIDATOR_MODE %q: %w", cfg.ValidatorMode, err)
	}

	state := service.NewState()

	// Knowledge index: build in the background so the server binds its port
	// immediately. Without an API key there is nothing to embed with.
	var kbWatcher *jobs.KBWatcher
	var freshnessWorker *jobs.Worker
	if cfg.HasOpenAI() {
		embedder := embedding.NewClientWithConfig(embedding.Config{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.EmbedModel,
		})
		manager := index.NewManager(
			embedder,
			cfg.KBGlob,
			cfg.IndexDir,
			cfg.EmbedModel,
			index.ChunkConfig{Size: cfg.ChunkSize, Overlap: cfg.ChunkOverlap},
			cfg.TopK,
		)
		builder := jobs.NewIndexBuilder(jobs.LoaderFunc(kb.LoadDocuments), manager, state, cfg.KBGlob)

		go func() {
			if err := builder.Build(ctx); err != nil {
				log.Printf("initial index build: %v", err)
			}
		}()

		if cfg.WatchKB {
			kbWatcher, err = jobs.NewKBWatcher(cfg.KBGlob, builder, kbWatchDebounce)
			if err != nil {
				return fmt.Errorf("failed to create KB watcher: %w", err)
			}
			go kbWatcher.Start(ctx)
			log.Println("kb watcher started")
		} else {
			freshnessWorker = jobs.NewWorker(builder, kbFreshnessPoll)
			go freshnessWorker.Start(ctx)
			log.Println("kb freshness worker started")
		}
	} else {
		log.Println("OPENAI_API_KEY not set; knowledge index disabled")
		state.Publish(&service.Snapshot{
			Status: index.Status{Status: index.StatusDisabled},
			Ready:  true,
		})
	}

	var generator service.GeneratorInterface
	var remote validator.RemoteClient
	if cfg.HasOpenAI() {
		generator = llm.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.ChatModel)
		remote = validator.NewOpenAIRemote(cfg.OpenAIAPIKey, cfg.ValidatorModel)
	} else {
		log.Println("OPENAI_API_KEY not set; serving mock responses")
		generator = llm.MockGenerator{}
	}

	validationCfg := service.ValidationConfig{
		Mode:                 validatorMode,
		ConfidenceThreshold:  cfg.ConfidenceThreshold,
		MaxRetries:           cfg.MaxRetries,
		AllowOfflineFallback: cfg.AllowOfflineFallback,
	}
	answerValidator := validator.New(remote)

	var archiveStorage service.ArchiveStorageInterface
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		archiveStorage = s3Client
	}

	summarizeSvc := service.NewSummarizeService(state, generator, answerValidator, validationCfg, cfg.AllowMockFallback)
	chatSvc := service.NewChatService(state, generator, answerValidator, validationCfg, cfg.AllowMockFallback)
	validateSvc := service.NewValidateService(answerValidator, validationCfg)
	archiveSvc := service.NewArchiveService(archiveStorage)

	router := server.NewRouter(server.RouterConfig{
		APIKey:          cfg.APIKey,
		HealthHandler:   handlers.NewHealthHandler(state),
		ReportHandler:   handlers.NewReportHandler(summarizeSvc, chatSvc),
		ValidateHandler: handlers.NewValidateHandler(validateSvc),
		ArchiveHandler:  handlers.NewArchiveHandler(archiveSvc),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if kbWatcher != nil {
		kbWatcher.Stop()
	}
	if freshnessWorker != nil {
		freshnessWorker.Stop()
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(ctx, shutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}
