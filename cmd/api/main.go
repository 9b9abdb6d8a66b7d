// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/farmchain/assistant-platform/internal/assistant"
	"github.com/farmchain/assistant-platform/internal/config"
	"github.com/farmchain/assistant-platform/internal/dynamo"
	"github.com/farmchain/assistant-platform/internal/handler"
	"github.com/farmchain/assistant-platform/internal/llm"
	"github.com/farmchain/assistant-platform/internal/middleware"
	natsclient "github.com/farmchain/assistant-platform/internal/nats"
	"github.com/farmchain/assistant-platform/internal/service"
	"github.com/farmchain/assistant-platform/internal/store"
	"github.com/farmchain/assistant-platform/pkg/logger"
	"github.com/farmchain/assistant-platform/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "assistant-platform", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Initialize turn store
	var turnStore store.TurnStore
	var readiness handler.ReadinessChecker

	switch cfg.StoreBackend {
	case config.StoreJetStream:
		natsClient, err := natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		defer natsClient.Close()

		jsStore := natsclient.NewTurnStore(natsClient)
		if err := jsStore.EnsureStream(ctx); err != nil {
			log.Error("failed to ensure stream", zap.Error(err))
			os.Exit(1)
		}
		turnStore = jsStore
		readiness = natsClient

	case config.StoreDynamoDB:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			log.Error("failed to load AWS config", zap.Error(err))
			os.Exit(1)
		}
		dynamoStore, err := dynamo.New(dynamodb.NewFromConfig(awsCfg), cfg.DynamoTable)
		if err != nil {
			log.Error("failed to create DynamoDB store", zap.Error(err))
			os.Exit(1)
		}
		turnStore = dynamoStore

	default:
		log.Warn("using in-memory turn store, history will not survive restarts")
		turnStore = store.NewMemoryStore()
	}

	// Initialize generation client; the platform degrades to deterministic
	// responses when no provider credential is configured.
	var llmClient llm.Client
	switch {
	case cfg.GeminiAPIKey != "":
		llmClient, err = llm.NewGeminiClient(cfg.GeminiAPIKey)
	case cfg.OpenAIAPIKey != "":
		llmClient, err = llm.NewOpenAIClient(cfg.OpenAIAPIKey)
	case cfg.AnthropicAPIKey != "":
		llmClient, err = llm.NewAnthropicClient(cfg.AnthropicAPIKey)
	}
	if err != nil {
		log.Warn("failed to create generation client", zap.Error(err))
		llmClient = nil
	}

	generator := llm.NewGenerator(llmClient)
	if !generator.Configured() {
		log.Warn("no generation provider configured, running in degraded mode with fallback responses")
	} else {
		log.Info("generation provider configured", zap.String("provider", llmClient.Name()))
	}

	estimator := assistant.NewEstimator(llmClient)

	// Initialize services
	chatSvc := service.NewChatService(turnStore, generator, estimator, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(readiness)
	chatHandler := handler.NewChatHandler(chatSvc, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api/v1/chat", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		// Public endpoints; identity is attached when a token is present
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWTSecret))
			r.Post("/message", chatHandler.SendMessage)
		})
		r.Get("/suggestions", chatHandler.Suggestions)

		// History requires identity
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret))
			r.Get("/history", chatHandler.History)
			r.Delete("/history", chatHandler.ClearHistory)
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
