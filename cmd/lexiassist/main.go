// Copyright 2025 LexiAssist Backend Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main provides the LexiAssist backend: the REST API for the
// dyslexia screening app and its schema migration command.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/your-org/lexiassist-backend/internal/auth"
	"github.com/your-org/lexiassist-backend/internal/cache"
	"github.com/your-org/lexiassist-backend/internal/config"
	"github.com/your-org/lexiassist-backend/internal/genai"
	"github.com/your-org/lexiassist-backend/internal/server"
	"github.com/your-org/lexiassist-backend/internal/store"
	"github.com/your-org/lexiassist-backend/internal/storybook"
	"github.com/your-org/lexiassist-backend/internal/worddetective"
)

// ShutdownTimeout bounds the drain period on SIGINT/SIGTERM.
const ShutdownTimeout = 10 * time.Second

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "lexiassist",
		Short: "LexiAssist dyslexia screening backend",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runServe(configPath)
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runMigrate(configPath)
		},
	}

	rootCmd.AddCommand(serveCmd, migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := initializeLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	masked := cfg.MaskSensitiveValues()
	logger.Info("Configuration loaded successfully",
		zap.String("service", "lexiassist"),
		zap.String("environment", os.Getenv("ENVIRONMENT")),
		zap.String("gemini_api_key", masked.Gemini.APIKey),
		zap.String("gemini_model", masked.Gemini.Model),
		zap.String("groq_api_key", masked.Groq.APIKey),
		zap.String("database_driver", masked.Database.Driver),
		zap.Int("retry_max_attempts", masked.Retry.MaxAttempts),
		zap.Duration("retry_backoff", masked.Retry.Backoff),
		zap.Strings("frontend_origins", masked.Server.FrontendOrigins),
	)

	st, err := store.Open(cfg.Database.Driver, cfg.Database.DSN, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("Failed to close store", zap.Error(err))
		}
	}()

	if err := st.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	roundStore, cleanup, err := buildRoundStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize round cache: %w", err)
	}
	defer cleanup()

	geminiGateway := genai.NewGateway(
		genai.NewGeminiProvider(cfg.Gemini.APIKey, cfg.Gemini.Model),
		cfg.Retry.MaxAttempts, cfg.Retry.Backoff, logger,
	)
	groqGateway := genai.NewGateway(
		genai.NewGroqProvider(cfg.Groq.APIKey, cfg.Groq.Model),
		cfg.Retry.MaxAttempts, cfg.Retry.Backoff, logger,
	)

	srv := server.New(server.Options{
		Config:        cfg,
		Store:         st,
		Tokens:        auth.NewManager(cfg.Auth.Secret, cfg.TokenTTL()),
		Storybook:     storybook.NewService(geminiGateway, roundStore, logger),
		WordDetective: worddetective.NewService(groqGateway, logger),
		Logger:        logger,
	})

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting LexiAssist backend", zap.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-sigCh:
		logger.Info("Shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func runMigrate(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := initializeLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	st, err := store.Open(cfg.Database.Driver, cfg.Database.DSN, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	if err := st.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	logger.Info("Schema migration complete",
		zap.String("driver", cfg.Database.Driver),
	)
	return nil
}

// buildRoundStore selects the session round cache: Redis when an address is
// configured, otherwise the in-process map.
func buildRoundStore(cfg *config.Config, logger *zap.Logger) (storybook.RoundStore, func(), error) {
	if cfg.Redis.Addr == "" {
		logger.Info("Using in-memory round cache")
		return cache.NewMemoryRoundStore(), func() {}, nil
	}

	redisStore, err := cache.NewRedisRoundStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, 0, logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Using Redis round cache", zap.String("addr", cfg.Redis.Addr))
	return redisStore, func() {
		if err := redisStore.Close(); err != nil {
			logger.Warn("Failed to close Redis round cache", zap.Error(err))
		}
	}, nil
}

// initializeLogger creates a logger based on configuration settings
func initializeLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapConfig zap.Config

	if cfg.Logging.Format == "json" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	switch cfg.Logging.Level {
	case "debug":
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "info":
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	case "warn":
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	if cfg.Logging.Output == "file" {
		zapConfig.OutputPaths = []string{"lexiassist.log"}
		zapConfig.ErrorOutputPaths = []string{"lexiassist.log"}
	} else {
		zapConfig.OutputPaths = []string{"stdout"}
		zapConfig.ErrorOutputPaths = []string{"stderr"}
	}

	return zapConfig.Build()
}
