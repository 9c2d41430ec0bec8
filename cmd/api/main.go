package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/taptone-api/internal/config"
	"github.com/taptone-api/internal/infrastructure/dynamo"
	googleinfra "github.com/taptone-api/internal/infrastructure/google"
	jwtinfra "github.com/taptone-api/internal/infrastructure/jwt"
	s3infra "github.com/taptone-api/internal/infrastructure/s3"
	"github.com/taptone-api/internal/infrastructure/smtp"
	"github.com/taptone-api/internal/infrastructure/sns"
	transporthttp "github.com/taptone-api/internal/transport/http"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// JWT provider (optional; graceful fallback if keys are missing).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		logger.Warn("JWT provider not available", "error", err)
	}

	// S3 store for song audio.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// SMTP mailer.
	mailer := smtp.NewMailer(cfg)

	// SNS SMS sender (optional; graceful fallback).
	var smsSender sns.SMSSender
	if sender, err := sns.NewSender(cfg); err == nil {
		smsSender = sender
	} else {
		logger.Warn("SNS sender not available", "error", err)
	}

	// Google ID token verifier for social sign-in.
	var googleVerifier *googleinfra.Verifier
	if cfg.GoogleClientID != "" {
		googleVerifier = googleinfra.NewVerifier(cfg.GoogleClientID)
	} else {
		logger.Warn("Google sign-in disabled: GOOGLE_CLIENT_ID not set")
	}

	tables := cfg.DynamoTables
	deps := &transporthttp.Deps{
		UserRepo:         dynamo.NewUserRepo(dynamoClient, tables.Users),
		SessionRepo:      dynamo.NewSessionRepo(dynamoClient, tables.Sessions),
		DeviceRepo:       dynamo.NewDeviceRepo(dynamoClient, tables.Devices),
		ClaimCodeRepo:    dynamo.NewClaimCodeRepo(dynamoClient, tables.ClaimCodes, tables.Devices),
		CommandRepo:      dynamo.NewCommandRepo(dynamoClient, tables.Commands),
		TagRepo:          dynamo.NewTagRepo(dynamoClient, tables.Tags),
		PlaylistRepo:     dynamo.NewPlaylistRepo(dynamoClient, tables.Playlists),
		SongRepo:         dynamo.NewSongRepo(dynamoClient, tables.Songs),
		PurchaseRepo:     dynamo.NewPurchaseRepo(dynamoClient, tables.Purchases),
		VerificationRepo: dynamo.NewVerificationRepo(dynamoClient, tables.UserVerifications),
		S3Store:          s3Store,
		Mailer:           mailer,
		SMSSender:        smsSender,
		GoogleVerifier:   googleVerifier,
		JWTProvider:      jwtProvider,
		Logger:           logger,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
