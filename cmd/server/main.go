// Command server runs the eventdesk HTTP API.
//
// @title Eventdesk API
// @version 1.0
// @description Abstract submission, review and reviewer provisioning for conference events.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventdesk/config"
	"eventdesk/internal/adapters/auth"
	"eventdesk/internal/adapters/email"
	"eventdesk/internal/adapters/ratelimit"
	deliveryhttp "eventdesk/internal/delivery/http"
	"eventdesk/internal/delivery/http/controllers"
	"eventdesk/internal/delivery/http/middleware"
	"eventdesk/internal/repository/postgres"
	"eventdesk/internal/services"
)

const (
	effectTimeout   = 30 * time.Second
	shutdownTimeout = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg)
	slog.SetDefault(logger)

	ctx := context.Background()
	db, err := postgres.Open(ctx, cfg.DBUrl)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if cfg.RunMigrations {
		logger.Info("running database migrations")
		if err := postgres.Migrate(db); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
	}

	var limiter middleware.RateLimiter
	if cfg.RateLimitEnabled() {
		client, err := ratelimit.NewClient(ctx, cfg.RateLimit.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer client.Close()
		limiter = ratelimit.NewLimiter(client, ratelimit.Config{
			Prefix:         cfg.RateLimit.Prefix,
			Capacity:       cfg.RateLimit.Capacity,
			RefillTokens:   cfg.RateLimit.RefillTokens,
			RefillInterval: cfg.RateLimit.RefillInterval,
		})
	} else {
		logger.Warn("REDIS_URL not set, rate limiting is disabled")
	}

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.AWSRegion,
			AccessKeyID:        cfg.Email.AWSAccessKeyID,
			SecretAccessKey:    cfg.Email.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.Email.InsecureSkipVerify,
		},
		AMQP: email.AMQPConfig{URL: cfg.Email.AMQPURL, Queue: cfg.Email.Queue},
	}, logger)
	if err != nil {
		return fmt.Errorf("creating mailer: %w", err)
	}

	// Repositories
	eventRepo := postgres.NewEventRepository(db)
	abstractRepo := postgres.NewAbstractRepository(db)
	speakerRepo := postgres.NewSpeakerRepository(db)
	trackRepo := postgres.NewTrackRepository(db)
	userRepo := postgres.NewUserRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	// Services
	effects := services.NewEffects(logger, effectTimeout)
	audit := services.NewAuditTrail(auditRepo, effects)
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)
	links := services.Links{BaseURL: cfg.AppBaseURL}
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	jwt := auth.NewJWTIssuer(cfg.JWTSecret)
	timeout := cfg.RequestTimeout

	abstractService := services.NewAbstractService(eventRepo, abstractRepo, speakerRepo, trackRepo, emailService, audit, effects, links, timeout)
	publicService := services.NewPublicAbstractService(eventRepo, abstractRepo, trackRepo, emailService, audit, effects, links, timeout)
	submitterService := services.NewSubmitterService(eventRepo, userRepo, speakerRepo, hasher, jwt, audit, cfg.JWTExpiry, timeout)
	reviewerService := services.NewReviewerService(eventRepo, speakerRepo, userRepo, hasher, emailService, audit, effects, links, timeout)
	accountService := services.NewAccountService(userRepo, hasher, jwt, cfg.JWTExpiry, timeout)
	settingsService := services.NewEventSettingsService(eventRepo, audit, timeout)

	router := deliveryhttp.NewRouter(deliveryhttp.Controllers{
		Abstracts: controllers.NewAbstractController(logger, abstractService),
		Public:    controllers.NewPublicController(logger, publicService, submitterService),
		Reviewers: controllers.NewReviewerController(logger, reviewerService),
		Auth:      controllers.NewAuthController(logger, accountService),
		Settings:  controllers.NewSettingsController(logger, settingsService),
	}, deliveryhttp.RouterConfig{
		Logger:         logger,
		Verifier:       jwt,
		Limiter:        limiter,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-quit:
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if err := effects.Wait(shutdownCtx); err != nil {
		logger.Warn("pending side effects did not finish", "err", err)
	}
	logger.Info("server stopped")
	return nil
}
