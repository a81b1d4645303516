// @title Event Booking API
// @version 1.0
// @description Event lifecycle, venue booking and capacity-constrained registration.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"eventbooking/config"
	"eventbooking/internal/adapters/auth"
	"eventbooking/internal/adapters/email"
	"eventbooking/internal/adapters/queue"
	"eventbooking/internal/clock"
	delivery "eventbooking/internal/delivery/http"
	"eventbooking/internal/delivery/http/controllers"
	"eventbooking/internal/delivery/http/middleware"
	"eventbooking/internal/domain"
	"eventbooking/internal/repository/postgres"
	"eventbooking/internal/services"
	"eventbooking/migrations"
)

const (
	startupTimeout  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg.Environment, cfg.LogLevel)
	slog.SetDefault(logger)

	startupCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.PingContext(startupCtx); err != nil {
		return err
	}
	if err := migrations.Apply(startupCtx, db); err != nil {
		return err
	}
	if names, err := migrations.Names(); err == nil {
		logger.Info("migrations applied", "count", len(names))
	}

	clk := clock.NewSystem()
	tx := postgres.NewTransactor(db)
	eventRepo := postgres.NewEventRepository(db)
	venueRepo := postgres.NewVenueRepository(db)
	registrationRepo := postgres.NewEventRegistrationRepository(db)
	userRepo := postgres.NewUserRepository(db)

	notifier := newNotifier(cfg.RabbitMQ, logger)
	if c, ok := notifier.(interface{ Close() error }); ok {
		defer c.Close()
	}

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.AWSRegion,
			AccessKeyID:        cfg.Email.AWSAccessKeyID,
			SecretAccessKey:    cfg.Email.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.Email.SESInsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		return err
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		return err
	}
	emailService := services.NewEmailService(mailer, renderer, logger)

	venueService := services.NewVenueService(venueRepo, eventRepo, tx, clk, cfg.RequestTimeout)
	eventService := services.NewEventService(eventRepo, venueRepo, venueService, tx, notifier, clk, logger, cfg.RequestTimeout)
	attendeeService := services.NewAttendeeService(eventRepo, registrationRepo, userRepo, venueRepo, emailService, tx, clk, logger, cfg.RequestTimeout)
	analyticsService := services.NewAnalyticsService(eventRepo, registrationRepo, clk, cfg.RequestTimeout)

	sweeper := services.NewExpirySweeper(eventRepo, notifier, clk, logger, cfg.RequestTimeout)
	if err := sweeper.Start(cfg.SweepSchedule); err != nil {
		return err
	}
	defer sweeper.Stop()

	var limiter middleware.Limiter
	if rdb := newRedisClient(startupCtx, cfg.Redis, logger); rdb != nil {
		defer rdb.Close()
		limiter = middleware.NewRedisLimiter(rdb, cfg.RateLimit)
	}

	mux := delivery.NewRouter(delivery.Controllers{
		Event:     controllers.NewEventController(logger, eventService, sweeper),
		Venue:     controllers.NewVenueController(logger, venueService),
		Attendee:  controllers.NewAttendeeController(logger, attendeeService),
		Analytics: controllers.NewAnalyticsController(logger, analyticsService),
		Health:    controllers.NewHealthController(logger, db),
	}, delivery.RouterDeps{
		Logger:    logger,
		Verifier:  auth.NewJWTVerifier(cfg.JWTSecret),
		Limiter:   limiter,
		RateLimit: cfg.RateLimit,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           delivery.NewHandler(mux, logger, cfg.CORSOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		logger.Info("api listening", "addr", server.Addr, "env", cfg.Environment)
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-stopCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server shutdown error", "err", err)
	}
	logger.Info("server stopped")
	return nil
}

// newNotifier connects to RabbitMQ when configured and otherwise only logs status changes.
func newNotifier(cfg config.RabbitMQConfig, logger *slog.Logger) domain.Notifier {
	if cfg.URL == "" {
		return queue.NewLogNotifier(logger)
	}
	n, err := queue.NewAMQPNotifier(cfg.URL, cfg.Queue)
	if err != nil {
		logger.Warn("rabbitmq unavailable, status changes will only be logged", "err", err)
		return queue.NewLogNotifier(logger)
	}
	return n
}

// newRedisClient returns nil when Redis is not configured or unreachable; rate limiting is then off.
func newRedisClient(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, rate limiting disabled", "addr", cfg.Addr, "err", err)
		_ = client.Close()
		return nil
	}
	return client
}
