package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"elibrary/internal/background"
	"elibrary/internal/config"
	"elibrary/internal/database"
	"elibrary/internal/handlers"
	"elibrary/internal/middleware"
	"elibrary/internal/repositories"
	"elibrary/internal/services"
	"elibrary/pkg/logger"
	"elibrary/pkg/mailer"
	"elibrary/pkg/rabbitmq"
)

// application holds the wired components of the service.
type application struct {
	db        *gorm.DB
	tokens    *services.TokenService
	auth      *services.AuthService
	loans     *services.LoanService
	catalog   *services.CatalogService
	users     *services.UserService
	reminders *background.ReminderScheduler
	broker    brokerHealth
}

// brokerHealth is implemented by publishers that can report their connection state.
type brokerHealth interface {
	Healthy() bool
}

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logger.Setup(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database ---
	db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}
	if err := database.SeedAdmin(ctx, repositories.NewGORMUserRepository(db), cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("failed to seed admin")
	}

	// --- Mail delivery ---
	var sender mailer.Sender = mailer.ConsoleMailer{}
	if cfg.SMTP.Enabled {
		smtp, err := mailer.NewSMTPMailer(mailer.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("invalid SMTP configuration")
		}
		sender = smtp
	}
	var notifier services.Notifier = sender

	// --- RabbitMQ (optional) ---
	var publisher services.EventPublisher
	if cfg.RabbitMQ.URL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL, Exchange: cfg.RabbitMQ.Exchange})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize RabbitMQ client")
		}
		defer mqClient.Close()
		publisher = mqClient

		if cfg.NotifyAsync {
			notifier = mailer.NewQueueMailer(mqClient, rabbitmq.EmailRoutingKey)
			if err := mqClient.Consume(rabbitmq.EmailQueue, mailer.JobHandler(ctx, sender)); err != nil {
				log.Fatal().Err(err).Msg("failed to start email consumer")
			}
		}
	}

	a := newApplication(cfg, db, notifier, publisher)
	app := newServer(a)

	// --- Background reminders ---
	remindersDone := make(chan struct{})
	go func() {
		defer close(remindersDone)
		a.reminders.Run(ctx)
	}()

	// --- HTTP server ---
	go func() {
		log.Info().Str("port", cfg.AppPort).Msg("starting server")
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("error during Fiber shutdown")
	}
	<-remindersDone

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Info().Msg("server gracefully stopped")
}

// newApplication wires repositories and services. publisher may be nil.
func newApplication(cfg *config.Config, db *gorm.DB, notifier services.Notifier, publisher services.EventPublisher) *application {
	userRepo := repositories.NewGORMUserRepository(db)
	verificationRepo := repositories.NewGORMVerificationRepository(db)
	bookRepo := repositories.NewGORMBookRepository(db)
	genreRepo := repositories.NewGORMGenreRepository(db)
	loanRepo := repositories.NewGORMLoanRepository(db)

	tokens := services.NewTokenService(cfg.JWT.Key, cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.TTL)
	loans := services.NewLoanService(bookRepo, loanRepo, cfg.LoanPeriod)
	reminders := background.NewReminderScheduler(loanRepo, notifier, cfg.ReminderInterval)
	var broker brokerHealth
	if publisher != nil {
		loans.WithPublisher(publisher)
		reminders.WithPublisher(publisher)
		broker, _ = publisher.(brokerHealth)
	}

	return &application{
		db:        db,
		tokens:    tokens,
		auth:      services.NewAuthService(userRepo, verificationRepo, notifier, tokens, cfg.OTPTTL),
		loans:     loans,
		catalog:   services.NewCatalogService(bookRepo, genreRepo),
		users:     services.NewUserService(userRepo),
		reminders: reminders,
		broker:    broker,
	}
}

// newServer builds the Fiber app with all routes.
func newServer(a *application) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "elibrary",
	})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(fiberlogger.New())

	// --- API Routes ---
	apiV1 := app.Group("/api/v1")

	// Authentication routes (public)
	handlers.NewAuthHandler(a.auth).RegisterRoutes(apiV1)

	// Protected routes (require bearer token)
	protectedRoutes := apiV1.Group("", middleware.AuthRequired(a.tokens))
	handlers.NewUserHandler(a.users).RegisterRoutes(protectedRoutes)
	handlers.NewCatalogHandler(a.catalog).RegisterRoutes(protectedRoutes)
	handlers.NewLoanHandler(a.loans).RegisterRoutes(protectedRoutes)

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		status, code := "healthy", fiber.StatusOK
		dbStatus := "connected"
		if sqlDB, err := a.db.DB(); err != nil || sqlDB.PingContext(c.UserContext()) != nil {
			status, code, dbStatus = "degraded", fiber.StatusServiceUnavailable, "unreachable"
		}
		rabbit := "disabled"
		if a.broker != nil {
			rabbit = "connected"
			if !a.broker.Healthy() {
				rabbit = "disconnected"
			}
		}
		return c.Status(code).JSON(fiber.Map{
			"status":   status,
			"time":     time.Now().UTC().Format(time.RFC3339),
			"database": dbStatus,
			"rabbitmq": rabbit,
		})
	})

	return app
}
