package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/thesis-go-api/internal/config"
	"github.com/noah-isme/thesis-go-api/internal/database"
	"github.com/noah-isme/thesis-go-api/internal/handler"
	"github.com/noah-isme/thesis-go-api/internal/middleware"
	"github.com/noah-isme/thesis-go-api/internal/repository"
	"github.com/noah-isme/thesis-go-api/internal/router"
	"github.com/noah-isme/thesis-go-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if cfg.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			log.Fatalf("%v", err)
		}
	}

	probes := map[string]handler.HealthProbe{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		probes["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	} else {
		logger.Warn().Msg("redis disabled: config cache and council roster lock are off")
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Drain()
	}

	var mailer service.Mailer = service.NewLogMailer(logger)
	if cfg.SMTPEnabled() {
		smtpMailer, err := service.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
		if err != nil {
			log.Fatalf("failed to configure smtp: %v", err)
		}
		mailer = smtpMailer
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	store := repository.NewStore(db)
	authz := service.NewAuthorizer(store.Users)

	configProvider := service.NewConfigProvider(store.SystemConfigs, authz, redisClient, cfg.ConfigCacheTTL, logger)
	activityService := service.NewActivityService(store.ActivityLogs, authz, logger)
	effects := service.Effects{
		Notifier: service.NewNotificationService(mailer, store.EmailLogs, logger),
		Events:   service.NewEventPublisher(natsConn, logger),
		Activity: activityService,
	}
	locker := service.NewRosterLocker(redisClient, cfg.LockTTL, logger)

	groupService := service.NewGroupService(store, authz, configProvider, validate, effects, cfg.AppPublicURL, logger)
	topicService := service.NewTopicService(store, authz, validate, effects, logger)
	councilService := service.NewCouncilService(store, authz, configProvider, locker, validate, effects, logger)
	scheduleService := service.NewScheduleService(store, authz, configProvider, validate, effects, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSOrigins})
	router.Register(app, cfg, router.Dependencies{
		GroupHandler:    handler.NewGroupHandler(groupService, topicService, logger),
		CouncilHandler:  handler.NewCouncilHandler(councilService, logger),
		ScheduleHandler: handler.NewScheduleHandler(scheduleService, logger),
		ConfigHandler:   handler.NewConfigHandler(configProvider, logger),
		ActivityHandler: handler.NewActivityHandler(activityService, logger),
		HealthProbes:    probes,
		JWTMiddleware:   middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
