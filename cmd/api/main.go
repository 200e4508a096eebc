package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/event-tickets/internal/api/http"
	"github.com/spec-kit/event-tickets/internal/api/http/handlers"
	"github.com/spec-kit/event-tickets/internal/auth"
	"github.com/spec-kit/event-tickets/internal/clock"
	"github.com/spec-kit/event-tickets/internal/config"
	"github.com/spec-kit/event-tickets/internal/events"
	"github.com/spec-kit/event-tickets/internal/notify"
	"github.com/spec-kit/event-tickets/internal/observability"
	"github.com/spec-kit/event-tickets/internal/persistence"
	"github.com/spec-kit/event-tickets/internal/phone"
	"github.com/spec-kit/event-tickets/internal/repository"
	"github.com/spec-kit/event-tickets/internal/service"
	"github.com/spec-kit/event-tickets/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var (
		ticketRepo    repository.TicketRepository
		organizerRepo repository.OrganizerRepository
	)
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.DefaultMigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		ticketRepo = repository.NewTicketRepository(pg.PoolHandle())
		organizerRepo = repository.NewOrganizerRepository(pg.PoolHandle())
	} else {
		ticketRepo = repository.NewMemoryTicketRepository()
		organizerRepo = repository.NewMemoryOrganizerRepository()
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()
	deliveryLog := repository.NewDeliveryLogRepository(redis.Client, cfg.Redis.DeliveryLogTTL(), cfg.Redis.DeliveryLogMax)

	bus := events.NewInMemoryBus()
	var forward events.EventHandler
	if cfg.AMQP.URL != "" {
		publisher := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, logger)
		defer publisher.Close() //nolint:errcheck
		forward = publisher.Handler()
	}
	auditWorker := worker.NewAuditWorker(bus, service.NewAuditService(deliveryLog, forward, logger), worker.DefaultAuditQueueSize, logger)
	auditWorker.Start(ctx)
	defer auditWorker.Stop()

	clk := clock.Real()
	normalizer := phone.NewNormalizer(cfg.Notify.DefaultCountryCode)
	timeout := cfg.Notify.ProviderTimeout()

	var session notify.BrowserSession
	if cfg.Channels.Browser.Enabled {
		session = notify.NewChromeSession(cfg.Channels.Browser, logger)
	}
	browser := notify.NewWhatsAppBrowserChannel(session, cfg.Channels.Browser.Enabled, cfg.Channels.Browser.LoginTimeout(), logger)
	browser.Start(ctx)
	defer browser.Stop() //nolint:errcheck

	dispatcher := notify.NewDispatcher([]notify.Channel{
		notify.NewSMSChannel(cfg.Channels.Twilio, timeout),
		notify.NewEmailChannel(cfg.Channels.Email, timeout),
		notify.NewWhatsAppBusinessChannel(cfg.Channels.Meta, timeout),
		notify.NewWhatsAppProviderChannel(cfg.Channels.Infobip, timeout),
		browser,
	}, cfg.Notify.ChannelPriority, notify.DispatcherDeps{
		Normalizer: normalizer,
		Bus:        bus,
		Metrics:    metrics,
		Logger:     logger,
		Clock:      clk,
	})
	bulk := notify.NewBulkCoordinator(dispatcher, cfg.Notify.BulkDelay(), metrics, logger)
	scheduler := notify.NewScheduler(dispatcher, clk, cfg.Notify.Location(), metrics, logger)
	scheduler.Start(ctx)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		OrganizerRepo: organizerRepo,
		TokenManager:  tokens,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		Normalizer: normalizer,
		Logger:     logger,
		Clock:      clk,
	})
	verificationService := service.NewVerificationService(service.VerificationDependencies{
		TicketRepo: ticketRepo,
		Normalizer: normalizer,
		Bus:        bus,
		Metrics:    metrics,
		Logger:     logger,
		Clock:      clk,
	})
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		TicketRepo:      ticketRepo,
		DeliveryLogRepo: deliveryLog,
		Dispatcher:      dispatcher,
		Bulk:            bulk,
		Scheduler:       scheduler,
		Logger:          logger,
	})

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, notificationService),
		Verify:         handlers.NewVerifyHandler(verificationService),
		Notify:         handlers.NewNotifyHandler(notificationService),
		Metrics:        metrics,
		AuthMiddleware: auth.NewAuthMiddleware(tokens, organizerRepo),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	scheduler.Stop()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
