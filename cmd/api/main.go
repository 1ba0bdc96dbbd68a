package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/api/http"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/api/http/handlers"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/auth"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/blob"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/config"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/events"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/live"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/notifications"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/observability"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/persistence"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/repository"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/service"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/worker"
)

const shutdownTimeout = 10 * time.Second

// stores groups the repositories of the selected backend.
type stores struct {
	tickets repository.TicketRepository
	history repository.TicketHistoryRepository
	users   repository.UserRepository
	watcher repository.TicketWatcher
	checks  map[string]handlers.Pinger
	close   func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	st, err := openStores(ctx, cfg, redis, dispatcher, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}
	defer st.close()

	objects, err := persistence.NewStorage(ctx, cfg.Blob, logger)
	if err != nil {
		logger.Fatal("failed to open blob storage", zap.Error(err))
	}
	defer objects.Close()
	blobStore := blob.NewGCSStore(objects.Bucket(), cfg.Blob.Bucket, cfg.Blob.PublicBaseURL)

	checks := st.checks
	checks["redis"] = redis
	checks["storage"] = objects

	revocations := repository.NewTokenRevocationRepository(redis.Client)
	preferences := repository.NewPreferencesRepository(redis.Client)

	notificationService := service.NewNotificationService(dispatcher, notifications.NewEmailProvider(cfg.Notification, logger), logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:          st.users,
		PasswordResetRepo: repository.NewPasswordResetRepository(redis.Client),
		RevocationRepo:    revocations,
		PreferencesRepo:   preferences,
		Notifier:          notificationService,
		Logger:            logger,
	})
	preferencesService := service.NewPreferencesService(preferences, cfg.UI)
	ticketService := service.NewTicketService(cfg.Tickets, service.TicketDependencies{
		TicketRepo:  st.tickets,
		HistoryRepo: st.history,
		Attachments: service.NewAttachmentPipeline(blobStore, cfg.Tickets, logger, metrics),
		Dispatcher:  dispatcher,
		Logger:      logger,
		Metrics:     metrics,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), st.users, revocations)

	hub := live.NewHub(st.watcher, cfg.Live.RetryDelay(), logger, metrics)
	hub.Run(ctx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.App.BodyLimit(),
		ErrorHandler: httptransport.ErrorHandler,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, checks),
		Users:          handlers.NewUsersHandler(authService),
		Account:        handlers.NewAccountHandler(authService, preferencesService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		SupportTickets: handlers.NewSupportTicketsHandler(ticketService),
		Live:           handlers.NewLiveHandler(hub, cfg.Live.KeepAlive(), cfg.Live.RetryDelay(), logger),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	// Streams end when the hub closes their channels.
	hub.Close()
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}

func openStores(ctx context.Context, cfg *config.Config, redis *persistence.Redis, dispatcher events.Dispatcher, logger *zap.Logger) (*stores, error) {
	switch cfg.Store.Backend {
	case config.BackendFirestore:
		fs, err := persistence.NewFirestore(ctx, cfg.Firestore, logger)
		if err != nil {
			return nil, err
		}
		tickets := repository.NewFirestoreTicketRepository(fs.Client, cfg.Firestore.TicketsCollection, cfg.Firestore.CountersCollection)
		return &stores{
			tickets: tickets,
			history: repository.NewFirestoreTicketHistoryRepository(fs.Client, cfg.Firestore.TicketsCollection),
			users:   repository.NewFirestoreUserRepository(fs.Client, cfg.Firestore.UsersCollection),
			watcher: tickets,
			checks:  map[string]handlers.Pinger{"firestore": fs},
			close:   fs.Close,
		}, nil

	default:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				pg.Close()
				return nil, err
			}
		}
		pool := pg.PoolHandle()
		tickets := repository.NewTicketRepository(pool)
		feed := repository.NewRedisChangeFeed(redis.Client, tickets, cfg.Tickets.ChangeChannel)
		worker.StartChangeRelay(dispatcher, feed, logger)
		return &stores{
			tickets: tickets,
			history: repository.NewTicketHistoryRepository(pool),
			users:   repository.NewUserRepository(pool),
			watcher: feed,
			checks:  map[string]handlers.Pinger{"postgres": pg},
			close:   pg.Close,
		}, nil
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
