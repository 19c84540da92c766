package hostingaggregator

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/hosting-aggregator/internal/config"
	"github.com/magabrotheeeer/hosting-aggregator/internal/lib/jwt"
	"github.com/magabrotheeeer/hosting-aggregator/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/hosting-aggregator/internal/migrations"
	"github.com/magabrotheeeer/hosting-aggregator/internal/panel"
	monitorservice "github.com/magabrotheeeer/hosting-aggregator/internal/services/monitor"
	orderservice "github.com/magabrotheeeer/hosting-aggregator/internal/services/order"
	provisionservice "github.com/magabrotheeeer/hosting-aggregator/internal/services/provision"
	schedulerservice "github.com/magabrotheeeer/hosting-aggregator/internal/services/scheduler"
	"github.com/magabrotheeeer/hosting-aggregator/internal/storage/cache"
	"github.com/magabrotheeeer/hosting-aggregator/internal/storage/repository"
)

// App — основное приложение: HTTP API, кеш сверки серверов
// и планировщик подписок в одном процессе.
type App struct {
	server    *http.Server
	logger    *slog.Logger
	db        *repository.Storage
	cache     *cache.Cache
	conn      *amqp.Connection
	ch        *amqp.Channel
	monitor   *monitorservice.MonitorService
	scheduler *schedulerservice.SchedulerService
	cfg       *config.Config
}

// New собирает приложение: хранилище, миграции, кеш, клиенты панели
// и брокера, сервисы и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	notifier := rabbitmq.NewNotifier(ch)

	panelClient := panel.New(cfg.Panel.BaseURL, cfg.Panel.APIKey)
	tokenMaker := jwt.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	provisionService := provisionservice.NewProvisionService(panelClient, cfg, logger)
	orderService := orderservice.NewOrderService(db, cacheRedis, provisionService, logger)
	monitorService := monitorservice.NewMonitorService(panelClient, orderService, logger)
	schedulerService := schedulerservice.NewSchedulerService(monitorService, panelClient, orderService, notifier, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, tokenMaker, orderService, monitorService, schedulerService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:    srv,
		logger:    logger,
		db:        db,
		cache:     cacheRedis,
		conn:      conn,
		ch:        ch,
		monitor:   monitorService,
		scheduler: schedulerService,
		cfg:       cfg,
	}, nil
}

// Run запускает фоновые задачи и HTTP-сервер и блокируется до остановки.
func (a *App) Run(ctx context.Context) error {
	a.monitor.StartMonitoring(ctx, a.cfg.MonitorInterval)
	a.scheduler.StartScheduler(ctx, a.cfg.SchedulerInterval)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		a.scheduler.StopScheduler()
		a.monitor.StopMonitoring()
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.ch.Close(); closeErr != nil {
			a.logger.Error("failed to close channel", slog.Any("err", closeErr))
		}
		if closeErr := a.conn.Close(); closeErr != nil {
			a.logger.Error("failed to close connection", slog.Any("err", closeErr))
		}
		_ = a.db.DB.Close()
		return err
	}
}
