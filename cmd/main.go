package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-ConsultationService/internal/api/handlers"
	cancelBookingHandler "github.com/m04kA/SMC-ConsultationService/internal/api/handlers/cancel_booking"
	createBookingHandler "github.com/m04kA/SMC-ConsultationService/internal/api/handlers/create_booking"
	getAvailabilityHandler "github.com/m04kA/SMC-ConsultationService/internal/api/handlers/get_availability"
	getBookingHandler "github.com/m04kA/SMC-ConsultationService/internal/api/handlers/get_booking"
	getClientBookingsHandler "github.com/m04kA/SMC-ConsultationService/internal/api/handlers/get_client_bookings"
	getClientUsageHandler "github.com/m04kA/SMC-ConsultationService/internal/api/handlers/get_client_usage"
	getProviderBookingsHandler "github.com/m04kA/SMC-ConsultationService/internal/api/handlers/get_provider_bookings"
	getProviderScheduleHandler "github.com/m04kA/SMC-ConsultationService/internal/api/handlers/get_provider_schedule"
	updateBookingStatusHandler "github.com/m04kA/SMC-ConsultationService/internal/api/handlers/update_booking_status"
	updateProviderScheduleHandler "github.com/m04kA/SMC-ConsultationService/internal/api/handlers/update_provider_schedule"
	updateSubscriptionHandler "github.com/m04kA/SMC-ConsultationService/internal/api/handlers/update_subscription"
	"github.com/m04kA/SMC-ConsultationService/internal/api/middleware"
	"github.com/m04kA/SMC-ConsultationService/internal/config"
	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/internal/infra/events"
	bookingRepo "github.com/m04kA/SMC-ConsultationService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-ConsultationService/internal/infra/storage/memory"
	scheduleRepo "github.com/m04kA/SMC-ConsultationService/internal/infra/storage/schedule"
	usageRepo "github.com/m04kA/SMC-ConsultationService/internal/infra/storage/usage"
	"github.com/m04kA/SMC-ConsultationService/internal/integrations/providerdirectory"
	bookingsService "github.com/m04kA/SMC-ConsultationService/internal/service/bookings"
	scheduleService "github.com/m04kA/SMC-ConsultationService/internal/service/schedule"
	subscriptionsService "github.com/m04kA/SMC-ConsultationService/internal/service/subscriptions"
	createBookingUC "github.com/m04kA/SMC-ConsultationService/internal/usecase/create_booking"
	getAvailabilityUC "github.com/m04kA/SMC-ConsultationService/internal/usecase/get_availability"
	"github.com/m04kA/SMC-ConsultationService/migrations"
	"github.com/m04kA/SMC-ConsultationService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ConsultationService/pkg/logger"
	"github.com/m04kA/SMC-ConsultationService/pkg/metrics"
	"github.com/m04kA/SMC-ConsultationService/pkg/txmanager"
	"github.com/m04kA/SMC-ConsultationService/pkg/types"
)

// Интерфейсы хранилища, общие для postgres и memory
type (
	bookingStore interface {
		createBookingUC.BookingRepository
		bookingsService.BookingRepository
	}
	usageStore interface {
		createBookingUC.UsageRepository
		bookingsService.UsageRepository
		subscriptionsService.UsageRepository
	}
	txManager interface {
		Do(ctx context.Context, fn func(ctx context.Context) error) error
		DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	}
)

type storage struct {
	bookings  bookingStore
	usage     usageStore
	schedules scheduleService.ScheduleRepository
	tx        txManager
	close     func()
}

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-ConsultationService...")

	location, err := cfg.Booking.Location()
	if err != nil {
		log.Fatal("Invalid booking timezone: %v", err)
	}

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	stopMetricsCh := make(chan struct{})

	// Хранилище
	var store *storage
	switch cfg.Database.Driver {
	case config.DriverMemory:
		store = newMemoryStorage()
		log.Warn("Using in-memory storage: data is lost on restart")
	default:
		store, err = newPostgresStorage(cfg, metricsCollector, stopMetricsCh, log)
		if err != nil {
			log.Fatal("Failed to initialize database: %v", err)
		}
	}
	defer store.close()

	// Справочник провайдеров
	var directory providerdirectory.Directory
	if len(cfg.ProviderDirectory.Static) > 0 {
		directory = providerdirectory.NewStatic(staticProviders(cfg.ProviderDirectory.Static))
		log.Info("Provider directory: %d static providers", len(cfg.ProviderDirectory.Static))
	} else {
		directory = providerdirectory.NewClient(
			cfg.ProviderDirectory.URL,
			time.Duration(cfg.ProviderDirectory.Timeout)*time.Second,
			log,
		)
		log.Info("Provider directory client initialized (url=%s timeout=%ds)",
			cfg.ProviderDirectory.URL, cfg.ProviderDirectory.Timeout)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			// Без кэша сервис работает, просто чаще ходит в справочник
			log.Warn("Redis is not reachable at %s: %v", cfg.Redis.Addr, err)
		}
		cancel()
		directory = providerdirectory.NewCachedDirectory(
			directory,
			redisClient,
			time.Duration(cfg.Redis.CacheTTL)*time.Second,
			log,
		)
		log.Info("Provider cache enabled (redis=%s ttl=%ds)", cfg.Redis.Addr, cfg.Redis.CacheTTL)
	}

	// События
	var publisher events.Publisher = events.Noop{}
	if cfg.Kafka.Enabled {
		kafkaPublisher, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Fatal("Failed to create kafka publisher: %v", err)
		}
		publisher = kafkaPublisher
		log.Info("Kafka publisher enabled (topic=%s)", cfg.Kafka.Topic)
	}

	// Инициализируем сервисы
	scheduleSvc := scheduleService.NewService(
		store.schedules,
		directory,
		cfg.Booking.DefaultSchedule,
		log,
	)
	bookingSvc := bookingsService.NewService(
		store.bookings,
		store.usage,
		directory,
		store.tx,
		publisher,
		cfg.Quota.ReleaseOnCancel,
		log,
	)
	subscriptionSvc := subscriptionsService.NewService(
		store.usage,
		cfg.Catalog(),
		domain.QuotaPeriod(cfg.Quota.Period),
		location,
		log,
	)

	// Инициализируем use cases
	createBookingUseCase := createBookingUC.NewUseCase(
		store.bookings,
		store.usage,
		scheduleSvc,
		store.tx,
		publisher,
		metricsCollector,
		createBookingUC.Settings{
			Catalog:  cfg.Catalog(),
			Period:   domain.QuotaPeriod(cfg.Quota.Period),
			Location: location,
		},
		log,
	)
	getAvailabilityUseCase := getAvailabilityUC.NewUseCase(
		store.bookings,
		scheduleSvc,
		location,
		log,
	)

	// Инициализируем handlers
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	getAvailability := getAvailabilityHandler.NewHandler(getAvailabilityUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)
	updateBookingStatus := updateBookingStatusHandler.NewHandler(bookingSvc, log)
	getClientBookings := getClientBookingsHandler.NewHandler(bookingSvc, log)
	getProviderBookings := getProviderBookingsHandler.NewHandler(bookingSvc, log)
	getClientUsage := getClientUsageHandler.NewHandler(subscriptionSvc, log)
	updateSubscription := updateSubscriptionHandler.NewHandler(subscriptionSvc, log)
	getProviderSchedule := getProviderScheduleHandler.NewHandler(scheduleSvc, log)
	updateProviderSchedule := updateProviderScheduleHandler.NewHandler(scheduleSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.RequestID(log))

	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Действующая сетка специалиста
	api.HandleFunc("/providers/{providerId}/schedule", getProviderSchedule.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Доступность ---
	// Слоты дня с отметками занятости для клиента
	protected.HandleFunc("/providers/{providerId}/availability", getAvailability.Handle).Methods(http.MethodGet)

	// --- Бронирования ---
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/status", updateBookingStatus.Handle).Methods(http.MethodPatch)

	// --- Клиент ---
	protected.HandleFunc("/clients/{clientId}/bookings", getClientBookings.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/clients/{clientId}/usage", getClientUsage.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/clients/{clientId}/subscription", updateSubscription.Handle).Methods(http.MethodPut)

	// --- Кабинет специалиста ---
	protected.HandleFunc("/providers/{providerId}/bookings", getProviderBookings.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/providers/{providerId}/schedule", updateProviderSchedule.Handle).Methods(http.MethodPut)
	protected.HandleFunc("/providers/{providerId}/schedule", updateProviderSchedule.HandleReset).Methods(http.MethodDelete)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	close(stopMetricsCh)

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	if err := publisher.Close(); err != nil {
		log.Error("Failed to close event publisher: %v", err)
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close redis client: %v", err)
		}
	}

	log.Info("Server stopped gracefully")
}

func newMemoryStorage() *storage {
	store := memory.NewStore()
	return &storage{
		bookings:  store.Bookings(),
		usage:     store.Usage(),
		schedules: store.Schedules(),
		tx:        store.TxManager(),
		close:     func() {},
	}
}

func newPostgresStorage(cfg *config.Config, m *metrics.Metrics, stopCh <-chan struct{}, log *logger.Logger) (*storage, error) {
	if cfg.Database.AutoMigrate {
		if err := migrations.Up(cfg.Database.URL()); err != nil {
			return nil, err
		}
		log.Info("Database migrations applied")
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Обёртка нужна менеджеру транзакций и без метрик: nil-коллектор ничего не пишет
	var wrapped *dbmetrics.DB
	if m != nil {
		wrapped = dbmetrics.WrapWithDefault(db, m, stopCh)
		log.Info("Database metrics collection started")
	} else {
		wrapped = dbmetrics.Wrap(db, nil)
	}

	return &storage{
		bookings:  bookingRepo.NewRepository(wrapped),
		usage:     usageRepo.NewRepository(wrapped),
		schedules: scheduleRepo.NewRepository(wrapped),
		tx: txmanager.NewTransactionManager(
			wrapped,
			txmanager.WithMaxRetries(cfg.Database.TxMaxRetries),
			txmanager.WithRetryHook(m.IncTxRetry),
		),
		close: func() { _ = db.Close() },
	}, nil
}

func staticProviders(list []config.StaticProviderConfig) []domain.Provider {
	providers := make([]domain.Provider, 0, len(list))
	for _, p := range list {
		provider := domain.Provider{
			ID:         p.ID,
			UserID:     p.UserID,
			Name:       p.Name,
			SessionFee: p.SessionFee,
			IsActive:   true,
		}
		if p.OpenTime != "" && p.CloseTime != "" {
			open, closeAt := types.TimeString(p.OpenTime), types.TimeString(p.CloseTime)
			provider.OpenTime, provider.CloseTime = &open, &closeAt
		}
		providers = append(providers, provider)
	}
	return providers
}
