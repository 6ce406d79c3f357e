package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	blockResourceHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/block_resource"
	cancelAssignmentHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/cancel_assignment"
	checkAvailabilityHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/check_availability"
	confirmBookingHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/confirm_booking"
	createAssignmentHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/create_assignment"
	findOverlapsHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/find_overlaps"
	getAssignmentHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/get_assignment"
	getSummaryHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/get_availability_summary"
	getScheduleHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/get_resource_schedule"
	releaseBookingHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/release_booking"
	releaseCapacityHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/release_capacity"
	reserveCapacityHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/reserve_capacity"
	sweepHoldsHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/sweep_holds"
	unblockResourceHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/unblock_resource"
	updateAssignmentHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/update_assignment"
	"github.com/m04kA/SMC-AvailabilityService/internal/api/middleware"
	"github.com/m04kA/SMC-AvailabilityService/internal/config"
	"github.com/m04kA/SMC-AvailabilityService/internal/infra/lease"
	assignmentRepo "github.com/m04kA/SMC-AvailabilityService/internal/infra/storage/assignment"
	holdRepo "github.com/m04kA/SMC-AvailabilityService/internal/infra/storage/hold"
	slotRepo "github.com/m04kA/SMC-AvailabilityService/internal/infra/storage/slot"
	assignmentsService "github.com/m04kA/SMC-AvailabilityService/internal/service/assignments"
	availabilityService "github.com/m04kA/SMC-AvailabilityService/internal/service/availability"
	blocksService "github.com/m04kA/SMC-AvailabilityService/internal/service/blocks"
	expiryService "github.com/m04kA/SMC-AvailabilityService/internal/service/expiry"
	reservationsService "github.com/m04kA/SMC-AvailabilityService/internal/service/reservations"
	"github.com/m04kA/SMC-AvailabilityService/migrations"
	"github.com/m04kA/SMC-AvailabilityService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AvailabilityService/pkg/logger"
	"github.com/m04kA/SMC-AvailabilityService/pkg/metrics"
	"github.com/m04kA/SMC-AvailabilityService/pkg/txmanager"
)

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

	log.Info("Starting SMC-AvailabilityService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены); nil-коллектор безопасен
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Применяем миграции
	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), time.Minute)
	if err := migrations.Apply(migrateCtx, db); err != nil {
		migrateCancel()
		log.Fatal("Failed to apply migrations: %v", err)
	}
	migrateCancel()
	log.Info("Database migrations applied")

	// Обёртка БД: метрики запросов и пула (без метрик только проброс вызовов)
	var wrappedDB *dbmetrics.DB
	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")
	} else {
		wrappedDB = dbmetrics.Wrap(db, nil, cfg.Metrics.ServiceName)
	}

	txMgr := txmanager.NewTransactionManager(wrappedDB, txmanager.Config{
		Timeout:      cfg.Database.TxTimeout(),
		LockTimeout:  cfg.Database.LockTimeout(),
		MaxRetries:   cfg.Database.MaxRetries,
		RetryBackoff: cfg.Database.RetryBackoff(),
	}, metricsCollector)

	// Инициализируем репозитории
	slotRepository := slotRepo.NewRepository(wrappedDB)
	holdRepository := holdRepo.NewRepository(wrappedDB)
	assignmentRepository := assignmentRepo.NewRepository(wrappedDB)

	// Инициализируем сервисы
	defaultCapacities := cfg.Engine.DefaultCapacities()

	reservationSvc := reservationsService.NewService(
		slotRepository,
		holdRepository,
		txMgr,
		metricsCollector,
		reservationsService.Config{
			HoldTTL:         cfg.Engine.HoldTTL(),
			DefaultCapacity: defaultCapacities,
		},
		log,
	)
	assignmentSvc := assignmentsService.NewService(
		assignmentRepository,
		slotRepository,
		txMgr,
		metricsCollector,
		assignmentsService.Config{MaxRangeDays: cfg.Engine.MaxRangeDays},
		log,
	)
	blockSvc := blocksService.NewService(
		slotRepository,
		txMgr,
		blocksService.Config{
			MaxRangeDays:    cfg.Engine.MaxRangeDays,
			DefaultCapacity: defaultCapacities,
		},
		log,
	)
	availabilitySvc := availabilityService.NewService(slotRepository, cfg.Engine.MaxRangeDays, log)

	// Аренда sweep в Redis нужна только при нескольких экземплярах сервиса
	var sweepLease expiryService.Lease
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			pingCancel()
			log.Fatal("Failed to ping redis: %v", err)
		}
		pingCancel()

		sweepLease = lease.New(
			redisClient,
			cfg.Redis.SweepLeaseKey,
			time.Duration(cfg.Redis.SweepLeaseTTLSeconds)*time.Second,
		)
		log.Info("Sweep lease enabled (redis=%s, key=%s)", cfg.Redis.Addr, cfg.Redis.SweepLeaseKey)
	}

	expirySvc := expiryService.NewService(
		holdRepository,
		reservationSvc,
		sweepLease,
		metricsCollector,
		expiryService.Config{
			Interval:  cfg.Engine.SweepInterval(),
			BatchSize: cfg.Engine.SweepBatchSize,
		},
		log,
	)

	// Фоновая очистка истёкших холдов
	workerCtx, stopWorker := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	if cfg.Engine.SweepEnabled {
		go func() {
			defer close(workerDone)
			if err := expirySvc.Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("Expiry worker stopped: %v", err)
			}
		}()
		log.Info("Expiry worker started (interval=%s, batch=%d)", cfg.Engine.SweepInterval(), cfg.Engine.SweepBatchSize)
	} else {
		close(workerDone)
	}

	// Инициализируем handlers
	reserveCapacity := reserveCapacityHandler.NewHandler(reservationSvc, log)
	releaseCapacity := releaseCapacityHandler.NewHandler(reservationSvc, log)
	releaseBooking := releaseBookingHandler.NewHandler(reservationSvc, log)
	confirmBooking := confirmBookingHandler.NewHandler(reservationSvc, log)
	checkAvailability := checkAvailabilityHandler.NewHandler(availabilitySvc, log)
	getSummary := getSummaryHandler.NewHandler(availabilitySvc, log)
	getSchedule := getScheduleHandler.NewHandler(availabilitySvc, log)
	blockResource := blockResourceHandler.NewHandler(blockSvc, log)
	unblockResource := unblockResourceHandler.NewHandler(blockSvc, log)
	findOverlaps := findOverlapsHandler.NewHandler(assignmentSvc, log)
	createAssignment := createAssignmentHandler.NewHandler(assignmentSvc, log)
	getAssignment := getAssignmentHandler.NewHandler(assignmentSvc, log)
	updateAssignment := updateAssignmentHandler.NewHandler(assignmentSvc, log)
	cancelAssignment := cancelAssignmentHandler.NewHandler(assignmentSvc, log)
	sweepHolds := sweepHoldsHandler.NewHandler(expirySvc, &reservationsService.RealTimeProvider{}, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		log.Info("HTTP metrics middleware enabled")

		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	if cfg.Server.RateLimitPerSec > 0 {
		api.Use(middleware.RateLimit(middleware.NewIPRateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)))
		log.Info("Rate limit enabled: %.1f req/s per IP, burst %d", cfg.Server.RateLimitPerSec, cfg.Server.RateLimitBurst)
	}

	// --- Резервирование емкости ---
	api.HandleFunc("/reservations", reserveCapacity.Handle).Methods(http.MethodPost)
	api.HandleFunc("/reservations/release", releaseCapacity.Handle).Methods(http.MethodPost)

	// --- Жизненный цикл бронирования ---
	api.HandleFunc("/bookings/{bookingId}/confirm", confirmBooking.Handle).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{bookingId}/release", releaseBooking.Handle).Methods(http.MethodPost)
	api.HandleFunc("/holds/sweep", sweepHolds.Handle).Methods(http.MethodPost)

	// --- Доступность ---
	api.HandleFunc("/availability", checkAvailability.Handle).Methods(http.MethodGet)

	summary := http.Handler(http.HandlerFunc(getSummary.Handle))
	if cfg.Engine.SummaryCacheSeconds > 0 {
		ttl := time.Duration(cfg.Engine.SummaryCacheSeconds) * time.Second
		summary = middleware.Cache(cache.New(ttl, 2*ttl), ttl)(summary)
		log.Info("Availability summary cache enabled (ttl=%s)", ttl)
	}
	api.Handle("/availability/summary", summary).Methods(http.MethodGet)

	// --- Ресурсы: расписание, блокировки, назначения ---
	api.HandleFunc("/resources/{resourceType}/{resourceId}/schedule", getSchedule.Handle).Methods(http.MethodGet)
	api.HandleFunc("/resources/{resourceType}/{resourceId}/blocks", blockResource.Handle).Methods(http.MethodPost)
	api.HandleFunc("/resources/{resourceType}/{resourceId}/blocks", unblockResource.Handle).Methods(http.MethodDelete)
	api.HandleFunc("/resources/{resourceType}/{resourceId}/assignments", findOverlaps.Handle).Methods(http.MethodGet)

	// --- Эксклюзивные назначения ---
	api.HandleFunc("/assignments", createAssignment.Handle).Methods(http.MethodPost)
	api.HandleFunc("/assignments/{assignmentId}", getAssignment.Handle).Methods(http.MethodGet)
	api.HandleFunc("/assignments/{assignmentId}", updateAssignment.Handle).Methods(http.MethodPatch)
	api.HandleFunc("/assignments/{assignmentId}/cancel", cancelAssignment.Handle).Methods(http.MethodPatch)

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// Останавливаем воркер после HTTP: текущий тик доводится до конца
	stopWorker()
	select {
	case <-workerDone:
		log.Info("Expiry worker stopped")
	case <-shutdownCtx.Done():
		log.Warn("Expiry worker did not stop before shutdown timeout")
	}

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	log.Info("Server stopped gracefully")
}
