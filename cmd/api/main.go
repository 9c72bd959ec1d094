package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SergeiKhy/qr-manager/internal/config"
	"github.com/SergeiKhy/qr-manager/internal/gateway"
	"github.com/SergeiKhy/qr-manager/internal/handler"
	"github.com/SergeiKhy/qr-manager/internal/middleware"
	"github.com/SergeiKhy/qr-manager/internal/repository"
	"github.com/SergeiKhy/qr-manager/internal/service"
	"go.uber.org/zap"
)

func main() {
	// Загрузка конфига
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Подключение к БД (postgres)
	db, err := repository.NewPostgresDB(cfg.DB)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	// Подключение к Redis
	redis, err := repository.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redis.Close()
	logger.Info("Connected to Redis")

	// Инициализация репозиториев
	qrRepo := repository.NewQRCodeRepository(db)
	designRepo := repository.NewDesignRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	cacheRepo := repository.NewCacheRepository(redis)

	// Инициализация сервисов
	generator := service.NewShortCodeGenerator(qrRepo)
	qrService := service.NewQRCodeService(qrRepo, designRepo, cacheRepo, generator, logger)

	// Процессор сканов (Worker Pool)
	scanProcessor := service.NewScanProcessor(analyticsRepo, logger)
	scanProcessor.Start()
	defer scanProcessor.Stop()

	redirectService := service.NewRedirectService(qrRepo, cacheRepo, scanProcessor, logger)

	// Платёжный шлюз и сервис
	razorpay := gateway.NewRazorpayClient(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)
	paymentService := service.NewPaymentService(qrRepo, paymentRepo, cacheRepo, razorpay, cfg.Razorpay.WebhookSecret, logger)

	// Планировщик истечения: работает параллельно с трафиком редиректов
	expiryService := service.NewExpiryService(qrRepo, cfg.Expiry.CheckInterval, logger)
	expiryService.Start()
	defer expiryService.Stop()

	// Инициализация middleware
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.BurstSize,
		CleanupInterval:   time.Minute,
	})

	// Настройка роутера
	router := handler.NewRouter(handler.RouterDeps{
		QRService:      qrService,
		RedirectSvc:    redirectService,
		ScanProcessor:  scanProcessor,
		PaymentService: paymentService,
		ExpiryService:  expiryService,
		RateLimiter:    rateLimiter,
		JWTSecret:      cfg.Auth.JWTSecret,
		AdminAPIKeys:   cfg.Auth.AdminAPIKeys,
		BaseURL:        cfg.App.BaseURL,
		Logger:         logger,
	})

	// Запуск сервера
	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск в горутине
	go func() {
		logger.Info("Server starting", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
