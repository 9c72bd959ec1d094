package handler

import (
	"net/http"

	"github.com/SergeiKhy/qr-manager/internal/middleware"
	"github.com/SergeiKhy/qr-manager/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterDeps зависимости роутера
type RouterDeps struct {
	QRService      service.QRCodeService
	RedirectSvc    service.RedirectService
	ScanProcessor  service.ScanProcessor
	PaymentService service.PaymentService
	ExpiryService  *service.ExpiryService
	RateLimiter    *middleware.RateLimiter
	JWTSecret      string
	AdminAPIKeys   map[string]string
	BaseURL        string
	Logger         *zap.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.Default()
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// Middleware для логгирования
	router.Use(func(c *gin.Context) {
		logger.Info("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("ip", c.ClientIP()),
		)
		c.Next()
	})

	// Rate limiting для всех запросов
	if deps.RateLimiter != nil {
		router.Use(deps.RateLimiter.Middleware())
	}

	// Инициализация обработчиков
	qrHandler := NewQRCodeHandler(deps.QRService, deps.ScanProcessor, deps.BaseURL, logger)
	redirectHandler := NewRedirectHandler(deps.RedirectSvc, logger)
	reportHandler := NewReportHandler(deps.QRService, logger)
	paymentHandler := NewPaymentHandler(deps.PaymentService, logger)
	adminHandler := NewAdminHandler(deps.QRService, deps.ExpiryService, logger)

	// API v.1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", HealthCheck)

		// Эндпоинты владельца под JWT
		authorized := v1.Group("/")
		authorized.Use(middleware.RequireAuth(deps.JWTSecret))
		{
			authorized.POST("/qrcodes", qrHandler.CreateQRCode)
			authorized.GET("/qrcodes", qrHandler.ListQRCodes)
			authorized.GET("/qrcodes/:id", qrHandler.GetQRCode)
			authorized.PUT("/qrcodes/:id", qrHandler.UpdateQRCode)
			authorized.DELETE("/qrcodes/:id", qrHandler.DeleteQRCode)
			authorized.GET("/qrcodes/:id/design", qrHandler.GetDesign)
			authorized.POST("/qrcodes/:id/duplicate", qrHandler.DuplicateQRCode)
			authorized.GET("/qrcodes/:id/analytics", qrHandler.GetAnalytics)
			authorized.GET("/qrcodes/:id/analytics/daily", qrHandler.GetDailyAnalytics)
			authorized.POST("/create-payment-order", paymentHandler.CreateOrder)
		}

		// Операторские эндпоинты под API key
		admin := v1.Group("/admin")
		admin.Use(middleware.RequireOperatorKey(deps.AdminAPIKeys))
		{
			admin.GET("/reported", adminHandler.ListReported)
			admin.POST("/qrcodes/:id/resolve", adminHandler.Resolve)
			admin.POST("/expiry-check", adminHandler.RunExpiryCheck)
		}
	}

	// Публичные эндпоинты сканера: без аутентификации
	router.POST("/report", reportHandler.Report)
	router.POST("/payment-webhook", paymentHandler.Webhook)

	// Редирект (корневой путь)
	router.GET("/:code", redirectHandler.Redirect)

	// Swagger документация (без аутентификации)
	AddSwaggerRoutes(router)

	return router
}

// HealthCheck godoc
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/v1/health [get]
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
