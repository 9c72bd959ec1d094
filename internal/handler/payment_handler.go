package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/SergeiKhy/qr-manager/internal/middleware"
	"github.com/SergeiKhy/qr-manager/internal/repository"
	"github.com/SergeiKhy/qr-manager/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Заголовок подписи webhook Razorpay
const signatureHeader = "X-Razorpay-Signature"

type PaymentHandler struct {
	service service.PaymentService
	logger  *zap.Logger
}

func NewPaymentHandler(service service.PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		logger:  logger,
	}
}

type CreateOrderRequest struct {
	QRCodeID string `json:"qr_code_id" binding:"required,uuid"`
}

// CreateOrder godoc
// @Summary Create a payment order
// @Description Create a gateway order to upgrade a QR code; requires ownership
// @Tags payments
// @Accept json
// @Produce json
// @Param request body CreateOrderRequest true "Order creation request"
// @Success 200 {object} service.OrderDetails
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/create-payment-order [post]
// @Security BearerAuth
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Authentication required"})
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "qr_code_id is required",
		})
		return
	}
	qrCodeID, _ := uuid.Parse(req.QRCodeID)

	order, err := h.service.CreateOrder(c.Request.Context(), qrCodeID, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrQRCodeNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "QR code not found or you don't have access",
			})
		case errors.Is(err, service.ErrAlreadyActive):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "already_active",
				Message: "This QR code is already active",
			})
		default:
			h.logger.Error("Failed to create payment order", zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "internal_error",
				Message: "Failed to create payment order",
			})
		}
		return
	}

	c.JSON(http.StatusOK, order)
}

// Webhook godoc
// @Summary Payment gateway webhook
// @Description HMAC-verified gateway notification; after a valid signature the response is always 200
// @Tags payments
// @Accept json
// @Produce plain
// @Param x-razorpay-signature header string true "HMAC-SHA256 signature of the raw body"
// @Success 200 {string} string "ok"
// @Failure 401 {string} string "Unauthorized"
// @Router /payment-webhook [post]
func (h *PaymentHandler) Webhook(c *gin.Context) {
	signature := c.GetHeader(signatureHeader)
	if signature == "" {
		h.logger.Warn("Webhook without signature header")
		c.String(http.StatusUnauthorized, "Unauthorized")
		return
	}

	// Подпись считается от сырого тела, поэтому никакого ShouldBindJSON
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Error("Failed to read webhook body", zap.Error(err))
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.service.HandleWebhook(c.Request.Context(), body, signature); err != nil {
		// Единственная ошибка, которую отдаём шлюзу — невалидная подпись.
		// Всё после верификации сервис глотает и логирует сам.
		c.String(http.StatusUnauthorized, "Unauthorized")
		return
	}

	c.String(http.StatusOK, "ok")
}
