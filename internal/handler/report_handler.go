package handler

import (
	"errors"
	"net/http"

	"github.com/SergeiKhy/qr-manager/internal/repository"
	"github.com/SergeiKhy/qr-manager/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReportHandler struct {
	service service.QRCodeService
	logger  *zap.Logger
}

func NewReportHandler(service service.QRCodeService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger,
	}
}

type ReportRequest struct {
	ShortCode string `json:"shortCode" binding:"required"`
	Reason    string `json:"reason"`
}

type ReportResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Report godoc
// @Summary Report a QR code
// @Description Flag a QR code as abusive; moves it to the moderation queue
// @Tags report
// @Accept json
// @Produce json
// @Param request body ReportRequest true "Report request"
// @Success 200 {object} ReportResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /report [post]
func (h *ReportHandler) Report(c *gin.Context) {
	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Short code is required",
		})
		return
	}

	err := h.service.Report(c.Request.Context(), req.ShortCode, req.Reason)
	if err != nil {
		if errors.Is(err, repository.ErrQRCodeNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "QR code not found",
			})
			return
		}
		h.logger.Error("Failed to report qr code", zap.String("short_code", req.ShortCode), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to report QR code",
		})
		return
	}

	c.JSON(http.StatusOK, ReportResponse{
		Success: true,
		Message: "QR code reported successfully. Thank you for helping keep our platform safe.",
	})
}
