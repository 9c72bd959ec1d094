package handler

import (
	"errors"
	"net/http"

	"github.com/SergeiKhy/qr-manager/internal/repository"
	"github.com/SergeiKhy/qr-manager/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AdminHandler struct {
	qrService     service.QRCodeService
	expiryService *service.ExpiryService
	logger        *zap.Logger
}

func NewAdminHandler(qrService service.QRCodeService, expiryService *service.ExpiryService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		qrService:     qrService,
		expiryService: expiryService,
		logger:        logger,
	}
}

type ResolveRequest struct {
	Action string `json:"action" binding:"required,oneof=activate block"`
}

// ListReported godoc
// @Summary List reported QR codes
// @Description Moderation queue ordered by most recently reported
// @Tags admin
// @Produce json
// @Success 200 {array} models.QRCode
// @Router /api/v1/admin/reported [get]
// @Security ApiKeyAuth
func (h *AdminHandler) ListReported(c *gin.Context) {
	codes, err := h.qrService.ListReported(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list reported qr codes", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list reported QR codes",
		})
		return
	}

	c.JSON(http.StatusOK, codes)
}

// Resolve godoc
// @Summary Resolve a reported QR code
// @Description Two-valued moderation action: activate restores the code, block is terminal
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "QR code id"
// @Param request body ResolveRequest true "Moderation action"
// @Success 200 {object} map[string]string
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/admin/qrcodes/{id}/resolve [post]
// @Security ApiKeyAuth
func (h *AdminHandler) Resolve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "QR code id must be a valid UUID",
		})
		return
	}

	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_action",
			Message: "Action must be activate or block",
		})
		return
	}

	if err := h.qrService.Resolve(c.Request.Context(), id, req.Action); err != nil {
		switch {
		case errors.Is(err, repository.ErrQRCodeNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "QR code not found",
			})
		case errors.Is(err, service.ErrInvalidAction):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_action",
				Message: "Action must be activate or block",
			})
		default:
			h.logger.Error("Failed to resolve report", zap.String("qr_code_id", id.String()), zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "internal_error",
				Message: "Failed to resolve report",
			})
		}
		return
	}

	message := "QR code reactivated successfully"
	if req.Action == service.ActionBlock {
		message = "QR code blocked successfully"
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

// RunExpiryCheck godoc
// @Summary Run the expiry check
// @Description Manually trigger one run of the expiry state machine
// @Tags admin
// @Produce json
// @Success 200 {object} service.ExpirySummary
// @Router /api/v1/admin/expiry-check [post]
// @Security ApiKeyAuth
func (h *AdminHandler) RunExpiryCheck(c *gin.Context) {
	summary, err := h.expiryService.RunCheck(c.Request.Context())
	if err != nil {
		h.logger.Error("Expiry check failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Expiry check failed",
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}
