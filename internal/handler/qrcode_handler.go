package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/SergeiKhy/qr-manager/internal/middleware"
	"github.com/SergeiKhy/qr-manager/internal/models"
	"github.com/SergeiKhy/qr-manager/internal/repository"
	"github.com/SergeiKhy/qr-manager/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type QRCodeHandler struct {
	service       service.QRCodeService
	scanProcessor service.ScanProcessor
	baseURL       string
	logger        *zap.Logger
}

func NewQRCodeHandler(service service.QRCodeService, scanProcessor service.ScanProcessor, baseURL string, logger *zap.Logger) *QRCodeHandler {
	return &QRCodeHandler{
		service:       service,
		scanProcessor: scanProcessor,
		baseURL:       baseURL,
		logger:        logger,
	}
}

type CreateQRCodeRequest struct {
	Name           string              `json:"name" binding:"required"`
	Type           string              `json:"type" binding:"required,oneof=static dynamic"`
	DestinationURL string              `json:"destination_url" binding:"required,url"`
	Design         *models.DesignInput `json:"design,omitempty"`
}

type UpdateQRCodeRequest struct {
	Name           *string             `json:"name,omitempty"`
	DestinationURL *string             `json:"destination_url,omitempty"`
	Design         *models.DesignInput `json:"design,omitempty"`
}

type QRCodeResponse struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	Type             string     `json:"type"`
	ShortURL         *string    `json:"short_url,omitempty"`
	ShortRedirectURL string     `json:"short_redirect_url,omitempty"`
	DestinationURL   string     `json:"destination_url"`
	Status           string     `json:"status"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (h *QRCodeHandler) toResponse(qr *models.QRCode) QRCodeResponse {
	resp := QRCodeResponse{
		ID:             qr.ID,
		Name:           qr.Name,
		Type:           qr.Type,
		ShortURL:       qr.ShortURL,
		DestinationURL: qr.DestinationURL,
		Status:         qr.Status,
		ExpiresAt:      qr.ExpiresAt,
		CreatedAt:      qr.CreatedAt,
		UpdatedAt:      qr.UpdatedAt,
	}
	if qr.ShortURL != nil {
		resp.ShortRedirectURL = h.baseURL + "/" + *qr.ShortURL
	}
	return resp
}

// CreateQRCode godoc
// @Summary Create a QR code
// @Description Create a static or dynamic QR code; dynamic codes start a 30-day trial
// @Tags qrcodes
// @Accept json
// @Produce json
// @Param request body CreateQRCodeRequest true "QR code creation request"
// @Success 201 {object} QRCodeResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/qrcodes [post]
// @Security BearerAuth
func (h *QRCodeHandler) CreateQRCode(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Authentication required"})
		return
	}

	var req CreateQRCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	qr, err := h.service.Create(c.Request.Context(), &models.CreateQRCodeInput{
		UserID:         userID,
		Name:           req.Name,
		Type:           req.Type,
		DestinationURL: req.DestinationURL,
		Design:         req.Design,
	})
	if err != nil {
		h.handleServiceError(c, err, "Failed to create QR code")
		return
	}

	c.JSON(http.StatusCreated, h.toResponse(qr))
}

// ListQRCodes godoc
// @Summary List own QR codes
// @Tags qrcodes
// @Produce json
// @Success 200 {array} QRCodeResponse
// @Router /api/v1/qrcodes [get]
// @Security BearerAuth
func (h *QRCodeHandler) ListQRCodes(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Authentication required"})
		return
	}

	codes, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list qr codes", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list QR codes",
		})
		return
	}

	responses := make([]QRCodeResponse, 0, len(codes))
	for i := range codes {
		responses = append(responses, h.toResponse(&codes[i]))
	}

	c.JSON(http.StatusOK, responses)
}

// GetQRCode godoc
// @Summary Get a QR code by id
// @Tags qrcodes
// @Produce json
// @Param id path string true "QR code id"
// @Success 200 {object} QRCodeResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/qrcodes/{id} [get]
// @Security BearerAuth
func (h *QRCodeHandler) GetQRCode(c *gin.Context) {
	userID, id, ok := h.parseIDs(c)
	if !ok {
		return
	}

	qr, err := h.service.Get(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err, "Failed to get QR code")
		return
	}

	c.JSON(http.StatusOK, h.toResponse(qr))
}

// UpdateQRCode godoc
// @Summary Update a QR code
// @Description Update name, destination URL or design; the code type is immutable
// @Tags qrcodes
// @Accept json
// @Produce json
// @Param id path string true "QR code id"
// @Param request body UpdateQRCodeRequest true "QR code update request"
// @Success 200 {object} QRCodeResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/qrcodes/{id} [put]
// @Security BearerAuth
func (h *QRCodeHandler) UpdateQRCode(c *gin.Context) {
	userID, id, ok := h.parseIDs(c)
	if !ok {
		return
	}

	var req UpdateQRCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	qr, err := h.service.Update(c.Request.Context(), id, userID, &models.UpdateQRCodeInput{
		Name:           req.Name,
		DestinationURL: req.DestinationURL,
		Design:         req.Design,
	})
	if err != nil {
		h.handleServiceError(c, err, "Failed to update QR code")
		return
	}

	c.JSON(http.StatusOK, h.toResponse(qr))
}

// DeleteQRCode godoc
// @Summary Delete a QR code
// @Tags qrcodes
// @Produce json
// @Param id path string true "QR code id"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/qrcodes/{id} [delete]
// @Security BearerAuth
func (h *QRCodeHandler) DeleteQRCode(c *gin.Context) {
	userID, id, ok := h.parseIDs(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err, "Failed to delete QR code")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "QR code deleted successfully"})
}

// GetDesign godoc
// @Summary Get the design of a QR code
// @Tags qrcodes
// @Produce json
// @Param id path string true "QR code id"
// @Success 200 {object} models.Design
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/qrcodes/{id}/design [get]
// @Security BearerAuth
func (h *QRCodeHandler) GetDesign(c *gin.Context) {
	userID, id, ok := h.parseIDs(c)
	if !ok {
		return
	}

	design, err := h.service.GetDesign(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err, "Failed to get design")
		return
	}

	c.JSON(http.StatusOK, design)
}

// DuplicateQRCode godoc
// @Summary Duplicate a QR code
// @Description Create a copy; a dynamic copy gets a fresh short code and a new trial
// @Tags qrcodes
// @Produce json
// @Param id path string true "QR code id"
// @Success 201 {object} QRCodeResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/qrcodes/{id}/duplicate [post]
// @Security BearerAuth
func (h *QRCodeHandler) DuplicateQRCode(c *gin.Context) {
	userID, id, ok := h.parseIDs(c)
	if !ok {
		return
	}

	qr, err := h.service.Duplicate(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err, "Failed to duplicate QR code")
		return
	}

	c.JSON(http.StatusCreated, h.toResponse(qr))
}

// GetAnalytics godoc
// @Summary Get scan analytics for a QR code
// @Description Total scans plus per-country and per-device breakdowns
// @Tags qrcodes
// @Produce json
// @Param id path string true "QR code id"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/qrcodes/{id}/analytics [get]
// @Security BearerAuth
func (h *QRCodeHandler) GetAnalytics(c *gin.Context) {
	userID, id, ok := h.parseIDs(c)
	if !ok {
		return
	}

	// Владелец подтверждается перед выдачей аналитики
	if _, err := h.service.Get(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err, "Failed to get QR code")
		return
	}

	ctx := c.Request.Context()
	stats, err := h.scanProcessor.GetStats(ctx, id)
	if err != nil {
		h.logger.Error("Failed to get scan stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "Failed to get analytics"})
		return
	}
	countries, err := h.scanProcessor.GetCountryStats(ctx, id)
	if err != nil {
		h.logger.Error("Failed to get country stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "Failed to get analytics"})
		return
	}
	devices, err := h.scanProcessor.GetDeviceStats(ctx, id)
	if err != nil {
		h.logger.Error("Failed to get device stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "Failed to get analytics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_scans": stats.TotalScans,
		"countries":   countries,
		"devices":     devices,
	})
}

// GetDailyAnalytics godoc
// @Summary Get daily scan counts
// @Tags qrcodes
// @Produce json
// @Param id path string true "QR code id"
// @Param days query int false "Number of days" default(7)
// @Success 200 {array} models.DailyScanStats
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/qrcodes/{id}/analytics/daily [get]
// @Security BearerAuth
func (h *QRCodeHandler) GetDailyAnalytics(c *gin.Context) {
	userID, id, ok := h.parseIDs(c)
	if !ok {
		return
	}

	if _, err := h.service.Get(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err, "Failed to get QR code")
		return
	}

	days := 7
	if d := c.Query("days"); d != "" {
		if _, err := fmt.Sscanf(d, "%d", &days); err != nil || days < 1 || days > 90 {
			days = 7
		}
	}

	stats, err := h.scanProcessor.GetDailyStats(c.Request.Context(), id, days)
	if err != nil {
		h.logger.Error("Failed to get daily stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "Failed to get analytics"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *QRCodeHandler) parseIDs(c *gin.Context) (userID, id uuid.UUID, ok bool) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Authentication required"})
		return uuid.Nil, uuid.Nil, false
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "QR code id must be a valid UUID",
		})
		return uuid.Nil, uuid.Nil, false
	}

	return userID, id, true
}

func (h *QRCodeHandler) handleServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrQRCodeNotFound), errors.Is(err, repository.ErrDesignNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "QR code not found",
		})
	case errors.Is(err, service.ErrInvalidURL):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_url",
			Message: "Invalid destination URL format",
		})
	case errors.Is(err, service.ErrInvalidType):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_type",
			Message: "QR code type must be static or dynamic",
		})
	case errors.Is(err, service.ErrStaticLimit):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "static_limit_reached",
			Message: "You've reached the limit of 20 free static QR codes",
		})
	case errors.Is(err, service.ErrDynamicLimit):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "dynamic_limit_reached",
			Message: "Free users can only create 1 dynamic QR code",
		})
	case errors.Is(err, service.ErrCodeExhausted):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "code_exhausted",
			Message: "Failed to allocate a unique short code, please retry",
		})
	default:
		h.logger.Error(fallback, zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: fallback,
		})
	}
}
