package service

import (
	"context"
	"strings"

	"github.com/SergeiKhy/qr-manager/internal/models"
	"github.com/SergeiKhy/qr-manager/internal/repository"
	"go.uber.org/zap"
)

// VisitInfo данные о посетителе, извлечённые из запроса
type VisitInfo struct {
	UserAgent string
	Country   string
	City      string
}

// Redirection результат резолва короткого кода
type Redirection struct {
	QRCode         *models.QRCode
	DestinationURL string
	Redirectable   bool
}

// ScanRecorder отделяет редирект от способа записи аналитики
type ScanRecorder interface {
	RecordScan(ctx context.Context, event *models.ScanEvent) error
}

// RedirectService резолвит короткий код в актуальный destination_url
type RedirectService interface {
	Resolve(ctx context.Context, shortCode string, visit VisitInfo) (*Redirection, error)
}

type redirectService struct {
	qrRepo    repository.QRCodeRepository
	cacheRepo repository.CacheRepository
	recorder  ScanRecorder
	logger    *zap.Logger
}

func NewRedirectService(
	qrRepo repository.QRCodeRepository,
	cacheRepo repository.CacheRepository,
	recorder ScanRecorder,
	logger *zap.Logger,
) RedirectService {
	return &redirectService{
		qrRepo:    qrRepo,
		cacheRepo: cacheRepo,
		recorder:  recorder,
		logger:    logger,
	}
}

// Resolve ищет код (сначала в кэше, затем в БД) и для редиректабельного
// статуса ставит событие скана в очередь. Запись аналитики fire-and-forget:
// её ошибка не меняет ответ и не задерживает редирект.
func (s *redirectService) Resolve(ctx context.Context, shortCode string, visit VisitInfo) (*Redirection, error) {
	qr, err := s.lookup(ctx, shortCode)
	if err != nil {
		return nil, err
	}

	redirection := &Redirection{
		QRCode:         qr,
		DestinationURL: qr.DestinationURL,
		Redirectable:   models.IsRedirectable(qr.Status),
	}

	if !redirection.Redirectable {
		return redirection, nil
	}

	event := &models.ScanEvent{
		QRCodeID:   qr.ID,
		Country:    orUnknown(visit.Country),
		City:       orUnknown(visit.City),
		DeviceType: ClassifyDevice(visit.UserAgent),
	}
	if err := s.recorder.RecordScan(ctx, event); err != nil {
		s.logger.Warn("Failed to enqueue scan event", zap.String("short_code", shortCode), zap.Error(err))
	}

	return redirection, nil
}

func (s *redirectService) lookup(ctx context.Context, shortCode string) (*models.QRCode, error) {
	if qr, err := s.cacheRepo.Get(ctx, shortCode); err == nil {
		return qr, nil
	}

	qr, err := s.qrRepo.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, err
	}

	if err := s.cacheRepo.Set(ctx, shortCode, qr, cacheTTL); err != nil {
		s.logger.Debug("Failed to cache qr code", zap.String("short_code", shortCode), zap.Error(err))
	}

	return qr, nil
}

// Паттерны определения устройства по User-Agent. Планшетные и мобильные
// паттерны пересекаются ("ipad" попадает в оба), поэтому планшет
// проверяется первым: UA с "ipad"/"tablet" всегда классифицируется как tablet.
var (
	tabletPatterns = []string{"tablet", "ipad"}
	mobilePatterns = []string{"mobile", "android", "iphone", "phone"}
)

// ClassifyDevice относит User-Agent к одному из классов mobile/tablet/desktop
func ClassifyDevice(userAgent string) string {
	ua := strings.ToLower(userAgent)

	for _, p := range tabletPatterns {
		if strings.Contains(ua, p) {
			return models.DeviceTablet
		}
	}
	for _, p := range mobilePatterns {
		if strings.Contains(ua, p) {
			return models.DeviceMobile
		}
	}
	return models.DeviceDesktop
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
