package service

import (
	"context"
	"sync"
	"time"

	"github.com/SergeiKhy/qr-manager/internal/models"
	"github.com/SergeiKhy/qr-manager/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Константы worker pool
const (
	defaultWorkerCount   = 3    // Количество воркеров
	defaultChannelBuffer = 1000 // Размер буфера канала
	maxRetries           = 3    // Максимальное количество попыток записи
)

// ScanProcessor асинхронная запись аналитики сканов. Запись best-effort:
// ошибки логируются и никогда не влияют на редирект.
type ScanProcessor interface {
	Start()
	Stop()
	RecordScan(ctx context.Context, event *models.ScanEvent) error
	GetStats(ctx context.Context, qrCodeID uuid.UUID) (*models.ScanStats, error)
	GetDailyStats(ctx context.Context, qrCodeID uuid.UUID, days int) ([]models.DailyScanStats, error)
	GetCountryStats(ctx context.Context, qrCodeID uuid.UUID) ([]models.CountryScanStats, error)
	GetDeviceStats(ctx context.Context, qrCodeID uuid.UUID) ([]models.DeviceScanStats, error)
}

// scanProcessor реализация на Worker Pool
type scanProcessor struct {
	analyticsRepo repository.AnalyticsRepository
	logger        *zap.Logger
	scanChannel   chan *models.ScanEvent
	workerCount   int
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

func NewScanProcessor(analyticsRepo repository.AnalyticsRepository, logger *zap.Logger) ScanProcessor {
	return &scanProcessor{
		analyticsRepo: analyticsRepo,
		logger:        logger,
		scanChannel:   make(chan *models.ScanEvent, defaultChannelBuffer),
		workerCount:   defaultWorkerCount,
	}
}

// Start запускает worker pool
func (p *scanProcessor) Start() {
	p.ctx, p.cancel = context.WithCancel(context.Background())

	p.logger.Info("Запуск воркеров процессора сканов", zap.Int("count", p.workerCount))

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop корректно останавливает worker pool
func (p *scanProcessor) Stop() {
	p.logger.Info("Остановка процессора сканов...")
	p.cancel()
	p.wg.Wait()
	p.logger.Info("Процессор сканов остановлен")
}

// worker обрабатывает события сканов из канала
func (p *scanProcessor) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("Воркер сканов запущен", zap.Int("id", id))

	for {
		select {
		case <-p.ctx.Done():
			p.logger.Debug("Воркер сканов остановлен", zap.Int("id", id))
			return

		case event, ok := <-p.scanChannel:
			if !ok {
				return
			}
			p.processScan(event)
		}
	}
}

// processScan записывает одно событие скана с retry логикой
func (p *scanProcessor) processScan(event *models.ScanEvent) {
	ctx, cancel := context.WithTimeout(p.ctx, 5*time.Second)
	defer cancel()

	scan := &models.Scan{
		QRCodeID:   event.QRCodeID,
		Country:    event.Country,
		City:       event.City,
		DeviceType: event.DeviceType,
		ScannedAt:  time.Now(),
	}

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if err := p.analyticsRepo.RecordScan(ctx, scan); err == nil {
			return
		} else {
			lastErr = err
		}
		if i < maxRetries-1 {
			p.logger.Debug("Повторная попытка записи скана",
				zap.String("qr_code_id", event.QRCodeID.String()),
				zap.Int("attempt", i+1),
				zap.Error(lastErr),
			)
			time.Sleep(time.Duration(i+1) * 100 * time.Millisecond)
		}
	}

	p.logger.Error("Не удалось записать скан после всех попыток",
		zap.String("qr_code_id", event.QRCodeID.String()),
		zap.Error(lastErr),
	)
}

// RecordScan отправляет событие скана в worker pool (неблокирующая операция)
func (p *scanProcessor) RecordScan(ctx context.Context, event *models.ScanEvent) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.scanChannel <- event:
		return nil
	default:
		// Канал заполнен: предупреждаем и теряем событие, но не блокируем редирект
		p.logger.Warn("Буфер канала сканов заполнен, событие потеряно",
			zap.String("qr_code_id", event.QRCodeID.String()),
		)
		return nil
	}
}

func (p *scanProcessor) GetStats(ctx context.Context, qrCodeID uuid.UUID) (*models.ScanStats, error) {
	return p.analyticsRepo.GetStats(ctx, qrCodeID)
}

func (p *scanProcessor) GetDailyStats(ctx context.Context, qrCodeID uuid.UUID, days int) ([]models.DailyScanStats, error) {
	return p.analyticsRepo.GetDailyStats(ctx, qrCodeID, days)
}

func (p *scanProcessor) GetCountryStats(ctx context.Context, qrCodeID uuid.UUID) ([]models.CountryScanStats, error) {
	return p.analyticsRepo.GetCountryStats(ctx, qrCodeID)
}

func (p *scanProcessor) GetDeviceStats(ctx context.Context, qrCodeID uuid.UUID) ([]models.DeviceScanStats, error) {
	return p.analyticsRepo.GetDeviceStats(ctx, qrCodeID)
}
