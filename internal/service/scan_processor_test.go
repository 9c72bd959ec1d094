package service_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/SergeiKhy/qr-manager/internal/models"
	"github.com/SergeiKhy/qr-manager/internal/service"
	"github.com/SergeiKhy/qr-manager/internal/service/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScanProcessor_RecordScan проверяет асинхронную запись события скана
func TestScanProcessor_RecordScan(t *testing.T) {
	analyticsRepo := mocks.NewMockAnalyticsRepository()
	logger, _ := zap.NewDevelopment()
	processor := service.NewScanProcessor(analyticsRepo, logger)

	processor.Start()
	defer processor.Stop()

	qrCodeID := uuid.New()
	event := &models.ScanEvent{
		QRCodeID:   qrCodeID,
		Country:    "DE",
		City:       "Berlin",
		DeviceType: models.DeviceMobile,
	}

	err := processor.RecordScan(context.Background(), event)
	require.NoError(t, err)

	// Запись асинхронная: ждём, пока воркер обработает событие
	assert.Eventually(t, func() bool {
		scans := analyticsRepo.Scans()
		return len(scans) == 1
	}, 2*time.Second, 10*time.Millisecond)

	scans := analyticsRepo.Scans()
	require.Len(t, scans, 1)
	assert.Equal(t, qrCodeID, scans[0].QRCodeID)
	assert.Equal(t, "DE", scans[0].Country)
	assert.Equal(t, models.DeviceMobile, scans[0].DeviceType)
	assert.False(t, scans[0].ScannedAt.IsZero())
}

// TestScanProcessor_MultipleEvents проверяет обработку пачки событий воркерами
func TestScanProcessor_MultipleEvents(t *testing.T) {
	analyticsRepo := mocks.NewMockAnalyticsRepository()
	logger, _ := zap.NewDevelopment()
	processor := service.NewScanProcessor(analyticsRepo, logger)

	processor.Start()
	defer processor.Stop()

	qrCodeID := uuid.New()
	ctx := context.Background()
	const total = 50

	for i := 0; i < total; i++ {
		err := processor.RecordScan(ctx, &models.ScanEvent{
			QRCodeID:   qrCodeID,
			Country:    "US",
			City:       "NYC",
			DeviceType: models.DeviceDesktop,
		})
		require.NoError(t, err)
	}

	assert.Eventually(t, func() bool {
		return len(analyticsRepo.Scans()) == total
	}, 3*time.Second, 10*time.Millisecond)

	stats, err := processor.GetStats(ctx, qrCodeID)
	require.NoError(t, err)
	assert.Equal(t, int64(total), stats.TotalScans)
}

// TestScanProcessor_CancelledContext проверяет отказ от постановки
// события при отменённом контексте
func TestScanProcessor_CancelledContext(t *testing.T) {
	analyticsRepo := mocks.NewMockAnalyticsRepository()
	logger, _ := zap.NewDevelopment()
	processor := service.NewScanProcessor(analyticsRepo, logger)

	processor.Start()
	defer processor.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := processor.RecordScan(ctx, &models.ScanEvent{QRCodeID: uuid.New()})

	assert.ErrorIs(t, err, context.Canceled)
}

// TestScanProcessor_DeviceStats проверяет агрегацию по классам устройств
func TestScanProcessor_DeviceStats(t *testing.T) {
	analyticsRepo := mocks.NewMockAnalyticsRepository()
	logger, _ := zap.NewDevelopment()
	processor := service.NewScanProcessor(analyticsRepo, logger)

	processor.Start()
	defer processor.Stop()

	qrCodeID := uuid.New()
	ctx := context.Background()
	devices := []string{models.DeviceMobile, models.DeviceMobile, models.DeviceTablet}

	for _, device := range devices {
		require.NoError(t, processor.RecordScan(ctx, &models.ScanEvent{
			QRCodeID:   qrCodeID,
			Country:    "FR",
			City:       "Paris",
			DeviceType: device,
		}))
	}

	assert.Eventually(t, func() bool {
		return len(analyticsRepo.Scans()) == len(devices)
	}, 2*time.Second, 10*time.Millisecond)

	stats, err := processor.GetDeviceStats(ctx, qrCodeID)
	require.NoError(t, err)

	byDevice := make(map[string]int64)
	for _, s := range stats {
		byDevice[s.DeviceType] = s.Scans
	}
	assert.Equal(t, int64(2), byDevice[models.DeviceMobile])
	assert.Equal(t, int64(1), byDevice[models.DeviceTablet])
}
