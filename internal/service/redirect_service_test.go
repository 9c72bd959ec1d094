package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/SergeiKhy/qr-manager/internal/models"
	"github.com/SergeiKhy/qr-manager/internal/repository"
	"github.com/SergeiKhy/qr-manager/internal/service"
	"github.com/SergeiKhy/qr-manager/internal/service/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRecorder синхронно собирает события сканов вместо worker pool
type fakeRecorder struct {
	mu     sync.Mutex
	events []*models.ScanEvent
}

func (r *fakeRecorder) RecordScan(ctx context.Context, event *models.ScanEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *fakeRecorder) Events() []*models.ScanEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.ScanEvent(nil), r.events...)
}

// setupRedirectService создаёт тестовое окружение для сервиса редиректов
func setupRedirectService() (service.RedirectService, *mocks.MockQRCodeRepository, *mocks.MockCacheRepository, *fakeRecorder) {
	qrRepo := mocks.NewMockQRCodeRepository()
	cacheRepo := mocks.NewMockCacheRepository()
	recorder := &fakeRecorder{}
	logger, _ := zap.NewDevelopment()
	redirectService := service.NewRedirectService(qrRepo, cacheRepo, recorder, logger)
	return redirectService, qrRepo, cacheRepo, recorder
}

func seedDynamic(qrRepo *mocks.MockQRCodeRepository, shortCode, status string) *models.QRCode {
	qr := &models.QRCode{
		UserID:         uuid.New(),
		Name:           "Seeded",
		Type:           models.TypeDynamic,
		ShortURL:       &shortCode,
		DestinationURL: "https://example.com/dest",
		Status:         status,
	}
	qrRepo.Seed(qr)
	return qr
}

// TestRedirectService_Resolve_Active проверяет резолв активного кода
// и постановку ровно одного события скана
func TestRedirectService_Resolve_Active(t *testing.T) {
	redirectService, qrRepo, _, recorder := setupRedirectService()
	seedDynamic(qrRepo, "abc123", models.StatusActive)

	visit := service.VisitInfo{
		UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)",
		Country:   "US",
		City:      "Austin",
	}
	result, err := redirectService.Resolve(context.Background(), "abc123", visit)

	require.NoError(t, err)
	assert.True(t, result.Redirectable)
	assert.Equal(t, "https://example.com/dest", result.DestinationURL)

	events := recorder.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "US", events[0].Country)
	assert.Equal(t, "Austin", events[0].City)
	assert.Equal(t, models.DeviceMobile, events[0].DeviceType)
}

// TestRedirectService_Resolve_TrialRedirects проверяет, что код в триале
// и в льготном периоде продолжает редиректить
func TestRedirectService_Resolve_TrialRedirects(t *testing.T) {
	redirectService, qrRepo, _, _ := setupRedirectService()
	seedDynamic(qrRepo, "tri001", models.StatusTrial)
	seedDynamic(qrRepo, "gra001", models.StatusTrialExpired)

	ctx := context.Background()
	for _, code := range []string{"tri001", "gra001"} {
		result, err := redirectService.Resolve(ctx, code, service.VisitInfo{})
		require.NoError(t, err)
		assert.True(t, result.Redirectable, "код %s должен редиректить", code)
	}
}

// TestRedirectService_Resolve_Expired проверяет, что истёкшие и заблокированные
// коды не редиректят и не пишут аналитику
func TestRedirectService_Resolve_Expired(t *testing.T) {
	redirectService, qrRepo, _, recorder := setupRedirectService()
	seedDynamic(qrRepo, "exp001", models.StatusPaidExpired)
	seedDynamic(qrRepo, "rep001", models.StatusReported)
	seedDynamic(qrRepo, "blk001", models.StatusBlocked)

	ctx := context.Background()
	for _, code := range []string{"exp001", "rep001", "blk001"} {
		result, err := redirectService.Resolve(ctx, code, service.VisitInfo{})
		require.NoError(t, err)
		assert.False(t, result.Redirectable, "код %s не должен редиректить", code)
	}

	assert.Empty(t, recorder.Events(), "нередиректабельные коды не пишут аналитику")
}

// TestRedirectService_Resolve_NotFound проверяет резолв несуществующего кода
func TestRedirectService_Resolve_NotFound(t *testing.T) {
	redirectService, _, _, _ := setupRedirectService()

	result, err := redirectService.Resolve(context.Background(), "nosuch", service.VisitInfo{})

	assert.ErrorIs(t, err, repository.ErrQRCodeNotFound)
	assert.Nil(t, result)
}

// TestRedirectService_Resolve_CachesLookup проверяет заполнение кэша после резолва
func TestRedirectService_Resolve_CachesLookup(t *testing.T) {
	redirectService, qrRepo, cacheRepo, _ := setupRedirectService()
	qr := seedDynamic(qrRepo, "cac001", models.StatusActive)

	ctx := context.Background()
	_, err := redirectService.Resolve(ctx, "cac001", service.VisitInfo{})
	require.NoError(t, err)

	cached, err := cacheRepo.Get(ctx, "cac001")
	require.NoError(t, err)
	assert.Equal(t, qr.ID, cached.ID)
}

// TestRedirectService_Resolve_ServesFromCache проверяет, что попадание в кэш
// не требует похода в БД
func TestRedirectService_Resolve_ServesFromCache(t *testing.T) {
	redirectService, _, cacheRepo, _ := setupRedirectService()

	shortCode := "onlyc1"
	qr := &models.QRCode{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		Name:           "Cached only",
		Type:           models.TypeDynamic,
		ShortURL:       &shortCode,
		DestinationURL: "https://example.com/cached",
		Status:         models.StatusActive,
	}
	ctx := context.Background()
	require.NoError(t, cacheRepo.Set(ctx, shortCode, qr, time.Minute))

	result, err := redirectService.Resolve(ctx, shortCode, service.VisitInfo{})

	require.NoError(t, err)
	assert.Equal(t, "https://example.com/cached", result.DestinationURL)
}

// TestRedirectService_Resolve_UnknownGeo проверяет подстановку Unknown
// при отсутствии geo-заголовков
func TestRedirectService_Resolve_UnknownGeo(t *testing.T) {
	redirectService, qrRepo, _, recorder := setupRedirectService()
	seedDynamic(qrRepo, "geo001", models.StatusActive)

	_, err := redirectService.Resolve(context.Background(), "geo001", service.VisitInfo{
		UserAgent: "curl/8.0",
	})
	require.NoError(t, err)

	events := recorder.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "Unknown", events[0].Country)
	assert.Equal(t, "Unknown", events[0].City)
	assert.Equal(t, models.DeviceDesktop, events[0].DeviceType)
}

// TestClassifyDevice проверяет классификацию устройств по User-Agent.
// Планшет имеет приоритет над мобильным: iPad UA содержит и "ipad", и "mobile".
func TestClassifyDevice(t *testing.T) {
	cases := []struct {
		name      string
		userAgent string
		expected  string
	}{
		{"iphone", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile/15E148", models.DeviceMobile},
		{"android phone", "Mozilla/5.0 (Linux; Android 14; Pixel 8) Mobile Safari/537.36", models.DeviceMobile},
		{"ipad", "Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) Mobile/15E148", models.DeviceTablet},
		{"android tablet", "Mozilla/5.0 (Linux; Android 14; Tablet; SM-X910)", models.DeviceTablet},
		{"desktop chrome", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0", models.DeviceDesktop},
		{"desktop mac", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) Safari/605.1.15", models.DeviceDesktop},
		{"empty", "", models.DeviceDesktop},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, service.ClassifyDevice(tc.userAgent))
		})
	}
}
