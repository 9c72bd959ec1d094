package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/SergeiKhy/qr-manager/internal/models"
	"github.com/SergeiKhy/qr-manager/internal/repository"
	"github.com/google/uuid"
)

// MockQRCodeRepository implements repository.QRCodeRepository for testing
type MockQRCodeRepository struct {
	mu    sync.RWMutex
	codes map[uuid.UUID]*models.QRCode
}

func NewMockQRCodeRepository() *MockQRCodeRepository {
	return &MockQRCodeRepository{
		codes: make(map[uuid.UUID]*models.QRCode),
	}
}

func (m *MockQRCodeRepository) Create(ctx context.Context, qr *models.QRCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if qr.ShortURL != nil {
		for _, existing := range m.codes {
			if existing.ShortURL != nil && *existing.ShortURL == *qr.ShortURL {
				return repository.ErrShortCodeExists
			}
		}
	}

	qr.ID = uuid.New()
	qr.CreatedAt = time.Now()
	qr.UpdatedAt = qr.CreatedAt
	clone := *qr
	m.codes[qr.ID] = &clone
	return nil
}

func (m *MockQRCodeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.QRCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	qr, exists := m.codes[id]
	if !exists {
		return nil, repository.ErrQRCodeNotFound
	}
	clone := *qr
	return &clone, nil
}

func (m *MockQRCodeRepository) GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.QRCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	qr, exists := m.codes[id]
	if !exists || qr.UserID != userID {
		return nil, repository.ErrQRCodeNotFound
	}
	clone := *qr
	return &clone, nil
}

func (m *MockQRCodeRepository) GetByShortCode(ctx context.Context, code string) (*models.QRCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, qr := range m.codes {
		if qr.ShortURL != nil && *qr.ShortURL == code {
			clone := *qr
			return &clone, nil
		}
	}
	return nil, repository.ErrQRCodeNotFound
}

func (m *MockQRCodeRepository) ShortCodeExists(ctx context.Context, code string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, qr := range m.codes {
		if qr.ShortURL != nil && *qr.ShortURL == code {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockQRCodeRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.QRCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var codes []models.QRCode
	for _, qr := range m.codes {
		if qr.UserID == userID {
			codes = append(codes, *qr)
		}
	}
	return codes, nil
}

func (m *MockQRCodeRepository) ListByStatus(ctx context.Context, status string) ([]models.QRCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var codes []models.QRCode
	for _, qr := range m.codes {
		if qr.Status == status {
			codes = append(codes, *qr)
		}
	}
	return codes, nil
}

func (m *MockQRCodeRepository) Update(ctx context.Context, qr *models.QRCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, exists := m.codes[qr.ID]
	if !exists || existing.UserID != qr.UserID {
		return repository.ErrQRCodeNotFound
	}
	existing.Name = qr.Name
	existing.DestinationURL = qr.DestinationURL
	existing.UpdatedAt = time.Now()
	return nil
}

func (m *MockQRCodeRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	qr, exists := m.codes[id]
	if !exists {
		return repository.ErrQRCodeNotFound
	}
	qr.Status = status
	qr.UpdatedAt = time.Now()
	return nil
}

func (m *MockQRCodeRepository) Reactivate(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	qr, exists := m.codes[id]
	if !exists {
		return repository.ErrQRCodeNotFound
	}
	qr.Status = models.StatusActive
	qr.ExpiresAt = &expiresAt
	qr.UpdatedAt = time.Now()
	return nil
}

func (m *MockQRCodeRepository) ExpireTrials(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for _, qr := range m.codes {
		if qr.Type != models.TypeDynamic || qr.ExpiresAt == nil {
			continue
		}
		if (qr.Status == models.StatusActive || qr.Status == models.StatusTrial) && qr.ExpiresAt.Before(now) {
			qr.Status = models.StatusTrialExpired
			qr.UpdatedAt = time.Now()
			count++
		}
	}
	return count, nil
}

func (m *MockQRCodeRepository) DeactivateLapsed(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for _, qr := range m.codes {
		if qr.Status == models.StatusTrialExpired && qr.ExpiresAt != nil && qr.ExpiresAt.Before(cutoff) {
			qr.Status = models.StatusPaidExpired
			qr.UpdatedAt = time.Now()
			count++
		}
	}
	return count, nil
}

func (m *MockQRCodeRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	qr, exists := m.codes[id]
	if !exists || qr.UserID != userID {
		return repository.ErrQRCodeNotFound
	}
	delete(m.codes, id)
	return nil
}

func (m *MockQRCodeRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var staticCount, dynamicCount int64
	for _, qr := range m.codes {
		if qr.UserID != userID {
			continue
		}
		if qr.Type == models.TypeStatic {
			staticCount++
		} else {
			dynamicCount++
		}
	}
	return staticCount, dynamicCount, nil
}

// Seed добавляет код напрямую, минуя генерацию ID
func (m *MockQRCodeRepository) Seed(qr *models.QRCode) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if qr.ID == uuid.Nil {
		qr.ID = uuid.New()
	}
	clone := *qr
	m.codes[qr.ID] = &clone
}

// MockCacheRepository implements repository.CacheRepository for testing
type MockCacheRepository struct {
	mu    sync.RWMutex
	cache map[string]*models.QRCode
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		cache: make(map[string]*models.QRCode),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, shortCode string) (*models.QRCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	qr, exists := m.cache[shortCode]
	if !exists {
		return nil, repository.ErrQRCodeNotFound
	}
	return qr, nil
}

func (m *MockCacheRepository) Set(ctx context.Context, shortCode string, qr *models.QRCode, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[shortCode] = qr
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, shortCode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, shortCode)
	return nil
}

// MockDesignRepository implements repository.DesignRepository for testing
type MockDesignRepository struct {
	mu      sync.RWMutex
	designs map[uuid.UUID]*models.Design
}

func NewMockDesignRepository() *MockDesignRepository {
	return &MockDesignRepository{
		designs: make(map[uuid.UUID]*models.Design),
	}
}

func (m *MockDesignRepository) Upsert(ctx context.Context, design *models.Design) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, exists := m.designs[design.QRCodeID]; exists {
		design.ID = existing.ID
		design.CreatedAt = existing.CreatedAt
	} else {
		design.ID = uuid.New()
		design.CreatedAt = time.Now()
	}
	clone := *design
	m.designs[design.QRCodeID] = &clone
	return nil
}

func (m *MockDesignRepository) GetByQRCode(ctx context.Context, qrCodeID uuid.UUID) (*models.Design, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	design, exists := m.designs[qrCodeID]
	if !exists {
		return nil, repository.ErrDesignNotFound
	}
	clone := *design
	return &clone, nil
}

// MockAnalyticsRepository implements repository.AnalyticsRepository for testing
type MockAnalyticsRepository struct {
	mu    sync.RWMutex
	scans []models.Scan
}

func NewMockAnalyticsRepository() *MockAnalyticsRepository {
	return &MockAnalyticsRepository{}
}

func (m *MockAnalyticsRepository) RecordScan(ctx context.Context, scan *models.Scan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record := *scan
	record.ID = uuid.New()
	m.scans = append(m.scans, record)
	return nil
}

func (m *MockAnalyticsRepository) GetStats(ctx context.Context, qrCodeID uuid.UUID) (*models.ScanStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &models.ScanStats{QRCodeID: qrCodeID}
	for _, s := range m.scans {
		if s.QRCodeID == qrCodeID {
			stats.TotalScans++
		}
	}
	return stats, nil
}

func (m *MockAnalyticsRepository) GetDailyStats(ctx context.Context, qrCodeID uuid.UUID, days int) ([]models.DailyScanStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byDate := make(map[string]int64)
	for _, s := range m.scans {
		if s.QRCodeID == qrCodeID {
			byDate[s.ScannedAt.Format("2006-01-02")]++
		}
	}

	var stats []models.DailyScanStats
	for date, scans := range byDate {
		stats = append(stats, models.DailyScanStats{Date: date, Scans: scans})
	}
	return stats, nil
}

func (m *MockAnalyticsRepository) GetCountryStats(ctx context.Context, qrCodeID uuid.UUID) ([]models.CountryScanStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byCountry := make(map[string]int64)
	for _, s := range m.scans {
		if s.QRCodeID == qrCodeID {
			byCountry[s.Country]++
		}
	}

	var stats []models.CountryScanStats
	for country, scans := range byCountry {
		stats = append(stats, models.CountryScanStats{Country: country, Scans: scans})
	}
	return stats, nil
}

func (m *MockAnalyticsRepository) GetDeviceStats(ctx context.Context, qrCodeID uuid.UUID) ([]models.DeviceScanStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byDevice := make(map[string]int64)
	for _, s := range m.scans {
		if s.QRCodeID == qrCodeID {
			byDevice[s.DeviceType]++
		}
	}

	var stats []models.DeviceScanStats
	for device, scans := range byDevice {
		stats = append(stats, models.DeviceScanStats{DeviceType: device, Scans: scans})
	}
	return stats, nil
}

// Scans возвращает копию всех записанных сканов
func (m *MockAnalyticsRepository) Scans() []models.Scan {
	m.mu.RLock()
	defer m.mu.RUnlock()

	scans := make([]models.Scan, len(m.scans))
	copy(scans, m.scans)
	return scans
}

// MockPaymentRepository implements repository.PaymentRepository for testing
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments []models.Payment
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{}
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	payment.ID = uuid.New()
	payment.CreatedAt = time.Now()
	m.payments = append(m.payments, *payment)
	return nil
}

func (m *MockPaymentRepository) ListByQRCode(ctx context.Context, qrCodeID uuid.UUID) ([]models.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var payments []models.Payment
	for _, p := range m.payments {
		if p.QRCodeID == qrCodeID {
			payments = append(payments, p)
		}
	}
	return payments, nil
}
