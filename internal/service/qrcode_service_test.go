package service_test

import (
	"context"
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

// setupTestService создаёт тестовое окружение с моковыми репозиториями
func setupTestService() (service.QRCodeService, *mocks.MockQRCodeRepository, *mocks.MockCacheRepository, *mocks.MockDesignRepository) {
	qrRepo := mocks.NewMockQRCodeRepository()
	designRepo := mocks.NewMockDesignRepository()
	cacheRepo := mocks.NewMockCacheRepository()
	logger, _ := zap.NewDevelopment()
	generator := service.NewShortCodeGenerator(qrRepo)
	qrService := service.NewQRCodeService(qrRepo, designRepo, cacheRepo, generator, logger)
	return qrService, qrRepo, cacheRepo, designRepo
}

// TestQRCodeService_Create_Dynamic проверяет создание динамического кода:
// статус trial, короткий код и expires_at через 30 дней
func TestQRCodeService_Create_Dynamic(t *testing.T) {
	qrService, _, _, _ := setupTestService()

	input := &models.CreateQRCodeInput{
		UserID:         uuid.New(),
		Name:           "Menu",
		Type:           models.TypeDynamic,
		DestinationURL: "https://example.com/menu",
	}

	ctx := context.Background()
	qr, err := qrService.Create(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, models.StatusTrial, qr.Status)
	require.NotNil(t, qr.ShortURL)
	assert.Len(t, *qr.ShortURL, 6)
	require.NotNil(t, qr.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), *qr.ExpiresAt, time.Minute)
}

// TestQRCodeService_Create_Static проверяет создание статического кода:
// сразу active, без короткого кода и без срока
func TestQRCodeService_Create_Static(t *testing.T) {
	qrService, _, _, _ := setupTestService()

	input := &models.CreateQRCodeInput{
		UserID:         uuid.New(),
		Name:           "Business card",
		Type:           models.TypeStatic,
		DestinationURL: "https://example.com/card",
	}

	ctx := context.Background()
	qr, err := qrService.Create(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, qr.Status)
	assert.Nil(t, qr.ShortURL)
	assert.Nil(t, qr.ExpiresAt)
}

// TestQRCodeService_Create_InvalidURL проверяет отклонение невалидного URL
func TestQRCodeService_Create_InvalidURL(t *testing.T) {
	qrService, _, _, _ := setupTestService()

	invalidURLs := []string{"not-a-url", "ftp://example.com", "https://bad url.com"}

	ctx := context.Background()
	for _, url := range invalidURLs {
		input := &models.CreateQRCodeInput{
			UserID:         uuid.New(),
			Name:           "Bad",
			Type:           models.TypeStatic,
			DestinationURL: url,
		}

		qr, err := qrService.Create(ctx, input)
		assert.ErrorIs(t, err, service.ErrInvalidURL, "url: %s", url)
		assert.Nil(t, qr)
	}
}

// TestQRCodeService_Create_InvalidType проверяет отклонение неизвестного типа
func TestQRCodeService_Create_InvalidType(t *testing.T) {
	qrService, _, _, _ := setupTestService()

	input := &models.CreateQRCodeInput{
		UserID:         uuid.New(),
		Name:           "Bad",
		Type:           "animated",
		DestinationURL: "https://example.com",
	}

	ctx := context.Background()
	qr, err := qrService.Create(ctx, input)

	assert.ErrorIs(t, err, service.ErrInvalidType)
	assert.Nil(t, qr)
}

// TestQRCodeService_Create_DynamicLimit проверяет лимит бесплатного тарифа:
// не более одного динамического кода на пользователя
func TestQRCodeService_Create_DynamicLimit(t *testing.T) {
	qrService, _, _, _ := setupTestService()

	userID := uuid.New()
	ctx := context.Background()

	_, err := qrService.Create(ctx, &models.CreateQRCodeInput{
		UserID:         userID,
		Name:           "First",
		Type:           models.TypeDynamic,
		DestinationURL: "https://example.com/1",
	})
	require.NoError(t, err)

	qr, err := qrService.Create(ctx, &models.CreateQRCodeInput{
		UserID:         userID,
		Name:           "Second",
		Type:           models.TypeDynamic,
		DestinationURL: "https://example.com/2",
	})

	assert.ErrorIs(t, err, service.ErrDynamicLimit)
	assert.Nil(t, qr)
}

// TestQRCodeService_Create_StaticLimit проверяет лимит в 20 статических кодов
func TestQRCodeService_Create_StaticLimit(t *testing.T) {
	qrService, qrRepo, _, _ := setupTestService()

	userID := uuid.New()
	for i := 0; i < 20; i++ {
		qrRepo.Seed(&models.QRCode{
			UserID:         userID,
			Name:           "Seeded",
			Type:           models.TypeStatic,
			DestinationURL: "https://example.com",
			Status:         models.StatusActive,
		})
	}

	ctx := context.Background()
	qr, err := qrService.Create(ctx, &models.CreateQRCodeInput{
		UserID:         userID,
		Name:           "One too many",
		Type:           models.TypeStatic,
		DestinationURL: "https://example.com",
	})

	assert.ErrorIs(t, err, service.ErrStaticLimit)
	assert.Nil(t, qr)
}

// TestQRCodeService_Create_WithDesign проверяет сохранение дизайна вместе с кодом
func TestQRCodeService_Create_WithDesign(t *testing.T) {
	qrService, _, _, _ := setupTestService()

	userID := uuid.New()
	input := &models.CreateQRCodeInput{
		UserID:         userID,
		Name:           "Branded",
		Type:           models.TypeDynamic,
		DestinationURL: "https://example.com",
		Design: &models.DesignInput{
			FrameText: "Scan me",
			DotColor:  "#112233",
		},
	}

	ctx := context.Background()
	qr, err := qrService.Create(ctx, input)
	require.NoError(t, err)

	design, err := qrService.GetDesign(ctx, qr.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, "Scan me", design.FrameText)
	assert.Equal(t, "#112233", design.DotColor)
}

// TestQRCodeService_Update проверяет смену URL назначения без смены короткого кода
func TestQRCodeService_Update(t *testing.T) {
	qrService, _, cacheRepo, _ := setupTestService()

	userID := uuid.New()
	ctx := context.Background()

	qr, err := qrService.Create(ctx, &models.CreateQRCodeInput{
		UserID:         userID,
		Name:           "Menu",
		Type:           models.TypeDynamic,
		DestinationURL: "https://example.com/old",
	})
	require.NoError(t, err)
	originalCode := *qr.ShortURL

	// Заполняем кэш, чтобы проверить инвалидацию
	require.NoError(t, cacheRepo.Set(ctx, originalCode, qr, time.Minute))

	newURL := "https://example.com/new"
	updated, err := qrService.Update(ctx, qr.ID, userID, &models.UpdateQRCodeInput{
		DestinationURL: &newURL,
	})

	require.NoError(t, err)
	assert.Equal(t, newURL, updated.DestinationURL)
	assert.Equal(t, originalCode, *updated.ShortURL)

	_, err = cacheRepo.Get(ctx, originalCode)
	assert.Error(t, err, "кэш должен быть инвалидирован после обновления")
}

// TestQRCodeService_Update_WrongUser проверяет, что чужой код обновить нельзя
func TestQRCodeService_Update_WrongUser(t *testing.T) {
	qrService, _, _, _ := setupTestService()

	ctx := context.Background()
	qr, err := qrService.Create(ctx, &models.CreateQRCodeInput{
		UserID:         uuid.New(),
		Name:           "Menu",
		Type:           models.TypeDynamic,
		DestinationURL: "https://example.com",
	})
	require.NoError(t, err)

	name := "Hijacked"
	_, err = qrService.Update(ctx, qr.ID, uuid.New(), &models.UpdateQRCodeInput{Name: &name})

	assert.ErrorIs(t, err, repository.ErrQRCodeNotFound)
}

// TestQRCodeService_Duplicate проверяет копию: новое имя с суффиксом,
// свежий короткий код и новый триал
func TestQRCodeService_Duplicate(t *testing.T) {
	qrService, qrRepo, _, _ := setupTestService()

	userID := uuid.New()
	ctx := context.Background()

	shortCode := "abc123"
	expiresAt := time.Now().Add(24 * time.Hour)
	original := &models.QRCode{
		UserID:         userID,
		Name:           "Menu",
		Type:           models.TypeDynamic,
		ShortURL:       &shortCode,
		DestinationURL: "https://example.com/menu",
		Status:         models.StatusTrialExpired,
		ExpiresAt:      &expiresAt,
	}
	qrRepo.Seed(original)

	copyQR, err := qrService.Duplicate(ctx, original.ID, userID)

	require.NoError(t, err)
	assert.Equal(t, "Menu (Copy)", copyQR.Name)
	assert.Equal(t, models.StatusTrial, copyQR.Status)
	require.NotNil(t, copyQR.ShortURL)
	assert.NotEqual(t, shortCode, *copyQR.ShortURL)
	require.NotNil(t, copyQR.ExpiresAt)
	assert.True(t, copyQR.ExpiresAt.After(expiresAt))
}

// TestQRCodeService_Report проверяет перевод кода в reported по жалобе
func TestQRCodeService_Report(t *testing.T) {
	qrService, qrRepo, cacheRepo, _ := setupTestService()

	ctx := context.Background()
	qr, err := qrService.Create(ctx, &models.CreateQRCodeInput{
		UserID:         uuid.New(),
		Name:           "Suspicious",
		Type:           models.TypeDynamic,
		DestinationURL: "https://example.com",
	})
	require.NoError(t, err)
	require.NoError(t, cacheRepo.Set(ctx, *qr.ShortURL, qr, time.Minute))

	err = qrService.Report(ctx, *qr.ShortURL, "phishing")
	require.NoError(t, err)

	stored, err := qrRepo.GetByID(ctx, qr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReported, stored.Status)

	_, err = cacheRepo.Get(ctx, *qr.ShortURL)
	assert.Error(t, err, "кэш должен быть инвалидирован после жалобы")
}

// TestQRCodeService_Report_Idempotent проверяет, что повторная жалоба — успех
func TestQRCodeService_Report_Idempotent(t *testing.T) {
	qrService, qrRepo, _, _ := setupTestService()

	ctx := context.Background()
	qr, err := qrService.Create(ctx, &models.CreateQRCodeInput{
		UserID:         uuid.New(),
		Name:           "Suspicious",
		Type:           models.TypeDynamic,
		DestinationURL: "https://example.com",
	})
	require.NoError(t, err)

	require.NoError(t, qrService.Report(ctx, *qr.ShortURL, "phishing"))
	require.NoError(t, qrService.Report(ctx, *qr.ShortURL, "scam"))

	stored, err := qrRepo.GetByID(ctx, qr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReported, stored.Status)
}

// TestQRCodeService_Report_UnknownCode проверяет жалобу на несуществующий код
func TestQRCodeService_Report_UnknownCode(t *testing.T) {
	qrService, _, _, _ := setupTestService()

	err := qrService.Report(context.Background(), "nosuch", "spam")

	assert.ErrorIs(t, err, repository.ErrQRCodeNotFound)
}

// TestQRCodeService_Resolve_Activate проверяет возврат reported кода в active
func TestQRCodeService_Resolve_Activate(t *testing.T) {
	qrService, qrRepo, _, _ := setupTestService()

	ctx := context.Background()
	shortCode := "rep001"
	qr := &models.QRCode{
		UserID:         uuid.New(),
		Name:           "Reported",
		Type:           models.TypeDynamic,
		ShortURL:       &shortCode,
		DestinationURL: "https://example.com",
		Status:         models.StatusReported,
	}
	qrRepo.Seed(qr)

	err := qrService.Resolve(ctx, qr.ID, service.ActionActivate)
	require.NoError(t, err)

	stored, err := qrRepo.GetByID(ctx, qr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, stored.Status)
}

// TestQRCodeService_Resolve_Block проверяет перевод reported кода в blocked
func TestQRCodeService_Resolve_Block(t *testing.T) {
	qrService, qrRepo, _, _ := setupTestService()

	ctx := context.Background()
	shortCode := "rep002"
	qr := &models.QRCode{
		UserID:         uuid.New(),
		Name:           "Reported",
		Type:           models.TypeDynamic,
		ShortURL:       &shortCode,
		DestinationURL: "https://example.com",
		Status:         models.StatusReported,
	}
	qrRepo.Seed(qr)

	err := qrService.Resolve(ctx, qr.ID, service.ActionBlock)
	require.NoError(t, err)

	stored, err := qrRepo.GetByID(ctx, qr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusBlocked, stored.Status)
}

// TestQRCodeService_Resolve_InvalidAction проверяет отклонение неизвестного действия
func TestQRCodeService_Resolve_InvalidAction(t *testing.T) {
	qrService, qrRepo, _, _ := setupTestService()

	qr := &models.QRCode{
		UserID:         uuid.New(),
		Name:           "Reported",
		Type:           models.TypeDynamic,
		DestinationURL: "https://example.com",
		Status:         models.StatusReported,
	}
	qrRepo.Seed(qr)

	err := qrService.Resolve(context.Background(), qr.ID, "delete")

	assert.ErrorIs(t, err, service.ErrInvalidAction)

	stored, getErr := qrRepo.GetByID(context.Background(), qr.ID)
	require.NoError(t, getErr)
	assert.Equal(t, models.StatusReported, stored.Status, "статус не должен меняться")
}

// TestQRCodeService_ListReported проверяет очередь модерации
func TestQRCodeService_ListReported(t *testing.T) {
	qrService, qrRepo, _, _ := setupTestService()

	qrRepo.Seed(&models.QRCode{
		UserID: uuid.New(), Name: "Bad", Type: models.TypeDynamic,
		DestinationURL: "https://example.com/1", Status: models.StatusReported,
	})
	qrRepo.Seed(&models.QRCode{
		UserID: uuid.New(), Name: "Fine", Type: models.TypeDynamic,
		DestinationURL: "https://example.com/2", Status: models.StatusActive,
	})

	reported, err := qrService.ListReported(context.Background())

	require.NoError(t, err)
	require.Len(t, reported, 1)
	assert.Equal(t, "Bad", reported[0].Name)
}

// TestQRCodeService_Delete проверяет удаление кода владельцем
func TestQRCodeService_Delete(t *testing.T) {
	qrService, qrRepo, _, _ := setupTestService()

	userID := uuid.New()
	ctx := context.Background()
	qr, err := qrService.Create(ctx, &models.CreateQRCodeInput{
		UserID:         userID,
		Name:           "Temp",
		Type:           models.TypeDynamic,
		DestinationURL: "https://example.com",
	})
	require.NoError(t, err)

	require.NoError(t, qrService.Delete(ctx, qr.ID, userID))

	_, err = qrRepo.GetByID(ctx, qr.ID)
	assert.ErrorIs(t, err, repository.ErrQRCodeNotFound)
}
