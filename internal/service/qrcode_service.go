package service

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/SergeiKhy/qr-manager/internal/models"
	"github.com/SergeiKhy/qr-manager/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Ошибки сервиса
var (
	ErrInvalidURL    = errors.New("невалидный URL назначения")
	ErrInvalidType   = errors.New("невалидный тип QR-кода")
	ErrStaticLimit   = errors.New("достигнут лимит статических QR-кодов")
	ErrDynamicLimit  = errors.New("достигнут лимит динамических QR-кодов")
	ErrInvalidAction = errors.New("невалидное действие модерации")
)

// Константы жизненного цикла
const (
	trialPeriod = 30 * 24 * time.Hour // бесплатный триал для динамического кода

	maxStaticPerUser  = 20
	maxDynamicPerUser = 1

	cacheTTL = 5 * time.Minute // короткий TTL ограничивает рассинхрон с batch-обновлениями планировщика
)

// Действия модерации
const (
	ActionActivate = "activate"
	ActionBlock    = "block"
)

// QRCodeService операции над QR-кодами: CRUD владельца, жалобы посетителей
// и модерация. Все переходы статусов идут только через методы этого сервиса,
// планировщика и платёжного сервиса.
type QRCodeService interface {
	Create(ctx context.Context, input *models.CreateQRCodeInput) (*models.QRCode, error)
	Get(ctx context.Context, id, userID uuid.UUID) (*models.QRCode, error)
	GetDesign(ctx context.Context, id, userID uuid.UUID) (*models.Design, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.QRCode, error)
	Update(ctx context.Context, id, userID uuid.UUID, input *models.UpdateQRCodeInput) (*models.QRCode, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	Duplicate(ctx context.Context, id, userID uuid.UUID) (*models.QRCode, error)
	Report(ctx context.Context, shortCode, reason string) error
	Resolve(ctx context.Context, id uuid.UUID, action string) error
	ListReported(ctx context.Context) ([]models.QRCode, error)
}

type qrCodeService struct {
	qrRepo     repository.QRCodeRepository
	designRepo repository.DesignRepository
	cacheRepo  repository.CacheRepository
	generator  *ShortCodeGenerator
	logger     *zap.Logger
}

func NewQRCodeService(
	qrRepo repository.QRCodeRepository,
	designRepo repository.DesignRepository,
	cacheRepo repository.CacheRepository,
	generator *ShortCodeGenerator,
	logger *zap.Logger,
) QRCodeService {
	return &qrCodeService{
		qrRepo:     qrRepo,
		designRepo: designRepo,
		cacheRepo:  cacheRepo,
		generator:  generator,
		logger:     logger,
	}
}

// Create создаёт QR-код. Динамический получает короткий код, статус trial
// и expires_at = now + 30 дней; статический сразу active без короткого кода.
func (s *qrCodeService) Create(ctx context.Context, input *models.CreateQRCodeInput) (*models.QRCode, error) {
	if err := validateURL(input.DestinationURL); err != nil {
		return nil, err
	}
	if input.Type != models.TypeStatic && input.Type != models.TypeDynamic {
		return nil, ErrInvalidType
	}

	// Лимиты бесплатного тарифа
	staticCount, dynamicCount, err := s.qrRepo.CountByUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if input.Type == models.TypeStatic && staticCount >= maxStaticPerUser {
		return nil, ErrStaticLimit
	}
	if input.Type == models.TypeDynamic && dynamicCount >= maxDynamicPerUser {
		return nil, ErrDynamicLimit
	}

	qr := &models.QRCode{
		UserID:         input.UserID,
		Name:           input.Name,
		Type:           input.Type,
		DestinationURL: input.DestinationURL,
		Status:         models.StatusActive,
	}

	if input.Type == models.TypeDynamic {
		qr.Status = models.StatusTrial
		expiresAt := time.Now().Add(trialPeriod)
		qr.ExpiresAt = &expiresAt
	}

	if err := s.insertWithShortCode(ctx, qr); err != nil {
		return nil, err
	}

	if input.Design != nil {
		if err := s.saveDesign(ctx, qr.ID, input.Design); err != nil {
			s.logger.Error("Failed to save design", zap.String("qr_code_id", qr.ID.String()), zap.Error(err))
		}
	}

	return qr, nil
}

// insertWithShortCode вставляет код, перегенерируя short_url при нарушении
// уникальности. Приложенческая проверка доступности может проиграть гонку,
// поэтому конфликт на вставке — повод для retry, а не фатальная ошибка.
func (s *qrCodeService) insertWithShortCode(ctx context.Context, qr *models.QRCode) error {
	if qr.Type != models.TypeDynamic {
		return s.qrRepo.Create(ctx, qr)
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.generator.GenerateUnique(ctx)
		if err != nil {
			return err
		}
		qr.ShortURL = &code

		err = s.qrRepo.Create(ctx, qr)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrShortCodeExists) {
			return err
		}

		s.logger.Warn("Short code collision on insert, retrying",
			zap.String("short_code", code),
			zap.Int("attempt", attempt+1),
		)
	}

	return ErrCodeExhausted
}

func (s *qrCodeService) Get(ctx context.Context, id, userID uuid.UUID) (*models.QRCode, error) {
	return s.qrRepo.GetByIDAndUser(ctx, id, userID)
}

func (s *qrCodeService) GetDesign(ctx context.Context, id, userID uuid.UUID) (*models.Design, error) {
	if _, err := s.qrRepo.GetByIDAndUser(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.designRepo.GetByQRCode(ctx, id)
}

func (s *qrCodeService) List(ctx context.Context, userID uuid.UUID) ([]models.QRCode, error) {
	return s.qrRepo.ListByUser(ctx, userID)
}

// Update меняет имя/URL назначения/дизайн. Тип кода неизменяем.
func (s *qrCodeService) Update(ctx context.Context, id, userID uuid.UUID, input *models.UpdateQRCodeInput) (*models.QRCode, error) {
	qr, err := s.qrRepo.GetByIDAndUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		qr.Name = *input.Name
	}
	if input.DestinationURL != nil {
		if err := validateURL(*input.DestinationURL); err != nil {
			return nil, err
		}
		qr.DestinationURL = *input.DestinationURL
	}

	if err := s.qrRepo.Update(ctx, qr); err != nil {
		return nil, err
	}

	if input.Design != nil {
		if err := s.saveDesign(ctx, qr.ID, input.Design); err != nil {
			s.logger.Error("Failed to update design", zap.String("qr_code_id", qr.ID.String()), zap.Error(err))
		}
	}

	s.invalidateCache(ctx, qr)
	return qr, nil
}

func (s *qrCodeService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	qr, err := s.qrRepo.GetByIDAndUser(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := s.qrRepo.Delete(ctx, id, userID); err != nil {
		return err
	}

	s.invalidateCache(ctx, qr)
	return nil
}

// Duplicate создаёт копию кода с новым именем. Динамическая копия получает
// свежий короткий код и новый 30-дневный триал; дизайн копируется как есть.
func (s *qrCodeService) Duplicate(ctx context.Context, id, userID uuid.UUID) (*models.QRCode, error) {
	original, err := s.qrRepo.GetByIDAndUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	copyQR := &models.QRCode{
		UserID:         userID,
		Name:           original.Name + " (Copy)",
		Type:           original.Type,
		DestinationURL: original.DestinationURL,
		Status:         models.StatusActive,
	}
	if original.Type == models.TypeDynamic {
		copyQR.Status = models.StatusTrial
		expiresAt := time.Now().Add(trialPeriod)
		copyQR.ExpiresAt = &expiresAt
	}

	if err := s.insertWithShortCode(ctx, copyQR); err != nil {
		return nil, err
	}

	design, err := s.designRepo.GetByQRCode(ctx, id)
	if err == nil {
		if err := s.saveDesign(ctx, copyQR.ID, &models.DesignInput{
			FrameText:       design.FrameText,
			LogoURL:         design.LogoURL,
			DotColor:        design.DotColor,
			BackgroundColor: design.BackgroundColor,
		}); err != nil {
			s.logger.Error("Failed to copy design", zap.String("qr_code_id", copyQR.ID.String()), zap.Error(err))
		}
	} else if !errors.Is(err, repository.ErrDesignNotFound) {
		s.logger.Warn("Failed to load design for duplication", zap.Error(err))
	}

	return copyQR, nil
}

// Report помечает код как reported по жалобе постороннего посетителя.
// Проверки владельца нет намеренно: жалуется тот, кто отсканировал код.
// Повторная жалоба на уже reported код — идемпотентный успех.
func (s *qrCodeService) Report(ctx context.Context, shortCode, reason string) error {
	qr, err := s.qrRepo.GetByShortCode(ctx, shortCode)
	if err != nil {
		return err
	}

	if err := s.qrRepo.UpdateStatus(ctx, qr.ID, models.StatusReported); err != nil {
		return err
	}

	s.logger.Info("QR code reported",
		zap.String("qr_code_id", qr.ID.String()),
		zap.String("short_code", shortCode),
		zap.String("reason", reason),
	)

	s.invalidateCache(ctx, qr)
	return nil
}

// Resolve закрывает жалобу: activate возвращает код в active,
// block переводит в терминальный blocked. Других действий нет,
// чтобы модератор не мог перевести код в произвольный статус.
func (s *qrCodeService) Resolve(ctx context.Context, id uuid.UUID, action string) error {
	var status string
	switch action {
	case ActionActivate:
		status = models.StatusActive
	case ActionBlock:
		status = models.StatusBlocked
	default:
		return ErrInvalidAction
	}

	qr, err := s.qrRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.qrRepo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}

	s.logger.Info("Moderation action applied",
		zap.String("qr_code_id", id.String()),
		zap.String("action", action),
	)

	s.invalidateCache(ctx, qr)
	return nil
}

func (s *qrCodeService) ListReported(ctx context.Context) ([]models.QRCode, error) {
	return s.qrRepo.ListByStatus(ctx, models.StatusReported)
}

func (s *qrCodeService) saveDesign(ctx context.Context, qrCodeID uuid.UUID, input *models.DesignInput) error {
	return s.designRepo.Upsert(ctx, &models.Design{
		QRCodeID:        qrCodeID,
		FrameText:       input.FrameText,
		LogoURL:         input.LogoURL,
		DotColor:        input.DotColor,
		BackgroundColor: input.BackgroundColor,
	})
}

func (s *qrCodeService) invalidateCache(ctx context.Context, qr *models.QRCode) {
	if qr.ShortURL == nil {
		return
	}
	if err := s.cacheRepo.Delete(ctx, *qr.ShortURL); err != nil {
		s.logger.Warn("Failed to invalidate cache", zap.String("short_code", *qr.ShortURL), zap.Error(err))
	}
}

// validateURL проверяет формат URL с помощью регулярного выражения
func validateURL(url string) error {
	pattern := `^https?://[^\s]+$`
	matched, _ := regexp.MatchString(pattern, url)
	if !matched {
		return ErrInvalidURL
	}
	return nil
}
