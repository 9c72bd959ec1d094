package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SergeiKhy/qr-manager/internal/gateway"
	"github.com/SergeiKhy/qr-manager/internal/models"
	"github.com/SergeiKhy/qr-manager/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Ошибки платёжного сервиса
var (
	ErrAlreadyActive      = errors.New("QR-код уже активен")
	ErrInvalidSignature   = errors.New("невалидная подпись webhook")
	ErrGatewayUnavailable = errors.New("платёжный шлюз недоступен")
)

// Константы оплаты
const (
	upgradeAmount   = 1000 // $10.00 в центах
	upgradeCurrency = "USD"
	paidPeriod      = 365 * 24 * time.Hour
	gatewayName     = "razorpay"

	eventPaymentCaptured = "payment.captured"
)

// OrderDetails возвращается клиенту для открытия checkout.
// Ключи шлюза клиенту не передаются.
type OrderDetails struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// PaymentService создание заказов на апгрейд и обработка платёжных webhook.
// Верификация подписи — обязательный гейт перед любой мутацией; после неё
// все внутренние ошибки глотаются и логируются, чтобы шлюз не ретраил
// структурно валидные уведомления.
type PaymentService interface {
	CreateOrder(ctx context.Context, qrCodeID, userID uuid.UUID) (*OrderDetails, error)
	VerifySignature(body []byte, signature string) bool
	HandleWebhook(ctx context.Context, body []byte, signature string) error
}

type paymentService struct {
	qrRepo        repository.QRCodeRepository
	paymentRepo   repository.PaymentRepository
	cacheRepo     repository.CacheRepository
	orders        gateway.OrderCreator
	webhookSecret string
	logger        *zap.Logger
}

func NewPaymentService(
	qrRepo repository.QRCodeRepository,
	paymentRepo repository.PaymentRepository,
	cacheRepo repository.CacheRepository,
	orders gateway.OrderCreator,
	webhookSecret string,
	logger *zap.Logger,
) PaymentService {
	return &paymentService{
		qrRepo:        qrRepo,
		paymentRepo:   paymentRepo,
		cacheRepo:     cacheRepo,
		orders:        orders,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// CreateOrder создаёт заказ у шлюза. Проверка владельца обязательна:
// этот путь тратит деньги, в отличие от публичных жалоб.
func (s *paymentService) CreateOrder(ctx context.Context, qrCodeID, userID uuid.UUID) (*OrderDetails, error) {
	qr, err := s.qrRepo.GetByIDAndUser(ctx, qrCodeID, userID)
	if err != nil {
		return nil, err
	}

	if qr.Status == models.StatusActive {
		return nil, ErrAlreadyActive
	}

	order, err := s.orders.CreateOrder(ctx, &gateway.OrderRequest{
		Amount:   upgradeAmount,
		Currency: upgradeCurrency,
		Receipt:  qr.ID.String(),
		Notes: map[string]string{
			"qr_code_id": qr.ID.String(),
			"user_id":    userID.String(),
		},
	})
	if err != nil {
		s.logger.Error("Failed to create payment order",
			zap.String("qr_code_id", qrCodeID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	return &OrderDetails{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
	}, nil
}

// VerifySignature сверяет HMAC-SHA256 от сырого тела с подписью из заголовка
func (s *paymentService) VerifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

// HandleWebhook обрабатывает уведомление шлюза. Невалидная подпись —
// ErrInvalidSignature без каких-либо побочных эффектов. Дальше любой исход —
// успешный ack: ошибки после верификации логируются для ручной сверки,
// но наружу не отдаются.
func (s *paymentService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !s.VerifySignature(body, signature) {
		s.logger.Warn("Webhook signature mismatch")
		return ErrInvalidSignature
	}

	s.process(ctx, body)
	return nil
}

func (s *paymentService) process(ctx context.Context, body []byte) {
	var event models.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.logger.Error("Failed to parse webhook body", zap.Error(err))
		return
	}

	if event.Event != eventPaymentCaptured {
		s.logger.Info("Ignoring webhook event", zap.String("event", event.Event))
		return
	}

	entity := event.Payload.Payment.Entity

	rawID, ok := entity.Notes["qr_code_id"]
	if !ok || rawID == "" {
		s.logger.Error("No qr_code_id in payment notes", zap.String("payment_id", entity.ID))
		return
	}

	qrCodeID, err := uuid.Parse(rawID)
	if err != nil {
		s.logger.Error("Invalid qr_code_id in payment notes",
			zap.String("payment_id", entity.ID),
			zap.String("qr_code_id", rawID),
		)
		return
	}

	qr, err := s.qrRepo.GetByID(ctx, qrCodeID)
	if err != nil {
		s.logger.Error("QR code from payment notes not found",
			zap.String("qr_code_id", rawID),
			zap.Error(err),
		)
		return
	}

	if err := s.qrRepo.Reactivate(ctx, qr.ID, time.Now().Add(paidPeriod)); err != nil {
		s.logger.Error("Failed to reactivate qr code",
			zap.String("qr_code_id", rawID),
			zap.Error(err),
		)
		return
	}

	if qr.ShortURL != nil {
		if err := s.cacheRepo.Delete(ctx, *qr.ShortURL); err != nil {
			s.logger.Warn("Failed to invalidate cache", zap.String("short_code", *qr.ShortURL), zap.Error(err))
		}
	}

	payment := &models.Payment{
		UserID:         qr.UserID,
		QRCodeID:       qr.ID,
		Amount:         float64(entity.Amount) / 100, // шлюз присылает центы
		Currency:       entity.Currency,
		PaymentGateway: gatewayName,
		PaymentID:      entity.ID,
		OrderID:        entity.OrderID,
		Status:         "success",
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		// Код уже реактивирован: платёж не откатываем, фиксируем для ручной сверки
		s.logger.Error("Failed to log payment record",
			zap.String("payment_id", entity.ID),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("Payment processed",
		zap.String("payment_id", entity.ID),
		zap.String("qr_code_id", rawID),
	)
}
