package service

import (
	"context"
	"time"

	"github.com/SergeiKhy/qr-manager/internal/repository"
	"go.uber.org/zap"
)

// gracePeriod льготный период: ровно 3 дня после expires_at триала код
// ещё редиректит в статусе trial_expired, затем переводится в paid_expired
const gracePeriod = 3 * 24 * time.Hour

// ExpirySummary результат одного прогона планировщика
type ExpirySummary struct {
	ExpiredCount     int64     `json:"expired_count"`
	DeactivatedCount int64     `json:"deactivated_count"`
	Timestamp        time.Time `json:"timestamp"`
}

// ExpiryService машина состояний истечения динамических кодов:
// trial/active -> trial_expired -> paid_expired. Оба перехода — batch-обновления
// с предикатами, исключающими уже переведённые строки, поэтому повторный
// или параллельный прогон идемпотентен.
type ExpiryService struct {
	qrRepo   repository.QRCodeRepository
	logger   *zap.Logger
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewExpiryService(qrRepo repository.QRCodeRepository, interval time.Duration, logger *zap.Logger) *ExpiryService {
	return &ExpiryService{
		qrRepo:   qrRepo,
		logger:   logger,
		interval: interval,
	}
}

// RunCheck выполняет один прогон. Прогон без подходящих строк — no-op, не ошибка.
func (s *ExpiryService) RunCheck(ctx context.Context) (*ExpirySummary, error) {
	now := time.Now()

	expired, err := s.qrRepo.ExpireTrials(ctx, now)
	if err != nil {
		return nil, err
	}

	deactivated, err := s.qrRepo.DeactivateLapsed(ctx, now.Add(-gracePeriod))
	if err != nil {
		return nil, err
	}

	summary := &ExpirySummary{
		ExpiredCount:     expired,
		DeactivatedCount: deactivated,
		Timestamp:        now,
	}

	if expired > 0 || deactivated > 0 {
		s.logger.Info("Expiry check completed",
			zap.Int64("expired", expired),
			zap.Int64("deactivated", deactivated),
		)
	}

	return summary, nil
}

// Start запускает периодический прогон с заданным интервалом
func (s *ExpiryService) Start() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.done = make(chan struct{})

	s.logger.Info("Запуск планировщика истечения", zap.Duration("interval", s.interval))

	go s.runLoop()
}

// Stop останавливает периодический прогон
func (s *ExpiryService) Stop() {
	s.cancel()
	<-s.done
	s.logger.Info("Планировщик истечения остановлен")
}

func (s *ExpiryService) runLoop() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RunCheck(s.ctx); err != nil {
				s.logger.Error("Expiry check failed", zap.Error(err))
			}
		}
	}
}
