package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/SergeiKhy/qr-manager/internal/repository"
)

// Константы генератора коротких кодов
const (
	shortCodeLength  = 6
	shortCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	maxCodeAttempts  = 10
)

// ErrCodeExhausted все попытки сгенерировать уникальный код исчерпаны.
// При 62^6 комбинаций это практически недостижимо и означает проблему с БД.
var ErrCodeExhausted = errors.New("не удалось сгенерировать уникальный короткий код")

// ShortCodeGenerator генерирует уникальные короткие коды для динамических QR-кодов.
// Проверка доступности — оптимизация; гарантию уникальности даёт
// уникальный индекс на qr_codes.short_url при вставке.
type ShortCodeGenerator struct {
	qrRepo repository.QRCodeRepository
}

func NewShortCodeGenerator(qrRepo repository.QRCodeRepository) *ShortCodeGenerator {
	return &ShortCodeGenerator{qrRepo: qrRepo}
}

// Generate генерирует случайный код длиной 6 символов из алфавита [A-Za-z0-9]
func (g *ShortCodeGenerator) Generate() (string, error) {
	result := make([]byte, shortCodeLength)
	for i := 0; i < shortCodeLength; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(shortCodeCharset))))
		if err != nil {
			return "", fmt.Errorf("failed to generate short code: %w", err)
		}
		result[i] = shortCodeCharset[num.Int64()]
	}
	return string(result), nil
}

// IsAvailable проверяет, свободен ли код
func (g *ShortCodeGenerator) IsAvailable(ctx context.Context, code string) (bool, error) {
	exists, err := g.qrRepo.ShortCodeExists(ctx, code)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// GenerateUnique генерирует код и проверяет доступность, не более maxCodeAttempts попыток
func (g *ShortCodeGenerator) GenerateUnique(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := g.Generate()
		if err != nil {
			return "", err
		}

		available, err := g.IsAvailable(ctx, code)
		if err != nil {
			return "", err
		}
		if available {
			return code, nil
		}
	}

	return "", ErrCodeExhausted
}
