package models

import (
	"time"

	"github.com/google/uuid"
)

// Типы QR-кодов
const (
	TypeStatic  = "static"
	TypeDynamic = "dynamic"
)

// Статусы жизненного цикла QR-кода
const (
	StatusActive       = "active"
	StatusTrial        = "trial"
	StatusTrialExpired = "trial_expired"
	StatusPaidExpired  = "paid_expired"
	StatusReported     = "reported"
	StatusBlocked      = "blocked"
)

type QRCode struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	Name           string     `json:"name"`
	Type           string     `json:"type"`
	ShortURL       *string    `json:"short_url,omitempty"`
	DestinationURL string     `json:"destination_url"`
	Status         string     `json:"status"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsRedirectable сообщает, должен ли скан по короткому коду вести на destination_url.
// Коды в триале и в льготном периоде продолжают редиректить, всё остальное — нет.
func IsRedirectable(status string) bool {
	switch status {
	case StatusActive, StatusTrial, StatusTrialExpired:
		return true
	default:
		return false
	}
}

type CreateQRCodeInput struct {
	UserID         uuid.UUID
	Name           string
	Type           string
	DestinationURL string
	Design         *DesignInput
}

type UpdateQRCodeInput struct {
	Name           *string
	DestinationURL *string
	Design         *DesignInput
}
