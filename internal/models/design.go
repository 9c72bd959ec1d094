package models

import (
	"time"

	"github.com/google/uuid"
)

// Design визуальные настройки QR-кода (один к одному с qr_codes).
// Ядро сервиса их не интерпретирует, только переносит через create/update/duplicate.
type Design struct {
	ID              uuid.UUID `json:"id"`
	QRCodeID        uuid.UUID `json:"qr_code_id"`
	FrameText       string    `json:"frame_text"`
	LogoURL         string    `json:"logo_url"`
	DotColor        string    `json:"dot_color"`
	BackgroundColor string    `json:"background_color"`
	CreatedAt       time.Time `json:"created_at"`
}

type DesignInput struct {
	FrameText       string `json:"frame_text"`
	LogoURL         string `json:"logo_url"`
	DotColor        string `json:"dot_color"`
	BackgroundColor string `json:"background_color"`
}
