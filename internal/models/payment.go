package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment запись в журнале платежей (append-only)
type Payment struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	QRCodeID       uuid.UUID `json:"qr_code_id"`
	Amount         float64   `json:"amount"`
	Currency       string    `json:"currency"`
	PaymentGateway string    `json:"payment_gateway"`
	PaymentID      string    `json:"payment_id"`
	OrderID        string    `json:"order_id"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// WebhookEvent уведомление от Razorpay. Тело подписано HMAC-SHA256,
// сумма приходит в центах.
type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity PaymentEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

type PaymentEntity struct {
	ID       string            `json:"id"`
	OrderID  string            `json:"order_id"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Notes    map[string]string `json:"notes"`
}
