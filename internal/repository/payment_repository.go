package repository

import (
	"context"
	"fmt"

	"github.com/SergeiKhy/qr-manager/internal/models"
	"github.com/google/uuid"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	ListByQRCode(ctx context.Context, qrCodeID uuid.UUID) ([]models.Payment, error)
}

type paymentRepository struct {
	db *PostgresDB
}

func NewPaymentRepository(db *PostgresDB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (user_id, qr_code_id, amount, currency, payment_gateway, payment_id, order_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		payment.UserID,
		payment.QRCodeID,
		payment.Amount,
		payment.Currency,
		payment.PaymentGateway,
		payment.PaymentID,
		payment.OrderID,
		payment.Status,
	).Scan(&payment.ID, &payment.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create payment record: %w", err)
	}

	return nil
}

func (r *paymentRepository) ListByQRCode(ctx context.Context, qrCodeID uuid.UUID) ([]models.Payment, error) {
	query := `
		SELECT id, user_id, qr_code_id, amount, currency, payment_gateway, payment_id, order_id, status, created_at
		FROM payments
		WHERE qr_code_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, qrCodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.QRCodeID,
			&p.Amount,
			&p.Currency,
			&p.PaymentGateway,
			&p.PaymentID,
			&p.OrderID,
			&p.Status,
			&p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payments: %w", err)
	}

	return payments, nil
}
