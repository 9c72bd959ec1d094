package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SergeiKhy/qr-manager/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrQRCodeNotFound  = errors.New("qr code not found")
	ErrShortCodeExists = errors.New("short code already exists")
)

// Код ошибки PostgreSQL для нарушения уникальности
const pgUniqueViolation = "23505"

type QRCodeRepository interface {
	Create(ctx context.Context, qr *models.QRCode) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.QRCode, error)
	GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.QRCode, error)
	GetByShortCode(ctx context.Context, code string) (*models.QRCode, error)
	ShortCodeExists(ctx context.Context, code string) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.QRCode, error)
	ListByStatus(ctx context.Context, status string) ([]models.QRCode, error)
	Update(ctx context.Context, qr *models.QRCode) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Reactivate(ctx context.Context, id uuid.UUID, expiresAt time.Time) error
	ExpireTrials(ctx context.Context, now time.Time) (int64, error)
	DeactivateLapsed(ctx context.Context, cutoff time.Time) (int64, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	CountByUser(ctx context.Context, userID uuid.UUID) (staticCount, dynamicCount int64, err error)
}

type qrCodeRepository struct {
	db *PostgresDB
}

func NewQRCodeRepository(db *PostgresDB) QRCodeRepository {
	return &qrCodeRepository{db: db}
}

const qrCodeColumns = `id, user_id, name, type, short_url, destination_url, status, expires_at, created_at, updated_at`

func (r *qrCodeRepository) Create(ctx context.Context, qr *models.QRCode) error {
	query := `
		INSERT INTO qr_codes (user_id, name, type, short_url, destination_url, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(
		ctx,
		query,
		qr.UserID,
		qr.Name,
		qr.Type,
		qr.ShortURL,
		qr.DestinationURL,
		qr.Status,
		qr.ExpiresAt,
	).Scan(&qr.ID, &qr.CreatedAt, &qr.UpdatedAt)

	if err != nil {
		// Уникальный индекс на short_url — последняя линия защиты от гонки
		// generate-check-insert: нарушение превращаем в retry-able ошибку
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrShortCodeExists
		}
		return fmt.Errorf("failed to create qr code: %w", err)
	}

	return nil
}

func (r *qrCodeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.QRCode, error) {
	query := `SELECT ` + qrCodeColumns + ` FROM qr_codes WHERE id = $1`
	return r.scanOne(r.db.Pool.QueryRow(ctx, query, id))
}

func (r *qrCodeRepository) GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.QRCode, error) {
	query := `SELECT ` + qrCodeColumns + ` FROM qr_codes WHERE id = $1 AND user_id = $2`
	return r.scanOne(r.db.Pool.QueryRow(ctx, query, id, userID))
}

func (r *qrCodeRepository) GetByShortCode(ctx context.Context, code string) (*models.QRCode, error) {
	query := `SELECT ` + qrCodeColumns + ` FROM qr_codes WHERE short_url = $1`
	return r.scanOne(r.db.Pool.QueryRow(ctx, query, code))
}

func (r *qrCodeRepository) ShortCodeExists(ctx context.Context, code string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM qr_codes WHERE short_url = $1)`

	var exists bool
	if err := r.db.Pool.QueryRow(ctx, query, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check short code: %w", err)
	}
	return exists, nil
}

func (r *qrCodeRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.QRCode, error) {
	query := `SELECT ` + qrCodeColumns + ` FROM qr_codes WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list qr codes: %w", err)
	}
	defer rows.Close()

	return r.scanMany(rows)
}

func (r *qrCodeRepository) ListByStatus(ctx context.Context, status string) ([]models.QRCode, error) {
	query := `SELECT ` + qrCodeColumns + ` FROM qr_codes WHERE status = $1 ORDER BY updated_at DESC`

	rows, err := r.db.Pool.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list qr codes by status: %w", err)
	}
	defer rows.Close()

	return r.scanMany(rows)
}

func (r *qrCodeRepository) Update(ctx context.Context, qr *models.QRCode) error {
	query := `
		UPDATE qr_codes
		SET name = $1, destination_url = $2, updated_at = NOW()
		WHERE id = $3 AND user_id = $4
	`

	result, err := r.db.Pool.Exec(ctx, query, qr.Name, qr.DestinationURL, qr.ID, qr.UserID)
	if err != nil {
		return fmt.Errorf("failed to update qr code: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrQRCodeNotFound
	}
	return nil
}

func (r *qrCodeRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE qr_codes SET status = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.db.Pool.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update qr code status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrQRCodeNotFound
	}
	return nil
}

func (r *qrCodeRepository) Reactivate(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	query := `UPDATE qr_codes SET status = $1, expires_at = $2, updated_at = NOW() WHERE id = $3`

	result, err := r.db.Pool.Exec(ctx, query, models.StatusActive, expiresAt, id)
	if err != nil {
		return fmt.Errorf("failed to reactivate qr code: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrQRCodeNotFound
	}
	return nil
}

// ExpireTrials переводит просроченные динамические коды в trial_expired.
// Предикат не затрагивает уже переведённые строки, поэтому повторный
// запуск планировщика безопасен.
func (r *qrCodeRepository) ExpireTrials(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE qr_codes
		SET status = $1, updated_at = NOW()
		WHERE type = $2 AND status IN ($3, $4) AND expires_at < $5
	`

	result, err := r.db.Pool.Exec(ctx, query,
		models.StatusTrialExpired,
		models.TypeDynamic,
		models.StatusActive,
		models.StatusTrial,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire trials: %w", err)
	}
	return result.RowsAffected(), nil
}

// DeactivateLapsed переводит коды с истёкшим льготным периодом в paid_expired.
// cutoff = now - длительность льготного периода.
func (r *qrCodeRepository) DeactivateLapsed(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE qr_codes
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND expires_at < $3
	`

	result, err := r.db.Pool.Exec(ctx, query,
		models.StatusPaidExpired,
		models.StatusTrialExpired,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate lapsed codes: %w", err)
	}
	return result.RowsAffected(), nil
}

func (r *qrCodeRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	query := `DELETE FROM qr_codes WHERE id = $1 AND user_id = $2`

	result, err := r.db.Pool.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete qr code: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrQRCodeNotFound
	}
	return nil
}

func (r *qrCodeRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, int64, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE type = $1) AS static_count,
			COUNT(*) FILTER (WHERE type = $2) AS dynamic_count
		FROM qr_codes
		WHERE user_id = $3
	`

	var staticCount, dynamicCount int64
	err := r.db.Pool.QueryRow(ctx, query, models.TypeStatic, models.TypeDynamic, userID).
		Scan(&staticCount, &dynamicCount)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count qr codes: %w", err)
	}
	return staticCount, dynamicCount, nil
}

func (r *qrCodeRepository) scanOne(row pgx.Row) (*models.QRCode, error) {
	qr := &models.QRCode{}
	err := row.Scan(
		&qr.ID,
		&qr.UserID,
		&qr.Name,
		&qr.Type,
		&qr.ShortURL,
		&qr.DestinationURL,
		&qr.Status,
		&qr.ExpiresAt,
		&qr.CreatedAt,
		&qr.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQRCodeNotFound
		}
		return nil, fmt.Errorf("failed to get qr code: %w", err)
	}
	return qr, nil
}

func (r *qrCodeRepository) scanMany(rows pgx.Rows) ([]models.QRCode, error) {
	var codes []models.QRCode
	for rows.Next() {
		var qr models.QRCode
		if err := rows.Scan(
			&qr.ID,
			&qr.UserID,
			&qr.Name,
			&qr.Type,
			&qr.ShortURL,
			&qr.DestinationURL,
			&qr.Status,
			&qr.ExpiresAt,
			&qr.CreatedAt,
			&qr.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan qr code: %w", err)
		}
		codes = append(codes, qr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating qr codes: %w", err)
	}

	return codes, nil
}
