package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SergeiKhy/qr-manager/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrDesignNotFound = errors.New("design not found")

type DesignRepository interface {
	Upsert(ctx context.Context, design *models.Design) error
	GetByQRCode(ctx context.Context, qrCodeID uuid.UUID) (*models.Design, error)
}

type designRepository struct {
	db *PostgresDB
}

func NewDesignRepository(db *PostgresDB) DesignRepository {
	return &designRepository{db: db}
}

func (r *designRepository) Upsert(ctx context.Context, design *models.Design) error {
	query := `
		INSERT INTO qr_design (qr_code_id, frame_text, logo_url, dot_color, background_color)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (qr_code_id) DO UPDATE
		SET frame_text = EXCLUDED.frame_text,
			logo_url = EXCLUDED.logo_url,
			dot_color = EXCLUDED.dot_color,
			background_color = EXCLUDED.background_color
		RETURNING id, created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		design.QRCodeID,
		design.FrameText,
		design.LogoURL,
		design.DotColor,
		design.BackgroundColor,
	).Scan(&design.ID, &design.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert design: %w", err)
	}

	return nil
}

func (r *designRepository) GetByQRCode(ctx context.Context, qrCodeID uuid.UUID) (*models.Design, error) {
	query := `
		SELECT id, qr_code_id, frame_text, logo_url, dot_color, background_color, created_at
		FROM qr_design
		WHERE qr_code_id = $1
	`

	design := &models.Design{}
	err := r.db.Pool.QueryRow(ctx, query, qrCodeID).Scan(
		&design.ID,
		&design.QRCodeID,
		&design.FrameText,
		&design.LogoURL,
		&design.DotColor,
		&design.BackgroundColor,
		&design.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDesignNotFound
		}
		return nil, fmt.Errorf("failed to get design: %w", err)
	}

	return design, nil
}
