package repository

import (
	"context"
	"fmt"

	"github.com/SergeiKhy/qr-manager/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type AnalyticsRepository interface {
	RecordScan(ctx context.Context, scan *models.Scan) error
	GetStats(ctx context.Context, qrCodeID uuid.UUID) (*models.ScanStats, error)
	GetDailyStats(ctx context.Context, qrCodeID uuid.UUID, days int) ([]models.DailyScanStats, error)
	GetCountryStats(ctx context.Context, qrCodeID uuid.UUID) ([]models.CountryScanStats, error)
	GetDeviceStats(ctx context.Context, qrCodeID uuid.UUID) ([]models.DeviceScanStats, error)
}

type analyticsRepository struct {
	db *PostgresDB
}

func NewAnalyticsRepository(db *PostgresDB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) RecordScan(ctx context.Context, scan *models.Scan) error {
	query := `
		INSERT INTO qr_analytics (qr_code_id, country, city, device_type, scanned_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		scan.QRCodeID,
		scan.Country,
		scan.City,
		scan.DeviceType,
		scan.ScannedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to record scan: %w", err)
	}

	return nil
}

func (r *analyticsRepository) GetStats(ctx context.Context, qrCodeID uuid.UUID) (*models.ScanStats, error) {
	query := `SELECT COUNT(*) FROM qr_analytics WHERE qr_code_id = $1`

	stats := &models.ScanStats{QRCodeID: qrCodeID}
	if err := r.db.Pool.QueryRow(ctx, query, qrCodeID).Scan(&stats.TotalScans); err != nil {
		return nil, fmt.Errorf("failed to get scan stats: %w", err)
	}

	return stats, nil
}

func (r *analyticsRepository) GetDailyStats(ctx context.Context, qrCodeID uuid.UUID, days int) ([]models.DailyScanStats, error) {
	query := `
		SELECT
			DATE(scanned_at) as date,
			COUNT(*) as scans
		FROM qr_analytics
		WHERE qr_code_id = $1
			AND scanned_at >= NOW() - INTERVAL '1 day' * $2
		GROUP BY DATE(scanned_at)
		ORDER BY date DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, qrCodeID, days)
	if err != nil {
		if err == pgx.ErrNoRows {
			return []models.DailyScanStats{}, nil
		}
		return nil, fmt.Errorf("failed to get daily stats: %w", err)
	}
	defer rows.Close()

	var stats []models.DailyScanStats
	for rows.Next() {
		var daily models.DailyScanStats
		if err := rows.Scan(&daily.Date, &daily.Scans); err != nil {
			return nil, fmt.Errorf("failed to scan daily stat: %w", err)
		}
		stats = append(stats, daily)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily stats: %w", err)
	}

	return stats, nil
}

func (r *analyticsRepository) GetCountryStats(ctx context.Context, qrCodeID uuid.UUID) ([]models.CountryScanStats, error) {
	query := `
		SELECT country, COUNT(*) as scans
		FROM qr_analytics
		WHERE qr_code_id = $1
		GROUP BY country
		ORDER BY scans DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, qrCodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get country stats: %w", err)
	}
	defer rows.Close()

	var stats []models.CountryScanStats
	for rows.Next() {
		var cs models.CountryScanStats
		if err := rows.Scan(&cs.Country, &cs.Scans); err != nil {
			return nil, fmt.Errorf("failed to scan country stat: %w", err)
		}
		stats = append(stats, cs)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating country stats: %w", err)
	}

	return stats, nil
}

func (r *analyticsRepository) GetDeviceStats(ctx context.Context, qrCodeID uuid.UUID) ([]models.DeviceScanStats, error) {
	query := `
		SELECT device_type, COUNT(*) as scans
		FROM qr_analytics
		WHERE qr_code_id = $1
		GROUP BY device_type
		ORDER BY scans DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, qrCodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get device stats: %w", err)
	}
	defer rows.Close()

	var stats []models.DeviceScanStats
	for rows.Next() {
		var ds models.DeviceScanStats
		if err := rows.Scan(&ds.DeviceType, &ds.Scans); err != nil {
			return nil, fmt.Errorf("failed to scan device stat: %w", err)
		}
		stats = append(stats, ds)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating device stats: %w", err)
	}

	return stats, nil
}
