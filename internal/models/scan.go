package models

import (
	"time"

	"github.com/google/uuid"
)

// Классы устройств, определяемые по User-Agent
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
)

// Scan одна запись аналитики: один успешный редирект = одна строка.
// Записи не обновляются и не удаляются.
type Scan struct {
	ID         uuid.UUID `json:"id"`
	QRCodeID   uuid.UUID `json:"qr_code_id"`
	Country    string    `json:"country"`
	City       string    `json:"city"`
	DeviceType string    `json:"device_type"`
	ScannedAt  time.Time `json:"scanned_at"`
}

// ScanEvent событие скана, передаваемое в worker pool
type ScanEvent struct {
	QRCodeID   uuid.UUID
	Country    string
	City       string
	DeviceType string
}

type ScanStats struct {
	QRCodeID   uuid.UUID `json:"qr_code_id"`
	TotalScans int64     `json:"total_scans"`
}

type DailyScanStats struct {
	Date  string `json:"date"`
	Scans int64  `json:"scans"`
}

type CountryScanStats struct {
	Country string `json:"country"`
	Scans   int64  `json:"scans"`
}

type DeviceScanStats struct {
	DeviceType string `json:"device_type"`
	Scans      int64  `json:"scans"`
}
