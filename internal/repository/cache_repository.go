package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SergeiKhy/qr-manager/internal/models"
)

type CacheRepository interface {
	Get(ctx context.Context, shortCode string) (*models.QRCode, error)
	Set(ctx context.Context, shortCode string, qr *models.QRCode, ttl time.Duration) error
	Delete(ctx context.Context, shortCode string) error
}

type cacheRepository struct {
	redis *RedisDB
}

func NewCacheRepository(redis *RedisDB) CacheRepository {
	return &cacheRepository{redis: redis}
}

func (r *cacheRepository) Get(ctx context.Context, shortCode string) (*models.QRCode, error) {
	data, err := r.redis.Client.Get(ctx, r.key(shortCode)).Bytes()
	if err != nil {
		return nil, err
	}

	var qr models.QRCode
	if err := json.Unmarshal(data, &qr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal qr code: %w", err)
	}

	return &qr, nil
}

func (r *cacheRepository) Set(ctx context.Context, shortCode string, qr *models.QRCode, ttl time.Duration) error {
	data, err := json.Marshal(qr)
	if err != nil {
		return fmt.Errorf("failed to marshal qr code: %w", err)
	}

	return r.redis.Client.Set(ctx, r.key(shortCode), data, ttl).Err()
}

func (r *cacheRepository) Delete(ctx context.Context, shortCode string) error {
	return r.redis.Client.Del(ctx, r.key(shortCode)).Err()
}

func (r *cacheRepository) key(shortCode string) string {
	return "qr:" + shortCode
}
