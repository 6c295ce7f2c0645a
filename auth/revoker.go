package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"food-marketplace-api/models"
)

// Revoker remembers logged-out token ids until the tokens would have expired anyway.
type Revoker interface {
	Revoke(ctx context.Context, jti string, userID uint, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// GormRevoker keeps the denylist in the revoked_tokens table.
type GormRevoker struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormRevoker(db *gorm.DB) *GormRevoker {
	return &GormRevoker{db: db, now: time.Now}
}

func (r *GormRevoker) Revoke(ctx context.Context, jti string, userID uint, expiresAt time.Time) error {
	if jti == "" {
		return errors.New("token has no id")
	}
	entry := models.RevokedToken{JTI: jti, UserID: userID, ExpiresAt: expiresAt}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (r *GormRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RevokedToken{}).
		Where("jti = ? AND expires_at > ?", jti, r.now()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return count > 0, nil
}

// Purge deletes entries whose tokens have expired.
func (r *GormRevoker) Purge(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", r.now()).Delete(&models.RevokedToken{})
	return res.RowsAffected, res.Error
}

const revokedKeyPrefix = "revoked:"

// RedisRevoker stores one key per revoked token with a TTL matching the token.
type RedisRevoker struct {
	client redis.Cmdable
	now    func() time.Time
}

func NewRedisRevoker(client redis.Cmdable) *RedisRevoker {
	return &RedisRevoker{client: client, now: time.Now}
}

func (r *RedisRevoker) Revoke(ctx context.Context, jti string, userID uint, expiresAt time.Time) error {
	if jti == "" {
		return errors.New("token has no id")
	}
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedKeyPrefix+jti, userID, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n > 0, nil
}
