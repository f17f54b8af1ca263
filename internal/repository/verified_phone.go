package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/agrobazaar/internal/models"
)

// VerifiedPhoneStore holds short-lived proof that a phone number passed OTP
// verification. Registration requires and consumes it.
type VerifiedPhoneStore interface {
	Mark(ctx context.Context, phone string, ttl time.Duration) error
	IsVerified(ctx context.Context, phone string) (bool, error)
	Consume(ctx context.Context, phone string) error
}

const verifiedPhoneKeyPrefix = "verified_phone:"

type redisVerifiedPhoneStore struct {
	client *redis.Client
}

// NewRedisVerifiedPhoneStore keeps credentials as expiring Redis keys.
func NewRedisVerifiedPhoneStore(client *redis.Client) VerifiedPhoneStore {
	return &redisVerifiedPhoneStore{client: client}
}

func (s *redisVerifiedPhoneStore) Mark(ctx context.Context, phone string, ttl time.Duration) error {
	return s.client.Set(ctx, verifiedPhoneKeyPrefix+phone, time.Now().UTC().Format(time.RFC3339), ttl).Err()
}

func (s *redisVerifiedPhoneStore) IsVerified(ctx context.Context, phone string) (bool, error) {
	err := s.client.Get(ctx, verifiedPhoneKeyPrefix+phone).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *redisVerifiedPhoneStore) Consume(ctx context.Context, phone string) error {
	return s.client.Del(ctx, verifiedPhoneKeyPrefix+phone).Err()
}

type gormVerifiedPhoneStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormVerifiedPhoneStore keeps credentials in the verified_phones table.
// Expired rows are ignored on read and replaced on the next Mark.
func NewGormVerifiedPhoneStore(db *gorm.DB) VerifiedPhoneStore {
	return &gormVerifiedPhoneStore{db: db, now: time.Now}
}

func (s *gormVerifiedPhoneStore) Mark(ctx context.Context, phone string, ttl time.Duration) error {
	record := models.VerifiedPhone{
		Phone:     phone,
		ExpiresAt: s.now().Add(ttl),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "phone"}},
		DoUpdates: clause.AssignmentColumns([]string{"expires_at", "updated_at"}),
	}).Create(&record).Error
}

func (s *gormVerifiedPhoneStore) IsVerified(ctx context.Context, phone string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.VerifiedPhone{}).
		Where("phone = ? AND expires_at > ?", phone, s.now()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *gormVerifiedPhoneStore) Consume(ctx context.Context, phone string) error {
	return s.db.WithContext(ctx).Where("phone = ?", phone).Delete(&models.VerifiedPhone{}).Error
}
