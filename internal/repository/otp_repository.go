package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/agrobazaar/internal/models"
)

// OTPRepository keeps the single pending code per phone number.
type OTPRepository interface {
	FindByPhone(ctx context.Context, phone string) (*models.OneTimeCode, error)
	Upsert(ctx context.Context, phone, code string) (*models.OneTimeCode, error)
	Redeem(ctx context.Context, phone string, markVerified bool) error
}

type gormOTPRepository struct {
	db *gorm.DB
}

// NewOTPRepository returns a Postgres backed OTPRepository.
func NewOTPRepository(db *gorm.DB) OTPRepository {
	return &gormOTPRepository{db: db}
}

func (r *gormOTPRepository) FindByPhone(ctx context.Context, phone string) (*models.OneTimeCode, error) {
	var record models.OneTimeCode
	if err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&record).Error; err != nil {
		return nil, translate(err)
	}
	return &record, nil
}

// Upsert writes code for phone in one statement. Concurrent requests for the
// same phone resolve to whichever write lands last.
func (r *gormOTPRepository) Upsert(ctx context.Context, phone, code string) (*models.OneTimeCode, error) {
	now := time.Now()
	record := models.OneTimeCode{
		Phone:    phone,
		Code:     code,
		IssuedAt: now,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "phone"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "issued_at", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return nil, translate(err)
	}

	return r.FindByPhone(ctx, phone)
}

// Redeem clears the stored code so it cannot be verified twice. When
// markVerified is set the record is also flagged as verified.
func (r *gormOTPRepository) Redeem(ctx context.Context, phone string, markVerified bool) error {
	updates := map[string]any{"code": ""}
	if markVerified {
		updates["verified"] = true
	}

	result := r.db.WithContext(ctx).Model(&models.OneTimeCode{}).
		Where("phone = ?", phone).
		Updates(updates)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
