package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/agrobazaar/internal/models"
)

// SellerRepository persists seller accounts.
type SellerRepository interface {
	Create(ctx context.Context, seller *models.Seller) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Seller, error)
	FindByMobile(ctx context.Context, mobile string) (*models.Seller, error)
	FindByEmail(ctx context.Context, email string) (*models.Seller, error)
	List(ctx context.Context) ([]models.Seller, error)
	Save(ctx context.Context, seller *models.Seller) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type gormSellerRepository struct {
	db *gorm.DB
}

// NewSellerRepository returns a Postgres backed SellerRepository.
func NewSellerRepository(db *gorm.DB) SellerRepository {
	return &gormSellerRepository{db: db}
}

func (r *gormSellerRepository) Create(ctx context.Context, seller *models.Seller) error {
	return translate(r.db.WithContext(ctx).Create(seller).Error)
}

func (r *gormSellerRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	var seller models.Seller
	if err := r.db.WithContext(ctx).First(&seller, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &seller, nil
}

func (r *gormSellerRepository) FindByMobile(ctx context.Context, mobile string) (*models.Seller, error) {
	return r.findBy(ctx, "mobile = ?", mobile)
}

func (r *gormSellerRepository) FindByEmail(ctx context.Context, email string) (*models.Seller, error) {
	return r.findBy(ctx, "email = ?", email)
}

func (r *gormSellerRepository) findBy(ctx context.Context, query string, arg any) (*models.Seller, error) {
	var seller models.Seller
	if err := r.db.WithContext(ctx).Where(query, arg).First(&seller).Error; err != nil {
		return nil, translate(err)
	}
	return &seller, nil
}

func (r *gormSellerRepository) List(ctx context.Context) ([]models.Seller, error) {
	var sellers []models.Seller
	if err := r.db.WithContext(ctx).Order("created_at desc").Find(&sellers).Error; err != nil {
		return nil, err
	}
	return sellers, nil
}

func (r *gormSellerRepository) Save(ctx context.Context, seller *models.Seller) error {
	return translate(r.db.WithContext(ctx).Save(seller).Error)
}

func (r *gormSellerRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&models.Seller{}, "id = ?", id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
