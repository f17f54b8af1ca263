package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/agrobazaar/internal/models"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// ErrInvalidSort is returned by ParseSort for malformed or unknown sort keys.
var ErrInvalidSort = errors.New("invalid sort")

// sortColumns maps the client facing sort keys onto product columns.
var sortColumns = map[string]string{
	"name":               "name",
	"createdAt":          "created_at",
	"price.mrp":          "price_mrp",
	"price.sellingPrice": "price_selling_price",
	"stock.quantity":     "stock_quantity",
}

// Sort is a whitelisted ordering for product listings.
type Sort struct {
	Field string
	Desc  bool
}

// DefaultSort lists newest products first.
var DefaultSort = Sort{Field: "createdAt", Desc: true}

// ParseSort reads "field:asc|desc". An empty value yields DefaultSort and a
// missing direction means ascending.
func ParseSort(raw string) (Sort, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultSort, nil
	}

	field, dir, _ := strings.Cut(raw, ":")
	if _, ok := sortColumns[field]; !ok {
		return Sort{}, fmt.Errorf("%w: unknown field %q", ErrInvalidSort, field)
	}

	switch strings.ToLower(dir) {
	case "", "asc":
		return Sort{Field: field}, nil
	case "desc":
		return Sort{Field: field, Desc: true}, nil
	}
	return Sort{}, fmt.Errorf("%w: unknown direction %q", ErrInvalidSort, dir)
}

func (s Sort) column() string {
	if col, ok := sortColumns[s.Field]; ok {
		return col
	}
	return sortColumns[DefaultSort.Field]
}

// ProductFilter narrows a seller's product listing.
type ProductFilter struct {
	SellerID uuid.UUID
	Category string
	Brand    string
	MinPrice *float64
	MaxPrice *float64
	Sort     Sort
	Page     int
	Limit    int
}

// Normalize clamps paging to sane values.
func (f *ProductFilter) Normalize() {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	if f.Sort.Field == "" {
		f.Sort = DefaultSort
	}
}

// Offset returns the number of rows skipped before the current page.
func (f ProductFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// ProductRepository persists products. Every lookup is scoped to the owning
// seller so a foreign id behaves exactly like a missing one.
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	FindOwned(ctx context.Context, id, sellerID uuid.UUID) (*models.Product, error)
	FindOwnedByIDs(ctx context.Context, ids []uuid.UUID, sellerID uuid.UUID) ([]models.Product, error)
	ListOwned(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error)
	Save(ctx context.Context, product *models.Product) error
	DeleteOwned(ctx context.Context, id, sellerID uuid.UUID) (bool, error)
}

type gormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository returns a Postgres backed ProductRepository.
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &gormProductRepository{db: db}
}

func (r *gormProductRepository) Create(ctx context.Context, product *models.Product) error {
	return translate(r.db.WithContext(ctx).Create(product).Error)
}

func (r *gormProductRepository) FindOwned(ctx context.Context, id, sellerID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND seller_id = ?", id, sellerID).
		First(&product).Error
	if err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

// FindOwnedByIDs keeps the order of ids and silently drops ids the seller
// does not own.
func (r *gormProductRepository) FindOwnedByIDs(ctx context.Context, ids []uuid.UUID, sellerID uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	var found []models.Product
	err := r.db.WithContext(ctx).
		Where("id IN ? AND seller_id = ?", ids, sellerID).
		Find(&found).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	ordered := make([]models.Product, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

func (r *gormProductRepository) ListOwned(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error) {
	filter.Normalize()

	query := r.db.WithContext(ctx).Model(&models.Product{}).Where("seller_id = ?", filter.SellerID)
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Brand != "" {
		query = query.Where("brand = ?", filter.Brand)
	}
	if filter.MinPrice != nil {
		query = query.Where("price_selling_price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price_selling_price <= ?", *filter.MaxPrice)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	err := query.
		Order(clause.OrderByColumn{Column: clause.Column{Name: filter.Sort.column()}, Desc: filter.Sort.Desc}).
		Offset(filter.Offset()).
		Limit(filter.Limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *gormProductRepository) Save(ctx context.Context, product *models.Product) error {
	return translate(r.db.WithContext(ctx).Save(product).Error)
}

func (r *gormProductRepository) DeleteOwned(ctx context.Context, id, sellerID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND seller_id = ?", id, sellerID).
		Delete(&models.Product{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
