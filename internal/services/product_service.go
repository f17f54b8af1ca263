package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"

	"github.com/example/agrobazaar/internal/apperrors"
	"github.com/example/agrobazaar/internal/models"
	"github.com/example/agrobazaar/internal/obs"
	"github.com/example/agrobazaar/internal/repository"
	"github.com/example/agrobazaar/internal/utils"
)

const (
	MsgProductNotFound = "Product not found or unauthorized"
	MsgProductCreated  = "Product created successfully"
	MsgProductUpdated  = "Product updated successfully"
	MsgProductDeleted  = "Product deleted successfully"

	defaultSearchLimit = 20
)

// PriceInput carries the client's prices. DiscountPercentage is accepted and
// ignored; it is always derived from mrp and sellingPrice.
type PriceInput struct {
	MRP                float64  `json:"mrp" validate:"gt=0"`
	SellingPrice       float64  `json:"sellingPrice" validate:"gt=0"`
	DiscountPercentage *float64 `json:"discountPercentage"`
}

type StockInput struct {
	Quantity          *int `json:"quantity" validate:"required"`
	LowStockThreshold *int `json:"lowStockThreshold"`
}

type SpecificationsInput struct {
	Weight            string   `json:"weight"`
	Composition       string   `json:"composition"`
	UsageInstructions string   `json:"usageInstructions"`
	ExpiryDate        *string  `json:"expiryDate"`
	CropSuitability   []string `json:"cropSuitability"`
	SoilType          []string `json:"soilType"`
	Organic           bool     `json:"organic"`
}

type ShippingInput struct {
	Weight             float64           `json:"weight" validate:"gte=0"`
	Dimensions         models.Dimensions `json:"dimensions"`
	DeliveryTimeInDays *int              `json:"deliveryTimeInDays"`
}

// ProductInput is the create payload. SellerID is accepted for client
// compatibility and ignored; ownership always comes from the session.
type ProductInput struct {
	SellerID       *string              `json:"sellerId"`
	Name           string               `json:"name" validate:"required"`
	Description    string               `json:"description" validate:"required"`
	Category       models.Category      `json:"category" validate:"required"`
	SubCategory    string               `json:"subCategory"`
	Brand          string               `json:"brand"`
	Images         []string             `json:"images" validate:"omitempty,dive,url"`
	Price          *PriceInput          `json:"price" validate:"required"`
	Stock          *StockInput          `json:"stock" validate:"required"`
	Specifications *SpecificationsInput `json:"specifications"`
	Variants       []models.Variant     `json:"variants" validate:"omitempty,dive"`
	Tags           []string             `json:"tags"`
	Shipping       *ShippingInput       `json:"shipping"`
	ReturnPolicy   string               `json:"returnPolicy"`
	IsActive       *bool                `json:"isActive"`
}

// ProductPatch is a shallow update; see SellerPatch.
type ProductPatch struct {
	SellerID       *string              `json:"sellerId"`
	Name           *string              `json:"name" validate:"omitempty,min=1"`
	Description    *string              `json:"description" validate:"omitempty,min=1"`
	Category       *models.Category     `json:"category"`
	SubCategory    *string              `json:"subCategory"`
	Brand          *string              `json:"brand"`
	Images         *[]string            `json:"images" validate:"omitempty,dive,url"`
	Price          *PriceInput          `json:"price"`
	Stock          *StockInput          `json:"stock"`
	Specifications *SpecificationsInput `json:"specifications"`
	Variants       *[]models.Variant    `json:"variants" validate:"omitempty,dive"`
	Tags           *[]string            `json:"tags"`
	Shipping       *ShippingInput       `json:"shipping"`
	ReturnPolicy   *string              `json:"returnPolicy"`
	IsActive       *bool                `json:"isActive"`
}

// ProductPage is one page of a seller's listing.
type ProductPage struct {
	Products []models.Product
	Total    int64
	Page     int
	Limit    int
}

// ProductService manages the authenticated seller's products.
type ProductService struct {
	products repository.ProductRepository
	indexer  ProductIndexer
}

// NewProductService constructs a ProductService. A nil indexer disables search.
func NewProductService(products repository.ProductRepository, indexer ProductIndexer) *ProductService {
	if indexer == nil {
		indexer = NopIndexer{}
	}
	return &ProductService{products: products, indexer: indexer}
}

func checkCategory(c models.Category) error {
	if !c.Valid() {
		names := make([]string, len(models.Categories))
		for i, known := range models.Categories {
			names[i] = string(known)
		}
		return apperrors.Validation("category must be one of: "+strings.Join(names, ", ")+".", nil)
	}
	return nil
}

func buildStock(in *StockInput) (models.Stock, error) {
	stock := models.Stock{LowStockThreshold: models.DefaultLowStockThreshold}
	if *in.Quantity < 0 {
		return stock, apperrors.Validation("stock.quantity must be at least 0.", nil)
	}
	stock.Quantity = *in.Quantity
	if in.LowStockThreshold != nil {
		if *in.LowStockThreshold < 0 {
			return stock, apperrors.Validation("stock.lowStockThreshold must be at least 0.", nil)
		}
		stock.LowStockThreshold = *in.LowStockThreshold
	}
	return stock, nil
}

// parseExpiry accepts RFC 3339 timestamps or plain dates.
func parseExpiry(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	value := strings.TrimSpace(*raw)
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, apperrors.Validation("specifications.expiryDate must be a date (YYYY-MM-DD) or RFC 3339 timestamp.", nil)
}

func buildSpecifications(in *SpecificationsInput) (models.Specifications, error) {
	if in == nil {
		return models.Specifications{}, nil
	}
	expiry, err := parseExpiry(in.ExpiryDate)
	if err != nil {
		return models.Specifications{}, err
	}
	return models.Specifications{
		Weight:            in.Weight,
		Composition:       in.Composition,
		UsageInstructions: in.UsageInstructions,
		ExpiryDate:        expiry,
		CropSuitability:   pq.StringArray(in.CropSuitability),
		SoilType:          pq.StringArray(in.SoilType),
		Organic:           in.Organic,
	}, nil
}

func buildShipping(in *ShippingInput) (models.Shipping, error) {
	shipping := models.Shipping{DeliveryTimeInDays: models.DefaultDeliveryTimeInDays}
	if in == nil {
		return shipping, nil
	}
	shipping.Weight = in.Weight
	shipping.Dimensions = in.Dimensions
	if in.DeliveryTimeInDays != nil {
		if *in.DeliveryTimeInDays < 0 {
			return shipping, apperrors.Validation("shipping.deliveryTimeInDays must be at least 0.", nil)
		}
		shipping.DeliveryTimeInDays = *in.DeliveryTimeInDays
	}
	return shipping, nil
}

// Create adds a product owned by sellerID.
func (s *ProductService) Create(ctx context.Context, sellerID uuid.UUID, in ProductInput) (*models.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	if err := checkCategory(in.Category); err != nil {
		return nil, err
	}

	stock, err := buildStock(in.Stock)
	if err != nil {
		return nil, err
	}
	specs, err := buildSpecifications(in.Specifications)
	if err != nil {
		return nil, err
	}
	shipping, err := buildShipping(in.Shipping)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		SellerID:       sellerID,
		Name:           in.Name,
		Description:    in.Description,
		Category:       in.Category,
		SubCategory:    in.SubCategory,
		Brand:          in.Brand,
		Images:         pq.StringArray(in.Images),
		Price:          models.Price{MRP: in.Price.MRP, SellingPrice: in.Price.SellingPrice},
		Stock:          stock,
		Specifications: specs,
		Variants:       datatypes.JSONSlice[models.Variant](in.Variants),
		Tags:           pq.StringArray(in.Tags),
		Shipping:       shipping,
		ReturnPolicy:   in.ReturnPolicy,
		IsActive:       true,
	}
	if in.IsActive != nil {
		product.IsActive = *in.IsActive
	}
	product.Normalize()

	if err := s.products.Create(ctx, product); err != nil {
		return nil, apperrors.Internal("Failed to create product.", err)
	}

	s.index(ctx, product)
	return product, nil
}

// List returns a filtered, sorted page of the seller's products.
func (s *ProductService) List(ctx context.Context, filter repository.ProductFilter) (*ProductPage, error) {
	if filter.Category != "" {
		if err := checkCategory(models.Category(filter.Category)); err != nil {
			return nil, err
		}
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, apperrors.Validation("minPrice must not exceed maxPrice.", nil)
	}
	filter.Normalize()

	products, total, err := s.products.ListOwned(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal("Failed to load products.", err)
	}

	return &ProductPage{
		Products: products,
		Total:    total,
		Page:     filter.Page,
		Limit:    filter.Limit,
	}, nil
}

func productID(rawID string) (uuid.UUID, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, apperrors.NotFound(MsgProductNotFound)
	}
	return id, nil
}

// Get loads one of the seller's products.
func (s *ProductService) Get(ctx context.Context, sellerID uuid.UUID, rawID string) (*models.Product, error) {
	id, err := productID(rawID)
	if err != nil {
		return nil, err
	}

	product, err := s.products.FindOwned(ctx, id, sellerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound(MsgProductNotFound)
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to load product.", err)
	}
	return product, nil
}

// Update applies patch to one of the seller's products and recomputes the
// discount.
func (s *ProductService) Update(ctx context.Context, sellerID uuid.UUID, rawID string, patch ProductPatch) (*models.Product, error) {
	product, err := s.Get(ctx, sellerID, rawID)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(patch); err != nil {
		return nil, err
	}

	if patch.Name != nil {
		product.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		product.Description = *patch.Description
	}
	if patch.Category != nil {
		if err := checkCategory(*patch.Category); err != nil {
			return nil, err
		}
		product.Category = *patch.Category
	}
	if patch.SubCategory != nil {
		product.SubCategory = *patch.SubCategory
	}
	if patch.Brand != nil {
		product.Brand = *patch.Brand
	}
	if patch.Images != nil {
		product.Images = pq.StringArray(*patch.Images)
	}
	if patch.Price != nil {
		product.Price = models.Price{MRP: patch.Price.MRP, SellingPrice: patch.Price.SellingPrice}
	}
	if patch.Stock != nil {
		stock, err := buildStock(patch.Stock)
		if err != nil {
			return nil, err
		}
		product.Stock = stock
	}
	if patch.Specifications != nil {
		specs, err := buildSpecifications(patch.Specifications)
		if err != nil {
			return nil, err
		}
		product.Specifications = specs
	}
	if patch.Variants != nil {
		product.Variants = datatypes.JSONSlice[models.Variant](*patch.Variants)
	}
	if patch.Tags != nil {
		product.Tags = pq.StringArray(*patch.Tags)
	}
	if patch.Shipping != nil {
		shipping, err := buildShipping(patch.Shipping)
		if err != nil {
			return nil, err
		}
		product.Shipping = shipping
	}
	if patch.ReturnPolicy != nil {
		product.ReturnPolicy = *patch.ReturnPolicy
	}
	if patch.IsActive != nil {
		product.IsActive = *patch.IsActive
	}
	product.Normalize()

	if err := s.products.Save(ctx, product); err != nil {
		return nil, apperrors.Internal("Failed to update product.", err)
	}

	s.index(ctx, product)
	return product, nil
}

// Delete removes one of the seller's products.
func (s *ProductService) Delete(ctx context.Context, sellerID uuid.UUID, rawID string) error {
	id, err := productID(rawID)
	if err != nil {
		return err
	}

	deleted, err := s.products.DeleteOwned(ctx, id, sellerID)
	if err != nil {
		return apperrors.Internal("Failed to delete product.", err)
	}
	if !deleted {
		return apperrors.NotFound(MsgProductNotFound)
	}

	if err := s.indexer.Delete(ctx, id); err != nil {
		obs.Logger.Warn("search index delete failed", "product_id", id, "error", err)
	}
	return nil
}

// Search runs a full-text query over the seller's products.
func (s *ProductService) Search(ctx context.Context, sellerID uuid.UUID, query string, limit int) ([]models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.Validation("Please provide all required fields: q.", nil)
	}
	if limit <= 0 || limit > repository.MaxPageLimit {
		limit = defaultSearchLimit
	}

	ids, err := s.indexer.Search(ctx, sellerID, query, limit)
	if errors.Is(err, ErrSearchDisabled) {
		return nil, apperrors.Unavailable("Product search is not available.", err)
	}
	if err != nil {
		return nil, apperrors.Unavailable("Product search failed.", err)
	}

	products, err := s.products.FindOwnedByIDs(ctx, ids, sellerID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load products.", err)
	}
	return products, nil
}

func (s *ProductService) index(ctx context.Context, product *models.Product) {
	if err := s.indexer.Index(ctx, product); err != nil {
		obs.Logger.Warn("search index update failed", "product_id", product.ID, "error", err)
	}
}
