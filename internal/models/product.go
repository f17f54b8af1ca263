package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Category is the fixed agricultural product taxonomy.
type Category string

const (
	CategorySeeds       Category = "Seeds"
	CategoryPesticides  Category = "Pesticides"
	CategoryFertilizers Category = "Fertilizers"
	CategoryHerbicides  Category = "Herbicides"
	CategoryCrops       Category = "Crops"
	CategoryTools       Category = "Tools & Equipment"
)

// Categories lists every accepted Category in display order.
var Categories = []Category{
	CategorySeeds,
	CategoryPesticides,
	CategoryFertilizers,
	CategoryHerbicides,
	CategoryCrops,
	CategoryTools,
}

// Valid reports whether c is part of the taxonomy.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

const (
	DefaultLowStockThreshold  = 5
	DefaultDeliveryTimeInDays = 3
	DefaultReturnPolicy       = "7-day return available"
)

type Price struct {
	MRP                float64 `json:"mrp"`
	SellingPrice       float64 `json:"sellingPrice"`
	DiscountPercentage float64 `json:"discountPercentage"`
}

// DiscountFor returns ((mrp - selling) / mrp) * 100 rounded to two decimals,
// never negative.
func DiscountFor(mrp, selling float64) float64 {
	if mrp <= 0 || selling >= mrp {
		return 0
	}
	return math.Round((mrp-selling)/mrp*100*100) / 100
}

type Stock struct {
	Quantity          int `json:"quantity"`
	LowStockThreshold int `json:"lowStockThreshold"`
}

type Specifications struct {
	Weight            string         `json:"weight"`
	Composition       string         `json:"composition"`
	UsageInstructions string         `json:"usageInstructions"`
	ExpiryDate        *time.Time     `json:"expiryDate"`
	CropSuitability   pq.StringArray `gorm:"type:text[]" json:"cropSuitability"`
	SoilType          pq.StringArray `gorm:"type:text[]" json:"soilType"`
	Organic           bool           `json:"organic"`
}

type VariantOption struct {
	Name            string  `json:"name" validate:"required"`
	AdditionalPrice float64 `json:"additionalPrice" validate:"gte=0"`
}

type Variant struct {
	VariantName string          `json:"variantName" validate:"required"`
	Options     []VariantOption `json:"options" validate:"dive"`
}

type Review struct {
	UserID     uuid.UUID `json:"userId"`
	Rating     int       `json:"rating"`
	ReviewText string    `json:"reviewText"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Ratings are maintained by the server from submitted reviews.
type Ratings struct {
	TotalRatings  int                         `json:"totalRatings"`
	AverageRating float64                     `json:"averageRating"`
	Reviews       datatypes.JSONSlice[Review] `json:"reviews"`
}

type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Shipping struct {
	Weight             float64    `json:"weight"`
	Dimensions         Dimensions `gorm:"embedded;embeddedPrefix:dim_" json:"dimensions"`
	DeliveryTimeInDays int        `json:"deliveryTimeInDays"`
}

// Product is a listing owned by exactly one seller.
type Product struct {
	BaseModel
	SellerID       uuid.UUID                    `gorm:"type:uuid;index;not null" json:"sellerId"`
	Name           string                       `gorm:"not null" json:"name"`
	Description    string                       `gorm:"not null" json:"description"`
	Category       Category                     `gorm:"size:32;index;not null" json:"category"`
	SubCategory    string                       `json:"subCategory,omitempty"`
	Brand          string                       `gorm:"index" json:"brand,omitempty"`
	Images         pq.StringArray               `gorm:"type:text[]" json:"images"`
	Price          Price                        `gorm:"embedded;embeddedPrefix:price_" json:"price"`
	Stock          Stock                        `gorm:"embedded;embeddedPrefix:stock_" json:"stock"`
	Specifications Specifications               `gorm:"embedded;embeddedPrefix:spec_" json:"specifications"`
	Variants       datatypes.JSONSlice[Variant] `json:"variants"`
	Tags           pq.StringArray               `gorm:"type:text[]" json:"tags"`
	Ratings        Ratings                      `gorm:"embedded;embeddedPrefix:ratings_" json:"ratings"`
	Shipping       Shipping                     `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping"`
	ReturnPolicy   string                       `json:"returnPolicy"`
	IsActive       bool                         `gorm:"not null" json:"isActive"`
}

// Normalize recomputes derived fields and fills defaults for absent values.
func (p *Product) Normalize() {
	p.Price.DiscountPercentage = DiscountFor(p.Price.MRP, p.Price.SellingPrice)
	if p.Images == nil {
		p.Images = pq.StringArray{}
	}
	if p.Tags == nil {
		p.Tags = pq.StringArray{}
	}
	if p.Variants == nil {
		p.Variants = datatypes.JSONSlice[Variant]{}
	}
	if p.Specifications.CropSuitability == nil {
		p.Specifications.CropSuitability = pq.StringArray{}
	}
	if p.Specifications.SoilType == nil {
		p.Specifications.SoilType = pq.StringArray{}
	}
	if p.Ratings.Reviews == nil {
		p.Ratings.Reviews = datatypes.JSONSlice[Review]{}
	}
	if p.ReturnPolicy == "" {
		p.ReturnPolicy = DefaultReturnPolicy
	}
}
