package models

// Gender of the seller as captured at registration.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// Valid reports whether g is one of the accepted values.
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// VerificationStatus tracks the back-office review of a store.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "Pending"
	VerificationVerified VerificationStatus = "Verified"
	VerificationRejected VerificationStatus = "Rejected"
)

const (
	DefaultLanguage  = "English"
	DefaultStoreLogo = "default-logo.png"
)

type StoreDetails struct {
	StoreName          string             `json:"storeName"`
	StoreLogo          string             `json:"storeLogo"`
	Description        string             `json:"description"`
	GSTNumber          *string            `json:"gstNumber"`
	BusinessLicense    *string            `json:"businessLicense"`
	VerificationStatus VerificationStatus `gorm:"size:16" json:"verificationStatus"`
}

type StoreAddress struct {
	Street    string   `json:"street"`
	District  string   `json:"district"`
	Taluka    string   `json:"taluka"`
	Village   string   `json:"village"`
	Pincode   string   `json:"pincode" validate:"omitempty,numeric"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
}

type BankDetails struct {
	AccountHolderName string  `json:"accountHolderName"`
	BankName          string  `json:"bankName"`
	AccountNumber     string  `json:"accountNumber"`
	IFSCCode          string  `gorm:"column:ifsc_code" json:"ifscCode"`
	UPIID             *string `gorm:"column:upi_id" json:"upiId"`
}

// SalesStatistics are server-maintained counters; clients never write them.
type SalesStatistics struct {
	TotalOrders   int     `json:"totalOrders"`
	TotalRevenue  float64 `json:"totalRevenue"`
	AverageRating float64 `json:"averageRating"`
}

// Seller is a marketplace account keyed by its unique mobile number.
type Seller struct {
	BaseModel
	Name            string          `gorm:"not null" json:"name"`
	Mobile          string          `gorm:"uniqueIndex;not null" json:"mobile"`
	Email           *string         `gorm:"uniqueIndex" json:"email,omitempty"`
	Gender          Gender          `gorm:"size:16;not null" json:"gender"`
	Lang            string          `json:"lang"`
	StoreDetails    StoreDetails    `gorm:"embedded;embeddedPrefix:store_" json:"storeDetails"`
	StoreAddress    StoreAddress    `gorm:"embedded;embeddedPrefix:address_" json:"storeAddress"`
	BankDetails     BankDetails     `gorm:"embedded;embeddedPrefix:bank_" json:"bankDetails"`
	SalesStatistics SalesStatistics `gorm:"embedded;embeddedPrefix:sales_" json:"salesStatistics"`
	IsActive        bool            `gorm:"not null" json:"isActive"`
}

// ApplyDefaults fills the values a freshly registered seller starts with.
func (s *Seller) ApplyDefaults() {
	if s.Lang == "" {
		s.Lang = DefaultLanguage
	}
	if s.StoreDetails.StoreLogo == "" {
		s.StoreDetails.StoreLogo = DefaultStoreLogo
	}
	if s.StoreDetails.VerificationStatus == "" {
		s.StoreDetails.VerificationStatus = VerificationPending
	}
	s.SalesStatistics = SalesStatistics{}
	s.IsActive = true
}

// SellerProfile is a seller as listed to other sellers. Bank details stay
// with the account owner.
type SellerProfile struct {
	BaseModel
	Name            string          `json:"name"`
	Mobile          string          `json:"mobile"`
	Email           *string         `json:"email,omitempty"`
	Gender          Gender          `json:"gender"`
	Lang            string          `json:"lang"`
	StoreDetails    StoreDetails    `json:"storeDetails"`
	StoreAddress    StoreAddress    `json:"storeAddress"`
	SalesStatistics SalesStatistics `json:"salesStatistics"`
	IsActive        bool            `json:"isActive"`
}

// Profile returns the publicly listed view of s.
func (s *Seller) Profile() SellerProfile {
	return SellerProfile{
		BaseModel:       s.BaseModel,
		Name:            s.Name,
		Mobile:          s.Mobile,
		Email:           s.Email,
		Gender:          s.Gender,
		Lang:            s.Lang,
		StoreDetails:    s.StoreDetails,
		StoreAddress:    s.StoreAddress,
		SalesStatistics: s.SalesStatistics,
		IsActive:        s.IsActive,
	}
}
