package models

import "time"

// OneTimeCode is the single pending code for a phone number. A new request
// overwrites Code in place and a successful verification clears it. There is
// no expiry or attempt counter.
type OneTimeCode struct {
	BaseModel
	Phone    string    `gorm:"uniqueIndex;not null" json:"mobile"`
	Code     string    `gorm:"size:4" json:"-"`
	Verified bool      `gorm:"not null" json:"isVerified"`
	IssuedAt time.Time `json:"issuedAt"`
}

// VerifiedPhone records that a phone number passed OTP verification and may
// register an account until ExpiresAt. It is consumed by registration.
type VerifiedPhone struct {
	BaseModel
	Phone     string    `gorm:"uniqueIndex;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
}
