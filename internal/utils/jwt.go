package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SellerClaims is the session payload carried by every bearer token.
type SellerClaims struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Mobile string `json:"mobile"`
	jwt.RegisteredClaims
}

// SellerID parses the embedded account id.
func (c *SellerClaims) SellerID() (uuid.UUID, error) {
	return uuid.Parse(c.ID)
}

// TokenIssuer mints and validates HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer with the given secret and lifetime.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL returns the lifetime applied to minted tokens.
func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// Mint creates a signed token for the seller.
func (i *TokenIssuer) Mint(id uuid.UUID, name, mobile string) (string, error) {
	now := i.now()
	claims := &SellerClaims{
		ID:     id.String(),
		Name:   name,
		Mobile: mobile,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Validate checks signature, algorithm and expiry and returns the claims.
func (i *TokenIssuer) Validate(tokenString string) (*SellerClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SellerClaims{}, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*SellerClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if _, err := claims.SellerID(); err != nil {
		return nil, errors.Join(jwt.ErrTokenInvalidClaims, err)
	}

	return claims, nil
}
