package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"math/big"
	"strconv"
	"time"

	"github.com/example/agrobazaar/internal/apperrors"
	"github.com/example/agrobazaar/internal/models"
	"github.com/example/agrobazaar/internal/obs"
	"github.com/example/agrobazaar/internal/repository"
	"github.com/example/agrobazaar/internal/utils"
)

const (
	MsgOTPSent          = "OTP sent successfully"
	MsgOTPResent        = "OTP resent successfully"
	MsgOTPNotFound      = "OTP not found. Please request a new OTP."
	MsgInvalidOTP       = "Invalid OTP."
	MsgVerifiedNoSeller = "OTP verified successfully. Seller not found."
)

// VerifyResult is the outcome of a successful code check. Seller and Token
// are empty when the phone has no account yet and must register.
type VerifyResult struct {
	Seller  *models.Seller
	Token   string
	Message string
}

// OTPService issues and checks one-time codes for phone numbers.
type OTPService struct {
	codes       repository.OTPRepository
	verified    repository.VerifiedPhoneStore
	sellers     repository.SellerRepository
	sms         SMSSender
	tokens      *utils.TokenIssuer
	verifiedTTL time.Duration
	generate    func() (string, error)
}

// NewOTPService constructs an OTPService.
func NewOTPService(
	codes repository.OTPRepository,
	verified repository.VerifiedPhoneStore,
	sellers repository.SellerRepository,
	sms SMSSender,
	tokens *utils.TokenIssuer,
	verifiedTTL time.Duration,
) *OTPService {
	return &OTPService{
		codes:       codes,
		verified:    verified,
		sellers:     sellers,
		sms:         sms,
		tokens:      tokens,
		verifiedTTL: verifiedTTL,
		generate:    generateCode,
	}
}

// WithCodeGenerator replaces the random code source.
func (s *OTPService) WithCodeGenerator(fn func() (string, error)) *OTPService {
	s.generate = fn
	return s
}

// generateCode returns a uniformly random code in 1000..9999.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+1000, 10), nil
}

func requirePhone(phone string) error {
	if phone == "" {
		return apperrors.Validation("Please provide all required fields: mobile.", nil)
	}
	return nil
}

// RequestCode stores a fresh code for phone, replacing any previous one, and
// sends it.
func (s *OTPService) RequestCode(ctx context.Context, phone string) error {
	if err := requirePhone(phone); err != nil {
		return err
	}

	code, err := s.generate()
	if err != nil {
		return apperrors.Internal("Failed to generate OTP.", err)
	}

	if _, err := s.codes.Upsert(ctx, phone, code); err != nil {
		return apperrors.Internal("Failed to store OTP.", err)
	}

	return s.dispatch(ctx, phone, code)
}

// ResendCode sends the stored code again without rotating it. A phone with no
// pending code is treated as a fresh request.
func (s *OTPService) ResendCode(ctx context.Context, phone string) error {
	if err := requirePhone(phone); err != nil {
		return err
	}

	record, err := s.codes.FindByPhone(ctx, phone)
	if errors.Is(err, repository.ErrNotFound) {
		return s.RequestCode(ctx, phone)
	}
	if err != nil {
		return apperrors.Internal("Failed to load OTP.", err)
	}
	if record.Code == "" {
		return s.RequestCode(ctx, phone)
	}

	return s.dispatch(ctx, phone, record.Code)
}

func (s *OTPService) dispatch(ctx context.Context, phone, code string) error {
	if err := s.sms.Send(ctx, phone, OTPMessage(code)); err != nil {
		obs.Logger.Error("otp dispatch failed", "phone", phone, "error", err)
		return apperrors.Internal("Failed to send OTP.", err)
	}
	return nil
}

// VerifyCode checks code against the stored one. A match for a registered
// phone yields a session; otherwise the phone is recorded as verified so it
// may register.
func (s *OTPService) VerifyCode(ctx context.Context, phone, code string) (*VerifyResult, error) {
	if phone == "" || code == "" {
		return nil, apperrors.Validation("Please provide all required fields: mobile, otp.", nil)
	}

	record, err := s.codes.FindByPhone(ctx, phone)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound(MsgOTPNotFound)
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to load OTP.", err)
	}

	if record.Code == "" || subtle.ConstantTimeCompare([]byte(record.Code), []byte(code)) != 1 {
		return nil, apperrors.InvalidCode(MsgInvalidOTP)
	}

	seller, err := s.sellers.FindByMobile(ctx, phone)
	switch {
	case err == nil:
		if err := s.codes.Redeem(ctx, phone, false); err != nil {
			return nil, apperrors.Internal("Failed to update OTP.", err)
		}
		token, err := s.tokens.Mint(seller.ID, seller.Name, seller.Mobile)
		if err != nil {
			return nil, apperrors.Internal("Failed to generate token.", err)
		}
		return &VerifyResult{Seller: seller, Token: token}, nil

	case errors.Is(err, repository.ErrNotFound):
		if err := s.verified.Mark(ctx, phone, s.verifiedTTL); err != nil {
			return nil, apperrors.Internal("Failed to record verification.", err)
		}
		if err := s.codes.Redeem(ctx, phone, true); err != nil {
			return nil, apperrors.Internal("Failed to update OTP.", err)
		}
		return &VerifyResult{Message: MsgVerifiedNoSeller}, nil
	}

	return nil, apperrors.Internal("Failed to load seller.", err)
}
