package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/example/agrobazaar/internal/apperrors"
	"github.com/example/agrobazaar/internal/models"
	"github.com/example/agrobazaar/internal/obs"
	"github.com/example/agrobazaar/internal/repository"
	"github.com/example/agrobazaar/internal/utils"
)

const (
	MsgSellerNotFound   = "Seller not found"
	MsgNoSellers        = "No sellers found"
	MsgDuplicateMobile  = "Seller with this mobile number already exists."
	MsgDuplicateEmail   = "Seller with this email already exists."
	MsgDuplicateSeller  = "Seller already exists."
	MsgPhoneNotVerified = "Mobile number is not verified. Please verify the OTP first."
	MsgSellerUpdated    = "Seller updated successfully"
	MsgSellerRemoved    = "Seller removed successfully"
	MsgSellersFound     = "Sellers found"
)

// Notifier is told about sellers that need back-office review.
type Notifier interface {
	NotifyNewSeller(ctx context.Context, seller *models.Seller) error
}

// StoreDetailsInput is the client writable part of a store profile.
type StoreDetailsInput struct {
	StoreName       string  `json:"storeName"`
	StoreLogo       string  `json:"storeLogo"`
	Description     string  `json:"description"`
	GSTNumber       *string `json:"gstNumber"`
	BusinessLicense *string `json:"businessLicense"`
}

func (in *StoreDetailsInput) apply(dst *models.StoreDetails) {
	status := dst.VerificationStatus
	*dst = models.StoreDetails{
		StoreName:          in.StoreName,
		StoreLogo:          in.StoreLogo,
		Description:        in.Description,
		GSTNumber:          in.GSTNumber,
		BusinessLicense:    in.BusinessLicense,
		VerificationStatus: status,
	}
	if dst.StoreLogo == "" {
		dst.StoreLogo = models.DefaultStoreLogo
	}
}

// SellerInput is the registration payload.
type SellerInput struct {
	Name         string               `json:"name" validate:"required"`
	Mobile       string               `json:"mobile" validate:"required"`
	Email        *string              `json:"email" validate:"omitempty,email"`
	Gender       models.Gender        `json:"gender" validate:"required,oneof=Male Female Other"`
	Lang         string               `json:"lang"`
	StoreDetails *StoreDetailsInput   `json:"storeDetails" validate:"required"`
	StoreAddress *models.StoreAddress `json:"storeAddress" validate:"required"`
	BankDetails  *models.BankDetails  `json:"bankDetails" validate:"required"`
}

// SellerPatch is a shallow update. Nil fields are left unchanged and a
// provided nested object replaces the stored one entirely. An empty email
// clears it.
type SellerPatch struct {
	Name         *string              `json:"name" validate:"omitempty,min=1"`
	Mobile       *string              `json:"mobile" validate:"omitempty,min=1"`
	Email        *string              `json:"email"`
	Gender       *models.Gender       `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	Lang         *string              `json:"lang"`
	StoreDetails *StoreDetailsInput   `json:"storeDetails"`
	StoreAddress *models.StoreAddress `json:"storeAddress"`
	BankDetails  *models.BankDetails  `json:"bankDetails"`
	IsActive     *bool                `json:"isActive"`
}

// AuthResult pairs an account with a freshly minted session token.
type AuthResult struct {
	Seller *models.Seller
	Token  string
}

// SellerService manages seller accounts.
type SellerService struct {
	sellers  repository.SellerRepository
	verified repository.VerifiedPhoneStore
	tokens   *utils.TokenIssuer
	notifier Notifier
}

// NewSellerService constructs a SellerService. notifier may be nil.
func NewSellerService(
	sellers repository.SellerRepository,
	verified repository.VerifiedPhoneStore,
	tokens *utils.TokenIssuer,
	notifier Notifier,
) *SellerService {
	return &SellerService{
		sellers:  sellers,
		verified: verified,
		tokens:   tokens,
		notifier: notifier,
	}
}

func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	trimmed := strings.ToLower(strings.TrimSpace(*email))
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// CreateAccount registers a seller whose mobile passed OTP verification.
func (s *SellerService) CreateAccount(ctx context.Context, in SellerInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Mobile = strings.TrimSpace(in.Mobile)
	in.Email = normalizeEmail(in.Email)
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}

	if err := s.ensureMobileFree(ctx, in.Mobile, uuid.Nil); err != nil {
		return nil, err
	}
	if in.Email != nil {
		if err := s.ensureEmailFree(ctx, *in.Email, uuid.Nil); err != nil {
			return nil, err
		}
	}

	ok, err := s.verified.IsVerified(ctx, in.Mobile)
	if err != nil {
		return nil, apperrors.Internal("Failed to check verification.", err)
	}
	if !ok {
		return nil, apperrors.Unverified(MsgPhoneNotVerified)
	}

	seller := &models.Seller{
		Name:         in.Name,
		Mobile:       in.Mobile,
		Email:        in.Email,
		Gender:       in.Gender,
		Lang:         in.Lang,
		StoreAddress: *in.StoreAddress,
		BankDetails:  *in.BankDetails,
	}
	in.StoreDetails.apply(&seller.StoreDetails)
	seller.ApplyDefaults()

	if err := s.sellers.Create(ctx, seller); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, s.duplicateConflict(ctx, seller)
		}
		return nil, apperrors.Internal("Failed to create seller.", err)
	}

	if err := s.verified.Consume(ctx, seller.Mobile); err != nil {
		obs.Logger.Warn("verified phone credential not consumed", "mobile", seller.Mobile, "error", err)
	}

	token, err := s.tokens.Mint(seller.ID, seller.Name, seller.Mobile)
	if err != nil {
		return nil, apperrors.Internal("Failed to generate token.", err)
	}

	s.notify(ctx, seller)
	return &AuthResult{Seller: seller, Token: token}, nil
}

func (s *SellerService) notify(ctx context.Context, seller *models.Seller) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyNewSeller(ctx, seller); err != nil {
		obs.Logger.Warn("seller notification failed", "seller_id", seller.ID, "error", err)
		return
	}
	obs.Logger.Info("admin notified of new seller", "seller_id", seller.ID)
}

// duplicateConflict names the unique key a write collided with. The pre-write
// checks can miss a concurrent registration, so the store is asked again.
func (s *SellerService) duplicateConflict(ctx context.Context, seller *models.Seller) error {
	if err := s.ensureMobileFree(ctx, seller.Mobile, seller.ID); apperrors.Is(err, apperrors.CodeConflict) {
		return err
	}
	if seller.Email != nil {
		if err := s.ensureEmailFree(ctx, *seller.Email, seller.ID); apperrors.Is(err, apperrors.CodeConflict) {
			return err
		}
	}
	return apperrors.Conflict(MsgDuplicateSeller)
}

func (s *SellerService) ensureMobileFree(ctx context.Context, mobile string, ownerID uuid.UUID) error {
	existing, err := s.sellers.FindByMobile(ctx, mobile)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return apperrors.Internal("Failed to check mobile.", err)
	case existing.ID != ownerID:
		return apperrors.Conflict(MsgDuplicateMobile)
	}
	return nil
}

func (s *SellerService) ensureEmailFree(ctx context.Context, email string, ownerID uuid.UUID) error {
	existing, err := s.sellers.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return apperrors.Internal("Failed to check email.", err)
	case existing.ID != ownerID:
		return apperrors.Conflict(MsgDuplicateEmail)
	}
	return nil
}

// GetAccount loads the caller's own account.
func (s *SellerService) GetAccount(ctx context.Context, callerID uuid.UUID) (*models.Seller, error) {
	seller, err := s.sellers.FindByID(ctx, callerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound(MsgSellerNotFound)
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to load seller.", err)
	}
	return seller, nil
}

// ListAccounts returns every seller's public profile, newest first.
func (s *SellerService) ListAccounts(ctx context.Context) ([]models.SellerProfile, error) {
	sellers, err := s.sellers.List(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to load sellers.", err)
	}
	if len(sellers) == 0 {
		return nil, apperrors.NotFound(MsgNoSellers)
	}

	profiles := make([]models.SellerProfile, 0, len(sellers))
	for i := range sellers {
		profiles = append(profiles, sellers[i].Profile())
	}
	return profiles, nil
}

// ownedID resolves the path id, treating a foreign or malformed id as missing.
func ownedID(callerID uuid.UUID, rawID string) (uuid.UUID, error) {
	id, err := uuid.Parse(rawID)
	if err != nil || id != callerID {
		return uuid.Nil, apperrors.NotFound(MsgSellerNotFound)
	}
	return id, nil
}

// UpdateAccount applies patch to the caller's own account. Changing the
// mobile number requires that the new number passed OTP verification.
func (s *SellerService) UpdateAccount(ctx context.Context, callerID uuid.UUID, rawID string, patch SellerPatch) (*models.Seller, error) {
	id, err := ownedID(callerID, rawID)
	if err != nil {
		return nil, err
	}

	clearEmail := patch.Email != nil && strings.TrimSpace(*patch.Email) == ""
	patch.Email = normalizeEmail(patch.Email)
	if err := utils.ValidateStruct(patch); err != nil {
		return nil, err
	}
	if patch.Email != nil {
		if err := utils.Validator().Var(*patch.Email, "email"); err != nil {
			return nil, apperrors.Validation("email must be a valid email address.", err)
		}
	}

	seller, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	mobileChanged := false
	if patch.Mobile != nil {
		mobile := strings.TrimSpace(*patch.Mobile)
		if mobile != seller.Mobile {
			if err := s.ensureMobileFree(ctx, mobile, seller.ID); err != nil {
				return nil, err
			}
			ok, err := s.verified.IsVerified(ctx, mobile)
			if err != nil {
				return nil, apperrors.Internal("Failed to check verification.", err)
			}
			if !ok {
				return nil, apperrors.Unverified(MsgPhoneNotVerified)
			}
			seller.Mobile = mobile
			mobileChanged = true
		}
	}
	if patch.Email != nil {
		if err := s.ensureEmailFree(ctx, *patch.Email, seller.ID); err != nil {
			return nil, err
		}
		seller.Email = patch.Email
	}
	if clearEmail {
		seller.Email = nil
	}
	if patch.Name != nil {
		seller.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Gender != nil {
		seller.Gender = *patch.Gender
	}
	if patch.Lang != nil {
		seller.Lang = *patch.Lang
	}
	if patch.StoreDetails != nil {
		patch.StoreDetails.apply(&seller.StoreDetails)
	}
	if patch.StoreAddress != nil {
		seller.StoreAddress = *patch.StoreAddress
	}
	if patch.BankDetails != nil {
		seller.BankDetails = *patch.BankDetails
	}
	if patch.IsActive != nil {
		seller.IsActive = *patch.IsActive
	}

	if err := s.sellers.Save(ctx, seller); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, s.duplicateConflict(ctx, seller)
		}
		return nil, apperrors.Internal("Failed to update seller.", err)
	}

	if mobileChanged {
		if err := s.verified.Consume(ctx, seller.Mobile); err != nil {
			obs.Logger.Warn("verified phone credential not consumed", "mobile", seller.Mobile, "error", err)
		}
	}

	return seller, nil
}

// DeleteAccount removes the caller's own account. Products are kept.
func (s *SellerService) DeleteAccount(ctx context.Context, callerID uuid.UUID, rawID string) error {
	id, err := ownedID(callerID, rawID)
	if err != nil {
		return err
	}

	deleted, err := s.sellers.Delete(ctx, id)
	if err != nil {
		return apperrors.Internal("Failed to delete seller.", err)
	}
	if !deleted {
		return apperrors.NotFound(MsgSellerNotFound)
	}
	return nil
}
