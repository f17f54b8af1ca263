package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/agrobazaar/internal/services"
)

// SellerHandler serves seller account endpoints.
type SellerHandler struct {
	sellers *services.SellerService
}

// NewSellerHandler constructs a SellerHandler.
func NewSellerHandler(sellers *services.SellerService) *SellerHandler {
	return &SellerHandler{sellers: sellers}
}

// CreateSeller registers a seller whose phone was verified.
func (h *SellerHandler) CreateSeller(c *fiber.Ctx) error {
	var req services.SellerInput
	if err := decodeBody(c, &req); err != nil {
		return err
	}

	result, err := h.sellers.CreateAccount(c.UserContext(), req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"seller": result.Seller,
		"token":  result.Token,
	})
}

// GetSeller returns the authenticated seller.
func (h *SellerHandler) GetSeller(c *fiber.Ctx) error {
	sellerID, err := currentSellerID(c)
	if err != nil {
		return err
	}

	seller, err := h.sellers.GetAccount(c.UserContext(), sellerID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"seller": seller})
}

// ListSellers returns every seller.
func (h *SellerHandler) ListSellers(c *fiber.Ctx) error {
	sellers, err := h.sellers.ListAccounts(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": services.MsgSellersFound,
		"sellers": sellers,
	})
}

// UpdateSeller applies a partial update to the caller's own account.
func (h *SellerHandler) UpdateSeller(c *fiber.Ctx) error {
	sellerID, err := currentSellerID(c)
	if err != nil {
		return err
	}

	var req services.SellerPatch
	if err := decodeBody(c, &req); err != nil {
		return err
	}

	seller, err := h.sellers.UpdateAccount(c.UserContext(), sellerID, c.Params("id"), req)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": services.MsgSellerUpdated,
		"seller":  seller,
	})
}

// DeleteSeller removes the caller's own account.
func (h *SellerHandler) DeleteSeller(c *fiber.Ctx) error {
	sellerID, err := currentSellerID(c)
	if err != nil {
		return err
	}

	if err := h.sellers.DeleteAccount(c.UserContext(), sellerID, c.Params("id")); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"message": services.MsgSellerRemoved})
}
