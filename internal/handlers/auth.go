package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/agrobazaar/internal/services"
)

// AuthHandler serves the phone OTP endpoints.
type AuthHandler struct {
	otp *services.OTPService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(otp *services.OTPService) *AuthHandler {
	return &AuthHandler{otp: otp}
}

type phoneRequest struct {
	Mobile string `json:"mobile"`
}

type verifyRequest struct {
	Mobile string     `json:"mobile"`
	OTP    flexString `json:"otp"`
}

// RequestOTP issues a new code for the phone number.
func (h *AuthHandler) RequestOTP(c *fiber.Ctx) error {
	var req phoneRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}

	if err := h.otp.RequestCode(c.UserContext(), req.Mobile); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": services.MsgOTPSent,
	})
}

// ResendOTP redelivers the pending code.
func (h *AuthHandler) ResendOTP(c *fiber.Ctx) error {
	var req phoneRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}

	if err := h.otp.ResendCode(c.UserContext(), req.Mobile); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": services.MsgOTPResent,
	})
}

// VerifyOTP checks the submitted code. Registered sellers get a session;
// others are told to continue with registration.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}

	result, err := h.otp.VerifyCode(c.UserContext(), req.Mobile, string(req.OTP))
	if err != nil {
		return err
	}

	if result.Seller == nil {
		return c.JSON(fiber.Map{
			"message": result.Message,
			"seller":  nil,
		})
	}

	return c.JSON(fiber.Map{
		"seller": result.Seller,
		"token":  result.Token,
	})
}
