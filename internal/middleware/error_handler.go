package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/example/agrobazaar/internal/apperrors"
	"github.com/example/agrobazaar/internal/obs"
)

const genericInternalMessage = "Something went wrong. Please try again later."

// ErrorHandler renders every failure as {"success": false, "error", "code"}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	code := apperrors.CodeInternal
	message := genericInternalMessage

	var appErr *apperrors.AppError
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &appErr):
		status = appErr.Status
		code = appErr.Code
		message = appErr.Message
		if status >= fiber.StatusInternalServerError {
			obs.Logger.Error("request failed",
				"method", c.Method(),
				"path", c.Path(),
				"code", code,
				"error", err,
			)
		}
	case errors.As(err, &fiberErr):
		status = fiberErr.Code
		message = fiberErr.Message
		code = codeForStatus(status)
	default:
		obs.Logger.Error("unhandled error",
			"method", c.Method(),
			"path", c.Path(),
			"error", err,
		)
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
		"code":    code,
	})
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge, fiber.StatusUnprocessableEntity:
		return apperrors.CodeValidation
	case fiber.StatusUnauthorized:
		return apperrors.CodeUnauthorized
	case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
		return apperrors.CodeNotFound
	case fiber.StatusServiceUnavailable:
		return apperrors.CodeUnavailable
	}
	return apperrors.CodeInternal
}
