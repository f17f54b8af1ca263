package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/agrobazaar/internal/services"
)

// ImageHandler hands out presigned upload URLs.
type ImageHandler struct {
	storage *services.StorageService
}

// NewImageHandler constructs an ImageHandler.
func NewImageHandler(storage *services.StorageService) *ImageHandler {
	return &ImageHandler{storage: storage}
}

type uploadRequest struct {
	Key         string `json:"key"`
	ContentType string `json:"contentType"`
}

// PresignUpload returns a URL the client can PUT the image bytes to.
func (h *ImageHandler) PresignUpload(c *fiber.Ctx) error {
	var req uploadRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}

	ticket, err := h.storage.PresignUpload(c.UserContext(), req.Key, req.ContentType)
	if err != nil {
		return err
	}

	return c.JSON(ticket)
}
