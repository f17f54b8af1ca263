package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/agrobazaar/internal/apperrors"
	"github.com/example/agrobazaar/internal/repository"
	"github.com/example/agrobazaar/internal/services"
	"github.com/example/agrobazaar/internal/utils"
)

// ProductHandler manages the authenticated seller's products.
type ProductHandler struct {
	products *services.ProductService
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(products *services.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// CreateProduct adds a product owned by the caller.
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	sellerID, err := currentSellerID(c)
	if err != nil {
		return err
	}

	var req services.ProductInput
	if err := decodeBody(c, &req); err != nil {
		return err
	}

	product, err := h.products.Create(c.UserContext(), sellerID, req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": services.MsgProductCreated,
		"product": product,
	})
}

// ListProducts returns paginated products with optional filters.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	sellerID, err := currentSellerID(c)
	if err != nil {
		return err
	}

	pg := utils.ParsePagination(c)

	minPrice, ok := utils.ParseFloatQuery(c, "minPrice")
	if !ok {
		return apperrors.Validation("minPrice must be a number.", nil)
	}
	maxPrice, ok := utils.ParseFloatQuery(c, "maxPrice")
	if !ok {
		return apperrors.Validation("maxPrice must be a number.", nil)
	}

	sort, err := repository.ParseSort(c.Query("sortBy"))
	if err != nil {
		return apperrors.Validation("sortBy must be one of name, createdAt, price.mrp, price.sellingPrice, stock.quantity with an optional :asc or :desc.", err)
	}

	page, err := h.products.List(c.UserContext(), repository.ProductFilter{
		SellerID: sellerID,
		Category: strings.TrimSpace(c.Query("category")),
		Brand:    strings.TrimSpace(c.Query("brand")),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Sort:     sort,
		Page:     pg.Page,
		Limit:    pg.Limit,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"count":    len(page.Products),
		"total":    page.Total,
		"page":     page.Page,
		"limit":    page.Limit,
		"products": page.Products,
	})
}

// SearchProducts runs a full-text query over the caller's products.
func (h *ProductHandler) SearchProducts(c *fiber.Ctx) error {
	sellerID, err := currentSellerID(c)
	if err != nil {
		return err
	}

	products, err := h.products.Search(c.UserContext(), sellerID, c.Query("q"), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"count":    len(products),
		"products": products,
	})
}

// GetProduct loads one of the caller's products.
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	sellerID, err := currentSellerID(c)
	if err != nil {
		return err
	}

	product, err := h.products.Get(c.UserContext(), sellerID, c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "product": product})
}

// UpdateProduct applies a partial update to one of the caller's products.
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	sellerID, err := currentSellerID(c)
	if err != nil {
		return err
	}

	var req services.ProductPatch
	if err := decodeBody(c, &req); err != nil {
		return err
	}

	product, err := h.products.Update(c.UserContext(), sellerID, c.Params("id"), req)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": services.MsgProductUpdated,
		"product": product,
	})
}

// DeleteProduct removes one of the caller's products.
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	sellerID, err := currentSellerID(c)
	if err != nil {
		return err
	}

	if err := h.products.Delete(c.UserContext(), sellerID, c.Params("id")); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": services.MsgProductDeleted,
	})
}
