package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/example/agrobazaar/internal/handlers"
	"github.com/example/agrobazaar/internal/middleware"
	"github.com/example/agrobazaar/internal/services"
	"github.com/example/agrobazaar/internal/utils"
)

// Dependencies are the services the HTTP layer is built on.
type Dependencies struct {
	OTP      *services.OTPService
	Sellers  *services.SellerService
	Products *services.ProductService
	Storage  *services.StorageService
	Tokens   *utils.TokenIssuer
}

// NewApp creates the Fiber app with the shared error handler and middleware.
func NewApp(appName string, accessLog bool) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      appName,
		ErrorHandler: middleware.ErrorHandler,
		BodyLimit:    1 << 20,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	if accessLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		}))
	}
	app.Use(cors.New())

	return app
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, deps Dependencies) {
	authHandler := handlers.NewAuthHandler(deps.OTP)
	sellerHandler := handlers.NewSellerHandler(deps.Sellers)
	productHandler := handlers.NewProductHandler(deps.Products)
	imageHandler := handlers.NewImageHandler(deps.Storage)

	requireSeller := middleware.AuthMiddleware(deps.Tokens)

	app.Get("/health", handlers.Health)

	api := app.Group("/api")

	// Seller signup & OTP verification
	seller := api.Group("/seller")
	seller.Post("/", sellerHandler.CreateSeller)
	seller.Post("/otp", authHandler.RequestOTP)
	seller.Post("/verify", authHandler.VerifyOTP)
	seller.Post("/resend", authHandler.ResendOTP)

	// Seller account (authenticated)
	seller.Get("/all", requireSeller, sellerHandler.ListSellers)
	seller.Get("/", requireSeller, sellerHandler.GetSeller)
	seller.Put("/:id", requireSeller, sellerHandler.UpdateSeller)
	seller.Delete("/:id", requireSeller, sellerHandler.DeleteSeller)

	// Products (authenticated, scoped to the caller)
	products := api.Group("/products", requireSeller)
	products.Post("/", productHandler.CreateProduct)
	products.Get("/", productHandler.ListProducts)
	products.Get("/search", productHandler.SearchProducts)
	products.Get("/:id", productHandler.GetProduct)
	products.Put("/:id", productHandler.UpdateProduct)
	products.Delete("/:id", productHandler.DeleteProduct)

	// Image uploads
	api.Post("/image/upload", imageHandler.PresignUpload)
}
