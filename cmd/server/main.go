package main

import (
	"context"
	"os"

	"github.com/example/agrobazaar/internal/config"
	"github.com/example/agrobazaar/internal/database"
	"github.com/example/agrobazaar/internal/obs"
	"github.com/example/agrobazaar/internal/repository"
	"github.com/example/agrobazaar/internal/routes"
	"github.com/example/agrobazaar/internal/services"
	"github.com/example/agrobazaar/internal/utils"
)

func main() {
	cfg := config.Load()
	obs.InitLogger(cfg.LogLevel)

	ctx := context.Background()

	var (
		codes    repository.OTPRepository
		verified repository.VerifiedPhoneStore
		sellers  repository.SellerRepository
		products repository.ProductRepository
	)

	if cfg.UsesMemoryStore() {
		obs.Logger.Warn("using in-memory stores; data is lost on restart")
		codes = repository.NewMemoryOTPRepository()
		verified = repository.NewMemoryVerifiedPhoneStore()
		sellers = repository.NewMemorySellerRepository()
		products = repository.NewMemoryProductRepository()
	} else {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			fatal("database unavailable", err)
		}
		codes = repository.NewOTPRepository(db)
		verified = repository.NewGormVerifiedPhoneStore(db)
		sellers = repository.NewSellerRepository(db)
		products = repository.NewProductRepository(db)
	}

	rdb, err := database.ConnectRedis(ctx, cfg)
	if err != nil {
		fatal("redis unavailable", err)
	}
	if rdb != nil {
		defer rdb.Close()
		verified = repository.NewRedisVerifiedPhoneStore(rdb)
	}

	var sms services.SMSSender = services.LogSMSSender{}
	if cfg.SMSEnabled {
		sms = services.NewPlumSMSSender(services.PlumConfig{
			BaseURL:  cfg.SMSBaseURL,
			Username: cfg.SMSUsername,
			Password: cfg.SMSPassword,
		})
	}

	var indexer services.ProductIndexer = services.NopIndexer{}
	es, err := database.ConnectElastic(cfg)
	if err != nil {
		obs.Logger.Warn("search disabled", "error", err)
	} else if es != nil {
		elastic := services.NewElasticIndexer(es, cfg.ElasticIndex)
		if err := elastic.EnsureIndex(ctx); err != nil {
			obs.Logger.Warn("search disabled", "error", err)
		} else {
			indexer = elastic
		}
	}

	mc, err := database.ConnectMinio(ctx, cfg)
	if err != nil {
		obs.Logger.Warn("image uploads disabled", "error", err)
	}
	storage := services.NewStorageService(mc, cfg.MinioBucket, cfg.MinioPublicURL, cfg.UploadURLTTL)

	tokens := utils.NewTokenIssuer(cfg.JWTSecret, cfg.TokenExpires)
	telegram := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat)

	app := routes.NewApp("AgroBazaar Seller API", true)
	routes.Register(app, routes.Dependencies{
		OTP:      services.NewOTPService(codes, verified, sellers, sms, tokens, cfg.VerifiedPhoneTTL),
		Sellers:  services.NewSellerService(sellers, verified, tokens, telegram),
		Products: services.NewProductService(products, indexer),
		Storage:  storage,
		Tokens:   tokens,
	})

	obs.Logger.Info("starting server", "port", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		fatal("fiber.Listen error", err)
	}
}

func fatal(msg string, err error) {
	obs.Logger.Error(msg, "error", err)
	os.Exit(1)
}
