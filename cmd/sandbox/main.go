package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/saeid-a/tradechat/internal/config"
	"github.com/saeid-a/tradechat/internal/logging"
	"github.com/saeid-a/tradechat/internal/models"
	"github.com/saeid-a/tradechat/internal/repository"
	"github.com/saeid-a/tradechat/internal/routes"
	"github.com/saeid-a/tradechat/pkg/utils"
)

const demoPassword = "Passw0rd!"

func main() {
	configFile := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	// 1. Load Config
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		logging.Logger().Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logging.Setup(os.Stdout, cfg.LogFormat, cfg.LogLevel)

	// 2. In-memory store
	db := repository.NewMemoryDB()
	if cfg.SeedDemo {
		if err := seedDemo(context.Background(), db); err != nil {
			log.Error("failed to seed demo data", "error", err)
			os.Exit(1)
		}
		log.Info("seeded demo users", "password", demoPassword)
	}

	// 3. Setup Fiber
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	// Middleware
	app.Use(cors.New())
	app.Use(logger.New())
	app.Use(recover.New())

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})
	if err := routes.RegisterRoutes(app, cfg, db); err != nil {
		log.Error("failed to register routes", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		_ = app.Shutdown()
	}()

	// 4. Start Server
	log.Info("sandbox starting", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Error("sandbox failed", "error", err)
		os.Exit(1)
	}
}

// seedDemo creates one supplier with a small catalog and one business.
func seedDemo(ctx context.Context, db *repository.MemoryDB) error {
	hash, err := utils.HashPassword(demoPassword)
	if err != nil {
		return err
	}

	users := repository.NewUserRepository(db)
	supplier := models.User{Email: "supplier@tradechat.dev", Name: "Demo Supplier", Type: models.UserTypeSupplier}
	business := models.User{Email: "business@tradechat.dev", Name: "Demo Business", Type: models.UserTypeBusiness}
	for _, user := range []*models.User{&supplier, &business} {
		if err := users.CreateUser(ctx, user, hash); err != nil {
			return err
		}
	}

	items := repository.NewItemRepository(db)
	for _, item := range []models.Item{
		{SupplierID: supplier.ID, Name: "Whole milk", Unit: models.ItemUnitLiters, Size: 1},
		{SupplierID: supplier.ID, Name: "Espresso beans", Unit: models.ItemUnitKg, Size: 1},
	} {
		if err := items.CreateItem(ctx, &item); err != nil {
			return err
		}
	}
	return nil
}
