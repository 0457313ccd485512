package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/tradechat/internal/config"
	"github.com/saeid-a/tradechat/internal/handlers"
	"github.com/saeid-a/tradechat/internal/middleware"
	"github.com/saeid-a/tradechat/internal/repository"
	chatws "github.com/saeid-a/tradechat/internal/websocket"
)

// RegisterRoutes mounts the sandbox REST surface under /v1 and the chat
// socket at /v1/chat.
func RegisterRoutes(app *fiber.App, cfg *config.Config, db *repository.MemoryDB) error {
	secret, err := cfg.SandboxSecret()
	if err != nil {
		return err
	}

	userRepo := repository.NewUserRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	itemRepo := repository.NewItemRepository(db)
	imageRepo := repository.NewImageRepository(db)

	authHandler := handlers.NewAuthHandler(userRepo, secret, cfg.TokenTTL)
	userHandler := handlers.NewUserHandler(userRepo)
	imageHandler := handlers.NewImageHandler(imageRepo)
	conversationHandler := handlers.NewConversationHandler(conversationRepo, messageRepo)
	orderHandler := handlers.NewOrderHandler(orderRepo, conversationRepo)
	itemHandler := handlers.NewItemHandler(itemRepo)
	chatHub := chatws.NewHub()
	go chatHub.Run()
	chatHandler := handlers.NewChatHandler(chatHub, conversationRepo, messageRepo, orderRepo, secret)

	api := app.Group("/v1")

	// Registration uploads its avatar before an account exists.
	api.Post("/tokens", authHandler.Login)
	api.Post("/users", authHandler.Register)
	api.Post("/images", imageHandler.Upload)
	api.Get("/images/:id", imageHandler.Get)

	api.Use("/chat", chatHandler.WebSocketAuth)
	api.Get("/chat", websocket.New(chatHandler.HandleWebSocket))

	auth := middleware.AuthRequired(secret)

	users := api.Group("/users", auth)
	users.Get("", userHandler.Search)
	users.Get("/:id", userHandler.Get)
	users.Put("/:id", userHandler.Update)
	users.Delete("/:id", userHandler.Delete)

	conversations := api.Group("/conversations", auth)
	conversations.Get("", conversationHandler.List)
	conversations.Post("", conversationHandler.Create)
	conversations.Get("/:id/messages", conversationHandler.Messages)

	api.Get("/messages/:id", auth, conversationHandler.GetMessage)

	orders := api.Group("/orders", auth)
	orders.Get("", orderHandler.List)
	orders.Post("", orderHandler.Create)
	orders.Get("/:id", orderHandler.Get)
	orders.Patch("/:id", orderHandler.Update)

	items := api.Group("/items", auth)
	items.Get("", itemHandler.List)
	items.Post("", itemHandler.Create)
	items.Get("/:id", itemHandler.Get)
	items.Put("/:id", itemHandler.Update)
	items.Delete("/:id", itemHandler.Delete)

	return nil
}
