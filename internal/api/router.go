package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	config "github.com/maheshrc27/socialdesk/configs"
	"github.com/maheshrc27/socialdesk/internal/api/handlers"
	"github.com/maheshrc27/socialdesk/internal/api/middleware"
	"github.com/maheshrc27/socialdesk/internal/metrics"
	"github.com/maheshrc27/socialdesk/internal/service"
)

// Services is everything the HTTP layer dispatches to.
type Services struct {
	Auth         service.AuthService
	User         service.UserService
	Post         service.PostService
	Platform     service.PlatformService
	Conversation service.ConversationService
	Upload       service.UploadService
	Health       service.HealthService
}

// NewApp builds the Fiber app with every route mounted.
func NewApp(cfg config.Config, s Services, withLogger bool) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		// Oversized uploads must reach the upload service so they get a 400.
		BodyLimit:    int(service.MaxUploadSize) + 16<<20,
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(metrics.Middleware())
	if withLogger {
		app.Use(logger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.FrontendURL,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		MaxAge:       3600,
	}))

	if cfg.StorageDriver == "" || cfg.StorageDriver == "local" {
		app.Static("/uploads", cfg.UploadDir)
	}

	app.Get("/metrics", metrics.Handler())

	webhook := handlers.NewWebhookHandler(cfg.Webhook, s.Platform, s.Conversation)
	app.Get("/webhook", webhook.Verify)
	app.Post("/webhook", webhook.Receive)

	api := app.Group("/api")

	auth := handlers.NewAuthHandler(s.Auth)
	authLimit := limiter.New(limiter.Config{
		Max:        20,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"message": "Too many requests"})
		},
	})
	api.Post("/auth/login", authLimit, auth.Login)
	api.Post("/auth/register", authLimit, auth.Register)

	health := handlers.NewHealthHandler(s.Health)
	api.Get("/health", health.Health)

	authMiddleware := middleware.NewAuthMiddleware(cfg, s.User)
	protected := api.Group("", authMiddleware.AuthMiddleware())

	user := handlers.NewUserHandler(s.User, s.Auth)
	protected.Get("/user/me", user.GetUserInfo)
	protected.Put("/user/password", user.ChangePassword)

	post := handlers.NewPostHandler(s.Post)
	protected.Get("/posts", post.ListPosts)
	protected.Post("/posts", post.CreatePost)
	protected.Get("/posts/:id", post.GetPost)
	protected.Get("/posts/:id/history", post.PostHistory)
	protected.Put("/posts/:id", post.UpdatePost)
	protected.Delete("/posts/:id", post.RemovePost)

	platform := handlers.NewPlatformHandler(s.Platform)
	protected.Get("/social-accounts", platform.ListSocialAccounts)
	protected.Post("/social-accounts", platform.AddSocialAccount)
	protected.Put("/social-accounts/:id", platform.UpdateSocialAccount)
	protected.Delete("/social-accounts/:id", platform.RemoveSocialAccount)

	conversation := handlers.NewConversationHandler(s.Conversation)
	protected.Get("/conversations", conversation.ListConversations)
	protected.Post("/conversations/:id/messages", conversation.Reply)
	protected.Put("/conversations/:id/status", conversation.SetStatus)

	upload := handlers.NewUploadHandler(s.Upload)
	protected.Post("/upload", upload.Upload)

	return app
}
