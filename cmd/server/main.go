package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	config "github.com/maheshrc27/socialdesk/configs"
	"github.com/maheshrc27/socialdesk/internal/api"
	"github.com/maheshrc27/socialdesk/internal/database"
	"github.com/maheshrc27/socialdesk/internal/database/migrations"
	"github.com/maheshrc27/socialdesk/internal/models"
	"github.com/maheshrc27/socialdesk/internal/queue"
	"github.com/maheshrc27/socialdesk/internal/repository"
	"github.com/maheshrc27/socialdesk/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()
	if cfg.SecretKey == "" {
		log.Fatalf("SECRET_KEY must be set")
	}

	ctx := context.Background()

	db, err := database.Open(ctx, cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := migrations.MigrateUp(db); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}
	if version, current, err := migrations.Status(db); err == nil {
		log.Printf("Database schema at version %d (current: %t)", version, current)
	}

	var scheduler service.PublishScheduler = service.NewNoopScheduler()
	if cfg.RedisURI != "" {
		s, err := queue.NewScheduler(cfg.RedisURI)
		if err != nil {
			log.Fatalf("Failed to configure publish queue: %v", err)
		}
		defer s.Close()
		scheduler = s
	} else {
		log.Println("REDIS_URI not set, publish scheduling disabled")
	}

	objectStore, err := service.NewObjectStore(ctx, *cfg)
	if err != nil {
		log.Fatalf("Failed to configure storage: %v", err)
	}

	tx := repository.NewTransactor(db)
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	historyRepo := repository.NewPostingHistoryRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	conversationRepo := repository.NewConversationRepository(db)

	clock := service.RealClock{}
	authService := service.NewAuthService(*cfg, userRepo)

	app := api.NewApp(*cfg, api.Services{
		Auth:         authService,
		User:         service.NewUserService(userRepo),
		Post:         service.NewPostService(tx, postRepo, historyRepo, scheduler, clock),
		Platform:     service.NewPlatformService(*cfg, socialAccountRepo),
		Conversation: service.NewConversationService(tx, conversationRepo, service.NewCompleter(cfg.OpenAI), cfg.OpenAI.Timeout, clock, service.UUIDGenerator{}),
		Upload:       service.NewUploadService(objectStore, clock),
		Health:       service.NewHealthService(userRepo, postRepo, socialAccountRepo, conversationRepo, clock),
	}, true)

	if cfg.SeedAdmin.Email != "" && cfg.SeedAdmin.Password != "" {
		err := authService.EnsureUser(ctx, cfg.SeedAdmin.Username, cfg.SeedAdmin.Email, cfg.SeedAdmin.Password, models.RoleAdmin)
		if err != nil {
			log.Fatalf("Failed to seed admin user: %v", err)
		}
	}

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on http://localhost:%s", cfg.Port)

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
