package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"matchverse/config"
	"matchverse/handlers"
	"matchverse/middleware"
	"matchverse/repositories"
	"matchverse/services"
	"matchverse/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database: ", err)
	}

	store := repositories.NewGormStore(db)
	if err := store.Migrate(); err != nil {
		log.Fatal("failed to migrate database: ", err)
	}

	var archive services.ResultArchiver
	if cfg.R2.Enabled() {
		r2, err := utils.NewR2Archive(ctx, utils.R2Settings{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			AccessKeySecret: cfg.R2.AccessKeySecret,
			Bucket:          cfg.R2.Bucket,
			CDNBaseURL:      cfg.R2.CDNBaseURL,
		})
		if err != nil {
			log.Fatal("failed to initialize R2 client: ", err)
		}
		archive = r2
	} else {
		log.Println("⚠️  R2 bucket not configured, match results will not be archived")
	}

	rankingService := services.NewRankingService(store)
	achievementService := services.NewAchievementService(store)
	matchService := services.NewMatchService(store)
	resultService := services.NewMatchResultService(&services.MatchResultServiceDeps{
		Store:        store,
		Ranking:      rankingService,
		Achievements: achievementService,
		Archive:      archive,
	})

	app := fiber.New(fiber.Config{AppName: "matchverse"})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	app.Use(middleware.GatewayAuthMiddleware(cfg.GatewayToken))

	handlers.SetupMatchRoutes(app, matchService)
	handlers.SetupRankingRoutes(app, rankingService, resultService)

	sched, err := matchService.StartPoolReporter(ctx, cfg.ReportInterval)
	if err != nil {
		log.Fatal("failed to start pool reporter: ", err)
	}
	defer func() {
		if err := sched.Shutdown(); err != nil {
			log.Printf("Error shutting down scheduler: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%d", cfg.Port)
	log.Printf("✅ Match pool report every %s", cfg.ReportInterval)
	log.Printf("✅ CORS configured for origins: %s", strings.Join(cfg.AllowedOrigins, ","))

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Error shutting down server: %v", err)
	}
}
